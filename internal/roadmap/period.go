package roadmap

import (
	"strconv"
	"strings"

	"github.com/jongibson0501/northstar-app/internal/goal"
)

// ParseTimeframe maps a plan timeframe label ("Week 1", "Month 3") to a
// tagged target period. Unrecognized labels fall back to a month ordinal
// derived from the milestone's position.
func ParseTimeframe(tf string, fallbackOrdinal int) (goal.PeriodUnit, int) {
	fields := strings.Fields(strings.TrimSpace(tf))
	if len(fields) == 2 {
		if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
			switch strings.ToLower(fields[0]) {
			case "week":
				return goal.UnitWeek, n
			case "month":
				return goal.UnitMonth, n
			}
		}
	}
	if fallbackOrdinal < 1 {
		fallbackOrdinal = 1
	}
	return goal.UnitMonth, fallbackOrdinal
}
