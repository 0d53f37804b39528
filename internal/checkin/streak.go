package checkin

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// StreakCalculator derives the consecutive-completed-days count from the
// check-in history. The walk is bounded by LookbackDays: a streak is never
// credited for days outside the window. That bound is a known limitation,
// configurable via STREAK_LOOKBACK_DAYS.
type StreakCalculator struct {
	DB           *gorm.DB
	LookbackDays int
}

const defaultLookbackDays = 90

func (c *StreakCalculator) lookback() int {
	if c.LookbackDays > 0 {
		return c.LookbackDays
	}
	return defaultLookbackDays
}

// Current walks backwards one calendar day at a time starting from asOf if
// that day's check-in is completed, otherwise from the day before (a day not
// yet finished neither breaks nor extends the streak). The first gap stops
// the count.
func (c *StreakCalculator) Current(ctx context.Context, userID uint64, asOf time.Time) (int, error) {
	lookback := c.lookback()

	var rows []DailyCheckIn
	err := c.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date desc").
		Limit(lookback).
		Find(&rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	completed := make(map[string]bool, len(rows))
	for _, r := range rows {
		completed[r.Date] = r.IsCompleted
	}

	day := asOf
	if !completed[DateOf(day)] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for i := 0; i < lookback; i++ {
		if !completed[DateOf(day)] {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}
