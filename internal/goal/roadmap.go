package goal

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// RoadmapMilestone is one generated milestone with its actions, ready to be
// persisted onto a goal.
type RoadmapMilestone struct {
	Title         string
	PeriodUnit    PeriodUnit
	PeriodOrdinal int
	Actions       []string
}

// SaveRoadmap persists a generated plan onto the goal: milestones in order,
// each with its actions in order. An optional timeline updates the goal's
// timeline category in the same transaction.
func (s *Service) SaveRoadmap(ctx context.Context, userID, goalID uint64, timeline string, items []RoadmapMilestone) error {
	if len(items) == 0 {
		return ErrInvalidInput
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g Goal
		if err := tx.Where("id = ? AND user_id = ?", goalID, userID).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if timeline != "" {
			if !validTimeline(timeline) {
				return ErrInvalidInput
			}
			if err := tx.Model(&g).Update("timeline", timeline).Error; err != nil {
				return err
			}
		}

		for i, it := range items {
			title := strings.TrimSpace(it.Title)
			if title == "" {
				return ErrInvalidInput
			}
			unit := it.PeriodUnit
			if unit == "" {
				unit = UnitMonth
			}
			ordinal := it.PeriodOrdinal
			if ordinal < 1 {
				ordinal = 1
			}
			m := Milestone{
				GoalID:        goalID,
				Title:         title,
				OrderIndex:    i,
				PeriodUnit:    unit,
				PeriodOrdinal: ordinal,
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
			for j, at := range it.Actions {
				at = strings.TrimSpace(at)
				if at == "" {
					continue
				}
				a := Action{
					MilestoneID: m.ID,
					Title:       at,
					OrderIndex:  j,
				}
				if err := tx.Create(&a).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}
