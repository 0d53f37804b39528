package journal

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

type Service struct {
	DB *gorm.DB
}

// UpsertInput carries the check-in-derived fields. Journal-only fields are
// never touched by the upsert so independent edits survive re-resolution.
type UpsertInput struct {
	UserID              uint64
	Date                string
	MorningIntention    string
	SelectedGoalID      *uint64
	SelectedActionID    *uint64
	EveningReflection   string
	AccomplishmentLevel int
	StreakCount         int
	IsCompleted         bool
}

// UpsertFromCheckIn creates or updates the entry for (user, date).
func (s *Service) UpsertFromCheckIn(ctx context.Context, in UpsertInput) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e Entry
		err := tx.Where("user_id = ? AND date = ?", in.UserID, in.Date).First(&e).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			e = Entry{
				UserID:              in.UserID,
				Date:                in.Date,
				MorningIntention:    in.MorningIntention,
				SelectedGoalID:      in.SelectedGoalID,
				SelectedActionID:    in.SelectedActionID,
				EveningReflection:   in.EveningReflection,
				AccomplishmentLevel: in.AccomplishmentLevel,
				StreakCount:         in.StreakCount,
				IsCompleted:         in.IsCompleted,
			}
			return tx.Create(&e).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&e).Updates(map[string]any{
			"morning_intention":    in.MorningIntention,
			"selected_goal_id":     in.SelectedGoalID,
			"selected_action_id":   in.SelectedActionID,
			"evening_reflection":   in.EveningReflection,
			"accomplishment_level": in.AccomplishmentLevel,
			"streak_count":         in.StreakCount,
			"is_completed":         in.IsCompleted,
		}).Error
	})
}

// Recent returns the user's entries within the last `days` days, newest first.
func (s *Service) Recent(ctx context.Context, userID uint64, days int) ([]Entry, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days).Format("2006-01-02")

	var out []Entry
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, cutoff).
		Order("date desc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ForGoal returns every entry the user filed against a specific goal.
func (s *Service) ForGoal(ctx context.Context, userID, goalID uint64) ([]Entry, error) {
	var out []Entry
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND selected_goal_id = ?", userID, goalID).
		Order("date desc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Patch updates the journal-only fields. Check-in-derived fields stay owned
// by the upsert path.
type Patch struct {
	Mood            *string
	KeyLearnings    *string
	ChallengesFaced *string
	TomorrowFocus   *string
}

func (s *Service) Update(ctx context.Context, userID, entryID uint64, p Patch) (*Entry, error) {
	var e Entry
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", entryID, userID).First(&e).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		updates := map[string]any{}
		if p.Mood != nil {
			updates["mood"] = *p.Mood
		}
		if p.KeyLearnings != nil {
			updates["key_learnings"] = *p.KeyLearnings
		}
		if p.ChallengesFaced != nil {
			updates["challenges_faced"] = *p.ChallengesFaced
		}
		if p.TomorrowFocus != nil {
			updates["tomorrow_focus"] = *p.TomorrowFocus
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&e).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}
