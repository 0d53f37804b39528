package prefs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jongibson0501/northstar-app/internal/jobs"
	"gorm.io/gorm"
)

var ErrValidation = errors.New("invalid input")

type Service struct {
	DB   *gorm.DB
	Jobs *jobs.Repo
	Log  *slog.Logger
}

// Get returns the stored preferences, or the defaults when the user has
// never saved any. Defaults are not persisted until the first upsert.
func (s *Service) Get(ctx context.Context, userID uint64) (*Preferences, error) {
	var p Preferences
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		d := defaults(userID)
		return &d, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type UpsertInput struct {
	MorningNudgeTime *string
	EveningNudgeTime *string
	Timezone         *string
	NudgesEnabled    *bool
}

// Upsert saves the preferences and replaces the user's queued nudge jobs to
// match: old pending nudges are cancelled and, when nudges are enabled, the
// next morning and evening occurrences are enqueued.
func (s *Service) Upsert(ctx context.Context, userID uint64, in UpsertInput) (*Preferences, error) {
	var p Preferences

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p = defaults(userID)
		} else if err != nil {
			return err
		}

		if in.MorningNudgeTime != nil {
			if _, err := time.Parse("15:04", *in.MorningNudgeTime); err != nil {
				return ErrValidation
			}
			p.MorningNudgeTime = *in.MorningNudgeTime
		}
		if in.EveningNudgeTime != nil {
			if _, err := time.Parse("15:04", *in.EveningNudgeTime); err != nil {
				return ErrValidation
			}
			p.EveningNudgeTime = *in.EveningNudgeTime
		}
		if in.Timezone != nil {
			if _, err := time.LoadLocation(*in.Timezone); err != nil {
				return ErrValidation
			}
			p.Timezone = *in.Timezone
		}
		if in.NudgesEnabled != nil {
			p.NudgesEnabled = *in.NudgesEnabled
		}

		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}

	s.reschedule(&p)
	return &p, nil
}

// reschedule is best-effort: a failed enqueue is logged, never surfaced, and
// the worker's daily re-enqueue will self-heal the schedule.
func (s *Service) reschedule(p *Preferences) {
	if s.Jobs == nil {
		return
	}
	if err := s.Jobs.CancelPendingNudges(p.UserID); err != nil {
		s.logErr("nudge cancel failed", p.UserID, err)
		return
	}
	if !p.NudgesEnabled {
		return
	}

	now := time.Now()
	if at, err := jobs.NextRunAt(p.MorningNudgeTime, p.Timezone, now); err == nil {
		if err := s.Jobs.EnqueueNudge(p.UserID, jobs.TypeNudgeMorning, at); err != nil {
			s.logErr("morning nudge enqueue failed", p.UserID, err)
		}
	} else {
		s.logErr("morning nudge schedule failed", p.UserID, err)
	}
	if at, err := jobs.NextRunAt(p.EveningNudgeTime, p.Timezone, now); err == nil {
		if err := s.Jobs.EnqueueNudge(p.UserID, jobs.TypeNudgeEvening, at); err != nil {
			s.logErr("evening nudge enqueue failed", p.UserID, err)
		}
	} else {
		s.logErr("evening nudge schedule failed", p.UserID, err)
	}
}

func (s *Service) logErr(msg string, userID uint64, err error) {
	if s.Log != nil {
		s.Log.Error(msg, "user_id", userID, "err", err)
	}
}
