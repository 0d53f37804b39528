package checkin

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jongibson0501/northstar-app/internal/goal"
	"github.com/jongibson0501/northstar-app/internal/journal"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrValidation = errors.New("invalid input")
var ErrNotFound = errors.New("not found")

// Service drives the daily check-in lifecycle:
// NotStarted -> MorningSet -> EveningResolved, keyed by (user, date).
type Service struct {
	DB      *gorm.DB
	Streaks *StreakCalculator
	Journal *journal.Service
	Goals   *goal.Service
	Log     *slog.Logger
}

type MorningInput struct {
	Date             string // defaults to today
	Intention        string
	SelectedActionID *uint64
}

// SubmitMorning creates the day's check-in. The morning phase is set at most
// once per day: a retry against an existing row coalesces into a no-op update
// instead of failing or duplicating, so the flow is idempotent.
func (s *Service) SubmitMorning(ctx context.Context, userID uint64, in MorningInput) (*DailyCheckIn, error) {
	in.Intention = strings.TrimSpace(in.Intention)
	if in.Intention == "" {
		return nil, ErrValidation
	}
	if in.Date == "" {
		in.Date = DateOf(time.Now())
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return nil, ErrValidation
	}

	var existing DailyCheckIn
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, in.Date).
		First(&existing).Error
	if err == nil {
		return s.coalesceMorning(ctx, &existing, in)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ci := DailyCheckIn{
		UserID:           userID,
		Date:             in.Date,
		MorningIntention: in.Intention,
		SelectedActionID: in.SelectedActionID,
	}
	if err := s.DB.WithContext(ctx).Create(&ci).Error; err != nil {
		if isUniqueViolation(err) {
			// lost the race against a concurrent morning submission
			if rerr := s.DB.WithContext(ctx).
				Where("user_id = ? AND date = ?", userID, in.Date).
				First(&existing).Error; rerr == nil {
				return s.coalesceMorning(ctx, &existing, in)
			}
		}
		return nil, err
	}
	return &ci, nil
}

// coalesceMorning handles a morning submission against an existing row. The
// intention is only filled in when it was never set; a populated morning
// phase is not re-enterable and the retry degrades to a no-op. An already
// stored action selection survives a retry that omits one.
func (s *Service) coalesceMorning(ctx context.Context, ci *DailyCheckIn, in MorningInput) (*DailyCheckIn, error) {
	if ci.MorningIntention != "" {
		return ci, nil
	}
	updates := map[string]any{"morning_intention": in.Intention}
	if in.SelectedActionID != nil {
		updates["selected_action_id"] = in.SelectedActionID
	}
	if err := s.DB.WithContext(ctx).Model(ci).Updates(updates).Error; err != nil {
		return nil, err
	}
	ci.MorningIntention = in.Intention
	if in.SelectedActionID != nil {
		ci.SelectedActionID = in.SelectedActionID
	}
	return ci, nil
}

// isUniqueViolation recognizes SQLSTATE 23505 from both postgres driver
// families: the gorm postgres driver surfaces pgconn.PgError, raw lib/pq
// connections surface pq.Error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

type EveningInput struct {
	Accomplished *bool // true = accomplished, false = partial progress
	Reflection   string
}

// ResolveEvening resolves (or edits) the evening phase. The streak snapshot
// is derived exactly once per day, at the first transition of the tri-state
// accomplishment out of nil: +1 over yesterday's streak when accomplished,
// yesterday's streak unchanged when partial. Later edits overwrite the
// accomplishment and reflection without re-deriving the snapshot, so after a
// partial-to-accomplished edit the stored snapshot can read one lower than a
// live StreakCalculator run for the same day.
func (s *Service) ResolveEvening(ctx context.Context, userID, checkInID uint64, in EveningInput) (*DailyCheckIn, error) {
	if in.Accomplished == nil {
		return nil, ErrValidation
	}

	var ci DailyCheckIn
	err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", checkInID, userID).
		First(&ci).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"evening_accomplished": *in.Accomplished,
		"evening_reflection":   in.Reflection,
		"is_completed":         *in.Accomplished,
	}

	if ci.EveningAccomplished == nil {
		day, perr := time.Parse(DateLayout, ci.Date)
		if perr != nil {
			return nil, perr
		}
		// the row is not completed yet, so the calculator counts back
		// from the day before
		prev, serr := s.Streaks.Current(ctx, userID, day)
		if serr != nil {
			return nil, serr
		}
		if *in.Accomplished {
			prev++
		}
		updates["current_streak"] = prev
		ci.CurrentStreak = prev
	}

	if err := s.DB.WithContext(ctx).Model(&ci).Updates(updates).Error; err != nil {
		return nil, err
	}
	ci.EveningAccomplished = in.Accomplished
	ci.EveningReflection = in.Reflection
	ci.IsCompleted = *in.Accomplished

	s.projectJournal(ctx, &ci)
	return &ci, nil
}

// projectJournal upserts the journal entry for a resolved check-in. The
// projection is best-effort: a failed write is logged and never fails the
// check-in transition itself.
func (s *Service) projectJournal(ctx context.Context, ci *DailyCheckIn) {
	var goalID *uint64
	if ci.SelectedActionID != nil && s.Goals != nil {
		// a deleted action is treated as "no specific action selected"
		if gid, ok := s.Goals.ResolveGoalForAction(ctx, *ci.SelectedActionID); ok {
			goalID = &gid
		}
	}

	level := journal.LevelPartial
	if ci.EveningAccomplished != nil && *ci.EveningAccomplished {
		level = journal.LevelAccomplished
	}

	err := s.Journal.UpsertFromCheckIn(ctx, journal.UpsertInput{
		UserID:              ci.UserID,
		Date:                ci.Date,
		MorningIntention:    ci.MorningIntention,
		SelectedGoalID:      goalID,
		SelectedActionID:    ci.SelectedActionID,
		EveningReflection:   ci.EveningReflection,
		AccomplishmentLevel: level,
		StreakCount:         ci.CurrentStreak,
		IsCompleted:         ci.IsCompleted,
	})
	if err != nil && s.Log != nil {
		s.Log.Error("journal projection write failed",
			"user_id", ci.UserID, "date", ci.Date, "err", err)
	}
}

// Today returns the check-in for the given date, if any.
func (s *Service) Today(ctx context.Context, userID uint64, date string) (*DailyCheckIn, error) {
	if date == "" {
		date = DateOf(time.Now())
	}
	var ci DailyCheckIn
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&ci).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ci, nil
}

// Recent returns the user's check-ins within the last `days` days, newest
// first.
func (s *Service) Recent(ctx context.Context, userID uint64, days int) ([]DailyCheckIn, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().AddDate(0, 0, -days).Format(DateLayout)

	var out []DailyCheckIn
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ?", userID, cutoff).
		Order("date desc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
