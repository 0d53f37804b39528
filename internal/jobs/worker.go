package jobs

import (
	"context"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"
)

type Worker struct {
	ID   string
	Repo *Repo
	DB   *gorm.DB
	Log  *slog.Logger
}

// Local row views keep this package decoupled from the owning domain
// packages; the worker only reads.
type prefsRow struct {
	UserID           uint64 `gorm:"column:user_id"`
	MorningNudgeTime string `gorm:"column:morning_nudge_time"`
	EveningNudgeTime string `gorm:"column:evening_nudge_time"`
	Timezone         string `gorm:"column:timezone"`
	NudgesEnabled    bool   `gorm:"column:nudges_enabled"`
}

func (prefsRow) TableName() string { return "user_preferences" }

type checkInRow struct {
	ID                  uint64 `gorm:"column:id"`
	UserID              uint64 `gorm:"column:user_id"`
	Date                string `gorm:"column:date"`
	MorningIntention    string `gorm:"column:morning_intention"`
	EveningAccomplished *bool  `gorm:"column:evening_accomplished"`
}

func (checkInRow) TableName() string { return "daily_check_ins" }

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				w.Log.Error("worker claim error", "err", err)
				continue
			}
			if job == nil {
				continue
			}
			w.handle(job)
		}
	}
}

func (w *Worker) handle(job *Job) {
	switch job.Type {
	case TypeNudgeMorning, TypeNudgeEvening:
		w.handleNudge(job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

// handleNudge dispatches a morning or evening reminder unless the user has
// disabled nudges or already finished the corresponding check-in phase, then
// schedules the next day's occurrence. Failures of the dispatch never touch
// check-in state.
func (w *Worker) handleNudge(job *Job) {
	var p prefsRow
	if err := w.DB.Where("user_id = ?", job.UserID).First(&p).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// preferences deleted; nothing left to schedule
			_ = w.Repo.MarkDone(job.ID)
			return
		}
		w.retry(job, "prefs read error")
		return
	}
	if !p.NudgesEnabled {
		_ = w.Repo.MarkDone(job.ID)
		return
	}

	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		loc = time.UTC
	}
	today := time.Now().In(loc).Format("2006-01-02")

	var ci checkInRow
	cerr := w.DB.Where("user_id = ? AND date = ?", job.UserID, today).First(&ci).Error
	haveCheckIn := cerr == nil
	if cerr != nil && cerr != gorm.ErrRecordNotFound {
		w.retry(job, "check-in read error")
		return
	}

	switch job.Type {
	case TypeNudgeMorning:
		if haveCheckIn && ci.MorningIntention != "" {
			w.Log.Info("morning nudge skipped, intention already set", "user_id", job.UserID, "date", today)
		} else {
			// delivery mechanics live outside this core; the dispatch is the signal
			w.Log.Info("[NUDGE] morning reminder", "user_id", job.UserID, "date", today)
		}
	case TypeNudgeEvening:
		if haveCheckIn && ci.EveningAccomplished != nil {
			w.Log.Info("evening nudge skipped, already resolved", "user_id", job.UserID, "date", today)
		} else {
			w.Log.Info("[NUDGE] evening reminder", "user_id", job.UserID, "date", today)
		}
	}

	_ = w.Repo.MarkDone(job.ID)
	w.scheduleNext(job, &p)
}

func (w *Worker) scheduleNext(job *Job, p *prefsRow) {
	clock := p.MorningNudgeTime
	if job.Type == TypeNudgeEvening {
		clock = p.EveningNudgeTime
	}
	next, err := NextRunAt(clock, p.Timezone, time.Now())
	if err != nil {
		w.Log.Error("nudge reschedule failed", "user_id", job.UserID, "type", job.Type, "err", err)
		return
	}
	if err := w.Repo.EnqueueNudge(job.UserID, job.Type, next); err != nil {
		w.Log.Error("nudge enqueue failed", "user_id", job.UserID, "type", job.Type, "err", err)
	}
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}
