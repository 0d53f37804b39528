package jobs

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	DB *gorm.DB
}

func (r *Repo) EnqueueNudge(userID uint64, typ string, runAt time.Time) error {
	payload, _ := json.Marshal(map[string]any{"user_id": userID})
	j := Job{
		UserID:  userID,
		Type:    typ,
		Payload: payload,
		RunAt:   runAt,
		Status:  StatusPending,
	}
	return r.DB.Create(&j).Error
}

// CancelPendingNudges removes the user's queued nudges so a preferences
// change replaces the schedule instead of stacking duplicates.
func (r *Repo) CancelPendingNudges(userID uint64) error {
	return r.DB.
		Where("user_id = ? AND status = ? AND type IN ?",
			userID, StatusPending, []string{TypeNudgeMorning, TypeNudgeEvening}).
		Delete(&Job{}).Error
}

// Claim one due job atomically using SKIP LOCKED. Postgres only.
func (r *Repo) Claim(workerID string) (*Job, error) {
	var job Job
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		// requeue stuck RUNNING jobs
		tx.Exec(`
update jobs
set status='PENDING', locked_by=null, locked_at=null, updated_at=now()
where status='RUNNING' and locked_at is not null and locked_at < now() - interval '5 minutes'
`)

		q := tx.Raw(`
with cte as (
  select id
  from jobs
  where status='PENDING' and run_at <= now()
  order by run_at asc
  for update skip locked
  limit 1
)
update jobs
set status='RUNNING', locked_by=?, locked_at=now(), updated_at=now()
where id in (select id from cte)
returning *;
`, workerID)

		return q.Scan(&job).Error
	})
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

func (r *Repo) MarkDone(id uint64) error {
	return r.DB.Exec(`update jobs set status='DONE', updated_at=now() where id=?`, id).Error
}

func (r *Repo) MarkFailed(id uint64, errMsg string) error {
	return r.DB.Exec(`update jobs set status='FAILED', last_error=?, updated_at=now() where id=?`, errMsg, id).Error
}

func (r *Repo) RetryLater(id uint64, attempts int, runAt time.Time, errMsg string) error {
	return r.DB.Exec(`
update jobs
set status='PENDING',
    attempts=?,
    run_at=?,
    locked_by=null,
    locked_at=null,
    last_error=?,
    updated_at=now()
where id=?`, attempts, runAt, errMsg, id).Error
}

// PendingNudges lists the user's queued nudges, soonest first.
func (r *Repo) PendingNudges(userID uint64) ([]Job, error) {
	var out []Job
	err := r.DB.
		Where("user_id = ? AND status = ? AND type IN ?",
			userID, StatusPending, []string{TypeNudgeMorning, TypeNudgeEvening}).
		Order("run_at asc").
		Find(&out).Error
	return out, err
}
