package jobs

import "time"

const (
	TypeNudgeMorning = "NUDGE_MORNING"
	TypeNudgeEvening = "NUDGE_EVENING"
)

const (
	StatusPending   = "PENDING"
	StatusRunning   = "RUNNING"
	StatusDone      = "DONE"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

// Job is a durable scheduled unit of work. Nudge reminders live here instead
// of in-process timers so they survive restarts and scale past one instance.
type Job struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`

	Type    string `gorm:"type:text;not null"`
	Payload []byte `gorm:"type:jsonb;not null"`

	RunAt  time.Time `gorm:"index;not null"`
	Status string    `gorm:"index;not null;default:'PENDING'"`

	Attempts    int `gorm:"not null;default:0"`
	MaxAttempts int `gorm:"not null;default:8"`

	LockedBy *string    `gorm:"type:text"`
	LockedAt *time.Time `gorm:"type:timestamptz"`

	LastError *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
