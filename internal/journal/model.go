package journal

import "time"

// Entry is a denormalized per-day record derived from a resolved check-in.
// It is a read projection, not a source of truth: check-in-derived fields
// must agree with the check-in they came from, while the journal-only fields
// (mood, learnings, challenges, tomorrow focus) are edited independently.
type Entry struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	UserID uint64 `gorm:"not null;uniqueIndex:uq_journal_user_date,priority:1" json:"user_id"`
	Date   string `gorm:"not null;uniqueIndex:uq_journal_user_date,priority:2" json:"date"`

	MorningIntention  string  `gorm:"type:text" json:"morning_intention"`
	SelectedGoalID    *uint64 `gorm:"index" json:"selected_goal_id"`
	SelectedActionID  *uint64 `json:"selected_action_id"`
	EveningReflection string  `gorm:"type:text" json:"evening_reflection"`

	// AccomplishmentLevel is 5 for accomplished, 3 for partial progress.
	AccomplishmentLevel int `gorm:"not null;default:0" json:"accomplishment_level"`

	Mood            string `json:"mood"`
	KeyLearnings    string `gorm:"type:text" json:"key_learnings"`
	ChallengesFaced string `gorm:"type:text" json:"challenges_faced"`
	TomorrowFocus   string `gorm:"type:text" json:"tomorrow_focus"`

	StreakCount int  `gorm:"not null;default:0" json:"streak_count"`
	IsCompleted bool `gorm:"not null;default:false" json:"is_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Entry) TableName() string { return "journal_entries" }

const (
	LevelAccomplished = 5
	LevelPartial      = 3
)
