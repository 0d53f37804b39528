package checkin

import "time"

// DateLayout is the calendar-date key format. Dates are user-local calendar
// days compared lexically, which for this layout matches chronological order.
const DateLayout = "2006-01-02"

func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// DailyCheckIn is the per-user-per-day two-phase record. The (user, date)
// pair is unique: the morning phase creates the row, the evening phase
// mutates it, normal flow never deletes it.
type DailyCheckIn struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	UserID uint64 `gorm:"not null;uniqueIndex:uq_check_ins_user_date,priority:1" json:"user_id"`
	Date   string `gorm:"not null;uniqueIndex:uq_check_ins_user_date,priority:2" json:"date"`

	MorningIntention string  `gorm:"type:text" json:"morning_intention"`
	SelectedActionID *uint64 `json:"selected_action_id"`

	// EveningAccomplished is tri-state: nil until the evening phase runs,
	// then true (accomplished) or false (partial progress).
	EveningAccomplished *bool  `json:"evening_accomplished"`
	EveningReflection   string `gorm:"type:text" json:"evening_reflection"`

	IsCompleted   bool `gorm:"not null;default:false" json:"is_completed"`
	CurrentStreak int  `gorm:"not null;default:0" json:"current_streak"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
