package prefs

import "time"

// Preferences holds per-user nudge configuration. The core only uses it to
// decide when reminders fire; delivery is out of scope.
type Preferences struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	UserID uint64 `gorm:"uniqueIndex;not null" json:"user_id"`

	MorningNudgeTime string `gorm:"not null;default:'10:00'" json:"morning_nudge_time"`
	EveningNudgeTime string `gorm:"not null;default:'20:00'" json:"evening_nudge_time"`
	Timezone         string `gorm:"not null;default:'America/New_York'" json:"timezone"`
	NudgesEnabled    bool   `gorm:"not null;default:true" json:"nudges_enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Preferences) TableName() string { return "user_preferences" }

func defaults(userID uint64) Preferences {
	return Preferences{
		UserID:           userID,
		MorningNudgeTime: "10:00",
		EveningNudgeTime: "20:00",
		Timezone:         "America/New_York",
		NudgesEnabled:    true,
	}
}
