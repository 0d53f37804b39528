package goal

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Timeline categories. Custom carries its length in months in TimelineValue.
const (
	Timeline1Month  = "1_month"
	Timeline3Months = "3_months"
	Timeline6Months = "6_months"
	Timeline1Year   = "1_year"
	TimelineCustom  = "custom"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusPaused    = "paused"
)

// PeriodUnit disambiguates a milestone's target period. The ordinal counts
// weeks for week-based plans and months otherwise.
type PeriodUnit string

const (
	UnitWeek  PeriodUnit = "week"
	UnitMonth PeriodUnit = "month"
)

type Goal struct {
	ID            uint64 `gorm:"primaryKey" json:"id"`
	UserID        uint64 `gorm:"index;not null" json:"user_id"`
	Title         string `gorm:"not null" json:"title"`
	Description   string `gorm:"type:text" json:"description"`
	Timeline      string `gorm:"not null" json:"timeline"`
	TimelineValue *int   `json:"timeline_value,omitempty"` // months, custom timelines only
	Status        string `gorm:"not null;default:'active'" json:"status"`

	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Milestones []Milestone `gorm:"foreignKey:GoalID" json:"milestones,omitempty"`
}

type Milestone struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	GoalID      uint64 `gorm:"index;not null" json:"goal_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// OrderIndex defines display and processing order within the goal.
	OrderIndex    int        `gorm:"not null" json:"order_index"`
	PeriodUnit    PeriodUnit `gorm:"type:text;not null;default:'month'" json:"period_unit"`
	PeriodOrdinal int        `gorm:"not null;default:1" json:"period_ordinal"`

	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Actions []Action `gorm:"foreignKey:MilestoneID" json:"actions,omitempty"`
}

type Action struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	MilestoneID uint64 `gorm:"index;not null" json:"milestone_id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	Resources  ResourceList `gorm:"type:jsonb" json:"resources"`
	OrderIndex int          `gorm:"not null" json:"order_index"`

	IsCompleted bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Resource is an external reference attached to an action.
type Resource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

type ResourceList []Resource

func (l ResourceList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ResourceList) Scan(v any) error {
	if v == nil {
		*l = nil
		return nil
	}
	switch t := v.(type) {
	case []byte:
		return json.Unmarshal(t, l)
	case string:
		return json.Unmarshal([]byte(t), l)
	default:
		return fmt.Errorf("unsupported resources type %T", v)
	}
}
