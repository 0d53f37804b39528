package goal

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")
var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	DB *gorm.DB
}

// CascadeResult reports which transitions a single completion call caused.
// Callers use GoalCompleted to trigger one-time celebration side effects.
type CascadeResult struct {
	MilestoneCompleted bool
	GoalCompleted      bool
	GoalID             uint64
}

type CreateGoalInput struct {
	Title         string
	Description   string
	Timeline      string
	TimelineValue *int
}

func validTimeline(t string) bool {
	switch t {
	case Timeline1Month, Timeline3Months, Timeline6Months, Timeline1Year, TimelineCustom:
		return true
	}
	return false
}

func (s *Service) CreateGoal(ctx context.Context, userID uint64, in CreateGoalInput) (*Goal, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || !validTimeline(in.Timeline) {
		return nil, ErrInvalidInput
	}
	g := Goal{
		UserID:        userID,
		Title:         in.Title,
		Description:   in.Description,
		Timeline:      in.Timeline,
		TimelineValue: in.TimelineValue,
		Status:        StatusActive,
	}
	if err := s.DB.WithContext(ctx).Create(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func orderByIndex(db *gorm.DB) *gorm.DB {
	return db.Order("order_index asc")
}

// ListGoals returns the user's goals with their milestone/action trees. Goal
// completion is re-evaluated reactively on every read so a goal whose last
// milestone completed elsewhere converges without an extra write path.
func (s *Service) ListGoals(ctx context.Context, userID uint64) ([]Goal, error) {
	var out []Goal
	err := s.DB.WithContext(ctx).
		Preload("Milestones", orderByIndex).
		Preload("Milestones.Actions", orderByIndex).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range out {
		s.refreshLoadedGoal(ctx, &out[i], now)
	}
	return out, nil
}

func (s *Service) GetGoal(ctx context.Context, userID, goalID uint64) (*Goal, error) {
	var g Goal
	err := s.DB.WithContext(ctx).
		Preload("Milestones", orderByIndex).
		Preload("Milestones.Actions", orderByIndex).
		Where("id = ? AND user_id = ?", goalID, userID).
		First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.refreshLoadedGoal(ctx, &g, time.Now())
	return &g, nil
}

// refreshLoadedGoal runs the reactive goal-level completion check against the
// already-loaded tree and mirrors a transition back into the struct.
func (s *Service) refreshLoadedGoal(ctx context.Context, g *Goal, now time.Time) {
	if g.Status == StatusCompleted || len(g.Milestones) == 0 {
		return
	}
	for _, m := range g.Milestones {
		if !m.IsCompleted {
			return
		}
	}
	res := s.DB.WithContext(ctx).Model(&Goal{}).
		Where("id = ? AND status <> ?", g.ID, StatusCompleted).
		Updates(map[string]any{"status": StatusCompleted, "completed_at": now})
	if res.Error == nil {
		g.Status = StatusCompleted
		g.CompletedAt = &now
	}
}

type UpdateGoalInput struct {
	Title         *string
	Description   *string
	Timeline      *string
	TimelineValue *int
	Status        *string
}

func (s *Service) UpdateGoal(ctx context.Context, userID, goalID uint64, in UpdateGoalInput) (*Goal, error) {
	updates := map[string]any{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, ErrInvalidInput
		}
		updates["title"] = t
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Timeline != nil {
		if !validTimeline(*in.Timeline) {
			return nil, ErrInvalidInput
		}
		updates["timeline"] = *in.Timeline
	}
	if in.TimelineValue != nil {
		updates["timeline_value"] = *in.TimelineValue
	}
	if in.Status != nil {
		switch *in.Status {
		case StatusActive, StatusCompleted, StatusPaused:
			updates["status"] = *in.Status
		default:
			return nil, ErrInvalidInput
		}
	}

	var g Goal
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", goalID, userID).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&g).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// DeleteGoal removes the goal and its owned subtree, leaves first.
func (s *Service) DeleteGoal(ctx context.Context, userID, goalID uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g Goal
		if err := tx.Where("id = ? AND user_id = ?", goalID, userID).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var milestoneIDs []uint64
		if err := tx.Model(&Milestone{}).Where("goal_id = ?", goalID).Pluck("id", &milestoneIDs).Error; err != nil {
			return err
		}
		if len(milestoneIDs) > 0 {
			if err := tx.Where("milestone_id IN ?", milestoneIDs).Delete(&Action{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("goal_id = ?", goalID).Delete(&Milestone{}).Error; err != nil {
			return err
		}
		return tx.Delete(&g).Error
	})
}

type CreateMilestoneInput struct {
	GoalID        uint64
	Title         string
	Description   string
	OrderIndex    int
	PeriodUnit    PeriodUnit
	PeriodOrdinal int
}

func (s *Service) CreateMilestone(ctx context.Context, userID uint64, in CreateMilestoneInput) (*Milestone, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, ErrInvalidInput
	}
	if in.PeriodUnit == "" {
		in.PeriodUnit = UnitMonth
	}
	if in.PeriodUnit != UnitWeek && in.PeriodUnit != UnitMonth {
		return nil, ErrInvalidInput
	}
	if in.PeriodOrdinal < 1 {
		in.PeriodOrdinal = 1
	}

	var m Milestone
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g Goal
		if err := tx.Where("id = ? AND user_id = ?", in.GoalID, userID).First(&g).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		m = Milestone{
			GoalID:        in.GoalID,
			Title:         in.Title,
			Description:   in.Description,
			OrderIndex:    in.OrderIndex,
			PeriodUnit:    in.PeriodUnit,
			PeriodOrdinal: in.PeriodOrdinal,
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type CreateActionInput struct {
	MilestoneID uint64
	Title       string
	Description string
	OrderIndex  int
	Resources   ResourceList
}

func (s *Service) CreateAction(ctx context.Context, userID uint64, in CreateActionInput) (*Action, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, ErrInvalidInput
	}

	var a Action
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m Milestone
		if err := tx.
			Select("milestones.*").
			Joins("JOIN goals ON goals.id = milestones.goal_id").
			Where("milestones.id = ? AND goals.user_id = ?", in.MilestoneID, userID).
			First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		a = Action{
			MilestoneID: in.MilestoneID,
			Title:       in.Title,
			Description: in.Description,
			OrderIndex:  in.OrderIndex,
			Resources:   in.Resources,
		}
		return tx.Create(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SetActionCompleted flips an action's completion flag and, on completion,
// runs the upward cascade. Marking an action incomplete never re-opens a
// completed parent (one-way ratchet).
func (s *Service) SetActionCompleted(ctx context.Context, userID, actionID uint64, completed bool, now time.Time) (*Action, CascadeResult, error) {
	var a Action
	var res CascadeResult

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Select("actions.*").
			Joins("JOIN milestones ON milestones.id = actions.milestone_id").
			Joins("JOIN goals ON goals.id = milestones.goal_id").
			Where("actions.id = ? AND goals.user_id = ?", actionID, userID).
			First(&a).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		updates := map[string]any{"is_completed": completed}
		if completed {
			updates["completed_at"] = now
		} else {
			updates["completed_at"] = nil
		}
		if err := tx.Model(&Action{}).Where("id = ?", a.ID).Updates(updates).Error; err != nil {
			return err
		}
		a.IsCompleted = completed
		if completed {
			a.CompletedAt = &now
		} else {
			a.CompletedAt = nil
		}

		if !completed {
			return nil
		}
		return s.cascadeFromAction(tx, a.MilestoneID, now, &res)
	})
	if err != nil {
		return nil, CascadeResult{}, err
	}
	return &a, res, nil
}

// SetMilestoneCompleted is the direct user override. It is independent of
// children state and does not retroactively alter them.
func (s *Service) SetMilestoneCompleted(ctx context.Context, userID, milestoneID uint64, completed bool, now time.Time) (*Milestone, CascadeResult, error) {
	var m Milestone
	var res CascadeResult

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Select("milestones.*").
			Joins("JOIN goals ON goals.id = milestones.goal_id").
			Where("milestones.id = ? AND goals.user_id = ?", milestoneID, userID).
			First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		updates := map[string]any{"is_completed": completed}
		if completed {
			updates["completed_at"] = now
		} else {
			updates["completed_at"] = nil
		}
		if err := tx.Model(&Milestone{}).Where("id = ?", m.ID).Updates(updates).Error; err != nil {
			return err
		}
		m.IsCompleted = completed
		if completed {
			m.CompletedAt = &now
		} else {
			m.CompletedAt = nil
		}

		if !completed {
			return nil
		}
		return s.refreshGoalCompletion(tx, m.GoalID, now, &res)
	})
	if err != nil {
		return nil, CascadeResult{}, err
	}
	return &m, res, nil
}

// cascadeFromAction evaluates the parent milestone after an action completed.
// A missing parent is skipped silently: this is a best-effort consistency
// pass, not a fatal error.
func (s *Service) cascadeFromAction(tx *gorm.DB, milestoneID uint64, now time.Time, res *CascadeResult) error {
	var m Milestone
	if err := tx.First(&m, milestoneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	var total, done int64
	if err := tx.Model(&Action{}).Where("milestone_id = ?", m.ID).Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&Action{}).Where("milestone_id = ? AND is_completed = ?", m.ID, true).Count(&done).Error; err != nil {
		return err
	}
	// a milestone with zero actions requires an explicit user action
	if total == 0 || done < total {
		return nil
	}

	if !m.IsCompleted {
		out := tx.Model(&Milestone{}).
			Where("id = ? AND is_completed = ?", m.ID, false).
			Updates(map[string]any{"is_completed": true, "completed_at": now})
		if out.Error != nil {
			return out.Error
		}
		if out.RowsAffected > 0 {
			res.MilestoneCompleted = true
		}
	}

	return s.refreshGoalCompletion(tx, m.GoalID, now, res)
}

// refreshGoalCompletion transitions the goal to completed when every owned
// milestone is completed. The conditional update makes the transition happen
// exactly once even when sibling cascades race.
func (s *Service) refreshGoalCompletion(tx *gorm.DB, goalID uint64, now time.Time, res *CascadeResult) error {
	var g Goal
	if err := tx.First(&g, goalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if g.Status == StatusCompleted {
		return nil
	}

	var total, done int64
	if err := tx.Model(&Milestone{}).Where("goal_id = ?", g.ID).Count(&total).Error; err != nil {
		return err
	}
	if err := tx.Model(&Milestone{}).Where("goal_id = ? AND is_completed = ?", g.ID, true).Count(&done).Error; err != nil {
		return err
	}
	if total == 0 || done < total {
		return nil
	}

	out := tx.Model(&Goal{}).
		Where("id = ? AND status <> ?", g.ID, StatusCompleted).
		Updates(map[string]any{"status": StatusCompleted, "completed_at": now})
	if out.Error != nil {
		return out.Error
	}
	if out.RowsAffected > 0 {
		res.GoalCompleted = true
		res.GoalID = g.ID
	}
	return nil
}

// IncompleteAction is a picker row for the morning check-in selector.
type IncompleteAction struct {
	ActionID       uint64     `json:"action_id"`
	Title          string     `json:"title"`
	MilestoneTitle string     `json:"milestone_title"`
	PeriodUnit     PeriodUnit `json:"period_unit"`
	PeriodOrdinal  int        `json:"period_ordinal"`
	GoalID         uint64     `json:"goal_id"`
	GoalTitle      string     `json:"goal_title"`
}

func (s *Service) IncompleteActions(ctx context.Context, userID uint64) ([]IncompleteAction, error) {
	var out []IncompleteAction
	err := s.DB.WithContext(ctx).
		Table("actions").
		Select(`actions.id as action_id, actions.title as title,
			milestones.title as milestone_title, milestones.period_unit, milestones.period_ordinal,
			goals.id as goal_id, goals.title as goal_title`).
		Joins("JOIN milestones ON milestones.id = actions.milestone_id").
		Joins("JOIN goals ON goals.id = milestones.goal_id").
		Where("goals.user_id = ? AND actions.is_completed = ?", userID, false).
		Order("milestones.period_ordinal asc, actions.order_index asc").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveGoalForAction maps an action id to its owning goal. Used when the
// journal projection needs the goal behind a selected action; a dangling
// reference yields (0, false).
func (s *Service) ResolveGoalForAction(ctx context.Context, actionID uint64) (uint64, bool) {
	var goalID uint64
	err := s.DB.WithContext(ctx).
		Table("actions").
		Select("milestones.goal_id").
		Joins("JOIN milestones ON milestones.id = actions.milestone_id").
		Where("actions.id = ?", actionID).
		Scan(&goalID).Error
	if err != nil || goalID == 0 {
		return 0, false
	}
	return goalID, true
}
