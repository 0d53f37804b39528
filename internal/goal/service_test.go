package goal

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Goal{}, &Milestone{}, &Action{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

const testUser uint64 = 1

// seedTree creates a goal with the given milestone shapes, where each entry
// is the number of actions under that milestone.
func seedTree(t *testing.T, svc *Service, actionCounts ...int) (*Goal, []Milestone, [][]Action) {
	t.Helper()
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, testUser, CreateGoalInput{
		Title:    "Learn Spanish",
		Timeline: Timeline6Months,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	var milestones []Milestone
	var actions [][]Action
	for i, n := range actionCounts {
		m, err := svc.CreateMilestone(ctx, testUser, CreateMilestoneInput{
			GoalID:        g.ID,
			Title:         "Milestone",
			OrderIndex:    i,
			PeriodUnit:    UnitMonth,
			PeriodOrdinal: i + 1,
		})
		if err != nil {
			t.Fatalf("create milestone: %v", err)
		}
		milestones = append(milestones, *m)

		var acts []Action
		for j := 0; j < n; j++ {
			a, err := svc.CreateAction(ctx, testUser, CreateActionInput{
				MilestoneID: m.ID,
				Title:       "Action",
				OrderIndex:  j,
			})
			if err != nil {
				t.Fatalf("create action: %v", err)
			}
			acts = append(acts, *a)
		}
		actions = append(actions, acts)
	}
	return g, milestones, actions
}

func TestCascadeCompletesMilestoneWhenLastActionCompletes(t *testing.T) {
	svc := &Service{DB: setupDB(t)}
	ctx := context.Background()
	_, ms, acts := seedTree(t, svc, 2)

	now := time.Now()
	_, res, err := svc.SetActionCompleted(ctx, testUser, acts[0][0].ID, true, now)
	if err != nil {
		t.Fatalf("complete first action: %v", err)
	}
	if res.MilestoneCompleted {
		t.Fatal("milestone completed with one of two actions done")
	}

	_, res, err = svc.SetActionCompleted(ctx, testUser, acts[0][1].ID, true, now.Add(time.Second))
	if err != nil {
		t.Fatalf("complete second action: %v", err)
	}
	if !res.MilestoneCompleted {
		t.Fatal("milestone should complete when all actions are done")
	}

	var m Milestone
	if err := svc.DB.First(&m, ms[0].ID).Error; err != nil {
		t.Fatalf("reload milestone: %v", err)
	}
	if !m.IsCompleted || m.CompletedAt == nil {
		t.Fatalf("milestone not marked completed: %+v", m)
	}
}

func TestCascadeIsOneWayRatchet(t *testing.T) {
	svc := &Service{DB: setupDB(t)}
	ctx := context.Background()
	_, ms, acts := seedTree(t, svc, 2)

	now := time.Now()
	for _, a := range acts[0] {
		if _, _, err := svc.SetActionCompleted(ctx, testUser, a.ID, true, now); err != nil {
			t.Fatalf("complete action: %v", err)
		}
	}

	// re-opening an action must not revert the milestone
	if _, _, err := svc.SetActionCompleted(ctx, testUser, acts[0][0].ID, false, now); err != nil {
		t.Fatalf("uncomplete action: %v", err)
	}
	var m Milestone
	if err := svc.DB.First(&m, ms[0].ID).Error; err != nil {
		t.Fatalf("reload milestone: %v", err)
	}
	if !m.IsCompleted {
		t.Fatal("milestone reverted after action re-opened")
	}

	// re-completing the action must not emit a second milestone event
	_, res, err := svc.SetActionCompleted(ctx, testUser, acts[0][0].ID, true, now)
	if err != nil {
		t.Fatalf("recomplete action: %v", err)
	}
	if res.MilestoneCompleted {
		t.Fatal("milestone completion emitted twice")
	}
}

func TestEmptyMilestoneNeverAutoCompletes(t *testing.T) {
	svc := &Service{DB: setupDB(t)}
	ctx := context.Background()
	g, ms, acts := seedTree(t, svc, 2, 0)

	now := time.Now()
	for _, a := range acts[0] {
		if _, _, err := svc.SetActionCompleted(ctx, testUser, a.ID, true, now); err != nil {
			t.Fatalf("complete action: %v", err)
		}
	}

	var empty Milestone
	if err := svc.DB.First(&empty, ms[1].ID).Error; err != nil {
		t.Fatalf("reload milestone: %v", err)
	}
	if empty.IsCompleted {
		t.Fatal("zero-action milestone was auto-completed")
	}

	var gg Goal
	if err := svc.DB.First(&gg, g.ID).Error; err != nil {
		t.Fatalf("reload goal: %v", err)
	}
	if gg.Status == StatusCompleted {
		t.Fatal("goal completed while an empty milestone is open")
	}

	// explicit user action completes it, and with it the goal
	_, res, err := svc.SetMilestoneCompleted(ctx, testUser, ms[1].ID, true, now)
	if err != nil {
		t.Fatalf("direct milestone completion: %v", err)
	}
	if !res.GoalCompleted {
		t.Fatal("goal should complete when the last milestone is completed directly")
	}
}

func TestGoalCompletionIsIdempotent(t *testing.T) {
	svc := &Service{DB: setupDB(t)}
	ctx := context.Background()
	_, ms, _ := seedTree(t, svc, 0, 0)

	now := time.Now()
	if _, _, err := svc.SetMilestoneCompleted(ctx, testUser, ms[0].ID, true, now); err != nil {
		t.Fatalf("complete milestone 0: %v", err)
	}
	_, res, err := svc.SetMilestoneCompleted(ctx, testUser, ms[1].ID, true, now)
	if err != nil {
		t.Fatalf("complete milestone 1: %v", err)
	}
	if !res.GoalCompleted {
		t.Fatal("expected goal completion event")
	}

	// re-running the check against an already-completed goal is a no-op
	_, res, err = svc.SetMilestoneCompleted(ctx, testUser, ms[1].ID, true, now)
	if err != nil {
		t.Fatalf("recomplete milestone: %v", err)
	}
	if res.GoalCompleted {
		t.Fatal("goal completion emitted twice")
	}
}

func TestLearnSpanishScenario(t *testing.T) {
	svc := &Service{DB: setupDB(t)}
	ctx := context.Background()
	g, _, acts := seedTree(t, svc, 2, 2, 2)

	// complete all six actions in an interleaved order
	order := []Action{
		acts[0][0], acts[1][0], acts[2][0],
		acts[2][1], acts[0][1], acts[1][1],
	}

	now := time.Now()
	milestoneEvents := 0
	goalEvents := 0
	for i, a := range order {
		_, res, err := svc.SetActionCompleted(ctx, testUser, a.ID, true, now.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("complete action %d: %v", i, err)
		}
		if res.MilestoneCompleted {
			milestoneEvents++
		}
		if res.GoalCompleted {
			goalEvents++
		}
	}

	if milestoneEvents != 3 {
		t.Fatalf("milestone events = %d, want 3", milestoneEvents)
	}
	if goalEvents != 1 {
		t.Fatalf("goal events = %d, want 1", goalEvents)
	}

	var gg Goal
	if err := svc.DB.First(&gg, g.ID).Error; err != nil {
		t.Fatalf("reload goal: %v", err)
	}
	if gg.Status != StatusCompleted || gg.CompletedAt == nil {
		t.Fatalf("goal not completed: %+v", gg)
	}

	var lastMilestone time.Time
	var mss []Milestone
	if err := svc.DB.Where("goal_id = ?", g.ID).Find(&mss).Error; err != nil {
		t.Fatalf("reload milestones: %v", err)
	}
	for _, m := range mss {
		if m.CompletedAt == nil {
			t.Fatalf("milestone %d not completed", m.ID)
		}
		if m.CompletedAt.After(lastMilestone) {
			lastMilestone = *m.CompletedAt
		}
	}
	if gg.CompletedAt.Before(lastMilestone) {
		t.Fatalf("goal completed at %v, before last milestone at %v", gg.CompletedAt, lastMilestone)
	}
}

func TestCascadeSkipsDeletedParent(t *testing.T) {
	svc := &Service{DB: setupDB(t)}
	ctx := context.Background()
	_, ms, acts := seedTree(t, svc, 1)

	// simulate a concurrent milestone delete
	if err := svc.DB.Delete(&Milestone{}, ms[0].ID).Error; err != nil {
		t.Fatalf("delete milestone: %v", err)
	}

	a, res, err := svc.SetActionCompleted(ctx, testUser, acts[0][0].ID, true, time.Now())
	if err == nil {
		// the lookup joins through the milestone, so the action itself is
		// unreachable once the parent is gone
		t.Fatalf("expected not found, got action %+v (cascade %+v)", a, res)
	}
	if err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCascadeSkipsWhenGoalDeleted(t *testing.T) {
	svc := &Service{DB: setupDB(t)}
	g, ms, acts := seedTree(t, svc, 1)

	// orphan the milestone by deleting only the goal row: the cascade's
	// goal-level pass must skip silently, not fail
	if err := svc.DB.Delete(&Goal{}, g.ID).Error; err != nil {
		t.Fatalf("delete goal: %v", err)
	}

	// the ownership join is gone, so route the write through the milestone
	err := svc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Action{}).Where("id = ?", acts[0][0].ID).
			Updates(map[string]any{"is_completed": true}).Error; err != nil {
			return err
		}
		var res CascadeResult
		return svc.cascadeFromAction(tx, ms[0].ID, time.Now(), &res)
	})
	if err != nil {
		t.Fatalf("cascade with deleted goal: %v", err)
	}
}

func TestOwnershipIsEnforced(t *testing.T) {
	svc := &Service{DB: setupDB(t)}
	ctx := context.Background()
	_, ms, acts := seedTree(t, svc, 1)

	const otherUser uint64 = 99
	if _, _, err := svc.SetActionCompleted(ctx, otherUser, acts[0][0].ID, true, time.Now()); err != ErrNotFound {
		t.Fatalf("foreign action err = %v, want ErrNotFound", err)
	}
	if _, _, err := svc.SetMilestoneCompleted(ctx, otherUser, ms[0].ID, true, time.Now()); err != ErrNotFound {
		t.Fatalf("foreign milestone err = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetGoal(ctx, otherUser, ms[0].GoalID); err != ErrNotFound {
		t.Fatalf("foreign goal err = %v, want ErrNotFound", err)
	}
}

func TestGetGoalRefreshesCompletionReactively(t *testing.T) {
	svc := &Service{DB: setupDB(t)}
	ctx := context.Background()
	g, _, _ := seedTree(t, svc, 0, 0)

	// complete milestones behind the service's back
	if err := svc.DB.Model(&Milestone{}).Where("goal_id = ?", g.ID).
		Updates(map[string]any{"is_completed": true}).Error; err != nil {
		t.Fatalf("force milestones: %v", err)
	}

	got, err := svc.GetGoal(ctx, testUser, g.ID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
}

func TestDeleteGoalRemovesSubtree(t *testing.T) {
	svc := &Service{DB: setupDB(t)}
	ctx := context.Background()
	g, _, _ := seedTree(t, svc, 2, 1)

	if err := svc.DeleteGoal(ctx, testUser, g.ID); err != nil {
		t.Fatalf("delete goal: %v", err)
	}

	var n int64
	svc.DB.Model(&Milestone{}).Where("goal_id = ?", g.ID).Count(&n)
	if n != 0 {
		t.Fatalf("%d milestones left behind", n)
	}
	svc.DB.Model(&Action{}).Count(&n)
	if n != 0 {
		t.Fatalf("%d actions left behind", n)
	}
}

func TestSaveRoadmapPersistsPlanInOrder(t *testing.T) {
	svc := &Service{DB: setupDB(t)}
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, testUser, CreateGoalInput{Title: "Get in shape", Timeline: Timeline3Months})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	err = svc.SaveRoadmap(ctx, testUser, g.ID, Timeline3Months, []RoadmapMilestone{
		{Title: "Start", PeriodUnit: UnitWeek, PeriodOrdinal: 1, Actions: []string{"a", "b"}},
		{Title: "Keep going", PeriodUnit: UnitMonth, PeriodOrdinal: 1, Actions: []string{"c"}},
	})
	if err != nil {
		t.Fatalf("save roadmap: %v", err)
	}

	got, err := svc.GetGoal(ctx, testUser, g.ID)
	if err != nil {
		t.Fatalf("get goal: %v", err)
	}
	if len(got.Milestones) != 2 {
		t.Fatalf("milestones = %d, want 2", len(got.Milestones))
	}
	if got.Milestones[0].Title != "Start" || got.Milestones[0].PeriodUnit != UnitWeek {
		t.Fatalf("first milestone wrong: %+v", got.Milestones[0])
	}
	if len(got.Milestones[0].Actions) != 2 || len(got.Milestones[1].Actions) != 1 {
		t.Fatalf("actions misallocated: %+v", got.Milestones)
	}
}

func TestIncompleteActionsPicker(t *testing.T) {
	svc := &Service{DB: setupDB(t)}
	ctx := context.Background()
	_, _, acts := seedTree(t, svc, 2, 1)

	if _, _, err := svc.SetActionCompleted(ctx, testUser, acts[0][0].ID, true, time.Now()); err != nil {
		t.Fatalf("complete action: %v", err)
	}

	rows, err := svc.IncompleteActions(ctx, testUser)
	if err != nil {
		t.Fatalf("incomplete actions: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if row.ActionID == acts[0][0].ID {
			t.Fatal("completed action listed as incomplete")
		}
		if row.GoalTitle != "Learn Spanish" {
			t.Fatalf("goal title missing from picker row: %+v", row)
		}
	}
}
