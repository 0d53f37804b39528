package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jongibson0501/northstar-app/internal/auth"
	"github.com/jongibson0501/northstar-app/internal/checkin"
	"github.com/jongibson0501/northstar-app/internal/config"
	"github.com/jongibson0501/northstar-app/internal/goal"
	"github.com/jongibson0501/northstar-app/internal/jobs"
	"github.com/jongibson0501/northstar-app/internal/journal"
	"github.com/jongibson0501/northstar-app/internal/prefs"
	"github.com/jongibson0501/northstar-app/internal/roadmap"
)

func testRouter(t *testing.T) http.Handler {
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
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&auth.User{},
		&goal.Goal{}, &goal.Milestone{}, &goal.Action{},
		&checkin.DailyCheckIn{},
		&journal.Entry{},
		&prefs.Preferences{},
		&jobs.Job{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return NewRouter(Deps{
		Config: config.Config{
			StreakLookbackDays: 90,
			JournalDefaultDays: 30,
		},
		DB:        db,
		JWT:       auth.NewJWT("test-secret"),
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Generator: &roadmap.Service{},
	})
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
}

func register(t *testing.T, h http.Handler) string {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/auth/register", "", map[string]any{
		"email":      "jon@example.com",
		"password":   "password123",
		"first_name": "Jon",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register = %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(t, rr, &out)
	if out.Token == "" {
		t.Fatal("empty token")
	}
	return out.Token
}

func TestHealth(t *testing.T) {
	h := testRouter(t)
	rr := do(t, h, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("health = %d", rr.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	h := testRouter(t)
	rr := do(t, h, http.MethodGet, "/goals", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated goals = %d, want 401", rr.Code)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	h := testRouter(t)
	register(t, h)

	rr := do(t, h, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "jon@example.com",
		"password": "password123",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "jon@example.com",
		"password": "wrong-password",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login = %d, want 401", rr.Code)
	}
}

// TestFullDailyFlow walks the whole product loop over the wire: create a
// goal, generate and save a roadmap, pick an action in the morning check-in,
// resolve the evening, then read the streak and the journal projection.
func TestFullDailyFlow(t *testing.T) {
	h := testRouter(t)
	token := register(t, h)
	today := checkin.DateOf(time.Now())

	// create a goal
	rr := do(t, h, http.MethodPost, "/goals", token, map[string]any{
		"title":    "Get in shape",
		"timeline": "3_months",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create goal = %d: %s", rr.Code, rr.Body.String())
	}
	var g goal.Goal
	decode(t, rr, &g)

	// generate a roadmap (fallback-only generator)
	rr = do(t, h, http.MethodPost, "/roadmap/milestones", token, map[string]any{
		"goal_title": "Get in shape",
		"timeline":   "3_months",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("generate milestones = %d: %s", rr.Code, rr.Body.String())
	}
	var gen struct {
		Milestones []roadmap.MilestonePlan `json:"milestones"`
	}
	decode(t, rr, &gen)
	if len(gen.Milestones) == 0 {
		t.Fatal("no generated milestones")
	}

	// save it onto the goal
	rr = do(t, h, http.MethodPost, "/goals/"+itoa(g.ID)+"/roadmap", token, map[string]any{
		"timeline":   "3_months",
		"milestones": gen.Milestones,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("save roadmap = %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, h, http.MethodGet, "/goals/"+itoa(g.ID), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get goal = %d", rr.Code)
	}
	decode(t, rr, &g)
	if len(g.Milestones) != len(gen.Milestones) {
		t.Fatalf("milestones = %d, want %d", len(g.Milestones), len(gen.Milestones))
	}
	if len(g.Milestones[0].Actions) == 0 {
		t.Fatal("first milestone has no actions")
	}

	// the morning picker offers the incomplete actions
	rr = do(t, h, http.MethodGet, "/actions/incomplete", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("incomplete actions = %d", rr.Code)
	}
	var picker []goal.IncompleteAction
	decode(t, rr, &picker)
	if len(picker) == 0 {
		t.Fatal("picker empty")
	}
	selected := picker[0].ActionID

	// morning check-in
	rr = do(t, h, http.MethodPost, "/checkins", token, map[string]any{
		"date":               today,
		"morning_intention":  "first workout",
		"selected_action_id": selected,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("morning = %d: %s", rr.Code, rr.Body.String())
	}
	var ci checkin.DailyCheckIn
	decode(t, rr, &ci)

	rr = do(t, h, http.MethodGet, "/checkins/today?date="+today, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("today = %d", rr.Code)
	}

	// complete the selected action
	rr = do(t, h, http.MethodPut, "/actions/"+itoa(selected)+"/completion", token, map[string]any{
		"completed": true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("complete action = %d: %s", rr.Code, rr.Body.String())
	}

	// evening resolution
	rr = do(t, h, http.MethodPut, "/checkins/"+itoa(ci.ID)+"/evening", token, map[string]any{
		"evening_accomplished": true,
		"evening_reflection":   "done",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("evening = %d: %s", rr.Code, rr.Body.String())
	}
	decode(t, rr, &ci)
	if ci.CurrentStreak != 1 || !ci.IsCompleted {
		t.Fatalf("streak = %d, completed = %v", ci.CurrentStreak, ci.IsCompleted)
	}

	rr = do(t, h, http.MethodGet, "/streak", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("streak = %d", rr.Code)
	}
	var streak struct {
		Streak int `json:"streak"`
	}
	decode(t, rr, &streak)
	if streak.Streak != 1 {
		t.Fatalf("streak = %d, want 1", streak.Streak)
	}

	// the journal entry was projected from the check-in
	rr = do(t, h, http.MethodGet, "/journal", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("journal = %d", rr.Code)
	}
	var entries []journal.Entry
	decode(t, rr, &entries)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.AccomplishmentLevel != journal.LevelAccomplished || e.MorningIntention != "first workout" {
		t.Fatalf("projected entry wrong: %+v", e)
	}
	if e.SelectedGoalID == nil || *e.SelectedGoalID != g.ID {
		t.Fatalf("entry not linked to goal: %+v", e.SelectedGoalID)
	}

	// enrich the entry with journal-only fields
	rr = do(t, h, http.MethodPatch, "/journal/"+itoa(e.ID), token, map[string]any{
		"mood":           "strong",
		"tomorrow_focus": "second workout",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch journal = %d: %s", rr.Code, rr.Body.String())
	}

	// goal-filtered journal view
	rr = do(t, h, http.MethodGet, "/journal?goal_id="+itoa(g.ID), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("journal for goal = %d", rr.Code)
	}
	decode(t, rr, &entries)
	if len(entries) != 1 {
		t.Fatalf("goal entries = %d, want 1", len(entries))
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	h := testRouter(t)
	token := register(t, h)

	rr := do(t, h, http.MethodGet, "/preferences", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get prefs = %d", rr.Code)
	}
	var p prefs.Preferences
	decode(t, rr, &p)
	if p.MorningNudgeTime != "10:00" {
		t.Fatalf("default morning time = %q", p.MorningNudgeTime)
	}

	rr = do(t, h, http.MethodPut, "/preferences", token, map[string]any{
		"morning_nudge_time": "07:30",
		"timezone":           "Europe/Berlin",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("put prefs = %d: %s", rr.Code, rr.Body.String())
	}
	decode(t, rr, &p)
	if p.MorningNudgeTime != "07:30" || p.Timezone != "Europe/Berlin" {
		t.Fatalf("prefs not saved: %+v", p)
	}

	rr = do(t, h, http.MethodPut, "/preferences", token, map[string]any{
		"morning_nudge_time": "not-a-time",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad prefs = %d, want 400", rr.Code)
	}
}

func itoa(n uint64) string {
	return strconv.FormatUint(n, 10)
}
