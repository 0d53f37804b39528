package http

import (
	"log/slog"
	"net/http"

	"github.com/jongibson0501/northstar-app/internal/auth"
	"github.com/jongibson0501/northstar-app/internal/checkin"
	"github.com/jongibson0501/northstar-app/internal/config"
	"github.com/jongibson0501/northstar-app/internal/goal"
	"github.com/jongibson0501/northstar-app/internal/http/handler"
	mw "github.com/jongibson0501/northstar-app/internal/http/middleware"
	"github.com/jongibson0501/northstar-app/internal/jobs"
	"github.com/jongibson0501/northstar-app/internal/journal"
	"github.com/jongibson0501/northstar-app/internal/prefs"
	"github.com/jongibson0501/northstar-app/internal/roadmap"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

type Deps struct {
	Config    config.Config
	DB        *gorm.DB
	JWT       *auth.JWT
	Log       *slog.Logger
	Generator roadmap.Generator
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(d.Config.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(d.Config.CORSAllowedOrigins, d.Config.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: d.DB, JWT: d.JWT}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{}
	r.With(auth.RequireAuth(d.JWT)).Get("/me", me.Me)

	goalSvc := &goal.Service{DB: d.DB}
	journalSvc := &journal.Service{DB: d.DB}
	streaks := &checkin.StreakCalculator{DB: d.DB, LookbackDays: d.Config.StreakLookbackDays}
	checkinSvc := &checkin.Service{
		DB:      d.DB,
		Streaks: streaks,
		Journal: journalSvc,
		Goals:   goalSvc,
		Log:     d.Log,
	}
	jobsRepo := &jobs.Repo{DB: d.DB}
	prefsSvc := &prefs.Service{DB: d.DB, Jobs: jobsRepo, Log: d.Log}

	gh := &handler.GoalHandler{Svc: goalSvc, Log: d.Log}
	ch := &handler.CheckInHandler{Svc: checkinSvc, Streaks: streaks}
	jh := &handler.JournalHandler{Svc: journalSvc, DefaultDays: d.Config.JournalDefaultDays}
	rh := &handler.RoadmapHandler{Generator: d.Generator, Goals: goalSvc}
	ph := &handler.PrefsHandler{Svc: prefsSvc}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Route("/goals", func(r chi.Router) {
			r.Post("/", gh.Create)
			r.Get("/", gh.List)
			r.Get("/{id}", gh.Get)
			r.Put("/{id}", gh.Update)
			r.Delete("/{id}", gh.Delete)
			r.Post("/{id}/roadmap", rh.SavePlan)
		})

		r.Post("/milestones", gh.CreateMilestone)
		r.Put("/milestones/{id}/completion", gh.SetMilestoneCompletion)

		r.Post("/actions", gh.CreateAction)
		r.Put("/actions/{id}/completion", gh.SetActionCompletion)
		r.Get("/actions/incomplete", gh.IncompleteActions)

		r.Post("/roadmap/questions", rh.Questions)
		r.Post("/roadmap/milestones", rh.Milestones)

		r.Route("/checkins", func(r chi.Router) {
			r.Post("/", ch.SubmitMorning)
			r.Get("/today", ch.Today)
			r.Put("/{id}/evening", ch.ResolveEvening)
		})
		r.Get("/streak", ch.Streak)

		r.Route("/journal", func(r chi.Router) {
			r.Get("/", jh.List)
			r.Patch("/{id}", jh.Update)
		})

		r.Get("/preferences", ph.Get)
		r.Put("/preferences", ph.Upsert)
	})

	return r
}
