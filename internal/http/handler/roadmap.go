package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jongibson0501/northstar-app/internal/auth"
	"github.com/jongibson0501/northstar-app/internal/goal"
	"github.com/jongibson0501/northstar-app/internal/roadmap"
)

type RoadmapHandler struct {
	Generator roadmap.Generator
	Goals     *goal.Service
}

type questionsReq struct {
	GoalTitle string `json:"goal_title"`
	Timeline  string `json:"timeline"`
}

func (h *RoadmapHandler) Questions(w http.ResponseWriter, r *http.Request) {
	var req questionsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.GoalTitle = strings.TrimSpace(req.GoalTitle)
	if req.GoalTitle == "" {
		http.Error(w, "goal_title required", http.StatusBadRequest)
		return
	}

	qs, err := h.Generator.Questions(r.Context(), req.GoalTitle, req.Timeline)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": qs})
}

type milestonesReq struct {
	GoalTitle string       `json:"goal_title"`
	Timeline  string       `json:"timeline"`
	QA        []roadmap.QA `json:"questions_and_answers"`
}

func (h *RoadmapHandler) Milestones(w http.ResponseWriter, r *http.Request) {
	var req milestonesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.GoalTitle = strings.TrimSpace(req.GoalTitle)
	if req.GoalTitle == "" {
		http.Error(w, "goal_title required", http.StatusBadRequest)
		return
	}

	ms, err := h.Generator.Milestones(r.Context(), req.GoalTitle, req.Timeline, req.QA)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"milestones": ms})
}

type savePlanReq struct {
	Timeline   string                  `json:"timeline"`
	Milestones []roadmap.MilestonePlan `json:"milestones"`
}

// SavePlan persists a generated roadmap onto the goal, translating timeframe
// labels into tagged target periods.
func (h *RoadmapHandler) SavePlan(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := urlID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req savePlanReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	items := make([]goal.RoadmapMilestone, 0, len(req.Milestones))
	for i, mp := range req.Milestones {
		unit, ordinal := roadmap.ParseTimeframe(mp.Timeframe, i+1)
		item := goal.RoadmapMilestone{
			Title:         mp.Title,
			PeriodUnit:    unit,
			PeriodOrdinal: ordinal,
		}
		for _, a := range mp.Actions {
			item.Actions = append(item.Actions, a.Title)
		}
		items = append(items, item)
	}

	if err := h.Goals.SaveRoadmap(r.Context(), uid, id, req.Timeline, items); err != nil {
		switch {
		case errors.Is(err, goal.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, goal.ErrInvalidInput):
			http.Error(w, "invalid input", http.StatusBadRequest)
		default:
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"saved": len(items)})
}
