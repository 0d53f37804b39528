package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jongibson0501/northstar-app/internal/auth"
	"github.com/jongibson0501/northstar-app/internal/goal"
)

type GoalHandler struct {
	Svc *goal.Service
	Log *slog.Logger
}

type createGoalReq struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Timeline      string `json:"timeline"`
	TimelineValue *int   `json:"timeline_value"`
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createGoalReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	g, err := h.Svc.CreateGoal(r.Context(), uid, goal.CreateGoalInput{
		Title:         req.Title,
		Description:   req.Description,
		Timeline:      req.Timeline,
		TimelineValue: req.TimelineValue,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	out, err := h.Svc.ListGoals(r.Context(), uid)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := urlID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	g, err := h.Svc.GetGoal(r.Context(), uid, id)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

type updateGoalReq struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Timeline      *string `json:"timeline"`
	TimelineValue *int    `json:"timeline_value"`
	Status        *string `json:"status"`
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := urlID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateGoalReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	g, err := h.Svc.UpdateGoal(r.Context(), uid, id, goal.UpdateGoalInput{
		Title:         req.Title,
		Description:   req.Description,
		Timeline:      req.Timeline,
		TimelineValue: req.TimelineValue,
		Status:        req.Status,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := urlID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.Svc.DeleteGoal(r.Context(), uid, id); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createMilestoneReq struct {
	GoalID        uint64          `json:"goal_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	OrderIndex    int             `json:"order_index"`
	PeriodUnit    goal.PeriodUnit `json:"period_unit"`
	PeriodOrdinal int             `json:"period_ordinal"`
}

func (h *GoalHandler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createMilestoneReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	m, err := h.Svc.CreateMilestone(r.Context(), uid, goal.CreateMilestoneInput{
		GoalID:        req.GoalID,
		Title:         req.Title,
		Description:   req.Description,
		OrderIndex:    req.OrderIndex,
		PeriodUnit:    req.PeriodUnit,
		PeriodOrdinal: req.PeriodOrdinal,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

type createActionReq struct {
	MilestoneID uint64            `json:"milestone_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	OrderIndex  int               `json:"order_index"`
	Resources   goal.ResourceList `json:"resources"`
}

func (h *GoalHandler) CreateAction(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createActionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	a, err := h.Svc.CreateAction(r.Context(), uid, goal.CreateActionInput{
		MilestoneID: req.MilestoneID,
		Title:       req.Title,
		Description: req.Description,
		OrderIndex:  req.OrderIndex,
		Resources:   req.Resources,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

type completionReq struct {
	Completed *bool `json:"completed"`
}

type actionCompletionResp struct {
	Action             *goal.Action `json:"action"`
	MilestoneCompleted bool         `json:"milestone_completed"`
	GoalCompleted      bool         `json:"goal_completed"`
}

func (h *GoalHandler) SetActionCompletion(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := urlID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req completionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Completed == nil {
		http.Error(w, "completed required", http.StatusBadRequest)
		return
	}

	a, cascade, err := h.Svc.SetActionCompleted(r.Context(), uid, id, *req.Completed, time.Now())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if cascade.GoalCompleted && h.Log != nil {
		// signal for a one-time celebration, rendering happens client-side
		h.Log.Info("goal completed", "user_id", uid, "goal_id", cascade.GoalID)
	}
	writeJSON(w, http.StatusOK, actionCompletionResp{
		Action:             a,
		MilestoneCompleted: cascade.MilestoneCompleted,
		GoalCompleted:      cascade.GoalCompleted,
	})
}

type milestoneCompletionResp struct {
	Milestone     *goal.Milestone `json:"milestone"`
	GoalCompleted bool            `json:"goal_completed"`
}

func (h *GoalHandler) SetMilestoneCompletion(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := urlID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req completionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Completed == nil {
		http.Error(w, "completed required", http.StatusBadRequest)
		return
	}

	m, cascade, err := h.Svc.SetMilestoneCompleted(r.Context(), uid, id, *req.Completed, time.Now())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if cascade.GoalCompleted && h.Log != nil {
		h.Log.Info("goal completed", "user_id", uid, "goal_id", cascade.GoalID)
	}
	writeJSON(w, http.StatusOK, milestoneCompletionResp{
		Milestone:     m,
		GoalCompleted: cascade.GoalCompleted,
	})
}

func (h *GoalHandler) IncompleteActions(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	out, err := h.Svc.IncompleteActions(r.Context(), uid)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *GoalHandler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, goal.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, goal.ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
