package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jongibson0501/northstar-app/internal/auth"
	"github.com/jongibson0501/northstar-app/internal/checkin"
)

type CheckInHandler struct {
	Svc     *checkin.Service
	Streaks *checkin.StreakCalculator
}

type morningReq struct {
	Date             string  `json:"date"`
	MorningIntention string  `json:"morning_intention"`
	SelectedActionID *uint64 `json:"selected_action_id"`
}

func (h *CheckInHandler) SubmitMorning(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req morningReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	ci, err := h.Svc.SubmitMorning(r.Context(), uid, checkin.MorningInput{
		Date:             req.Date,
		Intention:        req.MorningIntention,
		SelectedActionID: req.SelectedActionID,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ci)
}

type eveningReq struct {
	EveningAccomplished *bool  `json:"evening_accomplished"`
	EveningReflection   string `json:"evening_reflection"`
}

func (h *CheckInHandler) ResolveEvening(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := urlID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req eveningReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	ci, err := h.Svc.ResolveEvening(r.Context(), uid, id, checkin.EveningInput{
		Accomplished: req.EveningAccomplished,
		Reflection:   req.EveningReflection,
	})
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ci)
}

func (h *CheckInHandler) Today(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	ci, err := h.Svc.Today(r.Context(), uid, r.URL.Query().Get("date"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ci)
}

func (h *CheckInHandler) Streak(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	n, err := h.Streaks.Current(r.Context(), uid, time.Now())
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"streak": n})
}

func (h *CheckInHandler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkin.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, checkin.ErrValidation):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}
