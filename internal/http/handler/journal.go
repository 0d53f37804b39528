package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jongibson0501/northstar-app/internal/auth"
	"github.com/jongibson0501/northstar-app/internal/journal"
)

type JournalHandler struct {
	Svc         *journal.Service
	DefaultDays int
}

// List serves both read projections: recent entries within a day window, or
// all entries filed against one goal when goal_id is present.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	if gid := r.URL.Query().Get("goal_id"); gid != "" {
		goalID, err := strconv.ParseUint(gid, 10, 64)
		if err != nil || goalID == 0 {
			http.Error(w, "invalid goal_id", http.StatusBadRequest)
			return
		}
		out, err := h.Svc.ForGoal(r.Context(), uid, goalID)
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	days := h.DefaultDays
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 365 {
			days = n
		}
	}

	out, err := h.Svc.Recent(r.Context(), uid, days)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type journalPatchReq struct {
	Mood            *string `json:"mood"`
	KeyLearnings    *string `json:"key_learnings"`
	ChallengesFaced *string `json:"challenges_faced"`
	TomorrowFocus   *string `json:"tomorrow_focus"`
}

func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := urlID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req journalPatchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	e, err := h.Svc.Update(r.Context(), uid, id, journal.Patch{
		Mood:            req.Mood,
		KeyLearnings:    req.KeyLearnings,
		ChallengesFaced: req.ChallengesFaced,
		TomorrowFocus:   req.TomorrowFocus,
	})
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
