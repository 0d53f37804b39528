package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jongibson0501/northstar-app/internal/auth"
	"github.com/jongibson0501/northstar-app/internal/prefs"
)

type PrefsHandler struct {
	Svc *prefs.Service
}

func (h *PrefsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	p, err := h.Svc.Get(r.Context(), uid)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type prefsReq struct {
	MorningNudgeTime *string `json:"morning_nudge_time"`
	EveningNudgeTime *string `json:"evening_nudge_time"`
	Timezone         *string `json:"timezone"`
	NudgesEnabled    *bool   `json:"nudges_enabled"`
}

func (h *PrefsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req prefsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	p, err := h.Svc.Upsert(r.Context(), uid, prefs.UpsertInput{
		MorningNudgeTime: req.MorningNudgeTime,
		EveningNudgeTime: req.EveningNudgeTime,
		Timezone:         req.Timezone,
		NudgesEnabled:    req.NudgesEnabled,
	})
	if err != nil {
		if errors.Is(err, prefs.ErrValidation) {
			http.Error(w, "invalid input", http.StatusBadRequest)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
