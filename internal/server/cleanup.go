package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tmater/waitlist/internal/expiry"
)

type cleanupResponse struct {
	Success bool `json:"success"`
	*expiry.Result
}

// handleCleanupExpired deletes prospect entries past their retention cutoff.
// Protected by requireCron.
func (h *Handler) handleCleanupExpired(w http.ResponseWriter, r *http.Request) {
	res, err := h.Cleaner.Run(r.Context())
	if err != nil {
		h.logger(r).WithError(err).Error("cleanup: failed to cleanup expired entries")
		writeError(w, http.StatusInternalServerError, "Failed to cleanup expired entries", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cleanupResponse{Success: true, Result: res})
}

type matchAlertResponse struct {
	Success     bool            `json:"success"`
	TriggeredAt time.Time       `json:"triggeredAt"`
	Status      int             `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// handleMatchAlerts relays a cron trigger to the match-alert notification
// endpoint. Protected by requireCron.
func (h *Handler) handleMatchAlerts(w http.ResponseWriter, r *http.Request) {
	triggeredAt := h.now().UTC()
	resp, err := h.Relay.Trigger(r.Context(), "cron")
	if err != nil {
		h.Metrics.RecordRelay("error")
		h.logger(r).WithError(err).Error("cron: failed to trigger match alerts")
		writeError(w, http.StatusBadGateway, "Failed to trigger match alerts", err.Error())
		return
	}
	h.Metrics.RecordRelay("ok")
	h.logger(r).WithField("status", resp.Status).Info("cron: triggered match alerts")
	writeJSON(w, http.StatusOK, matchAlertResponse{
		Success:     true,
		TriggeredAt: triggeredAt,
		Status:      resp.Status,
		Result:      resp.Body,
	})
}

// handleListCleanupRuns returns the most recent cleanup runs. Protected by requireAdmin.
func (h *Handler) handleListCleanupRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListCleanupRuns(r.Context(), 50)
	if err != nil {
		h.logger(r).WithError(err).Error("admin: failed to list cleanup runs")
		writeError(w, http.StatusInternalServerError, "internal error", "")
		return
	}

	type runJSON struct {
		RanAt          string `json:"ran_at"`
		Deleted        int    `json:"deleted"`
		StandardCutoff string `json:"standard_cutoff,omitempty"`
		ExtendedCutoff string `json:"extended_cutoff,omitempty"`
		Error          string `json:"error,omitempty"`
	}

	out := make([]runJSON, 0, len(runs))
	for _, run := range runs {
		out = append(out, runJSON{
			RanAt:          run.RanAt.UTC().Format(time.RFC3339),
			Deleted:        run.Deleted,
			StandardCutoff: run.StandardCutoff,
			ExtendedCutoff: run.ExtendedCutoff,
			Error:          run.Error,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}
