package server

import (
	"net/http"

	"github.com/tmater/waitlist/internal/sheets"
)

// handleDirectory returns the tenant directory sheet.
func (h *Handler) handleDirectory(w http.ResponseWriter, r *http.Request) {
	cfg := h.Config.Sheets
	if cfg.DirectoryID == "" {
		writeError(w, http.StatusServiceUnavailable, "directory sheet not configured", "")
		return
	}
	table, err := h.Sheets.Fetch(r.Context(), cfg.DirectoryID, cfg.DirectoryTab)
	if err != nil {
		h.logger(r).WithError(err).Error("sheets: failed to fetch directory")
		writeError(w, http.StatusBadGateway, "Failed to fetch directory", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": sheets.Directory(table)})
}

// handleDashboard returns year-to-date and weekly counts from the dashboard sheet.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	cfg := h.Config.Sheets
	if cfg.DashboardID == "" {
		writeError(w, http.StatusServiceUnavailable, "dashboard sheet not configured", "")
		return
	}
	table, err := h.Sheets.Fetch(r.Context(), cfg.DashboardID, cfg.DashboardTab)
	if err != nil {
		h.logger(r).WithError(err).Error("sheets: failed to fetch dashboard")
		writeError(w, http.StatusBadGateway, "Failed to fetch dashboard", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sheets.Dashboard(table, h.now()))
}
