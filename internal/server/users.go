package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tmater/waitlist/internal/identity"
	"github.com/tmater/waitlist/internal/store"
)

// handleListUsers returns all profiles. Protected by requireAdmin.
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Store.ListProfiles(r.Context())
	if err != nil {
		h.logger(r).WithError(err).Error("admin: failed to list users")
		writeError(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	if profiles == nil {
		profiles = []store.Profile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": profiles})
}

// handleUpdateUserRole changes a user's role. Protected by requireAdmin.
func (h *Handler) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id", "")
		return
	}
	var req struct {
		Role store.Role `json:"role"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", "")
		return
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "invalid role", "")
		return
	}

	if id == sessionProfile(r).ID && req.Role != store.RoleAdmin {
		n, err := h.Store.CountAdmins(r.Context())
		if err != nil {
			h.logger(r).WithError(err).Error("admin: failed to count admins")
			writeError(w, http.StatusInternalServerError, "internal error", "")
			return
		}
		if n <= 1 {
			writeError(w, http.StatusConflict, "cannot remove the last admin", "")
			return
		}
	}

	if err := h.Store.UpdateRole(r.Context(), id, req.Role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found", "")
			return
		}
		h.logger(r).WithError(err).WithField("user_id", id).Error("admin: failed to update role")
		writeError(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	profile, err := h.Store.GetProfile(r.Context(), id)
	if err != nil || profile == nil {
		h.logger(r).WithError(err).WithField("user_id", id).Error("admin: failed to reload profile")
		writeError(w, http.StatusInternalServerError, "internal error", "")
		return
	}
	h.logger(r).WithField("user_id", id).WithField("role", req.Role).Info("admin: role updated")
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": profile})
}

// handleDeleteUser removes a user's account and profile. Protected by requireAdmin.
func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id", "")
		return
	}
	if id == sessionProfile(r).ID {
		writeError(w, http.StatusBadRequest, "cannot delete your own account", "")
		return
	}

	if err := h.Identity.DeleteUser(r.Context(), id); err != nil && !errors.Is(err, identity.ErrUserNotFound) {
		h.logger(r).WithError(err).WithField("user_id", id).Error("admin: failed to delete auth user")
		writeError(w, http.StatusInternalServerError, "Failed to delete user", err.Error())
		return
	}
	if err := h.Store.DeleteProfile(r.Context(), id); err != nil {
		h.logger(r).WithError(err).WithField("user_id", id).Error("admin: failed to delete profile")
		writeError(w, http.StatusInternalServerError, "Failed to delete user", err.Error())
		return
	}
	h.logger(r).WithField("user_id", id).Info("admin: user deleted")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
