package server

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/tmater/waitlist/internal/identity"
	"github.com/tmater/waitlist/internal/store"
)

const minPasswordLength = 8

// handleRegister creates a staff account with the identity provider and its
// profile row. Rate limited per IP.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Code     string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", "")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "email, password and full_name are required", "")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email", "")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters", "")
		return
	}
	if !h.Config.Registration.CheckCode(req.Code) {
		writeError(w, http.StatusForbidden, "invalid registration code", "")
		return
	}

	user, err := h.Identity.CreateUser(r.Context(), req.Email, req.Password, req.FullName)
	if errors.Is(err, identity.ErrUserExists) {
		writeError(w, http.StatusConflict, "account already exists", "")
		return
	}
	var pe *identity.ProviderError
	if errors.Is(err, identity.ErrRejected) && errors.As(err, &pe) {
		writeError(w, http.StatusBadRequest, pe.Message, "")
		return
	}
	if err != nil {
		h.logger(r).WithError(err).WithField("email", req.Email).Error("register: failed to create user")
		writeError(w, http.StatusInternalServerError, "Failed to create account", "")
		return
	}

	profile, err := h.Store.CreateProfile(r.Context(), store.Profile{
		ID:       user.ID,
		Email:    user.Email,
		FullName: req.FullName,
		Role:     store.RoleStaff,
	})
	if err != nil {
		// Without a profile the account is unusable; remove it so the email
		// can register again.
		if derr := h.Identity.DeleteUser(r.Context(), user.ID); derr != nil {
			h.logger(r).WithError(derr).WithField("user_id", user.ID).Error("register: failed to roll back user")
		}
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "account already exists", "")
			return
		}
		h.logger(r).WithError(err).WithField("user_id", user.ID).Error("register: failed to create profile")
		writeError(w, http.StatusInternalServerError, "Failed to create account", "")
		return
	}

	h.logger(r).WithField("user_id", profile.ID).Info("register: account created")
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    map[string]string{"id": profile.ID.String(), "email": profile.Email},
	})
}
