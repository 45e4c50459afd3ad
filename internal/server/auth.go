package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tmater/waitlist/internal/identity"
	"github.com/tmater/waitlist/internal/store"
)

type contextKey string

const contextKeyProfile contextKey = "profile"

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// requireCron rejects requests that do not carry the cron secret as bearer token.
func (h *Handler) requireCron(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.Config.CronSecret)) != 1 {
			h.logger(r).WithField("path", r.URL.Path).Warn("auth: rejected cron request")
			writeError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		next(w, r)
	}
}

// requireSession validates the Bearer access token with the identity provider
// and injects the caller's profile into context.
func (h *Handler) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		user, err := h.Identity.GetUser(r.Context(), token)
		if errors.Is(err, identity.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		if err != nil {
			h.logger(r).WithError(err).Error("auth: token lookup failed")
			writeError(w, http.StatusInternalServerError, "internal error", "")
			return
		}
		profile, err := h.Store.GetProfile(r.Context(), user.ID)
		if err != nil {
			h.logger(r).WithError(err).WithField("user_id", user.ID).Error("auth: profile lookup failed")
			writeError(w, http.StatusInternalServerError, "internal error", "")
			return
		}
		if profile == nil {
			writeError(w, http.StatusForbidden, "no profile for this account", "")
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyProfile, profile)
		next(w, r.WithContext(ctx))
	}
}

// sessionProfile extracts the authenticated profile from the request context.
func sessionProfile(r *http.Request) *store.Profile {
	p, _ := r.Context().Value(contextKeyProfile).(*store.Profile)
	return p
}

// requireAdmin validates the session and additionally requires the admin role.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.requireSession(func(w http.ResponseWriter, r *http.Request) {
		if sessionProfile(r).Role != store.RoleAdmin {
			writeError(w, http.StatusForbidden, "Forbidden", "")
			return
		}
		next(w, r)
	})
}

// handleMe returns the current user's profile.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionProfile(r))
}

// rateLimiter is a simple per-IP fixed window rate limiter.
type rateLimiter struct {
	mu     sync.Mutex
	tokens map[string]*tokenBucket
	now    func() time.Time
}

type tokenBucket struct {
	count   int
	resetAt time.Time
}

const (
	rateLimitRequests = 10
	rateLimitWindow   = time.Minute
)

func newRateLimiter() *rateLimiter {
	return &rateLimiter{tokens: make(map[string]*tokenBucket), now: time.Now}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for k, b := range rl.tokens {
		if now.After(b.resetAt) {
			delete(rl.tokens, k)
		}
	}
	b, ok := rl.tokens[ip]
	if !ok {
		rl.tokens[ip] = &tokenBucket{count: 1, resetAt: now.Add(rateLimitWindow)}
		return true
	}
	if b.count >= rateLimitRequests {
		return false
	}
	b.count++
	return true
}

func (rl *rateLimiter) middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Keyed on the connection address; forwarding headers are client controlled.
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		if !rl.allow(ip) {
			writeError(w, http.StatusTooManyRequests, "too many requests", "")
			return
		}
		next(w, r)
	}
}

// decodeJSON reads a JSON request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
