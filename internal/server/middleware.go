package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const contextKeyRequestID contextKey = "request_id"

// requestID tags each request with the caller's X-Request-ID or a fresh uuid.
func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyRequestID, id)))
	})
}

// logger returns the handler logger annotated with the request id.
func (h *Handler) logger(r *http.Request) logrus.FieldLogger {
	if id, ok := r.Context().Value(contextKeyRequestID).(string); ok {
		return h.Log.WithField("request_id", id)
	}
	return h.Log
}

// recoverer turns a handler panic into a JSON 500.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.logger(r).WithField("panic", rec).Error("handler: recovered from panic")
				writeError(w, http.StatusInternalServerError, "internal error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// instrument logs every request and counts it by route pattern and status.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		h.Metrics.RecordRequest(route, status)
		h.logger(r).WithFields(logrus.Fields{
			"method": r.Method,
			"route":  route,
			"status": status,
			"took":   time.Since(start).Round(time.Microsecond),
		}).Debug("handler: request served")
	})
}
