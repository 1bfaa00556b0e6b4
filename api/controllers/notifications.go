package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aurevo/storefront/api/middleware"
	"github.com/aurevo/storefront/api/responses"
	"github.com/aurevo/storefront/internal/sessions"
	pkgerrors "github.com/aurevo/storefront/pkg/errors"
	"github.com/aurevo/storefront/pkg/logger"
)

// NotificationsView returns the session's rendered state and pending toasts.
func NotificationsView(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle, err := sessionHandle(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, handle.Feed.View())
	}
}

// NotificationsDrain returns and forgets every pending toast.
func NotificationsDrain(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle, err := sessionHandle(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"notifications": handle.Feed.Drain()})
	}
}

func NotificationDismiss(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle, err := sessionHandle(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := uuid.Parse(chi.URLParam(r, "notificationID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification id"))
			return
		}
		if !handle.Feed.Dismiss(id) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func sessionHandle(r *http.Request) (*sessions.Handle, error) {
	handle := middleware.SessionFromContext(r.Context())
	if handle == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session missing from context")
	}
	return handle, nil
}
