package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/aurevo/storefront/api/responses"
	"github.com/aurevo/storefront/internal/sessions"
	"github.com/aurevo/storefront/pkg/logger"
)

// SessionSource resolves a session id to a live session.
type SessionSource interface {
	Get(ctx context.Context, id string) (*sessions.Handle, error)
}

// Session binds the shopper session named by X-Session-Id, minting a new id
// when the header is absent. The id is echoed on every response.
func Session(source SessionSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(sessions.HeaderSessionID))
			if id == "" {
				id = sessions.NewID()
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithSessionID(ctx, id)
			}

			handle, err := source.Get(ctx, id)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			w.Header().Set(sessions.HeaderSessionID, id)
			next.ServeHTTP(w, r.WithContext(WithSession(ctx, handle)))
		})
	}
}
