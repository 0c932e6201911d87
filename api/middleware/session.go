package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harvestconnect/harvestcart/pkg/logger"
)

const (
	CartSessionHeader = "X-Cart-Session"
	CartSessionCookie = "harvest_cart_session"

	cartSessionMaxAge = 90 * 24 * time.Hour
)

// CartSession resolves the caller's cart session from the header or cookie,
// minting a new id when neither carries a valid one. The id is echoed back
// in both so browsers and API clients can keep using it.
func CartSession(logg *logger.Logger, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := resolveCartSession(r)

			w.Header().Set(CartSessionHeader, sessionID)
			http.SetCookie(w, &http.Cookie{
				Name:     CartSessionCookie,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(cartSessionMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   secureCookie,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveCartSession(r *http.Request) string {
	if id, ok := parseSessionID(r.Header.Get(CartSessionHeader)); ok {
		return id
	}
	if cookie, err := r.Cookie(CartSessionCookie); err == nil {
		if id, ok := parseSessionID(cookie.Value); ok {
			return id
		}
	}
	return uuid.NewString()
}

// parseSessionID accepts only UUIDs so the id is safe to embed in storage keys.
func parseSessionID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
