package middleware

import (
	"net/http"
	"strings"

	"github.com/libreria-dev/libreria-backend/pkg/logger"
)

const cartSessionHeader = "X-Cart-Session"

// CartSession propagates the anonymous cart token from the request header
// into the context. Logged-in requests may carry both; services decide
// which cart identity wins.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(cartSessionHeader))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithCartSession(r.Context(), token)
			if logg != nil {
				ctx = logg.WithCartID(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
