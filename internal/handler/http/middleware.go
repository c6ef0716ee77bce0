package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/vstoleru/storefront/internal/session"
	"github.com/vstoleru/storefront/internal/user"
)

type contextKey string

const sessionContextKey contextKey = "session"

// sessionFromContext достаёт сессию, положенную RequireSession.
func sessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(session.Session)
	return s, ok
}

type SessionStore interface {
	Get(token string) (session.Session, bool)
	Destroy(token string)
}

// RequireSession резолвит bearer-токен в сессию. Операции с корзиной
// и заказами не доходят до сервисов без аутентификации — это замена
// "тихих no-op" поведения на явный отказ.
func RequireSession(sessions SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondWithError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			s, ok := sessions.Get(token)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Session expired or invalid")
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пускает дальше только сессии с ролью admin.
// Вешается поверх RequireSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFromContext(r.Context())
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if s.Role != user.RoleAdmin {
			respondWithError(w, http.StatusForbidden, "Admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
