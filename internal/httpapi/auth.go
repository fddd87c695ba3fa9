package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/Leganyst/rollcall/internal/calendar"
	"github.com/Leganyst/rollcall/internal/model"
	"github.com/Leganyst/rollcall/internal/rules"
)

type actorKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeErrors(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		claims, err := s.Tokens.ParseToken(token)
		if err != nil {
			writeErrors(w, http.StatusUnauthorized, "Given token not valid for any token type.")
			return
		}
		userID, err := claims.UserUUID()
		if err != nil {
			writeErrors(w, http.StatusUnauthorized, "Given token not valid for any token type.")
			return
		}

		actor, err := s.Identity.ResolveActor(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole пропускает пользователя с любой из ролей roles.
func (s *Server) requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := actorFromContext(r.Context())
			if actor == nil {
				writeErrors(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
				return
			}
			for _, role := range roles {
				if rules.HasRole(actor.Roles, role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeErrors(w, http.StatusForbidden, "You do not have permission to perform this action.")
		})
	}
}

func actorFromContext(ctx context.Context) *calendar.Actor {
	actor, _ := ctx.Value(actorKey{}).(*calendar.Actor)
	return actor
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
