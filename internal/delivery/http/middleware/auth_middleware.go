package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vramonlinebsc/hms/internal/domain/entity"
	"github.com/vramonlinebsc/hms/pkg/jwt"
	"github.com/vramonlinebsc/hms/pkg/response"

	"github.com/sirupsen/logrus"
)

type contextKey string

const ActorKey contextKey = "actor"

// AuthMiddleware turns a verified bearer token into an entity.Actor on the
// request context. Handlers pass that Actor explicitly into usecases.
type AuthMiddleware struct {
	jwtService *jwt.JWTService
	log        *logrus.Logger
}

func NewAuthMiddleware(jwtService *jwt.JWTService, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		log:        log,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			m.log.Debugf("Rejected token: %v", err)
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if claims.TokenType != jwt.AccessToken {
			response.Unauthorized(w, "Invalid token type")
			return
		}

		role, ok := entity.RoleNameByID(claims.RoleID)
		if !ok {
			response.Unauthorized(w, "Unknown role")
			return
		}

		actor := entity.Actor{ID: claims.UserID, Role: role}
		ctx := WithActor(r.Context(), actor)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithActor stores the authenticated actor on ctx.
func WithActor(ctx context.Context, actor entity.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// GetActorFromContext extracts the authenticated actor from context
func GetActorFromContext(ctx context.Context) (entity.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(entity.Actor)
	return actor, ok
}
