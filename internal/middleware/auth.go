package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hospitalops/scheduler-api/internal/handler"
	"github.com/hospitalops/scheduler-api/internal/model"
	"github.com/hospitalops/scheduler-api/internal/repository"
	"github.com/hospitalops/scheduler-api/internal/service/rbac"
	"github.com/hospitalops/scheduler-api/pkg/auth"
)

const ContextActor = "actor"

type AuthMiddleware struct {
	tokens *auth.TokenService
	users  repository.UserRepository
	rbac   *rbac.Service
}

func NewAuthMiddleware(tokens *auth.TokenService, users repository.UserRepository, rbacSvc *rbac.Service) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, rbac: rbacSvc}
}

// Authenticate verifies the bearer token and loads the actor. Role and
// activation state come from the store on every request, so deactivation and
// role changes take effect immediately regardless of token lifetime.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		userID, err := m.tokens.Validate(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		u, err := m.users.Get(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}
		if !u.IsActive {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("account is deactivated"))
			c.Abort()
			return
		}

		c.Set(ContextActor, model.Actor{UserID: u.ID, Role: u.Role, IsActive: u.IsActive})
		c.Next()
	}
}

// RequireRole admits actors whose role ranks at or above the required role.
func (m *AuthMiddleware) RequireRole(required model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if !m.rbac.CanAccess(actor.Role, required) {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("insufficient permissions"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAnyRole admits actors passing RequireRole for at least one of the
// given roles.
func (m *AuthMiddleware) RequireAnyRole(required ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if !m.rbac.CanAccessAny(actor.Role, required...) {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("insufficient permissions"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFromContext returns the authenticated actor set by Authenticate.
// The zero Actor carries an unknown role, which every access check denies.
func ActorFromContext(c *gin.Context) model.Actor {
	v, exists := c.Get(ContextActor)
	if !exists {
		return model.Actor{}
	}
	actor, ok := v.(model.Actor)
	if !ok {
		return model.Actor{}
	}
	return actor
}
