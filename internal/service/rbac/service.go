package rbac

import (
	"github.com/hospitalops/scheduler-api/internal/model"
)

// roleRanks is the closed role hierarchy. Unknown roles rank 0 and can
// access nothing that requires a known role.
var roleRanks = map[model.Role]int{
	model.RoleAdmin:  4,
	model.RoleHR:     3,
	model.RoleDoctor: 2,
	model.RoleStaff:  1,
}

// Service decides role-based access. It is side-effect free; callers must
// supply the actor's current role as loaded from the store for this request.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Rank returns the numeric rank of a role, 0 for unknown roles.
func Rank(role model.Role) int {
	return roleRanks[role]
}

// CanAccess reports whether actorRole may use a resource requiring
// requiredRole. Admin is a universal superset regardless of rank.
func (s *Service) CanAccess(actorRole, requiredRole model.Role) bool {
	if actorRole == model.RoleAdmin {
		return true
	}
	return Rank(actorRole) >= Rank(requiredRole)
}

// CanAccessAny reports whether actorRole passes CanAccess for at least one
// of the required roles.
func (s *Service) CanAccessAny(actorRole model.Role, requiredRoles ...model.Role) bool {
	if actorRole == model.RoleAdmin {
		return true
	}
	for _, required := range requiredRoles {
		if s.CanAccess(actorRole, required) {
			return true
		}
	}
	return false
}
