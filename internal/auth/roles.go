package auth

import (
	"context"
	"fmt"
	"slices"

	"github.com/casbin/casbin/v2"
)

// Roles, from least to most privileged. Each role inherits the one before it.
const (
	RoleAnonymous = "anonymous"
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// userPrefix keeps OIDC subjects apart from role names in the policy store.
const userPrefix = "user:"

// Subject returns the policy subject of the OIDC subject sub. Role names are
// never valid results, so a user called "admin" does not inherit that role.
func Subject(sub string) string {
	return userPrefix + sub
}

// RoleChecker answers role questions about OIDC subjects.
type RoleChecker struct {
	enforcer casbin.IEnforcer
}

// NewRoleChecker creates a RoleChecker backed by e.
func NewRoleChecker(e casbin.IEnforcer) *RoleChecker {
	return &RoleChecker{enforcer: e}
}

// IsModerator reports whether subject holds the moderator role, directly or
// through admin.
func (c *RoleChecker) IsModerator(ctx context.Context, subject string) (bool, error) {
	if subject == "" {
		return false, nil
	}
	roles, err := c.enforcer.GetImplicitRolesForUser(Subject(subject))
	if err != nil {
		return false, fmt.Errorf("failed to resolve roles for %s: %w", subject, err)
	}
	return slices.Contains(roles, RoleModerator), nil
}

// EnsureUser grants the user role to subject unless it already has it.
func (c *RoleChecker) EnsureUser(subject string) error {
	has, err := c.enforcer.HasRoleForUser(Subject(subject), RoleUser)
	if err != nil {
		return fmt.Errorf("failed to check role for %s: %w", subject, err)
	}
	if has {
		return nil
	}
	if _, err := c.enforcer.AddRoleForUser(Subject(subject), RoleUser); err != nil {
		return fmt.Errorf("failed to grant user role to %s: %w", subject, err)
	}
	return nil
}
