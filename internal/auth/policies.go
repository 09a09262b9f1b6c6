package auth

import (
	"fmt"

	"aternotes/internal/config"
	"aternotes/internal/logger"

	"github.com/casbin/casbin/v2"
)

// defaultPolicies lists the routes each role may call. Roles inherit the
// routes of every lower role.
var defaultPolicies = [][]string{
	// Anonymous visitors can read published guides and the roster, and log in.
	{RoleAnonymous, "/", "GET"},
	{RoleAnonymous, "/api/guides", "GET"},
	{RoleAnonymous, "/api/guides/:id", "GET"},
	{RoleAnonymous, "/api/guides/by-slug/:slug", "GET"},
	{RoleAnonymous, "/api/moderators", "GET"},
	{RoleAnonymous, "/auth/login", "GET"},
	{RoleAnonymous, "/auth/callback", "GET"},
	{RoleAnonymous, "/robots.txt", "GET"},
	{RoleAnonymous, "/sitemap.xml", "GET"},
	{RoleAnonymous, "/metrics", "GET"},

	// Users write and submit their own guides.
	{RoleUser, "/api/guides", "POST"},
	{RoleUser, "/api/guides/:id", "PATCH"},
	{RoleUser, "/api/guides/:id", "DELETE"},
	{RoleUser, "/api/guides/:id/submit", "POST"},
	{RoleUser, "/api/me/guides", "GET"},
	{RoleUser, "/auth/logout", "POST"},

	// Moderators review guides and refresh roster profiles.
	{RoleModerator, "/api/review/queue", "GET"},
	{RoleModerator, "/api/guides/:id/approve", "POST"},
	{RoleModerator, "/api/guides/:id/reject", "POST"},
	{RoleModerator, "/api/moderators/:id/refresh", "POST"},
	{RoleModerator, "/api/moderators/discord/:discordID/refresh", "POST"},

	// Admins manage the roster.
	{RoleAdmin, "/api/moderators", "POST"},
	{RoleAdmin, "/api/moderators/:id", "DELETE"},
	{RoleAdmin, "/api/moderators/discord/:discordID", "DELETE"},
}

// roleHierarchy maps each role to the role it inherits from.
var roleHierarchy = [][2]string{
	{RoleUser, RoleAnonymous},
	{RoleModerator, RoleUser},
	{RoleAdmin, RoleModerator},
}

// SeedDefaultPolicies ensures that the application has a baseline set of authorization rules.
// It checks if each default policy exists before adding it, making the operation idempotent
// and safe to run on every application start. Subjects listed in cfg are granted
// the admin or moderator role.
func SeedDefaultPolicies(e casbin.IEnforcer, cfg config.AuthConfig, log logger.Logger) {
	log.Info("Seeding default authorization policies...")

	for _, p := range defaultPolicies {
		if has, _ := e.HasPolicy(p); !has {
			if _, err := e.AddPolicy(p); err != nil {
				log.Error(err, fmt.Sprintf("Failed to add policy %v", p))
			}
		}
	}

	for _, link := range roleHierarchy {
		addRole(e, link[0], link[1], log)
	}
	for _, subject := range cfg.Moderators {
		addRole(e, Subject(subject), RoleModerator, log)
	}
	for _, subject := range cfg.Admins {
		addRole(e, Subject(subject), RoleAdmin, log)
	}
	log.Info("Policy seeding complete.")
}

func addRole(e casbin.IEnforcer, subject, role string, log logger.Logger) {
	if has, _ := e.HasRoleForUser(subject, role); has {
		return
	}
	if _, err := e.AddRoleForUser(subject, role); err != nil {
		log.Error(err, fmt.Sprintf("Failed to add role '%s' -> '%s'", subject, role))
	}
}
