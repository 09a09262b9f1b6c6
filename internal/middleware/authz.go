package middleware

import (
	"context"
	"net/http"

	"aternotes/internal/auth"
	"aternotes/internal/logger"
	"aternotes/internal/service"

	"github.com/casbin/casbin/v2"
)

// SessionSubjectKey is the session key holding the OIDC subject of a logged-in user.
const SessionSubjectKey = "user_subject"

// subjectReader is the part of the session manager the authorizer needs.
type subjectReader interface {
	GetString(ctx context.Context, key string) string
}

// Authorizer creates a new middleware for authorization.
// It checks the user's permissions using Casbin based on session data.
func Authorizer(e casbin.IEnforcer, sm subjectReader, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Get the user's subject from the session.
			// If not present, the request is anonymous.
			userInfo := &UserInfo{Subject: auth.RoleAnonymous}
			if subject := sm.GetString(r.Context(), SessionSubjectKey); subject != "" {
				userInfo = &UserInfo{Subject: subject, Authenticated: true}
			}

			// Add user info to the request context for downstream handlers.
			r = r.WithContext(SetUserInfo(r.Context(), userInfo))

			policySubject := auth.RoleAnonymous
			if userInfo.Authenticated {
				policySubject = auth.Subject(userInfo.Subject)
			}
			allowed, err := e.Enforce(policySubject, r.URL.Path, r.Method)
			if err != nil {
				log.Error(err, "Authorization check failed")
				WriteError(w, r, http.StatusInternalServerError, service.CodePersistence, "authorization error")
				return
			}

			if !allowed {
				if !userInfo.Authenticated {
					WriteError(w, r, http.StatusUnauthorized, service.CodeForbidden, "you must be logged in")
					return
				}
				WriteError(w, r, http.StatusForbidden, service.CodeForbidden, "you do not have permission to do this")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
