//go:build unit

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aternotes/internal/auth"
	"aternotes/internal/config"
	"aternotes/internal/logger"
	"aternotes/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	subject string
}

func (f *fakeSession) GetString(ctx context.Context, key string) string {
	if key == SessionSubjectKey {
		return f.subject
	}
	return ""
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestAuthorizer(t *testing.T) {
	e, err := auth.NewMemoryEnforcer()
	require.NoError(t, err)
	auth.SeedDefaultPolicies(e, config.AuthConfig{Moderators: []string{"mia"}}, logger.Nop())
	roles := auth.NewRoleChecker(e)
	require.NoError(t, roles.EnsureUser("alice"))
	require.NoError(t, roles.EnsureUser(auth.RoleAdmin))
	require.NoError(t, roles.EnsureUser(auth.RoleModerator))

	var seen *UserInfo
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserInfo(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		subject    string
		method     string
		path       string
		wantStatus int
		wantActor  service.Actor
	}{
		{"anonymous read", "", "GET", "/api/guides", http.StatusNoContent, service.Anonymous},
		{"anonymous write", "", "POST", "/api/guides", http.StatusUnauthorized, ""},
		{"user write", "alice", "POST", "/api/guides", http.StatusNoContent, "alice"},
		{"user approve", "alice", "POST", "/api/guides/3/approve", http.StatusForbidden, ""},
		{"moderator approve", "mia", "POST", "/api/guides/3/approve", http.StatusNoContent, "mia"},
		{"user named admin adds moderator", auth.RoleAdmin, "POST", "/api/moderators", http.StatusForbidden, ""},
		{"user named moderator approves", auth.RoleModerator, "POST", "/api/guides/3/approve", http.StatusForbidden, ""},
		{"user named admin writes", auth.RoleAdmin, "POST", "/api/guides", http.StatusNoContent, service.Actor(auth.RoleAdmin)},
		{"user named anonymous without role", auth.RoleAnonymous, "GET", "/api/me/guides", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			h := Authorizer(e, &fakeSession{subject: tt.subject}, logger.Nop())(next)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus != http.StatusNoContent {
				assert.Nil(t, seen)
				body := decodeEnvelope(t, rr)
				assert.Equal(t, "error", body["status"])
				assert.Equal(t, "forbidden", body["code"])
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, tt.wantActor, seen.Actor())
		})
	}
}

func TestGetUserInfo_DefaultsToAnonymous(t *testing.T) {
	info := GetUserInfo(context.Background())
	assert.Equal(t, auth.RoleAnonymous, info.Subject)
	assert.False(t, info.Authenticated)
	assert.Equal(t, service.Anonymous, ActorFrom(context.Background()))
}

func TestError(t *testing.T) {
	mw := Error(logger.Nop())

	t.Run("app error", func(t *testing.T) {
		h := mw(func(w http.ResponseWriter, r *http.Request) *AppError {
			return &AppError{Error: errors.New("boom"), Message: "guide 3 not found", Code: http.StatusNotFound, Kind: service.CodeNotFound}
		})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/guides/3", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
		body := decodeEnvelope(t, rr)
		assert.Equal(t, map[string]interface{}{"status": "error", "message": "guide 3 not found", "code": "not_found"}, body)
	})

	t.Run("panic", func(t *testing.T) {
		h := mw(func(w http.ResponseWriter, r *http.Request) *AppError {
			panic("something broke")
		})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeEnvelope(t, rr)
		assert.Equal(t, "persistence", body["code"])
		assert.NotContains(t, rr.Body.String(), "something broke")
	})

	t.Run("success passes through", func(t *testing.T) {
		h := mw(func(w http.ResponseWriter, r *http.Request) *AppError {
			WriteJSON(w, r, http.StatusOK, map[string]int{"n": 1})
			return nil
		})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
		assert.JSONEq(t, `{"status":"success","data":{"n":1}}`, rr.Body.String())
	})
}

func TestSettingsMiddleware_Pretty(t *testing.T) {
	h := SettingsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, r, http.StatusOK, map[string]int{"n": 1})
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/?pretty=true", nil))
	assert.True(t, strings.Contains(rr.Body.String(), "\n  \"data\""))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, "{\"status\":\"success\",\"data\":{\"n\":1}}\n", rr.Body.String())
}
