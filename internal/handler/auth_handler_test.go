//go:build unit

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"aternotes/internal/middleware"
	"aternotes/internal/session"

	"golang.org/x/oauth2"
)

// mockSessionManager is a mock implementation of the session.Manager interface.
type mockSessionManager struct {
	subject       string
	destroyCalled bool
	renewCalled   bool
	putKey        string
	putValue      interface{}
}

// Ensure mockSessionManager implements the session.Manager interface.
var _ session.Manager = (*mockSessionManager)(nil)

func (m *mockSessionManager) LoadAndSave(next http.Handler) http.Handler { return next }
func (m *mockSessionManager) Put(ctx context.Context, key string, val interface{}) {
	m.putKey = key
	m.putValue = val
}
func (m *mockSessionManager) GetString(ctx context.Context, key string) string {
	if key == middleware.SessionSubjectKey {
		return m.subject
	}
	return ""
}
func (m *mockSessionManager) PopString(ctx context.Context, key string) string { return "" }
func (m *mockSessionManager) Remove(ctx context.Context, key string)           {}
func (m *mockSessionManager) RenewToken(ctx context.Context) error {
	m.renewCalled = true
	return nil
}
func (m *mockSessionManager) Destroy(ctx context.Context) error {
	m.destroyCalled = true
	return nil
}

type mockLoginProvider struct {
	subject  string
	err      error
	lastCode string
}

func (m *mockLoginProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (m *mockLoginProvider) Login(ctx context.Context, code string) (string, error) {
	m.lastCode = code
	return m.subject, m.err
}

type mockRoleAssigner struct {
	subjects []string
}

func (m *mockRoleAssigner) EnsureUser(subject string) error {
	m.subjects = append(m.subjects, subject)
	return nil
}

func TestLogoutHandler(t *testing.T) {
	// Arrange
	mockSession := &mockSessionManager{}
	// The authenticator and role assigner are not used by the logout handler.
	authHandler := NewAuthHandler(nil, mockSession, nil, nil)

	req := httptest.NewRequest("POST", "/auth/logout", nil)
	rr := httptest.NewRecorder()

	// Act
	authHandler.handleLogout(rr, req)

	// Assert
	if !mockSession.destroyCalled {
		t.Error("expected session.Destroy to be called, but it wasn't")
	}

	if rr.Code != http.StatusFound {
		t.Errorf("want status code %d; got %d", http.StatusFound, rr.Code)
	}

	location, err := rr.Result().Location()
	if err != nil {
		t.Fatalf("could not get redirect location: %v", err)
	}
	if location.Path != "/" {
		t.Errorf("want redirect to '/'; got '%s'", location.Path)
	}
}

func TestLoginHandler_SetsStateCookie(t *testing.T) {
	authHandler := NewAuthHandler(&mockLoginProvider{}, &mockSessionManager{}, nil, nil)

	rr := httptest.NewRecorder()
	authHandler.handleLogin(rr, httptest.NewRequest("GET", "/auth/login", nil))

	if rr.Code != http.StatusFound {
		t.Fatalf("want status code %d; got %d", http.StatusFound, rr.Code)
	}
	var state string
	for _, c := range rr.Result().Cookies() {
		if c.Name == "state" {
			state = c.Value
		}
	}
	if state == "" {
		t.Fatal("expected a state cookie")
	}
	location, _ := rr.Result().Location()
	if location.Query().Get("state") != state {
		t.Errorf("redirect state %q does not match cookie %q", location.Query().Get("state"), state)
	}
}

func TestCallbackHandler(t *testing.T) {
	newRequest := func(queryState, cookieState string) *http.Request {
		req := httptest.NewRequest("GET", "/auth/callback?code=abc&state="+queryState, nil)
		if cookieState != "" {
			req.AddCookie(&http.Cookie{Name: "state", Value: cookieState})
		}
		return req
	}

	t.Run("success stores the subject", func(t *testing.T) {
		sm := &mockSessionManager{}
		roles := &mockRoleAssigner{}
		provider := &mockLoginProvider{subject: "oidc|alice"}
		h := NewAuthHandler(provider, sm, roles, nil)

		rr := httptest.NewRecorder()
		h.handleCallback(rr, newRequest("s1", "s1"))

		if rr.Code != http.StatusFound {
			t.Fatalf("want status code %d; got %d", http.StatusFound, rr.Code)
		}
		if provider.lastCode != "abc" {
			t.Errorf("expected code 'abc' to be exchanged, got %q", provider.lastCode)
		}
		if !sm.renewCalled {
			t.Error("expected the session token to be renewed")
		}
		if sm.putKey != middleware.SessionSubjectKey || sm.putValue != "oidc|alice" {
			t.Errorf("unexpected session write %q=%v", sm.putKey, sm.putValue)
		}
		if len(roles.subjects) != 1 || roles.subjects[0] != "oidc|alice" {
			t.Errorf("expected user role for oidc|alice, got %v", roles.subjects)
		}
	})

	t.Run("state mismatch", func(t *testing.T) {
		sm := &mockSessionManager{}
		h := NewAuthHandler(&mockLoginProvider{subject: "x"}, sm, &mockRoleAssigner{}, nil)
		rr := httptest.NewRecorder()
		h.handleCallback(rr, newRequest("s1", "other"))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("want status code %d; got %d", http.StatusBadRequest, rr.Code)
		}
		if sm.putKey != "" {
			t.Error("session must not be written on state mismatch")
		}
	})

	t.Run("missing state cookie", func(t *testing.T) {
		h := NewAuthHandler(&mockLoginProvider{}, &mockSessionManager{}, &mockRoleAssigner{}, nil)
		rr := httptest.NewRecorder()
		h.handleCallback(rr, newRequest("s1", ""))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("want status code %d; got %d", http.StatusBadRequest, rr.Code)
		}
	})

	t.Run("token verification fails", func(t *testing.T) {
		sm := &mockSessionManager{}
		h := NewAuthHandler(&mockLoginProvider{err: errors.New("bad token")}, sm, &mockRoleAssigner{}, nil)
		rr := httptest.NewRecorder()
		h.handleCallback(rr, newRequest("s1", "s1"))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("want status code %d; got %d", http.StatusUnauthorized, rr.Code)
		}
		if sm.putKey != "" {
			t.Error("session must not be written when login fails")
		}
	})
}
