package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"net/http"
	"time"

	"aternotes/internal/logger"
	"aternotes/internal/middleware"
	"aternotes/internal/session"

	"golang.org/x/oauth2"
)

// loginProvider is the part of auth.Authenticator used by the handlers.
type loginProvider interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Login(ctx context.Context, code string) (string, error)
}

// roleAssigner grants the base role to newly logged-in subjects.
type roleAssigner interface {
	EnsureUser(subject string) error
}

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	auth    loginProvider
	session session.Manager
	roles   roleAssigner
	log     logger.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(a loginProvider, sm session.Manager, roles roleAssigner, log logger.Logger) *AuthHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthHandler{auth: a, session: sm, roles: roles, log: log}
}

// handleLogin redirects the user to the OIDC provider to log in.
// It uses a random 'state' string for CSRF protection.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randString(16)
	if err != nil {
		h.log.Error(err, "Failed to generate login state")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	// Store the state in a short-lived cookie to verify on callback.
	http.SetCookie(w, &http.Cookie{
		Name:     "state",
		Value:    state,
		Path:     "/",
		MaxAge:   int(10 * time.Minute / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
	})
	http.Redirect(w, r, h.auth.AuthCodeURL(state), http.StatusFound)
}

// handleCallback is the redirect URL for the OIDC provider.
// It handles the code exchange and token verification, then stores the
// verified subject in the session.
func (h *AuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	// Verify the state parameter to prevent CSRF attacks.
	stateCookie, err := r.Cookie("state")
	if err != nil {
		http.Error(w, "state cookie not found", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		http.Error(w, "state did not match", http.StatusBadRequest)
		return
	}

	subject, err := h.auth.Login(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.log.Error(err, "OIDC login failed")
		http.Error(w, "Failed to log in", http.StatusUnauthorized)
		return
	}

	if err := h.roles.EnsureUser(subject); err != nil {
		h.log.Error(err, "Failed to assign user role")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Login changes privilege level, so the session token is rotated.
	if err := h.session.RenewToken(r.Context()); err != nil {
		h.log.Error(err, "Failed to renew session token")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.session.Put(r.Context(), middleware.SessionSubjectKey, subject)

	// The state cookie is single use.
	http.SetCookie(w, &http.Cookie{Name: "state", Value: "", Path: "/", MaxAge: -1})

	h.log.Info("User logged in: " + subject)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleLogout destroys the session and redirects to the home page.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Destroy(r.Context()); err != nil {
		h.log.Error(err, "Failed to destroy session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// randString is a helper function to generate a random string for the 'state' parameter.
func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
