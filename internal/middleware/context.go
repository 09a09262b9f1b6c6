package middleware

import (
	"context"

	"aternotes/internal/auth"
	"aternotes/internal/service"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey = contextKey("user")

// UserInfo represents the essential user information stored in the session and request context.
type UserInfo struct {
	Subject       string
	Authenticated bool
}

// Actor returns the service actor for the user. Anonymous users map to
// service.Anonymous.
func (u *UserInfo) Actor() service.Actor {
	if !u.Authenticated {
		return service.Anonymous
	}
	return service.Actor(u.Subject)
}

// GetUserInfo retrieves the user information from the request context.
func GetUserInfo(ctx context.Context) *UserInfo {
	if userInfo, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return userInfo
	}
	// Return an anonymous user if no user info is found in the context.
	return &UserInfo{Subject: auth.RoleAnonymous}
}

// SetUserInfo adds the user information to the request context.
func SetUserInfo(ctx context.Context, userInfo *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, userInfo)
}

// ActorFrom returns the actor of the request carried by ctx.
func ActorFrom(ctx context.Context) service.Actor {
	return GetUserInfo(ctx).Actor()
}
