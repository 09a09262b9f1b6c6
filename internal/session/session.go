package session

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"aternotes/internal/config"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Manager is an interface that abstracts the session management implementation.
// This allows for easier testing and dependency injection.
type Manager interface {
	LoadAndSave(next http.Handler) http.Handler
	Put(ctx context.Context, key string, val interface{})
	GetString(ctx context.Context, key string) string
	PopString(ctx context.Context, key string) string
	RenewToken(ctx context.Context) error
	Destroy(ctx context.Context) error
	Remove(ctx context.Context, key string)
}

var _ Manager = (*scs.SessionManager)(nil)

// New creates an scs session manager backed by store.
func New(store scs.Store, cfg config.SessionConfig, secure bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = store
	if cfg.Lifetime > 0 {
		sm.Lifetime = time.Duration(cfg.Lifetime) * time.Hour
	}
	sm.Cookie.Name = "aternotes_session"
	sm.Cookie.Persist = true
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	return sm
}

// NewStore returns the session store for the given database driver. The
// sessions table is created by the migrations.
func NewStore(db *sql.DB, driver string) scs.Store {
	if driver == "sqlite3" {
		return sqlite3store.New(db)
	}
	return mysqlstore.New(db)
}
