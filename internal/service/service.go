// Package service holds the guide workflow and the moderator roster.
// Operations take the acting identity explicitly and never read session state.
package service

import (
	"context"
	"strconv"
	"time"

	"aternotes/internal/data"
	"aternotes/internal/directory"
)

// Actor is the authenticated subject performing an operation. The zero value
// is the anonymous actor.
type Actor string

// Anonymous is the actor of a request without a session.
const Anonymous Actor = ""

func (a Actor) IsAnonymous() bool {
	return a == Anonymous
}

// GuideRef selects a guide by database id or by slug. Exactly one should be set.
type GuideRef struct {
	ID   int64
	Slug string
}

func GuideByID(id int64) GuideRef { return GuideRef{ID: id} }

func GuideBySlug(slug string) GuideRef { return GuideRef{Slug: slug} }

func (r GuideRef) empty() bool { return r.ID == 0 && r.Slug == "" }

func (r GuideRef) bySlug() bool { return r.ID == 0 && r.Slug != "" }

func (r GuideRef) String() string {
	if r.ID != 0 {
		return strconv.FormatInt(r.ID, 10)
	}
	return r.Slug
}

// ModeratorKey selects a moderator by database id or by Discord account id.
type ModeratorKey struct {
	ID        int64
	DiscordID string
}

func ModeratorByID(id int64) ModeratorKey { return ModeratorKey{ID: id} }

func ModeratorByDiscordID(id string) ModeratorKey { return ModeratorKey{DiscordID: id} }

func (k ModeratorKey) String() string {
	if k.ID != 0 {
		return strconv.FormatInt(k.ID, 10)
	}
	return k.DiscordID
}

// GuideUpdate carries the fields of an edit. Nil fields keep their value.
type GuideUpdate struct {
	Title    *string
	Markdown *string
}

// RefreshResult is the outcome of a moderator refresh. Fetched is false when
// the stored record was returned because it is still within the cooldown.
type RefreshResult struct {
	Moderator *data.Moderator `json:"moderator"`
	Fetched   bool            `json:"fetched"`
}

// GuideRepository defines the interface for database operations on guides.
type GuideRepository interface {
	CreateGuide(ctx context.Context, guide *data.Guide) error
	GetGuideByID(ctx context.Context, id int64) (*data.Guide, error)
	GetGuideBySlug(ctx context.Context, slug string) (*data.Guide, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListGuidesByAuthor(ctx context.Context, authorID string) ([]*data.Guide, error)
	ListGuidesByStatus(ctx context.Context, status data.GuideStatus) ([]*data.Guide, error)
	UpdateGuide(ctx context.Context, guide *data.Guide) error
	DeleteGuide(ctx context.Context, id int64) error
}

// ModeratorRepository defines the interface for database operations on moderators.
type ModeratorRepository interface {
	CreateModerator(ctx context.Context, m *data.Moderator) error
	GetModeratorByID(ctx context.Context, id int64) (*data.Moderator, error)
	GetModeratorByDiscordID(ctx context.Context, discordID string) (*data.Moderator, error)
	ListModerators(ctx context.Context) ([]*data.Moderator, error)
	UpdateModerator(ctx context.Context, m *data.Moderator) error
	DeleteModerator(ctx context.Context, id int64) error
}

// Renderer turns guide Markdown into safe HTML.
type Renderer interface {
	Render(markdown string) (string, error)
}

// DirectoryClient fetches account profiles from the external directory.
type DirectoryClient interface {
	FetchProfile(ctx context.Context, discordID string) (*directory.Profile, error)
	AvatarURL(p *directory.Profile) *string
}

// PrivilegeChecker reports whether an actor holds the moderator role.
type PrivilegeChecker interface {
	IsModerator(ctx context.Context, subject string) (bool, error)
}

// Cache stores serialized query results.
type Cache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}

// Metrics receives workflow and roster events.
type Metrics interface {
	RecordTransition(to string)
	RecordDirectoryFetch(result string, duration time.Duration)
	RecordRefreshSkipped()
}

type nopMetrics struct{}

func (nopMetrics) RecordTransition(string)                    {}
func (nopMetrics) RecordDirectoryFetch(string, time.Duration) {}
func (nopMetrics) RecordRefreshSkipped()                      {}

// GuideServicer defines the guide workflow operations used by transports.
type GuideServicer interface {
	CreateGuide(ctx context.Context, actor Actor, title, markdown string) (*data.Guide, error)
	UpdateGuide(ctx context.Context, actor Actor, id int64, update GuideUpdate) (*data.Guide, error)
	SubmitForReview(ctx context.Context, actor Actor, id int64) (*data.Guide, error)
	ApproveGuide(ctx context.Context, moderator Actor, id int64) (*data.Guide, error)
	RejectGuide(ctx context.Context, moderator Actor, id int64) (*data.Guide, error)
	GetGuide(ctx context.Context, requester Actor, ref GuideRef) (*data.Guide, error)
	ListGuidesByAuthor(ctx context.Context, actor Actor) ([]*data.Guide, error)
	ListPublishedGuides(ctx context.Context) ([]*data.Guide, error)
	ListPendingReview(ctx context.Context, moderator Actor) ([]*data.Guide, error)
	DeleteGuide(ctx context.Context, actor Actor, id int64) error
}

// ModeratorServicer defines the roster operations used by transports.
type ModeratorServicer interface {
	AddModerator(ctx context.Context, discordID string) (*data.Moderator, error)
	RemoveModerator(ctx context.Context, key ModeratorKey) error
	RefreshModerator(ctx context.Context, key ModeratorKey) (*RefreshResult, error)
	ListModerators(ctx context.Context) ([]*data.Moderator, error)
}

var (
	_ GuideServicer     = (*GuideService)(nil)
	_ ModeratorServicer = (*ModeratorService)(nil)
)
