//go:build unit

package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"aternotes/internal/data"
	"aternotes/internal/directory"
)

// mockGuideRepository is an in-memory GuideRepository. Records are copied on
// the way in and out so tests can compare stored state.
type mockGuideRepository struct {
	guides map[int64]*data.Guide
	nextID int64

	errToReturn error
	createErrs  []error // returned by successive CreateGuide calls before the store is used
	onList      func()  // runs after ListGuidesByStatus has read the store

	createCalls int
	updateCalls int
	listCalls   int
}

var _ GuideRepository = (*mockGuideRepository)(nil)

func newMockGuideRepository() *mockGuideRepository {
	return &mockGuideRepository{guides: map[int64]*data.Guide{}}
}

func copyGuide(g *data.Guide) *data.Guide {
	c := *g
	if g.PublishedAt != nil {
		t := *g.PublishedAt
		c.PublishedAt = &t
	}
	return &c
}

func (m *mockGuideRepository) put(g *data.Guide) *data.Guide {
	m.nextID++
	g.ID = m.nextID
	m.guides[g.ID] = copyGuide(g)
	return g
}

func (m *mockGuideRepository) CreateGuide(ctx context.Context, guide *data.Guide) error {
	m.createCalls++
	if m.errToReturn != nil {
		return m.errToReturn
	}
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		return err
	}
	for _, g := range m.guides {
		if g.Slug == guide.Slug {
			return data.ErrDuplicateKey
		}
	}
	m.put(guide)
	return nil
}

func (m *mockGuideRepository) GetGuideByID(ctx context.Context, id int64) (*data.Guide, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	g, ok := m.guides[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	return copyGuide(g), nil
}

func (m *mockGuideRepository) GetGuideBySlug(ctx context.Context, slug string) (*data.Guide, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	for _, g := range m.guides {
		if g.Slug == slug {
			return copyGuide(g), nil
		}
	}
	return nil, data.ErrNotFound
}

func (m *mockGuideRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	if m.errToReturn != nil {
		return false, m.errToReturn
	}
	for _, g := range m.guides {
		if g.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockGuideRepository) sorted(keep func(*data.Guide) bool) []*data.Guide {
	var out []*data.Guide
	for _, g := range m.guides {
		if keep(g) {
			out = append(out, copyGuide(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockGuideRepository) ListGuidesByAuthor(ctx context.Context, authorID string) ([]*data.Guide, error) {
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	return m.sorted(func(g *data.Guide) bool { return g.AuthorID == authorID }), nil
}

func (m *mockGuideRepository) ListGuidesByStatus(ctx context.Context, status data.GuideStatus) ([]*data.Guide, error) {
	m.listCalls++
	if m.errToReturn != nil {
		return nil, m.errToReturn
	}
	guides := m.sorted(func(g *data.Guide) bool { return g.Status == status })
	if m.onList != nil {
		m.onList()
	}
	return guides, nil
}

func (m *mockGuideRepository) UpdateGuide(ctx context.Context, guide *data.Guide) error {
	m.updateCalls++
	if m.errToReturn != nil {
		return m.errToReturn
	}
	stored, ok := m.guides[guide.ID]
	if !ok {
		return data.ErrNotFound
	}
	updated := copyGuide(guide)
	updated.Slug = stored.Slug
	m.guides[guide.ID] = updated
	return nil
}

func (m *mockGuideRepository) DeleteGuide(ctx context.Context, id int64) error {
	if m.errToReturn != nil {
		return m.errToReturn
	}
	if _, ok := m.guides[id]; !ok {
		return data.ErrNotFound
	}
	delete(m.guides, id)
	return nil
}

// mockModeratorRepository is an in-memory ModeratorRepository.
type mockModeratorRepository struct {
	moderators map[int64]*data.Moderator
	nextID     int64

	errToReturn error
	createErr   error

	updateCalls int
}

var _ ModeratorRepository = (*mockModeratorRepository)(nil)

func newMockModeratorRepository() *mockModeratorRepository {
	return &mockModeratorRepository{moderators: map[int64]*data.Moderator{}}
}

func copyModerator(m *data.Moderator) *data.Moderator {
	c := *m
	if m.DiscordAvatarURL != nil {
		u := *m.DiscordAvatarURL
		c.DiscordAvatarURL = &u
	}
	if m.LastFetchedAt != nil {
		t := *m.LastFetchedAt
		c.LastFetchedAt = &t
	}
	return &c
}

func (r *mockModeratorRepository) put(m *data.Moderator) *data.Moderator {
	r.nextID++
	m.ID = r.nextID
	r.moderators[m.ID] = copyModerator(m)
	return m
}

func (r *mockModeratorRepository) CreateModerator(ctx context.Context, m *data.Moderator) error {
	if r.errToReturn != nil {
		return r.errToReturn
	}
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.moderators {
		if existing.DiscordID == m.DiscordID {
			return data.ErrDuplicateKey
		}
	}
	r.put(m)
	return nil
}

func (r *mockModeratorRepository) GetModeratorByID(ctx context.Context, id int64) (*data.Moderator, error) {
	if r.errToReturn != nil {
		return nil, r.errToReturn
	}
	m, ok := r.moderators[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	return copyModerator(m), nil
}

func (r *mockModeratorRepository) GetModeratorByDiscordID(ctx context.Context, discordID string) (*data.Moderator, error) {
	if r.errToReturn != nil {
		return nil, r.errToReturn
	}
	for _, m := range r.moderators {
		if m.DiscordID == discordID {
			return copyModerator(m), nil
		}
	}
	return nil, data.ErrNotFound
}

func (r *mockModeratorRepository) ListModerators(ctx context.Context) ([]*data.Moderator, error) {
	if r.errToReturn != nil {
		return nil, r.errToReturn
	}
	var out []*data.Moderator
	for _, m := range r.moderators {
		out = append(out, copyModerator(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DiscordUsername < out[j].DiscordUsername })
	return out, nil
}

func (r *mockModeratorRepository) UpdateModerator(ctx context.Context, m *data.Moderator) error {
	r.updateCalls++
	if r.errToReturn != nil {
		return r.errToReturn
	}
	if _, ok := r.moderators[m.ID]; !ok {
		return data.ErrNotFound
	}
	r.moderators[m.ID] = copyModerator(m)
	return nil
}

func (r *mockModeratorRepository) DeleteModerator(ctx context.Context, id int64) error {
	if r.errToReturn != nil {
		return r.errToReturn
	}
	if _, ok := r.moderators[id]; !ok {
		return data.ErrNotFound
	}
	delete(r.moderators, id)
	return nil
}

// mockRenderer wraps markdown in a paragraph and counts calls.
type mockRenderer struct {
	calls       int
	errToReturn error
}

func (r *mockRenderer) Render(markdown string) (string, error) {
	r.calls++
	if r.errToReturn != nil {
		return "", r.errToReturn
	}
	return "<p>" + strings.TrimSpace(markdown) + "</p>", nil
}

// mockDirectory serves profiles from a map and counts fetches.
type mockDirectory struct {
	profiles    map[string]*directory.Profile
	errToReturn error
	fetchCalls  int
}

func (d *mockDirectory) FetchProfile(ctx context.Context, discordID string) (*directory.Profile, error) {
	d.fetchCalls++
	if d.errToReturn != nil {
		return nil, d.errToReturn
	}
	p, ok := d.profiles[discordID]
	if !ok {
		return nil, directory.ErrProfileNotFound
	}
	c := *p
	return &c, nil
}

func (d *mockDirectory) AvatarURL(p *directory.Profile) *string {
	if p.AvatarHash == "" {
		return nil
	}
	url := "https://cdn.example.com/avatars/" + p.ID + "/" + p.AvatarHash + ".png"
	return &url
}

// mockPrivileges grants the moderator role to a fixed set of subjects.
type mockPrivileges struct {
	moderators  map[string]bool
	errToReturn error
}

func (p *mockPrivileges) IsModerator(ctx context.Context, subject string) (bool, error) {
	if p.errToReturn != nil {
		return false, p.errToReturn
	}
	return p.moderators[subject], nil
}

// mockCache is a map-backed Cache that ignores TTLs.
type mockCache struct {
	items   map[string][]byte
	gets    int
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{items: map[string][]byte{}}
}

func (c *mockCache) Get(key string) ([]byte, error) {
	c.gets++
	return c.items[key], nil
}

func (c *mockCache) Set(key string, value []byte, ttl time.Duration) error {
	c.items[key] = value
	return nil
}

func (c *mockCache) Delete(key string) error {
	c.deletes++
	delete(c.items, key)
	return nil
}

// mockMetrics records every event.
type mockMetrics struct {
	transitions    []string
	fetchResults   []string
	refreshSkipped int
}

func (m *mockMetrics) RecordTransition(to string) {
	m.transitions = append(m.transitions, to)
}

func (m *mockMetrics) RecordDirectoryFetch(result string, duration time.Duration) {
	m.fetchResults = append(m.fetchResults, result)
}

func (m *mockMetrics) RecordRefreshSkipped() {
	m.refreshSkipped++
}

var errDatabaseDown = errors.New("database is down")

// clock is a controllable time source.
type clock struct {
	t time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }
