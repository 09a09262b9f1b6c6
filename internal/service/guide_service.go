package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"aternotes/internal/data"
	"aternotes/internal/logger"
	"aternotes/internal/slug"
)

const (
	// publishedCacheKey holds the serialized list of published guides.
	publishedCacheKey = "guides:published"
	// maxSlugRetries bounds how often CreateGuide regenerates a slug after
	// losing a race on the unique index.
	maxSlugRetries = 3
	// maxTitleLength matches the width of the title column.
	maxTitleLength = 255
)

// GuideService provides the guide workflow: authoring, review and publishing.
type GuideService struct {
	repo       GuideRepository
	renderer   Renderer
	privileges PrivilegeChecker
	cache      Cache
	cacheTTL   time.Duration
	metrics    Metrics
	log        logger.Logger
	now        func() time.Time

	// publishedMu orders cache writes of the published list against
	// invalidations. A list read before an invalidation is never stored.
	publishedMu   sync.Mutex
	invalidations uint64
}

// NewGuideService creates a new GuideService.
func NewGuideService(repo GuideRepository, renderer Renderer, privileges PrivilegeChecker, log logger.Logger) *GuideService {
	return &GuideService{
		repo:       repo,
		renderer:   renderer,
		privileges: privileges,
		metrics:    nopMetrics{},
		log:        log.With(map[string]interface{}{"service": "guide"}),
		now:        time.Now,
	}
}

// WithCache serves ListPublishedGuides from c for up to ttl.
func (s *GuideService) WithCache(c Cache, ttl time.Duration) *GuideService {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

// WithMetrics reports status changes to m.
func (s *GuideService) WithMetrics(m Metrics) *GuideService {
	if m != nil {
		s.metrics = m
	}
	return s
}

// CreateGuide stores a new draft written by actor.
func (s *GuideService) CreateGuide(ctx context.Context, actor Actor, title, markdown string) (*data.Guide, error) {
	if actor.IsAnonymous() {
		return nil, Forbidden("you must be logged in to write a guide")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ValidationError("title is required")
	}
	if err := validateTitleLength(title); err != nil {
		return nil, err
	}
	if strings.TrimSpace(markdown) == "" {
		return nil, ValidationError("content is required")
	}

	html, err := s.renderer.Render(markdown)
	if err != nil {
		return nil, s.persistenceError(err, "failed to render guide content")
	}

	for attempt := 0; ; attempt++ {
		guideSlug, err := slug.Generate(ctx, title, s.repo.SlugExists)
		switch {
		case errors.Is(err, slug.ErrEmpty):
			return nil, ValidationError("title must contain at least one letter or digit")
		case errors.Is(err, slug.ErrExhausted):
			return nil, Conflict("too many guides share this title")
		case err != nil:
			return nil, s.persistenceError(err, "failed to generate slug")
		}

		now := s.now().UTC()
		guide := &data.Guide{
			Title:           title,
			Slug:            guideSlug,
			ContentMarkdown: markdown,
			ContentHTML:     html,
			AuthorID:        string(actor),
			Status:          data.StatusDraft,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		err = s.repo.CreateGuide(ctx, guide)
		if err == nil {
			return guide, nil
		}
		if !errors.Is(err, data.ErrDuplicateKey) {
			return nil, s.persistenceError(err, "failed to create guide")
		}
		if attempt == maxSlugRetries {
			return nil, Conflict("could not assign a unique slug, please try again")
		}
		s.log.Warn("Slug " + guideSlug + " was taken concurrently, regenerating")
	}
}

// UpdateGuide applies an author's edit. Editing a rejected guide returns it
// to draft so it can be submitted again.
func (s *GuideService) UpdateGuide(ctx context.Context, actor Actor, id int64, update GuideUpdate) (*data.Guide, error) {
	guide, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, ValidationError("title cannot be empty")
		}
		if err := validateTitleLength(strings.TrimSpace(*update.Title)); err != nil {
			return nil, err
		}
	}
	if update.Markdown != nil && strings.TrimSpace(*update.Markdown) == "" {
		return nil, ValidationError("content cannot be empty")
	}

	if update.Title != nil {
		guide.Title = strings.TrimSpace(*update.Title)
	}
	if update.Markdown != nil && *update.Markdown != guide.ContentMarkdown {
		html, err := s.renderer.Render(*update.Markdown)
		if err != nil {
			return nil, s.persistenceError(err, "failed to render guide content")
		}
		guide.ContentMarkdown = *update.Markdown
		guide.ContentHTML = html
	}

	wasPublished := guide.Status == data.StatusPublished
	statusChanged := false
	if guide.Status == data.StatusRejected {
		guide.Status = data.StatusDraft
		statusChanged = true
	}
	guide.UpdatedAt = s.now().UTC()

	if err := s.save(ctx, guide); err != nil {
		return nil, err
	}
	if statusChanged {
		s.metrics.RecordTransition(string(guide.Status))
	}
	if wasPublished {
		s.invalidatePublished()
	}
	return guide, nil
}

// SubmitForReview moves an author's draft into the review queue.
func (s *GuideService) SubmitForReview(ctx context.Context, actor Actor, id int64) (*data.Guide, error) {
	guide, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if guide.Status != data.StatusDraft {
		return nil, InvalidTransition("only drafts can be submitted for review, guide is %s", guide.Status)
	}
	return s.transition(ctx, guide, data.StatusPendingReview)
}

// ApproveGuide publishes a guide awaiting review.
func (s *GuideService) ApproveGuide(ctx context.Context, moderator Actor, id int64) (*data.Guide, error) {
	guide, err := s.loadForReview(ctx, moderator, id)
	if err != nil {
		return nil, err
	}
	publishedAt := s.now().UTC()
	guide.PublishedAt = &publishedAt
	guide, err = s.transition(ctx, guide, data.StatusPublished)
	if err != nil {
		return nil, err
	}
	s.invalidatePublished()
	return guide, nil
}

// RejectGuide sends a guide awaiting review back to its author. A previous
// PublishedAt is kept.
func (s *GuideService) RejectGuide(ctx context.Context, moderator Actor, id int64) (*data.Guide, error) {
	guide, err := s.loadForReview(ctx, moderator, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, guide, data.StatusRejected)
}

// GetGuide resolves a guide by id or slug and applies the visibility rules:
// published guides are public, anything else is visible to its author and
// to moderators. Anonymous slug lookups of hidden guides report NotFound.
func (s *GuideService) GetGuide(ctx context.Context, requester Actor, ref GuideRef) (*data.Guide, error) {
	if ref.empty() {
		return nil, ValidationError("a guide id or slug is required")
	}

	var guide *data.Guide
	var err error
	if ref.ID != 0 {
		guide, err = s.repo.GetGuideByID(ctx, ref.ID)
	} else {
		guide, err = s.repo.GetGuideBySlug(ctx, ref.Slug)
	}
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, NotFound("guide %s not found", ref)
		}
		return nil, s.persistenceError(err, "failed to load guide")
	}

	if guide.Status == data.StatusPublished {
		return guide, nil
	}
	if requester.IsAnonymous() {
		if ref.bySlug() {
			return nil, NotFound("guide %s not found", ref)
		}
		return nil, Forbidden("you must be logged in to view this guide")
	}
	if guide.AuthorID == string(requester) {
		return guide, nil
	}
	isModerator, err := s.privileges.IsModerator(ctx, string(requester))
	if err != nil {
		return nil, s.persistenceError(err, "failed to check moderator privilege")
	}
	if isModerator {
		return guide, nil
	}
	return nil, Forbidden("you do not have permission to view this guide")
}

// ListGuidesByAuthor returns every guide written by actor, in any status.
func (s *GuideService) ListGuidesByAuthor(ctx context.Context, actor Actor) ([]*data.Guide, error) {
	if actor.IsAnonymous() {
		return nil, Forbidden("you must be logged in to list your guides")
	}
	guides, err := s.repo.ListGuidesByAuthor(ctx, string(actor))
	if err != nil {
		return nil, s.persistenceError(err, "failed to list guides by author")
	}
	return nonNil(guides), nil
}

// ListPublishedGuides returns published guides, most recently published
// first. Guides without a publish time sort last.
func (s *GuideService) ListPublishedGuides(ctx context.Context) ([]*data.Guide, error) {
	if cached := s.cachedPublished(); cached != nil {
		return cached, nil
	}

	generation := s.publishedGeneration()
	guides, err := s.repo.ListGuidesByStatus(ctx, data.StatusPublished)
	if err != nil {
		return nil, s.persistenceError(err, "failed to list published guides")
	}
	guides = nonNil(guides)
	sort.SliceStable(guides, func(i, j int) bool {
		a, b := guides[i].PublishedAt, guides[j].PublishedAt
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return a.After(*b)
	})

	s.storePublished(guides, generation)
	return guides, nil
}

// ListPendingReview returns the review queue.
func (s *GuideService) ListPendingReview(ctx context.Context, moderator Actor) ([]*data.Guide, error) {
	if err := s.requireModerator(ctx, moderator); err != nil {
		return nil, err
	}
	guides, err := s.repo.ListGuidesByStatus(ctx, data.StatusPendingReview)
	if err != nil {
		return nil, s.persistenceError(err, "failed to list guides pending review")
	}
	return nonNil(guides), nil
}

// DeleteGuide removes a guide. Only its author may do so.
func (s *GuideService) DeleteGuide(ctx context.Context, actor Actor, id int64) error {
	guide, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteGuide(ctx, guide.ID); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return NotFound("guide %d not found", id)
		}
		return s.persistenceError(err, "failed to delete guide")
	}
	if guide.Status == data.StatusPublished {
		s.invalidatePublished()
	}
	return nil
}

// loadOwned loads a guide that actor is about to mutate.
func (s *GuideService) loadOwned(ctx context.Context, actor Actor, id int64) (*data.Guide, error) {
	guide, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAnonymous() || guide.AuthorID != string(actor) {
		return nil, Forbidden("only the author can modify this guide")
	}
	return guide, nil
}

// loadForReview checks moderator privilege and loads a guide awaiting review.
func (s *GuideService) loadForReview(ctx context.Context, moderator Actor, id int64) (*data.Guide, error) {
	if err := s.requireModerator(ctx, moderator); err != nil {
		return nil, err
	}
	guide, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if guide.Status != data.StatusPendingReview {
		return nil, InvalidTransition("only guides pending review can be approved or rejected, guide is %s", guide.Status)
	}
	return guide, nil
}

func (s *GuideService) load(ctx context.Context, id int64) (*data.Guide, error) {
	guide, err := s.repo.GetGuideByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, NotFound("guide %d not found", id)
		}
		return nil, s.persistenceError(err, "failed to load guide")
	}
	return guide, nil
}

func (s *GuideService) requireModerator(ctx context.Context, actor Actor) error {
	if actor.IsAnonymous() {
		return Forbidden("you must be logged in as a moderator")
	}
	ok, err := s.privileges.IsModerator(ctx, string(actor))
	if err != nil {
		return s.persistenceError(err, "failed to check moderator privilege")
	}
	if !ok {
		return Forbidden("only moderators can review guides")
	}
	return nil
}

func (s *GuideService) transition(ctx context.Context, guide *data.Guide, to data.GuideStatus) (*data.Guide, error) {
	guide.Status = to
	guide.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, guide); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(string(to))
	return guide, nil
}

func (s *GuideService) save(ctx context.Context, guide *data.Guide) error {
	if err := s.repo.UpdateGuide(ctx, guide); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return NotFound("guide %d not found", guide.ID)
		}
		return s.persistenceError(err, "failed to update guide")
	}
	return nil
}

func (s *GuideService) cachedPublished() []*data.Guide {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(publishedCacheKey)
	if err != nil {
		s.log.Error(err, "Failed to read published guides from cache")
		return nil
	}
	if raw == nil {
		return nil
	}
	var guides []*data.Guide
	if err := json.Unmarshal(raw, &guides); err != nil {
		s.log.Error(err, "Failed to decode cached published guides")
		return nil
	}
	return nonNil(guides)
}

func (s *GuideService) publishedGeneration() uint64 {
	s.publishedMu.Lock()
	defer s.publishedMu.Unlock()
	return s.invalidations
}

// storePublished caches guides unless the list was invalidated after
// generation was taken.
func (s *GuideService) storePublished(guides []*data.Guide, generation uint64) {
	if s.cache == nil {
		return
	}
	s.publishedMu.Lock()
	defer s.publishedMu.Unlock()
	if s.invalidations != generation {
		s.log.Debug("Published guides changed during the read, not caching")
		return
	}
	raw, err := json.Marshal(guides)
	if err != nil {
		s.log.Error(err, "Failed to encode published guides")
		return
	}
	if err := s.cache.Set(publishedCacheKey, raw, s.cacheTTL); err != nil {
		s.log.Error(err, "Failed to cache published guides")
	}
}

func (s *GuideService) invalidatePublished() {
	s.publishedMu.Lock()
	defer s.publishedMu.Unlock()
	s.invalidations++
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(publishedCacheKey); err != nil {
		s.log.Error(err, "Failed to invalidate published guides cache")
	}
}

func (s *GuideService) persistenceError(err error, msg string) error {
	s.log.Error(err, msg)
	return PersistenceError(err)
}

func validateTitleLength(title string) error {
	if utf8.RuneCountInString(title) > maxTitleLength {
		return ValidationError("title must be at most %d characters", maxTitleLength)
	}
	return nil
}

func nonNil(guides []*data.Guide) []*data.Guide {
	if guides == nil {
		return []*data.Guide{}
	}
	return guides
}
