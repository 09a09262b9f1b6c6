package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"aternotes/internal/data"
	"aternotes/internal/directory"
	"aternotes/internal/logger"
	"aternotes/internal/metrics"
)

// DefaultRefreshCooldown is the minimum age of a profile before it is fetched again.
const DefaultRefreshCooldown = 6 * time.Hour

// ModeratorService keeps the moderator roster in sync with Discord profiles.
type ModeratorService struct {
	repo      ModeratorRepository
	directory DirectoryClient
	cooldown  time.Duration
	metrics   Metrics
	log       logger.Logger
	now       func() time.Time
}

// NewModeratorService creates a new ModeratorService. A non-positive
// cooldown selects DefaultRefreshCooldown.
func NewModeratorService(repo ModeratorRepository, dir DirectoryClient, cooldown time.Duration, log logger.Logger) *ModeratorService {
	if cooldown <= 0 {
		cooldown = DefaultRefreshCooldown
	}
	return &ModeratorService{
		repo:      repo,
		directory: dir,
		cooldown:  cooldown,
		metrics:   nopMetrics{},
		log:       log.With(map[string]interface{}{"service": "moderator"}),
		now:       time.Now,
	}
}

// WithMetrics reports directory traffic to m.
func (s *ModeratorService) WithMetrics(m Metrics) *ModeratorService {
	if m != nil {
		s.metrics = m
	}
	return s
}

// AddModerator adds a Discord account to the roster after fetching its profile.
func (s *ModeratorService) AddModerator(ctx context.Context, discordID string) (*data.Moderator, error) {
	discordID = strings.TrimSpace(discordID)
	if discordID == "" {
		return nil, ValidationError("discord id is required")
	}
	if !directory.ValidID(discordID) {
		return nil, ValidationError("discord id must be a numeric account id")
	}

	_, err := s.repo.GetModeratorByDiscordID(ctx, discordID)
	if err == nil {
		return nil, Conflict("discord account %s is already a moderator", discordID)
	}
	if !errors.Is(err, data.ErrNotFound) {
		return nil, s.persistenceError(err, "failed to look up moderator")
	}

	profile, err := s.fetch(ctx, discordID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	m := &data.Moderator{
		DiscordID:        discordID,
		DiscordUsername:  directory.Username(profile),
		DiscordAvatarURL: s.directory.AvatarURL(profile),
		LastFetchedAt:    &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.CreateModerator(ctx, m); err != nil {
		if errors.Is(err, data.ErrDuplicateKey) {
			return nil, Conflict("discord account %s is already a moderator", discordID)
		}
		return nil, s.persistenceError(err, "failed to create moderator")
	}
	s.log.Info("Added moderator " + m.DiscordUsername)
	return m, nil
}

// RemoveModerator deletes a moderator from the roster.
func (s *ModeratorService) RemoveModerator(ctx context.Context, key ModeratorKey) error {
	m, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteModerator(ctx, m.ID); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return NotFound("moderator %s not found", key)
		}
		return s.persistenceError(err, "failed to delete moderator")
	}
	s.log.Info("Removed moderator " + m.DiscordUsername)
	return nil
}

// RefreshModerator re-fetches a moderator's profile. Within the cooldown
// window the stored record is returned and Discord is not contacted.
func (s *ModeratorService) RefreshModerator(ctx context.Context, key ModeratorKey) (*RefreshResult, error) {
	m, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if m.LastFetchedAt != nil && now.Sub(*m.LastFetchedAt) < s.cooldown {
		s.metrics.RecordRefreshSkipped()
		return &RefreshResult{Moderator: m, Fetched: false}, nil
	}

	profile, err := s.fetch(ctx, m.DiscordID)
	if err != nil {
		return nil, err
	}

	m.DiscordUsername = directory.Username(profile)
	m.DiscordAvatarURL = s.directory.AvatarURL(profile)
	m.LastFetchedAt = &now
	m.UpdatedAt = now
	if err := s.repo.UpdateModerator(ctx, m); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, NotFound("moderator %s not found", key)
		}
		return nil, s.persistenceError(err, "failed to update moderator")
	}
	return &RefreshResult{Moderator: m, Fetched: true}, nil
}

// ListModerators returns the roster ordered by username.
func (s *ModeratorService) ListModerators(ctx context.Context) ([]*data.Moderator, error) {
	moderators, err := s.repo.ListModerators(ctx)
	if err != nil {
		return nil, s.persistenceError(err, "failed to list moderators")
	}
	if moderators == nil {
		moderators = []*data.Moderator{}
	}
	return moderators, nil
}

func (s *ModeratorService) load(ctx context.Context, key ModeratorKey) (*data.Moderator, error) {
	var m *data.Moderator
	var err error
	switch {
	case key.ID != 0:
		m, err = s.repo.GetModeratorByID(ctx, key.ID)
	case key.DiscordID != "":
		if !directory.ValidID(key.DiscordID) {
			return nil, ValidationError("discord id must be a numeric account id")
		}
		m, err = s.repo.GetModeratorByDiscordID(ctx, key.DiscordID)
	default:
		return nil, ValidationError("a moderator id or discord id is required")
	}
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return nil, NotFound("moderator %s not found", key)
		}
		return nil, s.persistenceError(err, "failed to load moderator")
	}
	return m, nil
}

func (s *ModeratorService) fetch(ctx context.Context, discordID string) (*directory.Profile, error) {
	start := time.Now()
	profile, err := s.directory.FetchProfile(ctx, discordID)
	elapsed := time.Since(start)

	switch {
	case err == nil && profile.ID != discordID:
		s.metrics.RecordDirectoryFetch(metrics.FetchUnavailable, elapsed)
		s.log.Warn("Directory returned profile " + profile.ID + " for " + discordID)
		return nil, UpstreamUnavailable(nil, "discord returned a different account for %s", discordID)
	case err == nil:
		s.metrics.RecordDirectoryFetch(metrics.FetchSuccess, elapsed)
		return profile, nil
	case errors.Is(err, directory.ErrProfileNotFound):
		s.metrics.RecordDirectoryFetch(metrics.FetchNotFound, elapsed)
		return nil, UpstreamUnavailable(err, "discord account %s does not exist", discordID)
	default:
		s.metrics.RecordDirectoryFetch(metrics.FetchUnavailable, elapsed)
		s.log.Warn("Directory fetch failed for " + discordID + ": " + err.Error())
		return nil, UpstreamUnavailable(err, "could not reach Discord, try again later")
	}
}

func (s *ModeratorService) persistenceError(err error, msg string) error {
	s.log.Error(err, msg)
	return PersistenceError(err)
}
