// Package directory fetches account profiles (display name, avatar) from
// Discord, the external directory the moderator roster mirrors.
package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"aternotes/internal/config"
	"aternotes/internal/logger"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

const (
	BotName          = "Aternotes"
	UserAgentURL     = "https://aternotes.org"
	UserAgentVersion = "1.0"

	defaultCDNURL = "https://cdn.discordapp.com"
)

var UserAgent = fmt.Sprintf("DiscordBot (%s, %s) %s", UserAgentURL, UserAgentVersion, BotName)

// Discord ids are unsigned 64-bit snowflakes written in decimal.
var snowflake = regexp.MustCompile(`^[0-9]{1,20}$`)

// ValidID reports whether id has the form of a Discord account id.
func ValidID(id string) bool {
	return snowflake.MatchString(id)
}

var (
	// ErrProfileNotFound means the directory has no account with the given id.
	ErrProfileNotFound = errors.New("directory profile not found")
	// ErrUnavailable means the directory could not be reached or answered with a failure.
	ErrUnavailable = errors.New("directory unavailable")
)

// Profile is the subset of a Discord user this system consumes.
type Profile struct {
	ID            string
	DisplayName   string
	Discriminator string // "" or "0" for accounts migrated off legacy discriminators
	AvatarHash    string // "" when the account has no custom avatar
}

// userFetcher is the part of *discordgo.Session used by the client.
type userFetcher interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// DiscordClient fetches profiles through the Discord REST API, waiting on a
// shared token bucket before every request.
type DiscordClient struct {
	users   userFetcher
	limiter *rate.Limiter
	cdnURL  string
	log     logger.Logger
}

// NewDiscordClient creates a DiscordClient authenticated with a bot token.
func NewDiscordClient(cfg config.DiscordConfig, log logger.Logger) (*DiscordClient, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("discord bot token not configured")
	}
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.UserAgent = UserAgent
	session.Client = &http.Client{Timeout: cfg.Timeout}
	// The client limiter below is the only retry/backoff policy we want.
	session.ShouldRetryOnRateLimit = false

	return newDiscordClient(session, cfg, log), nil
}

func newDiscordClient(users userFetcher, cfg config.DiscordConfig, log logger.Logger) *DiscordClient {
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	cdnURL := strings.TrimRight(cfg.CDNURL, "/")
	if cdnURL == "" {
		cdnURL = defaultCDNURL
	}
	return &DiscordClient{
		users:   users,
		limiter: rate.NewLimiter(limit, burst),
		cdnURL:  cdnURL,
		log:     log.With(map[string]interface{}{"module": "directory"}),
	}
}

// FetchProfile retrieves the profile of the Discord account discordID.
// Failures wrap ErrProfileNotFound or ErrUnavailable.
func (c *DiscordClient) FetchProfile(ctx context.Context, discordID string) (*Profile, error) {
	// The id becomes a REST path segment, so nothing but a snowflake may pass.
	if !ValidID(discordID) {
		return nil, fmt.Errorf("%w: malformed id %q", ErrProfileNotFound, discordID)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting for rate limiter: %v", ErrUnavailable, err)
	}

	user, err := c.users.User(discordID, discordgo.WithContext(ctx))
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Response != nil {
			switch restErr.Response.StatusCode {
			case http.StatusNotFound:
				return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, discordID)
			case http.StatusBadRequest:
				// Discord answers malformed snowflakes with 400 and an
				// "Invalid Form Body" message.
				return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, discordID)
			}
			c.log.Error(err, fmt.Sprintf("Discord API error for %s: HTTP %d", discordID, restErr.Response.StatusCode))
		} else {
			c.log.Error(err, fmt.Sprintf("Failed to reach Discord for %s", discordID))
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if user == nil || user.ID == "" {
		return nil, fmt.Errorf("%w: empty response for %s", ErrProfileNotFound, discordID)
	}

	return &Profile{
		ID:            user.ID,
		DisplayName:   user.Username,
		Discriminator: user.Discriminator,
		AvatarHash:    user.Avatar,
	}, nil
}

// AvatarURL returns the CDN location of a custom avatar, or nil when the
// profile has none.
func (c *DiscordClient) AvatarURL(p *Profile) *string {
	if p.AvatarHash == "" {
		return nil
	}
	url := fmt.Sprintf("%s/avatars/%s/%s.png", c.cdnURL, p.ID, p.AvatarHash)
	return &url
}

// Username returns the display form of a profile: the name, with a
// "#discriminator" suffix only for accounts that still carry one.
func Username(p *Profile) string {
	if p.Discriminator == "" || p.Discriminator == "0" {
		return p.DisplayName
	}
	return p.DisplayName + "#" + p.Discriminator
}
