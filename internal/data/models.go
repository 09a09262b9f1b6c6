package data

import (
	"time"
)

// GuideStatus is the moderation state of a guide.
type GuideStatus string

const (
	StatusDraft         GuideStatus = "draft"
	StatusPendingReview GuideStatus = "pending_review"
	StatusPublished     GuideStatus = "published"
	StatusRejected      GuideStatus = "rejected"
)

// Guide represents a single guide in the database.
type Guide struct {
	ID              int64       `db:"id" json:"id"`
	Title           string      `db:"title" json:"title"`
	Slug            string      `db:"slug" json:"slug"`
	ContentMarkdown string      `db:"content_markdown" json:"content_markdown"`
	ContentHTML     string      `db:"content_html" json:"content_html"`
	AuthorID        string      `db:"author_id" json:"author_id"`
	Status          GuideStatus `db:"status" json:"status"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
	PublishedAt     *time.Time  `db:"published_at" json:"published_at"`
}

// Moderator represents a moderator whose display identity is mirrored from Discord.
type Moderator struct {
	ID               int64      `db:"id" json:"id"`
	DiscordID        string     `db:"discord_id" json:"discord_id"`
	DiscordUsername  string     `db:"discord_username" json:"discord_username"`
	DiscordAvatarURL *string    `db:"discord_avatar_url" json:"discord_avatar_url"`
	LastFetchedAt    *time.Time `db:"last_fetched_at" json:"last_fetched_at"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}
