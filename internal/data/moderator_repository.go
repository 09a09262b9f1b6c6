package data

import (
	"context"
	"database/sql"
	"errors"

	"aternotes/internal/oops"

	"github.com/jmoiron/sqlx"
)

const moderatorColumns = `id, discord_id, discord_username, discord_avatar_url, last_fetched_at, created_at, updated_at`

// SQLModeratorRepository handles database operations for moderators.
type SQLModeratorRepository struct {
	db *sqlx.DB
}

// NewSQLModeratorRepository creates a new SQLModeratorRepository.
func NewSQLModeratorRepository(db *sqlx.DB) *SQLModeratorRepository {
	return &SQLModeratorRepository{db: db}
}

// CreateModerator inserts a moderator and sets its ID. A second row for the
// same Discord account is reported as ErrDuplicateKey.
func (r *SQLModeratorRepository) CreateModerator(ctx context.Context, m *Moderator) error {
	query := `INSERT INTO moderators (discord_id, discord_username, discord_avatar_url, last_fetched_at, created_at, updated_at)
		VALUES (:discord_id, :discord_username, :discord_avatar_url, :last_fetched_at, :created_at, :updated_at)`
	res, err := r.db.NamedExecContext(ctx, query, m)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return oops.New(err, "failed to insert moderator")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return oops.New(err, "failed to read id of inserted moderator")
	}
	m.ID = id
	return nil
}

// GetModeratorByID finds a moderator by its database ID.
func (r *SQLModeratorRepository) GetModeratorByID(ctx context.Context, id int64) (*Moderator, error) {
	var m Moderator
	err := r.db.GetContext(ctx, &m, `SELECT `+moderatorColumns+` FROM moderators WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, oops.New(err, "failed to get moderator %d", id)
	}
	return &m, nil
}

// GetModeratorByDiscordID finds a moderator by Discord account ID.
func (r *SQLModeratorRepository) GetModeratorByDiscordID(ctx context.Context, discordID string) (*Moderator, error) {
	var m Moderator
	err := r.db.GetContext(ctx, &m, `SELECT `+moderatorColumns+` FROM moderators WHERE discord_id = ?`, discordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, oops.New(err, "failed to get moderator by discord id %s", discordID)
	}
	return &m, nil
}

// ListModerators retrieves all moderators ordered by username.
func (r *SQLModeratorRepository) ListModerators(ctx context.Context) ([]*Moderator, error) {
	var moderators []*Moderator
	err := r.db.SelectContext(ctx, &moderators, `SELECT `+moderatorColumns+` FROM moderators ORDER BY discord_username ASC, id ASC`)
	if err != nil {
		return nil, oops.New(err, "failed to list moderators")
	}
	return moderators, nil
}

// UpdateModerator stores refreshed profile data.
func (r *SQLModeratorRepository) UpdateModerator(ctx context.Context, m *Moderator) error {
	query := `UPDATE moderators SET discord_username = :discord_username, discord_avatar_url = :discord_avatar_url,
		last_fetched_at = :last_fetched_at, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, m)
	if err != nil {
		return oops.New(err, "failed to update moderator")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return oops.New(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteModerator removes a moderator by its database ID.
func (r *SQLModeratorRepository) DeleteModerator(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM moderators WHERE id = ?`, id)
	if err != nil {
		return oops.New(err, "failed to delete moderator")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return oops.New(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
