package data

import (
	"context"
	"database/sql"
	"errors"

	"aternotes/internal/oops"

	"github.com/jmoiron/sqlx"
)

const guideColumns = `id, title, slug, content_markdown, content_html, author_id, status, created_at, updated_at, published_at`

// SQLGuideRepository is a concrete implementation of the GuideRepository interface using sqlx.
type SQLGuideRepository struct {
	db *sqlx.DB
}

// NewSQLGuideRepository creates a new SQLGuideRepository.
func NewSQLGuideRepository(db *sqlx.DB) *SQLGuideRepository {
	return &SQLGuideRepository{db: db}
}

// CreateGuide inserts a new guide and sets guide.ID to the generated key.
// A slug clash is reported as ErrDuplicateKey.
func (r *SQLGuideRepository) CreateGuide(ctx context.Context, guide *Guide) error {
	query := `INSERT INTO guides (title, slug, content_markdown, content_html, author_id, status, created_at, updated_at, published_at)
		VALUES (:title, :slug, :content_markdown, :content_html, :author_id, :status, :created_at, :updated_at, :published_at)`
	res, err := r.db.NamedExecContext(ctx, query, guide)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return oops.New(err, "failed to execute create guide query")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return oops.New(err, "failed to read id of created guide")
	}
	guide.ID = id
	return nil
}

// GetGuideByID retrieves a single guide by its ID.
func (r *SQLGuideRepository) GetGuideByID(ctx context.Context, id int64) (*Guide, error) {
	var guide Guide
	query := `SELECT ` + guideColumns + ` FROM guides WHERE id = ?`
	if err := r.db.GetContext(ctx, &guide, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, oops.New(err, "failed to get guide by id %d", id)
	}
	return &guide, nil
}

// GetGuideBySlug retrieves a single guide by its slug.
func (r *SQLGuideRepository) GetGuideBySlug(ctx context.Context, slug string) (*Guide, error) {
	var guide Guide
	query := `SELECT ` + guideColumns + ` FROM guides WHERE slug = ?`
	if err := r.db.GetContext(ctx, &guide, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, oops.New(err, "failed to get guide by slug %q", slug)
	}
	return &guide, nil
}

// SlugExists reports whether any guide already uses slug.
func (r *SQLGuideRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM guides WHERE slug = ?`, slug); err != nil {
		return false, oops.New(err, "failed to check slug %q", slug)
	}
	return count > 0, nil
}

// ListGuidesByAuthor retrieves every guide written by authorID, newest first.
func (r *SQLGuideRepository) ListGuidesByAuthor(ctx context.Context, authorID string) ([]*Guide, error) {
	var guides []*Guide
	query := `SELECT ` + guideColumns + ` FROM guides WHERE author_id = ? ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &guides, query, authorID); err != nil {
		return nil, oops.New(err, "failed to list guides by author")
	}
	return guides, nil
}

// ListGuidesByStatus retrieves every guide in the given status.
func (r *SQLGuideRepository) ListGuidesByStatus(ctx context.Context, status GuideStatus) ([]*Guide, error) {
	var guides []*Guide
	query := `SELECT ` + guideColumns + ` FROM guides WHERE status = ? ORDER BY id`
	if err := r.db.SelectContext(ctx, &guides, query, status); err != nil {
		return nil, oops.New(err, "failed to list guides with status %s", status)
	}
	return guides, nil
}

// UpdateGuide writes every mutable column of guide. The slug is never updated.
func (r *SQLGuideRepository) UpdateGuide(ctx context.Context, guide *Guide) error {
	query := `UPDATE guides SET title = :title, content_markdown = :content_markdown, content_html = :content_html,
		status = :status, updated_at = :updated_at, published_at = :published_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, guide)
	if err != nil {
		return oops.New(err, "failed to update guide")
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

// DeleteGuide removes a guide by its ID.
func (r *SQLGuideRepository) DeleteGuide(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM guides WHERE id = ?`, id)
	if err != nil {
		return oops.New(err, "failed to delete guide")
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
