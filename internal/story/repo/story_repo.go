package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/storyshare/service-api/internal/story/entity"
)

// StoryRepo provides data access for the stories table using sqlx. The like
// set and comment list are embedded JSONB columns, read and written with the
// owning row.
type StoryRepo struct {
	db *sqlx.DB
}

func NewStoryRepo(db *sqlx.DB) *StoryRepo { return &StoryRepo{db: db} }

// EnsureTable creates the stories table if not exists (idempotent).
func (r *StoryRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS stories (
  id varchar(32) PRIMARY KEY,
  title TEXT NOT NULL,
  content TEXT NOT NULL,
  author_id TEXT NOT NULL,
  is_published BOOLEAN NOT NULL DEFAULT false,
  published_at TIMESTAMPTZ,
  like_count INT NOT NULL DEFAULT 0,
  liked_by JSONB NOT NULL DEFAULT '[]'::jsonb,
  comments JSONB NOT NULL DEFAULT '[]'::jsonb,
  version BIGINT NOT NULL DEFAULT 1,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_stories_author_id ON stories(author_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

type storyRow struct {
	ID          string     `db:"id"`
	Title       string     `db:"title"`
	Content     string     `db:"content"`
	AuthorID    string     `db:"author_id"`
	IsPublished bool       `db:"is_published"`
	PublishedAt *time.Time `db:"published_at"`
	LikeCount   int        `db:"like_count"`
	LikedBy     []byte     `db:"liked_by"`
	Comments    []byte     `db:"comments"`
	Version     int64      `db:"version"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (row storyRow) toEntity() (entity.Story, error) {
	s := entity.Story{
		ID:          row.ID,
		Title:       row.Title,
		Content:     row.Content,
		AuthorID:    row.AuthorID,
		IsPublished: row.IsPublished,
		PublishedAt: row.PublishedAt,
		LikeCount:   row.LikeCount,
		LikedBy:     []string{},
		Comments:    []entity.Comment{},
		Version:     row.Version,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if len(row.LikedBy) > 0 {
		if err := json.Unmarshal(row.LikedBy, &s.LikedBy); err != nil {
			return s, err
		}
	}
	if len(row.Comments) > 0 {
		if err := json.Unmarshal(row.Comments, &s.Comments); err != nil {
			return s, err
		}
	}
	return s, nil
}

const storyColumns = `id, title, content, author_id, is_published, published_at,
	like_count, liked_by, comments, version, created_at, updated_at`

// Create inserts a new story row and fills in the generated timestamps.
func (r *StoryRepo) Create(ctx context.Context, s *entity.Story) error {
	const q = `INSERT INTO stories (id, title, content, author_id, is_published)
		VALUES ($1,$2,$3,$4,$5) RETURNING version, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q,
		s.ID, s.Title, s.Content, s.AuthorID, s.IsPublished,
	).Scan(&s.Version, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID fetches one story or sql.ErrNoRows.
func (r *StoryRepo) GetByID(ctx context.Context, id string) (*entity.Story, error) {
	q := `SELECT ` + storyColumns + ` FROM stories WHERE id=$1`
	var row storyRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, err
	}
	s, err := row.toEntity()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all stories, oldest first.
func (r *StoryRepo) List(ctx context.Context) ([]entity.Story, error) {
	q := `SELECT ` + storyColumns + ` FROM stories ORDER BY created_at`
	return r.selectStories(ctx, q)
}

// ListByAuthor returns the stories whose author_id matches. An empty result
// is not an error at this layer.
func (r *StoryRepo) ListByAuthor(ctx context.Context, authorID string) ([]entity.Story, error) {
	q := `SELECT ` + storyColumns + ` FROM stories WHERE author_id=$1 ORDER BY created_at`
	return r.selectStories(ctx, q, authorID)
}

func (r *StoryRepo) selectStories(ctx context.Context, q string, args ...any) ([]entity.Story, error) {
	var rows []storyRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	out := make([]entity.Story, 0, len(rows))
	for _, row := range rows {
		s, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// UpdateContent overwrites the mutable fields. Engagement and publish state
// are not reachable from this statement.
func (r *StoryRepo) UpdateContent(ctx context.Context, id, title, content string) error {
	const q = `UPDATE stories SET title=$2, content=$3, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, title, content)
	return err
}

// Publish marks the story published and stamps published_at. Re-publishing
// re-stamps the time.
func (r *StoryRepo) Publish(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE stories SET is_published=true, published_at=$2, updated_at=$2 WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, at)
	return err
}

// Delete removes a story row.
func (r *StoryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE id=$1`, id)
	return err
}

// SaveEngagement writes the like set and comment list conditionally on the
// version the caller loaded. It reports false when another writer got there
// first, so the caller can retry its read-modify-write.
func (r *StoryRepo) SaveEngagement(ctx context.Context, s *entity.Story) (bool, error) {
	likedBy, err := json.Marshal(s.LikedBy)
	if err != nil {
		return false, err
	}
	comments, err := json.Marshal(s.Comments)
	if err != nil {
		return false, err
	}
	const q = `UPDATE stories SET like_count=$2, liked_by=$3, comments=$4,
		version=version+1, updated_at=NOW() WHERE id=$1 AND version=$5`
	res, err := r.db.ExecContext(ctx, q, s.ID, s.LikeCount, likedBy, comments, s.Version)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	s.Version++
	return true, nil
}
