package story

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/storyshare/service-api/internal/apperr"
	"github.com/storyshare/service-api/internal/story/entity"
	"github.com/storyshare/service-api/internal/story/repo"
	"github.com/storyshare/service-api/pkg/utilities"
)

// Store is the persistence surface for stories and their engagement data.
type Store interface {
	Create(ctx context.Context, s *entity.Story) error
	GetByID(ctx context.Context, id string) (*entity.Story, error)
	List(ctx context.Context) ([]entity.Story, error)
	ListByAuthor(ctx context.Context, authorID string) ([]entity.Story, error)
	UpdateContent(ctx context.Context, id, title, content string) error
	Publish(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	SaveEngagement(ctx context.Context, s *entity.Story) (bool, error)
}

// Service implements the story lifecycle: create, read, update, delete and
// publish. Mutations that belong to an author require the verified caller id
// to match the story's author.
type Service struct {
	store Store
}

func NewService(db *sqlx.DB, st Store) *Service {
	if st == nil {
		st = repo.NewStoryRepo(db)
	}
	return &Service{store: st}
}

// CreateInput is the creation payload.
type CreateInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	AuthorID string `json:"authorId"`
}

// Create persists a new unpublished story. callerID is the verified identity
// from the caller's credential and must match the claimed author.
func (s *Service) Create(ctx context.Context, in CreateInput, callerID string) (*entity.Story, error) {
	if in.Title == "" || in.Content == "" || in.AuthorID == "" {
		return nil, apperr.Validation("title, content and authorId are required")
	}
	if callerID != in.AuthorID {
		return nil, apperr.Forbidden("you are not authorized to create this story")
	}
	st := &entity.Story{
		ID:       utilities.NewKSUID(),
		Title:    in.Title,
		Content:  in.Content,
		AuthorID: in.AuthorID,
		LikedBy:  []string{},
		Comments: []entity.Comment{},
	}
	if err := s.store.Create(ctx, st); err != nil {
		return nil, apperr.Dependency("failed to create story", err)
	}
	return st, nil
}

// Get returns one story.
func (s *Service) Get(ctx context.Context, id string) (*entity.Story, error) {
	st, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("story not found")
		}
		return nil, apperr.Dependency("failed to load story", err)
	}
	return st, nil
}

// List returns all stories.
func (s *Service) List(ctx context.Context) ([]entity.Story, error) {
	stories, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Dependency("failed to list stories", err)
	}
	return stories, nil
}

// ListByAuthor returns the stories of one author. An empty result is reported
// as not found; this conflation is kept for compatibility with existing
// clients.
func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]entity.Story, error) {
	stories, err := s.store.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, apperr.Dependency("failed to list stories", err)
	}
	if len(stories) == 0 {
		return nil, apperr.NotFound("no stories found for this author")
	}
	return stories, nil
}

// UpdatePatch carries the mutable fields. Only title and content can be
// changed through Update; engagement and publish state are off limits.
type UpdatePatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// Update applies the patch if callerID matches the story's author.
func (s *Service) Update(ctx context.Context, id string, patch UpdatePatch, callerID string) (*entity.Story, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if st.AuthorID != callerID {
		return nil, apperr.Forbidden("you are not authorized to update this story")
	}
	if patch.Title != nil {
		st.Title = *patch.Title
	}
	if patch.Content != nil {
		st.Content = *patch.Content
	}
	if err := s.store.UpdateContent(ctx, st.ID, st.Title, st.Content); err != nil {
		return nil, apperr.Dependency("failed to update story", err)
	}
	return st, nil
}

// Delete removes a story if callerID matches its author.
func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	st, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if st.AuthorID != callerID {
		return apperr.Forbidden("you are not authorized to delete this story")
	}
	if err := s.store.Delete(ctx, st.ID); err != nil {
		return apperr.Dependency("failed to delete story", err)
	}
	return nil
}

// Publish marks a story published. Calling it again re-stamps publishedAt.
func (s *Service) Publish(ctx context.Context, id string) (*entity.Story, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.store.Publish(ctx, st.ID, now); err != nil {
		return nil, apperr.Dependency("failed to publish story", err)
	}
	st.IsPublished = true
	st.PublishedAt = &now
	st.UpdatedAt = now
	return st, nil
}
