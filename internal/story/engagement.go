package story

import (
	"context"
	"time"

	"github.com/storyshare/service-api/internal/apperr"
	"github.com/storyshare/service-api/internal/story/entity"
	"github.com/storyshare/service-api/pkg/utilities"
)

// engagementRetries bounds the optimistic-lock retry loop. Each engagement
// write is a read-modify-write guarded by the story's version; a lost race
// reloads and reapplies instead of clobbering the other writer.
const engagementRetries = 3

// ToggleLike flips userID's membership in the story's like set. The same
// operation serves both directions, keyed only by current membership. The
// count never goes below zero, even if stored data disagrees with the set.
func (s *Service) ToggleLike(ctx context.Context, storyID, userID string) (*entity.Story, error) {
	for range engagementRetries {
		st, err := s.Get(ctx, storyID)
		if err != nil {
			return nil, err
		}

		if st.HasLiked(userID) {
			kept := st.LikedBy[:0]
			for _, id := range st.LikedBy {
				if id != userID {
					kept = append(kept, id)
				}
			}
			st.LikedBy = kept
			st.LikeCount--
			if st.LikeCount < 0 {
				st.LikeCount = 0
			}
		} else {
			st.LikedBy = append(st.LikedBy, userID)
			st.LikeCount++
		}

		ok, err := s.store.SaveEngagement(ctx, st)
		if err != nil {
			return nil, apperr.Dependency("failed to save like", err)
		}
		if ok {
			return st, nil
		}
	}
	return nil, apperr.Dependency("story was modified concurrently, please retry", nil)
}

// AddComment appends a comment to the story's ordered sequence. Comments are
// never edited or removed, and the text is stored as-is.
func (s *Service) AddComment(ctx context.Context, storyID, text, authorID, authorName string) (*entity.Story, error) {
	for range engagementRetries {
		st, err := s.Get(ctx, storyID)
		if err != nil {
			return nil, err
		}

		st.Comments = append(st.Comments, entity.Comment{
			ID:         utilities.NewSnowflakeID(),
			Text:       text,
			AuthorID:   authorID,
			AuthorName: authorName,
			CreatedAt:  time.Now().UTC(),
		})

		ok, err := s.store.SaveEngagement(ctx, st)
		if err != nil {
			return nil, apperr.Dependency("failed to save comment", err)
		}
		if ok {
			return st, nil
		}
	}
	return nil, apperr.Dependency("story was modified concurrently, please retry", nil)
}
