package entity

import "time"

// Comment is embedded in a story. The sequence is append-only and insertion
// order is display order.
type Comment struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Story is an authored content item with publish state and engagement data.
// LikedBy is a set: LikeCount always equals its size, and PublishedAt is set
// exactly when IsPublished is true.
type Story struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	// AuthorID references an account but is not enforced as a foreign key.
	AuthorID    string     `json:"authorId"`
	IsPublished bool       `json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	LikeCount   int        `json:"likeCount"`
	LikedBy     []string   `json:"likedBy"`
	Comments    []Comment  `json:"comments"`
	// Version guards engagement writes with optimistic locking.
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasLiked reports whether userID is in the like set.
func (s *Story) HasLiked(userID string) bool {
	for _, id := range s.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}
