package story

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLikeAddsThenRemoves(t *testing.T) {
	svc, _ := newTestService(t)
	st := mustCreate(t, svc, "u1")

	liked, err := svc.ToggleLike(context.Background(), st.ID, "reader-1")
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikeCount)
	assert.Equal(t, []string{"reader-1"}, liked.LikedBy)

	unliked, err := svc.ToggleLike(context.Background(), st.ID, "reader-1")
	require.NoError(t, err)
	assert.Equal(t, 0, unliked.LikeCount)
	assert.Empty(t, unliked.LikedBy, "toggling twice is self-inverse")
}

func TestToggleLikeKeepsCountEqualToSet(t *testing.T) {
	svc, _ := newTestService(t)
	st := mustCreate(t, svc, "u1")

	// arbitrary interleaving of likes and unlikes from several readers
	sequence := []string{"a", "b", "a", "c", "c", "b", "d", "a"}
	for _, user := range sequence {
		got, err := svc.ToggleLike(context.Background(), st.ID, user)
		require.NoError(t, err)
		assert.Equal(t, len(got.LikedBy), got.LikeCount)
	}

	final, err := svc.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a"}, final.LikedBy)
	assert.Equal(t, 2, final.LikeCount)
}

func TestToggleLikeFloorsCountAtZero(t *testing.T) {
	svc, store := newTestService(t)
	st := mustCreate(t, svc, "u1")

	// corrupt data: membership present but count already at zero
	store.stories[st.ID].LikedBy = []string{"reader-1"}
	store.stories[st.ID].LikeCount = 0

	got, err := svc.ToggleLike(context.Background(), st.ID, "reader-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikeCount, "count never goes negative")
	assert.Empty(t, got.LikedBy)
}

func TestToggleLikeMissingStory(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ToggleLike(context.Background(), "missing", "reader-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "story not found")
}

func TestToggleLikeRetriesOnVersionConflict(t *testing.T) {
	svc, store := newTestService(t)
	st := mustCreate(t, svc, "u1")
	store.saveFailures = 1

	got, err := svc.ToggleLike(context.Background(), st.ID, "reader-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)
	assert.Equal(t, 2, store.saveCalls, "one conflict, one successful retry")
}

func TestToggleLikeGivesUpAfterRetries(t *testing.T) {
	svc, store := newTestService(t)
	st := mustCreate(t, svc, "u1")
	store.saveFailures = engagementRetries

	_, err := svc.ToggleLike(context.Background(), st.ID, "reader-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
	assert.Equal(t, engagementRetries, store.saveCalls)
}

func TestAddCommentAppendsInOrder(t *testing.T) {
	svc, _ := newTestService(t)
	st := mustCreate(t, svc, "u1")

	const n = 5
	for i := 0; i < n; i++ {
		_, err := svc.AddComment(context.Background(), st.ID, fmt.Sprintf("comment %d", i), "reader-1", "Ada")
		require.NoError(t, err)
	}

	got, err := svc.Get(context.Background(), st.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, n)
	for i, c := range got.Comments {
		assert.Equal(t, fmt.Sprintf("comment %d", i), c.Text, "insertion order is display order")
		assert.Equal(t, "Ada", c.AuthorName)
		assert.NotEmpty(t, c.ID)
		assert.False(t, c.CreatedAt.IsZero())
	}
}

func TestAddCommentReturnsFullStory(t *testing.T) {
	svc, _ := newTestService(t)
	st := mustCreate(t, svc, "u1")

	got, err := svc.AddComment(context.Background(), st.ID, "nice read", "reader-1", "Ada")
	require.NoError(t, err)
	assert.Equal(t, st.ID, got.ID)
	assert.Equal(t, "A", got.Title)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "nice read", got.Comments[0].Text)
}

func TestAddCommentMissingStory(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddComment(context.Background(), "missing", "text", "u", "U")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestToggleLikeAcrossUsersIsIndependent(t *testing.T) {
	svc, _ := newTestService(t)
	st := mustCreate(t, svc, "u1")

	_, err := svc.ToggleLike(context.Background(), st.ID, "a")
	require.NoError(t, err)
	got, err := svc.ToggleLike(context.Background(), st.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, 2, got.LikeCount)

	got, err = svc.ToggleLike(context.Background(), st.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)
	assert.Equal(t, []string{"b"}, got.LikedBy)
}
