package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock hands out timestamps one minute apart.
func tickingClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	start := time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)
	return NewStore(db, WithClock(tickingClock(start)))
}

func TestCreateAndGetPost(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.CreatePost(ctx, PostFields{Title: "Hello", Content: "<p>hi</p>", Author: "Mira"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Date.IsZero())

	got, err := store.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, "Mira", got.Author)
	assert.True(t, created.Date.Equal(got.Date))
}

func TestCreatePost_RequiresTitle(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreatePost(context.Background(), PostFields{Title: "  "})

	assert.ErrorIs(t, err, ErrInvalid)
}

func TestGetPost_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPost(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryPosts_OrderAndFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var created []*Post
	for i, draft := range []bool{false, true, false, false} {
		p, err := store.CreatePost(ctx, PostFields{Title: string(rune('A' + i)), Draft: draft})
		require.NoError(t, err)
		created = append(created, p)
	}

	all, err := store.QueryPosts(ctx, PostQuery{Order: Descending})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "D", all[0].Title)
	assert.Equal(t, "A", all[3].Title)

	published := false
	visible, err := store.QueryPosts(ctx, PostQuery{Order: Ascending, Draft: &published})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C", "D"}, titles(visible))

	after := created[0].Date
	later, err := store.QueryPosts(ctx, PostQuery{Order: Ascending, Limit: 1, Draft: &published, DateGT: &after})
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, titles(later))

	before := created[3].Date
	earlier, err := store.QueryPosts(ctx, PostQuery{Order: Descending, Limit: 1, Draft: &published, DateLT: &before})
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, titles(earlier))

	limited, err := store.QueryPosts(ctx, PostQuery{Order: Descending, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "C"}, titles(limited))
}

func titles(posts []Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}

func TestUpdatePost(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, PostFields{Title: "Old", Content: "x", Author: "a", Draft: true})
	require.NoError(t, err)

	updated, err := store.UpdatePost(ctx, post.ID, PostFields{Title: "New", Content: "y", Author: "b"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "y", updated.Content)
	assert.Equal(t, "b", updated.Author)
	assert.True(t, updated.Draft, "edit must not touch the draft flag")
	assert.True(t, post.Date.Equal(updated.Date))

	_, err = store.UpdatePost(ctx, "missing", PostFields{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetDraft(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, PostFields{Title: "T", Draft: true})
	require.NoError(t, err)

	require.NoError(t, store.SetDraft(ctx, post.ID, false))
	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, got.Draft)

	require.NoError(t, store.SetDraft(ctx, post.ID, true))
	got, err = store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, got.Draft)

	assert.ErrorIs(t, store.SetDraft(ctx, "missing", true), ErrNotFound)
}

func TestDeletePost(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, PostFields{Title: "T"})
	require.NoError(t, err)

	require.NoError(t, store.DeletePost(ctx, post.ID))
	_, err = store.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeletePost(ctx, post.ID), ErrNotFound)
}

func TestComments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	post, err := store.CreatePost(ctx, PostFields{Title: "T"})
	require.NoError(t, err)

	first, err := store.CreateComment(ctx, post.ID, CommentFields{Author: "Anonymous", Content: "first"})
	require.NoError(t, err)
	_, err = store.CreateComment(ctx, post.ID, CommentFields{Author: "Jo", Content: "second"})
	require.NoError(t, err)

	_, err = store.CreateComment(ctx, post.ID, CommentFields{Author: "Jo", Content: ""})
	assert.ErrorIs(t, err, ErrInvalid)

	comments, err := store.QueryComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)

	require.NoError(t, store.DeleteComment(ctx, post.ID, first.ID))
	assert.ErrorIs(t, store.DeleteComment(ctx, post.ID, first.ID), ErrNotFound)
	assert.ErrorIs(t, store.DeleteComment(ctx, "other-post", comments[1].ID), ErrNotFound)

	comments, err = store.QueryComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestInsertPost_KeepsDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	published := time.Date(2020, time.May, 4, 8, 30, 0, 0, time.UTC)

	post := Post{Title: "Imported", Date: published}
	require.NoError(t, store.InsertPost(ctx, &post))

	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, published.Equal(got.Date))
}

func TestTransaction_RollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.CreatePost(ctx, PostFields{Title: "kept?"}); err != nil {
			return err
		}
		_, err := tx.CreatePost(ctx, PostFields{Title: ""})
		return err
	})
	require.ErrorIs(t, err, ErrInvalid)

	posts, err := store.QueryPosts(ctx, PostQuery{})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestProfiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	profile := &UserProfile{Email: "mira@example.com", PasswordHash: []byte("hash")}
	require.NoError(t, store.CreateProfile(ctx, profile))
	assert.NotEmpty(t, profile.UID)
	assert.Equal(t, "mira@example.com", profile.DisplayName())

	token := "token-1"
	profile.SessionToken = &token
	profile.Username = "Mira"
	require.NoError(t, profile.SetEditor(EditorDefaults{Font: "arial"}))
	require.NoError(t, store.SaveProfile(ctx, profile))

	byToken, err := store.GetProfileBySessionToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, profile.UID, byToken.UID)
	assert.Equal(t, "Mira", byToken.DisplayName())
	assert.Equal(t, EditorDefaults{Font: "arial", Size: "medium"}, byToken.Editor())

	byEmail, err := store.GetProfileByEmail(ctx, "mira@example.com")
	require.NoError(t, err)
	assert.Equal(t, profile.UID, byEmail.UID)

	_, err = store.GetProfileBySessionToken(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetProfile(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	dup := &UserProfile{Email: "mira@example.com", PasswordHash: []byte("x")}
	assert.Error(t, store.CreateProfile(ctx, dup))
}
