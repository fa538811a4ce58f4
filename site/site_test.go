package site

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"twoblog/auth"
	"twoblog/config"
	"twoblog/constants"
	"twoblog/database"
	"twoblog/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testSite struct {
	store    *database.Store
	identity *auth.Identity
	handler  http.Handler
	admins   []string
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "site.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	clock := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	store := database.NewStore(db, database.WithClock(func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}))

	hub := auth.NewHub()
	t.Cleanup(hub.Close)
	identity := auth.NewIdentity(store, auth.NewRoles(nil), hub)

	cfg := config.Config{
		SiteName:           "Test blog",
		RecentCount:        constants.DEFAULT_RECENT_COUNT,
		FeedLimit:          constants.DEFAULT_FEED_LIMIT,
		TeaserLength:       constants.TEASER_LENGTH,
		CorsAllowedOrigins: []string{"*"},
	}
	now := func() time.Time { return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC) }

	s, err := New(cfg, store, identity, zap.NewNop(), WithClock(now))
	require.NoError(t, err)

	return &testSite{store: store, identity: identity, handler: s.Router()}
}

func (ts *testSite) signUp(t *testing.T, email string, admin bool) (*database.UserProfile, *http.Cookie) {
	t.Helper()

	profile, token, err := ts.identity.SignUp(context.Background(), email, "secret1", "secret1")
	require.NoError(t, err)
	if admin {
		ts.admins = append(ts.admins, profile.UID)
		ts.identity.Roles().Replace(ts.admins)
	}
	return profile, &http.Cookie{Name: constants.SESSION_COOKIE_NAME, Value: token}
}

func (ts *testSite) createPost(t *testing.T, title, content string, draft bool) *database.Post {
	t.Helper()

	post, err := ts.store.CreatePost(context.Background(), database.PostFields{
		Title:   title,
		Content: content,
		Author:  "Mira",
		Draft:   draft,
	})
	require.NoError(t, err)
	return post
}

func (ts *testSite) do(t *testing.T, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func flashFrom(rec *httptest.ResponseRecorder) string {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == constants.FLASH_COOKIE_NAME {
			value, _ := url.QueryUnescape(cookie.Value)
			return value
		}
	}
	return ""
}

func TestHome_HidesDrafts(t *testing.T) {
	ts := newTestSite(t)
	ts.createPost(t, "Visible thoughts", "<p>hello</p>", false)
	ts.createPost(t, "Secret plans", "<p>not yet</p>", true)

	rec := ts.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Visible thoughts")
	assert.NotContains(t, rec.Body.String(), "Secret plans")
}

func TestHome_RecentAndArchive(t *testing.T) {
	ts := newTestSite(t)
	for _, title := range []string{"Post one", "Post two", "Post three", "Post four", "Post five"} {
		ts.createPost(t, title, "body", false)
	}

	body := ts.do(t, http.MethodGet, "/", nil).Body.String()

	archive := strings.Index(body, "Archive")
	require.NotEqual(t, -1, archive)
	assert.Less(t, strings.Index(body, "Post five"), archive, "newest post is recent")
	assert.Less(t, strings.Index(body, "Post three"), archive)
	assert.Greater(t, strings.Index(body, "Post two"), archive, "older posts are archived")
	assert.Greater(t, strings.Index(body, "Post one"), archive)
}

func TestHome_Empty(t *testing.T) {
	ts := newTestSite(t)

	rec := ts.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nothing has been published yet.")
	assert.NotContains(t, rec.Body.String(), "Archive")
}

func TestAdminRoutes_RedirectNonAdmins(t *testing.T) {
	ts := newTestSite(t)
	_, reader := ts.signUp(t, "reader@example.com", false)

	for _, target := range []string{"/admin", "/admin/new", "/admin/import"} {
		rec := ts.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, target)
		assert.Equal(t, "/unauthorized", rec.Header().Get("Location"), target)

		rec = ts.do(t, http.MethodGet, target, nil, reader)
		assert.Equal(t, http.StatusSeeOther, rec.Code, target)
		assert.Equal(t, "/unauthorized", rec.Header().Get("Location"), target)
	}

	rec := ts.do(t, http.MethodGet, "/unauthorized", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access denied")
}

func TestSettings_RequiresSignIn(t *testing.T) {
	ts := newTestSite(t)

	rec := ts.do(t, http.MethodGet, "/settings", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/signin", rec.Header().Get("Location"))

	_, cookie := ts.signUp(t, "reader@example.com", false)
	rec = ts.do(t, http.MethodGet, "/settings", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reader@example.com")
	assert.NotContains(t, rec.Body.String(), "Editor defaults")
}

func TestAdmin_CreateEditPublishDelete(t *testing.T) {
	ts := newTestSite(t)
	ctx := context.Background()
	admin, cookie := ts.signUp(t, "owner@example.com", true)

	rec := ts.do(t, http.MethodPost, "/admin/new", url.Values{
		"title":   {"Fresh post"},
		"content": {"<p>first draft</p>"},
		"draft":   {"on"},
	}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "success:Post created successfully!", flashFrom(rec))

	posts, err := ts.store.QueryPosts(ctx, database.PostQuery{})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	post := posts[0]
	assert.Equal(t, admin.DisplayName(), post.Author)
	assert.True(t, post.Draft)
	assert.Equal(t, "/admin/post/"+post.ID, rec.Header().Get("Location"))

	rec = ts.do(t, http.MethodPost, "/admin/post/"+post.ID, url.Values{
		"title":   {"Fresh post, revised"},
		"content": {"<p>second draft</p>"},
	}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	updated, err := ts.store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fresh post, revised", updated.Title)
	assert.True(t, updated.Draft, "editing does not publish")

	rec = ts.do(t, http.MethodPost, "/admin/post/"+post.ID+"/publish", url.Values{"draft": {"false"}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	updated, err = ts.store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, updated.Draft)

	rec = ts.do(t, http.MethodPost, "/admin/post/"+post.ID+"/delete", nil, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, err = ts.store.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestAdmin_CreateRequiresTitle(t *testing.T) {
	ts := newTestSite(t)
	_, cookie := ts.signUp(t, "owner@example.com", true)

	rec := ts.do(t, http.MethodPost, "/admin/new", url.Values{"title": {"  "}, "content": {"body"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "post title is required")
}

func TestCheckPostLength_CountsCharacters(t *testing.T) {
	assert.NoError(t, checkPostLength(strings.Repeat("é", constants.MAX_POST_LENGTH)))

	err := checkPostLength(strings.Repeat("é", constants.MAX_POST_LENGTH+1))
	assert.ErrorIs(t, err, database.ErrInvalid)
	assert.ErrorContains(t, err, fmt.Sprintf("it is %d characters long", constants.MAX_POST_LENGTH+1))
}

func TestAdmin_ListFilters(t *testing.T) {
	ts := newTestSite(t)
	_, cookie := ts.signUp(t, "owner@example.com", true)
	ts.createPost(t, "Garden notes", "tomatoes", false)
	ts.createPost(t, "Kitchen notes", "bread", true)

	body := ts.do(t, http.MethodGet, "/admin", nil, cookie).Body.String()
	assert.Contains(t, body, "Garden notes")
	assert.Contains(t, body, "Kitchen notes")

	body = ts.do(t, http.MethodGet, "/admin?status=draft", nil, cookie).Body.String()
	assert.NotContains(t, body, "Garden notes")
	assert.Contains(t, body, "Kitchen notes")

	body = ts.do(t, http.MethodGet, "/admin?q=TOMATO", nil, cookie).Body.String()
	assert.Contains(t, body, "Garden notes")
	assert.NotContains(t, body, "Kitchen notes")
}

func TestViewPost_NotFoundAndDrafts(t *testing.T) {
	ts := newTestSite(t)
	_, admin := ts.signUp(t, "owner@example.com", true)
	draft := ts.createPost(t, "Hidden", "<p>wip</p>", true)

	rec := ts.do(t, http.MethodGet, "/post/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not found")

	rec = ts.do(t, http.MethodGet, "/post/"+draft.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/post/"+draft.ID+"/hidden", nil, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Draft")
}

func TestViewPost_SanitizesContent(t *testing.T) {
	ts := newTestSite(t)
	post := ts.createPost(t, "Tricky", `<p>hi</p><script>alert(1)</script><a href="javascript:alert(2)">x</a>`, false)

	rec := ts.do(t, http.MethodGet, "/post/"+post.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<p>hi</p>")
	assert.NotContains(t, body, "alert(1)")
	assert.NotContains(t, body, "javascript:")
}

func TestViewPost_AdjacentLinks(t *testing.T) {
	ts := newTestSite(t)
	first := ts.createPost(t, "First", "a", false)
	ts.createPost(t, "Skipped draft", "b", true)
	second := ts.createPost(t, "Second", "c", false)
	third := ts.createPost(t, "Third", "d", false)

	body := ts.do(t, http.MethodGet, "/post/"+second.ID, nil).Body.String()
	assert.Contains(t, body, postURL(first))
	assert.Contains(t, body, postURL(third))
	assert.NotContains(t, body, "Skipped draft")

	body = ts.do(t, http.MethodGet, "/post/"+first.ID, nil).Body.String()
	assert.Contains(t, body, postURL(second))
	assert.NotContains(t, body, postURL(third))
}

func TestComments(t *testing.T) {
	ts := newTestSite(t)
	ctx := context.Background()
	post := ts.createPost(t, "Talk to me", "<p>hi</p>", false)
	reader, cookie := ts.signUp(t, "reader@example.com", false)
	_, admin := ts.signUp(t, "owner@example.com", true)

	rec := ts.do(t, http.MethodPost, "/post/"+post.ID+"/comments", url.Values{"content": {"First!"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, postURL(post), rec.Header().Get("Location"))
	assert.Equal(t, "success:Comment added!", flashFrom(rec))

	rec = ts.do(t, http.MethodPost, "/post/"+post.ID+"/comments", url.Values{"author": {"Impostor"}, "content": {"Second"}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = ts.do(t, http.MethodPost, "/post/"+post.ID+"/comments", url.Values{"content": {"   "}})
	assert.Equal(t, "error:A comment cannot be empty.", flashFrom(rec))

	comments, err := ts.store.QueryComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, constants.ANONYMOUS_AUTHOR, comments[0].Author)
	assert.Equal(t, reader.DisplayName(), comments[1].Author)

	body := ts.do(t, http.MethodGet, "/post/"+post.ID, nil).Body.String()
	assert.Less(t, strings.Index(body, "First!"), strings.Index(body, "Second"))

	deletePath := "/post/" + post.ID + "/comments/" + comments[0].ID + "/delete"
	rec = ts.do(t, http.MethodPost, deletePath, nil, cookie)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))

	rec = ts.do(t, http.MethodPost, deletePath, nil, admin)
	assert.Equal(t, "success:Comment deleted.", flashFrom(rec))

	comments, err = ts.store.QueryComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestSignUpSignInAndLogout(t *testing.T) {
	ts := newTestSite(t)

	rec := ts.do(t, http.MethodPost, "/signup", url.Values{
		"email": {"new@example.com"}, "password": {"secret1"}, "confirm": {"secret2"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.ErrPasswordMismatch.Error())

	long := strings.Repeat("x", 73)
	rec = ts.do(t, http.MethodPost, "/signup", url.Values{
		"email": {"new@example.com"}, "password": {long}, "confirm": {long},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.ErrPasswordTooLong.Error())

	rec = ts.do(t, http.MethodPost, "/signup", url.Values{
		"email": {"new@example.com"}, "password": {"secret1"}, "confirm": {"secret1"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/settings", rec.Header().Get("Location"))

	rec = ts.do(t, http.MethodPost, "/signin", url.Values{"email": {"new@example.com"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.ErrInvalidCredentials.Error())

	rec = ts.do(t, http.MethodPost, "/signin", url.Values{"email": {"new@example.com"}, "password": {"secret1"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	var session *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == constants.SESSION_COOKIE_NAME {
			session = cookie
		}
	}
	require.NotNil(t, session)

	body := ts.do(t, http.MethodGet, "/", nil, session).Body.String()
	assert.Contains(t, body, "Signed in as new@example.com")

	rec = ts.do(t, http.MethodPost, "/logout", nil, session)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	body = ts.do(t, http.MethodGet, "/", nil, session).Body.String()
	assert.NotContains(t, body, "Signed in as")
}

func TestUpdateSettings(t *testing.T) {
	ts := newTestSite(t)
	reader, cookie := ts.signUp(t, "reader@example.com", false)
	_, admin := ts.signUp(t, "owner@example.com", true)

	rec := ts.do(t, http.MethodPost, "/settings", url.Values{"action": {"username"}, "username": {"mira"}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	profile, err := ts.store.GetProfile(context.Background(), reader.UID)
	require.NoError(t, err)
	assert.Equal(t, "mira", profile.Username)

	rec = ts.do(t, http.MethodPost, "/settings", url.Values{"action": {"password"}, "password": {"123"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(t, http.MethodPost, "/settings", url.Values{"action": {"password"}, "password": {strings.Repeat("x", 73)}}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.ErrPasswordTooLong.Error())

	rec = ts.do(t, http.MethodPost, "/settings", url.Values{"action": {"editor"}, "font": {"arial"}, "size": {"large"}}, cookie)
	assert.Equal(t, "/unauthorized", rec.Header().Get("Location"))

	rec = ts.do(t, http.MethodPost, "/settings", url.Values{"action": {"editor"}, "font": {"arial"}, "size": {"large"}}, admin)
	assert.Equal(t, "success:Editor defaults saved!", flashFrom(rec))

	body := ts.do(t, http.MethodGet, "/admin/new", nil, admin).Body.String()
	assert.Contains(t, body, "ql-font-arial ql-size-large")
}

func TestAPIFeed(t *testing.T) {
	ts := newTestSite(t)
	for _, title := range []string{"A", "B", "C", "D"} {
		ts.createPost(t, title, "<p>x</p><script>bad()</script>", false)
	}
	ts.createPost(t, "Draft", "", true)

	rec := ts.do(t, http.MethodGet, "/api/v1/feed", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var partition feed.Partition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &partition))
	require.Len(t, partition.Recent, 3)
	require.Len(t, partition.Archive, 1)
	assert.Equal(t, "D", partition.Recent[0].Title)
	assert.Equal(t, "A", partition.Archive[0].Title)
	assert.NotContains(t, partition.Recent[0].Content, "script")
}

func TestAPIAdjacent(t *testing.T) {
	ts := newTestSite(t)
	first := ts.createPost(t, "First", "a", false)
	second := ts.createPost(t, "Second", "b", false)
	hidden := ts.createPost(t, "Hidden", "c", true)

	rec := ts.do(t, http.MethodGet, "/api/v1/posts/"+first.ID+"/adjacent", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var adjacent feed.Adjacent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &adjacent))
	assert.Nil(t, adjacent.Previous)
	require.NotNil(t, adjacent.Next)
	assert.Equal(t, second.ID, adjacent.Next.ID)

	rec = ts.do(t, http.MethodGet, "/api/v1/posts/"+hidden.ID+"/adjacent", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlashIsShownOnce(t *testing.T) {
	rec := httptest.NewRecorder()
	setFlash(rec, "error", "Something broke: try again")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range rec.Result().Cookies() {
		req.AddCookie(cookie)
	}

	out := httptest.NewRecorder()
	flash := popFlash(out, req)
	require.NotNil(t, flash)
	assert.Equal(t, "Something broke: try again", flash.Message)
	assert.EqualValues(t, "error", flash.Kind)

	cleared := out.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)
}
