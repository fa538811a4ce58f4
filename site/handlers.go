package site

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"twoblog/constants"
	"twoblog/database"
	"twoblog/feed"
	"twoblog/templates"

	"github.com/go-chi/chi/v5"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func postURL(post *database.Post) string {
	if s := slug.Make(post.Title); s != "" {
		return "/post/" + post.ID + "/" + s
	}
	return "/post/" + post.ID
}

func (s *Site) teaser(content string) string {
	return s.sanitizer.Sanitize(feed.Teaser(content, s.cfg.TeaserLength))
}

func (s *Site) postCard(post database.Post, now time.Time) templates.PostCard {
	return templates.PostCard{
		ID:         post.ID,
		Title:      post.Title,
		URL:        postURL(&post),
		Author:     post.Author,
		DateText:   feed.FormatDate(post.Date, now),
		TeaserHTML: s.teaser(post.Content),
	}
}

func (s *Site) publishedFeed(ctx context.Context) (feed.Partition, error) {
	published := false
	posts, err := s.store.QueryPosts(ctx, database.PostQuery{
		Order: database.Descending,
		Limit: s.cfg.FeedLimit,
		Draft: &published,
	})
	if err != nil {
		return feed.Partition{}, err
	}
	return feed.PartitionRecentAndArchive(posts, s.cfg.RecentCount), nil
}

func (s *Site) Home(w http.ResponseWriter, r *http.Request) {
	props := s.layoutProps(w, r, "")
	now := s.now()

	var data templates.HomeData
	partition, err := s.publishedFeed(r.Context())
	if err != nil {
		s.logger.Error("load home feed", zap.Error(err))
		data.LoadError = "Posts could not be loaded right now. Please try again later."
	}

	for _, post := range partition.Recent {
		data.Recent = append(data.Recent, s.postCard(post, now))
	}
	for _, post := range partition.Archive {
		data.Archive = append(data.Archive, s.postCard(post, now))
	}

	s.render(w, http.StatusOK, templates.HomePage(props, data))
}

func (s *Site) About(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, templates.AboutPage(s.layoutProps(w, r, "About"), s.aboutHTML))
}

func (s *Site) Unauthorized(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusForbidden, templates.UnauthorizedPage(s.layoutProps(w, r, "Access denied")))
}

// loadVisiblePost returns the post unless it is missing or is a draft the
// viewer may not see, in which case the not found page has been written.
func (s *Site) loadVisiblePost(w http.ResponseWriter, r *http.Request) (*database.Post, bool) {
	post, err := s.store.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if errors.Is(err, database.ErrNotFound) {
		s.notFound(w, r, "This post does not exist or has been removed.")
		return nil, false
	}
	if err != nil {
		s.serverError(w, r, "This post could not be loaded.", err)
		return nil, false
	}

	if post.Draft && !s.identity.IsAdmin(getSignedInUserOrNil(r)) {
		s.notFound(w, r, "This post does not exist or has been removed.")
		return nil, false
	}

	return post, true
}

func (s *Site) ViewPost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.loadVisiblePost(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	viewer := getSignedInUserOrNil(r)
	now := s.now()

	// Adjacency and comments fail independently: each keeps its own error
	// and the group is only used to wait for both.
	var (
		adjacent    feed.Adjacent
		comments    []database.Comment
		adjacentErr error
		commentsErr error
	)
	var group errgroup.Group
	group.Go(func() error {
		adjacent, adjacentErr = feed.FindAdjacent(ctx, s.store, post)
		return nil
	})
	group.Go(func() error {
		comments, commentsErr = s.store.QueryComments(ctx, post.ID)
		return nil
	})
	_ = group.Wait()

	data := templates.PostPageData{
		ID:          post.ID,
		Title:       post.Title,
		Author:      post.Author,
		DateText:    feed.FormatDate(post.Date, now),
		ContentHTML: s.sanitizer.Sanitize(post.Content),
		Draft:       post.Draft,
		CanModerate: s.identity.IsAdmin(viewer),
	}
	if viewer != nil {
		data.CommentAuthor = viewer.DisplayName()
	}

	if adjacentErr != nil {
		s.logger.Error("load adjacent posts", zap.String("post", post.ID), zap.Error(adjacentErr))
		data.AdjacentError = "Previous and next posts are unavailable."
	} else {
		if adjacent.Previous != nil {
			data.Previous = &templates.PostLink{Title: adjacent.Previous.Title, URL: postURL(adjacent.Previous)}
		}
		if adjacent.Next != nil {
			data.Next = &templates.PostLink{Title: adjacent.Next.Title, URL: postURL(adjacent.Next)}
		}
	}

	if commentsErr != nil {
		s.logger.Error("load comments", zap.String("post", post.ID), zap.Error(commentsErr))
		data.CommentsError = "Comments could not be loaded."
	}
	for _, comment := range comments {
		data.Comments = append(data.Comments, templates.CommentView{
			ID:       comment.ID,
			Author:   comment.Author,
			Content:  comment.Content,
			DateText: feed.FormatDate(comment.Date, now),
		})
	}

	s.render(w, http.StatusOK, templates.PostPage(s.layoutProps(w, r, post.Title), data))
}

// commentAuthor prefers the signed-in profile over whatever name was typed
// into the form.
func commentAuthor(viewer *database.UserProfile, typed string) string {
	if viewer != nil {
		return viewer.DisplayName()
	}
	if typed = strings.TrimSpace(typed); typed != "" {
		return typed
	}
	return constants.ANONYMOUS_AUTHOR
}

func (s *Site) AddComment(w http.ResponseWriter, r *http.Request) {
	post, ok := s.loadVisiblePost(w, r)
	if !ok {
		return
	}
	back := postURL(post)

	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		s.redirectWithFlash(w, r, back, templates.FlashError, "A comment cannot be empty.")
		return
	}
	if utf8.RuneCountInString(content) > constants.MAX_COMMENT_LENGTH {
		s.redirectWithFlash(w, r, back, templates.FlashError, "That comment is too long.")
		return
	}

	_, err := s.store.CreateComment(r.Context(), post.ID, database.CommentFields{
		Author:  commentAuthor(getSignedInUserOrNil(r), r.FormValue("author")),
		Content: content,
	})
	if err != nil {
		s.logger.Error("create comment", zap.String("post", post.ID), zap.Error(err))
		s.redirectWithFlash(w, r, back, templates.FlashError, "Your comment could not be saved. Please try again.")
		return
	}

	s.redirectWithFlash(w, r, back, templates.FlashSuccess, "Comment added!")
}

func (s *Site) DeleteComment(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	back := "/post/" + postID

	err := s.store.DeleteComment(r.Context(), postID, chi.URLParam(r, "commentID"))
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.redirectWithFlash(w, r, back, templates.FlashError, "That comment no longer exists.")
	case err != nil:
		s.logger.Error("delete comment", zap.String("post", postID), zap.Error(err))
		s.redirectWithFlash(w, r, back, templates.FlashError, "The comment could not be deleted.")
	default:
		s.redirectWithFlash(w, r, back, templates.FlashSuccess, "Comment deleted.")
	}
}
