package site

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"twoblog/constants"
	"twoblog/database"
	"twoblog/feed"
	"twoblog/importer"
	"twoblog/templates"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Site) AdminPostList(w http.ResponseWriter, r *http.Request) {
	props := s.layoutProps(w, r, "Admin")
	now := s.now()

	query := r.URL.Query()
	filter := feed.Filter{
		SearchTerm: query.Get("q"),
		Status:     feed.ParseStatus(query.Get("status")),
	}
	data := templates.AdminPostsData{
		SearchTerm: filter.SearchTerm,
		Status:     string(filter.Status),
	}

	posts, err := s.store.QueryPosts(r.Context(), database.PostQuery{Order: database.Descending})
	if err != nil {
		s.logger.Error("load admin post list", zap.Error(err))
		data.LoadError = "Posts could not be loaded right now."
	}

	for _, post := range feed.FilterPosts(posts, filter) {
		data.Rows = append(data.Rows, templates.AdminRow{
			ID:         post.ID,
			Title:      post.Title,
			Author:     post.Author,
			DateText:   feed.FormatDate(post.Date, now),
			Draft:      post.Draft,
			TeaserHTML: s.teaser(post.Content),
			ViewURL:    postURL(&post),
		})
	}

	s.render(w, http.StatusOK, templates.AdminPostsPage(props, data))
}

func checkPostLength(content string) error {
	if n := utf8.RuneCountInString(content); n > constants.MAX_POST_LENGTH {
		return fmt.Errorf("%w: the post must be at most %d characters, but it is %d characters long",
			database.ErrInvalid, constants.MAX_POST_LENGTH, n)
	}
	return nil
}

// postFormError maps a failed save to what the form shows. Validation
// problems are the author's to fix; anything else is a write failure.
func (s *Site) postFormError(err error) (int, string) {
	if errors.Is(err, database.ErrInvalid) {
		return http.StatusBadRequest, err.Error()
	}
	s.logger.Error("save post", zap.Error(err))
	return http.StatusInternalServerError, "The post could not be saved. Please try again."
}

func (s *Site) newPostData(profile *database.UserProfile) templates.PostFormData {
	editor := profile.Editor()
	return templates.PostFormData{
		Heading:     "New post",
		Action:      "/admin/new",
		Author:      profile.DisplayName(),
		ShowDraft:   true,
		SubmitLabel: "Create post",
		Font:        editor.Font,
		Size:        editor.Size,
	}
}

func (s *Site) NewPostForm(w http.ResponseWriter, r *http.Request) {
	data := s.newPostData(getSignedInUserOrNil(r))
	s.render(w, http.StatusOK, templates.PostFormPage(s.layoutProps(w, r, "New post"), data))
}

func (s *Site) CreatePost(w http.ResponseWriter, r *http.Request) {
	profile := getSignedInUserOrNil(r)
	fields := database.PostFields{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: r.FormValue("content"),
		Author:  profile.DisplayName(),
		Draft:   r.FormValue("draft") == "on",
	}

	err := checkPostLength(fields.Content)
	var post *database.Post
	if err == nil {
		post, err = s.store.CreatePost(r.Context(), fields)
	}
	if err != nil {
		status, message := s.postFormError(err)
		data := s.newPostData(profile)
		data.Title, data.Content, data.Draft, data.Error = fields.Title, fields.Content, fields.Draft, message
		s.render(w, status, templates.PostFormPage(s.layoutProps(w, r, "New post"), data))
		return
	}

	s.logger.Info("post created", zap.String("post", post.ID), zap.Bool("draft", post.Draft))
	s.redirectWithFlash(w, r, "/admin/post/"+post.ID, templates.FlashSuccess, "Post created successfully!")
}

func editPostData(post *database.Post, editor database.EditorDefaults) templates.PostFormData {
	return templates.PostFormData{
		Heading:     "Edit post",
		Action:      "/admin/post/" + post.ID,
		Title:       post.Title,
		Content:     post.Content,
		Author:      post.Author,
		Draft:       post.Draft,
		SubmitLabel: "Update post",
		Font:        editor.Font,
		Size:        editor.Size,
	}
}

func (s *Site) adminPostOrNotFound(w http.ResponseWriter, r *http.Request) (*database.Post, bool) {
	post, err := s.store.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if errors.Is(err, database.ErrNotFound) {
		s.notFound(w, r, "This post does not exist.")
		return nil, false
	}
	if err != nil {
		s.serverError(w, r, "This post could not be loaded.", err)
		return nil, false
	}
	return post, true
}

func (s *Site) EditPostForm(w http.ResponseWriter, r *http.Request) {
	post, ok := s.adminPostOrNotFound(w, r)
	if !ok {
		return
	}

	data := editPostData(post, getSignedInUserOrNil(r).Editor())
	s.render(w, http.StatusOK, templates.PostFormPage(s.layoutProps(w, r, "Edit post"), data))
}

func (s *Site) UpdatePost(w http.ResponseWriter, r *http.Request) {
	post, ok := s.adminPostOrNotFound(w, r)
	if !ok {
		return
	}

	fields := database.PostFields{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: r.FormValue("content"),
		Author:  post.Author,
	}

	err := checkPostLength(fields.Content)
	if err == nil {
		_, err = s.store.UpdatePost(r.Context(), post.ID, fields)
	}
	if errors.Is(err, database.ErrNotFound) {
		s.notFound(w, r, "This post does not exist.")
		return
	}
	if err != nil {
		status, message := s.postFormError(err)
		data := editPostData(post, getSignedInUserOrNil(r).Editor())
		data.Title, data.Content, data.Error = fields.Title, fields.Content, message
		s.render(w, status, templates.PostFormPage(s.layoutProps(w, r, "Edit post"), data))
		return
	}

	s.redirectWithFlash(w, r, "/admin/post/"+post.ID, templates.FlashSuccess, "Post updated successfully!")
}

func (s *Site) DeletePost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	err := s.store.DeletePost(r.Context(), postID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.redirectWithFlash(w, r, "/admin", templates.FlashError, "That post no longer exists.")
	case err != nil:
		s.logger.Error("delete post", zap.String("post", postID), zap.Error(err))
		s.redirectWithFlash(w, r, "/admin", templates.FlashError, "The post could not be deleted. Please try again.")
	default:
		s.logger.Info("post deleted", zap.String("post", postID))
		s.redirectWithFlash(w, r, "/admin", templates.FlashSuccess, "Post deleted.")
	}
}

// SetPublished flips a post between draft and published. The form sends the
// draft value the post should end up with.
func (s *Site) SetPublished(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	draft := r.FormValue("draft") == "true"

	err := s.store.SetDraft(r.Context(), postID, draft)
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.redirectWithFlash(w, r, "/admin", templates.FlashError, "That post no longer exists.")
	case err != nil:
		s.logger.Error("set draft", zap.String("post", postID), zap.Error(err))
		s.redirectWithFlash(w, r, "/admin", templates.FlashError, "The post could not be updated. Please try again.")
	case draft:
		s.redirectWithFlash(w, r, "/admin", templates.FlashSuccess, "Post moved back to drafts.")
	default:
		s.redirectWithFlash(w, r, "/admin", templates.FlashSuccess, "Post published!")
	}
}

func (s *Site) ImportForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, templates.ImportPage(s.layoutProps(w, r, "Import"), templates.ImportData{}))
}

func (s *Site) ImportPosts(w http.ResponseWriter, r *http.Request) {
	importFailed := func(status int, message string) {
		s.render(w, status, templates.ImportPage(s.layoutProps(w, r, "Import"), templates.ImportData{Error: message}))
	}

	r.Body = http.MaxBytesReader(w, r.Body, constants.MAX_IMPORT_BYTES)
	if err := r.ParseMultipartForm(constants.MAX_IMPORT_BYTES); err != nil {
		importFailed(http.StatusBadRequest, "Failed to read the upload: "+err.Error())
		return
	}

	file, _, err := r.FormFile("bear_export")
	if err != nil {
		importFailed(http.StatusBadRequest, "Choose a BearBlog CSV export to upload.")
		return
	}
	defer file.Close()

	profile := getSignedInUserOrNil(r)
	result, err := importer.Import(r.Context(), s.store, file, importer.Options{
		Author:    profile.DisplayName(),
		Overwrite: r.FormValue("overwrite_existing") == "on",
	})
	if err != nil {
		s.logger.Warn("import posts", zap.String("uid", profile.UID), zap.Error(err))
		importFailed(http.StatusBadRequest, "Nothing was imported: "+err.Error())
		return
	}

	s.logger.Info("posts imported",
		zap.Int("imported", result.Imported),
		zap.Int("replaced", result.Replaced),
		zap.Int("skipped", result.Skipped))
	s.redirectWithFlash(w, r, "/admin", templates.FlashSuccess, fmt.Sprintf(
		"Imported %d posts (%d replaced, %d skipped).", result.Imported, result.Replaced, result.Skipped))
}
