package site

import (
	"encoding/json"
	"errors"
	"net/http"

	"twoblog/database"
	"twoblog/feed"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (s *Site) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}

func (s *Site) writeJSONError(w http.ResponseWriter, status int) {
	s.writeJSON(w, status, map[string]string{"error": http.StatusText(status)})
}

func (s *Site) sanitizedPosts(posts []database.Post) []database.Post {
	for i := range posts {
		posts[i].Content = s.sanitizer.Sanitize(posts[i].Content)
	}
	return posts
}

func (s *Site) APIFeed(w http.ResponseWriter, r *http.Request) {
	partition, err := s.publishedFeed(r.Context())
	if err != nil {
		s.logger.Error("load api feed", zap.Error(err))
		s.writeJSONError(w, http.StatusInternalServerError)
		return
	}

	partition.Recent = s.sanitizedPosts(partition.Recent)
	partition.Archive = s.sanitizedPosts(partition.Archive)
	s.writeJSON(w, http.StatusOK, partition)
}

// APIAdjacent only answers for published posts.
func (s *Site) APIAdjacent(w http.ResponseWriter, r *http.Request) {
	post, err := s.store.GetPost(r.Context(), chi.URLParam(r, "postID"))
	if errors.Is(err, database.ErrNotFound) || (err == nil && post.Draft) {
		s.writeJSONError(w, http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("load post for api", zap.Error(err))
		s.writeJSONError(w, http.StatusInternalServerError)
		return
	}

	adjacent, err := feed.FindAdjacent(r.Context(), s.store, post)
	if err != nil {
		s.logger.Error("load adjacent posts for api", zap.String("post", post.ID), zap.Error(err))
		s.writeJSONError(w, http.StatusInternalServerError)
		return
	}

	if adjacent.Previous != nil {
		adjacent.Previous.Content = s.sanitizer.Sanitize(adjacent.Previous.Content)
	}
	if adjacent.Next != nil {
		adjacent.Next.Content = s.sanitizer.Sanitize(adjacent.Next.Content)
	}
	s.writeJSON(w, http.StatusOK, adjacent)
}
