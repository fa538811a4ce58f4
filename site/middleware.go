package site

import (
	"context"
	"errors"
	"net/http"

	"twoblog/constants"
	"twoblog/database"

	"go.uber.org/zap"
)

type contextKey string

const currentUserKey = contextKey("current_user")

func getSignedInUserOrNil(r *http.Request) *database.UserProfile {
	profile, _ := r.Context().Value(currentUserKey).(*database.UserProfile)
	return profile
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SESSION_COOKIE_NAME,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func (s *Site) TryPutUserInContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(constants.SESSION_COOKIE_NAME)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		profile, err := s.identity.CurrentUser(r.Context(), cookie.Value)
		if err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				s.logger.Error("resolve session", zap.Error(err))
			}
			clearCookie(w, constants.SESSION_COOKIE_NAME)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), currentUserKey, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Site) AuthProtectedMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if getSignedInUserOrNil(r) == nil {
			http.Redirect(w, r, "/signin", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminOnlyMiddleware sends everyone who is not on the admin list, signed in
// or not, to the access denied page.
func (s *Site) AdminOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile := getSignedInUserOrNil(r)
		if !s.identity.IsAdmin(profile) {
			if profile != nil {
				s.logger.Info("admin route refused", zap.String("uid", profile.UID), zap.String("path", r.URL.Path))
			}
			http.Redirect(w, r, "/unauthorized", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
