// Package site serves the blog over HTTP: the public pages, the comment
// thread, account pages, the admin dashboard and a small JSON API.
package site

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"twoblog/auth"
	"twoblog/config"
	"twoblog/constants"
	"twoblog/database"
	"twoblog/markup"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

const defaultAbout = "This is a small personal blog. Set `about_file` to a markdown file to replace this text."

type Site struct {
	cfg       config.Config
	store     *database.Store
	identity  *auth.Identity
	sanitizer *markup.Sanitizer
	logger    *zap.Logger
	now       func() time.Time
	aboutHTML string
}

type Option func(*Site)

// WithClock sets the clock used for relative dates on rendered pages.
func WithClock(now func() time.Time) Option {
	return func(s *Site) {
		s.now = now
	}
}

func New(cfg config.Config, store *database.Store, identity *auth.Identity, logger *zap.Logger, opts ...Option) (*Site, error) {
	s := &Site{
		cfg:       cfg,
		store:     store,
		identity:  identity,
		sanitizer: markup.NewSanitizer(),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	about := []byte(defaultAbout)
	if cfg.AboutFile != "" {
		var err error
		about, err = os.ReadFile(cfg.AboutFile)
		if err != nil {
			return nil, fmt.Errorf("read about file: %w", err)
		}
	}
	s.aboutHTML = s.sanitizer.Sanitize(string(markup.Markdown(about)))

	return s, nil
}

func (s *Site) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	if s.cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.LimitByIP(s.cfg.RateLimitPerMinute, time.Minute)) // shared across all routes
	}
	r.Use(middleware.Recoverer)
	r.Use(s.TryPutUserInContextMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.notFound(w, r, "There is nothing at this address.")
	})

	r.Get("/", s.Home)
	r.Get("/about", s.About)
	r.Get("/unauthorized", s.Unauthorized)

	r.Route("/post/{postID}", func(r chi.Router) {
		r.Get("/", s.ViewPost)
		r.Get("/{slug}", s.ViewPost)
		r.Post("/comments", s.AddComment)
		r.With(s.AdminOnlyMiddleware).Post("/comments/{commentID}/delete", s.DeleteComment)
	})

	r.Get("/signin", s.SignInForm)
	r.With(httprate.LimitByIP(constants.SIGNIN_RATE_LIMIT, time.Minute)).Post("/signin", s.SignIn)
	r.Get("/signup", s.SignUpForm)
	r.Post("/signup", s.SignUp)
	r.Post("/logout", s.Logout)

	r.With(s.AuthProtectedMiddleware).Route("/settings", func(r chi.Router) {
		r.Get("/", s.SettingsForm)
		r.Post("/", s.UpdateSettings)
	})

	r.With(s.AdminOnlyMiddleware).Route("/admin", func(r chi.Router) {
		r.Get("/", s.AdminPostList)

		r.Get("/new", s.NewPostForm)
		r.Post("/new", s.CreatePost)
		r.Get("/post/{postID}", s.EditPostForm)
		r.Post("/post/{postID}", s.UpdatePost)
		r.Post("/post/{postID}/delete", s.DeletePost)
		r.Post("/post/{postID}/publish", s.SetPublished)

		r.Get("/import", s.ImportForm)
		r.Post("/import", s.ImportPosts)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CorsAllowedOrigins,
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))

		r.Get("/feed", s.APIFeed)
		r.Get("/posts/{postID}/adjacent", s.APIAdjacent)
	})

	return r
}
