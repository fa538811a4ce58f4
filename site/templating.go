package site

import (
	"net/http"
	"net/url"
	"strings"

	"twoblog/constants"
	"twoblog/templates"

	g "github.com/maragudk/gomponents"
	"go.uber.org/zap"
)

// layoutProps must run before anything is written to w, since it may clear
// the flash cookie.
func (s *Site) layoutProps(w http.ResponseWriter, r *http.Request, title string) templates.LayoutProps {
	props := templates.LayoutProps{
		Title:    title,
		SiteName: s.cfg.SiteName,
		Flash:    popFlash(w, r),
	}

	if profile := getSignedInUserOrNil(r); profile != nil {
		props.CurrentUser = profile.DisplayName()
		props.IsAdmin = s.identity.IsAdmin(profile)
	}

	return props
}

func (s *Site) render(w http.ResponseWriter, status int, page g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := page.Render(w); err != nil {
		s.logger.Error("render page", zap.Error(err))
	}
}

func (s *Site) notFound(w http.ResponseWriter, r *http.Request, message string) {
	s.render(w, http.StatusNotFound, templates.NotFoundPage(s.layoutProps(w, r, "Not found"), message))
}

func (s *Site) serverError(w http.ResponseWriter, r *http.Request, message string, err error) {
	s.logger.Error(message, zap.Error(err), zap.String("path", r.URL.Path))
	s.render(w, http.StatusInternalServerError, templates.ErrorPage(s.layoutProps(w, r, "Error"), message))
}

// Flash messages survive exactly one redirect: they are set right before it
// and removed by the next page that renders them.
func setFlash(w http.ResponseWriter, kind templates.FlashKind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.FLASH_COOKIE_NAME,
		Value:    url.QueryEscape(string(kind) + ":" + message),
		Path:     "/",
		MaxAge:   int(constants.FLASH_TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request) *templates.Flash {
	cookie, err := r.Cookie(constants.FLASH_COOKIE_NAME)
	if err != nil || cookie.Value == "" {
		return nil
	}
	clearCookie(w, constants.FLASH_COOKIE_NAME)

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(raw, ":")
	if !ok || message == "" {
		return nil
	}

	flash := &templates.Flash{Kind: templates.FlashSuccess, Message: message}
	if templates.FlashKind(kind) == templates.FlashError {
		flash.Kind = templates.FlashError
	}
	return flash
}

func (s *Site) redirectWithFlash(w http.ResponseWriter, r *http.Request, to string, kind templates.FlashKind, message string) {
	setFlash(w, kind, message)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
