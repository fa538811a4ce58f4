package site

import (
	"errors"
	"net/http"

	"twoblog/auth"
	"twoblog/constants"
	"twoblog/database"
	"twoblog/templates"

	"go.uber.org/zap"
)

func (s *Site) landingFor(profile *database.UserProfile) string {
	if s.identity.IsAdmin(profile) {
		return "/admin"
	}
	return "/"
}

func (s *Site) SignInForm(w http.ResponseWriter, r *http.Request) {
	if profile := getSignedInUserOrNil(r); profile != nil {
		http.Redirect(w, r, s.landingFor(profile), http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, templates.SignInPage(s.layoutProps(w, r, "Sign in"), templates.CredentialsData{}))
}

func (s *Site) SignIn(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")

	profile, token, err := s.identity.SignIn(r.Context(), email, r.FormValue("password"))
	if err != nil {
		status := http.StatusUnauthorized
		message := auth.ErrInvalidCredentials.Error()
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Error("sign in", zap.Error(err))
			status = http.StatusInternalServerError
			message = "Signing in failed. Please try again."
		}
		s.render(w, status, templates.SignInPage(s.layoutProps(w, r, "Sign in"), templates.CredentialsData{
			Email: email,
			Error: message,
		}))
		return
	}

	setSessionCookie(w, token)
	s.redirectWithFlash(w, r, s.landingFor(profile), templates.FlashSuccess, "Welcome back, "+profile.DisplayName()+"!")
}

func (s *Site) SignUpForm(w http.ResponseWriter, r *http.Request) {
	if profile := getSignedInUserOrNil(r); profile != nil {
		http.Redirect(w, r, s.landingFor(profile), http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, templates.SignUpPage(s.layoutProps(w, r, "Sign up"), templates.CredentialsData{}))
}

func signUpRejection(err error) bool {
	return errors.Is(err, auth.ErrEmailTaken) ||
		errors.Is(err, auth.ErrPasswordMismatch) ||
		errors.Is(err, auth.ErrWeakPassword) ||
		errors.Is(err, auth.ErrPasswordTooLong) ||
		errors.Is(err, auth.ErrMissingEmail)
}

func (s *Site) SignUp(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")

	profile, token, err := s.identity.SignUp(r.Context(), email, r.FormValue("password"), r.FormValue("confirm"))
	if err != nil {
		status := http.StatusBadRequest
		message := err.Error()
		if !signUpRejection(err) {
			s.logger.Error("sign up", zap.Error(err))
			status = http.StatusInternalServerError
			message = "Your account could not be created. Please try again."
		}
		s.render(w, status, templates.SignUpPage(s.layoutProps(w, r, "Sign up"), templates.CredentialsData{
			Email: email,
			Error: message,
		}))
		return
	}

	setSessionCookie(w, token)
	s.redirectWithFlash(w, r, "/settings", templates.FlashSuccess, "Account created. Welcome, "+profile.DisplayName()+"!")
}

func (s *Site) Logout(w http.ResponseWriter, r *http.Request) {
	if profile := getSignedInUserOrNil(r); profile != nil {
		if err := s.identity.SignOut(r.Context(), profile); err != nil {
			s.logger.Error("sign out", zap.String("uid", profile.UID), zap.Error(err))
		}
	}

	clearCookie(w, constants.SESSION_COOKIE_NAME)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Site) settingsData(profile *database.UserProfile) templates.SettingsData {
	editor := profile.Editor()
	return templates.SettingsData{
		UID:      profile.UID,
		Email:    profile.Email,
		Username: profile.DisplayName(),
		IsAdmin:  s.identity.IsAdmin(profile),
		Font:     editor.Font,
		Size:     editor.Size,
	}
}

func (s *Site) SettingsForm(w http.ResponseWriter, r *http.Request) {
	profile := getSignedInUserOrNil(r)
	s.render(w, http.StatusOK, templates.SettingsPage(s.layoutProps(w, r, "Settings"), s.settingsData(profile)))
}

func (s *Site) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	profile := getSignedInUserOrNil(r)
	ctx := r.Context()

	var (
		err     error
		success string
	)
	switch r.FormValue("action") {
	case "username":
		err = s.identity.ChangeUsername(ctx, profile, r.FormValue("username"))
		success = "Username updated!"
	case "password":
		err = s.identity.ChangePassword(ctx, profile, r.FormValue("password"))
		success = "Password changed!"
	case "editor":
		err = s.identity.UpdateEditorDefaults(ctx, profile, database.EditorDefaults{
			Font: r.FormValue("font"),
			Size: r.FormValue("size"),
		})
		success = "Editor defaults saved!"
	default:
		http.Error(w, "Unknown settings action", http.StatusBadRequest)
		return
	}

	switch {
	case err == nil:
		s.redirectWithFlash(w, r, "/settings", templates.FlashSuccess, success)
	case errors.Is(err, auth.ErrNotAdmin):
		http.Redirect(w, r, "/unauthorized", http.StatusSeeOther)
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, auth.ErrInvalidPreference), errors.Is(err, database.ErrInvalid):
		data := s.settingsData(profile)
		data.Error = err.Error()
		s.render(w, http.StatusBadRequest, templates.SettingsPage(s.layoutProps(w, r, "Settings"), data))
	default:
		s.logger.Error("update settings", zap.String("uid", profile.UID), zap.Error(err))
		s.redirectWithFlash(w, r, "/settings", templates.FlashError, "Your settings could not be saved. Please try again.")
	}
}
