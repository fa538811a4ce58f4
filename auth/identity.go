// Package auth is the identity side of the site: email/password accounts,
// session tokens, the admin allow-list and the hub that announces sign-ins
// and sign-outs to the rest of the process.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"

	"twoblog/constants"
	"twoblog/database"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrMissingEmail       = errors.New("email is required")
	ErrNotAdmin           = errors.New("only admins can change this setting")
	ErrInvalidPreference  = errors.New("unknown editor preference")
)

const (
	minPasswordLength = 6
	// bcrypt only looks at the first 72 bytes and refuses anything longer
	maxPasswordBytes  = 72
)

type ProfileStore interface {
	GetProfile(ctx context.Context, uid string) (*database.UserProfile, error)
	GetProfileByEmail(ctx context.Context, email string) (*database.UserProfile, error)
	GetProfileBySessionToken(ctx context.Context, token string) (*database.UserProfile, error)
	CreateProfile(ctx context.Context, profile *database.UserProfile) error
	SaveProfile(ctx context.Context, profile *database.UserProfile) error
}

type Identity struct {
	store ProfileStore
	roles *Roles
	hub   *Hub
}

func NewIdentity(store ProfileStore, roles *Roles, hub *Hub) *Identity {
	return &Identity{store: store, roles: roles, hub: hub}
}

func (id *Identity) Roles() *Roles {
	return id.roles
}

func (id *Identity) Hub() *Hub {
	return id.hub
}

func (id *Identity) IsAdmin(profile *database.UserProfile) bool {
	return profile != nil && id.roles.IsAdmin(profile.UID)
}

func generateAuthToken() (string, error) {
	const tokenLength = 32
	tokenBytes := make([]byte, tokenLength)
	_, err := rand.Read(tokenBytes)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(tokenBytes), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkNewPassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrWeakPassword
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// SignUp creates an account and signs it in, returning the new session
// token.
func (id *Identity) SignUp(ctx context.Context, email, password, confirm string) (*database.UserProfile, string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, "", ErrMissingEmail
	}
	if password != confirm {
		return nil, "", ErrPasswordMismatch
	}
	if err := checkNewPassword(password); err != nil {
		return nil, "", err
	}

	_, err := id.store.GetProfileByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", ErrEmailTaken
	case !errors.Is(err, database.ErrNotFound):
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	token, err := generateAuthToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate session token: %w", err)
	}

	profile := &database.UserProfile{
		Email:        email,
		PasswordHash: hash,
		SessionToken: &token,
	}
	if err := profile.SetEditor(database.EditorDefaults{
		Font: constants.DEFAULT_EDITOR_FONT,
		Size: constants.DEFAULT_EDITOR_SIZE,
	}); err != nil {
		return nil, "", err
	}
	if err := id.store.CreateProfile(ctx, profile); err != nil {
		return nil, "", err
	}

	id.hub.Publish(Event{Kind: SignedUp, UID: profile.UID, Username: profile.DisplayName()})
	return profile, token, nil
}

func (id *Identity) SignIn(ctx context.Context, email, password string) (*database.UserProfile, string, error) {
	profile, err := id.store.GetProfileByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword(profile.PasswordHash, []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := generateAuthToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate session token: %w", err)
	}
	profile.SessionToken = &token
	if err := id.store.SaveProfile(ctx, profile); err != nil {
		return nil, "", err
	}

	id.hub.Publish(Event{Kind: SignedIn, UID: profile.UID, Username: profile.DisplayName()})
	return profile, token, nil
}

func (id *Identity) SignOut(ctx context.Context, profile *database.UserProfile) error {
	if profile == nil {
		return nil
	}

	profile.SessionToken = nil
	if err := id.store.SaveProfile(ctx, profile); err != nil {
		return err
	}

	id.hub.Publish(Event{Kind: SignedOut, UID: profile.UID, Username: profile.DisplayName()})
	return nil
}

// CurrentUser resolves a session token. Unknown or empty tokens yield
// database.ErrNotFound.
func (id *Identity) CurrentUser(ctx context.Context, token string) (*database.UserProfile, error) {
	return id.store.GetProfileBySessionToken(ctx, token)
}

func (id *Identity) ChangePassword(ctx context.Context, profile *database.UserProfile, password string) error {
	if err := checkNewPassword(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	profile.PasswordHash = hash
	return id.store.SaveProfile(ctx, profile)
}

func (id *Identity) ChangeUsername(ctx context.Context, profile *database.UserProfile, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", database.ErrInvalid)
	}

	profile.Username = username
	return id.store.SaveProfile(ctx, profile)
}

// UpdateEditorDefaults stores the font and size the post editor starts
// with. Only admins write posts, so only admins may set them.
func (id *Identity) UpdateEditorDefaults(ctx context.Context, profile *database.UserProfile, defaults database.EditorDefaults) error {
	if !id.IsAdmin(profile) {
		return ErrNotAdmin
	}
	if !slices.Contains(constants.EDITOR_FONTS, defaults.Font) || !slices.Contains(constants.EDITOR_SIZES, defaults.Size) {
		return ErrInvalidPreference
	}

	if err := profile.SetEditor(defaults); err != nil {
		return err
	}
	return id.store.SaveProfile(ctx, profile)
}
