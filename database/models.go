package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"twoblog/constants"

	"gorm.io/datatypes"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrInvalid  = errors.New("invalid record")
)

// Post is one blog entry. Date is assigned by the store when the post is
// created and is the only thing that orders posts.
type Post struct {
	ID      string    `gorm:"primaryKey;size:36" json:"id"`
	Title   string    `gorm:"not null" json:"title"`
	Content string    `gorm:"type:text" json:"content"`
	Author  string    `json:"author"`
	Date    time.Time `gorm:"index;not null" json:"date"`
	Draft   bool      `gorm:"index" json:"draft"`
}

func (p *Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: post title is required", ErrInvalid)
	}
	return nil
}

type Comment struct {
	ID      string    `gorm:"primaryKey;size:36" json:"id"`
	PostID  string    `gorm:"index;not null;size:36" json:"post_id"`
	Author  string    `json:"author"`
	Content string    `gorm:"type:text" json:"content"`
	Date    time.Time `gorm:"index;not null" json:"date"`
}

func (c *Comment) Validate() error {
	if c.PostID == "" {
		return fmt.Errorf("%w: comment must belong to a post", ErrInvalid)
	}
	if strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("%w: comment content is required", ErrInvalid)
	}
	return nil
}

type UserProfile struct {
	UID            string         `gorm:"primaryKey;size:36"`
	Username       string         `gorm:"not null"`
	Email          string         `gorm:"uniqueIndex;not null"`
	PasswordHash   []byte         `gorm:"not null"`
	SessionToken   *string        `gorm:"uniqueIndex"`
	EditorDefaults datatypes.JSON `gorm:"type:json"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DisplayName falls back to the email for profiles that never set a
// username.
func (u *UserProfile) DisplayName() string {
	if strings.TrimSpace(u.Username) != "" {
		return u.Username
	}
	return u.Email
}

func (u *UserProfile) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}
	if len(u.PasswordHash) == 0 {
		return fmt.Errorf("%w: password hash is required", ErrInvalid)
	}
	return nil
}

type EditorDefaults struct {
	Font string `json:"font"`
	Size string `json:"size"`
}

func (u *UserProfile) Editor() EditorDefaults {
	defaults := EditorDefaults{Font: constants.DEFAULT_EDITOR_FONT, Size: constants.DEFAULT_EDITOR_SIZE}
	if len(u.EditorDefaults) == 0 {
		return defaults
	}

	var stored EditorDefaults
	if err := json.Unmarshal(u.EditorDefaults, &stored); err != nil {
		return defaults
	}
	if stored.Font != "" {
		defaults.Font = stored.Font
	}
	if stored.Size != "" {
		defaults.Size = stored.Size
	}
	return defaults
}

func (u *UserProfile) SetEditor(defaults EditorDefaults) error {
	raw, err := json.Marshal(defaults)
	if err != nil {
		return err
	}
	u.EditorDefaults = datatypes.JSON(raw)
	return nil
}
