package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SortOrder int

const (
	Descending SortOrder = iota
	Ascending
)

// PostQuery narrows QueryPosts. Nil pointers mean "no constraint" and a
// Limit of zero means no limit.
type PostQuery struct {
	Order  SortOrder
	Limit  int
	Draft  *bool
	DateGT *time.Time
	DateLT *time.Time
}

type PostFields struct {
	Title   string
	Content string
	Author  string
	Draft   bool
}

type CommentFields struct {
	Author  string
	Content string
}

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

type Option func(*Store)

// WithClock replaces the clock used to stamp new posts and comments.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transaction runs fn against a store bound to a single transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, now: s.now})
	})
}

func (s *Store) stamp() time.Time {
	return s.now().UTC()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Store) QueryPosts(ctx context.Context, q PostQuery) ([]Post, error) {
	tx := s.db.WithContext(ctx).Model(&Post{})
	if q.Draft != nil {
		tx = tx.Where("draft = ?", *q.Draft)
	}
	if q.DateGT != nil {
		tx = tx.Where("date > ?", q.DateGT.UTC())
	}
	if q.DateLT != nil {
		tx = tx.Where("date < ?", q.DateLT.UTC())
	}

	// id is the secondary order for posts sharing a timestamp
	if q.Order == Ascending {
		tx = tx.Order("date ASC").Order("id ASC")
	} else {
		tx = tx.Order("date DESC").Order("id DESC")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var posts []Post
	if err := tx.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	return posts, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*Post, error) {
	var post Post
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, notFound(err))
	}
	return &post, nil
}

func (s *Store) CreatePost(ctx context.Context, fields PostFields) (*Post, error) {
	post := Post{
		Title:   fields.Title,
		Content: fields.Content,
		Author:  fields.Author,
		Draft:   fields.Draft,
	}
	if err := s.InsertPost(ctx, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// InsertPost stores post as given, filling in the id and date when they are
// empty. Imports use it to keep the original publication date.
func (s *Store) InsertPost(ctx context.Context, post *Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Date.IsZero() {
		post.Date = s.stamp()
	}
	post.Date = post.Date.UTC()

	if err := post.Validate(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// UpdatePost rewrites the editable fields of a post. The draft flag is left
// alone, see SetDraft.
func (s *Store) UpdatePost(ctx context.Context, id string, fields PostFields) (*Post, error) {
	candidate := Post{ID: id, Title: fields.Title}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&Post{}).Where("id = ?", id).Updates(map[string]any{
		"title":   fields.Title,
		"content": fields.Content,
		"author":  fields.Author,
	})
	if result.Error != nil {
		return nil, fmt.Errorf("update post %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("update post %s: %w", id, ErrNotFound)
	}

	return s.GetPost(ctx, id)
}

func (s *Store) SetDraft(ctx context.Context, id string, draft bool) error {
	result := s.db.WithContext(ctx).Model(&Post{}).Where("id = ?", id).Update("draft", draft)
	if result.Error != nil {
		return fmt.Errorf("set draft on post %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("set draft on post %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Post{})
	if result.Error != nil {
		return fmt.Errorf("delete post %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete post %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) QueryComments(ctx context.Context, postID string) ([]Comment, error) {
	var comments []Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("date ASC").Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("query comments for post %s: %w", postID, err)
	}
	return comments, nil
}

func (s *Store) CreateComment(ctx context.Context, postID string, fields CommentFields) (*Comment, error) {
	comment := Comment{
		ID:      uuid.NewString(),
		PostID:  postID,
		Author:  fields.Author,
		Content: fields.Content,
		Date:    s.stamp(),
	}
	if err := comment.Validate(); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment on post %s: %w", postID, err)
	}
	return &comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, postID, commentID string) error {
	result := s.db.WithContext(ctx).Where("post_id = ? AND id = ?", postID, commentID).Delete(&Comment{})
	if result.Error != nil {
		return fmt.Errorf("delete comment %s: %w", commentID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete comment %s: %w", commentID, ErrNotFound)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, uid string) (*UserProfile, error) {
	var profile UserProfile
	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", uid, notFound(err))
	}
	return &profile, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*UserProfile, error) {
	var profile UserProfile
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("get profile by email: %w", notFound(err))
	}
	return &profile, nil
}

func (s *Store) GetProfileBySessionToken(ctx context.Context, token string) (*UserProfile, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	var profile UserProfile
	err := s.db.WithContext(ctx).Where("session_token = ?", token).First(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("get profile by session: %w", notFound(err))
	}
	return &profile, nil
}

func (s *Store) CreateProfile(ctx context.Context, profile *UserProfile) error {
	if profile.UID == "" {
		profile.UID = uuid.NewString()
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *Store) SaveProfile(ctx context.Context, profile *UserProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("save profile %s: %w", profile.UID, err)
	}
	return nil
}
