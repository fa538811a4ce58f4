// Package feed turns batches of posts fetched from the store into the views
// the site renders: the recent/archive split on the home page, previous and
// next links on a post page, the admin search filter, teasers and dates.
//
// Everything except FindAdjacent is a pure function of its arguments.
package feed

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"twoblog/constants"
	"twoblog/database"

	"github.com/dustin/go-humanize"
)

type Partition struct {
	Recent  []database.Post `json:"recent"`
	Archive []database.Post `json:"archive"`
}

// PartitionRecentAndArchive expects posts newest first, as returned by a
// date-descending store query. Drafts are dropped; the first recentCount
// remaining posts are recent and everything after them is archive.
func PartitionRecentAndArchive(posts []database.Post, recentCount int) Partition {
	if recentCount < 0 {
		recentCount = 0
	}

	_, published := SplitDrafts(posts)
	if len(published) <= recentCount {
		return Partition{Recent: published, Archive: []database.Post{}}
	}

	return Partition{
		Recent:  published[:recentCount:recentCount],
		Archive: published[recentCount:],
	}
}

// SplitDrafts partitions posts by their draft flag, keeping input order.
func SplitDrafts(posts []database.Post) (drafts, published []database.Post) {
	drafts = []database.Post{}
	published = []database.Post{}
	for _, post := range posts {
		if post.Draft {
			drafts = append(drafts, post)
		} else {
			published = append(published, post)
		}
	}
	return drafts, published
}

// PostQuerier is the slice of the store that adjacency lookups need.
type PostQuerier interface {
	QueryPosts(ctx context.Context, q database.PostQuery) ([]database.Post, error)
}

type Adjacent struct {
	Previous *database.Post `json:"previous"`
	Next     *database.Post `json:"next"`
}

// FindAdjacent returns the published posts immediately before and after
// post by date. Posts sharing post's exact timestamp are never returned;
// which of several same-instant neighbours wins is up to the store.
func FindAdjacent(ctx context.Context, q PostQuerier, post *database.Post) (Adjacent, error) {
	var adjacent Adjacent
	if post == nil {
		return adjacent, nil
	}

	published := false
	date := post.Date

	next, err := q.QueryPosts(ctx, database.PostQuery{
		Order:  database.Ascending,
		Limit:  1,
		Draft:  &published,
		DateGT: &date,
	})
	if err != nil {
		return Adjacent{}, err
	}
	if len(next) > 0 {
		adjacent.Next = &next[0]
	}

	previous, err := q.QueryPosts(ctx, database.PostQuery{
		Order:  database.Descending,
		Limit:  1,
		Draft:  &published,
		DateLT: &date,
	})
	if err != nil {
		return Adjacent{}, err
	}
	if len(previous) > 0 {
		adjacent.Previous = &previous[0]
	}

	return adjacent, nil
}

type Status string

const (
	StatusAll       Status = "all"
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func ParseStatus(value string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusDraft:
		return StatusDraft
	case StatusPublished:
		return StatusPublished
	default:
		return StatusAll
	}
}

type Filter struct {
	SearchTerm string
	Status     Status
}

func (f Filter) matchesStatus(post database.Post) bool {
	switch f.Status {
	case StatusDraft:
		return post.Draft
	case StatusPublished:
		return !post.Draft
	default:
		return true
	}
}

// FilterPosts keeps posts matching both the status and the search term. The
// term is matched case-insensitively against title, author and content.
func FilterPosts(posts []database.Post, filter Filter) []database.Post {
	term := strings.ToLower(filter.SearchTerm)

	filtered := make([]database.Post, 0, len(posts))
	for _, post := range posts {
		if !filter.matchesStatus(post) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(post.Title), term) &&
			!strings.Contains(strings.ToLower(post.Author), term) &&
			!strings.Contains(strings.ToLower(post.Content), term) {
			continue
		}
		filtered = append(filtered, post)
	}
	return filtered
}

const ellipsis = "..."

// Truncate cuts content to limit characters and appends an ellipsis. The
// cut ignores markup, so the result may end inside a tag and has to be
// sanitized again before it is rendered.
func Truncate(content string, limit int) string {
	if limit < 0 {
		limit = 0
	}
	if utf8.RuneCountInString(content) <= limit {
		return content
	}

	runes := 0
	for i := range content {
		if runes == limit {
			return content[:i] + ellipsis
		}
		runes++
	}
	return content + ellipsis
}

// Teaser truncates content for listings. A non-positive limit means
// TEASER_LENGTH.
func Teaser(content string, limit int) string {
	if limit <= 0 {
		limit = constants.TEASER_LENGTH
	}
	return Truncate(content, limit)
}

const longDateLayout = "Monday 02 January 2006"

// FormatDate renders dates from the last calendar month relative to now
// ("3 days ago") and anything older as a long-form date.
func FormatDate(date, now time.Time) string {
	if date.After(now.AddDate(0, -1, 0)) {
		return humanize.RelTime(date, now, "ago", "from now")
	}
	return date.Format(longDateLayout)
}
