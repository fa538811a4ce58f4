// Package importer reads post exports from other blogging platforms.
// Only BearBlog CSV exports are supported.
package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"twoblog/constants"
	"twoblog/database"
	"twoblog/markup"

	"github.com/gosimple/slug"
)

// BearBlog export columns used by the import.
const (
	colTitle       = 3
	colPublishedAt = 6
	colPublish     = 9
	colIsPage      = 11
	colContent     = 12
	minColumns     = colContent + 1
)

type Options struct {
	Author    string
	Overwrite bool
}

type Result struct {
	Imported int
	Replaced int
	Skipped  int
}

// Parse turns a BearBlog CSV export into posts. Markdown bodies are rendered
// to HTML; pages are skipped since the site has no notion of them.
func Parse(r io.Reader, author string) ([]database.Post, error) {
	reader := csv.NewReader(r)

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV file: %w", err)
	}

	posts := make([]database.Post, 0, len(records))
	for line, record := range records {
		if len(record) < minColumns {
			return nil, fmt.Errorf("row %d: expected at least %d columns, got %d", line+2, minColumns, len(record))
		}
		if parseBool(record[colIsPage]) {
			continue
		}

		title := strings.TrimSpace(record[colTitle])
		body := record[colContent]
		if n := utf8.RuneCountInString(body); n > constants.MAX_POST_LENGTH {
			return nil, fmt.Errorf(
				"post with title '%s': body too long. It must be at most '%d' characters, but it is '%d' characters long",
				title, constants.MAX_POST_LENGTH, n)
		}

		publishedDate, err := tryParseDate(record[colPublishedAt])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line+2, err)
		}

		posts = append(posts, database.Post{
			Title:   title,
			Content: string(markup.Markdown([]byte(body))),
			Author:  author,
			Date:    publishedDate.UTC(),
			Draft:   !parseBool(record[colPublish]),
		})
	}

	return posts, nil
}

// Import parses an export and stores its posts in a single transaction.
// Posts are matched to existing ones by the slug of their title; matches are
// replaced when Overwrite is set and skipped otherwise.
func Import(ctx context.Context, store *database.Store, r io.Reader, opts Options) (Result, error) {
	incoming, err := Parse(r, opts.Author)
	if err != nil {
		return Result{}, err
	}

	var result Result
	err = store.Transaction(ctx, func(tx *database.Store) error {
		existingPosts, err := tx.QueryPosts(ctx, database.PostQuery{})
		if err != nil {
			return err
		}

		existing := make(map[string]database.Post, len(existingPosts))
		for _, post := range existingPosts {
			existing[slug.Make(post.Title)] = post
		}

		for i := range incoming {
			post := incoming[i]
			key := slug.Make(post.Title)

			if current, ok := existing[key]; ok {
				if !opts.Overwrite {
					result.Skipped++
					continue
				}
				if err := tx.DeletePost(ctx, current.ID); err != nil {
					return err
				}
				delete(existing, key)
				result.Replaced++
			}

			if err := tx.InsertPost(ctx, &post); err != nil {
				return fmt.Errorf("insert post '%s': %w", post.Title, err)
			}
			existing[key] = post
			result.Imported++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return result, nil
}

func parseBool(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}

func tryParseDate(dateStr string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04",
		time.RFC3339,
		time.RFC3339Nano,
		time.RFC1123,
		time.RFC1123Z,
		time.RFC822,
		time.RFC822Z,
		time.RFC850,
		time.ANSIC,
		time.UnixDate,
		time.RubyDate,
		"Mon Jan 2 03:04:05 PM MST 2006",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02 15:04:05.999999-07:00",
	}

	dateStr = strings.TrimSpace(dateStr)
	for _, layout := range formats {
		date, err := time.Parse(layout, dateStr)
		if err == nil {
			return date, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
