// Package markup holds the HTML boundary of the site: everything stored as
// rich text passes through Sanitize before it reaches a page.
package markup

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer allows ordinary user content plus embedded video iframes. Links
// and embeds may only point at http, https or ftp URLs (or be relative).
type Sanitizer struct {
	policy *bluemonday.Policy
}

var (
	frameDimension = regexp.MustCompile(`^[0-9]{1,4}%?$`)
	frameBorder    = regexp.MustCompile(`^[01]$`)
	frameScrolling = regexp.MustCompile(`^(?i)(yes|no|auto)$`)
	frameAllow     = regexp.MustCompile(`^[a-zA-Z0-9\-;=' ]*$`)
	quillClass     = regexp.MustCompile(`^(ql-[a-z0-9\-]+\s*)+$`)
)

func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()

	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "ftp")
	p.AllowRelativeURLs(true)

	p.AllowStandardAttributes()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	p.AllowLists()
	p.AllowTables()
	p.AllowElements(
		"p", "br", "hr", "div", "span",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"b", "strong", "i", "em", "u", "s", "strike", "del", "ins",
		"sub", "sup", "small", "mark", "blockquote", "pre", "code",
		"figure", "figcaption",
	)

	p.AllowElements("iframe")
	p.AllowAttrs("src").OnElements("iframe")
	p.AllowAttrs("width", "height").Matching(frameDimension).OnElements("iframe")
	p.AllowAttrs("frameborder").Matching(frameBorder).OnElements("iframe")
	p.AllowAttrs("scrolling").Matching(frameScrolling).OnElements("iframe")
	p.AllowAttrs("allow").Matching(frameAllow).OnElements("iframe")
	p.AllowAttrs("allowfullscreen").OnElements("iframe")

	// the rich text editor encodes fonts, sizes and alignment as classes
	p.AllowAttrs("class").Matching(quillClass).OnElements("p", "span", "h1", "h2", "h3", "li", "pre", "blockquote")

	return &Sanitizer{policy: p}
}

func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
