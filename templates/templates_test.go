package templates

import (
	"strings"
	"testing"

	g "github.com/maragudk/gomponents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, node g.Node) string {
	t.Helper()

	var b strings.Builder
	require.NoError(t, node.Render(&b))
	return b.String()
}

func TestLayout_EscapesTitlesAndShowsFlash(t *testing.T) {
	props := LayoutProps{
		Title:    "<b>hi</b>",
		SiteName: "Blog",
		Flash:    &Flash{Kind: FlashSuccess, Message: "Saved!"},
	}

	html := render(t, Layout(props))
	assert.Contains(t, html, "&lt;b&gt;hi&lt;/b&gt; | Blog")
	assert.Contains(t, html, `class="flash flash-success"`)
	assert.Contains(t, html, "setTimeout")
	assert.Contains(t, html, `href="/signin"`)
}

func TestNavbar_SignedInAdmin(t *testing.T) {
	html := render(t, NavbarComponent(LayoutProps{SiteName: "Blog", CurrentUser: "mira", IsAdmin: true}))
	assert.Contains(t, html, "Signed in as mira")
	assert.Contains(t, html, `href="/admin"`)
	assert.NotContains(t, html, `href="/signin"`)
}

func TestPostPage_AdjacentLinksOptional(t *testing.T) {
	html := render(t, PostPage(LayoutProps{SiteName: "Blog"}, PostPageData{
		ID:    "p1",
		Title: "Middle",
		Next:  &PostLink{Title: "Later", URL: "/post/p2/later"},
	}))

	assert.Contains(t, html, `href="/post/p2/later"`)
	assert.Contains(t, html, `action="/post/p1/comments"`)
	assert.NotContains(t, html, "/delete")
}

func TestSettingsPage_EditorDefaultsForAdminsOnly(t *testing.T) {
	data := SettingsData{UID: "u1", Email: "a@example.com", Font: "arial", Size: "large"}

	assert.NotContains(t, render(t, SettingsPage(LayoutProps{}, data)), "Editor defaults")

	data.IsAdmin = true
	html := render(t, SettingsPage(LayoutProps{}, data))
	assert.Contains(t, html, "Editor defaults")
	assert.Contains(t, html, `<option value="arial" selected>arial</option>`)
}

func TestPostPage_InlineNoticeIsNotAFlash(t *testing.T) {
	props := LayoutProps{SiteName: "Blog", Flash: &Flash{Kind: FlashSuccess, Message: "Comment added!"}}
	html := render(t, PostPage(props, PostPageData{
		ID:            "p1",
		Title:         "Post",
		CommentsError: "Comments could not be loaded.",
	}))

	assert.Contains(t, html, `<p class="notice notice-error">Comments could not be loaded.</p>`)
	assert.Contains(t, html, `class="flash flash-success"`)
	assert.Equal(t, 1, strings.Count(html, `class="flash `))
}

func TestForms_ErrorsUseInlineNotices(t *testing.T) {
	pages := map[string]g.Node{
		"sign in":  SignInPage(LayoutProps{}, CredentialsData{Error: "bad"}),
		"sign up":  SignUpPage(LayoutProps{}, CredentialsData{Error: "bad"}),
		"settings": SettingsPage(LayoutProps{}, SettingsData{Error: "bad"}),
		"post":     PostFormPage(LayoutProps{}, PostFormData{Error: "bad"}),
		"import":   ImportPage(LayoutProps{}, ImportData{Error: "bad"}),
		"admin":    AdminPostsPage(LayoutProps{}, AdminPostsData{LoadError: "bad"}),
		"home":     HomePage(LayoutProps{}, HomeData{LoadError: "bad"}),
	}
	for name, page := range pages {
		t.Run(name, func(t *testing.T) {
			html := render(t, page)
			assert.Contains(t, html, `<p class="notice notice-error">bad</p>`)
			assert.NotContains(t, html, `class="flash`)
		})
	}
}
