package templates

import (
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

// PostCard is a post as it appears in a listing. TeaserHTML must already be
// sanitized.
type PostCard struct {
	ID         string
	Title      string
	URL        string
	Author     string
	DateText   string
	TeaserHTML string
}

type HomeData struct {
	Recent    []PostCard
	Archive   []PostCard
	LoadError string
}

func HomePage(props LayoutProps, data HomeData) g.Node {
	var recent []g.Node
	for _, card := range data.Recent {
		recent = append(recent, Article(Class("post-card"),
			H2(A(Href(card.URL), g.Text(card.Title))),
			P(Class("muted"), g.Text(card.DateText)),
			Div(Class("teaser"), g.Raw(card.TeaserHTML)),
			A(Href(card.URL), g.Text("Read more")),
		))
	}

	var archive []g.Node
	for _, card := range data.Archive {
		archive = append(archive, Li(
			A(Href(card.URL), Strong(g.Text(card.Title))),
			g.Text(" - "),
			Span(Class("muted"), g.Text(card.DateText)),
		))
	}

	return Layout(props,
		g.If(data.LoadError != "", P(Class("notice notice-error"), g.Text(data.LoadError))),
		g.If(data.LoadError == "" && len(recent) == 0, P(Class("muted"), g.Text("Nothing has been published yet."))),
		g.Group(recent),
		g.If(len(archive) > 0,
			Section(Class("archive"),
				H2(g.Text("Archive")),
				Ul(g.Group(archive)),
			),
		),
	)
}

type PostLink struct {
	Title string
	URL   string
}

type CommentView struct {
	ID       string
	Author   string
	Content  string
	DateText string
}

// PostPageData feeds the single post view. Each of the three independently
// loaded parts carries its own error so one failure does not hide the rest.
type PostPageData struct {
	ID          string
	Title       string
	Author      string
	DateText    string
	ContentHTML string
	Draft       bool

	Previous      *PostLink
	Next          *PostLink
	AdjacentError string

	Comments      []CommentView
	CommentsError string
	CanModerate   bool
	CommentAuthor string
}

func PostPage(props LayoutProps, data PostPageData) g.Node {
	var comments []g.Node
	for _, c := range data.Comments {
		comments = append(comments, Li(Class("comment"),
			P(Strong(g.Text(c.Author)), g.Text(" on "), Span(Class("muted"), g.Text(c.DateText))),
			P(g.Text(c.Content)),
			g.If(data.CanModerate,
				Form(Method("post"), Action("/post/"+data.ID+"/comments/"+c.ID+"/delete"),
					Button(Type("submit"), Class("button error"), g.Text("Delete")),
				),
			),
		))
	}

	return Layout(props,
		Article(
			Header(
				H1(g.Text(data.Title)),
				g.If(data.Draft, P(Class("tag"), g.Text("Draft"))),
				P(Class("muted"), g.Textf("By %s, %s", data.Author, data.DateText)),
			),
			Div(Class("content"), g.Raw(data.ContentHTML)),
		),

		Nav(Class("post-nav"),
			g.If(data.AdjacentError != "", Span(Class("muted"), g.Text(data.AdjacentError))),
			adjacentLink(data.Previous, "← %s"),
			adjacentLink(data.Next, "%s →"),
		),

		Section(Class("comments"),
			H2(g.Text("Comments")),
			Form(Method("post"), Action("/post/"+data.ID+"/comments"),
				H3(g.Text("Add a comment")),
				Input(Type("text"), Name("author"), Placeholder("Your name"), Value(data.CommentAuthor)),
				Textarea(Name("content"), Placeholder("Your comment"), Rows("4"), Required()),
				Button(Type("submit"), Class("button primary"), g.Text("Submit comment")),
			),
			g.If(data.CommentsError != "", P(Class("notice notice-error"), g.Text(data.CommentsError))),
			Ul(g.Group(comments)),
		),
	)
}

func adjacentLink(link *PostLink, format string) g.Node {
	if link == nil {
		return nil
	}
	return A(Href(link.URL), g.Textf(format, link.Title))
}

func AboutPage(props LayoutProps, contentHTML string) g.Node {
	return Layout(props,
		Article(Class("content"), g.Raw(contentHTML)),
	)
}

func NotFoundPage(props LayoutProps, message string) g.Node {
	return Layout(props,
		H1(g.Text("Not found")),
		P(g.Text(message)),
		A(Href("/"), g.Text("Back to the front page")),
	)
}

func UnauthorizedPage(props LayoutProps) g.Node {
	return Layout(props,
		H1(g.Text("Access denied")),
		P(g.Text("You do not have permission to view this page.")),
		A(Href("/"), g.Text("Back to the front page")),
	)
}

func ErrorPage(props LayoutProps, message string) g.Node {
	return Layout(props,
		H1(g.Text("Something went wrong")),
		P(g.Text(message)),
	)
}
