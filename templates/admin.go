package templates

import (
	"twoblog/constants"

	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

type AdminRow struct {
	ID         string
	Title      string
	Author     string
	DateText   string
	Draft      bool
	TeaserHTML string
	ViewURL    string
}

type AdminPostsData struct {
	Rows       []AdminRow
	SearchTerm string
	Status     string
	LoadError  string
}

func statusOption(value, label, current string) g.Node {
	return Option(Value(value), g.If(value == current, Selected()), g.Text(label))
}

func AdminPostsPage(props LayoutProps, data AdminPostsData) g.Node {
	var rows []g.Node
	for _, row := range data.Rows {
		publishLabel := "Unpublish"
		if row.Draft {
			publishLabel = "Publish"
		}

		rows = append(rows, Tr(
			Td(
				A(Href(row.ViewURL), Strong(g.Text(row.Title))),
				g.If(row.Draft, Span(Class("tag"), g.Text(" draft"))),
				Div(Class("teaser muted"), g.Raw(row.TeaserHTML)),
			),
			Td(g.Text(row.Author)),
			Td(g.Text(row.DateText)),
			Td(Class("actions"),
				A(Href("/admin/post/"+row.ID), g.Text("Edit")),
				Form(Method("post"), Action("/admin/post/"+row.ID+"/publish"),
					Input(Type("hidden"), Name("draft"), Value(boolValue(!row.Draft))),
					Button(Type("submit"), Class("button outline"), g.Text(publishLabel)),
				),
				Form(Method("post"), Action("/admin/post/"+row.ID+"/delete"),
					g.Attr("onsubmit", "return confirm('Delete this post?');"),
					Button(Type("submit"), Class("button error"), g.Text("Delete")),
				),
			),
		))
	}

	return Layout(props,
		Div(Class("row"),
			H1(g.Text("Posts")),
			A(Href("/admin/new"), Class("button primary"), g.Text("New post")),
			g.Text(" "),
			A(Href("/admin/import"), Class("button outline"), g.Text("Import")),
		),

		Form(Method("get"), Action("/admin"), Class("row"),
			Input(Type("search"), Name("q"), Placeholder("Search title, author or content"), Value(data.SearchTerm)),
			Select(Name("status"),
				statusOption("all", "All", data.Status),
				statusOption("published", "Published", data.Status),
				statusOption("draft", "Drafts", data.Status),
			),
			Button(Type("submit"), Class("button"), g.Text("Filter")),
		),

		g.If(data.LoadError != "", P(Class("notice notice-error"), g.Text(data.LoadError))),
		g.If(data.LoadError == "" && len(rows) == 0, P(Class("muted"), g.Text("No posts match."))),
		g.If(len(rows) > 0,
			Table(
				THead(Tr(Th(g.Text("Title")), Th(g.Text("Author")), Th(g.Text("Date")), Th())),
				TBody(g.Group(rows)),
			),
		),
	)
}

func boolValue(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// PostFormData drives both the create and the edit form. ShowDraft is only
// set on create; publishing an existing post goes through the list actions.
type PostFormData struct {
	Heading     string
	Action      string
	Title       string
	Content     string
	Author      string
	Draft       bool
	ShowDraft   bool
	SubmitLabel string
	Font        string
	Size        string
	Error       string
}

func PostFormPage(props LayoutProps, data PostFormData) g.Node {
	return Layout(props,
		H1(g.Text(data.Heading)),
		g.If(data.Error != "", P(Class("notice notice-error"), g.Text(data.Error))),
		Form(Method("post"), Action(data.Action),
			Label(For("title"), g.Text("Title")),
			Input(Type("text"), ID("title"), Name("title"), Value(data.Title), Required()),

			g.If(data.Author != "",
				P(Class("muted"), g.Textf("Author: %s", data.Author)),
			),

			Label(For("content"), g.Text("Content")),
			Textarea(ID("content"), Name("content"), Rows("20"),
				Class("editor ql-font-"+data.Font+" ql-size-"+data.Size),
				g.Text(data.Content),
			),

			g.If(data.ShowDraft,
				Label(
					Input(Type("checkbox"), Name("draft"), g.If(data.Draft, Checked())),
					g.Text(" Save as draft"),
				),
			),

			Button(Type("submit"), Class("button primary"), g.Text(data.SubmitLabel)),
		),
	)
}

type ImportData struct {
	Error string
}

func ImportPage(props LayoutProps, data ImportData) g.Node {
	return Layout(props,
		H1(g.Text("Import posts")),
		P(g.Text("Upload the CSV export from BearBlog. Pages are skipped and markdown is converted to HTML.")),
		g.If(data.Error != "", P(Class("notice notice-error"), g.Text(data.Error))),
		Form(Method("post"), Action("/admin/import"), EncType("multipart/form-data"),
			Input(Type("file"), Name("bear_export"), Accept(".csv"), Required()),
			Label(
				Input(Type("checkbox"), Name("overwrite_existing")),
				g.Text(" Overwrite posts with the same title"),
			),
			Button(Type("submit"), Class("button primary"), g.Text("Import")),
		),
		P(Small(g.Textf("Maximum upload size is %d MB.", constants.MAX_IMPORT_BYTES>>20))),
	)
}
