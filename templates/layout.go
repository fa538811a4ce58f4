package templates

import (
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

type Flash struct {
	Kind    FlashKind
	Message string
}

type LayoutProps struct {
	Title       string
	SiteName    string
	CurrentUser string
	IsAdmin     bool
	Flash       *Flash
}

func NavbarComponent(props LayoutProps) g.Node {
	return Nav(Class("nav"),
		Div(Class("nav-left"),
			Div(Class("brand"), A(Href("/"), g.Text(props.SiteName))),
			A(Href("/about"), g.Text("About")),
		),
		Div(Class("nav-links nav-right"),
			g.If(props.CurrentUser == "",
				Div(
					A(Href("/signin"), g.Text("Sign in")),
					A(Href("/signup"), g.Text("Sign up")),
				),
			),
			g.If(props.CurrentUser != "",
				Div(Class("row"),
					Div(Class("col"), g.Textf("Signed in as %s", props.CurrentUser)),
					g.If(props.IsAdmin, Div(Class("col"), A(Href("/admin"), g.Text("Admin")))),
					Div(Class("col"), A(Href("/settings"), g.Text("Settings"))),
					Div(Class("col"),
						Form(Method("post"), Action("/logout"),
							Button(Type("submit"), Class("button clear"), g.Text("Sign out")),
						),
					),
				)),
		),
	)
}

func FlashComponent(flash *Flash) g.Node {
	if flash == nil || flash.Message == "" {
		return nil
	}
	return Div(Class("flash flash-"+string(flash.Kind)), g.Attr("role", "status"), g.Text(flash.Message))
}

func FooterComponent(siteName string) g.Node {
	return Footer(Class("footer"),
		P(Small(g.Textf("%s, a small personal blog.", siteName))),
	)
}

// flashScript hides flash messages shortly after the page loads. Inline
// notices use their own class and stay.
const flashScript = `
	<script>
		setTimeout(function () {
			document.querySelectorAll('.flash').forEach(function (el) { el.remove(); });
		}, 2000);
	</script>
`

const baseStyle = `
	body { font-family: Georgia, serif; max-width: 52em; margin: 0 auto; padding: 1em; }
	.nav { display: flex; justify-content: space-between; margin-bottom: 2em; }
	.nav a { margin-right: 1em; }
	.flash { padding: .5em 1em; margin-bottom: 1em; border-radius: 4px; }
	.flash-success { background: #e6f4ea; }
	.flash-error, .notice-error { background: #fce8e6; }
	.notice { padding: .5em 1em; margin-bottom: 1em; border-radius: 4px; }
	.post-card { margin-bottom: 2em; }
	.muted { color: #666; }
	.post-nav { display: flex; justify-content: space-between; margin: 2em 0; }
	.ql-font-arial { font-family: Arial, sans-serif; }
	.ql-font-comic-sans { font-family: "Comic Sans MS", cursive; }
	.ql-font-courier-new { font-family: "Courier New", monospace; }
	.ql-font-helvetica { font-family: Helvetica, sans-serif; }
	.ql-font-lucida { font-family: "Lucida Sans", sans-serif; }
	.ql-size-extra-small { font-size: .7em; }
	.ql-size-small { font-size: .85em; }
	.ql-size-large { font-size: 1.4em; }
`

func Layout(props LayoutProps, children ...g.Node) g.Node {
	title := props.SiteName
	if props.Title != "" {
		title = props.Title + " | " + props.SiteName
	}

	return Doctype(
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				StyleEl(g.Raw(baseStyle)),
				TitleEl(g.Text(title)),
			),
			Body(
				Div(Class("container"),
					NavbarComponent(props),
					FlashComponent(props.Flash),
					Main(
						g.Group(children),
					),
				),
				FooterComponent(props.SiteName),
				g.If(props.Flash != nil, g.Raw(flashScript)),
			),
		),
	)
}
