package templates

import (
	"twoblog/constants"

	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"
)

type CredentialsData struct {
	Email string
	Error string
}

func SignInPage(props LayoutProps, data CredentialsData) g.Node {
	return Layout(props,
		H1(g.Text("Sign in")),
		g.If(data.Error != "", P(Class("notice notice-error"), g.Text(data.Error))),
		Form(Method("post"), Action("/signin"),
			Label(For("email"), g.Text("Email")),
			Input(Type("email"), ID("email"), Name("email"), Value(data.Email), Required()),
			Label(For("password"), g.Text("Password")),
			Input(Type("password"), ID("password"), Name("password"), Required()),
			Button(Type("submit"), Class("button primary"), g.Text("Sign in")),
		),
		P(g.Text("No account yet? "), A(Href("/signup"), g.Text("Sign up"))),
	)
}

func SignUpPage(props LayoutProps, data CredentialsData) g.Node {
	return Layout(props,
		H1(g.Text("Sign up")),
		g.If(data.Error != "", P(Class("notice notice-error"), g.Text(data.Error))),
		Form(Method("post"), Action("/signup"),
			Label(For("email"), g.Text("Email")),
			Input(Type("email"), ID("email"), Name("email"), Value(data.Email), Required()),
			Label(For("password"), g.Text("Password")),
			Input(Type("password"), ID("password"), Name("password"), Required()),
			Label(For("confirm"), g.Text("Confirm password")),
			Input(Type("password"), ID("confirm"), Name("confirm"), Required()),
			Button(Type("submit"), Class("button primary"), g.Text("Create account")),
		),
		P(g.Text("Already registered? "), A(Href("/signin"), g.Text("Sign in"))),
	)
}

type SettingsData struct {
	UID      string
	Email    string
	Username string
	IsAdmin  bool
	Font     string
	Size     string
	Error    string
}

func choice(value, current string) g.Node {
	return Option(Value(value), g.If(value == current, Selected()), g.Text(value))
}

func SettingsPage(props LayoutProps, data SettingsData) g.Node {
	var fonts, sizes []g.Node
	for _, font := range constants.EDITOR_FONTS {
		fonts = append(fonts, choice(font, data.Font))
	}
	for _, size := range constants.EDITOR_SIZES {
		sizes = append(sizes, choice(size, data.Size))
	}

	return Layout(props,
		H1(g.Text("Settings")),
		g.If(data.Error != "", P(Class("notice notice-error"), g.Text(data.Error))),
		P(Class("muted"), g.Textf("Signed in as %s", data.Email)),
		P(Class("muted"), g.Text("Your user id is "), Code(g.Text(data.UID))),

		Section(
			H2(g.Text("Username")),
			Form(Method("post"), Action("/settings"),
				Input(Type("hidden"), Name("action"), Value("username")),
				Input(Type("text"), Name("username"), Value(data.Username), Required()),
				Button(Type("submit"), Class("button"), g.Text("Save username")),
			),
		),

		Section(
			H2(g.Text("Password")),
			Form(Method("post"), Action("/settings"),
				Input(Type("hidden"), Name("action"), Value("password")),
				Input(Type("password"), Name("password"), Placeholder("New password"), Required()),
				Button(Type("submit"), Class("button"), g.Text("Change password")),
			),
		),

		g.If(data.IsAdmin,
			Section(
				H2(g.Text("Editor defaults")),
				Form(Method("post"), Action("/settings"),
					Input(Type("hidden"), Name("action"), Value("editor")),
					Label(For("font"), g.Text("Font")),
					Select(ID("font"), Name("font"), g.Group(fonts)),
					Label(For("size"), g.Text("Size")),
					Select(ID("size"), Name("size"), g.Group(sizes)),
					Button(Type("submit"), Class("button"), g.Text("Save editor defaults")),
				),
			),
		),
	)
}
