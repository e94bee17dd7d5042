package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
)

const (
	TemplateRecipeApproved = "recipe_approved"
	TemplateRecipeRejected = "recipe_rejected"
	TemplateWelcome        = "welcome"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "recipe_approved"}}<p>Hi {{.Name}},</p>
<p>Your recipe <strong>{{.Title}}</strong> has been approved and is now live.</p>
{{if .Notes}}<p>Moderator notes: {{.Notes}}</p>{{end}}
<p><a href="{{.Link}}">View your recipe</a></p>{{end}}

{{define "recipe_rejected"}}<p>Hi {{.Name}},</p>
<p>Your recipe <strong>{{.Title}}</strong> was not approved.</p>
<p>Reason: {{.Reason}}</p>
<p>You are welcome to revise it and submit again.</p>{{end}}

{{define "welcome"}}<p>Welcome to RecipeShare, {{.Name}}!</p>
<p>Start by <a href="{{.Link}}">sharing your first recipe</a>.</p>{{end}}
`))

var subjects = map[string]string{
	TemplateRecipeApproved: "Your recipe %q was approved",
	TemplateRecipeRejected: "Your recipe %q was not approved",
	TemplateWelcome:        "Welcome to RecipeShare",
}

// Data fills the mail templates; unused fields are ignored.
type Data struct {
	Name   string
	Title  string
	Notes  string
	Reason string
	Link   string
}

type Notifier struct {
	mailer      Mailer
	frontendURL string
}

func NewNotifier(mailer Mailer, frontendURL string) *Notifier {
	return &Notifier{mailer: mailer, frontendURL: frontendURL}
}

// Render produces the subject and HTML body for a template.
func Render(name string, data Data) (string, string, error) {
	subject, ok := subjects[name]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", name)
	}
	if name != TemplateWelcome {
		subject = fmt.Sprintf(subject, data.Title)
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", "", err
	}
	return subject, body.String(), nil
}

func (n *Notifier) send(to, name string, data Data) error {
	subject, body, err := Render(name, data)
	if err != nil {
		return err
	}
	return n.mailer.Send(Message{To: to, Subject: subject, HTML: body})
}

func (n *Notifier) RecipeApproved(to, name, title, recipeID, notes string) error {
	return n.send(to, TemplateRecipeApproved, Data{
		Name:  name,
		Title: title,
		Notes: notes,
		Link:  n.frontendURL + "/recipes/" + recipeID,
	})
}

func (n *Notifier) RecipeRejected(to, name, title, reason string) error {
	return n.send(to, TemplateRecipeRejected, Data{Name: name, Title: title, Reason: reason})
}

func (n *Notifier) Welcome(to, name string) error {
	return n.send(to, TemplateWelcome, Data{Name: name, Link: n.frontendURL + "/recipes/new"})
}

// Go runs fn in the background and logs its failure. A nil Notifier is a no-op.
func (n *Notifier) Go(fn func(*Notifier) error) {
	if n == nil {
		return
	}
	go func() {
		if err := fn(n); err != nil {
			log.Printf("Warning: failed to send email: %v", err)
		}
	}()
}
