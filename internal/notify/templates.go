package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "confirm"}}<p>Welcome {{.Username}}!</p>
<p>To confirm your account please <a href="{{.Link}}">click here</a>.</p>
<p>Alternatively, paste the following link in your browser's address bar:</p>
<p>{{.Link}}</p>
<p>The link expires in {{.ExpiresIn}}.</p>{{end}}
{{define "reset"}}<p>Hello {{.Username}},</p>
<p>To reset your password visit the following link:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>The link expires in {{.ExpiresIn}}. If you did not make this request simply ignore this email.</p>{{end}}
{{define "contact"}}<p>{{.Message}}</p>
<p>From: {{.Name}}</p>
<p>Contact: {{.Email}}</p>{{end}}
`))

// LinkMail is the data of account confirmation and password reset mails.
type LinkMail struct {
	Username  string
	Link      string
	ExpiresIn string
}

// ContactMail is the data of a contact or advertising enquiry.
type ContactMail struct {
	Name    string
	Email   string
	Message string
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s mail: %w", name, err)
	}
	return buf.String(), nil
}

func RenderConfirmation(data LinkMail) (string, error) { return render("confirm", data) }
func RenderReset(data LinkMail) (string, error)        { return render("reset", data) }
func RenderContact(data ContactMail) (string, error)   { return render("contact", data) }
