package mail

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// Template names accepted by the send-email endpoint.
const (
	TemplateWelcome     = "welcome"
	TemplateNDAComplete = "nda-complete"
	TemplateCustom      = "custom"
)

var ErrUnknownTemplate = errors.New("mail: unknown template")

type tmplDef struct {
	subject string
	body    *template.Template
}

var templates = map[string]tmplDef{
	TemplateWelcome: {
		subject: "Welcome to the VoltGrid Investor Portal",
		body: template.Must(template.New(TemplateWelcome).Parse(`
<p>Hi {{.Name}},</p>
<p>Your VoltGrid investor account is ready. Sign in at
<a href="{{.SiteURL}}">{{.SiteURL}}</a> to review the data room.</p>
<p>You will be asked to sign an NDA before documents become visible.</p>
<p>&mdash; The VoltGrid team</p>`)),
	},
	TemplateNDAComplete: {
		subject: "Your NDA has been received",
		body: template.Must(template.New(TemplateNDAComplete).Parse(`
<p>Hi {{.Name}},</p>
<p>We received your signed NDA. The investor data room is now unlocked for
your account at <a href="{{.SiteURL}}">{{.SiteURL}}</a>.</p>
<p>&mdash; The VoltGrid team</p>`)),
	},
	TemplateCustom: {
		body: template.Must(template.New(TemplateCustom).Parse(`{{.Body}}`)),
	},
}

// RenderParams feed a named template. Variables land in the template dot;
// Subject overrides the template default (required for custom).
type RenderParams struct {
	Template  string
	Subject   string
	Variables map[string]any
}

// Render produces the subject and HTML body for a named template.
func Render(p RenderParams) (subject, html string, err error) {
	def, ok := templates[p.Template]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownTemplate, p.Template)
	}

	subject = def.subject
	if p.Subject != "" {
		subject = p.Subject
	}
	if subject == "" {
		return "", "", fmt.Errorf("mail: template %q requires a subject", p.Template)
	}

	var buf strings.Builder
	if err := def.body.Execute(&buf, p.Variables); err != nil {
		return "", "", fmt.Errorf("failed to render template %q: %w", p.Template, err)
	}
	return subject, buf.String(), nil
}
