package mail

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/kursadbilgin/form-relay/internal/domain"
)

// Rendered is the outcome of rendering a form into an email body. Rendering
// is a pure function: identical form inputs always produce identical output.
type Rendered struct {
	Subject string
	HTML    string
}

const contactTemplate = `<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #222;">
    <h2>New contact message</h2>
    <table cellpadding="4">
      <tr><td><strong>Name</strong></td><td>{{.Name}}</td></tr>
      <tr><td><strong>Email</strong></td><td>{{.Email}}</td></tr>
      {{if .Subject}}<tr><td><strong>Subject</strong></td><td>{{.Subject}}</td></tr>{{end}}
    </table>
    <h3>Message</h3>
    <p>{{.Message}}</p>
  </body>
</html>`

const internshipTemplate = `<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #222;">
    <h2>New internship registration</h2>
    <table cellpadding="4">
      <tr><td><strong>Name</strong></td><td>{{.Name}}</td></tr>
      <tr><td><strong>Email</strong></td><td>{{.Email}}</td></tr>
      <tr><td><strong>Course</strong></td><td>{{.Course}}</td></tr>
      {{if .Phone}}<tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>{{end}}
    </table>
  </body>
</html>`

// Renderer renders the two hard-coded submission templates.
type Renderer struct {
	contact    *template.Template
	internship *template.Template
}

func NewRenderer() (*Renderer, error) {
	contact, err := template.New("contact").Parse(contactTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse contact template: %w", err)
	}
	internship, err := template.New("internship").Parse(internshipTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse internship template: %w", err)
	}

	return &Renderer{contact: contact, internship: internship}, nil
}

func (r *Renderer) Render(form domain.Form) (*Rendered, error) {
	if r == nil {
		return nil, fmt.Errorf("renderer is not initialized")
	}
	if form == nil {
		return nil, fmt.Errorf("%w: form is required", domain.ErrValidation)
	}

	switch f := form.(type) {
	case *domain.ContactForm:
		return r.renderContact(f)
	case *domain.InternshipForm:
		return r.renderInternship(f)
	default:
		return nil, fmt.Errorf("%w: unsupported form kind %q", domain.ErrValidation, form.Kind())
	}
}

func (r *Renderer) renderContact(f *domain.ContactForm) (*Rendered, error) {
	var body strings.Builder
	if err := r.contact.Execute(&body, f); err != nil {
		return nil, fmt.Errorf("failed to render contact template: %w", err)
	}

	subject := fmt.Sprintf("New contact message from %s", strings.TrimSpace(f.Name))
	if trimmed := strings.TrimSpace(f.Subject); trimmed != "" {
		subject = fmt.Sprintf("Contact: %s", trimmed)
	}

	return &Rendered{Subject: subject, HTML: body.String()}, nil
}

func (r *Renderer) renderInternship(f *domain.InternshipForm) (*Rendered, error) {
	var body strings.Builder
	if err := r.internship.Execute(&body, f); err != nil {
		return nil, fmt.Errorf("failed to render internship template: %w", err)
	}

	subject := fmt.Sprintf("New internship registration: %s", strings.TrimSpace(f.Course))
	return &Rendered{Subject: subject, HTML: body.String()}, nil
}
