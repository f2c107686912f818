package generator

import (
	"fmt"
	"strings"

	"outreach-engine-go/internal/model"
)

// Content is what a generator produces for one contact.
type Content struct {
	Subject string
	Body    string
}

// Generator produces personalized content for one contact and stage.
// Implementations may call out to anything; a failed generation skips
// the contact, it never aborts a batch.
type Generator interface {
	Generate(contact model.Contact, owner *model.Owner, tmpl *model.Template, stage string) (Content, error)
}

// TemplateGenerator fills template placeholders from the contact and
// owner profile. Supported tokens: {{name}}, {{company}}, {{sender_name}},
// {{sender_company}}, {{stage}}.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a new TemplateGenerator
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate renders the template for one contact.
func (g *TemplateGenerator) Generate(contact model.Contact, owner *model.Owner, tmpl *model.Template, stage string) (Content, error) {
	if tmpl == nil {
		return Content{}, fmt.Errorf("no template for stage %s", stage)
	}

	replacer := strings.NewReplacer(
		"{{name}}", firstName(contact.Name),
		"{{full_name}}", contact.Name,
		"{{company}}", contact.Company,
		"{{sender_name}}", owner.Name,
		"{{sender_company}}", owner.Company,
		"{{stage}}", stage,
	)

	content := Content{
		Subject: replacer.Replace(tmpl.Subject),
		Body:    replacer.Replace(tmpl.Body),
	}
	if content.Subject == "" {
		return Content{}, fmt.Errorf("template %d produced an empty subject", tmpl.ID)
	}
	return content, nil
}

func firstName(full string) string {
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
