package usecase

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/model/config"
)

//go:embed prompt/system.md
var systemPromptTmpl string

// promptData is the data available to the system prompt and greeting templates
type promptData struct {
	VendorName  string
	Language    string
	CompanyName string
}

// renderSystemPrompt renders the built-in instructions, or the persona's
// override when one is configured
func renderSystemPrompt(persona *config.Persona) (string, error) {
	source := systemPromptTmpl
	if persona.SystemPrompt != "" {
		source = persona.SystemPrompt
	}

	return renderTemplate("system_prompt", source, promptData{
		VendorName: persona.VendorName,
		Language:   persona.Language,
	})
}

func renderTemplate(name, source string, data promptData) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(source)
	if err != nil {
		return "", goerr.Wrap(err, "failed to parse template", goerr.V("template", name))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render template", goerr.V("template", name))
	}
	return buf.String(), nil
}
