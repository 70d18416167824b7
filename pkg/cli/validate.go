package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/cli/config"
	domainConfig "github.com/secmon-lab/cottus/pkg/domain/model/config"
	"github.com/secmon-lab/cottus/pkg/repository/memory"
	"github.com/secmon-lab/cottus/pkg/usecase"
	"github.com/urfave/cli/v3"
)

const sampleCompanyName = "Example Corp"

func cmdValidate() *cli.Command {
	var appCfg config.App

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the persona configuration and preview the rendered greeting",
		Flags:   appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			persona, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			return validatePersona(ctx, os.Stdout, persona)
		},
	}
}

// validatePersona runs the persona through an in-memory conversation so that
// template errors surface before the server starts
func validatePersona(ctx context.Context, w io.Writer, persona *domainConfig.Persona) error {
	uc, err := usecase.New(memory.New(), usecase.WithPersona(persona))
	if err != nil {
		return goerr.Wrap(err, "failed to render persona templates")
	}

	company, err := uc.Company.CreateCompany(ctx, sampleCompanyName, "Sample Contact", "contact@example.com")
	if err != nil {
		return goerr.Wrap(err, "failed to create sample company")
	}
	session, err := uc.Conversation.StartSession(ctx, company)
	if err != nil {
		return goerr.Wrap(err, "failed to render greeting")
	}
	turns, err := uc.Conversation.Turns(ctx, session.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to read sample conversation")
	}

	heading := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen, color.Bold)

	_, _ = heading.Fprintln(w, "Persona")
	_, _ = fmt.Fprintf(w, "  vendor:        %s\n", persona.VendorName)
	_, _ = fmt.Fprintf(w, "  language:      %s\n", persona.Language)
	_, _ = fmt.Fprintf(w, "  export prefix: %s\n", persona.ExportPrefix)
	_, _ = fmt.Fprintf(w, "  system prompt: %d bytes\n", len(uc.Conversation.SystemPrompt()))

	_, _ = heading.Fprintf(w, "Greeting for %q\n", sampleCompanyName)
	if len(turns) == 0 {
		_, _ = fmt.Fprintln(w, "  (disabled)")
	} else {
		_, _ = fmt.Fprintln(w, turns[0].Content)
	}

	_, _ = ok.Fprintln(w, "Configuration is valid")
	return nil
}
