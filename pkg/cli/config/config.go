package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/cottus/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// AppConfig represents the application configuration file
type AppConfig struct {
	Persona Persona `toml:"persona"`
}

// Persona is the [persona] table of the configuration file
type Persona struct {
	VendorName   string `toml:"vendor_name"`
	Language     string `toml:"language"`
	Greeting     string `toml:"greeting"`
	Apology      string `toml:"apology"`
	SystemPrompt string `toml:"system_prompt"`
	ExportPrefix string `toml:"export_prefix"`
}

// Validate parses the persona templates so that broken ones are rejected at startup
func (p *Persona) Validate() error {
	templates := []struct {
		field string
		text  string
	}{
		{"greeting", p.Greeting},
		{"system_prompt", p.SystemPrompt},
	}
	for _, t := range templates {
		if t.text == "" {
			continue
		}
		if _, err := template.New(t.field).Parse(t.text); err != nil {
			return goerr.Wrap(ErrInvalidTemplate, err.Error(), goerr.V(FieldKey, t.field))
		}
	}
	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if err := a.Persona.Validate(); err != nil {
		return goerr.Wrap(err, "invalid persona")
	}
	return nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, err.Error(), goerr.V(ConfigPathKey, path))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// ToDomainPersona converts the file representation to the domain persona
func (a *AppConfig) ToDomainPersona() *domainConfig.Persona {
	return &domainConfig.Persona{
		VendorName:   a.Persona.VendorName,
		Language:     a.Persona.Language,
		Greeting:     a.Persona.Greeting,
		Apology:      a.Persona.Apology,
		SystemPrompt: a.Persona.SystemPrompt,
		ExportPrefix: a.Persona.ExportPrefix,
	}
}

// App holds the CLI flag pointing at the configuration file
type App struct {
	path string
}

// Flags returns CLI flags for the configuration file
func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the persona configuration file (TOML)",
			Sources:     cli.EnvVars("COTTUS_CONFIG"),
			Destination: &x.path,
		},
	}
}

// LogAttrs returns log attributes for the configuration file
func (x *App) LogAttrs() []slog.Attr {
	return []slog.Attr{slog.String("path", x.path)}
}

// Configure loads the persona. Without --config the built-in persona is used.
func (x *App) Configure() (*domainConfig.Persona, error) {
	if x.path == "" {
		return domainConfig.DefaultPersona(), nil
	}

	cfg, err := LoadAppConfiguration(x.path)
	if err != nil {
		return nil, err
	}
	return cfg.ToDomainPersona().WithDefaults(), nil
}
