package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/cottus/pkg/cli"
	domainConfig "github.com/secmon-lab/cottus/pkg/domain/model/config"
)

func TestValidatePersona(t *testing.T) {
	color.NoColor = true

	t.Run("default persona renders greeting", func(t *testing.T) {
		var buf bytes.Buffer
		gt.NoError(t, cli.ValidatePersona(t.Context(), &buf, domainConfig.DefaultPersona())).Required()
		gt.String(t, buf.String()).Contains("Example Corp様")
		gt.String(t, buf.String()).Contains("Configuration is valid")
	})

	t.Run("disabled greeting", func(t *testing.T) {
		persona := domainConfig.DefaultPersona()
		persona.Greeting = ""

		var buf bytes.Buffer
		gt.NoError(t, cli.ValidatePersona(t.Context(), &buf, persona)).Required()
		gt.String(t, buf.String()).Contains("(disabled)")
	})

	t.Run("greeting referring to unknown field", func(t *testing.T) {
		persona := domainConfig.DefaultPersona()
		persona.Greeting = "Hello {{.Unknown}}"

		var buf bytes.Buffer
		gt.Error(t, cli.ValidatePersona(t.Context(), &buf, persona))
	})
}

func TestGetIndexConfig(t *testing.T) {
	t.Run("without prefix", func(t *testing.T) {
		cfg := cli.GetIndexConfig("")
		gt.Array(t, cfg.Collections).Length(2).Required()
		gt.Value(t, cfg.Collections[0].Name).Equal("tickets")
		gt.Value(t, cfg.Collections[1].Name).Equal("companies")

		fields := cfg.Collections[0].Indexes[0].Fields
		gt.Array(t, fields).Length(2).Required()
		gt.Value(t, fields[0].Path).Equal("company_id")
		gt.Value(t, fields[1].Path).Equal("id")
		gt.Value(t, fields[1].Order).Equal(fireconf.OrderAscending)
	})

	t.Run("with prefix", func(t *testing.T) {
		cfg := cli.GetIndexConfig("staging")
		gt.Value(t, cfg.Collections[0].Name).Equal("staging_tickets")
		gt.Value(t, cfg.Collections[1].Name).Equal("staging_companies")
	})
}

func TestSplitOrigins(t *testing.T) {
	gt.Array(t, cli.SplitOrigins("")).Length(0)
	gt.Value(t, cli.SplitOrigins(" https://a.example.com, ,https://b.example.com ")).
		Equal([]string{"https://a.example.com", "https://b.example.com"})
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		gt.NoError(t, cli.LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("loads variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		gt.NoError(t, os.WriteFile(path, []byte("COTTUS_TEST_DOTENV=loaded\n"), 0600)).Required()
		t.Setenv("COTTUS_TEST_DOTENV", "")
		gt.NoError(t, os.Unsetenv("COTTUS_TEST_DOTENV")).Required()

		gt.NoError(t, cli.LoadDotEnv(path)).Required()
		gt.Value(t, os.Getenv("COTTUS_TEST_DOTENV")).Equal("loaded")
	})
}
