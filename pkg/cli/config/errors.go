package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound  = goerr.New("configuration file not found")
	ErrInvalidConfig   = goerr.New("invalid configuration")
	ErrInvalidTemplate = goerr.New("invalid persona template")
	ErrInvalidBackend  = goerr.New("invalid repository backend")
	ErrInvalidProvider = goerr.New("invalid LLM provider")
	ErrMissingValue    = goerr.New("required configuration value is missing")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	FieldKey      = "field"
	BackendKey    = "backend"
	ProviderKey   = "provider"
)
