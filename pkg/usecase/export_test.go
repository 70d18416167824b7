package usecase

import "github.com/secmon-lab/cottus/pkg/domain/model/config"

// SanitizeFileName is exported for testing
var SanitizeFileName = sanitizeFileName

// RenderSystemPrompt is exported for testing
func RenderSystemPrompt(persona *config.Persona) (string, error) {
	return renderSystemPrompt(persona.WithDefaults())
}
