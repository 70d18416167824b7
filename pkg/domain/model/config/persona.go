package config

// Persona configures how the assistant presents itself to tenants
type Persona struct {
	// VendorName is the development company the assistant speaks for
	VendorName string
	// Language is the natural language replies are written in
	Language string
	// Greeting is a text/template rendered with the company name as the
	// first assistant turn of a session. Empty disables the greeting.
	Greeting string
	// Apology is the assistant turn recorded when the completion service fails
	Apology string
	// SystemPrompt replaces the built-in system instructions when set. It is
	// rendered as a text/template with the same data.
	SystemPrompt string
	// ExportPrefix is the first element of export file names
	ExportPrefix string
}

const (
	DefaultVendorName   = "Laplace"
	DefaultLanguage     = "Japanese"
	DefaultGreeting     = "こんにちは、{{.CompanyName}}様!\n\n株式会社{{.VendorName}}の開発支援チャットボットです。\n\nどのような課題やご要望がありますか?お気軽にお聞かせください。"
	DefaultApology      = "エラーが発生しました。もう一度お試しください。"
	DefaultExportPrefix = "laplace"
)

// DefaultPersona returns the persona used when no configuration is given
func DefaultPersona() *Persona {
	return &Persona{
		VendorName:   DefaultVendorName,
		Language:     DefaultLanguage,
		Greeting:     DefaultGreeting,
		Apology:      DefaultApology,
		ExportPrefix: DefaultExportPrefix,
	}
}

// WithDefaults fills empty fields from DefaultPersona. Greeting is left as is
// so that it can be disabled.
func (p *Persona) WithDefaults() *Persona {
	d := DefaultPersona()
	if p == nil {
		return d
	}
	merged := *p
	if merged.VendorName == "" {
		merged.VendorName = d.VendorName
	}
	if merged.Language == "" {
		merged.Language = d.Language
	}
	if merged.Apology == "" {
		merged.Apology = d.Apology
	}
	if merged.ExportPrefix == "" {
		merged.ExportPrefix = d.ExportPrefix
	}
	return &merged
}
