// Package models contains data types and constants shared by the agi client.
package models

// Provider names a ResponseGateway backend
type Provider string

const (
	ProviderGemini     Provider = "gemini"
	ProviderGeminiREST Provider = "gemini-rest"
	ProviderOpenAI     Provider = "openai"
	ProviderOllama     Provider = "ollama"
)

// Endpoints
const (
	EndpointGeminiREST = "https://generativelanguage.googleapis.com/v1beta/models"
	EndpointOllama     = "http://127.0.0.1:11434"
)

// Model names a generation model and the provider that serves it
type Model struct {
	Name     string
	Provider Provider
}

// Known models, offered by the settings panel
var (
	Model25Flash = Model{Name: "gemini-2.5-flash", Provider: ProviderGemini}
	Model25Pro   = Model{Name: "gemini-2.5-pro", Provider: ProviderGemini}
	ModelGPT4o   = Model{Name: "gpt-4o-mini", Provider: ProviderOpenAI}
	ModelLlama   = Model{Name: "llama3.2", Provider: ProviderOllama}

	// DefaultModel is the recommended default
	DefaultModel = Model25Flash
)

// AllProviders returns every supported provider in display order
func AllProviders() []Provider {
	return []Provider{ProviderGemini, ProviderGeminiREST, ProviderOpenAI, ProviderOllama}
}

// Valid reports whether p is a supported provider
func (p Provider) Valid() bool {
	for _, known := range AllProviders() {
		if p == known {
			return true
		}
	}
	return false
}

// ModelsFor returns the suggested model names for a provider.
// gemini-rest shares the gemini catalog.
func ModelsFor(p Provider) []string {
	switch p {
	case ProviderGemini, ProviderGeminiREST:
		return []string{Model25Flash.Name, Model25Pro.Name}
	case ProviderOpenAI:
		return []string{ModelGPT4o.Name, "gpt-4o"}
	case ProviderOllama:
		return []string{ModelLlama.Name, "qwen2.5"}
	default:
		return nil
	}
}
