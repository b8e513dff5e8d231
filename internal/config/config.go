// Package config holds the user settings record, its persistent store, and the
// process-level runtime configuration.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	apierrors "github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/models"
)

// SettingsKey is the storage key the settings record lives under
const SettingsKey = "agi_settings"

// Limits for numeric settings
const (
	MinTemperature     = 0.0
	MaxTemperature     = 2.0
	MinMaxOutputTokens = 1
	MaxMaxOutputTokens = 65536
)

// AppSettings is the flat user configuration record. JSON keys mirror the record
// persisted under SettingsKey.
type AppSettings struct {
	Provider           string  `json:"provider" yaml:"provider"`
	Model              string  `json:"model" yaml:"model"`
	Temperature        float64 `json:"temperature" yaml:"temperature"`
	MaxOutputTokens    int     `json:"maxOutputTokens" yaml:"maxOutputTokens"`
	Persona            string  `json:"persona" yaml:"persona"`
	Language           string  `json:"language" yaml:"language"`
	CustomInstructions string  `json:"customInstructions" yaml:"customInstructions"`
	Theme              string  `json:"theme" yaml:"theme"`
}

// DefaultSettings returns the documented defaults
func DefaultSettings() AppSettings {
	return AppSettings{
		Provider:           string(models.ProviderGemini),
		Model:              models.DefaultModel.Name,
		Temperature:        0.7,
		MaxOutputTokens:    2048,
		Persona:            PersonaAnalytical,
		Language:           "English",
		CustomInstructions: "",
		Theme:              "tokyonight",
	}
}

// AvailableThemes returns the TUI theme names a settings record may select
func AvailableThemes() []string {
	return []string{"tokyonight", "catppuccin", "nord", "light"}
}

// Validate reports the first invalid field, or nil
func (s AppSettings) Validate() error {
	if !models.Provider(s.Provider).Valid() {
		return apierrors.NewValidationError("provider", s.Provider, "must be one of gemini, gemini-rest, openai, ollama")
	}
	if strings.TrimSpace(s.Model) == "" {
		return apierrors.NewValidationError("model", s.Model, "must not be empty")
	}
	// JSON encoding would replace invalid bytes, so the stored record must be valid text
	for _, f := range []struct{ name, value string }{
		{"model", s.Model},
		{"language", s.Language},
		{"customInstructions", s.CustomInstructions},
	} {
		if !utf8.ValidString(f.value) {
			return apierrors.NewValidationError(f.name, f.value, "must be valid UTF-8 text")
		}
	}
	if math.IsNaN(s.Temperature) || s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		return apierrors.NewValidationError("temperature", s.Temperature, fmt.Sprintf("must be between %.1f and %.1f", MinTemperature, MaxTemperature))
	}
	if s.MaxOutputTokens < MinMaxOutputTokens || s.MaxOutputTokens > MaxMaxOutputTokens {
		return apierrors.NewValidationError("maxOutputTokens", s.MaxOutputTokens, fmt.Sprintf("must be between %d and %d", MinMaxOutputTokens, MaxMaxOutputTokens))
	}
	if _, ok := PersonaByName(s.Persona); !ok {
		return apierrors.NewValidationError("persona", s.Persona, "must be one of "+strings.Join(PersonaNames(), ", "))
	}
	if strings.TrimSpace(s.Language) == "" {
		return apierrors.NewValidationError("language", s.Language, "must not be empty")
	}
	if !contains(AvailableThemes(), s.Theme) {
		return apierrors.NewValidationError("theme", s.Theme, "must be one of "+strings.Join(AvailableThemes(), ", "))
	}
	return nil
}

// normalize resets every invalid field to its default and returns the names of the
// fields it replaced.
func (s AppSettings) normalize() (AppSettings, []string) {
	def := DefaultSettings()
	var replaced []string

	if !models.Provider(s.Provider).Valid() {
		s.Provider = def.Provider
		replaced = append(replaced, "provider")
	}
	if strings.TrimSpace(s.Model) == "" {
		s.Model = def.Model
		replaced = append(replaced, "model")
	}
	if math.IsNaN(s.Temperature) || s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		s.Temperature = def.Temperature
		replaced = append(replaced, "temperature")
	}
	if s.MaxOutputTokens < MinMaxOutputTokens || s.MaxOutputTokens > MaxMaxOutputTokens {
		s.MaxOutputTokens = def.MaxOutputTokens
		replaced = append(replaced, "maxOutputTokens")
	}
	if _, ok := PersonaByName(s.Persona); !ok {
		s.Persona = def.Persona
		replaced = append(replaced, "persona")
	}
	if strings.TrimSpace(s.Language) == "" {
		s.Language = def.Language
		replaced = append(replaced, "language")
	}
	if !contains(AvailableThemes(), s.Theme) {
		s.Theme = def.Theme
		replaced = append(replaced, "theme")
	}
	return s, replaced
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// GetDataDir returns the default data directory path (~/.agi)
func GetDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".agi"), nil
}

// EnsureDir creates dir with private permissions if it doesn't exist
func EnsureDir(dir string) (string, error) {
	// 0o700: the directory holds settings and the bolt database
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}
