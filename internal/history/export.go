// Package history renders a conversation session into shareable transcripts.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/diogo/agi/internal/config"
	"github.com/diogo/agi/internal/models"
)

// ExportFormat represents the format for exporting a transcript
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
	ExportFormatYAML     ExportFormat = "yaml"
)

// ParseFormat resolves a user-supplied format name. Empty means markdown.
func ParseFormat(name string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "md", "markdown":
		return ExportFormatMarkdown, nil
	case "json":
		return ExportFormatJSON, nil
	case "yaml", "yml":
		return ExportFormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want md, json or yaml)", name)
	}
}

// Extension returns the file extension for f, without the dot
func (f ExportFormat) Extension() string {
	switch f {
	case ExportFormatJSON:
		return "json"
	case ExportFormatYAML:
		return "yaml"
	default:
		return "md"
	}
}

// Transcript is a snapshot of a session ready for export
type Transcript struct {
	SessionID  string           `json:"session_id" yaml:"session_id"`
	Provider   string           `json:"provider" yaml:"provider"`
	Model      string           `json:"model" yaml:"model"`
	Persona    string           `json:"persona" yaml:"persona"`
	ExportedAt time.Time        `json:"exported_at" yaml:"exported_at"`
	Messages   []models.Message `json:"messages" yaml:"messages"`
}

// NewTranscript snapshots a session taken with the given settings
func NewTranscript(sessionID string, msgs []models.Message, settings config.AppSettings, now time.Time) Transcript {
	return Transcript{
		SessionID:  sessionID,
		Provider:   settings.Provider,
		Model:      settings.Model,
		Persona:    settings.Persona,
		ExportedAt: now,
		Messages:   models.CloneMessages(msgs),
	}
}

// Export renders t in the given format
func Export(t Transcript, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatMarkdown:
		return []byte(ToMarkdown(t)), nil
	case ExportFormatJSON:
		return json.MarshalIndent(t, "", "  ")
	case ExportFormatYAML:
		return yaml.Marshal(t)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// ToMarkdown renders t as a Markdown document
func ToMarkdown(t Transcript) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# AGI conversation\n\n")

	// Metadata
	sb.WriteString("**Session:** ")
	sb.WriteString(t.SessionID)
	sb.WriteString("\n")
	sb.WriteString("**Model:** ")
	sb.WriteString(t.Model)
	if t.Provider != "" {
		sb.WriteString(" (")
		sb.WriteString(t.Provider)
		sb.WriteString(")")
	}
	sb.WriteString("\n")
	if t.Persona != "" {
		sb.WriteString("**Persona:** ")
		sb.WriteString(t.Persona)
		sb.WriteString("\n")
	}
	sb.WriteString("**Exported:** ")
	sb.WriteString(t.ExportedAt.Format("2006-01-02 15:04:05"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("**Messages:** %d", len(t.Messages)))
	sb.WriteString("\n\n---\n\n")

	// Messages
	for i, msg := range t.Messages {
		sb.WriteString("## ")
		sb.WriteString(msg.Role.Label())
		sb.WriteString("\n\n")
		sb.WriteString(msg.Text)
		sb.WriteString("\n")

		// Separator between messages (except last)
		if i < len(t.Messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

// Filename returns the export file name for t
func Filename(t Transcript, format ExportFormat) string {
	id := t.SessionID
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		id = "session"
	}
	return fmt.Sprintf("agi-%s-%s.%s", id, t.ExportedAt.Format("20060102-150405"), format.Extension())
}

// WriteFile exports t into dir and returns the path written
func WriteFile(dir string, t Transcript, format ExportFormat) (string, error) {
	data, err := Export(t, format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, Filename(t, format))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	return path, nil
}
