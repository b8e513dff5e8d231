package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	apierrors "github.com/diogo/agi/internal/errors"
	"github.com/diogo/agi/internal/storage"
)

// SettingsStore owns the in-memory AppSettings and their persisted copy. It is the only
// writer of both.
type SettingsStore struct {
	kv     storage.KV
	logger zerolog.Logger

	mu      sync.RWMutex
	current AppSettings
}

// NewSettingsStore creates the store and loads the persisted settings
func NewSettingsStore(kv storage.KV, logger zerolog.Logger) *SettingsStore {
	s := &SettingsStore{
		kv:      kv,
		logger:  logger.With().Str("component", "settings").Logger(),
		current: DefaultSettings(),
	}
	s.Load()
	return s
}

// Load reads the settings from storage and makes them current. Missing or corrupt data
// yields the defaults; failures are logged, never returned.
func (s *SettingsStore) Load() AppSettings {
	loaded := s.read()

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	return loaded
}

func (s *SettingsStore) read() AppSettings {
	data, found, err := s.kv.Get(SettingsKey)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", SettingsKey).Msg("failed to read settings, using defaults")
		return DefaultSettings()
	}
	if !found {
		return DefaultSettings()
	}

	cfg := DefaultSettings()
	if err := json.Unmarshal(data, &cfg); err != nil {
		perr := apierrors.NewParseError(err.Error(), SettingsKey)
		s.logger.Warn().Err(perr).Msg("failed to load settings, using defaults")
		return DefaultSettings()
	}

	cfg, replaced := cfg.normalize()
	if len(replaced) > 0 {
		s.logger.Warn().Strs("fields", replaced).Msg("invalid settings fields reset to defaults")
	}
	return cfg
}

// Current returns a copy of the in-memory settings
func (s *SettingsStore) Current() AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save validates next, writes it to storage and makes it current. On any error
// neither the memory copy nor storage changes.
func (s *SettingsStore) Save(next AppSettings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Put(SettingsKey, data); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist settings")
		return fmt.Errorf("%w: %v", apierrors.ErrSettingsNotSaved, err)
	}
	s.current = next

	s.logger.Info().
		Str("provider", next.Provider).
		Str("model", next.Model).
		Str("persona", next.Persona).
		Msg("settings saved")
	return nil
}

// Reset saves the default settings
func (s *SettingsStore) Reset() error {
	return s.Save(DefaultSettings())
}

// SettingFields returns the recognized field names, sorted
func SettingFields() []string {
	fields := make([]string, 0, len(setters))
	for k := range setters {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

var setters = map[string]func(*AppSettings, string) error{
	"provider": func(s *AppSettings, v string) error { s.Provider = v; return nil },
	"model":    func(s *AppSettings, v string) error { s.Model = v; return nil },
	"temperature": func(s *AppSettings, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return apierrors.NewValidationError("temperature", v, "not a number")
		}
		s.Temperature = f
		return nil
	},
	"maxOutputTokens": func(s *AppSettings, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return apierrors.NewValidationError("maxOutputTokens", v, "not an integer")
		}
		s.MaxOutputTokens = n
		return nil
	},
	"persona":            func(s *AppSettings, v string) error { s.Persona = v; return nil },
	"language":           func(s *AppSettings, v string) error { s.Language = v; return nil },
	"customInstructions": func(s *AppSettings, v string) error { s.CustomInstructions = v; return nil },
	"theme":              func(s *AppSettings, v string) error { s.Theme = v; return nil },
}

// Apply parses "field=value" assignments onto a copy of base
func Apply(base AppSettings, assignments []string) (AppSettings, error) {
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return base, fmt.Errorf("invalid assignment %q (want field=value)", a)
		}
		set, ok := setters[strings.TrimSpace(key)]
		if !ok {
			return base, fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(SettingFields(), ", "))
		}
		if err := set(&base, strings.TrimSpace(value)); err != nil {
			return base, err
		}
	}
	return base, nil
}
