package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/diogo/agi/internal/models"
	"github.com/diogo/agi/internal/storage"
)

// Runtime is the process-level configuration: where data lives, how to log, and the
// credentials for each provider. It comes from flags and environment, never from the
// persisted settings record.
type Runtime struct {
	DataDir        string
	Storage        storage.Backend
	LogLevel       string
	RequestTimeout time.Duration

	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaHost    string

	// Session-only overrides applied on top of the persisted settings
	ProviderOverride string
	ModelOverride    string
}

// Viper keys
const (
	KeyDataDir        = "data_dir"
	KeyStorage        = "storage"
	KeyLogLevel       = "log_level"
	KeyRequestTimeout = "request_timeout"
	KeyGeminiAPIKey   = "gemini_api_key"
	KeyOpenAIAPIKey   = "openai_api_key"
	KeyOpenAIBaseURL  = "openai_base_url"
	KeyOllamaHost     = "ollama_host"
	KeyProvider       = "provider"
	KeyModel          = "model"
)

// NewViper returns a viper instance with defaults and environment bindings.
// Every key reads AGI_<KEY>; provider keys also accept their conventional names.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("AGI")
	v.AutomaticEnv()

	dataDir, err := GetDataDir()
	if err != nil {
		dataDir = ".agi"
	}
	v.SetDefault(KeyDataDir, dataDir)
	v.SetDefault(KeyStorage, string(storage.BackendBolt))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyRequestTimeout, "120s")
	v.SetDefault(KeyOllamaHost, models.EndpointOllama)

	_ = v.BindEnv(KeyGeminiAPIKey, "AGI_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	_ = v.BindEnv(KeyOpenAIAPIKey, "AGI_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv(KeyOllamaHost, "AGI_OLLAMA_HOST", "OLLAMA_HOST")

	return v
}

// LoadRuntime reads the runtime configuration out of v
func LoadRuntime(v *viper.Viper) (Runtime, error) {
	rt := Runtime{
		DataDir:          v.GetString(KeyDataDir),
		Storage:          storage.Backend(v.GetString(KeyStorage)),
		LogLevel:         v.GetString(KeyLogLevel),
		RequestTimeout:   v.GetDuration(KeyRequestTimeout),
		GeminiAPIKey:     v.GetString(KeyGeminiAPIKey),
		OpenAIAPIKey:     v.GetString(KeyOpenAIAPIKey),
		OpenAIBaseURL:    v.GetString(KeyOpenAIBaseURL),
		OllamaHost:       v.GetString(KeyOllamaHost),
		ProviderOverride: v.GetString(KeyProvider),
		ModelOverride:    v.GetString(KeyModel),
	}

	switch rt.Storage {
	case storage.BackendBolt, storage.BackendFile, storage.BackendMemory:
	default:
		return rt, fmt.Errorf("invalid storage backend %q (want bolt, file or memory)", rt.Storage)
	}
	if rt.RequestTimeout <= 0 {
		return rt, fmt.Errorf("invalid request timeout %q", v.GetString(KeyRequestTimeout))
	}
	if rt.ProviderOverride != "" && !models.Provider(rt.ProviderOverride).Valid() {
		return rt, fmt.Errorf("invalid provider %q", rt.ProviderOverride)
	}
	return rt, nil
}

// Effective applies the session-only overrides to s
func (rt Runtime) Effective(s AppSettings) AppSettings {
	if rt.ProviderOverride != "" {
		s.Provider = rt.ProviderOverride
	}
	if rt.ModelOverride != "" {
		s.Model = rt.ModelOverride
	}
	return s
}
