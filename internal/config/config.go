// Package config provides the configuration structure for storypipe.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/book-expert/storypipe/internal/story"
	"github.com/pelletier/go-toml/v2"
)

const (
	// ProjectFileName is the base configuration file looked up in the data directory.
	ProjectFileName = "project.toml"
	// ModelsFileName is the overlay that fills settings the base file leaves unset.
	ModelsFileName = "models.toml"

	defaultLogsDir          = "logs"
	defaultNATSURL          = "nats://127.0.0.1:4222"
	defaultExtractSubject   = "story.extract.requested"
	defaultDocumentsBucket  = "DOCUMENTS"
	defaultStoriesBucket    = "STORIES"
	defaultTTSServiceURL    = "http://127.0.0.1:8000"
	defaultTTSTimeout       = 300
	defaultTTSWorkers       = 2
	defaultDevice           = "cpu"
	defaultExaggeration     = 0.5
	defaultCFGWeight        = 0.5
	defaultTranscribeModel  = "whisper-1"
	defaultTranscribeURL    = "https://api.openai.com/v1"
	defaultAPIKeyEnv        = "OPENAI_API_KEY"
	defaultSentenceMinWords = 8
)

// ErrConfigNotFound indicates that an explicitly requested config file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL             string `toml:"url"`
	ExtractSubject  string `toml:"extract_subject"`
	DocumentsBucket string `toml:"documents_bucket"`
	StoriesBucket   string `toml:"stories_bucket"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	DataDir     string `toml:"data_dir"`
}

// TTSConfig holds the settings of the speech synthesis service.
type TTSConfig struct {
	ServiceURL     string  `toml:"service_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Workers        int     `toml:"workers"`
	Device         string  `toml:"device"`
	Exaggeration   float64 `toml:"exaggeration"`
	CFGWeight      float64 `toml:"cfg_weight"`
	PromptDir      string  `toml:"prompt_dir"`
}

// TranscribeConfig holds the settings of the transcription backend.
type TranscribeConfig struct {
	Model            string `toml:"model"`
	BaseURL          string `toml:"base_url"`
	APIKeyEnv        string `toml:"api_key_env"`
	Language         string `toml:"language"`
	ModelsDir        string `toml:"models_dir"`
	SentenceMinWords int    `toml:"sentence_min_words"`
}

// Config is the root configuration structure.
type Config struct {
	NATS       NATSConfig       `toml:"nats"`
	Paths      PathsConfig      `toml:"paths"`
	TTS        TTSConfig        `toml:"tts"`
	Transcribe TranscribeConfig `toml:"transcribe"`
	Extract    story.RuleConfig `toml:"extract"`
}

// Load loads the service configuration through the central configurator.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// LoadLayered builds the CLI configuration. The base file is explicitPath
// when given, otherwise <dataDir>/project.toml when present. Settings the
// base file leaves unset are then taken from <dataDir>/models.toml, and
// built-in defaults fill whatever remains. Relative asset directories are
// resolved under dataDir.
func LoadLayered(explicitPath, dataDir string) (*Config, string, error) {
	var cfg Config

	basePath := explicitPath
	if basePath != "" {
		if !fileExists(basePath) {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, basePath)
		}
	} else if dataDir != "" && fileExists(filepath.Join(dataDir, ProjectFileName)) {
		basePath = filepath.Join(dataDir, ProjectFileName)
	}

	if basePath != "" {
		err := decodeFile(basePath, &cfg)
		if err != nil {
			return nil, "", err
		}
	}

	if dataDir != "" {
		overlayPath := filepath.Join(dataDir, ModelsFileName)
		if fileExists(overlayPath) {
			var overlay Config

			err := decodeFile(overlayPath, &overlay)
			if err != nil {
				return nil, "", err
			}

			cfg.fillFrom(&overlay)
		}

		if cfg.Paths.DataDir == "" {
			cfg.Paths.DataDir = dataDir
		}

		cfg.TTS.PromptDir = ResolveUnder(dataDir, cfg.TTS.PromptDir)
		cfg.Transcribe.ModelsDir = ResolveUnder(dataDir, cfg.Transcribe.ModelsDir)
	}

	cfg.applyDefaults()

	return &cfg, basePath, nil
}

// Parse decodes TOML data into a Config with defaults applied.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	err := toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// RuleSet compiles the [extract] section, falling back to the built-in
// collections for any that are empty.
func (c *Config) RuleSet() (*story.RuleSet, error) {
	rules, err := story.NewRuleSet(c.Extract.WithDefaults())
	if err != nil {
		return nil, fmt.Errorf("invalid [extract] rules: %w", err)
	}

	return rules, nil
}

// APIKey returns the transcription API key from the configured variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.Transcribe.APIKeyEnv)
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}

	return data, nil
}

func (c *Config) applyDefaults() {
	fillString(&c.NATS.URL, defaultNATSURL)
	fillString(&c.NATS.ExtractSubject, defaultExtractSubject)
	fillString(&c.NATS.DocumentsBucket, defaultDocumentsBucket)
	fillString(&c.NATS.StoriesBucket, defaultStoriesBucket)

	if c.Paths.BaseLogsDir == "" {
		c.Paths.BaseLogsDir = filepath.Join(os.TempDir(), "storypipe", defaultLogsDir)
	}

	if c.TTS.ServiceURL == "" {
		c.TTS.ServiceURL = defaultTTSServiceURL
	}

	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeout
	}

	if c.TTS.Workers <= 0 {
		c.TTS.Workers = defaultTTSWorkers
	}

	if c.TTS.Device == "" {
		c.TTS.Device = defaultDevice
	}

	if c.TTS.Exaggeration == 0 {
		c.TTS.Exaggeration = defaultExaggeration
	}

	if c.TTS.CFGWeight == 0 {
		c.TTS.CFGWeight = defaultCFGWeight
	}

	if c.Transcribe.Model == "" {
		c.Transcribe.Model = defaultTranscribeModel
	}

	if c.Transcribe.BaseURL == "" {
		c.Transcribe.BaseURL = defaultTranscribeURL
	}

	if c.Transcribe.APIKeyEnv == "" {
		c.Transcribe.APIKeyEnv = defaultAPIKeyEnv
	}

	if c.Transcribe.SentenceMinWords <= 0 {
		c.Transcribe.SentenceMinWords = defaultSentenceMinWords
	}
}

// fillFrom copies overlay settings into fields c leaves at their zero value.
// Explicit values in c always win.
func (c *Config) fillFrom(overlay *Config) {
	fillString(&c.TTS.ServiceURL, overlay.TTS.ServiceURL)
	fillString(&c.TTS.Device, overlay.TTS.Device)
	fillString(&c.TTS.PromptDir, overlay.TTS.PromptDir)
	fillInt(&c.TTS.TimeoutSeconds, overlay.TTS.TimeoutSeconds)
	fillInt(&c.TTS.Workers, overlay.TTS.Workers)
	fillFloat(&c.TTS.Exaggeration, overlay.TTS.Exaggeration)
	fillFloat(&c.TTS.CFGWeight, overlay.TTS.CFGWeight)

	fillString(&c.Transcribe.Model, overlay.Transcribe.Model)
	fillString(&c.Transcribe.BaseURL, overlay.Transcribe.BaseURL)
	fillString(&c.Transcribe.APIKeyEnv, overlay.Transcribe.APIKeyEnv)
	fillString(&c.Transcribe.Language, overlay.Transcribe.Language)
	fillString(&c.Transcribe.ModelsDir, overlay.Transcribe.ModelsDir)
	fillInt(&c.Transcribe.SentenceMinWords, overlay.Transcribe.SentenceMinWords)
}

func fillString(target *string, value string) {
	if *target == "" {
		*target = value
	}
}

func fillInt(target *int, value int) {
	if *target == 0 {
		*target = value
	}
}

func fillFloat(target *float64, value float64) {
	if *target == 0 {
		*target = value
	}
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read configuration %s: %w", path, err)
	}

	err = toml.Unmarshal(data, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse configuration %s: %w", path, err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}
