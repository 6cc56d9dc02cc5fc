// Package config_test tests the configuration loading for storypipe.
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/storypipe/internal/config"
	"github.com/book-expert/storypipe/internal/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)
}

func TestParse(t *testing.T) {
	t.Parallel()

	tomlData := `
[nats]
url = "nats://127.0.0.1:4222"
extract_subject = "story.extract"
documents_bucket = "DOCUMENTS"
stories_bucket = "STORIES"

[paths]
base_logs_dir = "/var/log/storypipe"

[tts]
service_url = "http://tts.local:9000"
timeout_seconds = 60
workers = 4
device = "cuda"
exaggeration = 0.7

[transcribe]
model = "large-v3"
language = "en"

[extract]
drop_domains = ["example.org"]
`

	cfg, err := config.Parse([]byte(tomlData))
	require.NoError(t, err)

	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "story.extract", cfg.NATS.ExtractSubject)
	assert.Equal(t, "DOCUMENTS", cfg.NATS.DocumentsBucket)
	assert.Equal(t, "STORIES", cfg.NATS.StoriesBucket)
	assert.Equal(t, "/var/log/storypipe", cfg.Paths.BaseLogsDir)
	assert.Equal(t, "http://tts.local:9000", cfg.TTS.ServiceURL)
	assert.Equal(t, 60, cfg.TTS.TimeoutSeconds)
	assert.Equal(t, 4, cfg.TTS.Workers)
	assert.Equal(t, "cuda", cfg.TTS.Device)
	assert.InEpsilon(t, 0.7, cfg.TTS.Exaggeration, 0.001)
	assert.InEpsilon(t, 0.5, cfg.TTS.CFGWeight, 0.001)
	assert.Equal(t, "large-v3", cfg.Transcribe.Model)
	assert.Equal(t, "en", cfg.Transcribe.Language)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Transcribe.APIKeyEnv)
	assert.Equal(t, 8, cfg.Transcribe.SentenceMinWords)
	assert.Equal(t, []string{"example.org"}, cfg.Extract.DropDomains)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	_, err := config.Parse([]byte("[tts\nworkers = "))
	require.Error(t, err)
}

func TestConfig_RuleSet(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte("[extract]\ndrop_domains = [\"example.org\"]\n"))
	require.NoError(t, err)

	rules, err := cfg.RuleSet()
	require.NoError(t, err)

	result := story.Sanitize("Read more at example.org today\nThe bear slept all winter long.", rules)
	assert.Equal(t, "The bear slept all winter long.", result)
	assert.Equal(t, story.DefaultRuleConfig().DropPhrases, rules.Phrases())
}

func TestConfig_RuleSetInvalidPattern(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte("[extract]\ndrop_line_patterns = [\"(broken\"]\n"))
	require.NoError(t, err)

	_, err = cfg.RuleSet()
	require.ErrorIs(t, err, story.ErrInvalidPattern)
}

func TestLoadLayered_OverlayFillsUnsetKeys(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()

	writeFile(t, filepath.Join(dataDir, config.ProjectFileName), `
[tts]
device = "mps"
`)
	writeFile(t, filepath.Join(dataDir, config.ModelsFileName), `
[tts]
device = "cuda"
service_url = "http://overlay:8000"
prompt_dir = "voices"

[transcribe]
model = "small"
models_dir = "/opt/models"
`)

	cfg, basePath, err := config.LoadLayered("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dataDir, config.ProjectFileName), basePath)
	assert.Equal(t, "mps", cfg.TTS.Device)
	assert.Equal(t, "http://overlay:8000", cfg.TTS.ServiceURL)
	assert.Equal(t, filepath.Join(dataDir, "voices"), cfg.TTS.PromptDir)
	assert.Equal(t, "small", cfg.Transcribe.Model)
	assert.Equal(t, "/opt/models", cfg.Transcribe.ModelsDir)
	assert.Equal(t, dataDir, cfg.Paths.DataDir)
}

func TestLoadLayered_ExplicitPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	explicit := filepath.Join(dir, "custom.toml")
	writeFile(t, explicit, "[tts]\nworkers = 7\n")

	cfg, basePath, err := config.LoadLayered(explicit, "")
	require.NoError(t, err)

	assert.Equal(t, explicit, basePath)
	assert.Equal(t, 7, cfg.TTS.Workers)
	assert.Equal(t, "cpu", cfg.TTS.Device)
}

func TestLoadLayered_MissingExplicitPath(t *testing.T) {
	t.Parallel()

	_, _, err := config.LoadLayered(filepath.Join(t.TempDir(), "missing.toml"), "")
	require.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestLoadLayered_Defaults(t *testing.T) {
	t.Parallel()

	cfg, basePath, err := config.LoadLayered("", "")
	require.NoError(t, err)

	assert.Empty(t, basePath)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.TTS.ServiceURL)
	assert.Equal(t, 2, cfg.TTS.Workers)
	assert.Equal(t, "whisper-1", cfg.Transcribe.Model)
	assert.Equal(t, "story.extract.requested", cfg.NATS.ExtractSubject)
	assert.Equal(t, "DOCUMENTS", cfg.NATS.DocumentsBucket)
}

func TestConfig_Encode(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse([]byte("[tts]\ndevice = \"cuda\"\n"))
	require.NoError(t, err)

	data, err := cfg.Encode()
	require.NoError(t, err)

	assert.Contains(t, string(data), "[tts]")
	assert.Contains(t, string(data), "cuda")
}

func TestResolveUnder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     string
		value    string
		expected string
	}{
		{name: "empty value", base: "/data", value: "", expected: ""},
		{name: "absolute value", base: "/data", value: "/models", expected: "/models"},
		{name: "relative value", base: "/data", value: "models/tts", expected: "/data/models/tts"},
		{name: "no base", base: "", value: "models", expected: "models"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, config.ResolveUnder(testCase.base, testCase.value))
		})
	}
}

func TestResolveDataDir_FromEnvironment(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv(config.EnvDataDir, dataDir)

	assert.Equal(t, dataDir, config.ResolveDataDir())
}

func TestResolveDataDir_SecondaryVariable(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv(config.EnvDataDir, "")
	t.Setenv(config.EnvDataPath, dataDir)

	assert.Equal(t, dataDir, config.ResolveDataDir())
}

func TestResolveDataDir_MissingEnvironmentDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	t.Setenv(config.EnvDataDir, missing)

	assert.NotEqual(t, missing, config.ResolveDataDir())
}
