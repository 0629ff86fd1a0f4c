package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PRP_LLM_PROVIDER", "")
	t.Setenv("PRP_LLM_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("PRP_QUEUE_WORKERS", "not-a-number")

	cfg := LoadConfig()
	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.InDelta(t, 0.1, cfg.LLM.ExtractTemperature, 1e-6)
	assert.InDelta(t, 0.7, cfg.LLM.RefineTemperature, 1e-6)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, 2*time.Hour, cfg.Server.SessionTTL)
	require.NoError(t, cfg.Validate(true))
}

func TestLoadConfig_OpenAIKey(t *testing.T) {
	t.Setenv("PRP_LLM_PROVIDER", "OpenAI")
	t.Setenv("PRP_LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "o-key")

	cfg := LoadConfig()
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "o-key", cfg.LLM.APIKey)
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("PRP_LLM_MODEL", "from-env")
	t.Setenv("PRP_QUEUE_WORKERS", "2")

	path := filepath.Join(t.TempDir(), "prp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: openai
  model: from-file
  timeout: 5s
queue:
  size: 8
server:
  session_ttl: 30m
export:
  out_dir: /tmp/prp
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "from-file", cfg.LLM.Model)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.Queue.Workers)
	assert.Equal(t, 8, cfg.Queue.Size)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.Equal(t, "/tmp/prp", cfg.Export.OutDir)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := LoadConfig()
	cfg.LLM.APIKey = ""
	assert.NoError(t, cfg.Validate(false))
	assert.ErrorIs(t, cfg.Validate(true), ErrInvalidInput)

	cfg.LLM.Provider = "claude"
	assert.ErrorIs(t, cfg.Validate(false), ErrInvalidInput)
}
