package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/learnpath/internal/learning"
	"github.com/abhisek/learnpath/internal/llm"
)

// isolate points XDG and vendor key variables away from the real user.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	for _, k := range []string{
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY",
		"LEARNPATH_DB", "LEARNPATH_LLM_PROVIDER", "LEARNPATH_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.File)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, learning.DefaultSettings(), cfg.Settings())
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "claude-haiku", cfg.LLM.Anthropic.Model)

	lc := cfg.LLMConfig()
	assert.Empty(t, lc.Provider)
	assert.Equal(t, llm.DefaultConfig().Retry, lc.Retry)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "learnpath", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(`
db: /tmp/from-file.db
learner:
  name: Ada Lovelace
paths:
  default_color: "#10B981"
  auto_save: false
llm:
  provider: openai
  timeout: 30s
  openai:
    model: gpt
`), 0o644))

	t.Setenv("LEARNPATH_LLM_OPENAI_API_KEY", "env-key")
	t.Setenv("LEARNPATH_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("db", "", "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--db", "/tmp/from-flag.db"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, file, cfg.File)
	assert.Equal(t, "/tmp/from-flag.db", cfg.DB, "flag beats file")
	assert.Equal(t, "debug", cfg.Log.Level, "env beats default")
	assert.Equal(t, "Ada Lovelace", cfg.Learner.Name)
	assert.Equal(t, learning.Settings{AutoSave: false, DefaultColor: "#10B981"}, cfg.Settings())

	lc := cfg.LLMConfig()
	assert.Equal(t, llm.ProviderOpenAI, lc.Provider)
	assert.Equal(t, "env-key", lc.OpenAI.APIKey)
	assert.Equal(t, "gpt", lc.OpenAI.Model)
	assert.Equal(t, 30*time.Second, lc.Timeout)
	assert.NoError(t, lc.Validate())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLLMConfigDiscoversVendorKey(t *testing.T) {
	isolate(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	cfg, err := Load("", nil)
	require.NoError(t, err)

	lc := cfg.LLMConfig()
	assert.Equal(t, llm.ProviderAnthropic, lc.Provider)
	assert.Equal(t, "sk-ant", lc.Anthropic.APIKey)
}

func TestDBPath(t *testing.T) {
	dir := isolate(t)
	cfg := &Config{}
	p, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "learnpath", "learnpath.db"), p)

	cfg.DB = filepath.Join(dir, "nested", "x.db")
	p, err = cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, cfg.DB, p)
	assert.DirExists(t, filepath.Join(dir, "nested"))
}
