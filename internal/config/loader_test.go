package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  bind: 127.0.0.1
  port: 9000
  workers: 8
  timeouts:
    read: 10s
    write: 15s
log:
  level: debug
  format: console
metrics:
  enabled: true
  port: 9100
`

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Bind)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Server.Workers)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9100, cfg.Metrics.Port)
}

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader("server:\n  port: 8080\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBind, cfg.Server.Bind)
	assert.Equal(t, DefaultWorkers, cfg.Server.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFromReader_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadFromReader(strings.NewReader("server: ["))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "YAML")
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "minapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("MINAPI_TEST_PORT", "9999")

	cfg, err := LoadFromReader(strings.NewReader("server:\n  port: ${MINAPI_TEST_PORT}\n"))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestSubstituteEnvVars_Default(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(
		"server:\n  port: ${MINAPI_UNSET_PORT:-8088}\n  bind: ${MINAPI_UNSET_BIND:-}\n"))
	require.NoError(t, err)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, DefaultBind, cfg.Server.Bind)
}

func TestSubstituteEnvVars_EscapedDollar(t *testing.T) {
	t.Parallel()

	result := substituteEnvVars("bind: $${NOT_A_VAR}")
	assert.Equal(t, "bind: ${NOT_A_VAR}", result)
}

func TestTimeouts_Effective(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "10s", cfg.Server.Timeouts.Read.String())
	assert.Equal(t, "15s", cfg.Server.Timeouts.Write.String())

	var unset *Timeouts
	assert.Equal(t, DefaultReadTimeout, unset.GetEffectiveReadTimeout())
	assert.Equal(t, DefaultWriteTimeout, unset.GetEffectiveWriteTimeout())
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultWorkers, cfg.Server.Workers)
	assert.NoError(t, Validate(cfg))
}
