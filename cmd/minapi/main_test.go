package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/minapi/internal/config"
	"github.com/vyrodovalexey/minapi/internal/observability"
	"github.com/vyrodovalexey/minapi/internal/router"
	"github.com/vyrodovalexey/minapi/internal/routes"
)

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("MINAPI_TEST_VAR", "from-env")

	assert.Equal(t, "from-env", getEnvOrDefault("MINAPI_TEST_VAR", "fallback"))
	assert.Equal(t, "fallback", getEnvOrDefault("MINAPI_TEST_VAR_UNSET", "fallback"))
}

func TestValueOrDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "set", valueOrDefault("set", "fallback"))
	assert.Equal(t, "fallback", valueOrDefault("", "fallback"))
}

func TestInitLogger(t *testing.T) {
	logger := initLogger(cliFlags{logLevel: "debug", logFormat: "console"})
	require.NotNil(t, logger)
}

func TestReconfigureLogger_FlagsWinOverConfig(t *testing.T) {
	bootstrap := observability.NopLogger()
	cfg := &config.Config{Log: config.Log{Level: "warn", Format: "json"}}

	logger := reconfigureLogger(bootstrap, cliFlags{logLevel: "debug"}, cfg)
	require.NotNil(t, logger)

	logger = reconfigureLogger(bootstrap, cliFlags{}, cfg)
	require.NotNil(t, logger)
}

func TestInitApplication(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Port = 0

	app := initApplication(cfg, observability.NopLogger())
	require.NotNil(t, app)
	assert.NotNil(t, app.server)
	assert.NotNil(t, app.metrics)
	assert.Greater(t, app.table.Len(), 0)
}

func TestInitApplication_ServesVersionRoute(t *testing.T) {
	table := router.NewTable()
	require.NoError(t, routes.Register(table, routes.ServiceInfo{Name: serviceName, Version: version}))

	_, _, err := table.Lookup("GET", "/version")
	require.NoError(t, err)
}
