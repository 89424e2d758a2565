package config

import (
	"errors"
	"testing"

	"github.com/ohowland/lvnet/internal/pkg/engine"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/env"
	"gotest.tools/v3/fs"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.NilError(t, err)
	assert.Equal(t, cfg.Engine.CosPhi, 0.95)
	assert.Equal(t, cfg.Engine.Workers, 4)
	assert.Equal(t, cfg.HTTP.Port, 8080)
	assert.Equal(t, cfg.Log.Level, "info")
	assert.Equal(t, cfg.Addr(), "0.0.0.0:8080")
	assert.Equal(t, cfg.Streams.MongoDB, "")
}

func TestLoadFile(t *testing.T) {
	dir := fs.NewDir(t, "config", fs.WithFile("lvnet.json", `{
  "engine": {"cos_phi": 0.9, "workers": 8},
  "http": {"port": 9000},
  "log": {"level": "debug", "development": true},
  "streams": {"nats": "/etc/lvnet/nats.json"}
}`))

	cfg, err := LoadConfig(dir.Join("lvnet.json"))
	assert.NilError(t, err)
	assert.Equal(t, cfg.Engine.CosPhi, 0.9)
	assert.Equal(t, cfg.Engine.Workers, 8)
	assert.Equal(t, cfg.HTTP.Port, 9000)
	assert.Equal(t, cfg.HTTP.Host, "0.0.0.0")
	assert.Assert(t, cfg.Log.Development)
	assert.Equal(t, cfg.Streams.NATS, "/etc/lvnet/nats.json")
}

func TestEnvironmentOverrides(t *testing.T) {
	defer env.Patch(t, "LVNET_HTTP_PORT", "7070")()
	defer env.Patch(t, "LVNET_ENGINE_COS_PHI", "0.85")()

	cfg, err := LoadConfig("")
	assert.NilError(t, err)
	assert.Equal(t, cfg.HTTP.Port, 7070)
	assert.Equal(t, cfg.Engine.CosPhi, 0.85)
}

func TestInvalid(t *testing.T) {
	defer env.Patch(t, "LVNET_ENGINE_COS_PHI", "1.3")()
	_, err := LoadConfig("")
	assert.Assert(t, errors.Is(err, engine.ErrInvalidPowerFactor))

	_, err = LoadConfig("/nonexistent/lvnet.json")
	assert.ErrorContains(t, err, "error reading config file")

	cfg := Config{Engine: engine.DefaultConfig()}
	assert.ErrorContains(t, cfg.Validate(), "invalid HTTP port: 0")
}
