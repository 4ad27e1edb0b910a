package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `server:
  addr: ":9000"
  logs_token: "secret"
  read_timeout: 3s
artifacts:
  manifest: "s3://models/eta/manifest.json"
  s3_region: "eu-west-3"
prediction_log:
  store:
    type: "sqlite"
    conf:
      path: "/var/lib/eta/predictions.db"
  async:
    enabled: true
    buffer_size: 256
    drop_on_full: true
deliveries:
  store:
    type: "postgres"
    conf:
      dsn: "postgres://eta@localhost/eta"
  indexed: true
metrics:
  sinks:
    - type: "nop"
events:
  sinks:
    - type: "redis"
      conf:
        url: "redis://localhost:6379"
sentry:
  dsn: ""
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"server.addr", cfg.Server.Addr, ":9000"},
		{"server.logs_token", cfg.Server.LogsToken, "secret"},
		{"server.read_timeout", cfg.Server.ReadTimeout, 3 * time.Second},
		{"server.write_timeout default", cfg.Server.WriteTimeout, 10 * time.Second},
		{"artifacts.manifest", cfg.Artifacts.Manifest, "s3://models/eta/manifest.json"},
		{"artifacts.cache_dir default", cfg.Artifacts.CacheDir, ".cache/artifacts"},
		{"prediction_log.store.type", cfg.PredictionLog.Store.Type, "sqlite"},
		{"prediction_log.store.path", cfg.PredictionLog.Store.Conf["path"], "/var/lib/eta/predictions.db"},
		{"prediction_log.async.enabled", cfg.PredictionLog.Async.Enabled, true},
		{"prediction_log.async.buffer_size", cfg.PredictionLog.Async.BufferSize, 256},
		{"prediction_log.async.drain_timeout default", cfg.PredictionLog.Async.DrainTimeout, 5 * time.Second},
		{"prediction_log.async.enqueue_timeout default", cfg.PredictionLog.Async.EnqueueTimeout, 50 * time.Millisecond},
		{"deliveries.store.type", cfg.Deliveries.Store.Type, "postgres"},
		{"deliveries.indexed", cfg.Deliveries.Indexed, true},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"events.topic default", cfg.Events.Topic, "deliveryeta/predictions"},
		{"events.sink", cfg.Events.Sinks[0].Type, "redis"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoad_JSONAndEnv(t *testing.T) {
	path := writeConfig(t, "config.json", `{"server":{"addr":":7000"}}`)
	t.Setenv("K_SERVER__ADDR", ":7001")
	t.Setenv("K_ARTIFACTS__MANIFEST", "bundle/manifest.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Server.Addr)
	assert.Equal(t, "bundle/manifest.json", cfg.Artifacts.Manifest)
	assert.Equal(t, "jsonl", cfg.PredictionLog.Store.Type)
	assert.Equal(t, "predictions.jsonl", cfg.PredictionLog.Store.Conf["path"])
	assert.Equal(t, "sqlite", cfg.Deliveries.Store.Type)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown store":    "prediction_log:\n  store:\n    type: carrier-pigeon\n",
		"unknown sink":     "metrics:\n  sinks:\n    - type: missing\n",
		"unknown broker":   "events:\n  sinks:\n    - type: kafka\n",
		"unknown delivery": "deliveries:\n  store:\n    type: mongo\n",
		"negative timeout": "server:\n  read_timeout: -1s\n",
		"auth without id":  "artifacts:\n  auth:\n    token_url: http://idp/token\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", data))
			assert.Error(t, err)
		})
	}

	_, err := Load(writeConfig(t, "config.toml", ""))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Addr)
}
