package config_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	opentracing_go "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/simplesurance/sqlspan"
	"github.com/simplesurance/sqlspan/config"
	"github.com/simplesurance/sqlspan/sqllog"
	"github.com/simplesurance/sqlspan/tracing/opentracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, sqlspan.DefaultOperationName, cfg.Tracing.OperationName)
	assert.Equal(t, sqlspan.DefaultComponentName, cfg.Tracing.Component)
	assert.Empty(t, cfg.Tracing.ExcludedOps)
	assert.False(t, cfg.Log.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, sqllog.DefaultSlowQueryThreshold, cfg.Log.SlowQueryThreshold)
	assert.Equal(t, sqllog.DefaultMaxQueryLength, cfg.Log.MaxQueryLength)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := config.Parse([]byte(`
tracing:
  operationname: db-query
  component: billing
  excludedops:
    - sql-stmt-exec
log:
  enabled: true
  level: debug
  slowquerythreshold: 1s
  maxquerylength: 80
`))
	require.NoError(t, err)

	assert.Equal(t, "db-query", cfg.Tracing.OperationName)
	assert.Equal(t, "billing", cfg.Tracing.Component)
	assert.Equal(t, []string{"sql-stmt-exec"}, cfg.Tracing.ExcludedOps)
	assert.True(t, cfg.Log.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, time.Second, cfg.Log.SlowQueryThreshold)
	assert.Equal(t, 80, cfg.Log.MaxQueryLength)
	assert.Len(t, cfg.Tracing.InterceptorOpts(), 1)
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown-op":      "tracing:\n  excludedops: [sql-rows-next]\n",
		"empty-name":      "tracing:\n  operationname: \"\"\n",
		"unknown-level":   "log:\n  level: verbose\n",
		"negative-length": "log:\n  maxquerylength: -1\n",
		"malformed-yaml":  "tracing: [",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.yaml")
	require.NoError(t, os.WriteFile(base, []byte("tracing:\n  component: base\nlog:\n  level: warn\n"), 0o600))

	override := filepath.Join(dir, "override.yaml")
	require.NoError(t, os.WriteFile(override, []byte("tracing:\n  component: override\n"), 0o600))

	cfg, err := config.Load(base, override)
	require.NoError(t, err)

	assert.Equal(t, "override", cfg.Tracing.Component)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewCollector(t *testing.T) {
	cfg, err := config.Parse([]byte(`
tracing:
  operationname: db-query
  component: billing
log:
  enabled: true
  level: debug
`))
	require.NoError(t, err)

	mockTracer := mocktracer.New()
	tracer := opentracing.NewTracer(opentracing.WithTracer(func() opentracing_go.Tracer { return mockTracer }))

	var buf bytes.Buffer
	collector := cfg.NewCollector(tracer, &buf)

	collector.Collect(&sqlspan.ExecutionContext{
		Context: context.Background(),
		Query:   "SELECT 1",
	})

	spans := mockTracer.FinishedSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "db-query", spans[0].OperationName)
	assert.Equal(t, "billing", spans[0].Tag(sqlspan.ComponentTagKey))
	assert.Contains(t, buf.String(), "sql statement executed")
}
