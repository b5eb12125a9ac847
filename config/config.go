// Package config loads the settings for statement tracing and logging.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/simplesurance/sqlspan"
	"github.com/simplesurance/sqlspan/sqllog"
)

// Config holds the settings of the span and log collectors.
type Config struct {
	Tracing TracingConfig `koanf:"tracing"`
	Log     LogConfig     `koanf:"log"`
}

// TracingConfig configures sqlspan.SpanCollector and sqlspan.Interceptor.
type TracingConfig struct {
	OperationName string   `koanf:"operationname" validate:"required"`
	Component     string   `koanf:"component" validate:"required"`
	ExcludedOps   []string `koanf:"excludedops" validate:"dive,oneof=sql-conn-exec sql-conn-query sql-stmt-exec sql-stmt-query"`
}

// LogConfig configures sqllog.Collector.
type LogConfig struct {
	Enabled            bool          `koanf:"enabled"`
	Level              string        `koanf:"level" validate:"oneof=trace debug info warn error"`
	Pretty             bool          `koanf:"pretty"`
	SlowQueryThreshold time.Duration `koanf:"slowquerythreshold" validate:"gte=0"`
	MaxQueryLength     int           `koanf:"maxquerylength" validate:"gte=0"`
	Args               bool          `koanf:"args"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"tracing.operationname": sqlspan.DefaultOperationName,
		"tracing.component":     sqlspan.DefaultComponentName,
		"tracing.excludedops":   []string{},

		"log.enabled":            false,
		"log.level":              "info",
		"log.pretty":             false,
		"log.slowquerythreshold": sqllog.DefaultSlowQueryThreshold.String(),
		"log.maxquerylength":     sqllog.DefaultMaxQueryLength,
		"log.args":               false,
	}
}

// Load returns the default configuration overridden by the YAML files at
// paths. Later files take precedence.
func Load(paths ...string) (*Config, error) {
	k, err := newKoanf()
	if err != nil {
		return nil, err
	}

	for _, path := range paths {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s failed: %w", path, err)
		}
	}

	return unmarshal(k)
}

// Parse returns the default configuration overridden by the YAML document
// data.
func Parse(data []byte) (*Config, error) {
	k, err := newKoanf()
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing yaml failed: %w", err)
		}
	}

	return unmarshal(k)
}

func newKoanf() (*koanf.Koanf, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults failed: %w", err)
	}

	return k, nil
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config failed: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks that all settings in cfg have valid values.
func Validate(cfg *Config) error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
}

// CollectorOpts returns the options for sqlspan.NewSpanCollector.
func (c *TracingConfig) CollectorOpts() []sqlspan.CollectorOpt {
	return []sqlspan.CollectorOpt{
		sqlspan.WithNamer(sqlspan.StaticNamer(c.OperationName)),
		sqlspan.WithComponentName(c.Component),
	}
}

// InterceptorOpts returns the options for sqlspan.NewInterceptor and
// sqlspan.WrapDriver.
func (c *TracingConfig) InterceptorOpts() []sqlspan.Opt {
	if len(c.ExcludedOps) == 0 {
		return nil
	}

	ops := make([]sqlspan.SQLOp, len(c.ExcludedOps))
	for i, op := range c.ExcludedOps {
		ops[i] = sqlspan.SQLOp(op)
	}

	return []sqlspan.Opt{sqlspan.WithOpsExcluded(ops...)}
}

// CollectorOpts returns the options for sqllog.New.
func (c *LogConfig) CollectorOpts() []sqllog.Opt {
	opts := []sqllog.Opt{
		sqllog.WithSlowQueryThreshold(c.SlowQueryThreshold),
		sqllog.WithMaxQueryLength(c.MaxQueryLength),
	}

	if c.Args {
		opts = append(opts, sqllog.WithArgs())
	}

	return opts
}

// NewLogger returns a zerolog logger writing to w with the configured level.
// If w is nil, os.Stdout is used.
func (c *LogConfig) NewLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}

	if c.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

// NewCollector returns the collector pipeline described by c: a
// sqlspan.SpanCollector recording spans via tracer, chained to a
// sqllog.Collector if logging is enabled.
// w is passed to LogConfig.NewLogger.
func (c *Config) NewCollector(tracer sqlspan.Tracer, w io.Writer) *sqlspan.SpanCollector {
	opts := c.Tracing.CollectorOpts()

	if c.Log.Enabled {
		logCollector := sqllog.New(c.Log.NewLogger(w), c.Log.CollectorOpts()...)
		opts = append(opts, sqlspan.WithNext(logCollector))
	}

	return sqlspan.NewSpanCollector(tracer, opts...)
}
