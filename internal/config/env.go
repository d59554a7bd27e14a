// Package config loads the CLI and HTTP front ends' own process
// environment. The core library never reads configuration files or
// process environment itself (spec §1 excludes "configuration file
// loading" from the core); this package exists only for the external
// collaborators in spec §6.
package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"

	"github.com/paiml/bashrs-sub019/internal/reportsink"
)

// Env holds the bashrs CLI/HTTP front end's environment configuration.
type Env struct {
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	FailSeverity string `envconfig:"FAIL_SEVERITY" default:"warning"`

	ReportSink string `envconfig:"REPORT_SINK" default:"local"` // "local" or "s3"
	ReportDir  string `envconfig:"REPORT_DIR" default:".bashrs/reports"`

	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"bashrs/"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
}

const namespace = "BASHRS"

// LoadEnv reads BASHRS_* environment variables into an Env.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

// SlogLevel parses LogLevel into a slog.Level, defaulting to Info on a
// malformed value rather than failing the process.
func (e *Env) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewStorage builds the report sink e.ReportSink selects: "s3" persists
// through S3Storage against e.S3Bucket/S3Prefix/S3Region, anything else
// (including the "local" default) persists under e.ReportDir.
func (e *Env) NewStorage(ctx context.Context) (reportsink.Storage, error) {
	if e.ReportSink == "s3" {
		return reportsink.NewS3Storage(ctx, e.S3Bucket, e.S3Prefix, e.S3Region)
	}
	return reportsink.NewLocalStorage(e.ReportDir), nil
}
