// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates tuner service configuration.
//
// Precedence, lowest to highest: built-in defaults, a YAML (or JSON) file,
// then TUNER_* environment variables. The merged result is validated with
// go-playground/validator struct tags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianTune/services/tuner/bandit"
	"github.com/AleutianAI/AleutianTune/services/tuner/optimizer"
	"github.com/AleutianAI/AleutianTune/services/tuner/stats"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TUNER_"

// Config is the full service configuration.
type Config struct {
	// Server contains HTTP listener settings.
	Server ServerConfig `json:"server" yaml:"server"`

	// Bandit contains bandit registry settings.
	Bandit BanditConfig `json:"bandit" yaml:"bandit"`

	// Optimizer holds the default hill-climber parameters.
	Optimizer optimizer.Params `json:"optimizer" yaml:"optimizer"`

	// Training contains training job settings.
	Training TrainingConfig `json:"training" yaml:"training"`

	// Logging contains logger settings.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Telemetry contains tracing and metrics exporter settings.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

type ServerConfig struct {
	Port            int           `json:"port" yaml:"port" validate:"min=1,max=65535"`
	GinMode         string        `json:"gin_mode" yaml:"gin_mode" validate:"oneof=debug release test"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	RateLimitRPS    float64       `json:"rate_limit_rps" yaml:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst  int           `json:"rate_limit_burst" yaml:"rate_limit_burst" validate:"gte=0"`
	WatchInterval   time.Duration `json:"watch_interval" yaml:"watch_interval" validate:"gt=0"`
}

type BanditConfig struct {
	TrackerWindow int `json:"tracker_window" yaml:"tracker_window" validate:"min=1"`

	// DefaultSeed seeds epsilon-greedy bandits created without a seed.
	// 0 derives a fresh seed from the clock for every bandit.
	DefaultSeed int64 `json:"default_seed" yaml:"default_seed"`
}

type TrainingConfig struct {
	Shell            string        `json:"shell" yaml:"shell" validate:"required"`
	StopTimeout      time.Duration `json:"stop_timeout" yaml:"stop_timeout" validate:"gt=0"`
	NormalizerWindow int           `json:"normalizer_window" yaml:"normalizer_window" validate:"min=1"`
}

type LoggingConfig struct {
	Level string `json:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Dir   string `json:"dir" yaml:"dir"`

	// JSON forces JSON (true) or text (false) on stderr. Unset selects
	// text on a terminal and JSON otherwise.
	JSON *bool `json:"json,omitempty" yaml:"json,omitempty"`
}

type TelemetryConfig struct {
	ServiceName    string `json:"service_name" yaml:"service_name" validate:"required"`
	TraceExporter  string `json:"trace_exporter" yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	MetricExporter string `json:"metric_exporter" yaml:"metric_exporter" validate:"oneof=none stdout prometheus"`
	OTLPEndpoint   string `json:"otlp_endpoint" yaml:"otlp_endpoint" validate:"required_if=TraceExporter otlp"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            12230,
			GinMode:         "release",
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPS:    0, // unlimited
			RateLimitBurst:  20,
			WatchInterval:   time.Second,
		},
		Bandit: BanditConfig{
			TrackerWindow: stats.DefaultWindow,
			DefaultSeed:   bandit.DefaultSeed,
		},
		Optimizer: optimizer.DefaultParams(),
		Training: TrainingConfig{
			Shell:            "sh",
			StopTimeout:      5 * time.Second,
			NormalizerWindow: stats.DefaultWindow,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "aleutian-tuner",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
		},
	}
}

// Load builds a Config from defaults, the file at path, and the environment.
//
// Description:
//
//	A missing file is not an error; an empty path skips the file step.
//
// Outputs:
//
//	Config - The merged configuration. Populated even on validation failure.
//	error - Non-nil if the file cannot be parsed or validation fails.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	loadFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse config (tried YAML and JSON): YAML error: %v, JSON error: %w", err, jsonErr)
		}
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	// Server
	envInt("PORT", &cfg.Server.Port)
	envString("GIN_MODE", &cfg.Server.GinMode)
	envDuration("SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envFloat("RATE_LIMIT_RPS", &cfg.Server.RateLimitRPS)
	envInt("RATE_LIMIT_BURST", &cfg.Server.RateLimitBurst)
	envDuration("WATCH_INTERVAL", &cfg.Server.WatchInterval)

	// Bandit
	envInt("TRACKER_WINDOW", &cfg.Bandit.TrackerWindow)
	if v := os.Getenv(EnvPrefix + "DEFAULT_SEED"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Bandit.DefaultSeed = i
		}
	}

	// Optimizer
	envFloat("OPT_STEP", &cfg.Optimizer.Step)
	envFloat("OPT_MIN_STEP", &cfg.Optimizer.MinStep)
	envFloat("OPT_GROW", &cfg.Optimizer.Grow)
	envFloat("OPT_SHRINK", &cfg.Optimizer.Shrink)

	// Training
	envString("SHELL", &cfg.Training.Shell)
	envDuration("STOP_TIMEOUT", &cfg.Training.StopTimeout)
	envInt("NORMALIZER_WINDOW", &cfg.Training.NormalizerWindow)

	// Logging
	envString("LOG_LEVEL", &cfg.Logging.Level)
	envString("LOG_DIR", &cfg.Logging.Dir)
	if v := os.Getenv(EnvPrefix + "LOG_JSON"); v != "" {
		b := v == "true" || v == "1"
		cfg.Logging.JSON = &b
	}

	// Telemetry
	envString("SERVICE_NAME", &cfg.Telemetry.ServiceName)
	envString("TRACE_EXPORTER", &cfg.Telemetry.TraceExporter)
	envString("METRIC_EXPORTER", &cfg.Telemetry.MetricExporter)
	envString("OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
}

func envString(key string, dst *string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section's constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
