// Copyright (C) 2025 George Dekermenjian
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package config loads the portfolio backend's configuration from the
// environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	// ServiceName identifies this service in logs, traces, and metrics.
	ServiceName = "glassbox-portfolio"

	// Version is the service version reported by /health and /.
	Version = "0.1.0"
)

// Config holds the runtime configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// CodebaseRoot is the repository the codebase oracle answers about.
	// Defaults to the working directory, which in the container is the
	// repo checkout the service itself was built from.
	CodebaseRoot string

	// MaxFileLines bounds file windows served by get_file_content.
	MaxFileLines int

	// CORSOrigins are the explicitly allowed frontend origins.
	CORSOrigins []string

	// OTLPEndpoint is the OpenTelemetry collector address. Empty disables
	// trace export.
	OTLPEndpoint string
}

// Load reads configuration from the environment, applying defaults.
func Load() Config {
	cfg := Config{
		Port:         envOr("PORTFOLIO_PORT", "8080"),
		CodebaseRoot: envOr("CODEBASE_ROOT", "."),
		MaxFileLines: envIntOr("MAX_FILE_LINES", 500),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		CORSOrigins: []string{
			"http://localhost:3000",
			"http://localhost:3001",
			"http://localhost:3002",
		},
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
