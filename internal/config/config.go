// @license
// Copyright (C) 2025  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package config loads service configuration from the environment.
package config

import (
	"encoding/hex"
	"fmt"

	"github.com/peterbourgon/ff/v4"

	"github.com/brunnsviken/skool-api/logger"
)

// Config holds every environment-derived setting the service needs.
type Config struct {
	DatabaseURL  string
	RedisURL     string
	AESKey       string // 64 hex chars, validated into a 32-byte key
	OTLPEndpoint string // optional
	HTTPAddr     string
	LogLevel     string
}

// Load parses configuration from the process environment (prefix SKOOL_).
// A missing or malformed required setting is a fatal startup error, not a
// runtime one.
func Load(args []string) (Config, error) {
	var cfg Config

	fs := ff.NewFlagSet("skool-api")
	fs.StringVar(&cfg.DatabaseURL, 0, "database-url", "", "Postgres connection string")
	fs.StringVar(&cfg.RedisURL, 0, "redis-url", "", "Redis connection string")
	fs.StringVar(&cfg.AESKey, 0, "aes-key", "", "64 hex character AES-256 key for sealed credential storage")
	fs.StringVar(&cfg.OTLPEndpoint, 0, "otlp-endpoint", "", "optional OTLP trace collector endpoint")
	fs.StringVar(&cfg.HTTPAddr, 0, "http-addr", ":8080", "HTTP listen address")
	fs.StringVar(&cfg.LogLevel, 0, "log-level", "info", "numeric zerolog level (-1=trace … 5=panic); any other value means info")

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("SKOOL")); err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// MustLoad is Load, but a configuration error is fatal.
func MustLoad(args []string) Config {
	cfg, err := Load(args)
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration error")
	}

	return cfg
}

func validate(cfg Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL", errRequired)
	}

	if cfg.RedisURL == "" {
		return fmt.Errorf("%w: REDIS_URL", errRequired)
	}

	key, err := hex.DecodeString(cfg.AESKey)
	if err != nil || len(key) != 32 {
		return fmt.Errorf("%w: AES_KEY must be 64 hex characters (32 bytes)", errInvalid)
	}

	return nil
}
