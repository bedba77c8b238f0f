package main

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config holds the chat relay runtime settings.
type Config struct {
	Addr            string
	MaxFrameBytes   int
	Compress        bool
	IdleTimeout     time.Duration
	BufferSize      int
	ShutdownTimeout time.Duration
}

// chat config.toml key mapping to relay runtime settings.
type fileConfig struct {
	Addr            string `toml:"addr"`
	MaxFrameBytes   int    `toml:"max_frame_bytes"`
	Compress        bool   `toml:"compress"`
	IdleSeconds     int    `toml:"idle_timeout_seconds"`
	BufferSize      int    `toml:"buffer_size"`
	ShutdownSeconds int    `toml:"shutdown_timeout_seconds"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:8474",
		MaxFrameBytes:   1024 * 1024,
		Compress:        false,
		IdleTimeout:     30 * time.Second,
		BufferSize:      16,
		ShutdownTimeout: 2 * time.Second,
	}
}

// LoadConfig reads a TOML config file and overlays it on the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, errors.Wrap(err, "load chat config")
	}

	if meta.IsDefined("addr") {
		cfg.Addr = raw.Addr
	}
	if meta.IsDefined("max_frame_bytes") {
		cfg.MaxFrameBytes = raw.MaxFrameBytes
	}
	if meta.IsDefined("compress") {
		cfg.Compress = raw.Compress
	}
	if meta.IsDefined("idle_timeout_seconds") {
		cfg.IdleTimeout = time.Duration(raw.IdleSeconds) * time.Second
	}
	if meta.IsDefined("buffer_size") {
		cfg.BufferSize = raw.BufferSize
	}
	if meta.IsDefined("shutdown_timeout_seconds") {
		cfg.ShutdownTimeout = time.Duration(raw.ShutdownSeconds) * time.Second
	}

	if cfg.Addr == "" {
		return Config{}, errors.New("chat config missing addr")
	}
	if cfg.MaxFrameBytes <= 0 {
		return Config{}, errors.New("chat config max_frame_bytes must be positive")
	}
	if cfg.IdleTimeout <= 0 {
		return Config{}, errors.New("chat config idle_timeout_seconds must be positive")
	}

	return cfg, nil
}
