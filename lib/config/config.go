// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for labelerd.
//
// Configuration is loaded from a single file specified by either the
// LABELERD_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for labelerd.
type Config struct {
	// DID is this labeler's own identity, e.g. "did:plc:abc123" or
	// "did:web:labeler.example.com". Labels are emitted with src=DID.
	DID string `yaml:"did"`

	// SigningKeyPath is the path to the file holding the secp256k1
	// signing key, hex- or base64-encoded. The file must not contain
	// a did:key: string — that is a public identifier, not a secret.
	SigningKeyPath string `yaml:"signing_key_path"`

	// StorePath is the path to the sqlite database file backing the
	// label log. labelerd creates the directory if it is missing; the
	// file is created if absent.
	StorePath string `yaml:"store_path"`

	// ListenAddr is the address the xrpc HTTP server binds, e.g.
	// ":4831" or "127.0.0.1:4831".
	ListenAddr string `yaml:"listen_addr"`

	// RequireAuth controls which JWT issuers may call emitEvent. When
	// true, only the labeler's own DID is accepted; when false, any
	// issuer is accepted. A valid bearer JWT is required either way.
	RequireAuth bool `yaml:"require_auth"`

	// Audience is the expected JWT "aud" claim, normally equal to DID.
	// Left empty, it defaults to DID at load time.
	Audience string `yaml:"audience"`

	// MaxSubscribers caps the number of concurrent subscribeLabels
	// connections. Zero means no cap.
	MaxSubscribers int `yaml:"max_subscribers"`

	// ShutdownTimeout bounds how long graceful shutdown waits for
	// in-flight requests and subscribers to drain, e.g. "10s".
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// Default returns a Config with sensible zero-values filled in. These
// exist so every field has a usable default before the file is
// loaded, not as a fallback — the config file is still required.
func Default() *Config {
	return &Config{
		StorePath:       "labels.db",
		ListenAddr:      ":4831",
		RequireAuth:     true,
		ShutdownTimeout: "10s",
	}
}

// Load loads configuration from the LABELERD_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit
// path. There are no fallbacks or defaults — if LABELERD_CONFIG is
// not set, this fails. This ensures deterministic, auditable
// configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("LABELERD_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("LABELERD_CONFIG environment variable not set; " +
			"set it to the path of your labelerd.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The file
// is the single source of truth; no environment variable overrides a
// value present in it.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if cfg.Audience == "" {
		cfg.Audience = cfg.DID
	}

	return cfg, nil
}

// Validate checks the configuration for errors a misconfigured
// deployment would otherwise only discover at request time.
func (c *Config) Validate() error {
	var errs []error

	if c.DID == "" {
		errs = append(errs, fmt.Errorf("did is required"))
	}
	if c.SigningKeyPath == "" {
		errs = append(errs, fmt.Errorf("signing_key_path is required"))
	}
	if c.StorePath == "" {
		errs = append(errs, fmt.Errorf("store_path is required"))
	}
	if c.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("listen_addr is required"))
	}

	return errors.Join(errs...)
}

// StoreDir returns the directory containing the configured store
// path, for callers that need to ensure it exists before opening the
// database.
func (c *Config) StoreDir() string {
	return filepath.Dir(c.StorePath)
}
