// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the relayer harness configuration from a JSON
// config file, environment variables, and command line flags.
package config

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Config is the relayer harness configuration.
type Config struct {
	LogLevel                string   `mapstructure:"log-level" json:"log-level"`
	MetricsPort             uint16   `mapstructure:"metrics-port" json:"metrics-port"`
	ChainName               string   `mapstructure:"chain-name" json:"chain-name"`
	HubAddress              string   `mapstructure:"hub-address" json:"hub-address"`
	DomainSeparator         string   `mapstructure:"domain-separator" json:"domain-separator"`
	SignerThreshold         uint64   `mapstructure:"signer-threshold" json:"signer-threshold"`
	VerifierSeeds           []string `mapstructure:"verifier-seeds" json:"verifier-seeds"`
	PreviousSignerRetention uint64   `mapstructure:"previous-signer-retention" json:"previous-signer-retention"`
	MinimumRotationDelay    uint64   `mapstructure:"minimum-rotation-delay" json:"minimum-rotation-delay"`
	SetCacheTTLSeconds      uint64   `mapstructure:"set-cache-ttl-seconds" json:"set-cache-ttl-seconds"`
}

// Validate checks field consistency after unmarshalling.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if c.ChainName == "" {
		return fmt.Errorf("chain name is required")
	}
	if c.HubAddress == "" {
		return fmt.Errorf("hub address is required")
	}
	if _, err := c.ParseDomainSeparator(); err != nil {
		return err
	}
	if len(c.VerifierSeeds) == 0 {
		return fmt.Errorf("at least one verifier seed is required")
	}
	if c.SignerThreshold == 0 || c.SignerThreshold > uint64(len(c.VerifierSeeds)) {
		return fmt.Errorf("signer threshold %d out of range for %d verifiers",
			c.SignerThreshold, len(c.VerifierSeeds))
	}
	if _, err := c.ParseVerifierSeeds(); err != nil {
		return err
	}
	return nil
}

// ParseDomainSeparator decodes the hex-encoded 32-byte domain separator.
func (c *Config) ParseDomainSeparator() ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(c.DomainSeparator)
	if err != nil {
		return out, fmt.Errorf("invalid domain separator hex: %w", err)
	}
	if len(b) != 32 {
		return out, fmt.Errorf("domain separator must be 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// ParseVerifierSeeds decodes the hex-encoded ed25519 seeds.
func (c *Config) ParseVerifierSeeds() ([][]byte, error) {
	seeds := make([][]byte, len(c.VerifierSeeds))
	for i, s := range c.VerifierSeeds {
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid verifier seed %d: %w", i, err)
		}
		if len(b) != ed25519.SeedSize {
			return nil, fmt.Errorf("verifier seed %d must be %d bytes, got %d", i, ed25519.SeedSize, len(b))
		}
		seeds[i] = b
	}
	return seeds, nil
}
