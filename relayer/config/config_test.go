// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		LogLevel:        "info",
		ChainName:       "solana",
		HubAddress:      "axelar157hl7gpuknjmhtac2qnphuazv2yerfagva7lsu9vuj2pgn32z22qa26dk4",
		DomainSeparator: hex.EncodeToString(make([]byte, 32)),
		SignerThreshold: 1,
		VerifierSeeds:   []string{hex.EncodeToString(make([]byte, 32))},
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.LogLevel = "chatty"
	require.Error(t, bad.Validate())

	bad = cfg
	bad.HubAddress = ""
	require.Error(t, bad.Validate())

	bad = cfg
	bad.DomainSeparator = "abcd"
	require.Error(t, bad.Validate())

	bad = cfg
	bad.SignerThreshold = 2
	require.Error(t, bad.Validate())

	bad = cfg
	bad.VerifierSeeds = []string{"not-hex"}
	require.Error(t, bad.Validate())
}

func TestBuildViperFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relayer.json")
	blob := `{
		"chain-name": "solana",
		"hub-address": "axelar1hub",
		"domain-separator": "` + hex.EncodeToString(make([]byte, 32)) + `",
		"signer-threshold": 1,
		"verifier-seeds": ["` + hex.EncodeToString(make([]byte, 32)) + `"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0o600))

	fs := BuildFlagSet()
	require.NoError(t, fs.Parse([]string{"--config-file", path}))

	v, err := BuildViper(fs)
	require.NoError(t, err)

	cfg, err := NewConfig(v)
	require.NoError(t, err)
	require.Equal(t, "solana", cfg.ChainName)
	require.Equal(t, "axelar1hub", cfg.HubAddress)
	require.Equal(t, defaultMinimumRotationDelay, cfg.MinimumRotationDelay)
	require.Equal(t, defaultMetricsPort, cfg.MetricsPort)

	sep, err := cfg.ParseDomainSeparator()
	require.NoError(t, err)
	require.Equal(t, [32]byte{}, sep)

	seeds, err := cfg.ParseVerifierSeeds()
	require.NoError(t, err)
	require.Len(t, seeds, 1)
}

func TestBuildViperRequiresConfigFile(t *testing.T) {
	fs := BuildFlagSet()
	require.NoError(t, fs.Parse(nil))
	_, err := BuildViper(fs)
	require.Error(t, err)
}
