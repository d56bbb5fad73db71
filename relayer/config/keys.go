// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package config

const (
	// Command line option keys
	ConfigFileKey = "config-file"
	VersionKey    = "version"
	HelpKey       = "help"

	// Environment variable keys
	ConfigFileEnvKey = "CONFIG_FILE"

	// Top-level configuration keys
	LogLevelKey                = "log-level"
	MetricsPortKey             = "metrics-port"
	ChainNameKey               = "chain-name"
	HubAddressKey              = "hub-address"
	DomainSeparatorKey         = "domain-separator"
	SignerThresholdKey         = "signer-threshold"
	VerifierSeedsKey           = "verifier-seeds"
	PreviousSignerRetentionKey = "previous-signer-retention"
	MinimumRotationDelayKey    = "minimum-rotation-delay"
	SetCacheTTLSecondsKey      = "set-cache-ttl-seconds"
)

const (
	defaultLogLevel                = "info"
	defaultMetricsPort             = uint16(9090)
	defaultChainName               = "solana"
	defaultPreviousSignerRetention = uint64(4)
	defaultMinimumRotationDelay    = uint64(3600)
	defaultSetCacheTTLSeconds      = uint64(600)
)
