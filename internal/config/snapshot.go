package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// SnapshotConfig holds configuration for fetching and watching pool snapshots.
type SnapshotConfig struct {
	Common
	RPCURL  string
	Factory string
	Pairs   []string
	Tokens  []string
	Out     string
	PGDSN   string

	// MaxPairs bounds factory enumeration when no tokens are given.
	MaxPairs uint64
	// FeeBps is stamped on every fetched pool when FeeSet; V2 pairs do not expose a fee.
	FeeBps   uint32
	FeeSet   bool

	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	RPCRPS       float64
	Concurrency  int
	MetricsAddr  string
}

// LoadSnapshot merges config file, environment variables, and flags into SnapshotConfig.
func LoadSnapshot(cfgFile string, flags *pflag.FlagSet) (SnapshotConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":           "./data/snapshot.json",
		"interval":      15 * time.Second,
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
		"rpc-rps":       10.0,
		"concurrency":   4,
		"max-pairs":     500,
	})
	if err != nil {
		return SnapshotConfig{}, err
	}

	cfg := SnapshotConfig{
		Common:       loadCommon(v),
		RPCURL:       v.GetString("rpc"),
		Factory:      v.GetString("factory"),
		Pairs:        getStringSlice(v, "pair"),
		Tokens:       getStringSlice(v, "token"),
		MaxPairs:     v.GetUint64("max-pairs"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		FeeSet:       v.IsSet("fee-bps"),
		Interval:     v.GetDuration("interval"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		RPCRPS:       v.GetFloat64("rpc-rps"),
		Concurrency:  v.GetInt("concurrency"),
		MetricsAddr:  v.GetString("metrics-addr"),
	}
	if cfg.FeeSet {
		if cfg.FeeBps, err = getBps(v, "fee-bps"); err != nil {
			return SnapshotConfig{}, err
		}
	}

	if cfg.RPCURL == "" {
		return SnapshotConfig{}, fmt.Errorf("rpc url is required")
	}
	if len(cfg.Pairs) == 0 && cfg.Factory == "" {
		return SnapshotConfig{}, fmt.Errorf("pair list or factory is required")
	}
	if len(cfg.Tokens) == 1 {
		return SnapshotConfig{}, fmt.Errorf("token discovery needs at least two tokens")
	}
	if cfg.Out == "" && cfg.PGDSN == "" {
		return SnapshotConfig{}, fmt.Errorf("out path or pg-dsn is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Interval <= 0 {
		return SnapshotConfig{}, fmt.Errorf("interval must be positive")
	}

	return cfg, nil
}
