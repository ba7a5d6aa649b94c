package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for the quoting commands.
type QuoteConfig struct {
	Common
	Snapshot string
	PGDSN    string
	ChainID  uint64

	FeeBps  uint32
	Bridges []string

	// ToleranceBps is the explicit tolerance when ToleranceSet, else DefaultTolerance.
	ToleranceBps     uint32
	DefaultTolerance uint32
	ToleranceSet     bool
	AutoTolerance    bool
	MinimumLiquidity uint64
	ShareDecimals    uint8

	Record string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"snapshot":              "./data/snapshot.json",
		"fee-bps":               30,
		"default-tolerance-bps": 50,
		"auto-tolerance":        false,
		"minimum-liquidity":     1000,
		"share-decimals":        18,
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	fee, err := getBps(v, "fee-bps")
	if err != nil {
		return QuoteConfig{}, err
	}
	defaultTolerance, err := getBps(v, "default-tolerance-bps")
	if err != nil {
		return QuoteConfig{}, err
	}
	tolerance, toleranceSet := defaultTolerance, v.IsSet("tolerance-bps")
	if toleranceSet {
		if tolerance, err = getBps(v, "tolerance-bps"); err != nil {
			return QuoteConfig{}, err
		}
	}
	shareDecimals := v.GetUint("share-decimals")
	if shareDecimals > 36 {
		return QuoteConfig{}, fmt.Errorf("share-decimals must be at most 36, got %d", shareDecimals)
	}

	cfg := QuoteConfig{
		Common:           loadCommon(v),
		Snapshot:         v.GetString("snapshot"),
		PGDSN:            v.GetString("pg-dsn"),
		ChainID:          v.GetUint64("chain-id"),
		FeeBps:           fee,
		Bridges:          getStringSlice(v, "bridge"),
		ToleranceBps:     tolerance,
		DefaultTolerance: defaultTolerance,
		ToleranceSet:     toleranceSet,
		AutoTolerance:    v.GetBool("auto-tolerance"),
		MinimumLiquidity: v.GetUint64("minimum-liquidity"),
		ShareDecimals:    uint8(shareDecimals),
		Record:           v.GetString("record"),
	}

	if cfg.Snapshot == "" && cfg.PGDSN == "" {
		return QuoteConfig{}, fmt.Errorf("either snapshot or pg-dsn is required")
	}
	if cfg.PGDSN != "" && cfg.ChainID == 0 {
		return QuoteConfig{}, fmt.Errorf("chain-id is required when loading from postgres")
	}

	return cfg, nil
}
