package vesting

import (
	"fmt"
	"math/big"
	"os"

	"gopkg.in/yaml.v3"
)

// StageParams describes one stage of the sale as configured. TokenCount is in
// whole tokens and scaled to the 18-decimal base unit at initialization.
type StageParams struct {
	TokenCount                 uint64 `yaml:"token_count"`
	Price                      uint64 `yaml:"price"`
	ImmediateReleasePercentage uint64 `yaml:"immediate_release_percentage"`
	VestingDays                uint64 `yaml:"vesting_days"`
}

type Config struct {
	Owner       string        `yaml:"owner"`
	OracleRate  string        `yaml:"oracle_rate"`
	GatedStages []StageID     `yaml:"gated_stages"`
	Stages      []StageParams `yaml:"stages"`
}

// DefaultConfig carries the Paymento distribution schedule. Whitelisting
// applies to the two private rounds.
func DefaultConfig() *Config {
	return &Config{
		Owner:       "8514f908ee2b47a7f83c60a564d2acf8f3f0baec",
		OracleRate:  defaultOracleRate,
		GatedStages: []StageID{PrivateRound1, PrivateRound2},
		Stages: []StageParams{
			{TokenCount: 17500000, Price: 75, ImmediateReleasePercentage: 5, VestingDays: 720},
			{TokenCount: 24500000, Price: 60, ImmediateReleasePercentage: 5, VestingDays: 600},
			{TokenCount: 28000000, Price: 18, ImmediateReleasePercentage: 8, VestingDays: 480},
			{TokenCount: 31500000, Price: 20, ImmediateReleasePercentage: 8, VestingDays: 480},
			{TokenCount: 35000000, Price: 25, ImmediateReleasePercentage: 5, VestingDays: 720},
			{TokenCount: 38500000, Price: 30, ImmediateReleasePercentage: 10, VestingDays: 360},
			{TokenCount: 42000000, Price: 35, ImmediateReleasePercentage: 10, VestingDays: 300},
			{TokenCount: 45500000, Price: 40, ImmediateReleasePercentage: 12, VestingDays: 240},
			{TokenCount: 52500000, Price: 45, ImmediateReleasePercentage: 15, VestingDays: 180},
		},
	}
}

// LoadConfig reads and validates a YAML stage-table configuration.
func LoadConfig(path string) (*Config, error) {
	configBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var config Config
	err = yaml.Unmarshal(configBytes, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if !IsUserAddressValid(c.Owner) {
		return ErrInvalidAddress(c.Owner)
	}

	if len(c.Stages) == 0 {
		return fmt.Errorf("%w: stage table is empty", ErrCannotBeZero)
	}

	for i, stage := range c.Stages {
		if stage.TokenCount == 0 {
			return fmt.Errorf("%w: token count for stage %d", ErrCannotBeZero, i)
		}
		if stage.Price == 0 {
			return fmt.Errorf("%w: price for stage %d", ErrCannotBeZero, i)
		}
		if stage.VestingDays == 0 {
			return fmt.Errorf("%w: vesting days for stage %d", ErrCannotBeZero, i)
		}
		if stage.ImmediateReleasePercentage > 100 {
			return fmt.Errorf("immediate release percentage for stage %d exceeds 100: %d", i, stage.ImmediateReleasePercentage)
		}
	}

	for _, stageID := range c.GatedStages {
		if int(stageID) >= len(c.Stages) {
			return ErrStageNotFound(stageID)
		}
	}

	if c.OracleRate != "" {
		rate, ok := new(big.Int).SetString(c.OracleRate, 10)
		if !ok {
			return InvalidAmountError("oracle rate", c.OracleRate)
		}
		if rate.Sign() <= 0 {
			return fmt.Errorf("%w: oracle rate", ErrCannotBeZero)
		}
	}

	return nil
}
