// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "gargoyle.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultBlockInterval   = "0s"
	DefaultGovernorAddress = "0x0000000000000000000000000000000000001001"
	DefaultTokenAddress    = "0x0000000000000000000000000000000000001002"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// GenesisAllocation mints Amount to Address at startup and, when Delegate is
// set, delegates the new balance to it
type GenesisAllocation struct {
	Address  string `yaml:"address"`
	Amount   string `yaml:"amount"`
	Delegate string `yaml:"delegate"`
}

type GovernanceConfig struct {
	VotingDelay       uint64 `yaml:"votingDelay"       split_words:"true"`
	VotingPeriod      uint64 `yaml:"votingPeriod"      split_words:"true"`
	ProposalThreshold string `yaml:"proposalThreshold" split_words:"true"`
	QuorumNumerator   uint64 `yaml:"quorumNumerator"   split_words:"true"`
	QuorumDenominator uint64 `yaml:"quorumDenominator" split_words:"true"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
	// Stdout writes spans to stdout instead of the OTLP endpoint
	Stdout bool `yaml:"stdout"`
}

type Config struct {
	DatabasePath    string              `yaml:"databasePath"    split_words:"true"`
	BindAddr        string              `yaml:"bindAddr"        split_words:"true"`
	ApiPort         uint                `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint                `yaml:"metricsPort"     split_words:"true"`
	BlockInterval   string              `yaml:"blockInterval"   split_words:"true"`
	ShutdownTimeout string              `yaml:"shutdownTimeout" split_words:"true"`
	GovernorAddress string              `yaml:"governorAddress" split_words:"true"`
	TokenAddress    string              `yaml:"tokenAddress"    split_words:"true"`
	Governance      GovernanceConfig    `yaml:"governance"`
	Tracing         TracingConfig       `yaml:"tracing"`
	Genesis         []GenesisAllocation `yaml:"genesis"         ignored:"true"`
}

// tempConfig accepts both a bare config document and one nested under a
// top-level "config" key
type tempConfig struct {
	Config map[string]any `yaml:"config"`
}

func DefaultConfig() *Config {
	return &Config{
		DatabasePath:    ".gargoyle",
		BindAddr:        "0.0.0.0",
		ApiPort:         8080,
		MetricsPort:     12799,
		BlockInterval:   DefaultBlockInterval,
		ShutdownTimeout: DefaultShutdownTimeout,
		GovernorAddress: DefaultGovernorAddress,
		TokenAddress:    DefaultTokenAddress,
		// Voting delay and period have no defaults and must be configured
		Governance: GovernanceConfig{
			ProposalThreshold: "0",
			QuorumNumerator:   4,
			QuorumDenominator: 100,
		},
	}
}

var globalConfig = DefaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		// Check for config file in this path: ~/.gargoyle/gargoyle.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".gargoyle", "gargoyle.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/gargoyle/gargoyle.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		var tempCfg tempConfig
		if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if tempCfg.Config != nil {
			// Overlay config section onto existing defaults
			configBytes, err := yaml.Marshal(tempCfg.Config)
			if err != nil {
				return nil, fmt.Errorf("error re-marshalling config: %w", err)
			}
			if err := yaml.Unmarshal(configBytes, globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(buf, globalConfig); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}
	// Environment overrides the file
	if err := envconfig.Process("gargoyle", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Validate checks the values that cannot be caught by the YAML or env
// decoders
func (c *Config) Validate() error {
	if c.Governance.VotingPeriod == 0 {
		return errors.New("voting period must be at least one block")
	}
	if c.Governance.QuorumDenominator == 0 {
		return errors.New("quorum denominator must be non-zero")
	}
	if c.Governance.QuorumNumerator > c.Governance.QuorumDenominator {
		return fmt.Errorf(
			"quorum numerator %d exceeds denominator %d",
			c.Governance.QuorumNumerator,
			c.Governance.QuorumDenominator,
		)
	}
	if _, err := c.ParsedBlockInterval(); err != nil {
		return err
	}
	if _, err := c.ParsedShutdownTimeout(); err != nil {
		return err
	}
	if _, err := c.ParsedProposalThreshold(); err != nil {
		return err
	}
	for name, addr := range map[string]string{
		"governor": c.GovernorAddress,
		"token":    c.TokenAddress,
	} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid %s address: %q", name, addr)
		}
	}
	if c.GovernorAddress == c.TokenAddress {
		return errors.New("governor and token addresses must differ")
	}
	for i, alloc := range c.Genesis {
		if !common.IsHexAddress(alloc.Address) {
			return fmt.Errorf("genesis allocation %d: invalid address %q", i, alloc.Address)
		}
		if alloc.Delegate != "" && !common.IsHexAddress(alloc.Delegate) {
			return fmt.Errorf("genesis allocation %d: invalid delegate %q", i, alloc.Delegate)
		}
		amount, ok := math.ParseBig256(alloc.Amount)
		if !ok || amount.Sign() <= 0 {
			return fmt.Errorf("genesis allocation %d: invalid amount %q", i, alloc.Amount)
		}
	}
	return nil
}

func (c *Config) ParsedBlockInterval() (time.Duration, error) {
	if c.BlockInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.BlockInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid block interval: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid block interval: %s", c.BlockInterval)
	}
	return d, nil
}

func (c *Config) ParsedShutdownTimeout() (time.Duration, error) {
	if c.ShutdownTimeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	return d, nil
}

// ParsedProposalThreshold returns nil when no threshold is configured
func (c *Config) ParsedProposalThreshold() (*big.Int, error) {
	if c.Governance.ProposalThreshold == "" {
		return nil, nil
	}
	v, ok := math.ParseBig256(c.Governance.ProposalThreshold)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf(
			"invalid proposal threshold: %q",
			c.Governance.ProposalThreshold,
		)
	}
	if v.Sign() == 0 {
		return nil, nil
	}
	return v, nil
}
