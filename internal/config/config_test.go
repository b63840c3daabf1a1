package config

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobalConfig() {
	globalConfig = DefaultConfig()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gargoyle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	path := writeConfig(t, `
databasePath: "/var/lib/gargoyle"
bindAddr: "127.0.0.1"
apiPort: 9000
metricsPort: 9001
blockInterval: "2s"
shutdownTimeout: "10s"
governorAddress: "0x00000000000000000000000000000000000000aa"
tokenAddress: "0x00000000000000000000000000000000000000bb"
governance:
  votingDelay: 2
  votingPeriod: 10
  proposalThreshold: "100"
  quorumNumerator: 10
  quorumDenominator: 100
tracing:
  enabled: true
  stdout: true
genesis:
  - address: "0x0000000000000000000000000000000000000001"
    amount: "10000"
    delegate: "0x0000000000000000000000000000000000000001"
`)
	expected := &Config{
		DatabasePath:    "/var/lib/gargoyle",
		BindAddr:        "127.0.0.1",
		ApiPort:         9000,
		MetricsPort:     9001,
		BlockInterval:   "2s",
		ShutdownTimeout: "10s",
		GovernorAddress: "0x00000000000000000000000000000000000000aa",
		TokenAddress:    "0x00000000000000000000000000000000000000bb",
		Governance: GovernanceConfig{
			VotingDelay:       2,
			VotingPeriod:      10,
			ProposalThreshold: "100",
			QuorumNumerator:   10,
			QuorumDenominator: 100,
		},
		Tracing: TracingConfig{Enabled: true, Stdout: true},
		Genesis: []GenesisAllocation{
			{
				Address:  "0x0000000000000000000000000000000000000001",
				Amount:   "10000",
				Delegate: "0x0000000000000000000000000000000000000001",
			},
		},
	}
	actual, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, expected, actual)
}

func TestLoad_ConfigSection(t *testing.T) {
	resetGlobalConfig()
	path := writeConfig(t, `
config:
  apiPort: 9100
  governance:
    votingPeriod: 7
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint(9100), cfg.ApiPort)
	assert.Equal(t, uint64(7), cfg.Governance.VotingPeriod)
	// Untouched values keep their defaults
	assert.Equal(t, uint64(4), cfg.Governance.QuorumNumerator)
	assert.Equal(t, ".gargoyle", cfg.DatabasePath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	resetGlobalConfig()
	path := writeConfig(t, `
apiPort: 9000
governance:
  votingDelay: 3
  votingPeriod: 10
`)
	t.Setenv("GARGOYLE_API_PORT", "9200")
	t.Setenv("GARGOYLE_GOVERNANCE_VOTING_DELAY", "5")
	t.Setenv("GARGOYLE_TRACING_ENABLED", "true")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint(9200), cfg.ApiPort)
	assert.Equal(t, uint64(5), cfg.Governance.VotingDelay)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoad_RequiresVotingPeriod(t *testing.T) {
	resetGlobalConfig()
	path := writeConfig(t, `
apiPort: 9000
`)
	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "voting period")
}

func TestLoad_MissingFile(t *testing.T) {
	resetGlobalConfig()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	resetGlobalConfig()
	path := writeConfig(t, `
governance:
  votingPeriod: 10
  quorumNumerator: 101
  quorumDenominator: 100
`)
	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "exceeds denominator")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:    "zero voting period",
			modify:  func(c *Config) { c.Governance.VotingPeriod = 0 },
			wantErr: "voting period",
		},
		{
			name:   "zero voting delay",
			modify: func(c *Config) { c.Governance.VotingDelay = 0 },
		},
		{
			name:    "zero quorum denominator",
			modify:  func(c *Config) { c.Governance.QuorumDenominator = 0 },
			wantErr: "denominator must be non-zero",
		},
		{
			name:    "numerator above denominator",
			modify:  func(c *Config) { c.Governance.QuorumNumerator = 200 },
			wantErr: "exceeds denominator",
		},
		{
			name:    "bad block interval",
			modify:  func(c *Config) { c.BlockInterval = "soon" },
			wantErr: "block interval",
		},
		{
			name:    "bad shutdown timeout",
			modify:  func(c *Config) { c.ShutdownTimeout = "later" },
			wantErr: "shutdown timeout",
		},
		{
			name:    "bad threshold",
			modify:  func(c *Config) { c.Governance.ProposalThreshold = "-1" },
			wantErr: "proposal threshold",
		},
		{
			name:    "bad governor address",
			modify:  func(c *Config) { c.GovernorAddress = "governor" },
			wantErr: "invalid governor address",
		},
		{
			name:    "governor equals token",
			modify:  func(c *Config) { c.TokenAddress = c.GovernorAddress },
			wantErr: "must differ",
		},
		{
			name: "bad genesis amount",
			modify: func(c *Config) {
				c.Genesis = []GenesisAllocation{
					{Address: "0x0000000000000000000000000000000000000001", Amount: "0"},
				}
			},
			wantErr: "invalid amount",
		},
		{
			name: "bad genesis delegate",
			modify: func(c *Config) {
				c.Genesis = []GenesisAllocation{
					{
						Address:  "0x0000000000000000000000000000000000000001",
						Amount:   "1",
						Delegate: "nobody",
					},
				}
			},
			wantErr: "invalid delegate",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Governance.VotingDelay = 1
			cfg.Governance.VotingPeriod = 5
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestParsedValues(t *testing.T) {
	cfg := DefaultConfig()
	interval, err := cfg.ParsedBlockInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), interval)
	timeout, err := cfg.ParsedShutdownTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, timeout)
	threshold, err := cfg.ParsedProposalThreshold()
	require.NoError(t, err)
	assert.Nil(t, threshold)

	cfg.Governance.ProposalThreshold = "0x64"
	threshold, err = cfg.ParsedProposalThreshold()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), threshold)
}

func TestContextRoundTrip(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
