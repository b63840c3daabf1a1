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

package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/blinklabs-io/gargoyle/api"
	"github.com/blinklabs-io/gargoyle/chain"
	"github.com/blinklabs-io/gargoyle/database"
	"github.com/blinklabs-io/gargoyle/event"
	"github.com/blinklabs-io/gargoyle/governance"
	"github.com/blinklabs-io/gargoyle/internal/config"
	"github.com/blinklabs-io/gargoyle/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type shutdownFunc func(context.Context) error

// Node owns every long-running component of a gargoyle instance
type Node struct {
	cfg             *config.Config
	logger          *slog.Logger
	promRegistry    prometheus.Registerer
	shutdownTimeout time.Duration
	db              *database.Database
	eventBus        *event.EventBus
	ledger          *ledger.Ledger
	governor        *governance.Governor
	chain           *chain.Chain
	api             *api.Server
	metricsServer   *http.Server
	shutdownFuncs   []shutdownFunc
	runWg           sync.WaitGroup
	runCancel       context.CancelFunc
}

// New builds the node components without starting any of them. An error
// leaves nothing open.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	shutdownTimeout, _ := cfg.ParsedShutdownTimeout()
	n := &Node{
		cfg:             cfg,
		logger:          logger,
		promRegistry:    promRegistry,
		shutdownTimeout: shutdownTimeout,
	}
	if err := n.build(); err != nil {
		n.closeAll()
		return nil, err
	}
	return n, nil
}

func (n *Node) build() error {
	if n.cfg.Tracing.Enabled {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	db, err := database.New(&database.Config{
		DataDir:      n.cfg.DatabasePath,
		Logger:       n.logger,
		PromRegistry: n.promRegistry,
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	n.eventBus = event.NewEventBus(n.promRegistry, n.logger)
	governorAddr := common.HexToAddress(n.cfg.GovernorAddress)
	tokenAddr := common.HexToAddress(n.cfg.TokenAddress)
	n.ledger = ledger.NewLedger(ledger.LedgerConfig{
		Logger:       n.logger,
		EventBus:     n.eventBus,
		PromRegistry: n.promRegistry,
		// The governor owns the token so proposals can mint
		Owner: governorAddr,
	})
	executor := governance.NewExecutor()
	executor.Register(tokenAddr, ledger.NewToken(n.ledger))
	threshold, err := n.cfg.ParsedProposalThreshold()
	if err != nil {
		return err
	}
	n.governor, err = governance.NewGovernor(governance.GovernorConfig{
		Logger:            n.logger,
		EventBus:          n.eventBus,
		PromRegistry:      n.promRegistry,
		Votes:             n.ledger,
		Executor:          executor,
		Address:           governorAddr,
		VotingDelay:       n.cfg.Governance.VotingDelay,
		VotingPeriod:      n.cfg.Governance.VotingPeriod,
		ProposalThreshold: threshold,
		QuorumNumerator:   n.cfg.Governance.QuorumNumerator,
		QuorumDenominator: n.cfg.Governance.QuorumDenominator,
	})
	if err != nil {
		return fmt.Errorf("failed to create governor: %w", err)
	}
	interval, err := n.cfg.ParsedBlockInterval()
	if err != nil {
		return err
	}
	n.chain, err = chain.NewChain(chain.ChainConfig{
		Logger:        n.logger,
		EventBus:      n.eventBus,
		PromRegistry:  n.promRegistry,
		Database:      n.db,
		Governor:      n.governor,
		Ledger:        n.ledger,
		BlockInterval: interval,
		Genesis:       genesisAllocations(n.cfg.Genesis),
	})
	if err != nil {
		return fmt.Errorf("failed to create chain: %w", err)
	}
	n.api = api.New(
		api.ServerConfig{
			ListenAddress: fmt.Sprintf("%s:%d", n.cfg.BindAddr, n.cfg.ApiPort),
			EventBus:      n.eventBus,
		},
		n.chain,
		n.db,
		n.logger,
	)
	return nil
}

func genesisAllocations(allocs []config.GenesisAllocation) []chain.Allocation {
	ret := make([]chain.Allocation, 0, len(allocs))
	for _, alloc := range allocs {
		// Amounts were checked by config validation
		amount, ok := math.ParseBig256(alloc.Amount)
		if !ok {
			amount = new(big.Int)
		}
		tmp := chain.Allocation{
			Address: common.HexToAddress(alloc.Address),
			Amount:  amount,
		}
		if alloc.Delegate != "" {
			tmp.Delegate = common.HexToAddress(alloc.Delegate)
		}
		ret = append(ret, tmp)
	}
	return ret
}

// Start replays the op log, then starts block production and the listeners
func (n *Node) Start(ctx context.Context) error {
	if err := n.chain.Load(ctx); err != nil {
		return fmt.Errorf("failed to load chain: %w", err)
	}
	tip := n.chain.Tip()
	n.logger.Info(
		fmt.Sprintf(
			"chain loaded at block %d with %d ops",
			n.chain.Block(),
			tip.NextSeq,
		),
		"component", "node",
	)
	runCtx, runCancel := context.WithCancel(context.Background())
	n.runCancel = runCancel
	n.runWg.Add(1)
	go func() {
		defer n.runWg.Done()
		if err := n.chain.Run(runCtx); err != nil {
			n.logger.Error(
				"block production stopped",
				"component", "node",
				"error", err,
			)
		}
	}()
	//nolint:contextcheck
	if err := n.api.Start(runCtx); err != nil {
		return fmt.Errorf("failed to start API: %w", err)
	}
	if n.cfg.MetricsPort > 0 {
		if err := n.startMetrics(); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) startMetrics() error {
	handler := promhttp.Handler()
	if gatherer, ok := n.promRegistry.(prometheus.Gatherer); ok &&
		n.promRegistry != prometheus.DefaultRegisterer {
		handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	addr := fmt.Sprintf("%s:%d", n.cfg.BindAddr, n.cfg.MetricsPort)
	n.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	n.logger.Info(
		"serving prometheus metrics on "+addr,
		"component", "node",
	)
	srv := n.metricsServer
	go func() {
		if err := srv.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			n.logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "node",
			)
		}
	}()
	return nil
}

// APIAddr returns the bound API address, or an empty string before Start
func (n *Node) APIAddr() string {
	if n.api == nil {
		return ""
	}
	addr := n.api.Addr()
	if addr == nil {
		return ""
	}
	return addr.String()
}

func (n *Node) Chain() *chain.Chain {
	return n.chain
}

// Stop shuts the node down in phases and reports every failure
func (n *Node) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), n.shutdownTimeout)
	defer cancel()
	var err error

	n.logger.Debug("starting graceful shutdown", "component", "node")

	// Phase 1: stop accepting new work
	n.logger.Debug("shutdown phase 1: stopping listeners", "component", "node")
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if n.metricsServer != nil {
		if stopErr := n.metricsServer.Shutdown(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("metrics shutdown: %w", stopErr))
		}
		n.metricsServer = nil
	}

	// Phase 2: stop block production
	n.logger.Debug("shutdown phase 2: stopping block production", "component", "node")
	if n.runCancel != nil {
		n.runCancel()
		n.runWg.Wait()
		n.runCancel = nil
	}

	// Phase 3: close state
	n.logger.Debug("shutdown phase 3: closing database", "component", "node")
	err = errors.Join(err, n.closeAll())

	n.logger.Debug("graceful shutdown complete", "component", "node")
	return err
}

func (n *Node) closeAll() error {
	var err error
	if n.eventBus != nil {
		n.eventBus.Stop()
		n.eventBus = nil
	}
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
		n.db = nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), n.shutdownTimeout)
	defer cancel()
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil
	return err
}

// Run starts a node and blocks until SIGINT or SIGTERM
func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	n, err := New(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	if err := n.Start(signalCtx); err != nil {
		logger.Error("node error", "error", err)
		if stopErr := n.Stop(); stopErr != nil {
			logger.Error(
				"shutdown errors occurred during error cleanup",
				"error", stopErr,
			)
		}
		return err
	}
	<-signalCtx.Done()
	logger.Info("signal received, initiating graceful shutdown")
	if err := n.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
