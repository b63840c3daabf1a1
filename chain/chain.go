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

// Package chain sequences governance and token ops into blocks. Ops are
// applied one at a time at the current block, appended to the op log and
// projected into the metadata store, and replayed from the op log on start.
package chain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/blinklabs-io/gargoyle/database"
	"github.com/blinklabs-io/gargoyle/event"
	"github.com/blinklabs-io/gargoyle/governance"
	"github.com/blinklabs-io/gargoyle/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

const initialBlock uint64 = 1

// Allocation is a genesis token grant
type Allocation struct {
	Address common.Address
	Amount  *big.Int
	// Delegate receives the voting weight. The zero address leaves the
	// tokens undelegated.
	Delegate common.Address
}

type ChainConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	// Database persists the op log and projections. Nil keeps state in
	// memory only.
	Database *database.Database
	Governor *governance.Governor
	Ledger   *ledger.Ledger
	// BlockInterval is the time between produced blocks. Zero disables
	// block production, blocks then only advance through mine ops.
	BlockInterval time.Duration
	// Genesis is minted by the token owner when the op log is empty
	Genesis []Allocation
}

// ApplyResult describes the outcome of an applied op
type ApplyResult struct {
	Seq        uint64
	Block      uint64
	ProposalID common.Hash
	// Weight is the counted weight of a vote
	Weight *big.Int
}

type Chain struct {
	config  ChainConfig
	metrics *chainMetrics
	known   map[common.Address]struct{}
	// halted is set when an applied op could not be persisted. Memory is
	// then ahead of the op log, so nothing more is accepted.
	halted  error
	block   uint64
	nextSeq uint64
	mutex   sync.RWMutex
}

func NewChain(cfg ChainConfig) (*Chain, error) {
	if cfg.Governor == nil {
		return nil, errors.New("governor is required")
	}
	if cfg.Ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "chain")
	c := &Chain{
		config: cfg,
		known:  make(map[common.Address]struct{}),
		block:  initialBlock,
	}
	if cfg.PromRegistry != nil {
		c.metrics = &chainMetrics{}
		c.metrics.init(cfg.PromRegistry)
		c.metrics.block.Set(float64(c.block))
	}
	return c, nil
}

// Load replays the op log into the governor and ledger and restores the
// block height. An empty op log is seeded with the genesis allocations.
func (c *Chain) Load(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.config.Database != nil {
		if err := c.replay(ctx); err != nil {
			return err
		}
	}
	if c.nextSeq > 0 || len(c.config.Genesis) == 0 {
		return nil
	}
	return c.genesis(ctx)
}

func (c *Chain) replay(ctx context.Context) error {
	db := c.config.Database
	tip, err := db.GetTip(nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReplay, err)
	}
	err = db.ForEachOp(func(seq uint64, payload []byte) error {
		if seq != c.nextSeq {
			return fmt.Errorf("%w: expected op %d, found %d", ErrReplay, c.nextSeq, seq)
		}
		op, err := DecodeOp(payload)
		if err != nil {
			return fmt.Errorf("%w: op %d: %w", ErrReplay, seq, err)
		}
		if op.Block < c.block {
			return fmt.Errorf(
				"%w: op %d at block %d precedes block %d",
				ErrReplay,
				seq,
				op.Block,
				c.block,
			)
		}
		c.block = op.Block
		if _, err := c.apply(ctx, op); err != nil {
			return fmt.Errorf("%w: op %d (%s): %w", ErrReplay, seq, op.Type, err)
		}
		c.nextSeq = seq + 1
		return nil
	})
	if err != nil {
		return err
	}
	if tip.NextSeq != c.nextSeq {
		return fmt.Errorf(
			"%w: tip expects %d ops, op log has %d",
			ErrReplay,
			tip.NextSeq,
			c.nextSeq,
		)
	}
	c.block = max(c.block, tip.Block)
	if c.metrics != nil {
		c.metrics.block.Set(float64(c.block))
	}
	if c.nextSeq > 0 {
		c.config.Logger.Info(
			"replayed op log",
			"ops", c.nextSeq,
			"block", c.block,
		)
	}
	return nil
}

func (c *Chain) genesis(ctx context.Context) error {
	owner := c.config.Ledger.Owner()
	for _, alloc := range c.config.Genesis {
		ops := []*Op{
			{
				Type:   OpMint,
				From:   owner,
				To:     alloc.Address,
				Amount: alloc.Amount,
			},
		}
		if alloc.Delegate != (common.Address{}) {
			ops = append(ops, &Op{
				Type: OpDelegate,
				From: alloc.Address,
				To:   alloc.Delegate,
			})
		}
		for _, op := range ops {
			if _, err := c.applyLocked(ctx, op, false); err != nil {
				return fmt.Errorf(
					"genesis allocation for %s: %w",
					alloc.Address.Hex(),
					err,
				)
			}
		}
	}
	c.config.Logger.Info(
		"applied genesis allocations",
		"allocations", len(c.config.Genesis),
	)
	// Genesis ops share block 1, which is sealed by mining one block
	_, err := c.mine(1)
	return err
}

// Block returns the current block number
func (c *Chain) Block() uint64 {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.block
}

// Tip returns the current block and the number of ops applied so far
func (c *Chain) Tip() database.Tip {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return database.Tip{Block: c.block, NextSeq: c.nextSeq}
}

func (c *Chain) Governor() *governance.Governor {
	return c.config.Governor
}

func (c *Chain) Ledger() *ledger.Ledger {
	return c.config.Ledger
}

// Apply mines op in a new block and persists it. Ops are applied one at a
// time in submission order. A block never holds more than one op, so no
// later op can change checkpoints a vote has read.
func (c *Chain) Apply(ctx context.Context, op *Op) (*ApplyResult, error) {
	if err := op.validate(); err != nil {
		return nil, err
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.halted != nil {
		return nil, fmt.Errorf("%w: %w", ErrHalted, c.halted)
	}
	if op.Type == OpMine {
		return c.mine(op.Count)
	}
	return c.applyLocked(ctx, op, true)
}

// Halted returns the persist failure that stopped the chain, or nil
func (c *Chain) Halted() error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.halted
}

// Mine advances the block height by n
func (c *Chain) Mine(ctx context.Context, n uint64) (uint64, error) {
	res, err := c.Apply(ctx, &Op{Type: OpMine, Count: n})
	if err != nil {
		return 0, err
	}
	return res.Block, nil
}

// Run produces one block per configured interval until ctx is done
func (c *Chain) Run(ctx context.Context) error {
	if c.config.BlockInterval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(c.config.BlockInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := c.Mine(ctx, 1); err != nil {
				c.config.Logger.Error(
					"failed to produce block",
					"error", err,
				)
			}
		}
	}
}

func (c *Chain) applyLocked(
	ctx context.Context,
	op *Op,
	seal bool,
) (*ApplyResult, error) {
	applied := *op
	applied.Block = c.block
	if seal {
		// The op is mined in a block of its own
		if c.block == math.MaxUint64 {
			return nil, fmt.Errorf("%w: block height overflow", ErrInvalidOp)
		}
		applied.Block++
	}
	next := applied.Block
	res, err := c.apply(ctx, &applied)
	if err != nil {
		c.countOp(applied.Type, "rejected")
		return nil, err
	}
	res.Seq = c.nextSeq
	if err := c.persist(&applied, res, next); err != nil {
		c.countOp(applied.Type, "error")
		c.halted = fmt.Errorf("op %d (%s): %w", res.Seq, applied.Type, err)
		c.config.Logger.Error(
			"failed to persist op, halting chain",
			"type", applied.Type.String(),
			"seq", res.Seq,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	c.nextSeq++
	c.countOp(applied.Type, "applied")
	c.config.Logger.Debug(
		"applied op",
		"type", applied.Type.String(),
		"seq", res.Seq,
		"block", res.Block,
	)
	c.publish(OpAppliedEventType, OpAppliedEvent{
		Seq:        res.Seq,
		Type:       applied.Type,
		Block:      res.Block,
		ProposalID: res.ProposalID,
	})
	if next != c.block {
		c.setBlock(next)
	}
	return res, nil
}

// apply runs op against the governor or the ledger without persisting it
func (c *Chain) apply(ctx context.Context, op *Op) (*ApplyResult, error) {
	gov := c.config.Governor
	res := &ApplyResult{Block: op.Block}
	var err error
	switch op.Type {
	case OpPropose:
		res.ProposalID, err = gov.Propose(
			ctx,
			op.From,
			op.Targets,
			op.Values,
			op.Calldatas,
			op.Description,
			op.Block,
		)
	case OpVote:
		res.ProposalID = op.ProposalID
		res.Weight, err = gov.CastVote(
			ctx,
			op.ProposalID,
			op.From,
			op.Support,
			op.Reason,
			op.Block,
		)
	case OpExecute:
		res.ProposalID, err = gov.Execute(
			ctx,
			op.Targets,
			op.Values,
			op.Calldatas,
			op.DescriptionHash,
			op.Block,
		)
	case OpCancel:
		res.ProposalID = op.ProposalID
		err = gov.Cancel(ctx, op.ProposalID, op.From, op.Block)
	case OpDelegate:
		err = c.config.Ledger.Delegate(op.From, op.To, op.Block)
	case OpTransfer:
		err = c.config.Ledger.Transfer(op.From, op.To, op.Amount, op.Block)
	case OpMint:
		err = c.config.Ledger.Mint(op.From, op.To, op.Amount, op.Block)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownOpType, op.Type)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Chain) mine(n uint64) (*ApplyResult, error) {
	if n > math.MaxUint64-c.block {
		return nil, fmt.Errorf("%w: block height overflow", ErrInvalidOp)
	}
	next := c.block + n
	if db := c.config.Database; db != nil {
		txn := db.Transaction(true)
		err := txn.Do(func(txn *database.Txn) error {
			return db.SetTip(database.Tip{Block: next, NextSeq: c.nextSeq}, txn)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersist, err)
		}
	}
	c.setBlock(next)
	return &ApplyResult{Seq: c.nextSeq, Block: c.block}, nil
}

func (c *Chain) setBlock(block uint64) {
	c.block = block
	if c.metrics != nil {
		c.metrics.block.Set(float64(c.block))
	}
	c.publish(ChainUpdateEventType, ChainBlockEvent{Block: c.block})
}

func (c *Chain) countOp(opType OpType, result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.opsTotal.WithLabelValues(opType.String(), result).Inc()
}

func (c *Chain) publish(eventType event.EventType, data any) {
	if c.config.EventBus == nil {
		return
	}
	c.config.EventBus.PublishAsync(eventType, event.NewEvent(eventType, data))
}
