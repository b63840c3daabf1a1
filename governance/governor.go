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

// Package governance implements the proposal lifecycle of a token-weighted
// governor: proposals are created with a deterministic ID, voted on with
// voting power frozen at a snapshot block, and their action batch executed
// exactly once if the vote succeeded.
//
// Block heights are always supplied by the caller. The governor never keeps a
// notion of "now" and never caches a proposal's state.
package governance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"github.com/blinklabs-io/gargoyle/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/gargoyle/governance"

// VotingPower is the read side of the voting power ledger
type VotingPower interface {
	WeightAt(account common.Address, block uint64) *big.Int
	TotalSupplyAt(block uint64) *big.Int
}

type GovernorConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	Votes        VotingPower
	// Executor resolves action targets. A governor without one rejects
	// every execution with ErrNoTarget.
	Executor *Executor
	// Address is the identity actions are performed with
	Address      common.Address
	VotingDelay  uint64
	VotingPeriod uint64
	// ProposalThreshold is the voting weight a proposer needs at the
	// previous block. Nil means no threshold.
	ProposalThreshold *big.Int
	QuorumNumerator   uint64
	QuorumDenominator uint64
}

type Governor struct {
	config  GovernorConfig
	store   *Store
	metrics *governorMetrics
	tracer  trace.Tracer
}

// NewGovernor returns a governor with an empty proposal store
func NewGovernor(cfg GovernorConfig) (*Governor, error) {
	if cfg.Votes == nil {
		return nil, errors.New("voting power source is required")
	}
	if cfg.VotingPeriod == 0 {
		return nil, errors.New("voting period must be at least one block")
	}
	if cfg.QuorumDenominator == 0 {
		return nil, errors.New("quorum denominator must be non-zero")
	}
	if cfg.QuorumNumerator > cfg.QuorumDenominator {
		return nil, fmt.Errorf(
			"quorum numerator %d exceeds denominator %d",
			cfg.QuorumNumerator,
			cfg.QuorumDenominator,
		)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "governance")
	if cfg.Executor == nil {
		cfg.Executor = NewExecutor()
	}
	g := &Governor{
		config: cfg,
		store:  NewStore(),
		tracer: otel.Tracer(tracerName),
	}
	if cfg.PromRegistry != nil {
		g.metrics = &governorMetrics{}
		g.metrics.init(cfg.PromRegistry)
	}
	return g, nil
}

// Address returns the governor's own address
func (g *Governor) Address() common.Address {
	return g.config.Address
}

func (g *Governor) VotingDelay() uint64 {
	return g.config.VotingDelay
}

func (g *Governor) VotingPeriod() uint64 {
	return g.config.VotingPeriod
}

// ProposalThreshold returns the minimum proposer weight
func (g *Governor) ProposalThreshold() *big.Int {
	if g.config.ProposalThreshold == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(g.config.ProposalThreshold)
}

// Executor returns the target registry used for execution
func (g *Governor) Executor() *Executor {
	return g.config.Executor
}

// HashProposal derives a proposal ID, see the package-level HashProposal
func (g *Governor) HashProposal(
	targets []common.Address,
	values []*big.Int,
	calldatas [][]byte,
	descriptionHash common.Hash,
) (common.Hash, error) {
	return HashProposal(targets, values, calldatas, descriptionHash)
}

// Propose submits a new proposal at the given block. The description is
// hashed into the proposal ID; submitting the same batch with the same
// description again fails with ErrDuplicateProposal.
func (g *Governor) Propose(
	ctx context.Context,
	proposer common.Address,
	targets []common.Address,
	values []*big.Int,
	calldatas [][]byte,
	description string,
	block uint64,
) (common.Hash, error) {
	_, span := g.tracer.Start(ctx, "governance.Propose")
	defer span.End()
	if threshold := g.config.ProposalThreshold; threshold != nil &&
		threshold.Sign() > 0 {
		var snapshot uint64
		if block > 0 {
			snapshot = block - 1
		}
		weight := g.config.Votes.WeightAt(proposer, snapshot)
		if weight.Cmp(threshold) < 0 {
			return common.Hash{}, fmt.Errorf(
				"%w: %s has %s, need %s",
				ErrInsufficientProposerVotes,
				proposer,
				weight,
				threshold,
			)
		}
	}
	id, err := g.store.Create(
		proposer,
		targets,
		values,
		calldatas,
		description,
		block,
		g.config.VotingDelay,
		g.config.VotingPeriod,
	)
	if err != nil {
		span.RecordError(err)
		return common.Hash{}, err
	}
	p, err := g.store.Get(id)
	if err != nil {
		return common.Hash{}, err
	}
	span.SetAttributes(attribute.String("proposal.id", id.Hex()))
	g.config.Logger.Info(
		"proposal created",
		"proposal_id", id.Hex(),
		"proposer", proposer.Hex(),
		"vote_start", p.VoteStart,
		"vote_end", p.VoteEnd,
		"actions", len(p.Targets),
	)
	if g.metrics != nil {
		g.metrics.proposalsTotal.Inc()
	}
	g.publish(ProposalCreatedEventType, ProposalCreatedEvent{
		ProposalID:  id,
		Proposer:    proposer,
		Targets:     p.Targets,
		Values:      p.Values,
		Calldatas:   p.Calldatas,
		VoteStart:   p.VoteStart,
		VoteEnd:     p.VoteEnd,
		Description: description,
		Block:       block,
	})
	return id, nil
}

// Cancel marks a pending or active proposal as canceled. Only the original
// proposer may cancel.
func (g *Governor) Cancel(
	ctx context.Context,
	id common.Hash,
	caller common.Address,
	block uint64,
) error {
	_, span := g.tracer.Start(
		ctx,
		"governance.Cancel",
		trace.WithAttributes(attribute.String("proposal.id", id.Hex())),
	)
	defer span.End()
	p, err := g.store.Get(id)
	if err != nil {
		return err
	}
	if p.Proposer != caller {
		return fmt.Errorf(
			"%w: %s is not the proposer of %s",
			ErrUnauthorized,
			caller,
			id,
		)
	}
	state := g.stateOf(&p, block)
	if state != StatePending && state != StateActive {
		return fmt.Errorf("%w: %s is %s", ErrNotCancelable, id, state)
	}
	if err := g.store.markCanceled(id); err != nil {
		return err
	}
	g.config.Logger.Info(
		"proposal canceled",
		"proposal_id", id.Hex(),
		"block", block,
	)
	if g.metrics != nil {
		g.metrics.canceledTotal.Inc()
	}
	g.publish(ProposalCanceledEventType, ProposalCanceledEvent{
		ProposalID: id,
		Block:      block,
	})
	return nil
}

// Proposal returns a copy of the stored proposal
func (g *Governor) Proposal(id common.Hash) (Proposal, error) {
	return g.store.Get(id)
}

// Proposals returns copies of all proposals in creation order
func (g *Governor) Proposals() []Proposal {
	return g.store.List()
}

// Receipt returns the voter's receipt. A voter that has not voted gets a
// zero receipt with HasVoted false.
func (g *Governor) Receipt(id common.Hash, voter common.Address) (Receipt, error) {
	if _, err := g.store.Get(id); err != nil {
		return Receipt{}, err
	}
	r, ok := g.store.Receipt(id, voter)
	if !ok {
		return Receipt{Weight: new(big.Int)}, nil
	}
	return r, nil
}

func (g *Governor) HasVoted(id common.Hash, voter common.Address) bool {
	_, ok := g.store.Receipt(id, voter)
	return ok
}

// ProposalVotes returns the against, for and abstain tallies
func (g *Governor) ProposalVotes(
	id common.Hash,
) (againstVotes, forVotes, abstainVotes *big.Int, err error) {
	p, err := g.store.Get(id)
	if err != nil {
		return nil, nil, nil, err
	}
	return p.AgainstVotes, p.ForVotes, p.AbstainVotes, nil
}

// WeightAt returns an account's voting weight at a past block
func (g *Governor) WeightAt(account common.Address, block uint64) *big.Int {
	return g.config.Votes.WeightAt(account, block)
}

func (g *Governor) publish(eventType event.EventType, data any) {
	if g.config.EventBus == nil {
		return
	}
	g.config.EventBus.PublishAsync(eventType, event.NewEvent(eventType, data))
}
