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

package governance

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Call is a single action of an executing proposal
type Call struct {
	// Caller is the governor address the action is performed on behalf of
	Caller common.Address
	Target common.Address
	Value  *big.Int
	Data   []byte
	// Block is the block height the batch executes at
	Block uint64
}

// Target performs proposal actions sent to one address. Any state changed by
// Call must be registered for undo with journal.OnRevert, so a failure later
// in the batch can roll it back.
type Target interface {
	Call(ctx context.Context, journal *Journal, call Call) error
}

// TargetFunc adapts a plain function to the Target interface
type TargetFunc func(ctx context.Context, journal *Journal, call Call) error

func (f TargetFunc) Call(ctx context.Context, journal *Journal, call Call) error {
	return f(ctx, journal, call)
}

// Journal collects the effects of an executing batch. Revert hooks run in
// reverse registration order if any action fails; commit hooks run in
// registration order once the whole batch has succeeded.
type Journal struct {
	reverts []func()
	commits []func()
}

// OnRevert registers an undo function for a change already applied
func (j *Journal) OnRevert(fn func()) {
	j.reverts = append(j.reverts, fn)
}

// OnCommit registers a function to run after the batch succeeds, typically
// to publish events that must not be observed for a reverted batch
func (j *Journal) OnCommit(fn func()) {
	j.commits = append(j.commits, fn)
}

func (j *Journal) revert() {
	for i := len(j.reverts) - 1; i >= 0; i-- {
		j.reverts[i]()
	}
	j.reverts = nil
	j.commits = nil
}

func (j *Journal) commit() {
	for _, fn := range j.commits {
		fn()
	}
	j.reverts = nil
	j.commits = nil
}

// Executor routes proposal actions to the Target registered for each address
type Executor struct {
	targets map[common.Address]Target
	mu      sync.RWMutex
}

func NewExecutor() *Executor {
	return &Executor{
		targets: make(map[common.Address]Target),
	}
}

// Register installs the Target that handles calls to addr, replacing any
// previous registration
func (e *Executor) Register(addr common.Address, target Target) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.targets[addr] = target
}

// Targets returns the addresses with a registered Target
func (e *Executor) Targets() []common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ret := make([]common.Address, 0, len(e.targets))
	for addr := range e.targets {
		ret = append(ret, addr)
	}
	return ret
}

func (e *Executor) call(ctx context.Context, journal *Journal, call Call) error {
	e.mu.RLock()
	target, ok := e.targets[call.Target]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoTarget, call.Target)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return target.Call(ctx, journal, call)
}

// Execute runs the action batch of a succeeded proposal. The proposal is
// identified by hashing the supplied batch, so the caller must resubmit the
// exact parameters it proposed with.
func (g *Governor) Execute(
	ctx context.Context,
	targets []common.Address,
	values []*big.Int,
	calldatas [][]byte,
	descriptionHash common.Hash,
	block uint64,
) (common.Hash, error) {
	id, err := HashProposal(targets, values, calldatas, descriptionHash)
	if err != nil {
		return common.Hash{}, err
	}
	if err := g.ExecuteProposal(
		ctx,
		id,
		targets,
		values,
		calldatas,
		descriptionHash,
		block,
	); err != nil {
		return id, err
	}
	return id, nil
}

// ExecuteProposal runs the action batch of proposal id after checking that
// the supplied batch matches the stored record exactly.
//
// The executed flag is set before the first action runs and reset if any
// action fails, in which case every effect recorded in the journal is undone.
func (g *Governor) ExecuteProposal(
	ctx context.Context,
	id common.Hash,
	targets []common.Address,
	values []*big.Int,
	calldatas [][]byte,
	descriptionHash common.Hash,
	block uint64,
) error {
	ctx, span := g.tracer.Start(
		ctx,
		"governance.Execute",
		trace.WithAttributes(attribute.String("proposal.id", id.Hex())),
	)
	defer span.End()
	derived, err := HashProposal(targets, values, calldatas, descriptionHash)
	if err != nil {
		return err
	}
	if derived != id {
		return fmt.Errorf(
			"%w: batch hashes to %s, not %s",
			ErrParameterMismatch,
			derived,
			id,
		)
	}
	p, err := g.store.Get(id)
	if err != nil {
		return err
	}
	if !p.matches(targets, values, calldatas, descriptionHash) {
		return fmt.Errorf("%w: %s", ErrParameterMismatch, id)
	}
	if p.Executed {
		return fmt.Errorf("%w: %s", ErrAlreadyExecuted, id)
	}
	if state := g.stateOf(&p, block); state != StateSucceeded {
		return fmt.Errorf(
			"%w: %s is %s at block %d",
			ErrNotReadyForExecution,
			id,
			state,
			block,
		)
	}
	// Claim the proposal before any action can call back into the governor
	if err := g.store.markExecuted(id); err != nil {
		return err
	}
	start := time.Now()
	journal := &Journal{}
	err = g.runActions(ctx, journal, &p, block)
	if g.metrics != nil {
		g.metrics.executeLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		journal.revert()
		g.store.clearExecuted(id)
		span.RecordError(err)
		span.SetStatus(codes.Error, "execution reverted")
		if g.metrics != nil {
			g.metrics.executionsTotal.WithLabelValues("reverted").Inc()
		}
		g.config.Logger.Warn(
			"proposal execution reverted",
			"proposal_id", id.Hex(),
			"block", block,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrExecutionReverted, err)
	}
	journal.commit()
	if g.metrics != nil {
		g.metrics.executionsTotal.WithLabelValues("executed").Inc()
	}
	g.config.Logger.Info(
		"proposal executed",
		"proposal_id", id.Hex(),
		"block", block,
		"actions", len(p.Targets),
	)
	g.publish(ProposalExecutedEventType, ProposalExecutedEvent{
		ProposalID: id,
		Block:      block,
	})
	return nil
}

func (g *Governor) runActions(
	ctx context.Context,
	journal *Journal,
	p *Proposal,
	block uint64,
) error {
	for i := range p.Targets {
		call := Call{
			Caller: g.config.Address,
			Target: p.Targets[i],
			Value:  new(big.Int).Set(p.Values[i]),
			Data:   p.Calldatas[i],
			Block:  block,
		}
		if err := g.config.Executor.call(ctx, journal, call); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, call.Target, err)
		}
	}
	return nil
}
