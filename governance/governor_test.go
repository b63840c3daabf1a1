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

package governance_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/gargoyle/event"
	"github.com/blinklabs-io/gargoyle/governance"
	"github.com/blinklabs-io/gargoyle/ledger"
)

var (
	governorAddr = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	tokenAddr    = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	alice        = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob          = common.HexToAddress("0x2222222222222222222222222222222222222222")
	carol        = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

type fixture struct {
	ledger   *ledger.Ledger
	executor *governance.Executor
	gov      *governance.Governor
	bus      *event.EventBus
}

type allocation struct {
	holder common.Address
	amount int64
}

// newFixture mints and self-delegates each allocation at block 1
func newFixture(
	t *testing.T,
	delay, period uint64,
	allocs ...allocation,
) *fixture {
	t.Helper()
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	l := ledger.NewLedger(ledger.LedgerConfig{
		EventBus: bus,
		Owner:    governorAddr,
	})
	for _, a := range allocs {
		require.NoError(t, l.Mint(governorAddr, a.holder, big.NewInt(a.amount), 1))
		require.NoError(t, l.Delegate(a.holder, a.holder, 1))
	}
	executor := governance.NewExecutor()
	executor.Register(tokenAddr, ledger.NewToken(l))
	gov, err := governance.NewGovernor(governance.GovernorConfig{
		EventBus:          bus,
		PromRegistry:      prometheus.NewRegistry(),
		Votes:             l,
		Executor:          executor,
		Address:           governorAddr,
		VotingDelay:       delay,
		VotingPeriod:      period,
		QuorumNumerator:   4,
		QuorumDenominator: 100,
	})
	require.NoError(t, err)
	return &fixture{ledger: l, executor: executor, gov: gov, bus: bus}
}

type batch struct {
	targets   []common.Address
	values    []*big.Int
	calldatas [][]byte
	desc      string
}

func (b batch) descHash() common.Hash {
	return governance.HashDescription(b.desc)
}

func mintBatch(t *testing.T, to common.Address, amount int64, desc string) batch {
	t.Helper()
	data, err := ledger.EncodeMint(to, big.NewInt(amount))
	require.NoError(t, err)
	return batch{
		targets:   []common.Address{tokenAddr},
		values:    []*big.Int{big.NewInt(0)},
		calldatas: [][]byte{data},
		desc:      desc,
	}
}

func (f *fixture) propose(
	t *testing.T,
	proposer common.Address,
	b batch,
	block uint64,
) common.Hash {
	t.Helper()
	id, err := f.gov.Propose(
		context.Background(),
		proposer,
		b.targets,
		b.values,
		b.calldatas,
		b.desc,
		block,
	)
	require.NoError(t, err)
	return id
}

func (f *fixture) execute(b batch, block uint64) (common.Hash, error) {
	return f.gov.Execute(
		context.Background(),
		b.targets,
		b.values,
		b.calldatas,
		b.descHash(),
		block,
	)
}

func (f *fixture) state(t *testing.T, id common.Hash, block uint64) governance.ProposalState {
	t.Helper()
	state, err := f.gov.State(id, block)
	require.NoError(t, err)
	return state
}

func TestNewGovernorValidation(t *testing.T) {
	l := ledger.NewLedger(ledger.LedgerConfig{})
	testDefs := []struct {
		name string
		cfg  governance.GovernorConfig
	}{
		{
			name: "missing votes",
			cfg: governance.GovernorConfig{
				VotingPeriod:      1,
				QuorumDenominator: 100,
			},
		},
		{
			name: "zero period",
			cfg: governance.GovernorConfig{
				Votes:             l,
				QuorumDenominator: 100,
			},
		},
		{
			name: "zero denominator",
			cfg: governance.GovernorConfig{
				Votes:        l,
				VotingPeriod: 1,
			},
		},
		{
			name: "numerator above denominator",
			cfg: governance.GovernorConfig{
				Votes:             l,
				VotingPeriod:      1,
				QuorumNumerator:   101,
				QuorumDenominator: 100,
			},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := governance.NewGovernor(testDef.cfg)
			assert.Error(t, err)
		})
	}
}

func TestProposeIDMatchesPrecomputed(t *testing.T) {
	f := newFixture(t, 1, 5, allocation{alice, 10000})
	b := mintBatch(t, alice, 25000, "X")
	expected, err := governance.HashProposal(
		b.targets,
		b.values,
		b.calldatas,
		governance.HashDescription("X"),
	)
	require.NoError(t, err)
	id := f.propose(t, alice, b, 2)
	assert.Equal(t, expected, id)

	p, err := f.gov.Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, alice, p.Proposer)
	assert.Equal(t, uint64(3), p.VoteStart)
	assert.Equal(t, uint64(8), p.VoteEnd)
	assert.Equal(t, "X", p.Description)
	assert.Zero(t, p.ForVotes.Sign())
	assert.False(t, p.Executed)
	assert.False(t, p.Canceled)
}

func TestProposeDuplicate(t *testing.T) {
	f := newFixture(t, 1, 5, allocation{alice, 10000})
	b := mintBatch(t, alice, 1, "dup")
	id := f.propose(t, alice, b, 2)
	_, err := f.gov.CastVote(context.Background(), id, alice, governance.SupportFor, "", 3)
	require.NoError(t, err)
	_, err = f.gov.Propose(
		context.Background(),
		bob,
		b.targets,
		b.values,
		b.calldatas,
		b.desc,
		4,
	)
	require.ErrorIs(t, err, governance.ErrDuplicateProposal)
	// The original record is untouched
	p, err := f.gov.Proposal(id)
	require.NoError(t, err)
	assert.Equal(t, alice, p.Proposer)
	assert.Equal(t, int64(10000), p.ForVotes.Int64())
	assert.Len(t, f.gov.Proposals(), 1)
}

func TestProposeInvalidBatch(t *testing.T) {
	f := newFixture(t, 1, 5)
	_, err := f.gov.Propose(
		context.Background(),
		alice,
		[]common.Address{tokenAddr, tokenAddr},
		[]*big.Int{big.NewInt(0)},
		[][]byte{{0x01}, {0x02}},
		"mismatched",
		2,
	)
	assert.ErrorIs(t, err, governance.ErrInvalidProposal)
	_, err = f.gov.Propose(context.Background(), alice, nil, nil, nil, "empty", 2)
	assert.ErrorIs(t, err, governance.ErrInvalidProposal)
}

func TestProposalThreshold(t *testing.T) {
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()
	l := ledger.NewLedger(ledger.LedgerConfig{Owner: governorAddr})
	require.NoError(t, l.Mint(governorAddr, alice, big.NewInt(500), 1))
	require.NoError(t, l.Delegate(alice, alice, 1))
	gov, err := governance.NewGovernor(governance.GovernorConfig{
		EventBus:          bus,
		Votes:             l,
		VotingDelay:       1,
		VotingPeriod:      5,
		ProposalThreshold: big.NewInt(100),
		QuorumNumerator:   4,
		QuorumDenominator: 100,
	})
	require.NoError(t, err)
	b := mintBatch(t, alice, 1, "threshold")
	_, err = gov.Propose(context.Background(), bob, b.targets, b.values, b.calldatas, b.desc, 2)
	require.ErrorIs(t, err, governance.ErrInsufficientProposerVotes)
	_, err = gov.Propose(context.Background(), alice, b.targets, b.values, b.calldatas, b.desc, 2)
	require.NoError(t, err)
}

func TestStateWindows(t *testing.T) {
	testDefs := []struct {
		delay  uint64
		period uint64
	}{
		{delay: 0, period: 1},
		{delay: 1, period: 5},
		{delay: 2, period: 10},
		{delay: 7, period: 3},
		{delay: 13, period: 40},
	}
	const proposeBlock = 10
	for _, testDef := range testDefs {
		f := newFixture(t, testDef.delay, testDef.period, allocation{alice, 10000})
		id := f.propose(t, alice, mintBatch(t, alice, 1, "window"), proposeBlock)
		voteStart := proposeBlock + testDef.delay
		voteEnd := voteStart + testDef.period
		snapshot, err := f.gov.ProposalSnapshot(id)
		require.NoError(t, err)
		deadline, err := f.gov.ProposalDeadline(id)
		require.NoError(t, err)
		assert.Equal(t, voteStart, snapshot)
		assert.Equal(t, voteEnd, deadline)
		for block := uint64(proposeBlock); block < voteStart; block++ {
			assert.Equal(t, governance.StatePending, f.state(t, id, block),
				"delay=%d period=%d block=%d", testDef.delay, testDef.period, block)
		}
		for block := voteStart; block < voteEnd; block++ {
			assert.Equal(t, governance.StateActive, f.state(t, id, block),
				"delay=%d period=%d block=%d", testDef.delay, testDef.period, block)
		}
		// Nobody voted, so the proposal is defeated once the window closes
		assert.Equal(t, governance.StateDefeated, f.state(t, id, voteEnd))
		assert.Equal(t, governance.StateDefeated, f.state(t, id, voteEnd+1000))
	}
}

func TestCastVoteOutsideWindow(t *testing.T) {
	f := newFixture(t, 2, 3, allocation{alice, 10000})
	id := f.propose(t, alice, mintBatch(t, alice, 1, "closed"), 10)
	ctx := context.Background()
	_, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 11)
	require.ErrorIs(t, err, governance.ErrVotingClosed)
	_, err = f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 15)
	require.ErrorIs(t, err, governance.ErrVotingClosed)
	assert.False(t, f.gov.HasVoted(id, alice))
	_, err = f.gov.CastVote(ctx, common.Hash{0x01}, alice, governance.SupportFor, "", 12)
	require.ErrorIs(t, err, governance.ErrUnknownProposal)
}

func TestCastVoteAlreadyVoted(t *testing.T) {
	f := newFixture(t, 1, 5, allocation{alice, 10000})
	id := f.propose(t, alice, mintBatch(t, alice, 1, "twice"), 2)
	ctx := context.Background()
	weight, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "first", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), weight.Int64())
	for _, support := range []governance.Support{
		governance.SupportFor,
		governance.SupportAgainst,
		governance.SupportAbstain,
	} {
		_, err = f.gov.CastVote(ctx, id, alice, support, "again", 4)
		require.ErrorIs(t, err, governance.ErrAlreadyVoted)
	}
	againstVotes, forVotes, abstainVotes, err := f.gov.ProposalVotes(id)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), forVotes.Int64())
	assert.Zero(t, againstVotes.Sign())
	assert.Zero(t, abstainVotes.Sign())
	receipt, err := f.gov.Receipt(id, alice)
	require.NoError(t, err)
	assert.True(t, receipt.HasVoted)
	assert.Equal(t, governance.SupportFor, receipt.Support)
	assert.Equal(t, "first", receipt.Reason)
}

func TestCastVoteInvalidSupport(t *testing.T) {
	f := newFixture(t, 1, 5, allocation{alice, 10000})
	id := f.propose(t, alice, mintBatch(t, alice, 1, "support"), 2)
	_, err := f.gov.CastVote(context.Background(), id, alice, governance.Support(3), "", 3)
	require.ErrorIs(t, err, governance.ErrInvalidVoteType)
	assert.False(t, f.gov.HasVoted(id, alice))
}

func TestVoteWeightFrozenAtSnapshot(t *testing.T) {
	f := newFixture(t, 2, 10, allocation{alice, 6000}, allocation{bob, 4000})
	id := f.propose(t, alice, mintBatch(t, alice, 1, "snapshot"), 5)
	// voteStart is 7; balance moves after the snapshot must not count
	require.NoError(t, f.ledger.Transfer(bob, alice, big.NewInt(4000), 8))
	require.NoError(t, f.ledger.Delegate(carol, carol, 8))
	require.NoError(t, f.ledger.Transfer(alice, carol, big.NewInt(10000), 9))

	ctx := context.Background()
	aliceWeight, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 10)
	require.NoError(t, err)
	bobWeight, err := f.gov.CastVote(ctx, id, bob, governance.SupportAgainst, "", 11)
	require.NoError(t, err)
	carolWeight, err := f.gov.CastVote(ctx, id, carol, governance.SupportFor, "", 12)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), aliceWeight.Int64())
	assert.Equal(t, int64(4000), bobWeight.Int64())
	assert.Zero(t, carolWeight.Sign())
	assert.Equal(t, int64(10000), f.ledger.Weight(carol).Int64())
}

func TestQuorumAndMajority(t *testing.T) {
	allocs := []allocation{
		{alice, 300},
		{bob, 100},
		{carol, 9600},
	}
	ctx := context.Background()

	t.Run("abstain counts toward quorum", func(t *testing.T) {
		f := newFixture(t, 1, 5, allocs...)
		id := f.propose(t, alice, mintBatch(t, alice, 1, "quorum-abstain"), 2)
		assert.Equal(t, int64(400), f.gov.Quorum(3).Int64())
		_, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 3)
		require.NoError(t, err)
		reached, err := f.gov.QuorumReached(id)
		require.NoError(t, err)
		assert.False(t, reached)
		_, err = f.gov.CastVote(ctx, id, bob, governance.SupportAbstain, "", 4)
		require.NoError(t, err)
		reached, err = f.gov.QuorumReached(id)
		require.NoError(t, err)
		assert.True(t, reached)
		assert.Equal(t, governance.StateSucceeded, f.state(t, id, 8))
	})

	t.Run("below quorum is defeated", func(t *testing.T) {
		f := newFixture(t, 1, 5, allocs...)
		id := f.propose(t, alice, mintBatch(t, alice, 1, "quorum-short"), 2)
		_, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 3)
		require.NoError(t, err)
		assert.Equal(t, governance.StateDefeated, f.state(t, id, 8))
	})

	t.Run("against majority is defeated", func(t *testing.T) {
		f := newFixture(t, 1, 5, allocs...)
		id := f.propose(t, alice, mintBatch(t, alice, 1, "majority"), 2)
		_, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 3)
		require.NoError(t, err)
		_, err = f.gov.CastVote(ctx, id, carol, governance.SupportAgainst, "", 3)
		require.NoError(t, err)
		reached, err := f.gov.QuorumReached(id)
		require.NoError(t, err)
		assert.True(t, reached)
		succeeded, err := f.gov.VoteSucceeded(id)
		require.NoError(t, err)
		assert.False(t, succeeded)
		assert.Equal(t, governance.StateDefeated, f.state(t, id, 8))
	})

	t.Run("tie is defeated", func(t *testing.T) {
		f := newFixture(t, 1, 5, allocation{alice, 5000}, allocation{bob, 5000})
		id := f.propose(t, alice, mintBatch(t, alice, 1, "tie"), 2)
		_, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 3)
		require.NoError(t, err)
		_, err = f.gov.CastVote(ctx, id, bob, governance.SupportAgainst, "", 3)
		require.NoError(t, err)
		assert.Equal(t, governance.StateDefeated, f.state(t, id, 8))
	})
}

func TestQuorumUsesSnapshotSupply(t *testing.T) {
	f := newFixture(t, 1, 5, allocation{alice, 300}, allocation{bob, 9700})
	id := f.propose(t, alice, mintBatch(t, alice, 1, "supply"), 2)
	ctx := context.Background()
	_, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 3)
	require.NoError(t, err)
	// Minting after the snapshot does not raise this proposal's quorum
	require.NoError(t, f.ledger.Mint(governorAddr, carol, big.NewInt(1000000), 4))
	_, err = f.gov.CastVote(ctx, id, bob, governance.SupportAbstain, "", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(400), f.gov.Quorum(3).Int64())
	assert.Equal(t, governance.StateSucceeded, f.state(t, id, 8))
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("proposer cancels while pending", func(t *testing.T) {
		f := newFixture(t, 2, 5, allocation{alice, 10000})
		id := f.propose(t, alice, mintBatch(t, alice, 1, "cancel-pending"), 2)
		require.NoError(t, f.gov.Cancel(ctx, id, alice, 3))
		assert.Equal(t, governance.StateCanceled, f.state(t, id, 3))
		assert.Equal(t, governance.StateCanceled, f.state(t, id, 100))
		_, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 4)
		require.ErrorIs(t, err, governance.ErrVotingClosed)
		require.ErrorIs(t, f.gov.Cancel(ctx, id, alice, 4), governance.ErrNotCancelable)
	})

	t.Run("non-proposer is rejected", func(t *testing.T) {
		f := newFixture(t, 1, 5, allocation{alice, 10000})
		id := f.propose(t, alice, mintBatch(t, alice, 1, "cancel-auth"), 2)
		require.ErrorIs(t, f.gov.Cancel(ctx, id, bob, 3), governance.ErrUnauthorized)
		assert.Equal(t, governance.StateActive, f.state(t, id, 3))
	})

	t.Run("closed proposal cannot be canceled", func(t *testing.T) {
		f := newFixture(t, 1, 5, allocation{alice, 10000})
		b := mintBatch(t, alice, 1, "cancel-closed")
		id := f.propose(t, alice, b, 2)
		_, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 3)
		require.NoError(t, err)
		require.ErrorIs(t, f.gov.Cancel(ctx, id, alice, 8), governance.ErrNotCancelable)
		_, err = f.execute(b, 8)
		require.NoError(t, err)
		require.ErrorIs(t, f.gov.Cancel(ctx, id, alice, 9), governance.ErrNotCancelable)
	})
}

// TestFullScenario proposes minting 25000 tokens, passes the vote with 10000
// weight against a 4% quorum and executes the batch exactly once
func TestFullScenario(t *testing.T) {
	f := newFixture(t, 1, 5, allocation{alice, 10000})
	ctx := context.Background()
	b := mintBatch(t, alice, 25000, "X")
	expected, err := f.gov.HashProposal(b.targets, b.values, b.calldatas, governance.HashDescription("X"))
	require.NoError(t, err)
	id := f.propose(t, alice, b, 2)
	require.Equal(t, expected, id)
	assert.Equal(t, governance.StatePending, f.state(t, id, 2))

	weight, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), weight.Int64())
	_, forVotes, _, err := f.gov.ProposalVotes(id)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), forVotes.Int64())

	_, err = f.execute(b, 7)
	require.ErrorIs(t, err, governance.ErrNotReadyForExecution)

	assert.Equal(t, int64(10000), f.ledger.TotalSupplyAt(3).Int64())
	assert.Equal(t, int64(400), f.gov.Quorum(3).Int64())
	reached, err := f.gov.QuorumReached(id)
	require.NoError(t, err)
	assert.True(t, reached)
	assert.Equal(t, governance.StateSucceeded, f.state(t, id, 8))

	executedID, err := f.execute(b, 8)
	require.NoError(t, err)
	assert.Equal(t, id, executedID)
	assert.Equal(t, governance.StateExecuted, f.state(t, id, 8))
	assert.Equal(t, int64(35000), f.ledger.BalanceOf(alice).Int64())
	assert.Equal(t, int64(35000), f.ledger.TotalSupply().Int64())

	_, err = f.execute(b, 9)
	require.ErrorIs(t, err, governance.ErrAlreadyExecuted)
	assert.Equal(t, int64(35000), f.ledger.BalanceOf(alice).Int64())
}

func TestExecuteRevertRollsBack(t *testing.T) {
	f := newFixture(t, 1, 5, allocation{alice, 10000})
	ctx := context.Background()
	mint, err := ledger.EncodeMint(alice, big.NewInt(500))
	require.NoError(t, err)
	missing := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	b := batch{
		targets:   []common.Address{tokenAddr, missing},
		values:    []*big.Int{big.NewInt(0), big.NewInt(0)},
		calldatas: [][]byte{mint, {0xde, 0xad, 0xbe, 0xef}},
		desc:      "partial",
	}
	id := f.propose(t, alice, b, 2)
	_, err = f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 3)
	require.NoError(t, err)
	checkpointsBefore := f.ledger.Checkpoints(alice)

	_, err = f.execute(b, 8)
	require.ErrorIs(t, err, governance.ErrExecutionReverted)
	require.ErrorIs(t, err, governance.ErrNoTarget)
	assert.Equal(t, int64(10000), f.ledger.BalanceOf(alice).Int64())
	assert.Equal(t, int64(10000), f.ledger.TotalSupply().Int64())
	assert.Equal(t, checkpointsBefore, f.ledger.Checkpoints(alice))
	assert.Equal(t, governance.StateSucceeded, f.state(t, id, 8))
	p, err := f.gov.Proposal(id)
	require.NoError(t, err)
	assert.False(t, p.Executed)
	assert.Equal(t, int64(10000), p.ForVotes.Int64())

	// Once the missing target exists the same batch can run
	var calls int
	f.executor.Register(missing, governance.TargetFunc(
		func(context.Context, *governance.Journal, governance.Call) error {
			calls++
			return nil
		},
	))
	_, err = f.execute(b, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(10500), f.ledger.BalanceOf(alice).Int64())
}

func TestExecuteLedgerFailureReverts(t *testing.T) {
	f := newFixture(t, 1, 5, allocation{alice, 10000})
	ctx := context.Background()
	// The governor holds no tokens, so the second action fails
	mint, err := ledger.EncodeMint(bob, big.NewInt(100))
	require.NoError(t, err)
	transfer, err := ledger.EncodeTransfer(carol, big.NewInt(1))
	require.NoError(t, err)
	b := batch{
		targets:   []common.Address{tokenAddr, tokenAddr},
		values:    []*big.Int{big.NewInt(0), big.NewInt(0)},
		calldatas: [][]byte{mint, transfer},
		desc:      "overdraw",
	}
	id := f.propose(t, alice, b, 2)
	_, err = f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 3)
	require.NoError(t, err)
	_, err = f.execute(b, 8)
	require.ErrorIs(t, err, governance.ErrExecutionReverted)
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	assert.Zero(t, f.ledger.BalanceOf(bob).Sign())
	assert.Equal(t, int64(10000), f.ledger.TotalSupply().Int64())
	assert.Equal(t, int64(10000), f.ledger.TotalSupplyAt(8).Int64())
}

func TestExecuteReentrancy(t *testing.T) {
	f := newFixture(t, 1, 5, allocation{alice, 10000})
	ctx := context.Background()
	hook := common.HexToAddress("0x00000000000000000000000000000000000000d0")
	b := batch{
		targets:   []common.Address{hook},
		values:    []*big.Int{big.NewInt(0)},
		calldatas: [][]byte{{0x01}},
		desc:      "reentrant",
	}
	var innerErr error
	var calls int
	f.executor.Register(hook, governance.TargetFunc(
		func(ctx context.Context, _ *governance.Journal, call governance.Call) error {
			calls++
			_, innerErr = f.gov.Execute(ctx, b.targets, b.values, b.calldatas, b.descHash(), call.Block)
			return nil
		},
	))
	id := f.propose(t, alice, b, 2)
	_, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 3)
	require.NoError(t, err)
	_, err = f.execute(b, 8)
	require.NoError(t, err)
	require.ErrorIs(t, innerErr, governance.ErrAlreadyExecuted)
	assert.Equal(t, 1, calls)
}

func TestExecuteParameterTampering(t *testing.T) {
	f := newFixture(t, 1, 5, allocation{alice, 10000})
	ctx := context.Background()
	b := mintBatch(t, alice, 100, "tamper")
	id := f.propose(t, alice, b, 2)
	_, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 3)
	require.NoError(t, err)

	tampered := mintBatch(t, alice, 1000000, "tamper")
	_, err = f.execute(tampered, 8)
	require.ErrorIs(t, err, governance.ErrUnknownProposal)

	err = f.gov.ExecuteProposal(
		ctx,
		id,
		tampered.targets,
		tampered.values,
		tampered.calldatas,
		tampered.descHash(),
		8,
	)
	require.ErrorIs(t, err, governance.ErrParameterMismatch)

	err = f.gov.ExecuteProposal(
		ctx,
		id,
		b.targets,
		b.values,
		b.calldatas,
		governance.HashDescription("other"),
		8,
	)
	require.ErrorIs(t, err, governance.ErrParameterMismatch)
	assert.Equal(t, governance.StateSucceeded, f.state(t, id, 8))
	assert.Equal(t, int64(10000), f.ledger.BalanceOf(alice).Int64())
}

func TestExecuteRejectsValueOnToken(t *testing.T) {
	f := newFixture(t, 1, 5, allocation{alice, 10000})
	ctx := context.Background()
	b := mintBatch(t, alice, 100, "payable")
	b.values = []*big.Int{big.NewInt(1)}
	id := f.propose(t, alice, b, 2)
	_, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "", 3)
	require.NoError(t, err)
	_, err = f.execute(b, 8)
	require.ErrorIs(t, err, ledger.ErrNonPayable)
	assert.True(t, errors.Is(err, governance.ErrExecutionReverted))
}

func TestGovernorEvents(t *testing.T) {
	f := newFixture(t, 1, 5, allocation{alice, 10000})
	_, createdCh := f.bus.Subscribe(governance.ProposalCreatedEventType)
	_, voteCh := f.bus.Subscribe(governance.VoteCastEventType)
	_, executedCh := f.bus.Subscribe(governance.ProposalExecutedEventType)
	_, transferCh := f.bus.Subscribe(ledger.TransferEventType)
	ctx := context.Background()
	b := mintBatch(t, alice, 25000, "events")
	id := f.propose(t, alice, b, 2)
	_, err := f.gov.CastVote(ctx, id, alice, governance.SupportFor, "looks good", 3)
	require.NoError(t, err)
	_, err = f.execute(b, 8)
	require.NoError(t, err)

	created := waitEvent(t, createdCh).Data.(governance.ProposalCreatedEvent)
	assert.Equal(t, id, created.ProposalID)
	assert.Equal(t, "events", created.Description)
	assert.Equal(t, uint64(3), created.VoteStart)

	vote := waitEvent(t, voteCh).Data.(governance.VoteCastEvent)
	assert.Equal(t, alice, vote.Voter)
	assert.Equal(t, governance.SupportFor, vote.Support)
	assert.Equal(t, int64(10000), vote.Weight.Int64())
	assert.Equal(t, "looks good", vote.Reason)

	executed := waitEvent(t, executedCh).Data.(governance.ProposalExecutedEvent)
	assert.Equal(t, id, executed.ProposalID)

	// Genesis mints may or may not have been delivered before subscribing
	for {
		transfer := waitEvent(t, transferCh).Data.(ledger.TransferEvent)
		if transfer.Block != 8 {
			continue
		}
		assert.Equal(t, alice, transfer.To)
		assert.Equal(t, int64(25000), transfer.Value.Int64())
		break
	}
}

func waitEvent(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return event.Event{}
}
