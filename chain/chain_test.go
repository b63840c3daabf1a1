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

package chain_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/blinklabs-io/gargoyle/chain"
	"github.com/blinklabs-io/gargoyle/database"
	"github.com/blinklabs-io/gargoyle/database/models"
	"github.com/blinklabs-io/gargoyle/governance"
	"github.com/blinklabs-io/gargoyle/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	governorAddr = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	tokenAddr    = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	alice        = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob          = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

const mintDescription = "Proposal #1: mint 25000 tokens to bob"

func newTestChain(
	t *testing.T,
	db *database.Database,
	interval time.Duration,
) *chain.Chain {
	t.Helper()
	l := ledger.NewLedger(ledger.LedgerConfig{Owner: governorAddr})
	executor := governance.NewExecutor()
	executor.Register(tokenAddr, ledger.NewToken(l))
	gov, err := governance.NewGovernor(governance.GovernorConfig{
		Votes:             l,
		Executor:          executor,
		Address:           governorAddr,
		VotingDelay:       1,
		VotingPeriod:      5,
		QuorumNumerator:   4,
		QuorumDenominator: 100,
	})
	require.NoError(t, err)
	c, err := chain.NewChain(chain.ChainConfig{
		PromRegistry:  prometheus.NewRegistry(),
		Database:      db,
		Governor:      gov,
		Ledger:        l,
		BlockInterval: interval,
		Genesis: []chain.Allocation{
			{Address: alice, Amount: big.NewInt(10000), Delegate: alice},
		},
	})
	require.NoError(t, err)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func newTestDatabase(t *testing.T, dataDir string) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	return db
}

func mintProposal(t *testing.T) *chain.Op {
	t.Helper()
	calldata, err := ledger.EncodeMint(bob, big.NewInt(25000))
	require.NoError(t, err)
	return &chain.Op{
		Type:        chain.OpPropose,
		From:        alice,
		Targets:     []common.Address{tokenAddr},
		Values:      []*big.Int{big.NewInt(0)},
		Calldatas:   [][]byte{calldata},
		Description: mintDescription,
	}
}

func executeOp(propose *chain.Op) *chain.Op {
	return &chain.Op{
		Type:            chain.OpExecute,
		From:            alice,
		Targets:         propose.Targets,
		Values:          propose.Values,
		Calldatas:       propose.Calldatas,
		DescriptionHash: governance.HashDescription(propose.Description),
	}
}

func TestGenesis(t *testing.T) {
	c := newTestChain(t, nil, 0)
	assert.Equal(t, uint64(2), c.Block())
	assert.Equal(t, uint64(2), c.Tip().NextSeq)
	assert.Equal(t, int64(10000), c.Ledger().WeightAt(alice, 1).Int64())
	assert.Equal(t, int64(10000), c.Ledger().TotalSupplyAt(1).Int64())
}

func TestScenarioPersistsProjections(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, "")
	t.Cleanup(func() { _ = db.Close() })
	c := newTestChain(t, db, 0)

	propose := mintProposal(t)
	res, err := c.Apply(ctx, propose)
	require.NoError(t, err)
	id := res.ProposalID
	assert.Equal(t, uint64(3), res.Block)
	assert.Equal(t, uint64(3), c.Block())

	_, err = c.Mine(ctx, 1)
	require.NoError(t, err)
	res, err = c.Apply(ctx, &chain.Op{
		Type:       chain.OpVote,
		From:       alice,
		ProposalID: id,
		Support:    governance.SupportFor,
		Reason:     "more tokens",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), res.Weight.Int64())

	assert.Equal(t, uint64(5), res.Block)

	block, err := c.Mine(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), block)
	state, err := c.Governor().State(id, block)
	require.NoError(t, err)
	assert.Equal(t, governance.StateSucceeded, state)

	res, err = c.Apply(ctx, executeOp(propose))
	require.NoError(t, err)
	assert.Equal(t, id, res.ProposalID)
	assert.Equal(t, int64(25000), c.Ledger().BalanceOf(bob).Int64())

	_, err = c.Apply(ctx, executeOp(propose))
	require.ErrorIs(t, err, governance.ErrAlreadyExecuted)

	proposal, err := db.GetGovernanceProposal(id.Bytes(), nil)
	require.NoError(t, err)
	assert.True(t, proposal.Executed)
	assert.Equal(t, int64(10000), proposal.ForVotes.Int64())
	assert.Equal(t, mintDescription, proposal.Description)
	assert.Equal(t, uint64(3), proposal.AddedBlock)
	require.NotNil(t, proposal.ExecutedBlock)
	assert.Equal(t, uint64(11), *proposal.ExecutedBlock)
	require.Len(t, proposal.Actions, 1)
	assert.Equal(t, tokenAddr.Bytes(), proposal.Actions[0].Target)

	votes, err := db.GetGovernanceVotes(id.Bytes(), nil)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, alice.Bytes(), votes[0].Voter)
	assert.Equal(t, "more tokens", votes[0].Reason)

	account, err := db.GetAccount(bob.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), account.Balance.Int64())
	assert.Nil(t, account.Delegate)

	supply, err := db.GetVotingCheckpoints(models.SupplyAccount, nil)
	require.NoError(t, err)
	require.Len(t, supply, 2)
	assert.Equal(t, uint64(1), supply[0].Block)
	assert.Equal(t, int64(10000), supply[0].Weight.Int64())
	assert.Equal(t, uint64(11), supply[1].Block)
	assert.Equal(t, int64(35000), supply[1].Weight.Int64())

	tip, err := db.GetTip(nil)
	require.NoError(t, err)
	assert.Equal(t, c.Tip(), tip)
}

func TestReplayRestoresState(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	db := newTestDatabase(t, dataDir)
	c := newTestChain(t, db, 0)
	propose := mintProposal(t)
	res, err := c.Apply(ctx, propose)
	require.NoError(t, err)
	id := res.ProposalID
	_, err = c.Mine(ctx, 2)
	require.NoError(t, err)
	_, err = c.Apply(ctx, &chain.Op{
		Type:       chain.OpVote,
		From:       alice,
		ProposalID: id,
		Support:    governance.SupportFor,
	})
	require.NoError(t, err)
	_, err = c.Mine(ctx, 1)
	require.NoError(t, err)
	expectedTip := c.Tip()
	require.NoError(t, db.Close())

	db = newTestDatabase(t, dataDir)
	t.Cleanup(func() { _ = db.Close() })
	c = newTestChain(t, db, 0)
	assert.Equal(t, expectedTip, c.Tip())
	assert.True(t, c.Governor().HasVoted(id, alice))
	_, forVotes, _, err := c.Governor().ProposalVotes(id)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), forVotes.Int64())
	// Genesis is not applied a second time
	assert.Equal(t, int64(10000), c.Ledger().TotalSupply().Int64())

	_, err = c.Mine(ctx, 5)
	require.NoError(t, err)
	_, err = c.Apply(ctx, executeOp(propose))
	require.NoError(t, err)
	assert.Equal(t, int64(25000), c.Ledger().BalanceOf(bob).Int64())
}

func TestRejectedOpIsNotLogged(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, "")
	t.Cleanup(func() { _ = db.Close() })
	c := newTestChain(t, db, 0)
	before := c.Tip()
	_, err := c.Apply(ctx, &chain.Op{
		Type:       chain.OpVote,
		From:       alice,
		ProposalID: common.HexToHash("0x01"),
	})
	require.ErrorIs(t, err, governance.ErrUnknownProposal)
	_, err = c.Apply(ctx, &chain.Op{
		Type:   chain.OpTransfer,
		From:   bob,
		To:     alice,
		Amount: big.NewInt(1),
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
	assert.Equal(t, before, c.Tip())
	count := 0
	require.NoError(t, db.ForEachOp(func(uint64, []byte) error {
		count++
		return nil
	}))
	assert.Equal(t, int(before.NextSeq), count)
}

func TestTransferAndDelegateProjection(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t, "")
	t.Cleanup(func() { _ = db.Close() })
	c := newTestChain(t, db, 0)
	_, err := c.Apply(ctx, &chain.Op{
		Type:   chain.OpTransfer,
		From:   alice,
		To:     bob,
		Amount: big.NewInt(4000),
	})
	require.NoError(t, err)
	_, err = c.Apply(ctx, &chain.Op{Type: chain.OpDelegate, From: bob, To: bob})
	require.NoError(t, err)

	checkpoints, err := db.GetVotingCheckpoints(alice.Bytes(), nil)
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	assert.Equal(t, int64(6000), checkpoints[1].Weight.Int64())
	checkpoints, err = db.GetVotingCheckpoints(bob.Bytes(), nil)
	require.NoError(t, err)
	require.Len(t, checkpoints, 1)
	assert.Equal(t, uint64(4), checkpoints[0].Block)
	assert.Equal(t, int64(4000), checkpoints[0].Weight.Int64())
	account, err := db.GetAccount(bob.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, bob.Bytes(), account.Delegate)
}

func TestInvalidOps(t *testing.T) {
	ctx := context.Background()
	c := newTestChain(t, nil, 0)
	testDefs := []struct {
		name string
		op   *chain.Op
	}{
		{name: "unknown type", op: &chain.Op{Type: 99}},
		{name: "propose without actions", op: &chain.Op{Type: chain.OpPropose}},
		{name: "vote without id", op: &chain.Op{Type: chain.OpVote}},
		{name: "transfer without amount", op: &chain.Op{Type: chain.OpTransfer}},
		{name: "mine zero", op: &chain.Op{Type: chain.OpMine}},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := c.Apply(ctx, testDef.op)
			require.Error(t, err)
		})
	}
	_, err := c.Mine(ctx, 0)
	require.ErrorIs(t, err, chain.ErrInvalidOp)
}

func TestOpLogEncoding(t *testing.T) {
	op := mintProposal(t)
	op.Block = 42
	data, err := op.Encode()
	require.NoError(t, err)
	decoded, err := chain.DecodeOp(data)
	require.NoError(t, err)
	assert.Equal(t, op.Block, decoded.Block)
	assert.Equal(t, op.Targets, decoded.Targets)
	assert.Equal(t, op.Calldatas, decoded.Calldatas)
	assert.Equal(t, 0, op.Values[0].Cmp(decoded.Values[0]))
	_, err = chain.DecodeOp([]byte{0xff})
	require.Error(t, err)
}

func TestRunProducesBlocks(t *testing.T) {
	c := newTestChain(t, nil, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	require.Eventually(t, func() bool {
		return c.Block() >= 5
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestOneOpPerBlock(t *testing.T) {
	ctx := context.Background()
	c := newTestChain(t, nil, 0)
	ops := []*chain.Op{
		{Type: chain.OpTransfer, From: alice, To: bob, Amount: big.NewInt(1)},
		{Type: chain.OpDelegate, From: bob, To: bob},
		mintProposal(t),
	}
	for i, op := range ops {
		res, err := c.Apply(ctx, op)
		require.NoError(t, err)
		assert.Equal(t, uint64(3+i), res.Block)
		assert.Equal(t, res.Block, c.Block())
	}
	// Rejected ops do not use up a block
	_, err := c.Apply(ctx, mintProposal(t))
	require.ErrorIs(t, err, governance.ErrDuplicateProposal)
	assert.Equal(t, uint64(5), c.Block())
}

func TestVoteWeightFrozenAtSnapshot(t *testing.T) {
	ctx := context.Background()
	c := newTestChain(t, nil, 0)
	_, err := c.Apply(ctx, &chain.Op{Type: chain.OpDelegate, From: bob, To: bob})
	require.NoError(t, err)
	res, err := c.Apply(ctx, mintProposal(t))
	require.NoError(t, err)
	id := res.ProposalID
	proposal, err := c.Governor().Proposal(id)
	require.NoError(t, err)

	// Alice votes in the snapshot block itself
	res, err = c.Apply(ctx, &chain.Op{
		Type:       chain.OpVote,
		From:       alice,
		ProposalID: id,
		Support:    governance.SupportFor,
	})
	require.NoError(t, err)
	require.Equal(t, proposal.VoteStart, res.Block)
	assert.Equal(t, int64(10000), res.Weight.Int64())

	// Moving the tokens afterwards must not let them vote again
	_, err = c.Apply(ctx, &chain.Op{
		Type:   chain.OpTransfer,
		From:   alice,
		To:     bob,
		Amount: big.NewInt(10000),
	})
	require.NoError(t, err)
	res, err = c.Apply(ctx, &chain.Op{
		Type:       chain.OpVote,
		From:       bob,
		ProposalID: id,
		Support:    governance.SupportFor,
	})
	require.NoError(t, err)
	assert.Zero(t, res.Weight.Sign())

	_, forVotes, _, err := c.Governor().ProposalVotes(id)
	require.NoError(t, err)
	supply := c.Ledger().TotalSupplyAt(proposal.VoteStart)
	assert.LessOrEqual(t, forVotes.Cmp(supply), 0)
	assert.Equal(t, int64(10000), forVotes.Int64())
}

func TestPersistFailureHaltsChain(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	db := newTestDatabase(t, dataDir)
	c := newTestChain(t, db, 0)
	before := c.Tip()

	// Break the proposal projection
	require.NoError(t, db.Metadata().DB().Migrator().DropTable(&models.GovernanceProposal{}))
	_, err := c.Apply(ctx, mintProposal(t))
	require.ErrorIs(t, err, chain.ErrPersist)
	require.Error(t, c.Halted())

	_, err = c.Apply(ctx, &chain.Op{
		Type:   chain.OpTransfer,
		From:   alice,
		To:     bob,
		Amount: big.NewInt(1),
	})
	require.ErrorIs(t, err, chain.ErrHalted)
	_, err = c.Mine(ctx, 1)
	require.ErrorIs(t, err, chain.ErrHalted)
	assert.Equal(t, before, c.Tip())
	count := 0
	require.NoError(t, db.ForEachOp(func(uint64, []byte) error {
		count++
		return nil
	}))
	assert.Equal(t, int(before.NextSeq), count)
	require.NoError(t, db.Close())

	// A restart replays only what was logged
	db = newTestDatabase(t, dataDir)
	t.Cleanup(func() { _ = db.Close() })
	c = newTestChain(t, db, 0)
	require.NoError(t, c.Halted())
	assert.Equal(t, before, c.Tip())
	assert.Empty(t, c.Governor().Proposals())
	res, err := c.Apply(ctx, mintProposal(t))
	require.NoError(t, err)
	assert.Equal(t, before.Block+1, res.Block)
}
