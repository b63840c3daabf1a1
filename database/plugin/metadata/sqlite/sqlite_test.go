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

package sqlite

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/blinklabs-io/gargoyle/database/models"
	"github.com/blinklabs-io/gargoyle/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MetadataStoreSqlite {
	t.Helper()
	store, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestTransactionCommitVisible(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetVotingCheckpoint(&models.VotingCheckpoint{
		Account: models.SupplyAccount,
		Block:   3,
		Weight:  types.NewBigInt(big.NewInt(42)),
	}, txn))
	require.NoError(t, txn.Commit())
	checkpoints, err := store.GetVotingCheckpoints(models.SupplyAccount, nil)
	require.NoError(t, err)
	require.Len(t, checkpoints, 1)
	assert.Equal(t, int64(42), checkpoints[0].Weight.Int64())
}

func TestTransactionRollbackDiscards(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetAccount(&models.Account{
		Address: make([]byte, 20),
		Balance: types.NewBigInt(big.NewInt(1)),
	}, txn))
	require.NoError(t, txn.Rollback())
	account, err := store.GetAccount(make([]byte, 20), nil)
	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestResolveDBRejectsForeignTxn(t *testing.T) {
	store := newTestStore(t)
	other := newTestStore(t)
	txn := other.Transaction()
	t.Cleanup(func() { _ = txn.Rollback() })
	_, err := store.resolveDB(txn)
	require.Error(t, err)

	finished := store.Transaction()
	require.NoError(t, finished.Commit())
	_, err = store.resolveDB(finished)
	require.Error(t, err)
	// A second commit is a no-op
	require.NoError(t, finished.Commit())
}

func TestCommitMarker(t *testing.T) {
	store := newTestStore(t)
	seq, err := store.GetCommitMarker()
	require.NoError(t, err)
	assert.Zero(t, seq)
	for _, want := range []uint64{7, 8, math.MaxUint64} {
		txn := store.Transaction()
		require.NoError(t, store.SetCommitMarker(want, txn))
		require.NoError(t, txn.Commit())
		seq, err = store.GetCommitMarker()
		require.NoError(t, err)
		assert.Equal(t, want, seq)
	}
	// Uncommitted markers are not visible
	txn := store.Transaction()
	require.NoError(t, store.SetCommitMarker(1, txn))
	require.NoError(t, txn.Rollback())
	seq, err = store.GetCommitMarker()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), seq)
}

func TestGetGovernanceProposalMissing(t *testing.T) {
	store := newTestStore(t)
	proposal, err := store.GetGovernanceProposal(make([]byte, 32), nil)
	require.NoError(t, err)
	assert.Nil(t, proposal)
	votes, err := store.GetGovernanceVotes(make([]byte, 32), nil)
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestVacuumSchedule(t *testing.T) {
	store, err := New(WithDataDir(t.TempDir()), WithVacuumInterval(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, store.vacuumInterval)
	store.timerMutex.Lock()
	assert.NotNil(t, store.timerVacuum)
	store.timerMutex.Unlock()
	require.NoError(t, store.Close())

	store, err = New(WithDataDir(t.TempDir()), WithVacuumInterval(-1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	store.timerMutex.Lock()
	assert.Nil(t, store.timerVacuum)
	store.timerMutex.Unlock()

	// In-memory stores never vacuum
	mem := newTestStore(t)
	assert.Equal(t, DefaultVacuumInterval, mem.vacuumInterval)
	mem.timerMutex.Lock()
	assert.Nil(t, mem.timerVacuum)
	mem.timerMutex.Unlock()
}
