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

package ledger

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/gargoyle/governance"
)

func TestEncodeMintSelector(t *testing.T) {
	data, err := EncodeMint(testAlice, big.NewInt(25000))
	require.NoError(t, err)
	// mint(address,uint256)
	assert.Equal(t, []byte{0x40, 0xc1, 0x0f, 0x19}, data[:4])
	assert.Len(t, data, 4+64)
	decoded, err := DecodeCall(data)
	require.NoError(t, err)
	assert.Equal(t, "mint", decoded.Method)
	assert.Equal(t, testAlice, decoded.Args["to"])
	assert.Equal(t, int64(25000), decoded.Args["amount"].(*big.Int).Int64())
}

func TestDecodeCallErrors(t *testing.T) {
	_, err := DecodeCall([]byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrUnknownSelector)
	_, err = DecodeCall([]byte{0xde, 0xad, 0xbe, 0xef})
	require.ErrorIs(t, err, ErrUnknownSelector)
	data, err := EncodeTransfer(testBob, big.NewInt(1))
	require.NoError(t, err)
	_, err = DecodeCall(data[:20])
	require.Error(t, err)
}

func tokenCall(t *testing.T, tok *Token, journal *governance.Journal, caller common.Address, data []byte, block uint64) error {
	t.Helper()
	return tok.Call(context.Background(), journal, governance.Call{
		Caller: caller,
		Target: common.HexToAddress("0x00000000000000000000000000000000000000b0"),
		Value:  big.NewInt(0),
		Data:   data,
		Block:  block,
	})
}

func TestTokenMethods(t *testing.T) {
	l := newTestLedger(t)
	tok := NewToken(l)
	journal := &governance.Journal{}
	mint, err := EncodeMint(testOwner, big.NewInt(100))
	require.NoError(t, err)
	require.NoError(t, tokenCall(t, tok, journal, testOwner, mint, 1))
	assert.Equal(t, int64(100), l.BalanceOf(testOwner).Int64())

	del, err := EncodeDelegate(testAlice)
	require.NoError(t, err)
	require.NoError(t, tokenCall(t, tok, journal, testOwner, del, 2))
	assert.Equal(t, int64(100), l.Weight(testAlice).Int64())

	transfer, err := EncodeTransfer(testBob, big.NewInt(30))
	require.NoError(t, err)
	require.NoError(t, tokenCall(t, tok, journal, testOwner, transfer, 3))
	assert.Equal(t, int64(30), l.BalanceOf(testBob).Int64())
	assert.Equal(t, int64(70), l.Weight(testAlice).Int64())

	burn, err := EncodeBurn(big.NewInt(20))
	require.NoError(t, err)
	require.NoError(t, tokenCall(t, tok, journal, testOwner, burn, 4))
	assert.Equal(t, int64(80), l.TotalSupply().Int64())

	own, err := EncodeTransferOwnership(testCarol)
	require.NoError(t, err)
	require.NoError(t, tokenCall(t, tok, journal, testOwner, own, 5))
	assert.Equal(t, testCarol, l.Owner())

	require.ErrorIs(t, tokenCall(t, tok, journal, testOwner, mint, 6), ErrNotOwner)
}

func TestTokenRejectsValue(t *testing.T) {
	l := newTestLedger(t)
	tok := NewToken(l)
	mint, err := EncodeMint(testAlice, big.NewInt(1))
	require.NoError(t, err)
	err = tok.Call(context.Background(), &governance.Journal{}, governance.Call{
		Caller: testOwner,
		Value:  big.NewInt(1),
		Data:   mint,
		Block:  1,
	})
	require.ErrorIs(t, err, ErrNonPayable)
	assert.Zero(t, l.TotalSupply().Sign())
}
