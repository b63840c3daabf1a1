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

package types_test

import (
	"database/sql"
	"database/sql/driver"
	"math/big"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/gargoyle/database/types"
)

func TestTypesScanValue(t *testing.T) {
	huge, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	require.True(t, ok)
	testDefs := []struct {
		origValue     any
		expectedValue any
	}{
		{
			origValue: func(v types.Uint64) *types.Uint64 { return &v }(
				types.Uint64(123),
			),
			expectedValue: "123",
		},
		{
			origValue: func(v types.BigInt) *types.BigInt { return &v }(
				types.NewBigInt(big.NewInt(25000)),
			),
			expectedValue: "25000",
		},
		{
			origValue: func(v types.BigInt) *types.BigInt { return &v }(
				types.NewBigInt(huge),
			),
			expectedValue: huge.String(),
		},
	}
	for _, testDef := range testDefs {
		valuer, ok := testDef.origValue.(driver.Valuer)
		require.True(t, ok, "test original value does not implement driver.Valuer")
		valueOut, err := valuer.Value()
		require.NoError(t, err)
		assert.Equal(t, testDef.expectedValue, valueOut)
		// Scan the value back into a fresh instance of the same type
		tmpScanner, ok := reflect.New(
			reflect.TypeOf(testDef.origValue).Elem(),
		).Interface().(sql.Scanner)
		require.True(t, ok, "test value does not implement sql.Scanner")
		require.NoError(t, tmpScanner.Scan(valueOut))
		assert.Equal(t, testDef.origValue, tmpScanner)
	}
}

func TestBigIntScanRejectsGarbage(t *testing.T) {
	var b types.BigInt
	assert.Error(t, b.Scan("12ab"))
	assert.Error(t, b.Scan(42))
}

func TestOpLogKeyOrdering(t *testing.T) {
	k1 := types.OpLogKey(1)
	k2 := types.OpLogKey(256)
	assert.Less(t, string(k1), string(k2))
	seq, ok := types.OpLogSeq(k2)
	require.True(t, ok)
	assert.Equal(t, uint64(256), seq)
	_, ok = types.OpLogSeq([]byte("op"))
	assert.False(t, ok)
}
