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

package badger

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/gargoyle/database/types"
)

// GetCommitMarker returns the sequence of the last coordinated commit, or 0
// for a fresh store
func (b *BlobStoreBadger) GetCommitMarker() (uint64, error) {
	txn := b.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := b.Get(txn, []byte(types.CommitMarkerKey))
	if errors.Is(err, types.ErrBlobKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	seq, ok := types.BytesToUint64(val)
	if !ok {
		return 0, fmt.Errorf("malformed commit marker: %x", val)
	}
	return seq, nil
}

func (b *BlobStoreBadger) SetCommitMarker(seq uint64, txn types.Txn) error {
	return b.Set(txn, []byte(types.CommitMarkerKey), types.Uint64ToBytes(seq))
}
