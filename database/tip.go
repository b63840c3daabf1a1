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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/gargoyle/database/types"
	"github.com/fxamacker/cbor/v2"
)

// Tip is the persisted chain position: the current block and the sequence
// number the next op log entry will use
type Tip struct {
	_       struct{} `cbor:",toarray"`
	Block   uint64
	NextSeq uint64
}

// GetTip returns the stored tip, or the zero tip for an empty database
func (d *Database) GetTip(txn *Txn) (Tip, error) {
	var tip Tip
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	val, err := d.blob.Get(txn.Blob(), []byte(types.TipKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return tip, nil
		}
		return tip, err
	}
	if err := cbor.Unmarshal(val, &tip); err != nil {
		return tip, fmt.Errorf("decode tip: %w", err)
	}
	return tip, nil
}

// SetTip saves the current tip
func (d *Database) SetTip(tip Tip, txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	val, err := cbor.Marshal(tip)
	if err != nil {
		return fmt.Errorf("encode tip: %w", err)
	}
	return d.blob.Set(txn.Blob(), []byte(types.TipKey), val)
}
