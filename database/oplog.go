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
	"fmt"

	"github.com/blinklabs-io/gargoyle/database/types"
)

// AppendOp writes an encoded op to the op log at seq
func (d *Database) AppendOp(seq uint64, payload []byte, txn *Txn) error {
	if txn == nil {
		return types.ErrNilTxn
	}
	return d.blob.Set(txn.Blob(), types.OpLogKey(seq), payload)
}

// ForEachOp calls fn for every op log entry in sequence order. Iteration
// stops at the first error returned by fn.
func (d *Database) ForEachOp(fn func(seq uint64, payload []byte) error) error {
	txn := d.Transaction(false)
	defer txn.Release()
	prefix := []byte(types.OpLogKeyPrefix)
	it := d.blob.NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer it.Close()
	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		seq, ok := types.OpLogSeq(item.Key())
		if !ok {
			return fmt.Errorf("malformed op log key: %x", item.Key())
		}
		payload, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("read op %d: %w", seq, err)
		}
		if err := fn(seq, payload); err != nil {
			return err
		}
	}
	return it.Err()
}
