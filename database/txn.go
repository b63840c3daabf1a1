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
	"sync"

	"github.com/blinklabs-io/gargoyle/database/types"
)

// Txn spans the blob store (op log and tip) and the metadata store
// (projections). A read-write Txn commits the blob side first so that
// projections never get ahead of the op log.
type Txn struct {
	db          *Database
	blobTxn     types.Txn
	metadataTxn types.Txn
	onCommit    []func()
	lock        sync.Mutex
	finished    bool
	readWrite   bool
}

// NewTxn opens a transaction. Read-only transactions only open the blob
// store, since metadata reads go through the base handle.
func NewTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if bs := db.Blob(); bs != nil {
		t.blobTxn = bs.NewTransaction(readWrite)
	}
	if ms := db.Metadata(); ms != nil && readWrite {
		t.metadataTxn = ms.Transaction()
	}
	return t
}

func (t *Txn) DB() *Database {
	return t.db
}

// Metadata returns the metadata transaction handle. It is nil for read-only
// transactions.
func (t *Txn) Metadata() types.Txn {
	return t.metadataTxn
}

func (t *Txn) Blob() types.Txn {
	return t.blobTxn
}

// OnCommit registers fn to run once the transaction has committed. Hooks are
// dropped on rollback.
func (t *Txn) OnCommit(fn func()) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.onCommit = append(t.onCommit, fn)
}

// Do runs fn inside the transaction, committing if it succeeds and rolling
// back otherwise
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return fmt.Errorf(
				"rollback failed: %w: original error: %w",
				rbErr,
				err,
			)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

func (t *Txn) Commit() error {
	t.lock.Lock()
	if t.finished {
		t.lock.Unlock()
		return nil
	}
	if !t.readWrite {
		// Nothing to write, release the read snapshot
		err := t.rollback()
		t.lock.Unlock()
		return err
	}
	err := t.commitStores()
	t.finished = true
	hooks := t.onCommit
	t.onCommit = nil
	t.lock.Unlock()
	if err != nil {
		return err
	}
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// commitStores stamps and commits both sides. Expects t.lock held.
func (t *Txn) commitStores() error {
	if t.blobTxn == nil && t.metadataTxn == nil {
		return types.ErrNoStoreAvailable
	}
	abort := func() {
		if t.blobTxn != nil {
			_ = t.blobTxn.Rollback()
		}
		if t.metadataTxn != nil {
			_ = t.metadataTxn.Rollback()
		}
	}
	if t.blobTxn != nil && t.metadataTxn != nil {
		if err := t.db.stampCommit(t); err != nil {
			abort()
			return fmt.Errorf("failed to stamp commit: %w", err)
		}
	}
	if t.blobTxn != nil {
		if err := t.blobTxn.Commit(); err != nil {
			abort()
			return fmt.Errorf("blob commit failed: %w", err)
		}
	}
	if t.metadataTxn == nil {
		return nil
	}
	if err := t.metadataTxn.Commit(); err != nil {
		// The op log is durable, replay rebuilds the projections
		t.db.logger.Error(
			"partial commit: op log committed, projections failed",
			"error", err,
		)
		_ = t.metadataTxn.Rollback()
		return fmt.Errorf(
			"partial commit: metadata commit failed after blob commit: %w",
			err,
		)
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	t.onCommit = nil
	var err error
	if t.blobTxn != nil {
		if rbErr := t.blobTxn.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("blob rollback: %w", rbErr))
		}
	}
	if t.metadataTxn != nil {
		if rbErr := t.metadataTxn.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("metadata rollback: %w", rbErr))
		}
	}
	return err
}

// Release rolls back an unfinished transaction and logs any failure, so it
// is safe to defer
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}
