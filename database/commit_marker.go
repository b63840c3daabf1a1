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
)

// CommitMarkerError reports that the op log and the projections were last
// written by different commits. Blob commits first, so projections lagging
// behind means a crash between the two halves of a commit.
type CommitMarkerError struct {
	Metadata uint64
	Blob     uint64
}

func (e CommitMarkerError) Error() string {
	if e.ProjectionsBehind() {
		return fmt.Sprintf(
			"projections behind op log: commit %d (metadata) < %d (blob)",
			e.Metadata,
			e.Blob,
		)
	}
	return fmt.Sprintf(
		"commit marker mismatch: %d (metadata) != %d (blob)",
		e.Metadata,
		e.Blob,
	)
}

// ProjectionsBehind is true when only the metadata side missed commits
func (e CommitMarkerError) ProjectionsBehind() bool {
	return e.Metadata < e.Blob
}

// loadCommitMarker compares both stores and seeds the commit sequence
func (d *Database) loadCommitMarker() error {
	blobSeq, err := d.blob.GetCommitMarker()
	if err != nil {
		return fmt.Errorf("failed to read blob commit marker: %w", err)
	}
	metadataSeq, err := d.metadata.GetCommitMarker()
	if err != nil {
		return fmt.Errorf("failed to read metadata commit marker: %w", err)
	}
	d.commitSeq.Store(max(blobSeq, metadataSeq))
	if blobSeq != metadataSeq {
		return CommitMarkerError{Metadata: metadataSeq, Blob: blobSeq}
	}
	return nil
}

// CommitSeq returns the sequence of the last coordinated commit
func (d *Database) CommitSeq() uint64 {
	return d.commitSeq.Load()
}

func (d *Database) stampCommit(txn *Txn) error {
	seq := d.commitSeq.Add(1)
	if err := d.metadata.SetCommitMarker(seq, txn.Metadata()); err != nil {
		return err
	}
	return d.blob.SetCommitMarker(seq, txn.Blob())
}
