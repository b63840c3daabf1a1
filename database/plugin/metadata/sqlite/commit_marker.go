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
	"errors"

	"github.com/blinklabs-io/gargoyle/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommitMarker is a single-row table holding the sequence of the last
// commit that reached the projections
type CommitMarker struct {
	ID  uint         `gorm:"primarykey"`
	Seq types.Uint64 `gorm:"type:text;not null"`
}

func (CommitMarker) TableName() string {
	return "commit_marker"
}

const commitMarkerRowId = 1

func (d *MetadataStoreSqlite) GetCommitMarker() (uint64, error) {
	var marker CommitMarker
	err := d.DB().First(&marker, commitMarkerRowId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return uint64(marker.Seq), nil
}

func (d *MetadataStoreSqlite) SetCommitMarker(seq uint64, txn types.Txn) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"seq"}),
	}).Create(&CommitMarker{ID: commitMarkerRowId, Seq: types.Uint64(seq)}).Error
}
