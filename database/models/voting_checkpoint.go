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

package models

import "github.com/blinklabs-io/gargoyle/database/types"

// SupplyAccount is the account key used for the total supply stream. The
// zero address never holds a delegate stream of its own.
var SupplyAccount = make([]byte, 20)

// VotingCheckpoint is one entry of a delegate's voting weight stream
type VotingCheckpoint struct {
	ID      uint         `gorm:"primarykey"`
	Account []byte       `gorm:"uniqueIndex:idx_checkpoint_account_block,priority:1;size:20;not null"`
	Block   uint64       `gorm:"uniqueIndex:idx_checkpoint_account_block,priority:2;not null"`
	Weight  types.BigInt `gorm:"not null"`
}

// TableName returns the table name
func (VotingCheckpoint) TableName() string {
	return "voting_checkpoint"
}
