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

// Vote constants represent the vote choice on a governance proposal.
const (
	VoteAgainst = 0
	VoteFor     = 1
	VoteAbstain = 2
)

// GovernanceVote is an immutable vote receipt
type GovernanceVote struct {
	ID         uint         `gorm:"primarykey"`
	ProposalID []byte       `gorm:"index:idx_vote_proposal;uniqueIndex:idx_vote_unique,priority:1;size:32;not null"`
	Voter      []byte       `gorm:"index:idx_vote_voter;uniqueIndex:idx_vote_unique,priority:2;size:20;not null"`
	Support    uint8        `gorm:"not null"` // 0=Against, 1=For, 2=Abstain
	Weight     types.BigInt `gorm:"not null"`
	Reason     string
	AddedBlock uint64 `gorm:"index;not null"`
}

// TableName returns the table name
func (GovernanceVote) TableName() string {
	return "governance_vote"
}
