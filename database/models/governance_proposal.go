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

import (
	"errors"

	"github.com/blinklabs-io/gargoyle/database/types"
)

var ErrGovernanceProposalNotFound = errors.New("governance proposal not found")

// GovernanceProposal is the stored projection of a proposal. Tallies and
// terminal flags are rewritten as votes and transitions are applied.
type GovernanceProposal struct {
	ID              uint         `gorm:"primarykey"`
	ProposalID      []byte       `gorm:"uniqueIndex;size:32;not null"`
	Proposer        []byte       `gorm:"index;size:20;not null"`
	DescriptionHash []byte       `gorm:"size:32;not null"`
	Description     string       `gorm:"not null"`
	VoteStart       uint64       `gorm:"index;not null"`
	VoteEnd         uint64       `gorm:"index;not null"`
	ForVotes        types.BigInt `gorm:"not null"`
	AgainstVotes    types.BigInt `gorm:"not null"`
	AbstainVotes    types.BigInt `gorm:"not null"`
	Executed        bool         `gorm:"not null"`
	Canceled        bool         `gorm:"not null"`
	AddedBlock      uint64       `gorm:"index;not null"`
	ExecutedBlock   *uint64
	CanceledBlock   *uint64
	Actions         []GovernanceProposalAction `gorm:"-"`
}

// TableName returns the table name
func (GovernanceProposal) TableName() string {
	return "governance_proposal"
}

// GovernanceProposalAction is one (target, value, calldata) entry of a
// proposal's action batch
type GovernanceProposalAction struct {
	ID         uint         `gorm:"primarykey"`
	ProposalID []byte       `gorm:"uniqueIndex:idx_proposal_action,priority:1;size:32;not null"`
	ActionIdx  uint32       `gorm:"uniqueIndex:idx_proposal_action,priority:2;not null"`
	Target     []byte       `gorm:"size:20;not null"`
	Value      types.BigInt `gorm:"not null"`
	Calldata   []byte
}

// TableName returns the table name
func (GovernanceProposalAction) TableName() string {
	return "governance_proposal_action"
}
