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

package governance

import (
	"math/big"

	"github.com/blinklabs-io/gargoyle/event"
	"github.com/ethereum/go-ethereum/common"
)

const (
	ProposalCreatedEventType  event.EventType = "governance.proposal.created"
	VoteCastEventType         event.EventType = "governance.vote.cast"
	ProposalExecutedEventType event.EventType = "governance.proposal.executed"
	ProposalCanceledEventType event.EventType = "governance.proposal.canceled"
)

// ProposalCreatedEvent is emitted when a proposal is accepted into the store
type ProposalCreatedEvent struct {
	ProposalID  common.Hash
	Proposer    common.Address
	Targets     []common.Address
	Values      []*big.Int
	Calldatas   [][]byte
	VoteStart   uint64
	VoteEnd     uint64
	Description string
	Block       uint64
}

// VoteCastEvent is emitted for every successful vote
type VoteCastEvent struct {
	Voter      common.Address
	ProposalID common.Hash
	Support    Support
	Weight     *big.Int
	Reason     string
	Block      uint64
}

// ProposalExecutedEvent is emitted once the full action batch has succeeded
type ProposalExecutedEvent struct {
	ProposalID common.Hash
	Block      uint64
}

type ProposalCanceledEvent struct {
	ProposalID common.Hash
	Block      uint64
}
