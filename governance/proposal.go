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
	"bytes"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
)

// Support is the direction of a vote. The numeric values are part of the
// external vote interface and must not change.
type Support uint8

const (
	SupportAgainst Support = 0
	SupportFor     Support = 1
	SupportAbstain Support = 2
)

// Valid returns true if the value is a known vote direction
func (s Support) Valid() bool {
	return s <= SupportAbstain
}

func (s Support) String() string {
	switch s {
	case SupportAgainst:
		return "against"
	case SupportFor:
		return "for"
	case SupportAbstain:
		return "abstain"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ParseSupport accepts either the numeric or the named form of a vote direction
func ParseSupport(s string) (Support, error) {
	switch s {
	case "0", "against":
		return SupportAgainst, nil
	case "1", "for":
		return SupportFor, nil
	case "2", "abstain":
		return SupportAbstain, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidVoteType, s)
	}
}

// ProposalState is the computed lifecycle state of a proposal. Values 5 and 6
// are reserved for queued/expired states, which this engine does not use.
type ProposalState uint8

const (
	StatePending   ProposalState = 0
	StateActive    ProposalState = 1
	StateCanceled  ProposalState = 2
	StateDefeated  ProposalState = 3
	StateSucceeded ProposalState = 4
	StateExecuted  ProposalState = 7
)

func (s ProposalState) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateActive:
		return "Active"
	case StateCanceled:
		return "Canceled"
	case StateDefeated:
		return "Defeated"
	case StateSucceeded:
		return "Succeeded"
	case StateExecuted:
		return "Executed"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// Proposal is a batch of actions put to a vote.
//
// Targets, Values and Calldatas are parallel arrays describing the action
// batch. Calldatas are opaque to the engine: they are hashed and forwarded to
// the target unchanged.
type Proposal struct {
	ID              common.Hash
	Proposer        common.Address
	Targets         []common.Address
	Values          []*big.Int
	Calldatas       [][]byte
	DescriptionHash common.Hash
	// Description is the submitted text, kept for display only
	Description  string
	VoteStart    uint64
	VoteEnd      uint64
	ForVotes     *big.Int
	AgainstVotes *big.Int
	AbstainVotes *big.Int
	Executed     bool
	Canceled     bool
}

// clone returns a deep copy so callers never share mutable state with the store
func (p *Proposal) clone() Proposal {
	ret := *p
	ret.Targets, ret.Values, ret.Calldatas = cloneBatch(
		p.Targets,
		p.Values,
		p.Calldatas,
	)
	ret.ForVotes = new(big.Int).Set(p.ForVotes)
	ret.AgainstVotes = new(big.Int).Set(p.AgainstVotes)
	ret.AbstainVotes = new(big.Int).Set(p.AbstainVotes)
	return ret
}

func cloneBatch(
	targets []common.Address,
	values []*big.Int,
	calldatas [][]byte,
) ([]common.Address, []*big.Int, [][]byte) {
	retValues := make([]*big.Int, len(values))
	for i, v := range values {
		retValues[i] = new(big.Int).Set(v)
	}
	retCalldatas := make([][]byte, len(calldatas))
	for i, c := range calldatas {
		retCalldatas[i] = bytes.Clone(c)
	}
	return slices.Clone(targets), retValues, retCalldatas
}

// matches reports whether the action batch is identical to the stored one
func (p *Proposal) matches(
	targets []common.Address,
	values []*big.Int,
	calldatas [][]byte,
	descriptionHash common.Hash,
) bool {
	if p.DescriptionHash != descriptionHash ||
		len(p.Targets) != len(targets) ||
		len(p.Values) != len(values) ||
		len(p.Calldatas) != len(calldatas) {
		return false
	}
	if !slices.Equal(p.Targets, targets) {
		return false
	}
	for i := range values {
		if values[i] == nil || p.Values[i].Cmp(values[i]) != 0 {
			return false
		}
	}
	for i := range calldatas {
		if !bytes.Equal(p.Calldatas[i], calldatas[i]) {
			return false
		}
	}
	return true
}

// Receipt records a single voter's ballot on a proposal
type Receipt struct {
	HasVoted bool
	Support  Support
	Weight   *big.Int
	Reason   string
}
