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
	"github.com/ethereum/go-ethereum/common"
)

// State computes the proposal's state as of the given block. The result is
// derived from the stored record on every call and is never cached.
func (g *Governor) State(id common.Hash, block uint64) (ProposalState, error) {
	p, err := g.store.Get(id)
	if err != nil {
		return 0, err
	}
	return g.stateOf(&p, block), nil
}

func (g *Governor) stateOf(p *Proposal, block uint64) ProposalState {
	switch {
	case p.Executed:
		return StateExecuted
	case p.Canceled:
		return StateCanceled
	case block < p.VoteStart:
		return StatePending
	case block < p.VoteEnd:
		return StateActive
	case g.voteSucceeded(p):
		return StateSucceeded
	default:
		return StateDefeated
	}
}

// ProposalSnapshot returns the block voting weight is frozen at
func (g *Governor) ProposalSnapshot(id common.Hash) (uint64, error) {
	p, err := g.store.Get(id)
	if err != nil {
		return 0, err
	}
	return p.VoteStart, nil
}

// ProposalDeadline returns the first block at which voting is closed
func (g *Governor) ProposalDeadline(id common.Hash) (uint64, error) {
	p, err := g.store.Get(id)
	if err != nil {
		return 0, err
	}
	return p.VoteEnd, nil
}

func (g *Governor) ProposalProposer(id common.Hash) (common.Address, error) {
	p, err := g.store.Get(id)
	if err != nil {
		return common.Address{}, err
	}
	return p.Proposer, nil
}
