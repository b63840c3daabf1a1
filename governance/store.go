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
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Store holds proposal records and vote receipts. It is the only owner of
// this data: readers get copies, and tally and terminal-flag updates are
// reachable only from the governor's vote, cancel and execute paths.
type Store struct {
	proposals map[common.Hash]*Proposal
	receipts  map[common.Hash]map[common.Address]Receipt
	order     []common.Hash
	mu        sync.RWMutex
}

// NewStore returns an empty in-memory proposal store
func NewStore() *Store {
	return &Store{
		proposals: make(map[common.Hash]*Proposal),
		receipts:  make(map[common.Hash]map[common.Address]Receipt),
	}
}

// Create records a new proposal and returns its ID. The voting window opens
// votingDelay blocks after currentBlock and stays open for votingPeriod blocks.
func (s *Store) Create(
	proposer common.Address,
	targets []common.Address,
	values []*big.Int,
	calldatas [][]byte,
	description string,
	currentBlock uint64,
	votingDelay uint64,
	votingPeriod uint64,
) (common.Hash, error) {
	descriptionHash := HashDescription(description)
	id, err := HashProposal(targets, values, calldatas, descriptionHash)
	if err != nil {
		return common.Hash{}, err
	}
	if votingPeriod == 0 {
		return common.Hash{}, fmt.Errorf(
			"%w: voting period must be at least one block",
			ErrInvalidProposal,
		)
	}
	if currentBlock > math.MaxUint64-votingDelay ||
		currentBlock+votingDelay > math.MaxUint64-votingPeriod {
		return common.Hash{}, fmt.Errorf(
			"%w: voting window overflows block height",
			ErrInvalidProposal,
		)
	}
	voteStart := currentBlock + votingDelay
	p := &Proposal{
		ID:              id,
		Proposer:        proposer,
		Description:     description,
		DescriptionHash: descriptionHash,
		VoteStart:       voteStart,
		VoteEnd:         voteStart + votingPeriod,
		ForVotes:        new(big.Int),
		AgainstVotes:    new(big.Int),
		AbstainVotes:    new(big.Int),
	}
	p.Targets, p.Values, p.Calldatas = cloneBatch(targets, values, calldatas)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[id]; ok {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrDuplicateProposal, id)
	}
	s.proposals[id] = p
	s.order = append(s.order, id)
	return id, nil
}

// Get returns a copy of the proposal with the given ID
func (s *Store) Get(id common.Hash) (Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[id]
	if !ok {
		return Proposal{}, fmt.Errorf("%w: %s", ErrUnknownProposal, id)
	}
	return p.clone(), nil
}

// List returns copies of all proposals in creation order
func (s *Store) List() []Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]Proposal, 0, len(s.order))
	for _, id := range s.order {
		ret = append(ret, s.proposals[id].clone())
	}
	return ret
}

// Len returns the number of stored proposals
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Receipt returns the vote receipt for a voter, if one exists
func (s *Store) Receipt(id common.Hash, voter common.Address) (Receipt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[id][voter]
	if !ok {
		return Receipt{}, false
	}
	r.Weight = new(big.Int).Set(r.Weight)
	return r, true
}

// recordVote adds weight to the proposal tally and stores the receipt. The
// receipt check and the tally update happen under one lock.
func (s *Store) recordVote(
	id common.Hash,
	voter common.Address,
	support Support,
	weight *big.Int,
	reason string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProposal, id)
	}
	if _, voted := s.receipts[id][voter]; voted {
		return fmt.Errorf("%w: %s on %s", ErrAlreadyVoted, voter, id)
	}
	switch support {
	case SupportAgainst:
		p.AgainstVotes.Add(p.AgainstVotes, weight)
	case SupportFor:
		p.ForVotes.Add(p.ForVotes, weight)
	case SupportAbstain:
		p.AbstainVotes.Add(p.AbstainVotes, weight)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidVoteType, support)
	}
	if s.receipts[id] == nil {
		s.receipts[id] = make(map[common.Address]Receipt)
	}
	s.receipts[id][voter] = Receipt{
		HasVoted: true,
		Support:  support,
		Weight:   new(big.Int).Set(weight),
		Reason:   reason,
	}
	return nil
}

// markExecuted sets the executed flag if it is not already set. Only one of
// any number of concurrent callers can succeed.
func (s *Store) markExecuted(id common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProposal, id)
	}
	if p.Executed {
		return fmt.Errorf("%w: %s", ErrAlreadyExecuted, id)
	}
	p.Executed = true
	return nil
}

// clearExecuted undoes markExecuted after a reverted batch
func (s *Store) clearExecuted(id common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.proposals[id]; ok {
		p.Executed = false
	}
}

func (s *Store) markCanceled(id common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProposal, id)
	}
	if p.Executed || p.Canceled {
		return fmt.Errorf("%w: %s", ErrNotCancelable, id)
	}
	p.Canceled = true
	return nil
}
