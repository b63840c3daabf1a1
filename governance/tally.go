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
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CastVote records a vote by voter on an active proposal and returns the
// weight counted. The weight is the voter's delegated weight at the
// proposal's snapshot block, regardless of when in the window the vote lands.
func (g *Governor) CastVote(
	ctx context.Context,
	id common.Hash,
	voter common.Address,
	support Support,
	reason string,
	block uint64,
) (*big.Int, error) {
	_, span := g.tracer.Start(
		ctx,
		"governance.CastVote",
		trace.WithAttributes(
			attribute.String("proposal.id", id.Hex()),
			attribute.String("voter", voter.Hex()),
		),
	)
	defer span.End()
	if !support.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVoteType, support)
	}
	p, err := g.store.Get(id)
	if err != nil {
		return nil, err
	}
	if state := g.stateOf(&p, block); state != StateActive {
		return nil, fmt.Errorf(
			"%w: %s is %s at block %d",
			ErrVotingClosed,
			id,
			state,
			block,
		)
	}
	weight := g.config.Votes.WeightAt(voter, p.VoteStart)
	if err := g.store.recordVote(id, voter, support, weight, reason); err != nil {
		span.RecordError(err)
		return nil, err
	}
	g.config.Logger.Debug(
		"vote cast",
		"proposal_id", id.Hex(),
		"voter", voter.Hex(),
		"support", support.String(),
		"weight", weight.String(),
	)
	if g.metrics != nil {
		g.metrics.votesTotal.WithLabelValues(support.String()).Inc()
	}
	g.publish(VoteCastEventType, VoteCastEvent{
		Voter:      voter,
		ProposalID: id,
		Support:    support,
		Weight:     new(big.Int).Set(weight),
		Reason:     reason,
		Block:      block,
	})
	return new(big.Int).Set(weight), nil
}

// Quorum returns the minimum For+Abstain weight needed for a proposal whose
// snapshot is the given block
func (g *Governor) Quorum(block uint64) *big.Int {
	supply := g.config.Votes.TotalSupplyAt(block)
	ret := new(big.Int).Mul(
		supply,
		new(big.Int).SetUint64(g.config.QuorumNumerator),
	)
	return ret.Quo(ret, new(big.Int).SetUint64(g.config.QuorumDenominator))
}

// QuorumReached reports whether For and Abstain votes together meet the
// quorum computed at the proposal's snapshot block
func (g *Governor) QuorumReached(id common.Hash) (bool, error) {
	p, err := g.store.Get(id)
	if err != nil {
		return false, err
	}
	return g.quorumReached(&p), nil
}

// VoteSucceeded reports whether For strictly exceeds Against and quorum is met
func (g *Governor) VoteSucceeded(id common.Hash) (bool, error) {
	p, err := g.store.Get(id)
	if err != nil {
		return false, err
	}
	return g.voteSucceeded(&p), nil
}

func (g *Governor) quorumReached(p *Proposal) bool {
	counted := new(big.Int).Add(p.ForVotes, p.AbstainVotes)
	return counted.Cmp(g.Quorum(p.VoteStart)) >= 0
}

func (g *Governor) voteSucceeded(p *Proposal) bool {
	return p.ForVotes.Cmp(p.AgainstVotes) > 0 && g.quorumReached(p)
}
