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

package chain

import (
	"fmt"
	"slices"

	"github.com/blinklabs-io/gargoyle/database"
	"github.com/blinklabs-io/gargoyle/database/models"
	"github.com/blinklabs-io/gargoyle/database/types"
	"github.com/blinklabs-io/gargoyle/governance"
	"github.com/blinklabs-io/gargoyle/ledger"
	"github.com/ethereum/go-ethereum/common"
)

// persist appends op to the op log, moves the tip to block and updates the
// projections op touches in a single transaction
func (c *Chain) persist(op *Op, res *ApplyResult, block uint64) error {
	db := c.config.Database
	if db == nil {
		return nil
	}
	payload, err := op.Encode()
	if err != nil {
		return err
	}
	txn := db.Transaction(true)
	return txn.Do(func(txn *database.Txn) error {
		if err := db.AppendOp(res.Seq, payload, txn); err != nil {
			return fmt.Errorf("append op: %w", err)
		}
		tip := database.Tip{Block: block, NextSeq: res.Seq + 1}
		if err := db.SetTip(tip, txn); err != nil {
			return fmt.Errorf("set tip: %w", err)
		}
		return c.project(op, res, txn)
	})
}

func (c *Chain) project(op *Op, res *ApplyResult, txn *database.Txn) error {
	switch op.Type {
	case OpPropose, OpCancel:
		return c.projectProposal(op, res.ProposalID, txn)
	case OpVote:
		if err := c.projectVote(op, res, txn); err != nil {
			return err
		}
		return c.projectProposal(op, res.ProposalID, txn)
	case OpExecute:
		if err := c.projectProposal(op, res.ProposalID, txn); err != nil {
			return err
		}
		return c.projectLedger(op, txn)
	case OpDelegate, OpTransfer, OpMint:
		return c.projectLedger(op, txn)
	}
	return nil
}

func (c *Chain) projectProposal(
	op *Op,
	id common.Hash,
	txn *database.Txn,
) error {
	p, err := c.config.Governor.Proposal(id)
	if err != nil {
		return err
	}
	model := &models.GovernanceProposal{
		ProposalID:      id.Bytes(),
		Proposer:        p.Proposer.Bytes(),
		DescriptionHash: p.DescriptionHash.Bytes(),
		Description:     p.Description,
		VoteStart:       p.VoteStart,
		VoteEnd:         p.VoteEnd,
		ForVotes:        types.NewBigInt(p.ForVotes),
		AgainstVotes:    types.NewBigInt(p.AgainstVotes),
		AbstainVotes:    types.NewBigInt(p.AbstainVotes),
		Executed:        p.Executed,
		Canceled:        p.Canceled,
		AddedBlock:      op.Block,
	}
	switch op.Type {
	case OpPropose:
		model.Actions = proposalActions(&p)
	case OpExecute:
		model.ExecutedBlock = &op.Block
	case OpCancel:
		model.CanceledBlock = &op.Block
	}
	return c.config.Database.SetGovernanceProposal(model, txn)
}

func proposalActions(p *governance.Proposal) []models.GovernanceProposalAction {
	ret := make([]models.GovernanceProposalAction, len(p.Targets))
	for i := range p.Targets {
		ret[i] = models.GovernanceProposalAction{
			ProposalID: p.ID.Bytes(),
			ActionIdx:  uint32(i), //nolint:gosec
			Target:     p.Targets[i].Bytes(),
			Value:      types.NewBigInt(p.Values[i]),
			Calldata:   p.Calldatas[i],
		}
	}
	return ret
}

func (c *Chain) projectVote(
	op *Op,
	res *ApplyResult,
	txn *database.Txn,
) error {
	return c.config.Database.SetGovernanceVote(&models.GovernanceVote{
		ProposalID: op.ProposalID.Bytes(),
		Voter:      op.From.Bytes(),
		Support:    uint8(op.Support),
		Weight:     types.NewBigInt(res.Weight),
		Reason:     op.Reason,
		AddedBlock: op.Block,
	}, txn)
}

// projectLedger writes every known account and the tail of every checkpoint
// stream. Streams only change at their tail, and at most once per block, so
// this mirrors them exactly.
func (c *Chain) projectLedger(op *Op, txn *database.Txn) error {
	db := c.config.Database
	l := c.config.Ledger
	// Addresses first seen here join the known set only once the
	// projection commits
	var added []common.Address
	candidates := append(l.Accounts(), op.From, op.To)
	for _, addr := range candidates {
		if addr == (common.Address{}) {
			continue
		}
		if _, ok := c.known[addr]; !ok && !slices.Contains(added, addr) {
			added = append(added, addr)
		}
	}
	accounts := make([]common.Address, 0, len(c.known)+len(added))
	for addr := range c.known {
		accounts = append(accounts, addr)
	}
	accounts = append(accounts, added...)
	if len(added) > 0 {
		txn.OnCommit(func() {
			for _, addr := range added {
				c.known[addr] = struct{}{}
			}
		})
	}
	slices.SortFunc(accounts, func(a, b common.Address) int {
		return a.Cmp(b)
	})
	for _, addr := range accounts {
		account := &models.Account{
			Address:    addr.Bytes(),
			Balance:    types.NewBigInt(l.BalanceOf(addr)),
			AddedBlock: op.Block,
		}
		if delegate := l.Delegates(addr); delegate != (common.Address{}) {
			account.Delegate = delegate.Bytes()
		}
		if err := db.SetAccount(account, txn); err != nil {
			return fmt.Errorf("project account %s: %w", addr.Hex(), err)
		}
	}
	for _, addr := range l.Delegatees() {
		if err := projectTail(db, addr.Bytes(), l.Checkpoints(addr), txn); err != nil {
			return err
		}
	}
	return projectTail(db, models.SupplyAccount, l.SupplyCheckpoints(), txn)
}

func projectTail(
	db *database.Database,
	account []byte,
	stream []ledger.Checkpoint,
	txn *database.Txn,
) error {
	if len(stream) == 0 {
		return nil
	}
	tail := stream[len(stream)-1]
	if err := db.SetVotingCheckpoint(&models.VotingCheckpoint{
		Account: account,
		Block:   tail.Block,
		Weight:  types.NewBigInt(tail.Weight),
	}, txn); err != nil {
		return fmt.Errorf("project checkpoint: %w", err)
	}
	return nil
}
