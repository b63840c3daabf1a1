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

	"github.com/blinklabs-io/gargoyle/database/models"
	"github.com/blinklabs-io/gargoyle/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetGovernanceProposal retrieves a proposal and its action batch by ID.
// Returns nil if the proposal is not stored.
func (d *MetadataStoreSqlite) GetGovernanceProposal(
	proposalID []byte,
	txn types.Txn,
) (*models.GovernanceProposal, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var proposal models.GovernanceProposal
	if result := db.Where("proposal_id = ?", proposalID).First(&proposal); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	if result := db.Where("proposal_id = ?", proposalID).
		Order("action_idx").
		Find(&proposal.Actions); result.Error != nil {
		return nil, result.Error
	}
	return &proposal, nil
}

// GetGovernanceProposals retrieves all proposals in insertion order, without
// their action batches
func (d *MetadataStoreSqlite) GetGovernanceProposals(
	txn types.Txn,
) ([]*models.GovernanceProposal, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var proposals []*models.GovernanceProposal
	if result := db.Order("id").Find(&proposals); result.Error != nil {
		return nil, result.Error
	}
	return proposals, nil
}

// SetGovernanceProposal creates a proposal or updates its tallies and
// terminal flags. Actions are only written the first time.
func (d *MetadataStoreSqlite) SetGovernanceProposal(
	proposal *models.GovernanceProposal,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "proposal_id"}},
		// The proposal body is immutable once created
		DoUpdates: clause.AssignmentColumns([]string{
			"for_votes",
			"against_votes",
			"abstain_votes",
			"executed",
			"canceled",
			"executed_block",
			"canceled_block",
		}),
	}
	if result := db.Clauses(onConflict).Create(proposal); result.Error != nil {
		return result.Error
	}
	if len(proposal.Actions) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&proposal.Actions).Error
}

// GetGovernanceVotes retrieves all votes cast on a proposal in cast order
func (d *MetadataStoreSqlite) GetGovernanceVotes(
	proposalID []byte,
	txn types.Txn,
) ([]models.GovernanceVote, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var votes []models.GovernanceVote
	if result := db.Where("proposal_id = ?", proposalID).
		Order("id").
		Find(&votes); result.Error != nil {
		return nil, result.Error
	}
	return votes, nil
}

// SetGovernanceVote records a vote. A second vote by the same voter on the
// same proposal violates the unique index and is rejected.
func (d *MetadataStoreSqlite) SetGovernanceVote(
	vote *models.GovernanceVote,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(vote).Error
}

// GetVotingCheckpoints retrieves an account's checkpoint stream ordered by block
func (d *MetadataStoreSqlite) GetVotingCheckpoints(
	account []byte,
	txn types.Txn,
) ([]models.VotingCheckpoint, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var checkpoints []models.VotingCheckpoint
	if result := db.Where("account = ?", account).
		Order("block").
		Find(&checkpoints); result.Error != nil {
		return nil, result.Error
	}
	return checkpoints, nil
}

// SetVotingCheckpoint writes a checkpoint, replacing the weight of an
// existing entry for the same account and block
func (d *MetadataStoreSqlite) SetVotingCheckpoint(
	checkpoint *models.VotingCheckpoint,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "account"},
			{Name: "block"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"weight"}),
	}).Create(checkpoint).Error
}
