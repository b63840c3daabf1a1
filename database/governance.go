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

package database

import (
	"github.com/blinklabs-io/gargoyle/database/models"
)

// GetGovernanceProposal returns a projected proposal with its actions, or
// models.ErrGovernanceProposalNotFound
func (d *Database) GetGovernanceProposal(
	proposalID []byte,
	txn *Txn,
) (*models.GovernanceProposal, error) {
	proposal, err := d.metadata.GetGovernanceProposal(
		proposalID,
		metadataTxn(txn),
	)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, models.ErrGovernanceProposalNotFound
	}
	return proposal, nil
}

func (d *Database) GetGovernanceProposals(
	txn *Txn,
) ([]*models.GovernanceProposal, error) {
	return d.metadata.GetGovernanceProposals(metadataTxn(txn))
}

func (d *Database) SetGovernanceProposal(
	proposal *models.GovernanceProposal,
	txn *Txn,
) error {
	return d.metadata.SetGovernanceProposal(proposal, metadataTxn(txn))
}

func (d *Database) GetGovernanceVotes(
	proposalID []byte,
	txn *Txn,
) ([]models.GovernanceVote, error) {
	return d.metadata.GetGovernanceVotes(proposalID, metadataTxn(txn))
}

func (d *Database) SetGovernanceVote(
	vote *models.GovernanceVote,
	txn *Txn,
) error {
	return d.metadata.SetGovernanceVote(vote, metadataTxn(txn))
}
