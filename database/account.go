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
	"github.com/blinklabs-io/gargoyle/database/types"
)

// metadataTxn returns the metadata handle of txn, or nil to use the base
// database handle
func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

// GetAccount returns the projected account, or models.ErrAccountNotFound
func (d *Database) GetAccount(
	address []byte,
	txn *Txn,
) (*models.Account, error) {
	account, err := d.metadata.GetAccount(address, metadataTxn(txn))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, models.ErrAccountNotFound
	}
	return account, nil
}

func (d *Database) SetAccount(account *models.Account, txn *Txn) error {
	return d.metadata.SetAccount(account, metadataTxn(txn))
}

// GetVotingCheckpoints returns an account's projected checkpoint stream
func (d *Database) GetVotingCheckpoints(
	account []byte,
	txn *Txn,
) ([]models.VotingCheckpoint, error) {
	return d.metadata.GetVotingCheckpoints(account, metadataTxn(txn))
}

func (d *Database) SetVotingCheckpoint(
	checkpoint *models.VotingCheckpoint,
	txn *Txn,
) error {
	return d.metadata.SetVotingCheckpoint(checkpoint, metadataTxn(txn))
}
