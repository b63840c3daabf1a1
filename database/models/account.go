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
	"github.com/ethereum/go-ethereum/common"
)

var ErrAccountNotFound = errors.New("account not found")

// Account is the stored balance and delegate of a token holder
type Account struct {
	ID         uint         `gorm:"primarykey"`
	Address    []byte       `gorm:"uniqueIndex;size:20;not null"`
	Delegate   []byte       `gorm:"index;size:20"`
	Balance    types.BigInt `gorm:"not null"`
	AddedBlock uint64       `gorm:"index;not null"`
}

func (a *Account) TableName() string {
	return "account"
}

// String returns the checksummed hex form of the account address
func (a *Account) String() string {
	return common.BytesToAddress(a.Address).Hex()
}
