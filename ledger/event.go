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

package ledger

import (
	"math/big"

	"github.com/blinklabs-io/gargoyle/event"
	"github.com/ethereum/go-ethereum/common"
)

const (
	DelegateChangedEventType      event.EventType = "ledger.delegate.changed"
	DelegateVotesChangedEventType event.EventType = "ledger.delegate.votes"
	TransferEventType             event.EventType = "ledger.transfer"
)

// DelegateChangedEvent is emitted when an account changes its delegate
type DelegateChangedEvent struct {
	Delegator    common.Address
	FromDelegate common.Address
	ToDelegate   common.Address
	Block        uint64
}

// DelegateVotesChangedEvent is emitted for every checkpoint written to a
// delegate's stream
type DelegateVotesChangedEvent struct {
	Delegate        common.Address
	PreviousBalance *big.Int
	NewBalance      *big.Int
	Block           uint64
}

// TransferEvent is emitted for token moves. Mints have a zero From and burns
// a zero To.
type TransferEvent struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Block uint64
}
