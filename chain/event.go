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

import "github.com/ethereum/go-ethereum/common"

const (
	ChainUpdateEventType = "chain.update"
	OpAppliedEventType   = "chain.op"
)

// ChainBlockEvent is emitted whenever the block height advances
type ChainBlockEvent struct {
	Block uint64
}

// OpAppliedEvent is emitted after an op has been applied and persisted
type OpAppliedEvent struct {
	Seq        uint64
	Type       OpType
	Block      uint64
	ProposalID common.Hash
}
