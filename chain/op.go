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
	"errors"
	"fmt"
	"math/big"

	"github.com/blinklabs-io/gargoyle/governance"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
)

// OpType identifies a state transition. The numeric values are written to
// the op log and must not change.
type OpType uint8

const (
	OpPropose  OpType = 1
	OpVote     OpType = 2
	OpExecute  OpType = 3
	OpCancel   OpType = 4
	OpDelegate OpType = 5
	OpTransfer OpType = 6
	OpMint     OpType = 7
	OpMine     OpType = 8
)

func (t OpType) String() string {
	switch t {
	case OpPropose:
		return "propose"
	case OpVote:
		return "vote"
	case OpExecute:
		return "execute"
	case OpCancel:
		return "cancel"
	case OpDelegate:
		return "delegate"
	case OpTransfer:
		return "transfer"
	case OpMint:
		return "mint"
	case OpMine:
		return "mine"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Op is a single submitted state transition. Which fields are used depends
// on Type. Block is filled in by the chain when the op is applied.
type Op struct {
	Type            OpType             `cbor:"0,keyasint"`
	Block           uint64             `cbor:"1,keyasint"`
	From            common.Address     `cbor:"2,keyasint"`
	Targets         []common.Address   `cbor:"3,keyasint,omitempty"`
	Values          []*big.Int         `cbor:"4,keyasint,omitempty"`
	Calldatas       [][]byte           `cbor:"5,keyasint,omitempty"`
	Description     string             `cbor:"6,keyasint,omitempty"`
	DescriptionHash common.Hash        `cbor:"7,keyasint,omitempty"`
	ProposalID      common.Hash        `cbor:"8,keyasint,omitempty"`
	Support         governance.Support `cbor:"9,keyasint,omitempty"`
	Reason          string             `cbor:"10,keyasint,omitempty"`
	To              common.Address     `cbor:"11,keyasint,omitempty"`
	Amount          *big.Int           `cbor:"12,keyasint,omitempty"`
	Count           uint64             `cbor:"13,keyasint,omitempty"`
}

var opEncMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Encode returns the op log representation of the op
func (o *Op) Encode() ([]byte, error) {
	return opEncMode.Marshal(o)
}

// DecodeOp parses an op log entry
func DecodeOp(data []byte) (*Op, error) {
	var op Op
	if err := cbor.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("decode op: %w", err)
	}
	if err := op.validate(); err != nil {
		return nil, err
	}
	return &op, nil
}

// validate checks that the fields the op type needs are present. Domain
// rules are left to the governor and the ledger.
func (o *Op) validate() error {
	var err error
	switch o.Type {
	case OpPropose, OpExecute:
		if len(o.Targets) == 0 {
			err = errors.New("no actions")
		}
	case OpVote, OpCancel:
		if o.ProposalID == (common.Hash{}) {
			err = errors.New("missing proposal id")
		}
	case OpDelegate:
	case OpTransfer, OpMint:
		if o.Amount == nil {
			err = errors.New("missing amount")
		}
	case OpMine:
		if o.Count == 0 {
			err = errors.New("block count must be positive")
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownOpType, o.Type)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidOp, o.Type, err)
	}
	return nil
}
