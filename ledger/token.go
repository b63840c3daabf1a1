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
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/blinklabs-io/gargoyle/event"
	"github.com/blinklabs-io/gargoyle/governance"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const tokenABIJSON = `[
	{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"burn","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"delegate","stateMutability":"nonpayable","inputs":[{"name":"delegatee","type":"address"}],"outputs":[]},
	{"type":"function","name":"transferOwnership","stateMutability":"nonpayable","inputs":[{"name":"newOwner","type":"address"}],"outputs":[]}
]`

var tokenABI abi.ABI

func init() {
	var err error
	tokenABI, err = abi.JSON(strings.NewReader(tokenABIJSON))
	if err != nil {
		panic(fmt.Sprintf("parse token ABI: %s", err))
	}
}

// EncodeMint returns calldata for mint(address,uint256)
func EncodeMint(to common.Address, amount *big.Int) ([]byte, error) {
	return tokenABI.Pack("mint", to, amount)
}

// EncodeBurn returns calldata for burn(uint256)
func EncodeBurn(amount *big.Int) ([]byte, error) {
	return tokenABI.Pack("burn", amount)
}

// EncodeTransfer returns calldata for transfer(address,uint256)
func EncodeTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return tokenABI.Pack("transfer", to, amount)
}

// EncodeDelegate returns calldata for delegate(address)
func EncodeDelegate(delegatee common.Address) ([]byte, error) {
	return tokenABI.Pack("delegate", delegatee)
}

// EncodeTransferOwnership returns calldata for transferOwnership(address)
func EncodeTransferOwnership(newOwner common.Address) ([]byte, error) {
	return tokenABI.Pack("transferOwnership", newOwner)
}

// TokenCall is decoded token calldata
type TokenCall struct {
	Method string
	Args   map[string]any
}

// DecodeCall decodes token calldata by its 4-byte selector
func DecodeCall(data []byte) (TokenCall, error) {
	if len(data) < 4 {
		return TokenCall{}, fmt.Errorf(
			"%w: calldata is %d bytes",
			ErrUnknownSelector,
			len(data),
		)
	}
	method, err := tokenABI.MethodById(data[:4])
	if err != nil {
		return TokenCall{}, fmt.Errorf("%w: %x", ErrUnknownSelector, data[:4])
	}
	args := make(map[string]any)
	if err := method.Inputs.UnpackIntoMap(args, data[4:]); err != nil {
		return TokenCall{}, fmt.Errorf("decode %s arguments: %w", method.Name, err)
	}
	return TokenCall{Method: method.Name, Args: args}, nil
}

// Token exposes the ledger as a proposal action target. The calling
// governor acts as msg.sender: it must own the token to mint, and transfers,
// burns and delegations draw on the governor's own account.
type Token struct {
	ledger *Ledger
}

func NewToken(l *Ledger) *Token {
	return &Token{ledger: l}
}

// Call applies one token action. Its effects are undone if the surrounding
// batch reverts, and its events are published only if the batch commits.
func (t *Token) Call(
	ctx context.Context,
	journal *governance.Journal,
	call governance.Call,
) error {
	if call.Value != nil && call.Value.Sign() != 0 {
		return fmt.Errorf("%w: value %s", ErrNonPayable, call.Value)
	}
	decoded, err := DecodeCall(call.Data)
	if err != nil {
		return err
	}
	l := t.ledger
	l.mu.Lock()
	var (
		rp   *restorePoint
		evts []event.Event
	)
	switch decoded.Method {
	case "mint":
		to, amount, argErr := addressAmount(decoded)
		if argErr != nil {
			err = argErr
			break
		}
		rp = l.capture([]common.Address{to})
		evts, err = l.mint(call.Caller, to, amount, call.Block)
	case "burn":
		amount, ok := decoded.Args["amount"].(*big.Int)
		if !ok {
			err = errors.New("burn: bad amount argument")
			break
		}
		rp = l.capture([]common.Address{call.Caller})
		evts, err = l.burn(call.Caller, amount, call.Block)
	case "transfer":
		to, amount, argErr := addressAmount(decoded)
		if argErr != nil {
			err = argErr
			break
		}
		rp = l.capture([]common.Address{call.Caller, to})
		evts, err = l.transfer(call.Caller, to, amount, call.Block)
	case "delegate":
		delegatee, ok := decoded.Args["delegatee"].(common.Address)
		if !ok {
			err = errors.New("delegate: bad delegatee argument")
			break
		}
		rp = l.capture([]common.Address{call.Caller}, delegatee)
		evts, err = l.delegate(call.Caller, delegatee, call.Block)
	case "transferOwnership":
		newOwner, ok := decoded.Args["newOwner"].(common.Address)
		if !ok {
			err = errors.New("transferOwnership: bad newOwner argument")
			break
		}
		rp = l.capture(nil)
		err = l.transferOwnership(call.Caller, newOwner)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownSelector, decoded.Method)
	}
	l.mu.Unlock()
	if err != nil {
		// A failed ledger call leaves no partial state behind
		return err
	}
	journal.OnRevert(func() {
		l.rollback(rp)
	})
	journal.OnCommit(func() {
		l.publish(evts)
	})
	return nil
}

func addressAmount(decoded TokenCall) (common.Address, *big.Int, error) {
	to, ok := decoded.Args["to"].(common.Address)
	if !ok {
		return common.Address{}, nil, fmt.Errorf(
			"%s: bad to argument",
			decoded.Method,
		)
	}
	amount, ok := decoded.Args["amount"].(*big.Int)
	if !ok {
		return common.Address{}, nil, fmt.Errorf(
			"%s: bad amount argument",
			decoded.Method,
		)
	}
	return to, amount, nil
}
