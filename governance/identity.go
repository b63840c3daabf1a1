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
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// proposalArgs is the ABI tuple hashed into a proposal ID:
// abi.encode(address[], uint256[], bytes[], bytes32)
var proposalArgs = func() abi.Arguments {
	mustType := func(t string) abi.Type {
		ret, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(fmt.Sprintf("invalid ABI type %s: %s", t, err))
		}
		return ret
	}
	return abi.Arguments{
		{Type: mustType("address[]")},
		{Type: mustType("uint256[]")},
		{Type: mustType("bytes[]")},
		{Type: mustType("bytes32")},
	}
}()

// HashDescription returns the keccak256 hash of a proposal description. This
// is the value that takes part in the proposal ID, not the raw text.
func HashDescription(description string) common.Hash {
	return crypto.Keccak256Hash([]byte(description))
}

// HashProposal derives the deterministic ID of an action batch. The result is
// identical to the on-chain Governor hashProposal() for the same inputs, which
// lets a client predict the ID of a proposal before submitting it.
func HashProposal(
	targets []common.Address,
	values []*big.Int,
	calldatas [][]byte,
	descriptionHash common.Hash,
) (common.Hash, error) {
	if err := validateActions(targets, values, calldatas); err != nil {
		return common.Hash{}, err
	}
	encoded, err := proposalArgs.Pack(
		targets,
		values,
		calldatas,
		[32]byte(descriptionHash),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode proposal: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// validateActions checks the shape of an action batch
func validateActions(
	targets []common.Address,
	values []*big.Int,
	calldatas [][]byte,
) error {
	if len(targets) == 0 {
		return fmt.Errorf("%w: empty action batch", ErrInvalidProposal)
	}
	if len(targets) != len(values) || len(targets) != len(calldatas) {
		return fmt.Errorf(
			"%w: mismatched lengths (targets=%d, values=%d, calldatas=%d)",
			ErrInvalidProposal,
			len(targets),
			len(values),
			len(calldatas),
		)
	}
	for i, v := range values {
		if v == nil || v.Sign() < 0 {
			return fmt.Errorf(
				"%w: value %d must be a non-negative integer",
				ErrInvalidProposal,
				i,
			)
		}
		if v.BitLen() > 256 {
			return fmt.Errorf(
				"%w: value %d overflows uint256",
				ErrInvalidProposal,
				i,
			)
		}
	}
	return nil
}
