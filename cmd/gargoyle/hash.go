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

package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/blinklabs-io/gargoyle/governance"
	"github.com/blinklabs-io/gargoyle/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/spf13/cobra"
)

var offlineAnnotations = map[string]string{"offline": "true"}

type hashFlags struct {
	targets         []string
	values          []string
	calldatas       []string
	description     string
	descriptionHash string
}

func hashCommand() *cobra.Command {
	flags := hashFlags{}
	cmd := &cobra.Command{
		Use:         "hash",
		Short:       "Calculate the ID of a proposal without submitting it",
		Annotations: offlineAnnotations,
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := proposalID(flags)
			if err != nil {
				return err
			}
			fmt.Fprintf(
				cmd.OutOrStdout(),
				"Calculated proposal id: %s (%s)\n",
				id.Hex(),
				id.Big().String(),
			)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&flags.targets, "target", nil, "action target address, repeat once per action")
	cmd.Flags().StringSliceVar(&flags.values, "value", nil, "action value, defaults to 0 for every action")
	cmd.Flags().StringSliceVar(&flags.calldatas, "calldata", nil, "0x-prefixed action calldata, repeat once per action")
	cmd.Flags().StringVar(&flags.description, "description", "", "proposal description")
	cmd.Flags().StringVar(&flags.descriptionHash, "description-hash", "", "keccak256 of the description, overrides --description")
	return cmd
}

func proposalID(flags hashFlags) (common.Hash, error) {
	targets := make([]common.Address, 0, len(flags.targets))
	for _, t := range flags.targets {
		if !common.IsHexAddress(t) {
			return common.Hash{}, fmt.Errorf("invalid target address: %q", t)
		}
		targets = append(targets, common.HexToAddress(t))
	}
	values := make([]*big.Int, 0, len(targets))
	if len(flags.values) == 0 {
		for range targets {
			values = append(values, new(big.Int))
		}
	}
	for _, v := range flags.values {
		tmp, err := parseAmount(v)
		if err != nil {
			return common.Hash{}, err
		}
		values = append(values, tmp)
	}
	calldatas := make([][]byte, 0, len(flags.calldatas))
	for _, c := range flags.calldatas {
		data, err := hexutil.Decode(c)
		if err != nil {
			return common.Hash{}, fmt.Errorf("invalid calldata %q: %w", c, err)
		}
		calldatas = append(calldatas, data)
	}
	descHash := governance.HashDescription(flags.description)
	if flags.descriptionHash != "" {
		raw, err := hexutil.Decode(flags.descriptionHash)
		if err != nil || len(raw) != common.HashLength {
			return common.Hash{}, fmt.Errorf(
				"invalid description hash: %q",
				flags.descriptionHash,
			)
		}
		descHash = common.BytesToHash(raw)
	}
	return governance.HashProposal(targets, values, calldatas, descHash)
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := math.ParseBig256(s)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %q", s)
	}
	return v, nil
}

func calldataCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calldata",
		Short: "Encode token calldata for proposal actions",
	}
	cmd.AddCommand(
		tokenCalldataCommand("mint", "Encode mint(address,uint256)", ledger.EncodeMint),
		tokenCalldataCommand("transfer", "Encode transfer(address,uint256)", ledger.EncodeTransfer),
	)
	return cmd
}

func tokenCalldataCommand(
	name string,
	short string,
	encode func(common.Address, *big.Int) ([]byte, error),
) *cobra.Command {
	var to, amount string
	cmd := &cobra.Command{
		Use:         name,
		Short:       short,
		Annotations: offlineAnnotations,
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !common.IsHexAddress(to) {
				return fmt.Errorf("invalid recipient address: %q", to)
			}
			if amount == "" {
				return errors.New("amount is required")
			}
			value, err := parseAmount(amount)
			if err != nil {
				return err
			}
			data, err := encode(common.HexToAddress(to), value)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient address")
	cmd.Flags().StringVar(&amount, "amount", "", "token amount")
	return cmd
}
