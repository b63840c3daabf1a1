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

package api

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/blinklabs-io/gargoyle/governance"
)

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type HealthResponse struct {
	IsHealthy bool   `json:"is_healthy"`
	Block     uint64 `json:"block"`
	Error     string `json:"error,omitempty"`
}

type TipResponse struct {
	Block uint64 `json:"block"`
	Ops   uint64 `json:"ops"`
}

// ActionBatch is the wire form of a proposal's actions. Addresses, hashes
// and calldata are 0x-prefixed hex, values are decimal or 0x-prefixed hex.
type ActionBatch struct {
	Targets         []string `json:"targets"`
	Values          []string `json:"values"`
	Calldatas       []string `json:"calldatas"`
	Description     string   `json:"description,omitempty"`
	DescriptionHash string   `json:"description_hash,omitempty"`
}

type ProposeRequest struct {
	From string `json:"from"`
	ActionBatch
}

type VoteRequest struct {
	From    string       `json:"from"`
	Support SupportValue `json:"support"`
	Reason  string       `json:"reason,omitempty"`
}

type CancelRequest struct {
	From string `json:"from"`
}

type DelegationRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type MineRequest struct {
	Blocks uint64 `json:"blocks"`
}

// ApplyResponse is returned by every mutating route
type ApplyResponse struct {
	Seq        uint64 `json:"seq"`
	Block      uint64 `json:"block"`
	ProposalID string `json:"proposal_id,omitempty"`
	Weight     string `json:"weight,omitempty"`
}

type HashResponse struct {
	ProposalID      string `json:"proposal_id"`
	DescriptionHash string `json:"description_hash"`
}

type ProposalResponse struct {
	ID              string   `json:"id"`
	Proposer        string   `json:"proposer"`
	Targets         []string `json:"targets"`
	Values          []string `json:"values"`
	Calldatas       []string `json:"calldatas"`
	Description     string   `json:"description"`
	DescriptionHash string   `json:"description_hash"`
	VoteStart       uint64   `json:"vote_start"`
	VoteEnd         uint64   `json:"vote_end"`
	State           string   `json:"state"`
	StateCode       uint8    `json:"state_code"`
	ForVotes        string   `json:"for_votes"`
	AgainstVotes    string   `json:"against_votes"`
	AbstainVotes    string   `json:"abstain_votes"`
	Quorum          string   `json:"quorum"`
	Executed        bool     `json:"executed"`
	Canceled        bool     `json:"canceled"`
}

type ReceiptResponse struct {
	ProposalID string `json:"proposal_id"`
	Voter      string `json:"voter"`
	HasVoted   bool   `json:"has_voted"`
	Support    string `json:"support,omitempty"`
	Weight     string `json:"weight"`
	Reason     string `json:"reason,omitempty"`
}

type VoteResponse struct {
	Voter   string `json:"voter"`
	Support string `json:"support"`
	Weight  string `json:"weight"`
	Reason  string `json:"reason,omitempty"`
	Block   uint64 `json:"block"`
}

type AccountResponse struct {
	Address  string `json:"address"`
	Balance  string `json:"balance"`
	Delegate string `json:"delegate,omitempty"`
	Weight   string `json:"weight"`
	Block    uint64 `json:"block"`
}

type CheckpointResponse struct {
	Block  uint64 `json:"block"`
	Weight string `json:"weight"`
}

type QuorumResponse struct {
	Block  uint64 `json:"block"`
	Quorum string `json:"quorum"`
}

// SupportValue accepts a vote direction as a number or as its name
type SupportValue governance.Support

func (s *SupportValue) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	} else {
		var n uint8
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %s", governance.ErrInvalidVoteType, data)
		}
	}
	support, err := governance.ParseSupport(raw)
	if err != nil {
		return err
	}
	*s = SupportValue(support)
	return nil
}
