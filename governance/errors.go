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

import "errors"

// Proposal lifecycle errors
var (
	ErrDuplicateProposal    = errors.New("proposal already exists")
	ErrUnknownProposal      = errors.New("unknown proposal")
	ErrInvalidProposal      = errors.New("invalid proposal")
	ErrVotingClosed         = errors.New("voting is closed")
	ErrAlreadyVoted         = errors.New("voter already voted")
	ErrInvalidVoteType      = errors.New("invalid vote type")
	ErrNotReadyForExecution = errors.New("proposal not successful")
	ErrAlreadyExecuted      = errors.New("proposal already executed")
	ErrExecutionReverted    = errors.New("execution reverted")
	ErrParameterMismatch    = errors.New("proposal parameters do not match")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotCancelable        = errors.New("proposal cannot be canceled")
	ErrNoTarget             = errors.New("no target registered at address")

	ErrInsufficientProposerVotes = errors.New(
		"proposer votes below proposal threshold",
	)
)
