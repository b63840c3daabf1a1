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
	"errors"
	"net/http"

	"github.com/blinklabs-io/gargoyle/chain"
	"github.com/blinklabs-io/gargoyle/governance"
	"github.com/blinklabs-io/gargoyle/ledger"
)

// errBadRequest marks malformed input
var errBadRequest = errors.New("bad request")

// statusFor maps an engine error to an HTTP status code
func statusFor(err error) int {
	switch {
	// Checked first, the cause it wraps would otherwise decide the status
	case errors.Is(err, governance.ErrExecutionReverted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest),
		errors.Is(err, ErrInvalidPagination),
		errors.Is(err, governance.ErrInvalidProposal),
		errors.Is(err, governance.ErrInvalidVoteType),
		errors.Is(err, chain.ErrInvalidOp),
		errors.Is(err, chain.ErrUnknownOpType),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrZeroAddress):
		return http.StatusBadRequest
	case errors.Is(err, chain.ErrHalted):
		return http.StatusServiceUnavailable
	case errors.Is(err, governance.ErrUnknownProposal):
		return http.StatusNotFound
	case errors.Is(err, governance.ErrDuplicateProposal),
		errors.Is(err, governance.ErrAlreadyVoted),
		errors.Is(err, governance.ErrAlreadyExecuted):
		return http.StatusConflict
	case errors.Is(err, governance.ErrUnauthorized),
		errors.Is(err, ledger.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, governance.ErrVotingClosed),
		errors.Is(err, governance.ErrNotReadyForExecution),
		errors.Is(err, governance.ErrParameterMismatch),
		errors.Is(err, governance.ErrNotCancelable),
		errors.Is(err, governance.ErrInsufficientProposerVotes),
		errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
