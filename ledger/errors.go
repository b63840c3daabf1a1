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

import "errors"

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBlockRegression     = errors.New("block number is older than the last applied change")
	ErrNotOwner            = errors.New("caller is not the token owner")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrZeroAddress         = errors.New("zero address")
	ErrUnknownSelector     = errors.New("unknown token method")
	ErrNonPayable          = errors.New("token methods do not accept value")
)
