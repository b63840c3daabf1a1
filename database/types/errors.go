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

package types

import "errors"

var (
	// ErrBlobKeyNotFound is returned by blob reads of a missing key
	ErrBlobKeyNotFound = errors.New("blob key not found")
	// ErrTxnWrongType is returned when a store gets another store's handle
	ErrTxnWrongType = errors.New("invalid transaction type")
	// ErrNilTxn is returned by writes made without a transaction
	ErrNilTxn = errors.New("nil transaction")
	// ErrNoStoreAvailable is returned when committing a Txn with no stores
	ErrNoStoreAvailable = errors.New("no store available")
)
