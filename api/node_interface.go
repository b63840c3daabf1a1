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
	"context"

	"github.com/blinklabs-io/gargoyle/chain"
	"github.com/blinklabs-io/gargoyle/database"
	"github.com/blinklabs-io/gargoyle/governance"
	"github.com/blinklabs-io/gargoyle/ledger"
)

// Node is the part of the node the API serves. *chain.Chain satisfies it.
type Node interface {
	Apply(ctx context.Context, op *chain.Op) (*chain.ApplyResult, error)
	Block() uint64
	Halted() error
	Tip() database.Tip
	Governor() *governance.Governor
	Ledger() *ledger.Ledger
}

var _ Node = (*chain.Chain)(nil)
