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
	"math/big"
	"sort"
)

// Checkpoint records a voting weight that took effect at Block
type Checkpoint struct {
	Block  uint64
	Weight *big.Int
}

// checkpoints is an append-only stream ordered by strictly increasing block.
// Entry weights are never mutated in place, so copies of an entry stay valid.
type checkpoints []Checkpoint

// at returns the weight of the latest checkpoint at or before block, or zero
func (c checkpoints) at(block uint64) *big.Int {
	// First index with Block > block; the entry before it is the answer
	idx := sort.Search(len(c), func(i int) bool {
		return c[i].Block > block
	})
	if idx == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(c[idx-1].Weight)
}

func (c checkpoints) latest() *big.Int {
	if len(c) == 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(c[len(c)-1].Weight)
}

// push records weight at block. A second change in the same block replaces
// the tail entry so that the stream keeps one entry per block.
func (c checkpoints) push(block uint64, weight *big.Int) checkpoints {
	entry := Checkpoint{Block: block, Weight: new(big.Int).Set(weight)}
	if n := len(c); n > 0 && c[n-1].Block == block {
		c[n-1] = entry
		return c
	}
	return append(c, entry)
}

// mark captures enough of the stream to restore it after later pushes
func (c checkpoints) mark() streamMark {
	m := streamMark{length: len(c)}
	if m.length > 0 {
		m.tail = c[m.length-1]
	}
	return m
}

type streamMark struct {
	tail   Checkpoint
	length int
}

func (c checkpoints) restore(m streamMark) checkpoints {
	c = c[:m.length]
	if m.length > 0 {
		c[m.length-1] = m.tail
	}
	return c
}
