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

	"github.com/ethereum/go-ethereum/common"
)

// restorePoint holds the ledger state touched by a change to a set of
// accounts, so that the change can be undone exactly
type restorePoint struct {
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	delegates   map[common.Address]common.Address
	votes       map[common.Address]streamMark
	supply      streamMark
	owner       common.Address
	lastBlock   uint64
}

// capture records the state of each account, its delegate stream and the
// stream of every extra delegate that may receive weight. Expects l.mu held.
func (l *Ledger) capture(
	accounts []common.Address,
	delegates ...common.Address,
) *restorePoint {
	rp := &restorePoint{
		totalSupply: new(big.Int).Set(l.totalSupply),
		balances:    make(map[common.Address]*big.Int),
		delegates:   make(map[common.Address]common.Address),
		votes:       make(map[common.Address]streamMark),
		supply:      l.supply.mark(),
		owner:       l.owner,
		lastBlock:   l.lastBlock,
	}
	streams := append([]common.Address{}, delegates...)
	for _, account := range accounts {
		rp.balances[account] = l.balanceOf(account)
		rp.delegates[account] = l.delegates[account]
		streams = append(streams, account, l.delegates[account])
	}
	for _, addr := range streams {
		if addr == (common.Address{}) {
			continue
		}
		if _, ok := rp.votes[addr]; !ok {
			rp.votes[addr] = l.votes[addr].mark()
		}
	}
	return rp
}

// rollback returns the ledger to the captured state
func (l *Ledger) rollback(rp *restorePoint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for account, bal := range rp.balances {
		l.setBalance(account, bal)
	}
	for account, delegate := range rp.delegates {
		if delegate == (common.Address{}) {
			delete(l.delegates, account)
			continue
		}
		l.delegates[account] = delegate
	}
	for addr, mark := range rp.votes {
		stream := l.votes[addr].restore(mark)
		if len(stream) == 0 {
			delete(l.votes, addr)
			continue
		}
		l.votes[addr] = stream
	}
	l.supply = l.supply.restore(rp.supply)
	l.totalSupply = rp.totalSupply
	l.owner = rp.owner
	l.lastBlock = rp.lastBlock
	if l.metrics != nil {
		l.metrics.totalSupply.Set(bigToFloat(l.totalSupply))
		l.metrics.revertsTotal.Inc()
	}
}
