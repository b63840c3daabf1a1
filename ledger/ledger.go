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

// Package ledger tracks token balances and the delegated voting weight they
// confer, recorded as per-account checkpoint streams so that the weight at
// any past block can be looked up.
package ledger

import (
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"slices"
	"sync"

	"github.com/blinklabs-io/gargoyle/event"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

type LedgerConfig struct {
	Logger       *slog.Logger
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	// Owner is the only account allowed to mint
	Owner common.Address
}

type Ledger struct {
	config      LedgerConfig
	metrics     *ledgerMetrics
	balances    map[common.Address]*big.Int
	delegates   map[common.Address]common.Address
	votes       map[common.Address]checkpoints
	supply      checkpoints
	totalSupply *big.Int
	owner       common.Address
	lastBlock   uint64
	mu          sync.RWMutex
}

func NewLedger(cfg LedgerConfig) *Ledger {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	cfg.Logger = cfg.Logger.With("component", "ledger")
	l := &Ledger{
		config:      cfg,
		balances:    make(map[common.Address]*big.Int),
		delegates:   make(map[common.Address]common.Address),
		votes:       make(map[common.Address]checkpoints),
		totalSupply: new(big.Int),
		owner:       cfg.Owner,
	}
	if cfg.PromRegistry != nil {
		l.metrics = &ledgerMetrics{}
		l.metrics.init(cfg.PromRegistry)
	}
	return l
}

// Delegate points account's voting weight at to. Tokens only count as voting
// weight once their holder has delegated, to itself or to another account.
func (l *Ledger) Delegate(account, to common.Address, block uint64) error {
	l.mu.Lock()
	evts, err := l.delegate(account, to, block)
	l.mu.Unlock()
	if err != nil {
		return err
	}
	l.publish(evts)
	return nil
}

// Transfer moves amount from one holder to another. The weight moves between
// the holders' current delegates.
func (l *Ledger) Transfer(
	from, to common.Address,
	amount *big.Int,
	block uint64,
) error {
	l.mu.Lock()
	evts, err := l.transfer(from, to, amount, block)
	l.mu.Unlock()
	if err != nil {
		return err
	}
	l.publish(evts)
	return nil
}

// Mint creates amount new tokens for to. Only the owner may mint.
func (l *Ledger) Mint(
	caller, to common.Address,
	amount *big.Int,
	block uint64,
) error {
	l.mu.Lock()
	evts, err := l.mint(caller, to, amount, block)
	l.mu.Unlock()
	if err != nil {
		return err
	}
	l.publish(evts)
	return nil
}

// Burn destroys amount of the holder's tokens
func (l *Ledger) Burn(from common.Address, amount *big.Int, block uint64) error {
	l.mu.Lock()
	evts, err := l.burn(from, amount, block)
	l.mu.Unlock()
	if err != nil {
		return err
	}
	l.publish(evts)
	return nil
}

// TransferOwnership hands the minting right to newOwner
func (l *Ledger) TransferOwnership(caller, newOwner common.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transferOwnership(caller, newOwner)
}

func (l *Ledger) Owner() common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owner
}

func (l *Ledger) BalanceOf(account common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceOf(account)
}

// Delegates returns the account's delegate, or the zero address if it has
// never delegated
func (l *Ledger) Delegates(account common.Address) common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.delegates[account]
}

// Weight returns the account's current delegated voting weight
func (l *Ledger) Weight(account common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.votes[account].latest()
}

// WeightAt returns the account's voting weight as of block. Changes recorded
// after block are never visible.
func (l *Ledger) WeightAt(account common.Address, block uint64) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.votes[account].at(block)
}

func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.totalSupply)
}

func (l *Ledger) TotalSupplyAt(block uint64) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.supply.at(block)
}

// Checkpoints returns a copy of the account's checkpoint stream
func (l *Ledger) Checkpoints(account common.Address) []Checkpoint {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneCheckpoints(l.votes[account])
}

// SupplyCheckpoints returns a copy of the total supply stream
func (l *Ledger) SupplyCheckpoints() []Checkpoint {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneCheckpoints(l.supply)
}

// Holders returns every account with a non-zero balance
func (l *Ledger) Holders() []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ret := make([]common.Address, 0, len(l.balances))
	for addr, bal := range l.balances {
		if bal.Sign() > 0 {
			ret = append(ret, addr)
		}
	}
	slices.SortFunc(ret, func(a, b common.Address) int {
		return a.Cmp(b)
	})
	return ret
}

// Accounts returns every account with a balance or a delegate
func (l *Ledger) Accounts() []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := make(map[common.Address]struct{}, len(l.balances))
	for addr := range l.balances {
		seen[addr] = struct{}{}
	}
	for addr := range l.delegates {
		seen[addr] = struct{}{}
	}
	return sortedAddresses(seen)
}

// Delegatees returns every account with a checkpoint stream
func (l *Ledger) Delegatees() []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	seen := make(map[common.Address]struct{}, len(l.votes))
	for addr := range l.votes {
		seen[addr] = struct{}{}
	}
	return sortedAddresses(seen)
}

func sortedAddresses(set map[common.Address]struct{}) []common.Address {
	ret := make([]common.Address, 0, len(set))
	for addr := range set {
		ret = append(ret, addr)
	}
	slices.SortFunc(ret, func(a, b common.Address) int {
		return a.Cmp(b)
	})
	return ret
}

// LastBlock returns the block of the most recent change
func (l *Ledger) LastBlock() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastBlock
}

func cloneCheckpoints(c checkpoints) []Checkpoint {
	ret := make([]Checkpoint, len(c))
	for i, cp := range c {
		ret[i] = Checkpoint{Block: cp.Block, Weight: new(big.Int).Set(cp.Weight)}
	}
	return ret
}

// The methods below expect l.mu to be held for writing

func (l *Ledger) checkBlock(block uint64) error {
	if block < l.lastBlock {
		return fmt.Errorf(
			"%w: %d < %d",
			ErrBlockRegression,
			block,
			l.lastBlock,
		)
	}
	return nil
}

func (l *Ledger) balanceOf(account common.Address) *big.Int {
	if bal, ok := l.balances[account]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

func (l *Ledger) delegate(
	account, to common.Address,
	block uint64,
) ([]event.Event, error) {
	if err := l.checkBlock(block); err != nil {
		return nil, err
	}
	l.lastBlock = block
	from := l.delegates[account]
	if to == (common.Address{}) {
		delete(l.delegates, account)
	} else {
		l.delegates[account] = to
	}
	evts := []event.Event{
		event.NewEvent(DelegateChangedEventType, DelegateChangedEvent{
			Delegator:    account,
			FromDelegate: from,
			ToDelegate:   to,
			Block:        block,
		}),
	}
	evts = append(evts, l.moveVotes(from, to, l.balanceOf(account), block)...)
	if l.metrics != nil {
		l.metrics.delegationsTotal.Inc()
	}
	l.config.Logger.Debug(
		"delegate changed",
		"delegator", account.Hex(),
		"from", from.Hex(),
		"to", to.Hex(),
		"block", block,
	)
	return evts, nil
}

func (l *Ledger) transfer(
	from, to common.Address,
	amount *big.Int,
	block uint64,
) ([]event.Event, error) {
	if err := l.checkBlock(block); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if to == (common.Address{}) {
		return nil, fmt.Errorf("%w: transfer recipient", ErrZeroAddress)
	}
	fromBal := l.balanceOf(from)
	if fromBal.Cmp(amount) < 0 {
		return nil, fmt.Errorf(
			"%w: %s has %s, needs %s",
			ErrInsufficientBalance,
			from,
			fromBal,
			amount,
		)
	}
	l.lastBlock = block
	l.setBalance(from, fromBal.Sub(fromBal, amount))
	toBal := l.balanceOf(to)
	l.setBalance(to, toBal.Add(toBal, amount))
	evts := []event.Event{
		event.NewEvent(TransferEventType, TransferEvent{
			From:  from,
			To:    to,
			Value: new(big.Int).Set(amount),
			Block: block,
		}),
	}
	evts = append(
		evts,
		l.moveVotes(l.delegates[from], l.delegates[to], amount, block)...,
	)
	if l.metrics != nil {
		l.metrics.transfersTotal.Inc()
	}
	return evts, nil
}

func (l *Ledger) mint(
	caller, to common.Address,
	amount *big.Int,
	block uint64,
) ([]event.Event, error) {
	if caller != l.owner {
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	if err := l.checkBlock(block); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if to == (common.Address{}) {
		return nil, fmt.Errorf("%w: mint recipient", ErrZeroAddress)
	}
	l.lastBlock = block
	bal := l.balanceOf(to)
	l.setBalance(to, bal.Add(bal, amount))
	l.totalSupply = new(big.Int).Add(l.totalSupply, amount)
	l.supply = l.supply.push(block, l.totalSupply)
	if l.metrics != nil {
		l.metrics.totalSupply.Set(bigToFloat(l.totalSupply))
	}
	evts := []event.Event{
		event.NewEvent(TransferEventType, TransferEvent{
			To:    to,
			Value: new(big.Int).Set(amount),
			Block: block,
		}),
	}
	evts = append(
		evts,
		l.moveVotes(common.Address{}, l.delegates[to], amount, block)...,
	)
	return evts, nil
}

func (l *Ledger) burn(
	from common.Address,
	amount *big.Int,
	block uint64,
) ([]event.Event, error) {
	if err := l.checkBlock(block); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	bal := l.balanceOf(from)
	if bal.Cmp(amount) < 0 {
		return nil, fmt.Errorf(
			"%w: %s has %s, needs %s",
			ErrInsufficientBalance,
			from,
			bal,
			amount,
		)
	}
	l.lastBlock = block
	l.setBalance(from, bal.Sub(bal, amount))
	l.totalSupply = new(big.Int).Sub(l.totalSupply, amount)
	l.supply = l.supply.push(block, l.totalSupply)
	if l.metrics != nil {
		l.metrics.totalSupply.Set(bigToFloat(l.totalSupply))
	}
	evts := []event.Event{
		event.NewEvent(TransferEventType, TransferEvent{
			From:  from,
			Value: new(big.Int).Set(amount),
			Block: block,
		}),
	}
	evts = append(
		evts,
		l.moveVotes(l.delegates[from], common.Address{}, amount, block)...,
	)
	return evts, nil
}

func (l *Ledger) transferOwnership(caller, newOwner common.Address) error {
	if caller != l.owner {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	if newOwner == (common.Address{}) {
		return fmt.Errorf("%w: new owner", ErrZeroAddress)
	}
	l.config.Logger.Info(
		"token ownership transferred",
		"from", l.owner.Hex(),
		"to", newOwner.Hex(),
	)
	l.owner = newOwner
	return nil
}

func (l *Ledger) setBalance(account common.Address, bal *big.Int) {
	if bal.Sign() == 0 {
		delete(l.balances, account)
		return
	}
	l.balances[account] = bal
}

// moveVotes shifts amount of weight between two delegate streams, appending a
// checkpoint to each stream that changes. The zero address has no stream.
func (l *Ledger) moveVotes(
	src, dst common.Address,
	amount *big.Int,
	block uint64,
) []event.Event {
	if src == dst || amount.Sign() == 0 {
		return nil
	}
	var evts []event.Event
	if src != (common.Address{}) {
		prev := l.votes[src].latest()
		next := new(big.Int).Sub(prev, amount)
		l.votes[src] = l.votes[src].push(block, next)
		evts = append(evts, l.votesChanged(src, prev, next, block))
	}
	if dst != (common.Address{}) {
		prev := l.votes[dst].latest()
		next := new(big.Int).Add(prev, amount)
		l.votes[dst] = l.votes[dst].push(block, next)
		evts = append(evts, l.votesChanged(dst, prev, next, block))
	}
	return evts
}

func (l *Ledger) votesChanged(
	delegate common.Address,
	prev, next *big.Int,
	block uint64,
) event.Event {
	if l.metrics != nil {
		l.metrics.checkpointsTotal.Inc()
	}
	return event.NewEvent(DelegateVotesChangedEventType, DelegateVotesChangedEvent{
		Delegate:        delegate,
		PreviousBalance: prev,
		NewBalance:      next,
		Block:           block,
	})
}

func (l *Ledger) publish(evts []event.Event) {
	if l.config.EventBus == nil {
		return
	}
	for _, evt := range evts {
		l.config.EventBus.PublishAsync(evt.Type, evt)
	}
}

func bigToFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
