// Package ledger stores per-address, per-token balances and moves value
// between them atomically.
package ledger

import (
	"bytes"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// TokenID selects the balance namespace of a single token contract.
type TokenID string

// ErrInsufficientFunds is returned by Transfer when the sender's balance
// cannot cover the amount. No balance is mutated in that case.
var ErrInsufficientFunds = errors.New("insufficient funds")

type account struct {
	mu       sync.Mutex
	balances map[TokenID]uint64
}

func (a *account) balance(token TokenID) uint64 {
	return a.balances[token]
}

// Ledger is safe for concurrent use. Each address has its own lock; a
// transfer locks both parties in ascending address order so that opposite
// transfers between the same pair cannot deadlock.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[common.Address]*account
}

func New() *Ledger {
	return &Ledger{accounts: make(map[common.Address]*account)}
}

// BalanceOf returns the stored balance, or 0 when no entry exists. Absence
// is a valid state, not an error.
func (l *Ledger) BalanceOf(addr common.Address, token TokenID) uint64 {
	acc := l.account(addr)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	return acc.balance(token)
}

// Credit adds amount to the address's balance unconditionally. It is the
// genesis/airdrop path; runtime value movement goes through Transfer.
func (l *Ledger) Credit(addr common.Address, token TokenID, amount uint64) {
	acc := l.account(addr)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	acc.balances[token] += amount
}

// Transfer debits from and credits to as a single atomic unit. On
// ErrInsufficientFunds nothing is mutated; no intermediate state is ever
// observable through BalanceOf.
func (l *Ledger) Transfer(from, to common.Address, token TokenID, amount uint64) error {
	src := l.account(from)
	dst := l.account(to)

	if src == dst {
		src.mu.Lock()
		defer src.mu.Unlock()

		if src.balance(token) < amount {
			return errors.Wrapf(ErrInsufficientFunds, "address %s token %s", from, token)
		}

		// Self transfer nets to zero.
		return nil
	}

	first, second := src, dst
	if bytes.Compare(from[:], to[:]) > 0 {
		first, second = dst, src
	}

	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if src.balance(token) < amount {
		return errors.Wrapf(ErrInsufficientFunds, "address %s token %s", from, token)
	}

	src.balances[token] -= amount
	dst.balances[token] += amount

	return nil
}

func (l *Ledger) account(addr common.Address) *account {
	l.mu.RLock()
	acc, ok := l.accounts[addr]
	l.mu.RUnlock()

	if ok {
		return acc
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if acc, ok := l.accounts[addr]; ok {
		return acc
	}

	acc = &account{balances: make(map[TokenID]uint64)}
	l.accounts[addr] = acc

	return acc
}
