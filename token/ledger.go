// Package token is a minimal in-memory fungible ledger standing in for the
// PMO token contract: mint, transfer and balance lookups, 18-decimal amounts.
package token

import (
	"fmt"
	"math/big"
	"sync"
)

type Ledger struct {
	mu       sync.RWMutex
	balances map[string]*big.Int
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]*big.Int)}
}

// Mint credits freshly issued tokens to an address.
func (l *Ledger) Mint(address string, amount *big.Int) error {
	if address == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: mint amount must be positive", ErrInvalidAmount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.credit(address, amount)
	return nil
}

// Transfer moves tokens between holders, failing without any balance change
// when the sender's funds do not cover the amount.
func (l *Ledger) Transfer(from, to string, amount *big.Int) error {
	if from == "" || to == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: transfer amount must not be negative", ErrInvalidAmount)
	}
	if amount.Sign() == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fromBalance, found := l.balances[from]
	if !found || fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds less than %s", ErrInsufficientBalance, from, amount.String())
	}

	fromBalance.Sub(fromBalance, amount)
	l.credit(to, amount)
	return nil
}

func (l *Ledger) credit(address string, amount *big.Int) {
	balance, found := l.balances[address]
	if !found {
		balance = big.NewInt(0)
		l.balances[address] = balance
	}
	balance.Add(balance, amount)
}

func (l *Ledger) BalanceOf(address string) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	balance, found := l.balances[address]
	if !found {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := big.NewInt(0)
	for _, balance := range l.balances {
		total.Add(total, balance)
	}
	return total
}

// Vault binds one holder account (the vesting pool) to the ledger so the
// vesting contract can pay out of its own balance.
type Vault struct {
	ledger *Ledger
	holder string
}

func NewVault(ledger *Ledger, holder string) *Vault {
	return &Vault{ledger: ledger, holder: holder}
}

func (v *Vault) Transfer(to string, amount *big.Int) error {
	return v.ledger.Transfer(v.holder, to, amount)
}

func (v *Vault) BalanceOf(address string) (*big.Int, error) {
	return v.ledger.BalanceOf(address)
}

func (v *Vault) Holder() string {
	return v.holder
}
