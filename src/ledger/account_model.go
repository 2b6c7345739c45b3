package ledger

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrInsufficientBalance is returned when a debit would leave a balance
	// negative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBalanceOverflow is returned when a credit would overflow a balance.
	ErrBalanceOverflow = errors.New("balance overflow")
)

// Entry is a single signed adjustment of an account balance.
type Entry struct {
	Account string
	Delta   int64
}

// AccountModel maps accounts to balances. Unregistered accounts have a
// balance of zero.
type AccountModel struct {
	balances map[string]int64
}

// NewAccountModel returns an empty AccountModel.
func NewAccountModel() *AccountModel {
	return &AccountModel{
		balances: make(map[string]int64),
	}
}

// Register ensures account has an entry. It is a no-op if the account is
// already known.
func (am *AccountModel) Register(account string) {
	if _, ok := am.balances[account]; !ok {
		am.balances[account] = 0
	}
}

// IsRegistered reports whether account has an entry.
func (am *AccountModel) IsRegistered(account string) bool {
	_, ok := am.balances[account]
	return ok
}

// GetBalance returns the balance of account, 0 if it is not registered.
func (am *AccountModel) GetBalance(account string) int64 {
	return am.balances[account]
}

// Adjust adds delta to the balance of account, registering it first if
// necessary. On error the balance is left unchanged.
func (am *AccountModel) Adjust(account string, delta int64) error {
	next, err := adjusted(am.balances[account], delta)
	if err != nil {
		return fmt.Errorf("account %s: %w", account, err)
	}
	am.balances[account] = next
	return nil
}

// Check reports whether Apply would succeed, without modifying anything.
func (am *AccountModel) Check(entries []Entry) error {
	_, err := am.stage(entries)
	return err
}

// Apply performs all entries in order as a single unit: either every entry
// is applied, or none is and the first failure is returned.
func (am *AccountModel) Apply(entries []Entry) error {
	staged, err := am.stage(entries)
	if err != nil {
		return err
	}

	for account, balance := range staged {
		am.balances[account] = balance
	}

	return nil
}

func (am *AccountModel) stage(entries []Entry) (map[string]int64, error) {
	staged := make(map[string]int64, len(entries))

	for _, e := range entries {
		current, ok := staged[e.Account]
		if !ok {
			current = am.balances[e.Account]
		}

		next, err := adjusted(current, e.Delta)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", e.Account, err)
		}

		staged[e.Account] = next
	}

	return staged, nil
}

// Copy returns an independent snapshot of the model.
func (am *AccountModel) Copy() *AccountModel {
	return &AccountModel{
		balances: am.Balances(),
	}
}

// Balances returns a copy of all registered balances.
func (am *AccountModel) Balances() map[string]int64 {
	res := make(map[string]int64, len(am.balances))
	for account, balance := range am.balances {
		res[account] = balance
	}
	return res
}

// Accounts returns the registered accounts in lexical order.
func (am *AccountModel) Accounts() []string {
	res := make([]string, 0, len(am.balances))
	for account := range am.balances {
		res = append(res, account)
	}
	sort.Strings(res)
	return res
}

func adjusted(balance, delta int64) (int64, error) {
	if delta > 0 && balance > math.MaxInt64-delta {
		return balance, ErrBalanceOverflow
	}

	next := balance + delta
	if next < 0 {
		return balance, ErrInsufficientBalance
	}

	return next, nil
}
