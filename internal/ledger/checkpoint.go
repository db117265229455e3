package ledger

import (
	"github.com/shopspring/decimal"

	"cloudbudget/internal/core"
)

// Checkpoint caches per-account balances after the first Through
// transactions of a list. It is only valid for lists that share that prefix
// unchanged; the full fold stays the reference.
type Checkpoint struct {
	Through  int
	Balances map[string]decimal.Decimal
}

// NewCheckpoint folds txs[:through] for every account. through is clamped
// to the list length.
func NewCheckpoint(accounts []core.Account, txs []core.Transaction, through int) Checkpoint {
	if through < 0 {
		through = 0
	}
	if through > len(txs) {
		through = len(txs)
	}
	cp := Checkpoint{Through: through, Balances: make(map[string]decimal.Decimal, len(accounts))}
	for _, a := range accounts {
		cp.Balances[a.Name] = AccountBalance(a, txs[:through])
	}
	return cp
}

// AccountBalance resumes the fold from the checkpoint and applies only the
// transactions after it. Accounts unknown to the checkpoint fall back to the
// full fold.
func (c Checkpoint) AccountBalance(account core.Account, txs []core.Transaction) decimal.Decimal {
	start, ok := c.Balances[account.Name]
	if !ok || c.Through > len(txs) {
		return AccountBalance(account, txs)
	}
	balance := start
	for _, tx := range txs[c.Through:] {
		balance = balance.Add(Effect(account.Name, tx))
	}
	return balance
}
