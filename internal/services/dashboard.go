package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cloudbudget/internal/cache"
	"cloudbudget/internal/core"
	"cloudbudget/internal/ledger"
	"cloudbudget/internal/report"
	"cloudbudget/internal/store"
)

// BalanceCard is the headline figures of the overview screen.
type BalanceCard struct {
	Total          decimal.Decimal `json:"total"`
	CreditCardDebt decimal.Decimal `json:"creditCardDebt"`
	Month          core.Month      `json:"month"`
	MonthIncome    decimal.Decimal `json:"monthIncome"`
	MonthExpense   decimal.Decimal `json:"monthExpense"`
}

// Dashboard serves derived views of the current snapshot. Results are
// memoized per snapshot version, so a mutation never serves stale figures.
type Dashboard struct {
	store    *store.Store
	cards    *cache.LRUCache[BalanceCard]
	balances *cache.LRUCache[[]ledger.Balance]
	reports  *cache.LRUCache[report.Report]
	now      func() time.Time
}

func NewDashboard(st *store.Store, cacheSize int, ttl time.Duration) *Dashboard {
	return &Dashboard{
		store:    st,
		cards:    cache.NewLRUCache[BalanceCard](cacheSize, ttl),
		balances: cache.NewLRUCache[[]ledger.Balance](cacheSize, ttl),
		reports:  cache.NewLRUCache[report.Report](cacheSize, ttl),
		now:      time.Now,
	}
}

// RegisterCaches hands the dashboard caches to m for periodic cleanup.
func (d *Dashboard) RegisterCaches(m *cache.Manager) {
	m.Register(d.cards)
	m.Register(d.balances)
	m.Register(d.reports)
}

// Card returns the balance card for the current month.
func (d *Dashboard) Card() BalanceCard {
	snap := d.store.Snapshot()
	month := core.MonthOf(d.now())
	key := fmt.Sprintf("%d|%s", snap.Version(), month)

	return d.cards.GetOrCompute(key, func() BalanceCard {
		accounts, txs := snap.Accounts(), snap.Transactions()
		income, expense := snap.MonthlyTotals(month)
		return BalanceCard{
			Total:          ledger.TotalBalance(accounts, txs),
			CreditCardDebt: ledger.CreditCardBalance(accounts, txs),
			Month:          month,
			MonthIncome:    income,
			MonthExpense:   expense,
		}
	})
}

// Balances returns every account with its derived balance. The slice is
// shared between callers and must not be modified.
func (d *Dashboard) Balances() []ledger.Balance {
	snap := d.store.Snapshot()
	key := fmt.Sprintf("%d", snap.Version())

	return d.balances.GetOrCompute(key, func() []ledger.Balance {
		return ledger.Balances(snap.Accounts(), snap.Transactions())
	})
}

// Report builds the report for p, ranking topN categories and tags.
func (d *Dashboard) Report(p report.Period, topN int) report.Report {
	snap := d.store.Snapshot()
	now := d.now()
	start, end := p.Range(now)
	key := fmt.Sprintf("%d|%s|%s|%s|%d", snap.Version(), p.Kind, start, end, topN)

	return d.reports.GetOrCompute(key, func() report.Report {
		return report.Build(snap.Accounts(), snap.Transactions(), p, now, topN)
	})
}

// CacheStats reports hits and misses of the report cache.
func (d *Dashboard) CacheStats() cache.Stats {
	return d.reports.Stats()
}
