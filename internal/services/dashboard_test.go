package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudbudget/internal/core"
	"cloudbudget/internal/report"
	"cloudbudget/internal/store"
)

func dashboardSeed() store.Data {
	dec := decimal.RequireFromString
	return store.Data{
		Accounts: []core.Account{
			{ID: 1, Name: "Wallet", Type: core.Cash, InitialBalance: dec("100"), Currency: "TWD"},
			{ID: 2, Name: "Visa", Type: core.CreditCard, InitialBalance: dec("0"), Currency: "TWD"},
		},
		Transactions: []core.Transaction{
			{ID: 1, Type: core.Income, Amount: dec("50"), Category: "Salary", Date: core.NewDate(2025, 5, 1), Account: "Wallet"},
			{ID: 2, Type: core.Expense, Amount: dec("20"), Category: "Food", Date: core.NewDate(2025, 5, 2), Account: "Wallet"},
			{ID: 3, Type: core.Expense, Amount: dec("30"), Category: "Travel", Date: core.NewDate(2025, 5, 3), Account: "Visa"},
			{ID: 4, Type: core.Expense, Amount: dec("5"), Category: "Food", Date: core.NewDate(2025, 4, 3), Account: "Wallet"},
		},
	}
}

func newTestDashboard(t *testing.T) (*Dashboard, *fixture) {
	t.Helper()
	f := newFixture(t, dashboardSeed())
	d := NewDashboard(f.store, 8, time.Minute)
	d.now = f.clock.Now
	return d, f
}

func TestDashboardCard(t *testing.T) {
	d, _ := newTestDashboard(t)

	card := d.Card()
	assert.Equal(t, core.NewMonth(2025, time.May), card.Month)
	assert.True(t, card.Total.Equal(decimal.NewFromInt(125)), "total = %s", card.Total)
	assert.True(t, card.CreditCardDebt.Equal(decimal.NewFromInt(-30)), "debt = %s", card.CreditCardDebt)
	assert.True(t, card.MonthIncome.Equal(decimal.NewFromInt(50)))
	assert.True(t, card.MonthExpense.Equal(decimal.NewFromInt(50)))
}

func TestDashboardCachesPerVersion(t *testing.T) {
	d, f := newTestDashboard(t)
	p := report.Period{Kind: report.LastSixMonths}

	first := d.Report(p, report.DefaultTopN)
	_ = d.Report(p, report.DefaultTopN)
	stats := d.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	f.addExpense(t, "70")
	second := d.Report(p, report.DefaultTopN)
	assert.Equal(t, int64(2), d.CacheStats().Misses, "a new version is a new key")
	assert.False(t, first.Summary.Expense.Equal(second.Summary.Expense))

	before := d.Card()
	_, err := f.store.AddTransaction(context.Background(), core.Transaction{
		Type: core.Income, Amount: decimal.NewFromInt(1), Category: "Gift", Date: core.NewDate(2025, 5, 5), Account: "Wallet",
	})
	require.NoError(t, err)
	after := d.Card()
	assert.True(t, after.Total.Sub(before.Total).Equal(decimal.NewFromInt(1)))
}

func TestDashboardBalances(t *testing.T) {
	d, _ := newTestDashboard(t)

	balances := d.Balances()
	require.Len(t, balances, 2)
	got := map[string]string{}
	for _, b := range balances {
		got[b.Account.Name] = b.Amount.String()
	}
	assert.Equal(t, map[string]string{"Wallet": "125", "Visa": "-30"}, got)
}
