package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudbudget/internal/core"
	"cloudbudget/internal/ledger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var day = core.NewDate(2025, 5, 10)

func fixedClock() time.Time { return time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC) }

func newStore(t *testing.T, seed Data) (*Store, *MemoryPersister) {
	t.Helper()
	p := NewMemoryPersister(seed)
	s, err := Open(context.Background(), p, WithClock(fixedClock))
	require.NoError(t, err)
	return s, p
}

func TestAddTransactionAssignsUniqueIDs(t *testing.T) {
	s, p := newStore(t, Data{})
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 50; i++ {
		tx, err := s.AddTransaction(ctx, core.Transaction{Type: core.Expense, Amount: d("1"), Date: day, Account: "Cash"})
		require.NoError(t, err)
		assert.False(t, seen[tx.ID], "duplicate id %d", tx.ID)
		seen[tx.ID] = true
		assert.GreaterOrEqual(t, tx.ID, fixedClock().UnixMilli())
	}
	assert.Equal(t, uint64(50), s.Snapshot().Version())
	assert.Equal(t, 50, p.Saves())
}

func TestAddTransactionRejectsInvalid(t *testing.T) {
	s, p := newStore(t, Data{})
	_, err := s.AddTransaction(context.Background(), core.Transaction{Type: core.Expense, Amount: d("0"), Date: day, Account: "Cash"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Equal(t, 0, p.Saves())
	assert.Equal(t, uint64(0), s.Snapshot().Version())
}

func TestAddTransactionDuplicateID(t *testing.T) {
	s, _ := newStore(t, Data{Transactions: []core.Transaction{{ID: 7, Type: core.Income, Amount: d("1"), Date: day, Account: "A"}}})
	_, err := s.AddTransaction(context.Background(), core.Transaction{ID: 7, Type: core.Income, Amount: d("1"), Date: day, Account: "A"})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestUpdateTransaction(t *testing.T) {
	s, _ := newStore(t, Data{})
	ctx := context.Background()
	tx, err := s.AddTransaction(ctx, core.Transaction{Type: core.Expense, Amount: d("10"), Category: "Food", Date: day, Account: "Cash", Tags: []string{"a"}})
	require.NoError(t, err)

	amount := d("12.5")
	tags := []string{"b", "c"}
	updated, err := s.UpdateTransaction(ctx, tx.ID, TransactionPatch{Amount: &amount, Tags: &tags})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(amount))
	assert.Equal(t, []string{"b", "c"}, updated.Tags)
	assert.Equal(t, "Food", updated.Category)

	zero := d("0")
	_, err = s.UpdateTransaction(ctx, tx.ID, TransactionPatch{Amount: &zero})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	got, _ := s.Snapshot().Transaction(tx.ID)
	assert.True(t, got.Amount.Equal(amount), "failed update must not change state")

	_, err = s.UpdateTransaction(ctx, 42, TransactionPatch{Amount: &amount})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransactionPatchClearsOptionals(t *testing.T) {
	fee, rate, to := d("1"), d("0.03"), d("3")
	tx := core.Transaction{Type: core.Transfer, Fee: &fee, ExchangeRate: &rate, ToAmount: &to}
	out := TransactionPatch{ClearFee: true, ClearExchange: true}.Apply(tx)
	assert.Nil(t, out.Fee)
	assert.Nil(t, out.ExchangeRate)
	assert.Nil(t, out.ToAmount)
	assert.NotNil(t, tx.Fee)
}

func TestDeleteTransaction(t *testing.T) {
	s, _ := newStore(t, Data{})
	ctx := context.Background()
	tx, err := s.AddTransaction(ctx, core.Transaction{Type: core.Income, Amount: d("1"), Date: day, Account: "A"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTransaction(ctx, tx.ID))
	assert.Empty(t, s.Snapshot().Transactions())
	assert.ErrorIs(t, s.DeleteTransaction(ctx, tx.ID), ErrNotFound)
}

func TestAccountLifecycle(t *testing.T) {
	s, _ := newStore(t, Data{})
	ctx := context.Background()

	a, err := s.AddAccount(ctx, core.Account{Name: "Bank", Type: core.Bank, InitialBalance: d("100"), Currency: "TWD"})
	require.NoError(t, err)
	assert.NotZero(t, a.ID)

	_, err = s.AddAccount(ctx, core.Account{Name: "Bank", Type: core.Cash, Currency: "TWD"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	// Balance may change while nothing references the account.
	balance := d("200")
	a, err = s.UpdateAccount(ctx, a.ID, AccountPatch{InitialBalance: &balance})
	require.NoError(t, err)
	assert.True(t, a.InitialBalance.Equal(balance))

	_, err = s.AddTransaction(ctx, core.Transaction{Type: core.Expense, Amount: d("5"), Date: day, Account: "Bank"})
	require.NoError(t, err)

	other := d("300")
	_, err = s.UpdateAccount(ctx, a.ID, AccountPatch{InitialBalance: &other})
	assert.ErrorIs(t, err, ErrBalanceLocked)

	color := "#ff0000"
	a, err = s.UpdateAccount(ctx, a.ID, AccountPatch{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, color, a.Color)
}

func TestDeleteAccountDoesNotCascade(t *testing.T) {
	s, _ := newStore(t, Data{})
	ctx := context.Background()
	a, err := s.AddAccount(ctx, core.Account{Name: "Bank", Type: core.Bank, Currency: "TWD"})
	require.NoError(t, err)
	_, err = s.AddTransaction(ctx, core.Transaction{Type: core.Expense, Amount: d("5"), Date: day, Account: "Bank"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, a.ID))
	snap := s.Snapshot()
	assert.Empty(t, snap.Accounts())
	assert.Len(t, snap.Transactions(), 1)
}

func TestRenameAccount(t *testing.T) {
	seed := Data{
		Accounts: []core.Account{
			{ID: 1, Name: "Old", Type: core.Bank, InitialBalance: d("100"), Currency: "TWD"},
			{ID: 2, Name: "Other", Type: core.Bank, Currency: "TWD"},
		},
		Transactions: []core.Transaction{
			{ID: 10, Type: core.Expense, Amount: d("10"), Date: day, Account: "Old"},
			{ID: 11, Type: core.Transfer, Amount: d("20"), Date: day, FromAccount: "Other", ToAccount: "Old"},
		},
	}

	t.Run("without rewrite orphans history", func(t *testing.T) {
		s, _ := newStore(t, seed)
		n, err := s.RenameAccount(context.Background(), 1, "New", false)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		snap := s.Snapshot()
		a, ok := snap.Account("New")
		require.True(t, ok)
		assert.True(t, ledger.AccountBalance(a, snap.Transactions()).Equal(d("100")))
	})

	t.Run("with rewrite keeps balance", func(t *testing.T) {
		s, _ := newStore(t, seed)
		n, err := s.RenameAccount(context.Background(), 1, "New", true)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		snap := s.Snapshot()
		a, _ := snap.Account("New")
		assert.True(t, ledger.AccountBalance(a, snap.Transactions()).Equal(d("110")))
	})

	t.Run("duplicate name", func(t *testing.T) {
		s, _ := newStore(t, seed)
		_, err := s.RenameAccount(context.Background(), 1, "Other", true)
		assert.ErrorIs(t, err, ErrDuplicateName)
	})

	t.Run("unknown id", func(t *testing.T) {
		s, _ := newStore(t, seed)
		_, err := s.RenameAccount(context.Background(), 99, "X", true)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTaxonomy(t *testing.T) {
	s, _ := newStore(t, Data{})
	ctx := context.Background()

	food, err := s.AddCategory(ctx, core.Category{Name: "Food", Type: core.Expense})
	require.NoError(t, err)
	_, err = s.AddCategory(ctx, core.Category{Name: "Food", Type: core.Income})
	require.NoError(t, err, "same name with another type is allowed")
	_, err = s.AddCategory(ctx, core.Category{Name: "Food", Type: core.Expense})
	assert.ErrorIs(t, err, ErrDuplicateName)
	require.NoError(t, s.DeleteCategory(ctx, food.ID))

	tag, err := s.AddTag(ctx, core.Tag{Name: "trip"})
	require.NoError(t, err)
	_, err = s.AddTag(ctx, core.Tag{Name: "trip"})
	assert.ErrorIs(t, err, ErrDuplicateName)
	require.NoError(t, s.DeleteTag(ctx, tag.ID))

	m, err := s.AddMerchant(ctx, core.Merchant{Name: "Bakery", Category: "Food"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteMerchant(ctx, m.ID))

	c, err := s.AddCurrency(ctx, core.Currency{Code: "gbp", Name: "Pound", Symbol: "£"})
	require.NoError(t, err)
	assert.Equal(t, "GBP", c.Code)
	_, err = s.AddCurrency(ctx, core.Currency{Code: "GBP"})
	assert.ErrorIs(t, err, ErrDuplicateName)
	require.NoError(t, s.DeleteCurrency(ctx, c.ID))
	assert.ErrorIs(t, s.DeleteCurrency(ctx, c.ID), ErrNotFound)

	snap := s.Snapshot()
	assert.Len(t, snap.Categories(), 1)
	assert.Empty(t, snap.Tags())
	assert.Empty(t, snap.Merchants())
}

func TestReplaceAndClear(t *testing.T) {
	s, _ := newStore(t, Data{})
	ctx := context.Background()

	snap, err := s.Replace(ctx, Data{Accounts: []core.Account{{ID: 1, Name: "A", Type: core.Cash, Currency: "TWD"}}})
	require.NoError(t, err)
	assert.Len(t, snap.Accounts(), 1)
	assert.Len(t, snap.Currencies(), 5)

	require.NoError(t, s.Clear(ctx))
	snap = s.Snapshot()
	assert.Empty(t, snap.Accounts())
	assert.Len(t, snap.Currencies(), 5)
}

func TestPersistFailureKeepsSnapshot(t *testing.T) {
	s, p := newStore(t, Data{})
	ctx := context.Background()
	boom := errors.New("disk full")
	p.FailWith(boom)

	_, err := s.AddTag(ctx, core.Tag{Name: "x"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Snapshot().Tags())
	assert.Equal(t, uint64(0), s.Snapshot().Version())
}

func TestSnapshotIsImmutable(t *testing.T) {
	s, _ := newStore(t, Data{})
	ctx := context.Background()
	_, err := s.AddTransaction(ctx, core.Transaction{Type: core.Income, Amount: d("1"), Date: day, Account: "A", Tags: []string{"x"}})
	require.NoError(t, err)

	before := s.Snapshot()
	txs := before.Transactions()
	txs[0].Tags[0] = "mutated"

	_, err = s.AddTransaction(ctx, core.Transaction{Type: core.Income, Amount: d("2"), Date: day, Account: "A"})
	require.NoError(t, err)

	assert.Len(t, before.Transactions(), 1)
	assert.Equal(t, "x", before.Transactions()[0].Tags[0])
}

func TestSubscribe(t *testing.T) {
	s, _ := newStore(t, Data{})
	var versions []uint64
	unsubscribe := s.Subscribe(func(snap Snapshot) { versions = append(versions, snap.Version()) })

	ctx := context.Background()
	_, err := s.AddTag(ctx, core.Tag{Name: "a"})
	require.NoError(t, err)
	_, err = s.AddTag(ctx, core.Tag{Name: "a"})
	require.Error(t, err)

	unsubscribe()
	_, err = s.AddTag(ctx, core.Tag{Name: "b"})
	require.NoError(t, err)

	assert.Equal(t, []uint64{1}, versions)
}

func TestConcurrentCommands(t *testing.T) {
	s, _ := newStore(t, Data{})
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddTransaction(ctx, core.Transaction{Type: core.Income, Amount: d("1"), Date: day, Account: "A"})
			assert.NoError(t, err)
			_ = s.Snapshot().Transactions()
		}()
	}
	wg.Wait()
	assert.Len(t, s.Snapshot().Transactions(), 20)
}

func TestMonthlyTotals(t *testing.T) {
	s, _ := newStore(t, Data{Transactions: []core.Transaction{
		{ID: 1, Type: core.Income, Amount: d("100"), Date: core.NewDate(2025, 5, 1), Account: "A"},
		{ID: 2, Type: core.Expense, Amount: d("30"), Date: core.NewDate(2025, 5, 31), Account: "A"},
		{ID: 3, Type: core.Expense, Amount: d("99"), Date: core.NewDate(2025, 4, 30), Account: "A"},
		{ID: 4, Type: core.Transfer, Amount: d("50"), Date: core.NewDate(2025, 5, 2), FromAccount: "A", ToAccount: "B"},
	}})
	income, expense := s.Snapshot().MonthlyTotals(core.NewMonth(2025, time.May))
	assert.True(t, income.Equal(d("100")))
	assert.True(t, expense.Equal(d("30")))
}
