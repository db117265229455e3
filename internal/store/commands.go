package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"cloudbudget/internal/core"
	"cloudbudget/internal/log"
)

// AddTransaction validates tx, assigns an id when it has none and appends
// it.
func (s *Store) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx = tx.Clone()
	_, err := s.apply(ctx, "add_transaction", func(d *Data) error {
		taken := func(id int64) bool {
			return slices.ContainsFunc(d.Transactions, func(t core.Transaction) bool { return t.ID == id })
		}
		if tx.ID == 0 {
			tx.ID = s.newID(taken)
		} else if taken(tx.ID) {
			return fmt.Errorf("transaction %d: %w", tx.ID, ErrDuplicateID)
		}
		d.Transactions = append(d.Transactions, tx)
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction recorded",
		log.NewFields().WithComponent(log.ComponentStore).WithTransaction(tx.ID, string(tx.Type), tx.Amount.String()).ToSlice()...)
	return tx.Clone(), nil
}

// UpdateTransaction applies patch to the transaction with id. The result
// must still validate.
func (s *Store) UpdateTransaction(ctx context.Context, id int64, patch TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	_, err := s.apply(ctx, "update_transaction", func(d *Data) error {
		i := slices.IndexFunc(d.Transactions, func(t core.Transaction) bool { return t.ID == id })
		if i < 0 {
			return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
		}
		updated = patch.Apply(d.Transactions[i])
		if err := updated.Validate(); err != nil {
			return err
		}
		d.Transactions[i] = updated
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return updated.Clone(), nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := s.apply(ctx, "delete_transaction", func(d *Data) error {
		return deleteByID(&d.Transactions, id, "transaction", func(t core.Transaction) int64 { return t.ID })
	})
	return err
}

// AddAccount adds an account. Names are unique because transactions refer
// to accounts by name.
func (s *Store) AddAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	_, err := s.apply(ctx, "add_account", func(d *Data) error {
		if slices.ContainsFunc(d.Accounts, func(x core.Account) bool { return x.Name == a.Name }) {
			return fmt.Errorf("account %q: %w", a.Name, ErrDuplicateName)
		}
		if a.ID == 0 {
			a.ID = s.newID(func(id int64) bool {
				return slices.ContainsFunc(d.Accounts, func(x core.Account) bool { return x.ID == id })
			})
		}
		d.Accounts = append(d.Accounts, a)
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return a, nil
}

// UpdateAccount applies patch. The initial balance is frozen once any
// transaction references the account; corrections go through adjustment
// transactions instead.
func (s *Store) UpdateAccount(ctx context.Context, id int64, patch AccountPatch) (core.Account, error) {
	var updated core.Account
	_, err := s.apply(ctx, "update_account", func(d *Data) error {
		i := slices.IndexFunc(d.Accounts, func(a core.Account) bool { return a.ID == id })
		if i < 0 {
			return fmt.Errorf("account %d: %w", id, ErrNotFound)
		}
		cur := d.Accounts[i]
		updated = patch.Apply(cur)
		if !updated.InitialBalance.Equal(cur.InitialBalance) && d.referenced(cur.Name) {
			return fmt.Errorf("account %q: %w", cur.Name, ErrBalanceLocked)
		}
		if err := updated.Validate(); err != nil {
			return err
		}
		d.Accounts[i] = updated
		return nil
	})
	if err != nil {
		return core.Account{}, err
	}
	return updated, nil
}

// DeleteAccount removes the account only. Its transactions stay and stop
// counting towards any balance.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	_, err := s.apply(ctx, "delete_account", func(d *Data) error {
		return deleteByID(&d.Accounts, id, "account", func(a core.Account) int64 { return a.ID })
	})
	return err
}

// RenameAccount changes an account's name. With rewriteReferences the
// transactions naming the old name are moved to the new one; without it
// they are left pointing at the old name and no longer count towards the
// account. The returned count is the number of rewritten transactions.
func (s *Store) RenameAccount(ctx context.Context, id int64, name string, rewriteReferences bool) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyName
	}
	rewritten := 0
	_, err := s.apply(ctx, "rename_account", func(d *Data) error {
		i := slices.IndexFunc(d.Accounts, func(a core.Account) bool { return a.ID == id })
		if i < 0 {
			return fmt.Errorf("account %d: %w", id, ErrNotFound)
		}
		old := d.Accounts[i].Name
		if old == name {
			return nil
		}
		if slices.ContainsFunc(d.Accounts, func(a core.Account) bool { return a.Name == name }) {
			return fmt.Errorf("account %q: %w", name, ErrDuplicateName)
		}
		d.Accounts[i].Name = name
		if !rewriteReferences {
			return nil
		}
		for j := range d.Transactions {
			tx := &d.Transactions[j]
			changed := false
			if tx.Account == old {
				tx.Account, changed = name, true
			}
			if tx.FromAccount == old {
				tx.FromAccount, changed = name, true
			}
			if tx.ToAccount == old {
				tx.ToAccount, changed = name, true
			}
			if changed {
				rewritten++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rewritten, nil
}

// AddCategory adds a category; the name must be unique within its type.
func (s *Store) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	_, err := s.apply(ctx, "add_category", func(d *Data) error {
		if slices.ContainsFunc(d.Categories, func(x core.Category) bool { return x.Name == c.Name && x.Type == c.Type }) {
			return fmt.Errorf("%s category %q: %w", c.Type, c.Name, ErrDuplicateName)
		}
		if c.ID == 0 {
			c.ID = s.newID(func(id int64) bool {
				return slices.ContainsFunc(d.Categories, func(x core.Category) bool { return x.ID == id })
			})
		}
		d.Categories = append(d.Categories, c)
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	_, err := s.apply(ctx, "delete_category", func(d *Data) error {
		return deleteByID(&d.Categories, id, "category", func(c core.Category) int64 { return c.ID })
	})
	return err
}

func (s *Store) AddTag(ctx context.Context, t core.Tag) (core.Tag, error) {
	if err := t.Validate(); err != nil {
		return core.Tag{}, err
	}
	_, err := s.apply(ctx, "add_tag", func(d *Data) error {
		if slices.ContainsFunc(d.Tags, func(x core.Tag) bool { return x.Name == t.Name }) {
			return fmt.Errorf("tag %q: %w", t.Name, ErrDuplicateName)
		}
		if t.ID == 0 {
			t.ID = s.newID(func(id int64) bool {
				return slices.ContainsFunc(d.Tags, func(x core.Tag) bool { return x.ID == id })
			})
		}
		d.Tags = append(d.Tags, t)
		return nil
	})
	if err != nil {
		return core.Tag{}, err
	}
	return t, nil
}

func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	_, err := s.apply(ctx, "delete_tag", func(d *Data) error {
		return deleteByID(&d.Tags, id, "tag", func(t core.Tag) int64 { return t.ID })
	})
	return err
}

func (s *Store) AddMerchant(ctx context.Context, m core.Merchant) (core.Merchant, error) {
	if err := m.Validate(); err != nil {
		return core.Merchant{}, err
	}
	_, err := s.apply(ctx, "add_merchant", func(d *Data) error {
		if slices.ContainsFunc(d.Merchants, func(x core.Merchant) bool { return x.Name == m.Name }) {
			return fmt.Errorf("merchant %q: %w", m.Name, ErrDuplicateName)
		}
		if m.ID == 0 {
			m.ID = s.newID(func(id int64) bool {
				return slices.ContainsFunc(d.Merchants, func(x core.Merchant) bool { return x.ID == id })
			})
		}
		d.Merchants = append(d.Merchants, m)
		return nil
	})
	if err != nil {
		return core.Merchant{}, err
	}
	return m, nil
}

func (s *Store) DeleteMerchant(ctx context.Context, id int64) error {
	_, err := s.apply(ctx, "delete_merchant", func(d *Data) error {
		return deleteByID(&d.Merchants, id, "merchant", func(m core.Merchant) int64 { return m.ID })
	})
	return err
}

// AddCurrency adds a currency; codes are stored upper case and unique.
func (s *Store) AddCurrency(ctx context.Context, c core.Currency) (core.Currency, error) {
	if err := c.Validate(); err != nil {
		return core.Currency{}, err
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	_, err := s.apply(ctx, "add_currency", func(d *Data) error {
		if slices.ContainsFunc(d.Currencies, func(x core.Currency) bool { return strings.EqualFold(x.Code, c.Code) }) {
			return fmt.Errorf("currency %q: %w", c.Code, ErrDuplicateName)
		}
		if c.ID == 0 {
			c.ID = s.newID(func(id int64) bool {
				return slices.ContainsFunc(d.Currencies, func(x core.Currency) bool { return x.ID == id })
			})
		}
		d.Currencies = append(d.Currencies, c)
		return nil
	})
	if err != nil {
		return core.Currency{}, err
	}
	return c, nil
}

func (s *Store) DeleteCurrency(ctx context.Context, id int64) error {
	_, err := s.apply(ctx, "delete_currency", func(d *Data) error {
		return deleteByID(&d.Currencies, id, "currency", func(c core.Currency) int64 { return c.ID })
	})
	return err
}

// Replace swaps in data wholesale, as a restore does. An empty currency
// list is filled with the defaults.
func (s *Store) Replace(ctx context.Context, data Data) (Snapshot, error) {
	data = data.Clone()
	if len(data.Currencies) == 0 {
		data.Currencies = core.DefaultCurrencies()
	}
	return s.apply(ctx, "replace", func(d *Data) error {
		*d = data
		return nil
	})
}

// Clear removes every record and resets currencies to the defaults.
// Settings are not part of the store and survive.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.apply(ctx, "clear", func(d *Data) error {
		*d = Data{Currencies: core.DefaultCurrencies()}
		return nil
	})
	return err
}

// Search runs f against the current snapshot.
func (s *Store) Search(f SearchFilters) []core.Transaction {
	return s.Snapshot().Search(f)
}

func deleteByID[T any](items *[]T, id int64, kind string, idOf func(T) int64) error {
	i := slices.IndexFunc(*items, func(v T) bool { return idOf(v) == id })
	if i < 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	*items = slices.Delete(*items, i, i+1)
	return nil
}
