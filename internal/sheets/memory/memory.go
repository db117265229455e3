// Package memory provides an in-process backup target and the YAML seed
// used by the memory data backend.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"cloudbudget/internal/core"
	ports "cloudbudget/internal/sheets"
	"cloudbudget/internal/store"
)

// Backup keeps the last saved backup in memory.
type Backup struct {
	mu    sync.Mutex
	data  ports.BackupData
	saved bool
}

var _ ports.Backup = (*Backup)(nil)

func NewBackup() *Backup { return &Backup{} }

func (b *Backup) Save(_ context.Context, data ports.BackupData) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = ports.BackupData{Data: data.Data.Clone(), ExportDate: data.ExportDate}
	b.saved = true
	return nil
}

func (b *Backup) Load(_ context.Context) (ports.BackupData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.saved {
		return ports.BackupData{}, ports.ErrNoBackup
	}
	return ports.BackupData{Data: b.data.Data.Clone(), ExportDate: b.data.ExportDate}, nil
}

// SeedFile is the seed file name looked up in the data directory.
const SeedFile = "seed.yaml"

type seedAccount struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Balance  string `yaml:"balance"`
	Currency string `yaml:"currency"`
	Virtual  bool   `yaml:"virtual"`
	Group    string `yaml:"group"`
	Color    string `yaml:"color"`
	Icon     string `yaml:"icon"`
}

type seedCategory struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Icon string `yaml:"icon"`
}

type seedFile struct {
	Accounts   []seedAccount   `yaml:"accounts"`
	Categories []seedCategory  `yaml:"categories"`
	Tags       []core.Tag      `yaml:"tags"`
	Merchants  []core.Merchant `yaml:"merchants"`
	Currencies []core.Currency `yaml:"currencies"`
}

// LoadSeed reads dir/seed.yaml. A missing file yields the built-in
// defaults: no records and the default currencies. Seeded records get
// sequential ids in file order.
func LoadSeed(dir string) (store.Data, error) {
	raw, err := os.ReadFile(filepath.Join(dir, SeedFile))
	if errors.Is(err, os.ErrNotExist) {
		return store.Data{Currencies: core.DefaultCurrencies()}, nil
	}
	if err != nil {
		return store.Data{}, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes and validates a YAML seed document.
func ParseSeed(raw []byte) (store.Data, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return store.Data{}, fmt.Errorf("parse seed: %w", err)
	}

	var data store.Data
	var id int64
	next := func() int64 { id++; return id }

	for _, a := range f.Accounts {
		acc := core.Account{
			ID:             next(),
			Name:           a.Name,
			Type:           core.AccountType(a.Type),
			InitialBalance: core.SafeDecimal(a.Balance),
			Currency:       a.Currency,
			IsVirtual:      a.Virtual,
			Group:          a.Group,
			Color:          a.Color,
			Icon:           a.Icon,
		}
		if acc.Currency == "" {
			acc.Currency = "TWD"
		}
		if err := acc.Validate(); err != nil {
			return store.Data{}, fmt.Errorf("seed account %q: %w", a.Name, err)
		}
		data.Accounts = append(data.Accounts, acc)
	}
	for _, c := range f.Categories {
		cat := core.Category{ID: next(), Name: c.Name, Type: core.TransactionType(c.Type), Icon: c.Icon}
		if err := cat.Validate(); err != nil {
			return store.Data{}, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		data.Categories = append(data.Categories, cat)
	}
	for _, t := range f.Tags {
		t.ID = next()
		if err := t.Validate(); err != nil {
			return store.Data{}, fmt.Errorf("seed tag: %w", err)
		}
		data.Tags = append(data.Tags, t)
	}
	for _, m := range f.Merchants {
		m.ID = next()
		if err := m.Validate(); err != nil {
			return store.Data{}, fmt.Errorf("seed merchant: %w", err)
		}
		data.Merchants = append(data.Merchants, m)
	}
	for _, c := range f.Currencies {
		c.ID = next()
		if err := c.Validate(); err != nil {
			return store.Data{}, fmt.Errorf("seed currency: %w", err)
		}
		data.Currencies = append(data.Currencies, c)
	}
	if len(data.Currencies) == 0 {
		data.Currencies = core.DefaultCurrencies()
	}
	return data, nil
}
