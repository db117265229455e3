package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloudbudget/internal/core"
	ports "cloudbudget/internal/sheets"
	"cloudbudget/internal/store"
)

func TestBackupSaveLoad(t *testing.T) {
	b := NewBackup()
	ctx := context.Background()

	if _, err := b.Load(ctx); !errors.Is(err, ports.ErrNoBackup) {
		t.Fatalf("expected ErrNoBackup, got %v", err)
	}

	in := ports.BackupData{
		Data:       store.Data{Tags: []core.Tag{{ID: 1, Name: "x"}}},
		ExportDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := b.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	in.Tags[0].Name = "mutated"

	out, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out.Tags) != 1 || out.Tags[0].Name != "x" {
		t.Fatalf("unexpected tags: %+v", out.Tags)
	}
	if !out.ExportDate.Equal(in.ExportDate) {
		t.Fatalf("export date: got %v", out.ExportDate)
	}
}

func TestLoadSeedMissingFile(t *testing.T) {
	data, err := LoadSeed(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data.Accounts) != 0 || len(data.Currencies) != 5 {
		t.Fatalf("unexpected defaults: %+v", data)
	}
}

func TestLoadSeedFromFile(t *testing.T) {
	dir := t.TempDir()
	seed := `
accounts:
  - name: Wallet
    type: cash
    balance: "1500"
  - name: Visa
    type: credit-card
    balance: "-200.5"
    currency: USD
categories:
  - {name: Food, type: expense}
  - {name: Salary, type: income}
tags:
  - {name: family, color: "#ff0"}
merchants:
  - {name: Bakery, category: Food}
currencies:
  - {code: TWD, name: New Taiwan Dollar, symbol: NT$}
`
	if err := os.WriteFile(filepath.Join(dir, SeedFile), []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := LoadSeed(dir)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	if len(data.Accounts) != 2 || data.Accounts[0].Currency != "TWD" || data.Accounts[1].Type != core.CreditCard {
		t.Fatalf("unexpected accounts: %+v", data.Accounts)
	}
	if data.Accounts[1].InitialBalance.String() != "-200.5" {
		t.Fatalf("balance: got %s", data.Accounts[1].InitialBalance)
	}
	if len(data.Categories) != 2 || data.Categories[1].Type != core.Income {
		t.Fatalf("unexpected categories: %+v", data.Categories)
	}
	if len(data.Tags) != 1 || data.Tags[0].Color != "#ff0" {
		t.Fatalf("unexpected tags: %+v", data.Tags)
	}
	if len(data.Currencies) != 1 || data.Currencies[0].Symbol != "NT$" {
		t.Fatalf("unexpected currencies: %+v", data.Currencies)
	}

	seen := map[int64]bool{}
	for _, a := range data.Accounts {
		seen[a.ID] = true
	}
	for _, c := range data.Categories {
		if seen[c.ID] {
			t.Fatalf("duplicate id %d", c.ID)
		}
	}
}

func TestParseSeedRejectsInvalid(t *testing.T) {
	if _, err := ParseSeed([]byte("categories:\n  - {name: Move, type: transfer}\n")); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	if _, err := ParseSeed([]byte("accounts: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
