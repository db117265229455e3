package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"cloudbudget/internal/amqp"
	"cloudbudget/internal/backend"
	"cloudbudget/internal/cache"
	"cloudbudget/internal/cli"
	"cloudbudget/internal/config"
	"cloudbudget/internal/core"
	"cloudbudget/internal/log"
	"cloudbudget/internal/services"
	"cloudbudget/internal/store"
)

// runtime is the wired application behind every command.
type runtime struct {
	cfg       *config.Config
	logger    *log.Logger
	app       *cli.App
	backup    *services.BackupService
	syncer    *services.AutoSyncer
	dashboard *services.Dashboard
	caches    *cache.Manager
	queue     *amqp.Client
	now       func() time.Time
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "cloudbudget",
		Short: "Personal budgeting: accounts, transactions, reports and cloud backup.",
		Long: `cloudbudget keeps a local ledger of accounts and transactions, derives
balances and monthly reports from it, and backs it up to a spreadsheet.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.open(cmd.Context())
		},
	}

	root.AddCommand(
		newAccountsCmd(rt),
		newBalanceCmd(rt),
		newTxCmd(rt),
		newAdjustCmd(rt),
		newPayCardCmd(rt),
		newReportCmd(rt),
		newBackupCmd(rt),
		newExportCmd(rt),
		newClearCmd(rt),
	)
	root.AddCommand(newCatalogCmds(rt)...)
	return root
}

func (rt *runtime) open(ctx context.Context) error {
	if rt.app != nil {
		return nil
	}
	if rt.now == nil {
		rt.now = time.Now
	}

	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	rt.cfg = cfg
	rt.logger = cli.SetupLogger(cfg, log.ComponentCLI)

	app, err := cli.OpenApp(ctx, cfg, rt.logger.Logger)
	if err != nil {
		return err
	}
	rt.app = app

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	backup, err := backend.NewFactory(rt.logger.Logger).CreateBackup(ctx, bcfg)
	if err != nil {
		return err
	}

	rt.backup = services.NewBackupService(app.Store, backup, app.Backend.Settings)
	rt.dashboard = services.NewDashboard(app.Store, cfg.ReportCacheSize, cfg.ReportCacheTTL)
	if cfg.ReportCacheTTL > 0 {
		rt.caches = cache.NewManager()
		rt.dashboard.RegisterCaches(rt.caches)
		rt.caches.StartCleanup(cfg.ReportCacheTTL)
	}

	if !cfg.AutoSyncEnabled {
		return nil
	}
	var publisher services.Publisher
	if cfg.QueueEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			rt.logger.WarnContext(ctx, "AMQP unavailable, syncing in process", log.FieldError, err)
		} else {
			rt.queue = client
			publisher = client
		}
	}
	if publisher == nil && backup == nil {
		return nil
	}
	rt.syncer = services.NewAutoSyncer(app.Store, rt.backup, publisher, app.Backend.Settings, services.AutoSyncConfig{
		Delay:       cfg.AutoSyncDelay,
		MinInterval: cfg.MinSyncInterval,
	})
	rt.syncer.Start(ctx)
	return nil
}

// stopSync cancels auto-sync for commands whose changes must not be
// pushed to the backup.
func (rt *runtime) stopSync() {
	if rt.syncer != nil {
		rt.syncer.Stop()
		rt.syncer = nil
	}
}

// close runs a pending sync, if one is due, and releases resources.
func (rt *runtime) close(ctx context.Context) {
	if rt.syncer != nil {
		rt.syncer.Flush(ctx)
		rt.stopSync()
	}
	if rt.caches != nil {
		rt.caches.Stop()
		rt.caches = nil
	}
	if rt.queue != nil {
		rt.queue.Close()
		rt.queue = nil
	}
	if rt.app != nil {
		if err := rt.app.Close(); err != nil {
			rt.logger.ErrorContext(ctx, "Closing backend failed", log.FieldError, err)
		}
		rt.app = nil
	}
}

func (rt *runtime) store() *store.Store {
	return rt.app.Store
}

func (rt *runtime) today() core.Date {
	return core.DateOf(rt.now())
}

// money formats amount in the account's currency, or the default one.
func (rt *runtime) money(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = rt.cfg.DefaultCurrency
	}
	return core.FormatMoney(amount, currency)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func accountByName(snap store.Snapshot, name string) (core.Account, error) {
	acc, ok := snap.Account(strings.TrimSpace(name))
	if !ok {
		return core.Account{}, fmt.Errorf("account %q: %w", name, store.ErrNotFound)
	}
	return acc, nil
}

func parseDate(s string, def core.Date) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	return core.ParseDate(s)
}
