package syncer

import (
	"context"
	"fmt"
	"os"
	"time"

	"k8s.io/klog"

	"github.com/epargneops/epargneops/internal/bnppere"
	"github.com/epargneops/epargneops/internal/categorize"
	"github.com/epargneops/epargneops/internal/config"
	"github.com/epargneops/epargneops/internal/influxhelper"
	"github.com/epargneops/epargneops/internal/ledger"
	"github.com/epargneops/epargneops/internal/reconcile"
	"github.com/epargneops/epargneops/internal/report"
	"github.com/epargneops/epargneops/pkg/postgresutils"
)

const (
	defaultDatabase            = "epargneops"
	defaultAccountsTable       = "accounts"
	defaultTransactionsTable   = "transactions"
	defaultHistoriesTable      = "balance_histories"
	defaultBalancesMeasurement = "balances"
)

type SyncRunner struct{}

func (SyncRunner) Run() error {
	ctx := context.Background()

	conf := config.CurrentSyncConfig()
	secrets := config.CurrentSecrets()

	var fetcher bnppere.Fetcher = bnppere.NewClient()
	if conf.Standalone || os.Getenv("EPARGNEOPS_STANDALONE") != "" {
		fetcher = bnppere.FileFetcher{Path: conf.StandaloneFixture}
	}

	db, err := postgresutils.CreatePostgresClient(postgresutils.ConnectionInfo{
		DatabaseURL: secrets.DatabaseURL,
		Host:        secrets.SQL.SqlHost,
		Username:    secrets.SQL.SqlUsername,
		Password:    secrets.SQL.SqlPassword,
		Database:    orDefault(conf.SQL.SyncDatabase, defaultDatabase),
	})
	if err != nil {
		return fmt.Errorf("Error connecting to postgres DB: %s", err)
	}
	defer db.Close()

	reconciler := reconcile.NewReconciler(db,
		orDefault(conf.SQL.AccountsTable, defaultAccountsTable),
		orDefault(conf.SQL.TransactionsTable, defaultTransactionsTable))

	err = reconciler.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("Error migrating account tables: %s", err)
	}

	manager := ledger.NewManager(db, orDefault(conf.SQL.HistoriesTable, defaultHistoriesTable))

	err = manager.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("Error migrating balance history table: %s", err)
	}

	s := New(fetcher, categorize.LabelCategorizer{}, reconciler, manager,
		secrets.BNPPERE.Login, secrets.BNPPERE.Password)

	started := time.Now()
	result := s.Run(ctx)
	duration := time.Since(started)

	if result.Err != nil {
		klog.Errorf("Sync run %s failed after %s: %v\n", result.RunID, result.LastGood, result.Err)
	} else {
		klog.Infof("Sync run %s done: %d accounts, %d transactions\n", result.RunID, result.Accounts, result.Transactions)
		exportBalances(result)
	}

	// best effort, a broken dashboard should not flip a run to failed
	reportRun(result, started, duration)

	return result.Err
}

func exportBalances(result Result) {
	conf := config.CurrentSyncConfig()
	secrets := config.CurrentInfluxSecrets()

	if secrets.InfluxEndpoint == "" {
		return
	}

	influxClient, err := influxhelper.CreateInfluxClient(*secrets)
	if err != nil {
		klog.Errorf("Error creating InfluxDB Client: %s\n", err.Error())
		return
	}

	database := orDefault(conf.Influx.Database, defaultDatabase)

	err = influxhelper.EnsureDatabase(influxClient, database)
	if err != nil {
		klog.Errorf("Error creating influx DB: %s\n", err.Error())
		return
	}

	measurement := orDefault(conf.Influx.BalancesMeasurement, defaultBalancesMeasurement)

	err = influxhelper.WriteBalancePoints(influxClient, database, measurement, result.SavedAccounts, time.Now())
	if err != nil {
		klog.Errorf("Error exporting balances to influx: %s\n", err.Error())
		return
	}

	klog.Infof("Wrote %d account balances to influx\n", len(result.SavedAccounts))
}

func reportRun(result Result, started time.Time, duration time.Duration) {
	conf := config.CurrentSyncConfig()
	secrets := config.CurrentAirtableSecrets()

	if secrets.AirtableAPIKey == "" || conf.Airtable.BaseID == "" {
		return
	}

	reporter := report.AirtableReporter{
		APIKey: secrets.AirtableAPIKey,
		BaseID: conf.Airtable.BaseID,
		Table:  orDefault(conf.Airtable.RunsTable, "runs"),
	}

	err := reporter.Report(report.Run{
		ID:           result.RunID,
		State:        string(result.State),
		Accounts:     result.Accounts,
		Transactions: result.Transactions,
		Err:          result.Err,
		StartedAt:    started,
		Duration:     duration,
	})
	if err != nil {
		klog.Errorf("Error reporting run to airtable: %s\n", err.Error())
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
