package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog"

	"github.com/epargneops/epargneops/internal/banking"
	"github.com/epargneops/epargneops/pkg/postgresutils"
)

const dateKeyFormat = "2006-01-02"

// Manager maintains the per-account per-year balance histories.
type Manager struct {
	db    *bun.DB
	table string
}

func NewManager(db *bun.DB, table string) *Manager {
	return &Manager{db: db, table: table}
}

func (m *Manager) Migrate(ctx context.Context) error {
	_, err := m.db.NewCreateTable().
		Model((*BalanceHistory)(nil)).
		ModelTableExpr(m.table).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create %s table: %w", m.table, err)
	}

	return nil
}

// FetchHistories finds or creates the current-year history for every account
// and merges in the balance snapshot for asOf's date. Lookups run
// concurrently, accounts touch disjoint (year, account) keys so they need no
// coordination; any single failure fails the whole batch. No writes happen
// here.
func (m *Manager) FetchHistories(ctx context.Context, accounts []banking.Account, asOf time.Time) ([]BalanceHistory, error) {
	return fetchHistories(ctx, accounts, asOf, m.historyForAccount)
}

func fetchHistories(ctx context.Context, accounts []banking.Account, asOf time.Time, lookup func(context.Context, int, int64) (*BalanceHistory, error)) ([]BalanceHistory, error) {
	year := asOf.Year()
	day := asOf.Format(dateKeyFormat)

	histories := make([]BalanceHistory, len(accounts))

	g, ctx := errgroup.WithContext(ctx)
	for i, account := range accounts {
		i, account := i, account
		g.Go(func() error {
			history, err := lookup(ctx, year, account.ID)
			if err != nil {
				return fmt.Errorf("failed to fetch balance history for account %s: %w", account.VendorID, err)
			}

			history.SetBalance(day, account.Balance)
			histories[i] = *history

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return histories, nil
}

func (m *Manager) historyForAccount(ctx context.Context, year int, accountID int64) (*BalanceHistory, error) {
	history := new(BalanceHistory)

	err := m.db.NewSelect().
		Model(history).
		ModelTableExpr(m.table+" AS balance_history").
		Where("year = ?", year).
		Where("account_id = ?", accountID).
		Limit(1).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		klog.Infof("No balance history for year %d and account %d, creating a new one\n", year, accountID)
		return NewBalanceHistory(year, accountID), nil
	}

	if err != nil {
		return nil, err
	}

	klog.Infof("Found balance history for year %d and account %d\n", year, accountID)

	if history.Balances == nil {
		history.Balances = map[string]float64{}
	}

	return history, nil
}

// PersistHistories upserts every history as a whole document. The full
// balances map is written back on update, dropping previously recorded dates
// here would corrupt the ledger and the store does nothing to prevent it.
func (m *Manager) PersistHistories(ctx context.Context, histories []BalanceHistory) error {
	if len(histories) == 0 {
		return nil
	}

	model := (*BalanceHistory)(nil)

	_, err := m.db.NewInsert().
		Model(&histories).
		ModelTableExpr(m.table).
		ExcludeColumn("id").
		On("CONFLICT (year, account_id) DO UPDATE").
		Set(postgresutils.TableSetString(m.db, model, "id", "year", "account_id")).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error writing balance histories to sql: %w", err)
	}

	klog.Infof("Wrote %d balance histories to sql\n", len(histories))

	return nil
}
