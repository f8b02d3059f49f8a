package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
	"k8s.io/klog"

	"github.com/epargneops/epargneops/internal/banking"
	"github.com/epargneops/epargneops/pkg/postgresutils"
)

// Reconciler persists canonical accounts and transactions, deduplicating
// against previous syncs by vendor id. Accounts come back carrying their
// storage identifiers.
type Reconciler struct {
	db                *bun.DB
	accountsTable     string
	transactionsTable string
}

func NewReconciler(db *bun.DB, accountsTable, transactionsTable string) *Reconciler {
	return &Reconciler{
		db:                db,
		accountsTable:     accountsTable,
		transactionsTable: transactionsTable,
	}
}

func (r *Reconciler) Migrate(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*banking.Account)(nil)).
		ModelTableExpr(r.accountsTable).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create %s table: %w", r.accountsTable, err)
	}

	_, err = r.db.NewCreateTable().
		Model((*banking.Transaction)(nil)).
		ModelTableExpr(r.transactionsTable).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create %s table: %w", r.transactionsTable, err)
	}

	return nil
}

// Save upserts accounts then transactions. A re-sync of the same card
// updates the stored account in place rather than creating a second one, the
// vendor id is stable across syncs.
func (r *Reconciler) Save(ctx context.Context, accounts []banking.Account, transactions []banking.Transaction) ([]banking.Account, error) {
	if len(accounts) == 0 {
		return accounts, nil
	}

	accountModel := (*banking.Account)(nil)

	_, err := r.db.NewInsert().
		Model(&accounts).
		ModelTableExpr(r.accountsTable).
		ExcludeColumn("id").
		On("CONFLICT (vendor_id) DO UPDATE").
		Set(postgresutils.TableSetString(r.db, accountModel, "id", "vendor_id")).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("error writing accounts to sql: %w", err)
	}

	klog.Infof("Wrote %d accounts to sql\n", len(accounts))

	transactions = assignAccountIDs(transactions, accounts)

	if len(transactions) > 0 {
		transactionModel := (*banking.Transaction)(nil)

		_, err = r.db.NewInsert().
			Model(&transactions).
			ModelTableExpr(r.transactionsTable).
			ExcludeColumn("id").
			On("CONFLICT (vendor_id) DO UPDATE").
			Set(postgresutils.TableSetString(r.db, transactionModel, "id", "vendor_id")).
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("error writing transactions to sql: %w", err)
		}

		klog.Infof("Wrote %d transactions to sql\n", len(transactions))
	}

	return accounts, nil
}

func assignAccountIDs(transactions []banking.Transaction, accounts []banking.Account) []banking.Transaction {
	idByVendor := make(map[string]int64, len(accounts))
	for _, account := range accounts {
		idByVendor[account.VendorID] = account.ID
	}

	for i, transaction := range transactions {
		id, ok := idByVendor[transaction.VendorAccountID]
		if !ok {
			slog.Warn("transaction references an unknown account", "transaction", transaction.VendorID, "account", transaction.VendorAccountID)
			continue
		}
		transactions[i].AccountID = id
	}

	return transactions
}
