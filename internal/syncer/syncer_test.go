package syncer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epargneops/epargneops/internal/banking"
	"github.com/epargneops/epargneops/internal/bnppere"
	"github.com/epargneops/epargneops/internal/categorize"
	"github.com/epargneops/epargneops/internal/ledger"
)

type fakeFetcher struct {
	cards []banking.RawCard
	ops   []banking.RawOperation
	err   error
}

func (f fakeFetcher) Fetch(ctx context.Context, login, password string) ([]banking.RawCard, []banking.RawOperation, error) {
	return f.cards, f.ops, f.err
}

type fakeCategorizer struct {
	err error
}

func (f fakeCategorizer) Categorize(transactions []banking.Transaction) ([]banking.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return transactions, nil
}

type fakeReconciler struct {
	err   error
	saved []banking.Transaction
}

func (f *fakeReconciler) Save(ctx context.Context, accounts []banking.Account, transactions []banking.Transaction) ([]banking.Account, error) {
	if f.err != nil {
		return nil, f.err
	}

	f.saved = transactions

	// hand out storage identifiers the way the store would
	for i := range accounts {
		accounts[i].ID = int64(i + 1)
	}

	return accounts, nil
}

type fakeLedger struct {
	fetchErr   error
	persistErr error
	persisted  []ledger.BalanceHistory
}

func (f *fakeLedger) FetchHistories(ctx context.Context, accounts []banking.Account, asOf time.Time) ([]ledger.BalanceHistory, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	histories := make([]ledger.BalanceHistory, 0, len(accounts))
	for _, account := range accounts {
		history := ledger.NewBalanceHistory(asOf.Year(), account.ID)
		history.SetBalance(asOf.Format("2006-01-02"), account.Balance)
		histories = append(histories, *history)
	}

	return histories, nil
}

func (f *fakeLedger) PersistHistories(ctx context.Context, histories []ledger.BalanceHistory) error {
	if f.persistErr != nil {
		return f.persistErr
	}

	f.persisted = histories

	return nil
}

func newTestSyncer(fetcher bnppere.Fetcher, categorizer categorize.Categorizer, rec *fakeReconciler, led *fakeLedger) *Syncer {
	s := New(fetcher, categorizer, rec, led, "user", "pass")
	s.now = func() time.Time { return time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC) }

	return s
}

func TestRunEndToEnd(t *testing.T) {
	fetcher := fakeFetcher{
		cards: []banking.RawCard{
			{Company: "BNP", PlanID: "001", Name: "Plan A", TotalAmount: 1000},
		},
		ops: []banking.RawOperation{
			{ID: "op1", Company: "BNP", Card: "001", DateTime: "2024-03-01T10:00:00", Amount: 50, Label: "Contribution", Code: "STANDARD"},
		},
	}
	rec := &fakeReconciler{}
	led := &fakeLedger{}

	result := newTestSyncer(fetcher, categorize.LabelCategorizer{}, rec, led).Run(context.Background())

	require.NoError(t, result.Err)
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, StateDone, result.LastGood)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.Accounts)
	assert.Equal(t, 1, result.Transactions)

	require.Len(t, result.SavedAccounts, 1)
	account := result.SavedAccounts[0]
	assert.Equal(t, "BNP999001", account.VendorID)
	assert.Equal(t, 1000.0, account.Balance)
	assert.Equal(t, "EUR", account.Currency)
	assert.Equal(t, "Savings", account.Type)

	require.Len(t, rec.saved, 1)
	assert.Equal(t, "op1", rec.saved[0].VendorID)
	assert.Equal(t, "BNP999001", rec.saved[0].VendorAccountID)
	assert.Equal(t, 50.0, rec.saved[0].Amount)
	assert.Equal(t, "2024-03-01T10:00:00.000Z", rec.saved[0].Date)

	require.Len(t, led.persisted, 1)
	assert.Equal(t, 2024, led.persisted[0].Year)
	assert.Equal(t, account.ID, led.persisted[0].AccountID)
	assert.Equal(t, 1000.0, led.persisted[0].Balances["2024-03-01"])
}

func TestRunArbitrageCountsBothLegs(t *testing.T) {
	fetcher := fakeFetcher{
		cards: []banking.RawCard{{Company: "BNP", PlanID: "001", Name: "Plan A", TotalAmount: 500}},
		ops: []banking.RawOperation{
			{ID: "op2", Company: "BNP", Card: "001", DateTime: "2024-03-01T09:00:00", Amount: 120, Label: "Arbitrage", Code: "ARBITRAGE"},
		},
	}
	rec := &fakeReconciler{}
	led := &fakeLedger{}

	result := newTestSyncer(fetcher, categorize.LabelCategorizer{}, rec, led).Run(context.Background())

	require.NoError(t, result.Err)
	assert.Equal(t, 2, result.Transactions)

	require.Len(t, rec.saved, 2)
	assert.Zero(t, rec.saved[0].Amount+rec.saved[1].Amount)
}

func TestRunAuthenticationFailure(t *testing.T) {
	fetcher := fakeFetcher{err: fmt.Errorf("%w: provider returned 401", bnppere.ErrAuthentication)}

	result := newTestSyncer(fetcher, categorize.LabelCategorizer{}, &fakeReconciler{}, &fakeLedger{}).Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, StateStart, result.LastGood)
	assert.ErrorIs(t, result.Err, ErrAuthentication)
	assert.NotErrorIs(t, result.Err, ErrFetch)
}

func TestRunFetchFailure(t *testing.T) {
	fetcher := fakeFetcher{err: errors.New("connection reset")}

	result := newTestSyncer(fetcher, categorize.LabelCategorizer{}, &fakeReconciler{}, &fakeLedger{}).Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.ErrorIs(t, result.Err, ErrFetch)
}

func TestRunCategorizationFailure(t *testing.T) {
	fetcher := fakeFetcher{cards: []banking.RawCard{{Company: "BNP", PlanID: "001"}}}

	result := newTestSyncer(fetcher, fakeCategorizer{err: errors.New("service down")}, &fakeReconciler{}, &fakeLedger{}).Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, StateNormalized, result.LastGood)
	assert.ErrorIs(t, result.Err, ErrCategorization)
}

func TestRunReconciliationFailure(t *testing.T) {
	fetcher := fakeFetcher{cards: []banking.RawCard{{Company: "BNP", PlanID: "001"}}}
	rec := &fakeReconciler{err: errors.New("constraint violation")}

	result := newTestSyncer(fetcher, categorize.LabelCategorizer{}, rec, &fakeLedger{}).Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, StateCategorized, result.LastGood)
	assert.ErrorIs(t, result.Err, ErrReconciliation)
}

func TestRunBalanceQueryFailure(t *testing.T) {
	fetcher := fakeFetcher{cards: []banking.RawCard{{Company: "BNP", PlanID: "001"}}}
	led := &fakeLedger{fetchErr: errors.New("store unavailable")}

	result := newTestSyncer(fetcher, categorize.LabelCategorizer{}, &fakeReconciler{}, led).Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, StateReconciled, result.LastGood)
	assert.ErrorIs(t, result.Err, ErrBalanceQuery)
	assert.Nil(t, led.persisted)
}

func TestRunBalancePersistFailure(t *testing.T) {
	fetcher := fakeFetcher{cards: []banking.RawCard{{Company: "BNP", PlanID: "001"}}}
	led := &fakeLedger{persistErr: errors.New("write refused")}

	result := newTestSyncer(fetcher, categorize.LabelCategorizer{}, &fakeReconciler{}, led).Run(context.Background())

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, StateBalancesMerged, result.LastGood)
	assert.ErrorIs(t, result.Err, ErrBalancePersist)
}

func TestRunEmptySource(t *testing.T) {
	result := newTestSyncer(fakeFetcher{}, categorize.LabelCategorizer{}, &fakeReconciler{}, &fakeLedger{}).Run(context.Background())

	require.NoError(t, result.Err)
	assert.Equal(t, StateDone, result.State)
	assert.Zero(t, result.Accounts)
	assert.Zero(t, result.Transactions)
}
