package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog"

	"github.com/epargneops/epargneops/internal/banking"
	"github.com/epargneops/epargneops/internal/bnppere"
	"github.com/epargneops/epargneops/internal/categorize"
	"github.com/epargneops/epargneops/internal/ledger"
)

type State string

const (
	StateStart          State = "START"
	StateFetched        State = "FETCHED"
	StateNormalized     State = "NORMALIZED"
	StateCategorized    State = "CATEGORIZED"
	StateReconciled     State = "RECONCILED"
	StateBalancesMerged State = "BALANCES_MERGED"
	StateDone           State = "DONE"
	StateFailed         State = "FAILED"
)

// Result is what one sync cycle ends with. State is DONE or FAILED; on
// failure LastGood holds the last state reached and Err wraps the stage's
// sentinel, so a scheduler can tell success from failure instead of grepping
// logs.
type Result struct {
	RunID         string
	State         State
	LastGood      State
	Accounts      int
	Transactions  int
	SavedAccounts []banking.Account
	Err           error
}

type reconciler interface {
	Save(ctx context.Context, accounts []banking.Account, transactions []banking.Transaction) ([]banking.Account, error)
}

type ledgerManager interface {
	FetchHistories(ctx context.Context, accounts []banking.Account, asOf time.Time) ([]ledger.BalanceHistory, error)
	PersistHistories(ctx context.Context, histories []ledger.BalanceHistory) error
}

// Syncer runs one fetch-normalize-merge-persist cycle. Linear, no retry:
// a failed run is reported and the next scheduled run re-derives balances
// from current account state.
type Syncer struct {
	fetcher     bnppere.Fetcher
	categorizer categorize.Categorizer
	reconciler  reconciler
	ledger      ledgerManager

	login    string
	password string

	now func() time.Time
}

func New(fetcher bnppere.Fetcher, categorizer categorize.Categorizer, reconciler reconciler, ledgerManager ledgerManager, login, password string) *Syncer {
	return &Syncer{
		fetcher:     fetcher,
		categorizer: categorizer,
		reconciler:  reconciler,
		ledger:      ledgerManager,
		login:       login,
		password:    password,
		now:         time.Now,
	}
}

func (s *Syncer) Run(ctx context.Context) Result {
	result := Result{
		RunID:    uuid.NewString(),
		State:    StateStart,
		LastGood: StateStart,
	}

	cards, ops, err := s.fetcher.Fetch(ctx, s.login, s.password)
	if err != nil {
		kind := ErrFetch
		if errors.Is(err, bnppere.ErrAuthentication) {
			kind = ErrAuthentication
		}
		return fail(result, kind, err)
	}

	result.LastGood = StateFetched
	klog.Infof("Successfully fetched data: %d cards, %d operations\n", len(cards), len(ops))

	importTime := s.now()

	accounts := banking.AccountsFromCards(cards)
	transactions := banking.TransactionsFromOperations(ops, importTime)

	result.LastGood = StateNormalized
	result.Accounts = len(accounts)
	result.Transactions = len(transactions)

	categorized, err := s.categorizer.Categorize(transactions)
	if err != nil {
		return fail(result, ErrCategorization, err)
	}

	result.LastGood = StateCategorized

	savedAccounts, err := s.reconciler.Save(ctx, accounts, categorized)
	if err != nil {
		return fail(result, ErrReconciliation, err)
	}

	result.LastGood = StateReconciled
	result.SavedAccounts = savedAccounts

	histories, err := s.ledger.FetchHistories(ctx, savedAccounts, importTime)
	if err != nil {
		return fail(result, ErrBalanceQuery, err)
	}

	result.LastGood = StateBalancesMerged

	err = s.ledger.PersistHistories(ctx, histories)
	if err != nil {
		return fail(result, ErrBalancePersist, err)
	}

	result.State = StateDone
	result.LastGood = StateDone

	return result
}

func fail(result Result, kind, err error) Result {
	result.State = StateFailed
	result.Err = fmt.Errorf("%w: %w", kind, err)

	return result
}
