package ledger

import (
	"github.com/uptrace/bun"
)

// HistoryVersion is stamped on newly created documents so the schema can be
// migrated later.
const HistoryVersion = 1

// accountDoctype is the entity type the account relationship points at. The
// relationship is a back-reference only, histories never own their account.
const accountDoctype = "accounts"

// BalanceHistory records one balance snapshot per calendar date for one
// account over one year. At most one row exists per (year, account); the
// unique constraint makes a concurrent duplicate create degrade into an
// update instead of a second document.
type BalanceHistory struct {
	bun.BaseModel `bun:"table:balance_histories"`

	ID             int64              `bun:",pk,autoincrement"`
	Year           int                `bun:",unique:year_account"`
	AccountID      int64              `bun:",unique:year_account"`
	AccountDoctype string
	Balances       map[string]float64 `bun:"type:jsonb"`
	Version        int
}

// NewBalanceHistory returns an empty history for a (year, account) pair that
// has no document yet.
func NewBalanceHistory(year int, accountID int64) *BalanceHistory {
	return &BalanceHistory{
		Year:           year,
		AccountID:      accountID,
		AccountDoctype: accountDoctype,
		Balances:       map[string]float64{},
		Version:        HistoryVersion,
	}
}

// SetBalance records a snapshot for a date, overwriting any value already
// recorded for that date. Other dates are left untouched.
func (h *BalanceHistory) SetBalance(date string, balance float64) {
	if h.Balances == nil {
		h.Balances = map[string]float64{}
	}
	h.Balances[date] = balance
}
