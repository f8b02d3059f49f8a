package banking

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	Currency         = "EUR"
	InstitutionLabel = "BNP Paribas Épargne Salariale"
	AccountType      = "Savings"
)

// RawCard is one employee savings plan as returned by the provider. The
// provider does not expose a stable identifier for a plan, only the
// company/plan number pair.
type RawCard struct {
	Company     string  `json:"company"`
	PlanID      string  `json:"planID"`
	Name        string  `json:"name"`
	TotalAmount float64 `json:"totalAmount"`
}

// RawOperation is one movement on a plan as returned by the provider.
// DateTime is a naive local timestamp ("2006-01-02T15:04:05"), no zone.
type RawOperation struct {
	ID       string  `json:"id"`
	Company  string  `json:"company"`
	Card     string  `json:"card"`
	DateTime string  `json:"dateTime"`
	Amount   float64 `json:"amount"`
	Label    string  `json:"label"`
	Code     string  `json:"code"`
}

type Account struct {
	bun.BaseModel `bun:"table:accounts"`

	ID               int64  `bun:",pk,autoincrement"`
	VendorID         string `bun:",unique"`
	Number           string
	Currency         string
	InstitutionLabel string
	Label            string
	Balance          float64
	Type             string
}

type Transaction struct {
	bun.BaseModel `bun:"table:transactions"`

	ID                int64  `bun:",pk,autoincrement"`
	VendorID          string `bun:",unique"`
	VendorAccountID   string
	AccountID         int64
	Amount            float64
	Date              string
	DateOperation     string
	DateImport        time.Time
	Currency          string
	Label             string
	OriginalBankLabel string `bun:"type:text"`
	Category          string
}
