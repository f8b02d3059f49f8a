package banking

import "time"

const (
	// The provider has no real plan identifier, accounts are keyed by
	// company+"999"+plan. The same derivation is used for operations so a
	// transaction always lands on the account it came from.
	vendorKeyInfix = "999"

	arbitrageCode         = "ARBITRAGE"
	arbitrageMirrorSuffix = "11"

	// Operation timestamps come back naive local time, the provider serves
	// them as UTC.
	utcSuffix = ".000Z"
)

// VendorAccountID derives the stable vendor identifier for a plan. Re-syncs
// of the same card always map to the same account.
func VendorAccountID(company, planID string) string {
	return company + vendorKeyInfix + planID
}

// AccountsFromCards maps raw plans to canonical accounts, one per card.
// Missing fields pass through as zero values, validation is not this layer's
// job.
func AccountsFromCards(cards []RawCard) []Account {
	accounts := make([]Account, 0, len(cards))

	for _, card := range cards {
		id := VendorAccountID(card.Company, card.PlanID)
		accounts = append(accounts, Account{
			VendorID:         id,
			Number:           id,
			Currency:         Currency,
			InstitutionLabel: InstitutionLabel,
			Label:            card.Name,
			Balance:          card.TotalAmount,
			Type:             AccountType,
		})
	}

	return accounts
}

// TransactionsFromOperations maps raw operations to canonical transactions.
// A normal operation yields one transaction. An arbitrage operation moves
// money between funds inside the plan, so it yields two: the original and a
// mirror with negated amount, keeping the pair's net effect on the balance
// at zero while both legs stay visible. The mirror directly follows its
// original in the output.
func TransactionsFromOperations(ops []RawOperation, importTime time.Time) []Transaction {
	transactions := make([]Transaction, 0, len(ops))

	for _, op := range ops {
		date := op.DateTime + utcSuffix
		transaction := Transaction{
			VendorID:          op.ID,
			VendorAccountID:   VendorAccountID(op.Company, op.Card),
			Amount:            op.Amount,
			Date:              date,
			DateOperation:     date,
			DateImport:        importTime,
			Currency:          Currency,
			Label:             op.Label,
			OriginalBankLabel: op.Label,
		}

		transactions = append(transactions, transaction)

		if op.Code == arbitrageCode {
			mirror := transaction
			mirror.VendorID = op.ID + arbitrageMirrorSuffix
			mirror.Amount = -op.Amount
			transactions = append(transactions, mirror)
		}
	}

	return transactions
}
