package categorize

import (
	"strings"

	"github.com/epargneops/epargneops/internal/banking"
)

// Categorizer annotates transactions with a category. Implementations must
// return the same transactions in the same order.
type Categorizer interface {
	Categorize(transactions []banking.Transaction) ([]banking.Transaction, error)
}

const defaultCategory = "uncategorized"

// labelRules maps a lowercased label substring to a category. First match
// wins, order matters for overlapping keywords.
var labelRules = []struct {
	keyword  string
	category string
}{
	{"abondement", "employer_match"},
	{"versement", "contribution"},
	{"contribution", "contribution"},
	{"intéressement", "profit_sharing"},
	{"interessement", "profit_sharing"},
	{"participation", "profit_sharing"},
	{"arbitrage", "arbitrage"},
	{"remboursement", "withdrawal"},
	{"frais", "fees"},
	{"dividende", "dividends"},
}

// LabelCategorizer assigns categories from keyword rules over the bank
// label. Good enough for employee-savings statements where the provider
// uses a small fixed vocabulary.
type LabelCategorizer struct{}

func (LabelCategorizer) Categorize(transactions []banking.Transaction) ([]banking.Transaction, error) {
	for i, transaction := range transactions {
		transactions[i].Category = categoryForLabel(transaction.OriginalBankLabel)
	}

	return transactions, nil
}

func categoryForLabel(label string) string {
	label = strings.ToLower(label)

	for _, rule := range labelRules {
		if strings.Contains(label, rule.keyword) {
			return rule.category
		}
	}

	return defaultCategory
}
