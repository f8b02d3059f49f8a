package syncer

import "errors"

// One sentinel per pipeline stage so callers can tell which stage killed a
// run with errors.Is instead of string matching.
var (
	ErrAuthentication = errors.New("authentication failure")
	ErrFetch          = errors.New("fetch failure")
	ErrCategorization = errors.New("categorization failure")
	ErrReconciliation = errors.New("reconciliation failure")
	ErrBalanceQuery   = errors.New("balance query failure")
	ErrBalancePersist = errors.New("balance persist failure")
)
