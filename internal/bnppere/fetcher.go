package bnppere

import (
	"context"
	"errors"

	"github.com/epargneops/epargneops/internal/banking"
)

// ErrAuthentication marks a fetch failure caused by the provider rejecting
// the credentials, as opposed to a network or parsing failure.
var ErrAuthentication = errors.New("authentication with provider failed")

// Fetcher retrieves the raw plans and operations for one login.
type Fetcher interface {
	Fetch(ctx context.Context, login, password string) ([]banking.RawCard, []banking.RawOperation, error)
}
