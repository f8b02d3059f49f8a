package bnppere

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"k8s.io/klog"

	"github.com/epargneops/epargneops/internal/banking"
)

// FileFetcher serves cards and operations from a JSON fixture instead of the
// live API. Used by the standalone mode, which skips the provider session
// login entirely.
type FileFetcher struct {
	Path string
}

type fixture struct {
	Cards      []banking.RawCard      `json:"cards"`
	Operations []banking.RawOperation `json:"operations"`
}

func (f FileFetcher) Fetch(ctx context.Context, login, password string) ([]banking.RawCard, []banking.RawOperation, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read fixture %s: %w", f.Path, err)
	}

	var fx fixture

	err = json.Unmarshal(raw, &fx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse fixture %s: %w", f.Path, err)
	}

	klog.Infof("Standalone mode: read %d cards and %d operations from %s\n", len(fx.Cards), len(fx.Operations), f.Path)

	return fx.Cards, fx.Operations, nil
}
