//go:build !windows

package overlay

import (
	"context"
	"fmt"
)

type stubSelector struct{}

func newPlatformSelector() Selector { return &stubSelector{} }

func (s *stubSelector) Select(ctx context.Context, opts Options) (Result, error) {
	return Result{}, fmt.Errorf("region selection is only supported on Windows")
}
