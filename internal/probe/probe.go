package probe

import (
	"context"

	"github.com/hamed0406/healthcheck/internal/domain"
)

// Checker performs a single check for a given target.
type Checker interface {
	Check(ctx context.Context, t domain.Target) domain.CheckResult
}
