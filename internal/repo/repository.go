package repo

import (
	"context"

	"github.com/hamed0406/healthcheck/internal/domain"
)

// ResultStore is the history of check results. Entries are append-only and
// kept in insertion order, newest last.
type ResultStore interface {
	Append(ctx context.Context, r domain.CheckResult) error
	// History returns a copy of every result recorded for id.
	History(ctx context.Context, id domain.TargetID) ([]domain.CheckResult, error)
	// Latest returns the newest result for id; ok is false when there is none.
	Latest(ctx context.Context, id domain.TargetID) (r domain.CheckResult, ok bool, err error)
}
