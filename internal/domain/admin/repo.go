package admin

import (
	"context"
)

// StatsRepository reads the aggregate counts behind the analytics summary.
type StatsRepository interface {
	Counts(ctx context.Context) (*Counts, error)
}
