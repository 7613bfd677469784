// Package store persists the run ledger and the route cache.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/brewery-sync/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status   model.RunStatus `json:"status,omitempty"`
	Workflow model.Workflow  `json:"workflow,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for sync runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, workflow model.Workflow) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary model.Summary) error
	FailRun(ctx context.Context, runID string, summary model.Summary, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Outcomes
	RecordOutcomes(ctx context.Context, runID string, outcomes []model.Outcome) error
	ListOutcomes(ctx context.Context, runID string) ([]model.Outcome, error)

	// Route cache
	GetCachedRoute(ctx context.Context, key string) (*model.Route, error)
	SetCachedRoute(ctx context.Context, key string, route model.Route, ttl time.Duration) error
	DeleteExpiredRoutes(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = eris.New("run not found")

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
