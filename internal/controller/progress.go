package controller

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sells-group/brewery-sync/internal/model"
)

// Progress receives sweep progress.
type Progress interface {
	Start(total int)
	Increment(o model.Outcome)
	Done(s model.Summary)
}

// LogProgress logs every N processed records and on completion.
type LogProgress struct {
	workflow model.Workflow
	every    int
	total    atomic.Int64
	done     atomic.Int64
}

// NewLogProgress returns a Progress that logs through zap. every <= 0 logs
// only at start and completion.
func NewLogProgress(workflow model.Workflow, every int) *LogProgress {
	return &LogProgress{workflow: workflow, every: every}
}

func (p *LogProgress) Start(total int) {
	p.total.Store(int64(total))
	zap.L().Info("controller: starting",
		zap.String("workflow", string(p.workflow)),
		zap.Int("total", total),
	)
}

func (p *LogProgress) Increment(o model.Outcome) {
	n := p.done.Add(1)
	if p.every > 0 && n%int64(p.every) == 0 {
		zap.L().Info("controller: progress",
			zap.String("workflow", string(p.workflow)),
			zap.Int64("done", n),
			zap.Int64("total", p.total.Load()),
			zap.String("last_outcome", string(o.Kind)),
		)
	}
}

func (p *LogProgress) Done(s model.Summary) {
	zap.L().Info("controller: complete",
		zap.String("workflow", string(p.workflow)),
		zap.Int("total", s.Total),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("created", s.Created),
		zap.Int("updated", s.Updated),
		zap.Int("enriched", s.Enriched),
		zap.Int("skipped", s.Skipped),
		zap.Int("failed", s.Failed),
	)
}

type nopProgress struct{}

func (nopProgress) Start(int)                {}
func (nopProgress) Increment(model.Outcome) {}
func (nopProgress) Done(model.Summary)      {}
