package model

import "time"

// RunStatus represents the current state of a sync run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Workflow names the assembly of components a run executes.
type Workflow string

const (
	WorkflowImport       Workflow = "import"
	WorkflowEnrichAll    Workflow = "enrich_all"
	WorkflowEnrichSingle Workflow = "enrich_single"
)

// Run is one ledger entry for a workflow invocation.
type Run struct {
	ID        string    `json:"id" yaml:"id"`
	Workflow  Workflow  `json:"workflow" yaml:"workflow"`
	Status    RunStatus `json:"status" yaml:"status"`
	Summary   *Summary  `json:"summary,omitempty" yaml:"summary,omitempty"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
