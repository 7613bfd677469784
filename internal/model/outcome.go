package model

// OutcomeKind tags the result of processing a single record.
type OutcomeKind string

const (
	OutcomeCreated  OutcomeKind = "created"
	OutcomeUpdated  OutcomeKind = "updated"
	OutcomeEnriched OutcomeKind = "enriched"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeFailed   OutcomeKind = "failed"
)

// Skip reasons reported with OutcomeSkipped.
const (
	ReasonMissingFields       = "missing_fields"
	ReasonNoRoute             = "no_route"
	ReasonUnparseableDistance = "unparseable_distance"
	ReasonNotFound            = "not_found"
	ReasonInvalidID           = "invalid_id"
)

// Outcome is the tagged result of reconciling or enriching one record.
type Outcome struct {
	RecordID string      `json:"record_id" yaml:"record_id"`
	Name     string      `json:"name,omitempty" yaml:"name,omitempty"`
	Kind     OutcomeKind `json:"kind" yaml:"kind"`
	Reason   string      `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error    string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// Enriched reports a record whose derived fields were written.
func Enriched(id, name string) Outcome {
	return Outcome{RecordID: id, Name: name, Kind: OutcomeEnriched}
}

// Skipped reports a record that was intentionally left untouched.
func Skipped(id, name, reason string) Outcome {
	return Outcome{RecordID: id, Name: name, Kind: OutcomeSkipped, Reason: reason}
}

// Failed reports a record whose processing returned an error.
func Failed(id, name string, err error) Outcome {
	o := Outcome{RecordID: id, Name: name, Kind: OutcomeFailed}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// Succeeded reports whether the outcome wrote to the destination.
func (o Outcome) Succeeded() bool {
	switch o.Kind {
	case OutcomeCreated, OutcomeUpdated, OutcomeEnriched:
		return true
	default:
		return false
	}
}

// Summary aggregates outcomes for a whole run.
type Summary struct {
	Total     int `json:"total" yaml:"total"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Created   int `json:"created" yaml:"created"`
	Updated   int `json:"updated" yaml:"updated"`
	Enriched  int `json:"enriched" yaml:"enriched"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`
}

// Add folds one outcome into the summary.
func (s *Summary) Add(o Outcome) {
	s.Total++
	switch o.Kind {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeEnriched:
		s.Enriched++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
	if o.Succeeded() {
		s.Succeeded++
	}
}
