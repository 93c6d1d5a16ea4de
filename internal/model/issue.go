package model

import "fmt"

// IssueKind classifies a recoverable data-quality problem.
type IssueKind string

const (
	// IssueIntegrity covers duplicate records and dangling references. The
	// offending record is dropped.
	IssueIntegrity IssueKind = "integrity"
	// IssueOrdering covers same-date fights and undated events.
	IssueOrdering IssueKind = "ordering"
)

// Issue is one recoverable diagnostic raised during a run.
type Issue struct {
	Kind    IssueKind
	Entity  string // fight or fighter id the issue is about
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Kind, i.Entity, i.Message)
}
