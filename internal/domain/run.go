package domain

import "time"

// RunStatus enumerates terminal and in-flight states of an ingestion run.
type RunStatus string

const (
	RunStarted RunStatus = "STARTED"
	RunSuccess RunStatus = "SUCCESS"
	RunFailure RunStatus = "FAILURE"
)

// IngestionRun is the immutable audit record of one pipeline execution.
// It is created STARTED and mutated exactly once to a terminal status; a
// row stuck in STARTED marks a crashed run and is flagged by external
// staleness monitoring, never repaired here.
type IngestionRun struct {
	ID                int64
	Source            string
	SiteKey           string
	Status            RunStatus
	StartedAt         time.Time
	FinishedAt        *time.Time
	Error             string
	ProductsProcessed int
	DealsProcessed    int
	RecordsDropped    int
	UnresolvedRefs    int
	Metadata          map[string]string
}

// Skipped reports whether the run short-circuited on a closed gate.
func (r IngestionRun) Skipped() bool {
	return r.Metadata["skipped"] == "true"
}
