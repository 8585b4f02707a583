package domain

import "errors"

// Sentinel errors of the pipeline core. GateClosed is an expected outcome,
// not a failure: callers short-circuit on it instead of marking a run
// FAILURE. Store and upstream errors are fatal for the current run only.
var (
	ErrGateClosed       = errors.New("automation gate closed")
	ErrStoreUnavailable = errors.New("canonical store unavailable")
	ErrUpstreamFetch    = errors.New("upstream fetch failed")
	ErrRunInProgress    = errors.New("ingestion already running for site")
	ErrUnknownSite      = errors.New("unknown site")
)
