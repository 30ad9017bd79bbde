package domain

import "fmt"

// SourceUnavailableError indicates a data source could not be reached.
// It is fatal: the run aborts before any destination is overwritten.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// CollaboratorError indicates an external processing collaborator reported
// a failure. Fatal for the stage that saw it; no partial recovery.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator %s failed: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// DataQualityError describes a malformed or unexpected field value on a
// single record. Records carrying one are skipped and logged, not fatal.
type DataQualityError struct {
	Stage  string
	Key    string // identifies the offending record, e.g. a group key
	Reason string
}

func (e *DataQualityError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("data quality (%s): %s", e.Stage, e.Reason)
	}
	return fmt.Sprintf("data quality (%s) [%s]: %s", e.Stage, e.Key, e.Reason)
}
