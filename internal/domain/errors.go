package domain

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies ingestion failures.
type FetchErrorKind string

const (
	FetchAccessForbidden   FetchErrorKind = "ACCESS_FORBIDDEN"
	FetchHTTPError         FetchErrorKind = "HTTP_ERROR"
	FetchExtractionTooThin FetchErrorKind = "EXTRACTION_TOO_THIN"
	FetchConnectionFailed  FetchErrorKind = "CONNECTION_FAILED"
)

// FetchError is the typed failure returned by the ingestor.
type FetchError struct {
	Kind    FetchErrorKind
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrorKind is the pipeline-level error taxonomy.
type ErrorKind string

const (
	KindFetchFailure        ErrorKind = "FETCH_FAILURE"
	KindInsufficientContent ErrorKind = "INSUFFICIENT_CONTENT"
	KindAnalysisFailure     ErrorKind = "ANALYSIS_FAILURE"
	KindRemediationFailure  ErrorKind = "REMEDIATION_FAILURE"
	KindPersistenceFailure  ErrorKind = "PERSISTENCE_FAILURE"
)

// AuditError is returned by a pipeline run. For PERSISTENCE_FAILURE the run
// still hands back the computed record.
type AuditError struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *AuditError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *AuditError) Unwrap() error { return e.Err }

// KindOf extracts the audit error kind, or "" for foreign errors.
func KindOf(err error) ErrorKind {
	var auditErr *AuditError
	if errors.As(err, &auditErr) {
		return auditErr.Kind
	}
	return ""
}
