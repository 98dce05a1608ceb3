package models

// StageStatus describes how an enrichment stage ended for one article.
type StageStatus string

// Stage statuses.
const (
	// StageOK means the provider answered with a schema-valid result.
	StageOK StageStatus = "ok"
	// StageSkipped means policy decided not to call the provider.
	StageSkipped StageStatus = "skipped"
	// StageFailed means the call was made and its failure was absorbed.
	StageFailed StageStatus = "failed"
)

// StageResult carries the outcome of one stage. Value is non-nil only
// when Status is StageOK; Err explains skips and failures.
type StageResult[T any] struct {
	Value  *T
	Err    error
	Status StageStatus
}

// OK wraps a successful value.
func OK[T any](v T) StageResult[T] {
	return StageResult[T]{Value: &v, Status: StageOK}
}

// Skipped records a policy skip.
func Skipped[T any](reason error) StageResult[T] {
	return StageResult[T]{Status: StageSkipped, Err: reason}
}

// Failed records a recovered failure.
func Failed[T any](err error) StageResult[T] {
	return StageResult[T]{Status: StageFailed, Err: err}
}

// Present reports whether the stage produced a value.
func (r StageResult[T]) Present() bool {
	return r.Status == StageOK && r.Value != nil
}

// Reason returns the error text, or an empty string.
func (r StageResult[T]) Reason() string {
	if r.Err == nil {
		return ""
	}

	return r.Err.Error()
}
