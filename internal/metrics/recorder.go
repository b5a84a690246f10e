package metrics

import "time"

// ResultLabel enumerates stage and entry result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultRejected ResultLabel = "rejected"
	ResultSkipped  ResultLabel = "skipped"
)

// BuildOutcomeLabel is the final status of one build pass.
type BuildOutcomeLabel string

const (
	BuildSuccess BuildOutcomeLabel = "success"
	// BuildWarning means at least one entry or document was reported but the build finished.
	BuildWarning  BuildOutcomeLabel = "warning"
	BuildFailed   BuildOutcomeLabel = "failed"
	BuildCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for build, entry and stage metrics.
// Implementations must be safe for concurrent use: documents run in parallel.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	IncEntryResult(collection string, result ResultLabel)
	ObserveDocumentDuration(collection string, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)    {}
func (NoopRecorder) IncStageResult(string, ResultLabel)            {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)            {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)             {}
func (NoopRecorder) IncEntryResult(string, ResultLabel)            {}
func (NoopRecorder) ObserveDocumentDuration(string, time.Duration) {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
