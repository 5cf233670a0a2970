package publish

import (
	"slices"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/cwbriones/scientist/experiment"
)

// Status classifies a candidate observation within its result.
type Status string

const (
	// StatusMatched marks a candidate equivalent to the control.
	StatusMatched Status = "matched"
	// StatusMismatched marks a candidate that deviated from the control.
	StatusMismatched Status = "mismatched"
	// StatusIgnored marks a deviating candidate accepted by an ignore
	// predicate.
	StatusIgnored Status = "ignored"
)

// Record is the flattened, JSON-serializable form of a Result used by sinks
// that leave the process. It carries cleaned values only and renders
// failures to strings, as the raw values and error chains of a run are not
// portable.
type Record struct {
	ID          string              `json:"id"`
	ResultID    string              `json:"resultId"`
	Experiment  string              `json:"experiment"`
	Context     map[string]any      `json:"context,omitempty"`
	Matched     bool                `json:"matched"`
	PublishedAt time.Time           `json:"publishedAt"`
	Control     ObservationRecord   `json:"control"`
	Candidates  []ObservationRecord `json:"candidates"`
}

// ObservationRecord is the serialization form of a single observation.
// Status is empty for the control.
type ObservationRecord struct {
	Name       string  `json:"name"`
	Status     Status  `json:"status,omitempty"`
	Value      any     `json:"value,omitempty"`
	Failure    string  `json:"failure,omitempty"`
	DurationMS float64 `json:"durationMs"`
}

// NewRecord flattens a result into its serialization form. The record gets
// a fresh ID distinct from the result's, so republishing the same result
// produces distinguishable records.
func NewRecord[T any](result *experiment.Result[T]) Record {
	rec := Record{
		ID:          newRecordID(),
		ResultID:    result.ID,
		Experiment:  result.Experiment.Name(),
		Context:     result.Experiment.Context(),
		Matched:     result.Matched(),
		PublishedAt: time.Now().UTC(),
		Control:     newObservationRecord(result.Control, ""),
		Candidates:  make([]ObservationRecord, 0, len(result.Candidates)),
	}
	for _, obs := range result.Candidates {
		rec.Candidates = append(rec.Candidates, newObservationRecord(obs, candidateStatus(result, obs)))
	}

	return rec
}

func newObservationRecord[T any](obs *experiment.Observation[T], status Status) ObservationRecord {
	rec := ObservationRecord{
		Name:       obs.Name,
		Status:     status,
		Value:      obs.CleanedValue,
		DurationMS: float64(obs.Duration) / float64(time.Millisecond),
	}
	if obs.Failed() {
		rec.Failure = obs.Failure.String()
	}

	return rec
}

func candidateStatus[T any](result *experiment.Result[T], obs *experiment.Observation[T]) Status {
	switch {
	case slices.Contains(result.Mismatched, obs):
		return StatusMismatched
	case slices.Contains(result.Ignored, obs):
		return StatusIgnored
	default:
		return StatusMatched
	}
}

// newRecordID generates a new record ID, prefixed to identify the type of
// ID at a glance when records from several systems land in one store.
func newRecordID() string {
	return "rec_" + ksuid.New().String()
}
