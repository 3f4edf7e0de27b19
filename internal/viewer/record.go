package viewer

import (
	"fmt"
	"time"

	"github.com/Faultbox/bimview/internal/engine/stats"
)

// Status is the lifecycle state of a model.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusProcessing
	StatusLoaded
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusProcessing:
		return "processing"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CanTransition reports whether the lifecycle allows moving from s to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusIdle:
		return next == StatusLoading
	case StatusLoading:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusLoaded || next == StatusFailed
	default:
		return false
	}
}

// RecordError describes why a load failed.
type RecordError struct {
	Message string    `json:"message"`
	Time    time.Time `json:"timestamp"`
}

// ModelRecord describes one loaded or loading model. Records handed out by
// the Manager are copies.
type ModelRecord struct {
	ID         string            `json:"id,omitempty"` // Assigned by the engine when the load returns
	Name       string            `json:"name"`
	Status     Status            `json:"status"`
	Progress   int               `json:"progress"`
	ByteSize   int               `json:"byteSize"`
	LoadedAt   time.Time         `json:"loadedAt,omitempty"`
	Duration   time.Duration     `json:"duration,omitempty"`
	Error      *RecordError      `json:"error,omitempty"`
	Statistics *stats.Statistics `json:"statistics,omitempty"`
}

func (r *ModelRecord) transition(next Status) error {
	if !r.Status.CanTransition(next) {
		return fmt.Errorf("model %q: invalid transition %s -> %s", r.Name, r.Status, next)
	}
	r.Status = next
	return nil
}

func (r ModelRecord) clone() ModelRecord {
	out := r
	if r.Error != nil {
		e := *r.Error
		out.Error = &e
	}
	if r.Statistics != nil {
		st := *r.Statistics
		if st.BoundingBox != nil {
			box := *st.BoundingBox
			st.BoundingBox = &box
		}
		out.Statistics = &st
	}
	return out
}
