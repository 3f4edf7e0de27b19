package viewer

import (
	"context"
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// ExportResult is the outcome of ExportBinary. Failures are reported in Err,
// never returned.
type ExportResult struct {
	Success    bool
	Data       []byte
	ByteLength int
	Duration   time.Duration // Time spent in the engine only
	Err        error
}

// ExportBinary serializes a loaded model through the engine.
func (m *Manager) ExportBinary(ctx context.Context, id string) ExportResult {
	m.mu.Lock()
	e, ok := m.models[id]
	m.mu.Unlock()
	if !ok {
		m.metrics.ObserveExport(false)
		return ExportResult{Err: &ExportError{ID: id, Err: ErrModelNotFound}}
	}
	name := e.record.Name

	start := time.Now()
	data, err := m.engine.Buffer(ctx, e.asset)
	elapsed := time.Since(start)

	if err == nil && len(data) == 0 {
		err = errors.New("engine returned an empty buffer")
	}
	if err != nil {
		m.metrics.ObserveExport(false)
		m.log.Error("Model export failed", zap.String("model", name), zap.String("id", id), zap.Error(err))
		return ExportResult{Duration: elapsed, Err: &ExportError{ID: id, Name: name, Err: err}}
	}

	m.metrics.ObserveExport(true)
	m.log.Info("Model exported",
		zap.String("model", name),
		zap.String("id", id),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
		zap.Duration("duration", elapsed))
	return ExportResult{
		Success:    true,
		Data:       data,
		ByteLength: len(data),
		Duration:   elapsed,
	}
}
