package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/Faultbox/bimview/internal/engine/fragments"
	"github.com/Faultbox/bimview/internal/engine/stats"
	"github.com/Faultbox/bimview/internal/scene"
)

// LoadModel parses buf through the engine, attaches the result to the scene,
// computes statistics and classes, and caches the model under the id the
// engine assigned. Any previously active model is removed first.
//
// onProgress, if non-nil, receives non-decreasing percentages: 0 before the
// engine starts and 100 once the model is cached, before LoadModel returns.
// Loads are serialized; a load waiting for another one fails with
// ErrLoadInProgress if ctx ends first.
func (m *Manager) LoadModel(ctx context.Context, buf []byte, name string, onProgress func(int)) (string, error) {
	name = sanitizeName(name)
	if len(buf) == 0 {
		return "", &ValidationError{Field: "buffer", Err: ErrEmptyBuffer}
	}
	if name == "" {
		return "", &ValidationError{Field: "name", Err: ErrInvalidName}
	}
	if !m.Initialized() {
		return "", &ConfigurationError{Op: "load model", Err: ErrNotInitialized}
	}

	if t := m.cfg.Engine.LoadTimeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	select {
	case m.loadSlot <- struct{}{}:
		defer func() { <-m.loadSlot }()
	case <-ctx.Done():
		return "", &LoadError{Name: name, Stage: StatusIdle, Err: fmt.Errorf("%w: %w", ErrLoadInProgress, ctx.Err())}
	}

	// Dispose may have run while this load waited for the slot.
	m.mu.Lock()
	port := m.port
	active := m.active
	gen := m.generation
	m.mu.Unlock()
	if port == nil {
		return "", &ConfigurationError{Op: "load model", Err: ErrNotInitialized}
	}

	if active != "" {
		m.log.Debug("Evicting active model", zap.String("id", active))
		m.RemoveModel(ctx, active)
	}

	start := m.now()
	rec := &ModelRecord{Name: name, Status: StatusIdle, ByteSize: len(buf)}
	_ = rec.transition(StatusLoading)

	m.mu.Lock()
	m.pending = rec
	m.mu.Unlock()

	prog := newProgress(onProgress, func(pct int) {
		m.mu.Lock()
		rec.Progress = pct
		m.mu.Unlock()
	})
	prog.report(0)

	asset, err := m.engine.Load(ctx, buf, fragments.LoadOptions{
		Name:               name,
		CoordinateToOrigin: m.cfg.Engine.CoordinateToOrigin,
		Progress:           prog.engine,
	})
	if err == nil && asset == nil {
		err = errors.New("engine returned no asset")
	}
	if err == nil && asset.ID == "" {
		err = errors.New("engine returned an asset without id")
	}
	if err != nil {
		return "", m.fail(ctx, rec, start, asset, port, nil, err)
	}

	m.mu.Lock()
	rec.ID = asset.ID
	_ = rec.transition(StatusProcessing)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", m.fail(ctx, rec, start, asset, port, nil, err)
	}

	attached, err := m.attach(port, asset)
	if err != nil {
		return "", m.fail(ctx, rec, start, asset, port, attached, err)
	}

	// Only the attached tree counts; nodes parented elsewhere belong to the caller.
	if m.cfg.Viewer.FixMaterials {
		if fixed := stats.FixMaterialVisibility(attached...); fixed > 0 {
			m.log.Debug("Corrected materials", zap.String("id", asset.ID), zap.Int("fixed", fixed))
		}
	}

	st := stats.CalculateStatistics(attached...)
	st.MemoryUsageMB = stats.BytesToMB(stats.EstimateMemoryUsage(attached...))
	classes := m.classifier.Classify(asset.ID, asset)

	loadedAt := m.now()

	m.mu.Lock()
	if m.generation != gen || !m.initialized {
		m.mu.Unlock()
		m.classifier.Forget(asset.ID)
		return "", m.fail(ctx, rec, start, asset, port, attached, ErrDisposed)
	}
	_ = rec.transition(StatusLoaded)
	rec.LoadedAt = loadedAt
	rec.Duration = loadedAt.Sub(start)
	rec.Statistics = &st
	rec.Progress = 100
	m.models[asset.ID] = &entry{record: *rec, asset: asset, attached: attached, port: port}
	m.active = asset.ID
	m.pending = nil
	count := len(m.models)
	m.mu.Unlock()

	m.metrics.ObserveLoad(true, loadedAt.Sub(start))
	m.metrics.SetActiveModels(count)

	prog.report(100)

	m.log.Info("Model loaded",
		zap.String("model", name),
		zap.String("id", asset.ID),
		zap.Int("bytes", len(buf)),
		zap.Int("meshes", st.MeshCount),
		zap.Int("classes", len(classes)),
		zap.Duration("duration", loadedAt.Sub(start)))
	return asset.ID, nil
}

// attach adds every unparented asset node to the scene. On error the nodes
// attached so far are returned for rollback.
func (m *Manager) attach(port ScenePort, asset *fragments.Asset) ([]*scene.Node, error) {
	nodes := asset.Nodes()
	attached := make([]*scene.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Parent() != nil {
			continue
		}
		if err := port.Attach(n); err != nil {
			return attached, fmt.Errorf("attaching %q: %w", n.Name, err)
		}
		n.Visible = true
		n.FrustumCulled = true
		attached = append(attached, n)
	}
	return attached, nil
}

// fail rolls back a load, records the failure, and builds the error returned
// to the caller.
func (m *Manager) fail(ctx context.Context, rec *ModelRecord, start time.Time, asset *fragments.Asset, port ScenePort, attached []*scene.Node, cause error) error {
	m.mu.Lock()
	stage := rec.Status
	rec.Status = StatusFailed
	rec.Error = &RecordError{Message: cause.Error(), Time: m.now()}
	failed := rec.clone()
	if !errors.Is(cause, ErrDisposed) {
		m.lastFailure = &failed
	}
	m.pending = nil
	m.mu.Unlock()

	if asset != nil {
		m.release(context.WithoutCancel(ctx), rec.ID, rec.Name, asset, port, attached)
	}

	m.metrics.ObserveLoad(false, m.now().Sub(start))
	m.log.Error("Model load failed",
		zap.String("model", rec.Name),
		zap.String("stage", stage.String()),
		zap.Error(cause))
	return &LoadError{Name: rec.Name, Stage: stage, Err: cause}
}

// sanitizeName trims whitespace and drops control characters.
func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(name)
}
