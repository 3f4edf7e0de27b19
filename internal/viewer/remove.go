package viewer

import (
	"context"

	"go.uber.org/zap"

	"github.com/Faultbox/bimview/internal/engine/fragments"
	"github.com/Faultbox/bimview/internal/engine/stats"
	"github.com/Faultbox/bimview/internal/scene"
)

// RemoveModel evicts a model from the cache, then detaches and disposes its
// resources. Cleanup failures are logged as warnings and never keep the
// model cached. It returns false if id is unknown.
func (m *Manager) RemoveModel(ctx context.Context, id string) bool {
	m.mu.Lock()
	e, ok := m.models[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.models, id)
	if m.active == id {
		m.active = ""
	}
	count := len(m.models)
	m.mu.Unlock()

	m.classifier.Forget(id)
	warnings := m.release(ctx, id, e.record.Name, e.asset, e.port, e.attached)

	m.metrics.IncRemovals()
	m.metrics.SetActiveModels(count)
	m.log.Info("Model removed",
		zap.String("model", e.record.Name),
		zap.String("id", id),
		zap.Int("warnings", warnings))
	return true
}

// release detaches the attached nodes from port, disposes the asset tree and
// lets the engine drop its side of the asset. It returns the number of failed steps.
func (m *Manager) release(ctx context.Context, id, name string, asset *fragments.Asset, port ScenePort, attached []*scene.Node) int {
	warnings := 0

	for _, n := range attached {
		if port == nil {
			break
		}
		if err := port.Detach(n); err != nil {
			m.warn(&DisposalWarning{ID: id, Name: name, Op: "detach", Err: err})
			warnings++
		}
	}

	report := stats.DisposeObject(asset.Nodes()...)
	for _, err := range report.Errors() {
		m.warn(&DisposalWarning{ID: id, Name: name, Op: "dispose", Err: err})
		warnings++
	}

	if d, ok := m.engine.(fragments.AssetDisposer); ok {
		if err := d.Dispose(ctx, asset); err != nil {
			m.warn(&DisposalWarning{ID: id, Name: name, Op: "engine", Err: err})
			warnings++
		}
	}

	m.log.Debug("Released model resources",
		zap.String("id", id),
		zap.Int("nodes", report.Nodes),
		zap.Int("geometries", report.Geometries),
		zap.Int("materials", report.Materials))
	return warnings
}
