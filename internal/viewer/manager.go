// Package viewer manages the lifecycle of building models: loading them
// through a geometry engine, attaching them to a scene, deriving statistics
// and classes, exporting, and tearing them down again.
package viewer

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/bimview/internal/config"
	"github.com/Faultbox/bimview/internal/engine/classify"
	"github.com/Faultbox/bimview/internal/engine/fragments"
	"github.com/Faultbox/bimview/internal/engine/stats"
	"github.com/Faultbox/bimview/internal/metrics"
	"github.com/Faultbox/bimview/internal/scene"
	"github.com/Faultbox/bimview/pkg/math"
)

// ScenePort is the live scene models are attached to. Membership of a node
// is visible through scene.Node.Parent.
type ScenePort interface {
	Attach(node *scene.Node) error
	Detach(node *scene.Node) error
	ComputeBounds(root *scene.Node) (math.Box3, bool)
}

// Viewpoint is the camera used for framing and culling queries.
type Viewpoint interface {
	Frustum(aspect float32) math.Frustum
	FitToBox(box math.Box3)
}

// Options configures a Manager.
type Options struct {
	Engine  fragments.Engine
	Logger  *zap.Logger
	Metrics *metrics.Collector // May be nil
	Config  *config.Config     // Defaults when nil
	Aspect  float32            // Viewport aspect ratio for culling, 16:9 when zero
	Now     func() time.Time
}

// entry is a cached model and the scene nodes the manager attached for it.
// port is the scene the nodes were attached to.
type entry struct {
	record   ModelRecord
	asset    *fragments.Asset
	attached []*scene.Node
	port     ScenePort
}

// Manager owns the model cache. At most one model is active at a time;
// loading a new model evicts the previous one first. Loads are serialized.
type Manager struct {
	engine     fragments.Engine
	log        *zap.Logger
	metrics    *metrics.Collector
	cfg        config.Config
	aspect     float32
	now        func() time.Time
	classifier *classify.Classifier

	initMu   sync.Mutex
	loadSlot chan struct{}

	mu          sync.Mutex
	port        ScenePort
	viewpoint   Viewpoint
	initialized bool
	generation  uint64 // bumped by every Dispose
	models      map[string]*entry
	active      string
	pending     *ModelRecord
	lastFailure *ModelRecord
}

// NewManager creates a Manager. Call Initialize before loading models.
func NewManager(opts Options) (*Manager, error) {
	if opts.Engine == nil {
		return nil, &ConfigurationError{Op: "new manager", Err: ErrMissingEngine}
	}
	cfg := config.Default()
	if opts.Config != nil {
		cfg = opts.Config
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	aspect := opts.Aspect
	if aspect <= 0 {
		aspect = 16.0 / 9.0
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := &Manager{
		engine:   opts.Engine,
		log:      log,
		metrics:  opts.Metrics,
		cfg:      *cfg,
		aspect:   aspect,
		now:      now,
		loadSlot: make(chan struct{}, 1),
		models:   make(map[string]*entry),
	}
	m.classifier = classify.New(m,
		classify.WithHiddenClasses(cfg.Viewer.HiddenClasses...),
		classify.WithLogger(log.Named("classify")),
	)
	return m, nil
}

// Initialize connects the engine and binds the scene and viewpoint.
// Repeated calls after success are no-ops; concurrent calls wait for the
// first one to finish.
func (m *Manager) Initialize(ctx context.Context, port ScenePort, vp Viewpoint) error {
	if port == nil {
		return &ConfigurationError{Op: "initialize", Err: ErrMissingScene}
	}
	if vp == nil {
		return &ConfigurationError{Op: "initialize", Err: ErrMissingCamera}
	}

	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.Initialized() {
		return nil
	}

	if !m.engine.Initialized() {
		if err := m.engine.Init(m.cfg.Engine.WorkerEndpoint); err != nil {
			return &ConfigurationError{Op: "initialize", Err: err}
		}
	}
	if err := m.engine.Setup(ctx, fragments.SetupConfig{WasmPath: m.cfg.Engine.WasmPath}); err != nil {
		return &ConfigurationError{Op: "initialize", Err: err}
	}

	m.mu.Lock()
	m.port = port
	m.viewpoint = vp
	m.initialized = true
	m.mu.Unlock()

	m.log.Info("Viewer initialized", zap.String("endpoint", m.cfg.Engine.WorkerEndpoint))
	return nil
}

// Initialized reports whether Initialize has succeeded since the last Dispose.
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Classifier returns the classifier holding the class indexes of loaded models.
func (m *Manager) Classifier() *classify.Classifier {
	return m.classifier
}

// Asset returns the asset of a loaded model. The asset must be treated as read-only.
func (m *Manager) Asset(id string) (*fragments.Asset, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.models[id]
	if !ok {
		return nil, false
	}
	return e.asset, true
}

// Model returns a copy of the record of a loaded model.
func (m *Manager) Model(id string) (ModelRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.models[id]
	if !ok {
		return ModelRecord{}, false
	}
	return e.record.clone(), true
}

// Models returns copies of every cached record, ordered by id.
func (m *Manager) Models() []ModelRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ModelRecord, 0, len(m.models))
	for _, e := range m.models {
		out = append(out, e.record.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveID returns the id of the model attached to the scene, or "".
func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Pending returns the record of the load in flight, if any.
func (m *Manager) Pending() (ModelRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return ModelRecord{}, false
	}
	return m.pending.clone(), true
}

// LastFailure returns the record of the most recent failed load. Failed
// records are never cached.
func (m *Manager) LastFailure() (ModelRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastFailure == nil {
		return ModelRecord{}, false
	}
	return m.lastFailure.clone(), true
}

// ModelStatistics returns the statistics of a model, or nil if the model is
// unknown or nothing of it is attached.
func (m *Manager) ModelStatistics(id string) *stats.Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.models[id]
	if !ok || len(e.attached) == 0 || e.record.Statistics == nil {
		return nil
	}
	return e.record.clone().Statistics
}

// BindViewpoint replaces the viewpoint used by later culling and framing calls.
func (m *Manager) BindViewpoint(vp Viewpoint) {
	if vp == nil {
		return
	}
	m.mu.Lock()
	m.viewpoint = vp
	m.mu.Unlock()
}

// Dispose removes every model, closes the engine, and returns the manager to
// its state before Initialize. It waits for an in-flight load unless ctx ends
// first. Dispose is idempotent.
func (m *Manager) Dispose(ctx context.Context) {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	select {
	case m.loadSlot <- struct{}{}:
		defer func() { <-m.loadSlot }()
	case <-ctx.Done():
		m.log.Warn("Disposing while a load is in flight", zap.Error(ctx.Err()))
	}

	m.mu.Lock()
	ids := make([]string, 0, len(m.models))
	for id := range m.models {
		ids = append(ids, id)
	}
	wasInitialized := m.initialized
	m.generation++
	m.mu.Unlock()

	// A failed Initialize can leave the engine running.
	if !wasInitialized && len(ids) == 0 && !m.engine.Initialized() {
		return
	}

	var g errgroup.Group
	if n := m.cfg.Viewer.DisposeConcurrency; n > 0 {
		g.SetLimit(n)
	}
	for _, id := range ids {
		g.Go(func() error {
			m.RemoveModel(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	if err := m.engine.Close(); err != nil {
		m.warn(&DisposalWarning{Op: "close", Err: err})
	}
	m.classifier.Clear()

	m.mu.Lock()
	m.port = nil
	m.viewpoint = nil
	m.initialized = false
	m.active = ""
	m.pending = nil
	m.lastFailure = nil
	m.mu.Unlock()
	m.metrics.SetActiveModels(0)

	m.log.Info("Viewer disposed", zap.Int("models", len(ids)))
}

func (m *Manager) warn(w *DisposalWarning) {
	m.metrics.AddDisposalWarnings(1)
	m.log.Warn("Disposal failed",
		zap.String("id", w.ID),
		zap.String("model", w.Name),
		zap.String("op", w.Op),
		zap.Error(w))
}
