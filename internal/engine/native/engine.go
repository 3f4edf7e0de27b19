// Package native implements the fragments.Engine contract in-process on top
// of the BIMF container format. Parsing and encoding run on a dedicated worker
// goroutine that is started by Init and stopped by Close.
package native

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/bimview/internal/engine/fragments"
	"github.com/Faultbox/bimview/pkg/formats"
)

// Engine errors.
var (
	ErrNotInitialized      = errors.New("native engine: not initialized")
	ErrClosed              = errors.New("native engine: closed")
	ErrUnsupportedEndpoint = errors.New("native engine: unsupported worker endpoint")
	ErrForeignAsset        = errors.New("native engine: asset not owned by this engine")
)

// EndpointScheme is the only worker endpoint scheme the engine accepts.
const EndpointScheme = "inproc"

// Engine is an in-process geometry engine.
type Engine struct {
	log   *zap.Logger
	newID func() string

	mu       sync.Mutex
	endpoint string
	setup    fragments.SetupConfig
	jobs     chan func()
	quit     chan struct{}
	wg       sync.WaitGroup
	assets   map[string]*formats.BIM
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithIDGenerator replaces the uuid-based asset id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// New creates an engine. Call Init before use.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:    zap.NewNop(),
		newID:  uuid.NewString,
		assets: make(map[string]*formats.BIM),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init validates endpoint and starts the worker. Calling Init on a running
// engine is a no-op.
func (e *Engine) Init(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedEndpoint, err)
	}
	if u.Scheme != EndpointScheme {
		return fmt.Errorf("%w: %q", ErrUnsupportedEndpoint, endpoint)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.jobs != nil {
		return nil
	}

	e.endpoint = endpoint
	e.jobs = make(chan func())
	e.quit = make(chan struct{})
	e.wg.Add(1)
	go e.worker(e.jobs, e.quit)

	e.log.Info("Geometry worker started", zap.String("endpoint", endpoint))
	return nil
}

func (e *Engine) worker(jobs <-chan func(), quit <-chan struct{}) {
	defer e.wg.Done()
	for {
		select {
		case job := <-jobs:
			job()
		case <-quit:
			return
		}
	}
}

// Initialized reports whether the worker is running.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.jobs != nil
}

// Setup records engine settings. A non-empty WasmPath must exist on disk.
func (e *Engine) Setup(ctx context.Context, cfg fragments.SetupConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.Initialized() {
		return ErrNotInitialized
	}
	if cfg.WasmPath != "" {
		if _, err := os.Stat(cfg.WasmPath); err != nil {
			return fmt.Errorf("engine runtime: %w", err)
		}
	}

	e.mu.Lock()
	e.setup = cfg
	e.mu.Unlock()
	return nil
}

// Load parses buf into an asset.
func (e *Engine) Load(ctx context.Context, buf []byte, opts fragments.LoadOptions) (*fragments.Asset, error) {
	progress := opts.Progress
	if progress == nil {
		progress = func(int) {}
	}
	start := time.Now()

	progress(0)

	var bim *formats.BIM
	err := e.run(ctx, func() error {
		var err error
		bim, err = formats.ParseBIM(buf)
		return err
	})
	if err != nil {
		return nil, err
	}
	progress(50)

	asset := buildAsset(bim, opts)
	asset.ID = e.newID()
	asset.Payload = bim

	e.mu.Lock()
	e.assets[asset.ID] = bim
	e.mu.Unlock()

	progress(100)

	e.log.Debug("Parsed model",
		zap.String("model", opts.Name),
		zap.String("id", asset.ID),
		zap.Int("elements", len(bim.Elements)),
		zap.Int("vertices", bim.TotalVertexCount()),
		zap.Duration("duration", time.Since(start)))
	return asset, nil
}

// Buffer serializes asset back to BIMF.
func (e *Engine) Buffer(ctx context.Context, asset *fragments.Asset) ([]byte, error) {
	bim, err := e.owned(asset)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = e.run(ctx, func() error {
		var err error
		data, err = bim.Encode()
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Dispose forgets the source data of asset.
func (e *Engine) Dispose(ctx context.Context, asset *fragments.Asset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := e.owned(asset); err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.assets, asset.ID)
	e.mu.Unlock()
	return nil
}

// Close stops the worker and drops every asset. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.jobs == nil {
		e.mu.Unlock()
		return nil
	}
	close(e.quit)
	e.jobs = nil
	e.quit = nil
	e.assets = make(map[string]*formats.BIM)
	endpoint := e.endpoint
	e.mu.Unlock()

	e.wg.Wait()
	e.log.Info("Geometry worker stopped", zap.String("endpoint", endpoint))
	return nil
}

// AssetCount returns the number of assets the engine still tracks.
func (e *Engine) AssetCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.assets)
}

func (e *Engine) owned(asset *fragments.Asset) (*formats.BIM, error) {
	if asset == nil {
		return nil, ErrForeignAsset
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	bim, ok := e.assets[asset.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrForeignAsset, asset.ID)
	}
	return bim, nil
}

// run executes fn on the worker and waits for it or for ctx.
func (e *Engine) run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	jobs, quit := e.jobs, e.quit
	e.mu.Unlock()
	if jobs == nil {
		return ErrNotInitialized
	}

	done := make(chan error, 1)
	job := func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("worker panic: %v", r)
			}
		}()
		done <- fn()
	}

	select {
	case jobs <- job:
	case <-quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
