package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Faultbox/bimview/internal/engine/fragments"
	"github.com/Faultbox/bimview/internal/scene"
)

// fakeEngine hands out scripted assets.
type fakeEngine struct {
	mu sync.Mutex

	initErr    error
	setupErr   error
	loadErr    error
	bufferErr  error
	disposeErr error

	// ids are assigned in order; "m<n>" once exhausted.
	ids []string
	// build returns the asset for a load. Defaults to three small meshes.
	build func(name string) *fragments.Asset
	// progress is reported during Load.
	progress []int
	// block, when set, makes Load wait for it to close or for ctx.
	block   chan struct{}
	started chan struct{}

	initialized bool
	initCalls   int
	setupCalls  int
	loads       int
	closed      int
	disposed    []string
}

func (f *fakeEngine) Init(endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	if f.initErr != nil {
		return f.initErr
	}
	f.initialized = true
	return nil
}

func (f *fakeEngine) Initialized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initialized
}

func (f *fakeEngine) Setup(ctx context.Context, cfg fragments.SetupConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setupCalls++
	return f.setupErr
}

func (f *fakeEngine) Load(ctx context.Context, buf []byte, opts fragments.LoadOptions) (*fragments.Asset, error) {
	f.mu.Lock()
	f.loads++
	n := f.loads
	block, started := f.block, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	for _, p := range f.progress {
		opts.Progress(p)
	}
	if f.loadErr != nil {
		return nil, f.loadErr
	}

	build := f.build
	if build == nil {
		build = func(string) *fragments.Asset { return meshAsset(10, 20, 30) }
	}
	asset := build(opts.Name)

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ids) > 0 {
		asset.ID, f.ids = f.ids[0], f.ids[1:]
	} else {
		asset.ID = fmt.Sprintf("m%d", n)
	}
	asset.Name = opts.Name
	return asset, nil
}

func (f *fakeEngine) Buffer(ctx context.Context, asset *fragments.Asset) ([]byte, error) {
	if f.bufferErr != nil {
		return nil, f.bufferErr
	}
	return []byte("BIMF:" + asset.ID), nil
}

func (f *fakeEngine) Dispose(ctx context.Context, asset *fragments.Asset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = append(f.disposed, asset.ID)
	return f.disposeErr
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	f.initialized = false
	return nil
}

func (f *fakeEngine) disposedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.disposed...)
}

// failingPort wraps a graph and fails the n-th attach.
type failingPort struct {
	*scene.Graph
	failAttachAt int
	detachErr    error
	attaches     int
}

var errSceneFull = errors.New("scene rejected node")

func (p *failingPort) Attach(n *scene.Node) error {
	p.attaches++
	if p.attaches == p.failAttachAt {
		return errSceneFull
	}
	return p.Graph.Attach(n)
}

func (p *failingPort) Detach(n *scene.Node) error {
	if err := p.Graph.Detach(n); err != nil {
		return err
	}
	return p.detachErr
}

// meshAsset builds one element per vertex count, each a flat strip of
// triangles along X.
func meshAsset(vertexCounts ...int) *fragments.Asset {
	asset := &fragments.Asset{}
	for i, n := range vertexCounts {
		positions := make([]float32, 0, n*3)
		for v := 0; v < n; v++ {
			positions = append(positions, float32(v%3), float32(v%2), 0)
		}
		node := scene.NewMesh(fmt.Sprintf("element-%d", i), scene.NewGeometry(positions, nil), scene.NewMaterial("m"))
		asset.Elements = append(asset.Elements, &fragments.Element{ID: uint32(i + 1), Node: node})
	}
	return asset
}

// taggedAsset builds one small mesh per class tag.
func taggedAsset(tags ...string) *fragments.Asset {
	counts := make([]int, len(tags))
	for i := range counts {
		counts[i] = 3
	}
	asset := meshAsset(counts...)
	for i, tag := range tags {
		asset.Elements[i].Meta.ClassTag = tag
	}
	return asset
}
