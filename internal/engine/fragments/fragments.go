// Package fragments defines the contract between the viewer core and the
// geometry engine that turns a source buffer into a renderable asset.
package fragments

import (
	"context"

	"github.com/Faultbox/bimview/internal/scene"
)

// SetupConfig is forwarded to Engine.Setup.
type SetupConfig struct {
	WasmPath string
	// Extra carries engine-specific settings.
	Extra map[string]string
}

// LoadOptions configures a single Engine.Load call.
type LoadOptions struct {
	Name string
	// CoordinateToOrigin centers the model horizontally on the origin.
	CoordinateToOrigin bool
	// Progress receives percentages in [0,100]. May be nil.
	Progress func(pct int)
}

// Engine parses source buffers into assets and serializes them back.
type Engine interface {
	// Init connects to the worker at endpoint. After a nil return Initialized reports true.
	Init(endpoint string) error
	Initialized() bool
	Setup(ctx context.Context, cfg SetupConfig) error
	Load(ctx context.Context, buf []byte, opts LoadOptions) (*Asset, error)
	Buffer(ctx context.Context, asset *Asset) ([]byte, error)
	// Close releases the engine and its worker.
	Close() error
}

// AssetDisposer is implemented by engines that hold per-asset resources.
type AssetDisposer interface {
	Dispose(ctx context.Context, asset *Asset) error
}

// ElementMeta is the loosely-structured metadata an element carries.
// Any field may be empty.
type ElementMeta struct {
	ClassTag string // Explicit class, e.g. "IFCWALL" or "Wall"
	Name     string // Display name, e.g. "IfcDoor:Single-Flush"
	GlobalID string // Stable identifier, sometimes prefixed with the class
	TypeCode uint32 // Numeric entity type (0 if unknown)
}

// Element is one semantic part of an asset and its drawable node.
type Element struct {
	ID   uint32
	Meta ElementMeta
	Node *scene.Node
}

// Asset is the renderable result of a load. Element nodes are returned
// unparented so the caller can attach them to a scene one by one; Root, if
// set, groups auxiliary nodes such as lights and helpers. The engine owns Payload.
type Asset struct {
	ID       string
	Name     string
	Root     *scene.Node
	Elements []*Element
	Payload  any
}

// Nodes returns every top-level node of the asset: element nodes first, then Root.
func (a *Asset) Nodes() []*scene.Node {
	if a == nil {
		return nil
	}
	out := make([]*scene.Node, 0, len(a.Elements)+1)
	for _, el := range a.Elements {
		if el != nil && el.Node != nil {
			out = append(out, el.Node)
		}
	}
	if a.Root != nil {
		out = append(out, a.Root)
	}
	return out
}

// ElementByID returns the element with the given id, or nil.
func (a *Asset) ElementByID(id uint32) *Element {
	if a == nil {
		return nil
	}
	for _, el := range a.Elements {
		if el != nil && el.ID == id {
			return el
		}
	}
	return nil
}
