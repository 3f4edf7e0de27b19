// Package classify groups a model's elements by semantic class and controls
// their visibility one class at a time.
package classify

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/bimview/internal/engine/fragments"
	"github.com/Faultbox/bimview/internal/scene"
)

// Well-known class names.
const (
	SpaceClass        = "Space"
	UnclassifiedClass = "Unclassified"
)

// ClassInfo describes one class of a model.
type ClassInfo struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Visible bool   `json:"visible"`
	Color   string `json:"color"`
}

// FilterStats aggregates the current classification.
type FilterStats struct {
	TotalClasses    int `json:"totalClasses"`
	VisibleClasses  int `json:"visibleClasses"`
	HiddenClasses   int `json:"hiddenClasses"`
	TotalElements   int `json:"totalElements"`
	VisibleElements int `json:"visibleElements"`
}

// AssetSource looks up the asset of a loaded model.
type AssetSource interface {
	Asset(id string) (*fragments.Asset, bool)
}

// index is the classification of one model.
type index struct {
	classes map[string]*ClassInfo
	byClass map[string][]*scene.Node
	byElem  map[uint32]string
}

// Classifier holds classification indexes keyed by model id. Visibility
// operations act on the most recently classified model.
type Classifier struct {
	mu sync.Mutex

	source     AssetSource
	extractors []Extractor
	hidden     map[string]bool
	log        *zap.Logger

	indexes  map[string]*index
	current  string
	revision uint64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithHiddenClasses replaces the set of classes hidden after extraction.
func WithHiddenClasses(names ...string) Option {
	return func(c *Classifier) {
		c.hidden = make(map[string]bool, len(names))
		for _, n := range names {
			c.hidden[Canonical(n)] = true
		}
	}
}

// WithExtractors replaces the extractor chain.
func WithExtractors(ex ...Extractor) Option {
	return func(c *Classifier) { c.extractors = ex }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Classifier. source may be nil if only Classify is used.
func New(source AssetSource, opts ...Option) *Classifier {
	c := &Classifier{
		source:     source,
		extractors: DefaultExtractors,
		hidden:     map[string]bool{SpaceClass: true},
		log:        zap.NewNop(),
		indexes:    make(map[string]*index),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExtractClasses classifies the asset of model id. Unknown ids and malformed
// assets yield an empty list.
func (c *Classifier) ExtractClasses(id string) []ClassInfo {
	if c.source == nil {
		return nil
	}
	asset, ok := c.source.Asset(id)
	if !ok || asset == nil {
		return nil
	}
	return c.Classify(id, asset)
}

// Classify builds the index of model id from asset, replacing any previous
// index for id, and applies the default visibility to the element nodes.
func (c *Classifier) Classify(id string, asset *fragments.Asset) (out []ClassInfo) {
	idx, err := c.build(asset)
	if err != nil {
		c.log.Warn("Classification failed", zap.String("id", id), zap.Error(err))
		c.mu.Lock()
		delete(c.indexes, id)
		if c.current == id {
			c.current = ""
		}
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.indexes[id] = idx
	c.current = id
	c.revision++
	for name, info := range idx.classes {
		applyVisibility(idx.byClass[name], info.Visible)
	}

	c.log.Debug("Classified model", zap.String("id", id), zap.Int("classes", len(idx.classes)))
	return sortedClasses(idx)
}

func (c *Classifier) build(asset *fragments.Asset) (idx *index, err error) {
	defer func() {
		if r := recover(); r != nil {
			idx, err = nil, fmt.Errorf("malformed asset: %v", r)
		}
	}()
	if asset == nil {
		return nil, fmt.Errorf("nil asset")
	}

	idx = &index{
		classes: make(map[string]*ClassInfo),
		byClass: make(map[string][]*scene.Node),
		byElem:  make(map[uint32]string, len(asset.Elements)),
	}
	for _, el := range asset.Elements {
		if el == nil {
			continue
		}
		name := Resolve(el.Meta, c.extractors)
		info, ok := idx.classes[name]
		if !ok {
			info = &ClassInfo{
				Name:    name,
				Visible: !c.hidden[name],
				Color:   ColorFor(name),
			}
			idx.classes[name] = info
		}
		info.Count++
		idx.byElem[el.ID] = name
		if el.Node != nil {
			idx.byClass[name] = append(idx.byClass[name], el.Node)
		}
	}
	return idx, nil
}

// ToggleClassVisibility flips the visibility of a class of the current model.
func (c *Classifier) ToggleClassVisibility(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexes[c.current]
	if idx == nil {
		return
	}
	if info, ok := idx.classes[name]; ok {
		c.setLocked(idx, info, !info.Visible)
	}
}

// SetClassVisibility sets the visibility of a class of the current model.
// Nothing changes when the class already has the requested state.
func (c *Classifier) SetClassVisibility(name string, visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexes[c.current]
	if idx == nil {
		return
	}
	if info, ok := idx.classes[name]; ok && info.Visible != visible {
		c.setLocked(idx, info, visible)
	}
}

// ShowAllClasses makes every class of the current model visible.
func (c *Classifier) ShowAllClasses() { c.setAll(true) }

// HideAllClasses hides every class of the current model.
func (c *Classifier) HideAllClasses() { c.setAll(false) }

func (c *Classifier) setAll(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexes[c.current]
	if idx == nil {
		return
	}
	for _, info := range idx.classes {
		if info.Visible != visible {
			c.setLocked(idx, info, visible)
		}
	}
}

func (c *Classifier) setLocked(idx *index, info *ClassInfo, visible bool) {
	info.Visible = visible
	applyVisibility(idx.byClass[info.Name], visible)
	c.revision++
}

func applyVisibility(nodes []*scene.Node, visible bool) {
	for _, n := range nodes {
		n.Visible = visible
	}
}

// FilterStats aggregates the current model's classification. All counts are
// zero when nothing is classified.
func (c *Classifier) FilterStats() FilterStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fs FilterStats
	idx := c.indexes[c.current]
	if idx == nil {
		return fs
	}
	for _, info := range idx.classes {
		fs.TotalClasses++
		fs.TotalElements += info.Count
		if info.Visible {
			fs.VisibleClasses++
			fs.VisibleElements += info.Count
		} else {
			fs.HiddenClasses++
		}
	}
	return fs
}

// Classes returns a copy of the current model's classes, sorted by
// descending count then name.
func (c *Classifier) Classes() []ClassInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexes[c.current]
	if idx == nil {
		return nil
	}
	return sortedClasses(idx)
}

// ClassOf returns the class of an element of the current model.
func (c *Classifier) ClassOf(elementID uint32) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classOfLocked(c.current, elementID)
}

// ElementClass returns the class of an element of any classified model.
func (c *Classifier) ElementClass(id string, elementID uint32) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classOfLocked(id, elementID)
}

func (c *Classifier) classOfLocked(id string, elementID uint32) (string, bool) {
	idx := c.indexes[id]
	if idx == nil {
		return "", false
	}
	name, ok := idx.byElem[elementID]
	return name, ok
}

// Current returns the id of the model visibility operations act on.
func (c *Classifier) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Revision increases on every change to a stored index.
func (c *Classifier) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

// Forget drops the index of model id.
func (c *Classifier) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.indexes[id]; !ok {
		return
	}
	delete(c.indexes, id)
	if c.current == id {
		c.current = ""
	}
	c.revision++
}

// Clear drops every index.
func (c *Classifier) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.indexes) == 0 && c.current == "" {
		return
	}
	c.indexes = make(map[string]*index)
	c.current = ""
	c.revision++
}

func sortedClasses(idx *index) []ClassInfo {
	out := make([]ClassInfo, 0, len(idx.classes))
	for _, info := range idx.classes {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
