package stats

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/bimview/internal/scene"
)

// DisposeReport is the outcome of DisposeObject. Err aggregates every
// failure; nothing is raised.
type DisposeReport struct {
	Nodes      int
	Geometries int
	Materials  int
	Textures   int
	Released   int
	Err        error
}

// Errors returns the individual failures collected in Err.
func (r DisposeReport) Errors() []error {
	return multierr.Errors(r.Err)
}

// DisposeObject releases geometry, materials, textures and light/helper
// resources for every node under roots. Missing geometry or materials are
// skipped, shared resources are released once, and a failure on one node
// does not stop the traversal.
func DisposeObject(roots ...*scene.Node) DisposeReport {
	var rep DisposeReport
	geometries := make(map[*scene.Geometry]struct{})
	materials := make(map[*scene.Material]struct{})
	textures := make(map[*scene.Texture]struct{})

	walk(roots, func(n *scene.Node) {
		rep.Nodes++

		if n.Geometry != nil {
			if _, ok := geometries[n.Geometry]; !ok {
				geometries[n.Geometry] = struct{}{}
				rep.Err = multierr.Append(rep.Err, safely(n.Name, "geometry", func() error {
					n.Geometry.Dispose()
					return nil
				}))
				rep.Geometries++
			}
		}

		for _, mat := range n.Materials {
			if mat == nil {
				continue
			}
			if _, ok := materials[mat]; ok {
				continue
			}
			materials[mat] = struct{}{}

			for _, tex := range mat.Maps {
				if tex == nil {
					continue
				}
				if _, ok := textures[tex]; ok {
					continue
				}
				textures[tex] = struct{}{}
				rep.Err = multierr.Append(rep.Err, safely(n.Name, "texture "+tex.Name, func() error {
					tex.Dispose()
					return nil
				}))
				rep.Textures++
			}

			rep.Err = multierr.Append(rep.Err, safely(n.Name, "material "+mat.Name, func() error {
				mat.Dispose()
				return nil
			}))
			rep.Materials++
		}

		if n.Release != nil {
			rep.Err = multierr.Append(rep.Err, safely(n.Name, n.Kind.String(), n.Release))
			rep.Released++
		}
	})

	return rep
}

// safely runs fn and turns both returned errors and panics into an error
// naming the node and resource.
func safely(node, what string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("disposing %s of %q: panic: %v", what, node, r)
		}
	}()
	if e := fn(); e != nil {
		return fmt.Errorf("disposing %s of %q: %w", what, node, e)
	}
	return nil
}
