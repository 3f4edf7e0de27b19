package native

import (
	"strconv"

	"github.com/Faultbox/bimview/internal/engine/fragments"
	"github.com/Faultbox/bimview/internal/scene"
	"github.com/Faultbox/bimview/pkg/formats"
	"github.com/Faultbox/bimview/pkg/math"
)

// buildAsset converts parsed elements into scene nodes.
func buildAsset(bim *formats.BIM, opts fragments.LoadOptions) *fragments.Asset {
	name := opts.Name
	if name == "" {
		name = bim.Name
	}
	asset := &fragments.Asset{
		Name:     name,
		Elements: make([]*fragments.Element, 0, len(bim.Elements)),
	}

	for i := range bim.Elements {
		el := &bim.Elements[i]
		asset.Elements = append(asset.Elements, &fragments.Element{
			ID: el.ExpressID,
			Meta: fragments.ElementMeta{
				ClassTag: el.Category,
				Name:     el.Name,
				GlobalID: el.GlobalID,
				TypeCode: el.TypeCode,
			},
			Node: buildNode(el),
		})
	}

	if opts.CoordinateToOrigin {
		centerXZ(asset.Elements)
	}

	// Every model gets a key light; the caller releases it with the asset.
	asset.Root = scene.NewGroup(name)
	light := &scene.Node{Name: name + ":light", Kind: scene.KindLight, Visible: true}
	light.Release = func() error { return nil }
	_ = asset.Root.Add(light)

	return asset
}

func buildNode(el *formats.BIMElement) *scene.Node {
	positions := make([]float32, 0, len(el.Positions)*3)
	for _, p := range el.Positions {
		positions = append(positions, p[0], p[1], p[2])
	}

	var index []uint32
	if len(el.Indices) > 0 {
		index = append(index, el.Indices...)
	}
	geo := scene.NewGeometry(positions, index)

	if len(el.Normals) > 0 {
		normals := make([]float32, 0, len(el.Normals)*3)
		for _, n := range el.Normals {
			normals = append(normals, n[0], n[1], n[2])
		}
		geo.Attributes[scene.AttrNormal] = scene.NewAttribute(3, normals)
	}

	node := scene.NewMesh(el.Name, geo, buildMaterial(el))
	if el.InstanceCount > 1 {
		node.Kind = scene.KindInstancedMesh
		node.InstanceCount = int(el.InstanceCount)
	}
	node.SetMeta("expressId", strconv.FormatUint(uint64(el.ExpressID), 10))
	if el.GlobalID != "" {
		node.SetMeta("globalId", el.GlobalID)
	}
	if el.Category != "" {
		node.SetMeta("category", el.Category)
	}
	return node
}

func buildMaterial(el *formats.BIMElement) *scene.Material {
	m := scene.NewMaterial(el.Name)
	m.Color = el.Material.Color
	m.Opacity = el.Material.Opacity
	m.Transparent = el.Material.Flags&formats.MaterialTransparent != 0
	m.Visible = el.Material.Flags&formats.MaterialHidden == 0
	if el.Material.Flags&formats.MaterialDoubleSided != 0 {
		m.Side = scene.DoubleSide
	}
	return m
}

// centerXZ moves every element so the model is centered horizontally on the
// origin. Height is preserved so the model keeps standing on its ground plane.
func centerXZ(elements []*fragments.Element) (centerX, centerZ float32) {
	bounds := math.EmptyBox()
	for _, el := range elements {
		if el == nil || el.Node == nil {
			continue
		}
		if b, ok := el.Node.Geometry.Bounds(); ok {
			bounds.Union(b)
		}
	}
	if bounds.IsEmpty() {
		return 0, 0
	}

	centerX = (bounds.Min.X + bounds.Max.X) / 2
	centerZ = (bounds.Min.Z + bounds.Max.Z) / 2
	shift := math.Translate(-centerX, 0, -centerZ)

	for _, el := range elements {
		if el == nil || el.Node == nil {
			continue
		}
		pos := el.Node.Geometry.Position()
		if pos == nil {
			continue
		}
		for i := 0; i+2 < len(pos.Data); i += pos.ItemSize {
			p := shift.TransformVec3(math.Vec3{X: pos.Data[i], Y: pos.Data[i+1], Z: pos.Data[i+2]})
			pos.Data[i], pos.Data[i+1], pos.Data[i+2] = p.X, p.Y, p.Z
		}
	}
	return centerX, centerZ
}
