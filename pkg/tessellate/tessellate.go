// Package tessellate walks a design graph and produces triangle meshes
// using the mesh builders. One mesh is produced per part.
package tessellate

import (
	"fmt"

	"github.com/chazu/lathe/pkg/graph"
	"github.com/chazu/lathe/pkg/kernel"
	"github.com/chazu/lathe/pkg/lathe"
	"github.com/chazu/lathe/pkg/meshbuild"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// transformStack accumulates spatial transforms during graph traversal.
type transformStack struct {
	matrices []mgl64.Mat4
}

func newTransformStack() *transformStack {
	return &transformStack{}
}

func (ts *transformStack) push(m mgl64.Mat4) {
	ts.matrices = append(ts.matrices, ts.top().Mul4(m))
}

func (ts *transformStack) pop() {
	if len(ts.matrices) > 0 {
		ts.matrices = ts.matrices[:len(ts.matrices)-1]
	}
}

// top returns the product of all transforms on the stack, outermost first.
func (ts *transformStack) top() mgl64.Mat4 {
	if len(ts.matrices) == 0 {
		return mgl64.Ident4()
	}
	return ts.matrices[len(ts.matrices)-1]
}

// walker carries the per-call state of a traversal.
type walker struct {
	g  *graph.DesignGraph
	nr kernel.NormalRecalculator
	ts *transformStack
}

// Tessellate walks the design graph and produces one triangle mesh per
// primitive part. Lathe parts carry the normals the lathe computes; cuboid
// and polygon parts get theirs from nr, and are left without normals when
// nr is nil. The graph is validated first and any validation error aborts
// the walk. The tessellator is read-only and never mutates the graph.
func Tessellate(g *graph.DesignGraph, nr kernel.NormalRecalculator) ([]*kernel.Mesh, error) {
	if g == nil {
		return nil, nil
	}

	result := graph.ValidateAll(g)
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("tessellate: graph has %d validation errors, first: %w", len(result.Errors), result.Errors[0])
	}
	for _, w := range result.Warnings {
		kernel.Logger().Warn("tessellate: validation warning", "node", w.NodeID.String(), "message", w.Message)
	}

	w := &walker{g: g, nr: nr, ts: newTransformStack()}
	var meshes []*kernel.Mesh
	for _, rootID := range g.Roots {
		root := g.Get(rootID)
		if root == nil {
			continue
		}
		collected, err := w.walkNode(root)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", rootID.Short(), err)
		}
		meshes = append(meshes, collected...)
	}

	return meshes, nil
}

// walkNode recursively traverses a node and its children, collecting meshes.
func (w *walker) walkNode(n *graph.Node) ([]*kernel.Mesh, error) {
	switch n.Kind {
	case graph.NodePrimitive:
		return w.handlePrimitive(n)

	case graph.NodeTransform:
		return w.handleTransform(n)

	case graph.NodeGroup:
		return w.handleChildren(n)

	default:
		return nil, fmt.Errorf("unknown node kind: %v", n.Kind)
	}
}

// handlePrimitive builds the mesh for a primitive node and moves it into
// place with the accumulated transform.
func (w *walker) handlePrimitive(n *graph.Node) ([]*kernel.Mesh, error) {
	var mesh *kernel.Mesh

	switch data := n.Data.(type) {
	case graph.LatheData:
		splines := data.Splines
		if splines == 0 {
			splines = w.g.Defaults.Splines
		}
		b := lathe.New(splines, w.builderOptions(data.Mesh)...)
		for _, seg := range data.Segments {
			b.Add(seg.Profile, seg.Twist)
		}
		mesh = b.CreateMesh()

	case graph.CuboidData:
		b := meshbuild.NewBuilder(w.builderOptions(data.Mesh)...)
		if err := b.AddCuboid(data.Corners()...); err != nil {
			return nil, fmt.Errorf("cuboid %s: %w", n.ID.Short(), err)
		}
		mesh = b.CreateMesh(w.nr != nil)

	case graph.PolygonData:
		b := meshbuild.NewBuilder(w.builderOptions(data.Mesh)...)
		var err error
		if data.Depth > 0 {
			err = b.AddExtrudedPolygonXZ(data.Points, data.Height, data.Depth)
		} else {
			err = b.AddPolygonXZ(data.Points, data.Height)
		}
		if err != nil {
			return nil, fmt.Errorf("polygon %s: %w", n.ID.Short(), err)
		}
		mesh = b.CreateMesh(w.nr != nil)

	default:
		return nil, fmt.Errorf("primitive node %s has unsupported data type %T", n.ID.Short(), n.Data)
	}

	mesh = mesh.Transformed(w.ts.top())

	// Set the part name: prefer the node's Name, fall back to short ID.
	if n.Name != "" {
		mesh.PartName = n.Name
	} else {
		mesh.PartName = n.ID.Short()
	}

	kernel.Logger().Debug("tessellate: part built",
		"part", mesh.PartName,
		"vertices", mesh.VertexCount(),
		"triangles", mesh.TriangleCount(),
	)
	return []*kernel.Mesh{mesh}, nil
}

// handleTransform pushes the transform, recurses into children, then pops.
func (w *walker) handleTransform(n *graph.Node) ([]*kernel.Mesh, error) {
	td, ok := n.Data.(graph.TransformData)
	if !ok {
		return nil, fmt.Errorf("transform node %s has unexpected data type %T", n.ID.Short(), n.Data)
	}

	w.ts.push(td.Matrix())
	defer w.ts.pop()
	return w.handleChildren(n)
}

// handleChildren recurses into children in order.
func (w *walker) handleChildren(n *graph.Node) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, child := range w.g.Children(n) {
		collected, err := w.walkNode(child)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// builderOptions converts a part's mesh options into builder options. A
// part with zero options inherits the graph defaults.
func (w *walker) builderOptions(m graph.MeshOptions) []meshbuild.Option {
	if isZeroOptions(m) {
		m = w.g.Defaults.Mesh
	}

	opts := []meshbuild.Option{
		meshbuild.WithDoubleSided(m.DoubleSided),
		meshbuild.WithUVOrigin(m.UVOrigin),
		meshbuild.WithUVOffset(m.UVOffset),
	}
	if m.TextureSize != (mgl64.Vec2{}) {
		opts = append(opts, meshbuild.WithTextureSize(m.TextureSize))
	}
	if r := m.UVRange; r != nil {
		opts = append(opts, meshbuild.WithUVRange(meshbuild.UVRange{
			Rect:              meshbuild.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height},
			RepeatsHorizontal: r.RepeatU,
			RepeatsVertical:   r.RepeatV,
		}))
	}
	if w.nr != nil {
		opts = append(opts, meshbuild.WithNormalRecalculator(w.nr))
	}
	return opts
}

func isZeroOptions(m graph.MeshOptions) bool {
	return m == graph.MeshOptions{}
}

// PartNames returns the part name of every mesh, in order.
func PartNames(meshes []*kernel.Mesh) []string {
	return lo.Map(meshes, func(m *kernel.Mesh, _ int) string { return m.PartName })
}
