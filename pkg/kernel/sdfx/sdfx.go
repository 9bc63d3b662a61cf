// Package sdfx implements the kernel collaborator interfaces using the
// github.com/deadsy/sdfx CAD library types. It derives smooth normals for
// meshes that were finalized without explicit ones and converts meshes to
// sdfx triangles for bounds and interop with sdfx renderers.
package sdfx

import (
	"math"

	"github.com/chazu/lathe/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.NormalRecalculator = (*Recalculator)(nil)

// Recalculator derives per-vertex normals by averaging the normals of the
// faces that reference each vertex. Vertices are identified by index only,
// so duplicated seam vertices keep separate normals.
type Recalculator struct{}

// New returns a new Recalculator.
func New() *Recalculator {
	return &Recalculator{}
}

// RecalculateNormals overwrites m.Normals with one unit normal per vertex.
// Zero-area faces contribute nothing; a vertex touched only by such faces
// gets a zero normal.
func (r *Recalculator) RecalculateNormals(m *kernel.Mesh) {
	sums := make([]v3.Vec, m.VertexCount())
	for i, tri := range Triangles(m) {
		n := tri.Normal()
		if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsNaN(n.Z) {
			continue
		}
		for _, idx := range m.Triangle(i) {
			sums[idx] = sums[idx].Add(n)
		}
	}

	normals := make([]float32, 0, len(sums)*3)
	for _, s := range sums {
		if s.Length() > 0 {
			s = s.Normalize()
		}
		normals = append(normals, float32(s.X), float32(s.Y), float32(s.Z))
	}
	m.Normals = normals
}

// Triangles converts the indexed mesh into a flat list of sdfx triangles,
// one per mesh triangle and in the same order.
func Triangles(m *kernel.Mesh) []*sdf.Triangle3 {
	tris := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		var tri sdf.Triangle3
		for j, idx := range m.Triangle(t) {
			p := m.Position(int(idx))
			tri[j] = v3.Vec{X: p[0], Y: p[1], Z: p[2]}
		}
		tris = append(tris, &tri)
	}
	return tris
}

// BoundingBox returns the axis-aligned bounding box of the mesh vertices.
// An empty mesh yields a zero box.
func BoundingBox(m *kernel.Mesh) sdf.Box3 {
	if m.IsEmpty() {
		return sdf.Box3{}
	}
	first := m.Position(0)
	bb := sdf.Box3{
		Min: v3.Vec{X: first[0], Y: first[1], Z: first[2]},
		Max: v3.Vec{X: first[0], Y: first[1], Z: first[2]},
	}
	for i := 1; i < m.VertexCount(); i++ {
		p := m.Position(i)
		v := v3.Vec{X: p[0], Y: p[1], Z: p[2]}
		bb.Min = bb.Min.Min(v)
		bb.Max = bb.Max.Max(v)
	}
	return bb
}

// Bounds returns the mesh bounding box as plain arrays.
func Bounds(m *kernel.Mesh) (min, max [3]float64) {
	bb := BoundingBox(m)
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}
