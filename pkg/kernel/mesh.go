package kernel

import "github.com/go-gl/mathgl/mgl64"

// Mesh is a finalized triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// uvs has 2 floats per vertex, normals (when present) has 3 floats per
// vertex, indices has 3 uint32s per triangle.
//
// A Mesh is produced by a builder's finalize call and is not modified by
// it afterwards; transforming it yields a new Mesh.
type Mesh struct {
	Vertices []float32 `json:"vertices"`          // [x0,y0,z0, x1,y1,z1, ...]
	UVs      []float32 `json:"uvs"`               // [u0,v0, u1,v1, ...]
	Normals  []float32 `json:"normals,omitempty"` // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`           // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"`          // which design graph part this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// HasNormals reports whether the mesh carries one normal per vertex.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0 && len(m.Normals) == len(m.Vertices)
}

// Position returns the position of vertex i.
func (m *Mesh) Position(i int) mgl64.Vec3 {
	return mgl64.Vec3{float64(m.Vertices[i*3]), float64(m.Vertices[i*3+1]), float64(m.Vertices[i*3+2])}
}

// UV returns the texture coordinate of vertex i.
func (m *Mesh) UV(i int) mgl64.Vec2 {
	return mgl64.Vec2{float64(m.UVs[i*2]), float64(m.UVs[i*2+1])}
}

// Normal returns the normal of vertex i. The mesh must have normals.
func (m *Mesh) Normal(i int) mgl64.Vec3 {
	return mgl64.Vec3{float64(m.Normals[i*3]), float64(m.Normals[i*3+1]), float64(m.Normals[i*3+2])}
}

// Triangle returns the three vertex indices of triangle t.
func (m *Mesh) Triangle(t int) [3]uint32 {
	return [3]uint32{m.Indices[t*3], m.Indices[t*3+1], m.Indices[t*3+2]}
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices: append([]float32(nil), m.Vertices...),
		UVs:      append([]float32(nil), m.UVs...),
		Indices:  append([]uint32(nil), m.Indices...),
		PartName: m.PartName,
	}
	if m.Normals != nil {
		c.Normals = append([]float32(nil), m.Normals...)
	}
	return c
}

// Transformed returns a copy of the mesh with every position transformed by
// t. Normals are rotated by the upper 3x3 of t and re-normalized.
func (m *Mesh) Transformed(t mgl64.Mat4) *Mesh {
	c := m.Clone()
	for i := 0; i < c.VertexCount(); i++ {
		p := mgl64.TransformCoordinate(m.Position(i), t)
		c.Vertices[i*3], c.Vertices[i*3+1], c.Vertices[i*3+2] = float32(p[0]), float32(p[1]), float32(p[2])
	}
	if m.HasNormals() {
		rot := t.Mat3()
		for i := 0; i < c.VertexCount(); i++ {
			n := rot.Mul3x1(m.Normal(i))
			if n.Len() > 0 {
				n = n.Normalize()
			}
			c.Normals[i*3], c.Normals[i*3+1], c.Normals[i*3+2] = float32(n[0]), float32(n[1]), float32(n[2])
		}
	}
	return c
}
