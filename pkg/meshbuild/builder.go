// Package meshbuild accumulates vertices, texture coordinates and triangle
// indices and finalizes them into a kernel.Mesh.
//
// A Builder owns its buffers exclusively until CreateMesh or ApplyToMesh
// copies them out. It is not safe for concurrent use.
package meshbuild

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chazu/lathe/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
)

// Builder accumulates mesh data.
type Builder struct {
	cfg    Config
	recalc kernel.NormalRecalculator

	vertices []mgl64.Vec3
	uvs      []mgl64.Vec2
	normals  []mgl64.Vec3 // nil until the first AddVertexNormal

	triangles []int
	mirrored  []int // double-sided back faces, emitted after triangles
}

// NewBuilder returns an empty builder with DefaultConfig modified by opts.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Config returns the current configuration.
func (b *Builder) Config() Config {
	return b.cfg
}

// SetConfig replaces the configuration. It affects only data added
// afterwards.
func (b *Builder) SetConfig(cfg Config) {
	b.cfg = cfg
}

// VertexCount returns the number of vertices added so far.
func (b *Builder) VertexCount() int {
	return len(b.vertices)
}

// TriangleCount returns the number of triangles added so far, including
// double-sided mirrors.
func (b *Builder) TriangleCount() int {
	return (len(b.triangles) + len(b.mirrored)) / 3
}

// AddVertex appends a vertex at position+Offset and returns its index.
// When a UV range is configured, uv.Y is remapped from [0,1] onto the
// range's vertical extent.
func (b *Builder) AddVertex(position mgl64.Vec3, uv mgl64.Vec2) int {
	uv[1] = b.cfg.uvRangeY().Lerp(uv[1])
	b.vertices = append(b.vertices, position.Add(b.cfg.Offset))
	b.uvs = append(b.uvs, uv)
	if b.normals != nil {
		b.normals = append(b.normals, mgl64.Vec3{})
	}
	return len(b.vertices) - 1
}

// AddVertexNormal is AddVertex with an explicit normal. The first call
// switches the builder to explicit normals; vertices without one get a
// zero normal.
func (b *Builder) AddVertexNormal(position mgl64.Vec3, uv mgl64.Vec2, normal mgl64.Vec3) int {
	i := b.AddVertex(position, uv)
	if b.normals == nil {
		b.normals = make([]mgl64.Vec3, len(b.vertices))
	}
	b.normals[i] = normal
	return i
}

// Clone appends a copy of vertex i and returns the new index. The copy is
// exact: Offset and UV remapping are not applied a second time.
func (b *Builder) Clone(i int) int {
	b.vertices = append(b.vertices, b.vertices[i])
	b.uvs = append(b.uvs, b.uvs[i])
	if b.normals != nil {
		b.normals = append(b.normals, b.normals[i])
	}
	return len(b.vertices) - 1
}

// AddTriangle records a triangle over existing vertex indices. The wrap
// pass runs over its three vertices first. When double-sided, a mirrored
// triangle over fresh clones is recorded as well.
func (b *Builder) AddTriangle(v0, v1, v2 int) {
	b.shiftUVsTowardsOrigin(v0, v1, v2)
	b.emitTriangle(v0, v1, v2)
}

func (b *Builder) emitTriangle(v0, v1, v2 int) {
	b.triangles = append(b.triangles, v0, v1, v2)
	if !b.cfg.IsDoubleSided {
		return
	}
	c0 := b.mirrorVertex(v0)
	c2 := b.mirrorVertex(v2)
	c1 := b.mirrorVertex(v1)
	b.mirrored = append(b.mirrored, c0, c2, c1)
}

// mirrorVertex clones vertex i for a back face. An explicit normal is
// negated so the back face shades from its own side.
func (b *Builder) mirrorVertex(i int) int {
	c := b.Clone(i)
	if b.normals != nil {
		b.normals[c] = b.normals[c].Mul(-1)
	}
	return c
}

// AddTriangleUV adds three new vertices and a triangle over them.
func (b *Builder) AddTriangleUV(p0 mgl64.Vec3, uv0 mgl64.Vec2, p1 mgl64.Vec3, uv1 mgl64.Vec2, p2 mgl64.Vec3, uv2 mgl64.Vec2) {
	v0 := b.AddVertex(p0, uv0)
	v1 := b.AddVertex(p1, uv1)
	v2 := b.AddVertex(p2, uv2)
	b.AddTriangle(v0, v1, v2)
}

// AddTrianglePositions adds a triangle whose UVs are projected from the
// plane of p0, p1, p2.
func (b *Builder) AddTrianglePositions(p0, p1, p2 mgl64.Vec3) {
	uv := b.projectUVs([3]mgl64.Vec3{p0, p1, p2}, p0, p1, p2)
	b.AddTriangleUV(p0, uv[0], p1, uv[1], p2, uv[2])
}

// AddQuad records the quad v00 v01 v10 v11 as the triangles
// (v00, v11, v10) and (v00, v01, v11). The wrap pass runs once over all
// four vertices.
func (b *Builder) AddQuad(v00, v01, v10, v11 int) {
	b.shiftUVsTowardsOrigin(v00, v01, v10, v11)
	b.emitTriangle(v00, v11, v10)
	b.emitTriangle(v00, v01, v11)
}

// AddQuadUV adds four new vertices and a quad over them.
func (b *Builder) AddQuadUV(p00 mgl64.Vec3, uv00 mgl64.Vec2, p01 mgl64.Vec3, uv01 mgl64.Vec2, p10 mgl64.Vec3, uv10 mgl64.Vec2, p11 mgl64.Vec3, uv11 mgl64.Vec2) {
	v00 := b.AddVertex(p00, uv00)
	v01 := b.AddVertex(p01, uv01)
	v10 := b.AddVertex(p10, uv10)
	v11 := b.AddVertex(p11, uv11)
	b.AddQuad(v00, v01, v10, v11)
}

// AddQuadPositions adds a quad whose UVs are projected from the plane of
// p00, p01, p10.
func (b *Builder) AddQuadPositions(p00, p01, p10, p11 mgl64.Vec3) {
	uv := b.projectUVs([3]mgl64.Vec3{p00, p01, p10}, p00, p01, p10, p11)
	b.AddQuadUV(p00, uv[0], p01, uv[1], p10, uv[2], p11, uv[3])
}

// cuboidFaces lists the corner indices of each face in AddQuad order.
// Corner k has bit 0 for +X, bit 1 for +Y and bit 2 for +Z.
var cuboidFaces = [6][4]int{
	{0, 4, 2, 6},
	{1, 0, 3, 2},
	{4, 5, 6, 7},
	{1, 5, 7, 3},
	{2, 6, 3, 7},
	{1, 5, 0, 4},
}

// AddCuboid adds the six faces of a hexahedron given its 8 corners, each
// with projected UVs. Nothing is added unless exactly 8 corners are given.
func (b *Builder) AddCuboid(corners ...mgl64.Vec3) error {
	if len(corners) != 8 {
		return fmt.Errorf("%w: cuboid needs 8 corners, got %d", ErrPrecondition, len(corners))
	}
	for _, f := range cuboidFaces {
		b.AddQuadPositions(corners[f[0]], corners[f[1]], corners[f[2]], corners[f[3]])
	}
	return nil
}

// CreateMesh finalizes the accumulated data into a new mesh. The builder
// keeps its data and may be finalized again.
func (b *Builder) CreateMesh(recalcNormals bool) *kernel.Mesh {
	return b.ApplyToMesh(&kernel.Mesh{}, recalcNormals)
}

// ApplyToMesh overwrites target's buffers with the accumulated data and
// returns it. Explicit normals are copied when any were supplied.
// Otherwise, when recalcNormals is set, normals are left to the
// configured NormalRecalculator.
func (b *Builder) ApplyToMesh(target *kernel.Mesh, recalcNormals bool) *kernel.Mesh {
	target.Vertices = make([]float32, 0, len(b.vertices)*3)
	for _, v := range b.vertices {
		target.Vertices = append(target.Vertices, float32(v[0]), float32(v[1]), float32(v[2]))
	}
	target.UVs = make([]float32, 0, len(b.uvs)*2)
	for _, uv := range b.uvs {
		target.UVs = append(target.UVs, float32(uv[0]), float32(uv[1]))
	}
	target.Indices = make([]uint32, 0, len(b.triangles)+len(b.mirrored))
	for _, i := range b.triangles {
		target.Indices = append(target.Indices, uint32(i))
	}
	for _, i := range b.mirrored {
		target.Indices = append(target.Indices, uint32(i))
	}

	target.Normals = nil
	switch {
	case b.normals != nil:
		target.Normals = make([]float32, 0, len(b.normals)*3)
		for _, n := range b.normals {
			target.Normals = append(target.Normals, float32(n[0]), float32(n[1]), float32(n[2]))
		}
	case recalcNormals && b.recalc != nil:
		b.recalc.RecalculateNormals(target)
	case recalcNormals:
		kernel.Logger().Warn("meshbuild: normal recalculation requested without a recalculator")
	}

	log := kernel.Logger()
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("meshbuild: mesh finalized",
			"vertices", target.VertexCount(),
			"triangles", target.TriangleCount(),
			"normals", target.HasNormals())
	}
	return target
}

// Reset discards all accumulated data and restores DefaultConfig. The
// NormalRecalculator is kept.
func (b *Builder) Reset() {
	b.vertices = b.vertices[:0]
	b.uvs = b.uvs[:0]
	b.normals = nil
	b.triangles = b.triangles[:0]
	b.mirrored = b.mirrored[:0]
	b.cfg = DefaultConfig()
}
