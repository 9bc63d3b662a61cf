// Package lathe sweeps 2D (radius, height) profiles around the Y axis
// into ring-stitched meshes with explicit smooth normals.
//
// Successive calls to Add continue the same surface: the last ring of one
// call is stitched to the first ring of the next, and the twist applied at
// the end of one call carries into the next.
package lathe

import (
	"context"
	"log/slog"
	"math"

	"github.com/chazu/lathe/pkg/kernel"
	"github.com/chazu/lathe/pkg/meshbuild"
	"github.com/go-gl/mathgl/mgl64"
)

// Cursor is the state carried between Add calls.
type Cursor struct {
	// Transform is the model transform at the last profile point added.
	Transform mgl64.Mat4 `json:"transform"`
	// NumExistingSegments counts profile points added since the last reset.
	NumExistingSegments int `json:"numExistingSegments"`
	// LastRingStart is the vertex index of the last ring's first vertex.
	LastRingStart int `json:"lastRingStart"`
}

// NewCursor returns the cursor of an empty builder.
func NewCursor() Cursor {
	return Cursor{Transform: mgl64.Ident4()}
}

// Empty reports whether no profile point has been added.
func (c Cursor) Empty() bool {
	return c.NumExistingSegments == 0
}

// Builder is a revolution builder. It owns one meshbuild.Builder for its
// whole lifetime and is not safe for concurrent use.
type Builder struct {
	mesh       *meshbuild.Builder
	opts       []meshbuild.Option
	numSplines int
	cursor     Cursor
}

// New returns a builder that places numSplines+1 vertices around each
// ring, the last one duplicating the first at U=1. numSplines below 1 is
// treated as 1. opts configure the owned mesh builder and are re-applied
// on Reset.
func New(numSplines int, opts ...meshbuild.Option) *Builder {
	return &Builder{
		mesh:       meshbuild.NewBuilder(opts...),
		opts:       opts,
		numSplines: max(numSplines, 1),
		cursor:     NewCursor(),
	}
}

// NumSplines returns the number of angular steps per ring.
func (b *Builder) NumSplines() int {
	return b.numSplines
}

// Cursor returns a copy of the state carried between Add calls.
func (b *Builder) Cursor() Cursor {
	return b.cursor
}

// VertexCount returns the number of vertices emitted so far.
func (b *Builder) VertexCount() int {
	return b.mesh.VertexCount()
}

// TriangleCount returns the number of triangles emitted so far.
func (b *Builder) TriangleCount() int {
	return b.mesh.TriangleCount()
}

// Add sweeps profile around the Y axis. Each point (radius, height) is
// rotated about X, Y and Z by twistPerUnitHeight*height degrees and then
// by the cursor transform. Consecutive points are joined by rings of
// quads, and the first point is joined to the last point of the previous
// call.
func (b *Builder) Add(profile []mgl64.Vec2, twistPerUnitHeight mgl64.Vec3) {
	if len(profile) == 0 {
		return
	}
	stride := b.numSplines + 1
	first := b.mesh.VertexCount()
	normals := ProfileNormals(profile)

	var last mgl64.Mat4
	for i, p := range profile {
		last = b.cursor.Transform.Mul4(segmentTransform(p[1], twistPerUnitHeight))
		for j := range stride {
			progress := float64(j) / float64(b.numSplines)
			full := last.Mul4(mgl64.HomogRotate3DY(progress * 2 * math.Pi))
			pos := mgl64.TransformCoordinate(mgl64.Vec3{p[0], p[1], 0}, full)
			n := full.Mat3().Mul3x1(mgl64.Vec3{normals[i][0], normals[i][1], 0})
			if l := n.Len(); l > 0 {
				n = n.Mul(1 / l)
			}
			b.mesh.AddVertexNormal(pos, mgl64.Vec2{progress, p[1]}, n)
		}
	}

	if !b.cursor.Empty() {
		b.addRing(b.cursor.LastRingStart, first)
	}
	for i := 1; i < len(profile); i++ {
		b.addRing(first+(i-1)*stride, first+i*stride)
	}

	b.cursor.Transform = last
	b.cursor.NumExistingSegments += len(profile)
	b.cursor.LastRingStart = first + (len(profile)-1)*stride

	log := kernel.Logger()
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("lathe: profile added",
			"points", len(profile),
			"splines", b.numSplines,
			"segments", b.cursor.NumExistingSegments,
			"vertices", b.mesh.VertexCount())
	}
}

// addRing joins the ring starting at vertex lower to the one starting at
// upper with numSplines quads.
func (b *Builder) addRing(lower, upper int) {
	for j := range b.numSplines {
		b.mesh.AddQuad(lower+j, lower+j+1, upper+j, upper+j+1)
	}
}

// segmentTransform rotates by twist*height degrees about the point on the
// Y axis at height. The rotation is applied as Z, then X, then Y.
func segmentTransform(height float64, twist mgl64.Vec3) mgl64.Mat4 {
	angles := twist.Mul(height)
	rot := mgl64.QuatRotate(mgl64.DegToRad(angles[1]), mgl64.Vec3{0, 1, 0}).
		Mul(mgl64.QuatRotate(mgl64.DegToRad(angles[0]), mgl64.Vec3{1, 0, 0})).
		Mul(mgl64.QuatRotate(mgl64.DegToRad(angles[2]), mgl64.Vec3{0, 0, 1})).
		Mat4()
	center := mgl64.Vec3{0, height, 0}
	moved := mgl64.TransformCoordinate(center, rot)
	return mgl64.Translate3D(moved[0], moved[1], moved[2]).
		Mul4(rot).
		Mul4(mgl64.Translate3D(-center[0], -center[1], -center[2]))
}

// CreateMesh finalizes the accumulated surface. Normals are always the
// explicit ones computed by Add.
func (b *Builder) CreateMesh() *kernel.Mesh {
	return b.mesh.CreateMesh(false)
}

// Reset clears all geometry and the cursor, then re-applies the
// construction options.
func (b *Builder) Reset() {
	b.mesh.Reset()
	for _, opt := range b.opts {
		opt(b.mesh)
	}
	b.cursor = NewCursor()
}
