package graph

import "github.com/go-gl/mathgl/mgl64"

// ---------------------------------------------------------------------------
// Mesh options
// ---------------------------------------------------------------------------

// UVRangeSpec is a texture region and how often the texture repeats in it.
type UVRangeSpec struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	RepeatU int     `json:"repeat_u"`
	RepeatV int     `json:"repeat_v"`
}

// MeshOptions are the per-part mesh builder settings. Zero values mean the
// builder defaults.
type MeshOptions struct {
	DoubleSided bool         `json:"double_sided,omitempty"`
	TextureSize mgl64.Vec2   `json:"texture_size"` // zero means 1x1
	UVOrigin    mgl64.Vec3   `json:"uv_origin"`
	UVOffset    mgl64.Vec2   `json:"uv_offset"`
	UVRange     *UVRangeSpec `json:"uv_range,omitempty"`
}

// ---------------------------------------------------------------------------
// Primitives
// ---------------------------------------------------------------------------

// LatheSegment is one profile submitted to the lathe. Profile points are
// (radius, height) pairs.
type LatheSegment struct {
	Profile []mgl64.Vec2 `json:"profile"`
	Twist   mgl64.Vec3   `json:"twist"` // Euler degrees per unit of height
}

// LatheData is a revolved surface built from one or more continuous
// segments.
type LatheData struct {
	Splines  int            `json:"splines"`
	Segments []LatheSegment `json:"segments"`
	Mesh     MeshOptions    `json:"mesh"`
}

func (LatheData) nodeData() {}

// PointCount returns the number of profile points over all segments.
func (d LatheData) PointCount() int {
	n := 0
	for _, s := range d.Segments {
		n += len(s.Profile)
	}
	return n
}

// CuboidData is an axis-aligned box with one corner at the origin.
type CuboidData struct {
	Size mgl64.Vec3  `json:"size"`
	Mesh MeshOptions `json:"mesh"`
}

func (CuboidData) nodeData() {}

// Corners returns the 8 corners with bit 0 selecting +X, bit 1 +Y and
// bit 2 +Z.
func (d CuboidData) Corners() []mgl64.Vec3 {
	corners := make([]mgl64.Vec3, 8)
	for k := range corners {
		for axis := range 3 {
			if k&(1<<axis) != 0 {
				corners[k][axis] = d.Size[axis]
			}
		}
	}
	return corners
}

// PolygonData is a flat polygon in the XZ plane at Height. Points are
// (x, z) pairs in clockwise order. A positive Depth extrudes the polygon
// into a closed prism from Height up to Height+Depth.
type PolygonData struct {
	Points []mgl64.Vec2 `json:"points"`
	Height float64      `json:"height"`
	Depth  float64      `json:"depth,omitempty"`
	Mesh   MeshOptions  `json:"mesh"`
}

func (PolygonData) nodeData() {}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData represents a spatial transformation applied to a child node.
// Created by the (place ...) Lisp form.
type TransformData struct {
	Translation *mgl64.Vec3 `json:"translation,omitempty"`
	Rotation    *mgl64.Vec3 `json:"rotation,omitempty"` // Euler angles in degrees
}

func (TransformData) nodeData() {}

// Matrix returns the transform as rotation about X, then Y, then Z,
// followed by translation.
func (d TransformData) Matrix() mgl64.Mat4 {
	m := mgl64.Ident4()
	if d.Translation != nil {
		t := *d.Translation
		m = mgl64.Translate3D(t[0], t[1], t[2])
	}
	if d.Rotation != nil {
		r := *d.Rotation
		rot := mgl64.QuatRotate(mgl64.DegToRad(r[2]), mgl64.Vec3{0, 0, 1}).
			Mul(mgl64.QuatRotate(mgl64.DegToRad(r[1]), mgl64.Vec3{0, 1, 0})).
			Mul(mgl64.QuatRotate(mgl64.DegToRad(r[0]), mgl64.Vec3{1, 0, 0}))
		m = m.Mul4(rot.Mat4())
	}
	return m
}

// ---------------------------------------------------------------------------
// Group
// ---------------------------------------------------------------------------

// GroupData represents a logical grouping (assembly, subassembly).
// Created by the (assembly ...) Lisp form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
