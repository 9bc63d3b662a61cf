package lathe

import (
	"math"
	"testing"

	"github.com/chazu/lathe/pkg/kernel"
	"github.com/chazu/lathe/pkg/meshbuild"
	"github.com/go-gl/mathgl/mgl64"
)

func vec3Near(a, b mgl64.Vec3, tol float64) bool {
	d := a.Sub(b)
	return math.Abs(d[0]) <= tol && math.Abs(d[1]) <= tol && math.Abs(d[2]) <= tol
}

func vec2Near(a, b mgl64.Vec2, tol float64) bool {
	d := a.Sub(b)
	return math.Abs(d[0]) <= tol && math.Abs(d[1]) <= tol
}

func mat4Near(a, b mgl64.Mat4, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func column(radius float64, heights ...float64) []mgl64.Vec2 {
	pts := make([]mgl64.Vec2, len(heights))
	for i, h := range heights {
		pts[i] = mgl64.Vec2{radius, h}
	}
	return pts
}

// --- Count tests ---

func TestAddCounts(t *testing.T) {
	tests := []struct {
		name          string
		splines       int
		calls         [][]mgl64.Vec2
		wantVertices  int
		wantTriangles int
	}{
		{"single call", 6, [][]mgl64.Vec2{column(1, 0, 1, 2, 3)}, 4 * 7, 3 * 6 * 2},
		{"two calls", 6, [][]mgl64.Vec2{column(1, 0, 1, 2, 3), column(0.5, 4, 5, 6)}, 7 * 7, (3 + 3) * 6 * 2},
		{"single point", 5, [][]mgl64.Vec2{column(1, 0)}, 6, 0},
		{"single point continues", 5, [][]mgl64.Vec2{column(1, 0), column(1, 1)}, 12, 10},
		{"empty profile", 4, [][]mgl64.Vec2{column(1, 0, 1), {}}, 10, 8},
		{"three splines", 3, [][]mgl64.Vec2{column(1, 0, 1)}, 8, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.splines)
			for _, profile := range tt.calls {
				b.Add(profile, mgl64.Vec3{})
			}
			if got := b.VertexCount(); got != tt.wantVertices {
				t.Errorf("VertexCount() = %d, want %d", got, tt.wantVertices)
			}
			m := b.CreateMesh()
			if got := m.TriangleCount(); got != tt.wantTriangles {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.wantTriangles)
			}
			if len(m.Normals) != len(m.Vertices) {
				t.Errorf("len(Normals) = %d, want %d", len(m.Normals), len(m.Vertices))
			}
		})
	}
}

func TestNewClampsSplines(t *testing.T) {
	b := New(0)
	if b.NumSplines() != 1 {
		t.Errorf("NumSplines() = %d, want 1", b.NumSplines())
	}
	b.Add(column(1, 0, 1), mgl64.Vec3{})
	m := b.CreateMesh()
	for i := range m.VertexCount() {
		if p := m.Position(i); math.IsNaN(p[0]) || math.IsNaN(p[2]) {
			t.Errorf("vertex %d = %v", i, p)
		}
	}
}

// --- Geometry tests ---

func TestSeamVertexDuplicated(t *testing.T) {
	const splines = 8
	b := New(splines)
	b.Add(column(2, 0, 1, 2), mgl64.Vec3{})
	m := b.CreateMesh()
	for ring := range 3 {
		first := ring * (splines + 1)
		last := first + splines
		if !vec3Near(m.Position(first), m.Position(last), 1e-5) {
			t.Errorf("ring %d: seam positions %v and %v differ", ring, m.Position(first), m.Position(last))
		}
		if u := m.UV(first)[0]; u != 0 {
			t.Errorf("ring %d: first U = %v, want 0", ring, u)
		}
		if u := m.UV(last)[0]; u != 1 {
			t.Errorf("ring %d: last U = %v, want 1", ring, u)
		}
		if v := m.UV(first)[1]; v != float64(ring) {
			t.Errorf("ring %d: V = %v, want height %d", ring, v, ring)
		}
	}
}

func TestCylinderIsRadial(t *testing.T) {
	b := New(12)
	b.Add(column(1.5, 0, 1, 2), mgl64.Vec3{})
	m := b.CreateMesh()
	for i := range m.VertexCount() {
		p := m.Position(i)
		radial := mgl64.Vec3{p[0], 0, p[2]}
		if r := radial.Len(); math.Abs(r-1.5) > 1e-5 {
			t.Errorf("vertex %d radius = %v, want 1.5", i, r)
		}
		if n := m.Normal(i); !vec3Near(n, radial.Normalize(), 1e-5) {
			t.Errorf("vertex %d normal = %v, want %v", i, n, radial.Normalize())
		}
	}
}

func TestFaceNormalsAgreeWithVertexNormals(t *testing.T) {
	tests := []struct {
		name  string
		calls [][]mgl64.Vec2
		twist mgl64.Vec3
	}{
		{"cylinder", [][]mgl64.Vec2{column(1, 0, 1, 2)}, mgl64.Vec3{}},
		{"cone", [][]mgl64.Vec2{{{1, 0}, {0.5, 1}, {0.1, 2}}}, mgl64.Vec3{}},
		{"twisted", [][]mgl64.Vec2{column(0.3, 0, 0.5, 1, 1.5, 2)}, mgl64.Vec3{10, 20, 0}},
		{"two calls", [][]mgl64.Vec2{column(0.2, 0, 0.5, 1), column(0.2, 1.5, 2)}, mgl64.Vec3{5, 0, 0}},
		{"closed cap", [][]mgl64.Vec2{{{1, 1}, {0.7, 1.5}, {0, 2}}}, mgl64.Vec3{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(10)
			for _, profile := range tt.calls {
				b.Add(profile, tt.twist)
			}
			m := b.CreateMesh()
			for k := range m.TriangleCount() {
				tri := m.Triangle(k)
				face := meshbuild.FaceNormal(m.Position(int(tri[0])), m.Position(int(tri[1])), m.Position(int(tri[2])))
				if face.Len() == 0 {
					continue
				}
				avg := m.Normal(int(tri[0])).Add(m.Normal(int(tri[1]))).Add(m.Normal(int(tri[2])))
				if face.Dot(avg) <= 0 {
					t.Errorf("triangle %d faces %v, vertex normals average %v", k, face, avg)
				}
			}
		})
	}
}

func TestSegmentTransform(t *testing.T) {
	tests := []struct {
		name   string
		height float64
		twist  mgl64.Vec3
		point  mgl64.Vec3
		want   mgl64.Vec3
	}{
		{"no twist", 3, mgl64.Vec3{}, mgl64.Vec3{1, 3, 0}, mgl64.Vec3{1, 3, 0}},
		{"ground level", 0, mgl64.Vec3{45, 45, 45}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0}},
		{"about X", 1, mgl64.Vec3{90, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}},
		{"about Y scaled by height", 2, mgl64.Vec3{0, 45, 0}, mgl64.Vec3{1, 2, 0}, mgl64.Vec3{0, 2, -1}},
		{"about Z", 1, mgl64.Vec3{0, 0, 90}, mgl64.Vec3{1, 1, 0}, mgl64.Vec3{-1, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mgl64.TransformCoordinate(tt.point, segmentTransform(tt.height, tt.twist))
			if !vec3Near(got, tt.want, 1e-9) {
				t.Errorf("segmentTransform(%v, %v) * %v = %v, want %v", tt.height, tt.twist, tt.point, got, tt.want)
			}
		})
	}
}

// --- Cursor tests ---

func TestCursorAdvances(t *testing.T) {
	b := New(4)
	if c := b.Cursor(); !c.Empty() || c.Transform != mgl64.Ident4() {
		t.Fatalf("new cursor = %+v, want empty identity", c)
	}

	twist := mgl64.Vec3{5, 0, 0}
	b.Add(column(0.2, 0, 0.5, 1), twist)
	c := b.Cursor()
	if c.NumExistingSegments != 3 {
		t.Errorf("NumExistingSegments = %d, want 3", c.NumExistingSegments)
	}
	if c.LastRingStart != 10 {
		t.Errorf("LastRingStart = %d, want 10", c.LastRingStart)
	}
	if want := segmentTransform(1, twist); !mat4Near(c.Transform, want, 1e-12) {
		t.Errorf("Transform = %v, want %v", c.Transform, want)
	}

	b.Add(column(1, 1, 2), mgl64.Vec3{})
	c2 := b.Cursor()
	if c2.NumExistingSegments != 5 || c2.LastRingStart != 20 {
		t.Errorf("after second Add: segments=%d lastRing=%d, want 5, 20", c2.NumExistingSegments, c2.LastRingStart)
	}
	if !mat4Near(c2.Transform, c.Transform, 1e-12) {
		t.Errorf("untwisted call changed Transform to %v", c2.Transform)
	}
}

func TestTwistCarriesIntoNextCall(t *testing.T) {
	twist := mgl64.Vec3{30, 0, 0}
	b := New(4)
	b.Add(column(0.2, 0, 1), twist)
	carried := b.Cursor().Transform
	first := b.VertexCount()
	b.Add(column(1, 1), mgl64.Vec3{})
	m := b.CreateMesh()

	want := mgl64.TransformCoordinate(mgl64.Vec3{1, 1, 0}, carried)
	if got := m.Position(first); !vec3Near(got, want, 1e-5) {
		t.Errorf("first vertex of second call = %v, want %v", got, want)
	}
}

func TestCrossCallRingStitchesLastRing(t *testing.T) {
	const splines = 5
	b := New(splines)
	b.Add(column(1, 0, 1), mgl64.Vec3{})
	lastRing := b.Cursor().LastRingStart
	before := b.TriangleCount()
	first := b.VertexCount()
	b.Add(column(1, 2, 3), mgl64.Vec3{})

	m := b.CreateMesh()
	stitch := 0
	for k := before; k < m.TriangleCount(); k++ {
		var lower, upper bool
		for _, idx := range m.Triangle(k) {
			i := int(idx)
			lower = lower || (i >= lastRing && i <= lastRing+splines)
			upper = upper || (i >= first && i <= first+splines)
		}
		if lower && upper {
			stitch++
		}
	}
	if stitch != splines*2 {
		t.Errorf("%d triangles join the two calls, want %d", stitch, splines*2)
	}
}

// --- Reset tests ---

func TestResetClearsGeometryAndCursor(t *testing.T) {
	rng := meshbuild.NewUVRange(meshbuild.Rect{Width: 1, Height: 1})
	b := New(6, meshbuild.WithUVRange(rng))
	b.Add(column(1, 0, 1, 2), mgl64.Vec3{5, 0, 0})
	b.Reset()

	if b.VertexCount() != 0 || b.TriangleCount() != 0 {
		t.Errorf("after Reset: %d vertices, %d triangles", b.VertexCount(), b.TriangleCount())
	}
	if c := b.Cursor(); c != NewCursor() {
		t.Errorf("after Reset: cursor = %+v, want %+v", c, NewCursor())
	}
	if got, ok := b.mesh.Config().AutomaticUVRange.Range(); !ok || got != rng {
		t.Errorf("after Reset: UV range = %+v (enabled %v), want %+v", got, ok, rng)
	}

	b.Add(column(1, 0, 1), mgl64.Vec3{})
	if got, want := b.TriangleCount(), 6*2; got != want {
		t.Errorf("first Add after Reset made %d triangles, want %d without a stitch ring", got, want)
	}
}

func TestUVRangeRemapsHeights(t *testing.T) {
	rng := meshbuild.NewUVRange(meshbuild.Rect{Y: 0.5, Width: 1, Height: 0.5})
	b := New(4, meshbuild.WithUVRange(rng))
	b.Add(column(1, 0, 1), mgl64.Vec3{})
	m := b.CreateMesh()
	for i := range m.VertexCount() {
		want := 0.5
		if i >= 5 {
			want = 1
		}
		if v := m.UV(i)[1]; math.Abs(v-want) > 1e-6 {
			t.Errorf("vertex %d V = %v, want %v", i, v, want)
		}
	}
}

func TestCreateMeshUsesExplicitNormals(t *testing.T) {
	var calls int
	recalc := kernel.NormalRecalculatorFunc(func(m *kernel.Mesh) { calls++ })
	b := New(4, meshbuild.WithNormalRecalculator(recalc))
	b.Add(column(1, 0, 1), mgl64.Vec3{})
	m := b.CreateMesh()
	if calls != 0 {
		t.Errorf("recalculator called %d times", calls)
	}
	if !m.HasNormals() {
		t.Error("HasNormals() = false")
	}
}

// --- Profile normal tests ---

func TestProfileNormals(t *testing.T) {
	s := 1 / math.Sqrt2
	tests := []struct {
		name    string
		profile []mgl64.Vec2
		want    []mgl64.Vec2
	}{
		{"empty", nil, []mgl64.Vec2{}},
		{"single point", []mgl64.Vec2{{1, 0}}, []mgl64.Vec2{{1, 0}}},
		{"cylinder", []mgl64.Vec2{{1, 0}, {1, 1}}, []mgl64.Vec2{{1, 0}, {1, 0}}},
		{"cone", []mgl64.Vec2{{1, 0}, {0, 1}}, []mgl64.Vec2{{s, s}, {s, s}}},
		{"corner", []mgl64.Vec2{{1, 0}, {1, 1}, {0, 1}}, []mgl64.Vec2{{1, 0}, {s, s}, {0, 1}}},
		{"fold back", []mgl64.Vec2{{1, 0}, {1, 1}, {1, 0}}, []mgl64.Vec2{{1, 0}, {1, 0}, {-1, 0}}},
		{"repeated point", []mgl64.Vec2{{1, 0}, {1, 0}}, []mgl64.Vec2{{1, 0}, {1, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProfileNormals(tt.profile)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !vec2Near(got[i], tt.want[i], 1e-12) {
					t.Errorf("normal %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDoubleSidedBackFacesShadeInward(t *testing.T) {
	b := New(8, meshbuild.WithDoubleSided(true))
	b.Add(column(1, 0, 1, 2), mgl64.Vec3{})
	m := b.CreateMesh()

	for k := range m.TriangleCount() {
		tr := m.Triangle(k)
		fn := meshbuild.FaceNormal(m.Position(int(tr[0])), m.Position(int(tr[1])), m.Position(int(tr[2])))
		for _, v := range tr {
			if d := fn.Dot(m.Normal(int(v))); d <= 0 {
				t.Errorf("triangle %d: vertex %d normal %v disagrees with face normal %v", k, v, m.Normal(int(v)), fn)
			}
		}
	}
}
