package meshbuild

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chazu/lathe/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
)

// Clockwise reports whether p1 p2 p3 turn clockwise, i.e. the 2D cross
// product of (p2-p1) and (p3-p2) is negative. Collinear points are not
// clockwise.
func Clockwise(p1, p2, p3 mgl64.Vec2) bool {
	d1 := p2.Sub(p1)
	d2 := p3.Sub(p2)
	return -d1[1]*d2[0]+d1[0]*d2[1] < 0
}

// InsideTriangle reports whether t lies inside or on the boundary of the
// triangle p1 p2 p3, in either winding.
func InsideTriangle(t, p1, p2, p3 mgl64.Vec2) bool {
	if Clockwise(p1, p2, p3) {
		return !Clockwise(p2, p1, t) && !Clockwise(p3, p2, t) && !Clockwise(p1, p3, t)
	}
	return !Clockwise(p1, p2, t) && !Clockwise(p2, p3, t) && !Clockwise(p3, p1, t)
}

// ring is a circular doubly linked list over polygon indices.
type ring struct {
	prev, next []int
	size       int
}

func newRing(n int) *ring {
	r := &ring{prev: make([]int, n), next: make([]int, n), size: n}
	for i := range n {
		r.prev[i] = (i + n - 1) % n
		r.next[i] = (i + 1) % n
	}
	return r
}

func (r *ring) remove(i int) {
	r.next[r.prev[i]] = r.next[i]
	r.prev[r.next[i]] = r.prev[i]
	r.size--
}

// isEar reports whether u v w is a clockwise corner with no other remaining
// vertex inside or on it.
func (r *ring) isEar(points []mgl64.Vec2, u, v, w int) bool {
	if !Clockwise(points[u], points[v], points[w]) {
		return false
	}
	for j := r.next[w]; j != u; j = r.next[j] {
		if InsideTriangle(points[j], points[u], points[v], points[w]) {
			return false
		}
	}
	return true
}

// Triangulate ear-clips a simple clockwise polygon and returns n-2
// triangles as index triples into points, each wound clockwise.
func Triangulate(points []mgl64.Vec2) ([][3]int, error) {
	n := len(points)
	if n < 3 {
		return nil, fmt.Errorf("%w: polygon needs at least 3 points, got %d", ErrPrecondition, n)
	}
	r := newRing(n)
	tris := make([][3]int, 0, n-2)
	cur, misses := 0, 0
	for r.size >= 3 {
		if misses >= r.size {
			return nil, fmt.Errorf("%w: %d vertices left without an ear; polygon must be simple and clockwise",
				ErrTriangulation, r.size)
		}
		v := r.next[cur]
		w := r.next[v]
		if r.isEar(points, cur, v, w) {
			tris = append(tris, [3]int{cur, v, w})
			r.remove(v)
			misses = 0
			continue
		}
		cur = r.next[cur]
		misses++
	}
	return tris, nil
}

// TriangulatePolygon triangulates points and records each triangle through
// AddTriangle, translating polygon positions through indices. On error no
// triangle is recorded.
func (b *Builder) TriangulatePolygon(points []mgl64.Vec2, indices []int) error {
	if len(points) != len(indices) {
		return fmt.Errorf("%w: %d points but %d indices", ErrPrecondition, len(points), len(indices))
	}
	tris, err := Triangulate(points)
	if err != nil {
		return err
	}
	for _, t := range tris {
		b.AddTriangle(indices[t[0]], indices[t[1]], indices[t[2]])
	}
	log := kernel.Logger()
	if log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("meshbuild: polygon triangulated", "points", len(points), "triangles", len(tris))
	}
	return nil
}

// AddPolygonXZ adds a flat polygon at height y. Each point p becomes the
// vertex (p.X, y, p.Y) with projected UVs. A clockwise polygon faces +Y.
// On error nothing is added.
func (b *Builder) AddPolygonXZ(points []mgl64.Vec2, y float64) error {
	tris, err := Triangulate(points)
	if err != nil {
		return err
	}
	b.addCapXZ(points, tris, y, false)
	return nil
}

// AddExtrudedPolygonXZ adds a closed prism over the polygon, from y up to
// y+height. The top cap faces +Y, the bottom cap faces -Y and each edge of
// the clockwise polygon becomes an outward-facing side quad with its own
// vertices. On error nothing is added.
func (b *Builder) AddExtrudedPolygonXZ(points []mgl64.Vec2, y, height float64) error {
	if !(height > 0) {
		return fmt.Errorf("%w: extrude height %v must be positive", ErrPrecondition, height)
	}
	tris, err := Triangulate(points)
	if err != nil {
		return err
	}

	top := y + height
	b.addCapXZ(points, tris, top, false)
	b.addCapXZ(points, tris, y, true)

	n := len(points)
	for i := range n {
		j := (i + 1) % n
		bi := mgl64.Vec3{points[i][0], y, points[i][1]}
		bj := mgl64.Vec3{points[j][0], y, points[j][1]}
		ti := mgl64.Vec3{points[i][0], top, points[i][1]}
		tj := mgl64.Vec3{points[j][0], top, points[j][1]}
		b.AddQuadPositions(bj, tj, bi, ti)
	}

	kernel.Logger().Debug("meshbuild: extruded polygon", "points", n, "height", height)
	return nil
}

// addCapXZ adds one flat cap at height y over an existing triangulation.
// A flipped cap has every triangle reversed so it faces -Y.
func (b *Builder) addCapXZ(points []mgl64.Vec2, tris [][3]int, y float64, flip bool) {
	positions := make([]mgl64.Vec3, len(points))
	for i, p := range points {
		positions[i] = mgl64.Vec3{p[0], y, p[1]}
	}
	t := tris[0]
	if flip {
		t[1], t[2] = t[2], t[1]
	}
	uvs := b.projectUVs([3]mgl64.Vec3{positions[t[0]], positions[t[1]], positions[t[2]]}, positions...)

	indices := make([]int, len(points))
	for i := range positions {
		indices[i] = b.AddVertex(positions[i], uvs[i])
	}
	for _, t := range tris {
		if flip {
			b.AddTriangle(indices[t[0]], indices[t[2]], indices[t[1]])
			continue
		}
		b.AddTriangle(indices[t[0]], indices[t[1]], indices[t[2]])
	}
}
