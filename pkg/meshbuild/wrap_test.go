package meshbuild

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func addFace(b *Builder, vs ...float64) []int {
	idx := make([]int, len(vs))
	for i, v := range vs {
		idx[i] = b.AddVertex(mgl64.Vec3{float64(i), v, 0}, mgl64.Vec2{0, v})
	}
	return idx
}

func vOf(b *Builder, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = b.uvs[j][1]
	}
	return out
}

func TestWrapShift(t *testing.T) {
	fourTiles := UVRange{Rect: Rect{Width: 1, Height: 1}, RepeatsHorizontal: 1, RepeatsVertical: 4}
	tests := []struct {
		name string
		rng  UVRange
		vs   []float64
		want []float64
	}{
		{"above range", fourTiles, []float64{3.1, 3.2, 3.3}, []float64{0.6, 0.7, 0.8}},
		{"below range", fourTiles, []float64{-2.2, -2.1, -2.0}, []float64{0.3, 0.4, 0.5}},
		{"one vertex inside", fourTiles, []float64{0.9, 1.4, 2.0}, []float64{0.9, 1.4, 2.0}},
		{"max is exclusive", fourTiles, []float64{1, 1.1, 1.2}, []float64{0.5, 0.6, 0.7}},
		{"single tile", NewUVRange(Rect{Width: 1, Height: 1}), []float64{5.25, 5.5, 5.75}, []float64{0.25, 0.5, 0.75}},
		{"zero height", UVRange{Rect: Rect{Y: 1, Width: 1}, RepeatsVertical: 1}, []float64{4, 5, 6}, []float64{4, 5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(WithUVRange(tt.rng))
			// set the raw V values directly so remapping does not interfere
			idx := addFace(b, tt.vs...)
			for i, j := range idx {
				b.uvs[j][1] = tt.vs[i]
			}
			b.AddTriangle(idx[0], idx[1], idx[2])
			got := vOf(b, idx)
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("v = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestWrapShiftPreservesDifferences(t *testing.T) {
	b := NewBuilder(WithUVRange(UVRange{Rect: Rect{Y: 2, Width: 1, Height: 3}, RepeatsVertical: 3}))
	idx := addFace(b, 0, 0, 0, 0)
	raw := []float64{-7.3, -6.9, -7.1, -5.8}
	for i, j := range idx {
		b.uvs[j][1] = raw[i]
	}
	b.AddQuad(idx[0], idx[1], idx[2], idx[3])
	got := vOf(b, idx)
	if got[0] == raw[0] {
		t.Fatalf("quad was not shifted: %v", got)
	}
	for i := range raw {
		for j := range raw {
			if d := (got[i] - got[j]) - (raw[i] - raw[j]); math.Abs(d) > 1e-9 {
				t.Errorf("difference v[%d]-v[%d] changed by %v", i, j, d)
			}
		}
	}
	// tile height is 1
	if shift := got[0] - raw[0]; math.Abs(shift-math.Round(shift)) > 1e-9 {
		t.Errorf("shift %v is not a whole number of tiles", shift)
	}
}

func TestWrapShiftIdempotent(t *testing.T) {
	b := NewBuilder(WithUVRange(UVRange{Rect: Rect{Width: 1, Height: 1}, RepeatsVertical: 2}))
	idx := addFace(b, 0, 0, 0)
	for i, j := range idx {
		b.uvs[j][1] = 10 + 0.1*float64(i)
	}
	b.shiftUVsTowardsOrigin(idx...)
	first := vOf(b, idx)
	b.shiftUVsTowardsOrigin(idx...)
	second := vOf(b, idx)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("second pass moved v: %v -> %v", first, second)
			break
		}
	}
}

func TestWrapShiftDuplicateIndexShiftsOnce(t *testing.T) {
	b := NewBuilder(WithUVRange(NewUVRange(Rect{Width: 1, Height: 1})))
	idx := addFace(b, 0, 0)
	b.uvs[idx[0]][1] = 3.5
	b.uvs[idx[1]][1] = 3.75
	b.AddTriangle(idx[0], idx[0], idx[1])
	got := vOf(b, idx)
	if math.Abs(got[0]-0.5) > 1e-9 || math.Abs(got[1]-0.75) > 1e-9 {
		t.Errorf("v = %v, want [0.5 0.75]", got)
	}
}

func TestWrapDisabledLeavesUVs(t *testing.T) {
	b := NewBuilder()
	idx := addFace(b, 7, 8, 9)
	b.AddTriangle(idx[0], idx[1], idx[2])
	got := vOf(b, idx)
	if got[0] != 7 || got[1] != 8 || got[2] != 9 {
		t.Errorf("v = %v, want [7 8 9]", got)
	}
}

func TestDoubleSidedMirrorCopiesShiftedUVs(t *testing.T) {
	b := NewBuilder(WithDoubleSided(true), WithUVRange(NewUVRange(Rect{Width: 1, Height: 1})))
	idx := addFace(b, 0, 0, 0)
	for i, j := range idx {
		b.uvs[j][1] = 4.2 + 0.1*float64(i)
	}
	b.AddTriangle(idx[0], idx[1], idx[2])
	if b.VertexCount() != 6 {
		t.Fatalf("VertexCount() = %d, want 6", b.VertexCount())
	}
	// clones are appended as v0, v2, v1
	for k, src := range []int{0, 2, 1} {
		if b.uvs[3+k] != b.uvs[src] {
			t.Errorf("clone %d uv = %v, want %v", k, b.uvs[3+k], b.uvs[src])
		}
	}
}
