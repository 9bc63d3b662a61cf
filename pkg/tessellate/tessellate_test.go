package tessellate_test

import (
	"math"
	"strings"
	"testing"

	"github.com/chazu/lathe/pkg/graph"
	"github.com/chazu/lathe/pkg/kernel/sdfx"
	"github.com/chazu/lathe/pkg/tessellate"
	"github.com/go-gl/mathgl/mgl64"
)

// makeCuboid creates a cuboid primitive node with the given name and size.
func makeCuboid(name string, x, y, z float64) *graph.Node {
	return &graph.Node{
		ID:   graph.NewNodeID("cuboid/" + name),
		Kind: graph.NodePrimitive,
		Name: name,
		Data: graph.CuboidData{Size: mgl64.Vec3{x, y, z}},
	}
}

// makeLathe creates a single-segment lathe primitive node.
func makeLathe(name string, splines int, profile ...mgl64.Vec2) *graph.Node {
	return &graph.Node{
		ID:   graph.NewNodeID("lathe/" + name),
		Kind: graph.NodePrimitive,
		Name: name,
		Data: graph.LatheData{
			Splines:  splines,
			Segments: []graph.LatheSegment{{Profile: profile}},
		},
	}
}

// makePlace creates a transform node with a translation and an optional
// rotation.
func makePlace(name string, at mgl64.Vec3, rotate *mgl64.Vec3, child graph.NodeID) *graph.Node {
	return &graph.Node{
		ID:       graph.NewNodeID("place/" + name),
		Kind:     graph.NodeTransform,
		Children: []graph.NodeID{child},
		Data:     graph.TransformData{Translation: &at, Rotation: rotate},
	}
}

// makeGroup creates a group node with children.
func makeGroup(name string, children ...graph.NodeID) *graph.Node {
	return &graph.Node{
		ID:       graph.NewNodeID("group/" + name),
		Kind:     graph.NodeGroup,
		Name:     name,
		Children: children,
		Data:     graph.GroupData{Description: name},
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-5
}

func TestSingleCuboid(t *testing.T) {
	g := graph.New()
	box := makeCuboid("crate", 1, 2, 3)
	g.AddNode(box)
	g.AddRoot(box.ID)

	meshes, err := tessellate.Tessellate(g, sdfx.New())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	m := meshes[0]
	if m.PartName != "crate" {
		t.Errorf("expected PartName %q, got %q", "crate", m.PartName)
	}
	if m.VertexCount() != 24 || m.TriangleCount() != 12 {
		t.Errorf("counts = %d/%d, want 24/12", m.VertexCount(), m.TriangleCount())
	}
	if !m.HasNormals() {
		t.Error("cuboid should have recalculated normals")
	}

	min, max := sdfx.Bounds(m)
	if min != [3]float64{} || max != [3]float64{1, 2, 3} {
		t.Errorf("bounds = %v..%v, want origin..(1,2,3)", min, max)
	}
}

func TestCuboidWithoutRecalculator(t *testing.T) {
	g := graph.New()
	box := makeCuboid("crate", 1, 1, 1)
	g.AddNode(box)
	g.AddRoot(box.ID)

	meshes, err := tessellate.Tessellate(g, nil)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if meshes[0].HasNormals() {
		t.Error("mesh should carry no normals without a recalculator")
	}
}

func TestLathePart(t *testing.T) {
	tests := []struct {
		name      string
		splines   int
		wantVerts int
		wantTris  int
	}{
		{"explicit splines", 8, 3 * 9, 2 * 8 * 2},
		{"default splines", 0, 3 * (graph.DefaultSplines + 1), 2 * graph.DefaultSplines * 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New()
			vase := makeLathe("vase", tt.splines, mgl64.Vec2{1, 0}, mgl64.Vec2{1.5, 1}, mgl64.Vec2{0.5, 2})
			g.AddNode(vase)
			g.AddRoot(vase.ID)

			meshes, err := tessellate.Tessellate(g, nil)
			if err != nil {
				t.Fatalf("Tessellate failed: %v", err)
			}
			m := meshes[0]
			if m.VertexCount() != tt.wantVerts || m.TriangleCount() != tt.wantTris {
				t.Errorf("counts = %d/%d, want %d/%d", m.VertexCount(), m.TriangleCount(), tt.wantVerts, tt.wantTris)
			}
			if !m.HasNormals() {
				t.Error("lathe mesh should carry its own normals")
			}
		})
	}
}

func TestPolygonPart(t *testing.T) {
	g := graph.New()
	poly := &graph.Node{
		ID:   graph.NewNodeID("polygon/floor"),
		Kind: graph.NodePrimitive,
		Name: "floor",
		Data: graph.PolygonData{
			Points: []mgl64.Vec2{{0, 0}, {0, 2}, {2, 2}, {2, 0}},
			Height: 0.5,
		},
	}
	g.AddNode(poly)
	g.AddRoot(poly.ID)

	meshes, err := tessellate.Tessellate(g, sdfx.New())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	m := meshes[0]
	if m.VertexCount() != 4 || m.TriangleCount() != 2 {
		t.Errorf("counts = %d/%d, want 4/2", m.VertexCount(), m.TriangleCount())
	}
	for i := 0; i < m.VertexCount(); i++ {
		if p := m.Position(i); !near(p[1], 0.5) {
			t.Errorf("vertex %d at height %.3f, want 0.5", i, p[1])
		}
		if n := m.Normal(i); !near(n[1], 1) {
			t.Errorf("vertex %d normal %v, want +Y", i, n)
		}
	}
}

func TestExtrudedPolygonPart(t *testing.T) {
	g := graph.New()
	poly := &graph.Node{
		ID:   graph.NewNodeID("polygon/slab"),
		Kind: graph.NodePrimitive,
		Name: "slab",
		Data: graph.PolygonData{
			Points: []mgl64.Vec2{{0, 0}, {0, 2}, {2, 2}, {2, 0}},
			Height: 0.5,
			Depth:  0.25,
		},
	}
	g.AddNode(poly)
	g.AddRoot(poly.ID)

	meshes, err := tessellate.Tessellate(g, nil)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	m := meshes[0]
	// two caps of four vertices plus four side quads
	if m.VertexCount() != 24 || m.TriangleCount() != 12 {
		t.Errorf("counts = %d/%d, want 24/12", m.VertexCount(), m.TriangleCount())
	}
	min, max := sdfx.Bounds(m)
	if !near(min[1], 0.5) || !near(max[1], 0.75) {
		t.Errorf("height range = %.3f..%.3f, want 0.5..0.75", min[1], max[1])
	}
	if !near(min[0], 0) || !near(max[2], 2) {
		t.Errorf("bounds = %v..%v", min, max)
	}
}

func TestPartWithTransform(t *testing.T) {
	g := graph.New()
	box := makeCuboid("shelf", 1, 2, 3)
	g.AddNode(box)
	place := makePlace("shelf", mgl64.Vec3{10, 20, 30}, nil, box.ID)
	g.AddNode(place)
	g.AddRoot(place.ID)

	meshes, err := tessellate.Tessellate(g, nil)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	min, max := sdfx.Bounds(meshes[0])
	wantMin := [3]float64{10, 20, 30}
	wantMax := [3]float64{11, 22, 33}
	for i := range 3 {
		if !near(min[i], wantMin[i]) || !near(max[i], wantMax[i]) {
			t.Fatalf("bounds = %v..%v, want %v..%v", min, max, wantMin, wantMax)
		}
	}
}

func TestNestedTransforms(t *testing.T) {
	g := graph.New()
	box := makeCuboid("block", 1, 1, 1)
	g.AddNode(box)

	// Rotating 90 degrees about Y maps (x, y, z) to (z, y, -x).
	rot := mgl64.Vec3{0, 90, 0}
	inner := makePlace("inner", mgl64.Vec3{}, &rot, box.ID)
	g.AddNode(inner)
	outer := makePlace("outer", mgl64.Vec3{5, 0, 0}, nil, inner.ID)
	g.AddNode(outer)
	g.AddRoot(outer.ID)

	meshes, err := tessellate.Tessellate(g, nil)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	min, max := sdfx.Bounds(meshes[0])
	wantMin := [3]float64{5, 0, -1}
	wantMax := [3]float64{6, 1, 0}
	for i := range 3 {
		if !near(min[i], wantMin[i]) || !near(max[i], wantMax[i]) {
			t.Fatalf("bounds = %v..%v, want %v..%v", min, max, wantMin, wantMax)
		}
	}
}

func TestTransformDoesNotLeak(t *testing.T) {
	g := graph.New()
	moved := makeCuboid("moved", 1, 1, 1)
	still := makeCuboid("still", 1, 1, 1)
	g.AddNode(moved)
	g.AddNode(still)
	place := makePlace("moved", mgl64.Vec3{100, 0, 0}, nil, moved.ID)
	g.AddNode(place)
	scene := makeGroup("scene", place.ID, still.ID)
	g.AddNode(scene)
	g.AddRoot(scene.ID)

	meshes, err := tessellate.Tessellate(g, nil)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	if min, _ := sdfx.Bounds(meshes[1]); min != [3]float64{} {
		t.Errorf("sibling after a transform starts at %v, want origin", min)
	}
}

func TestAssembly(t *testing.T) {
	g := graph.New()

	base := makeCuboid("base", 2, 0.2, 2)
	stem := makeLathe("stem", 8, mgl64.Vec2{0.2, 0}, mgl64.Vec2{0.2, 1})
	shade := makeLathe("shade", 8, mgl64.Vec2{0.8, 0}, mgl64.Vec2{0.3, 0.6})
	g.AddNode(base)
	g.AddNode(stem)
	g.AddNode(shade)

	placeStem := makePlace("stem", mgl64.Vec3{1, 0.2, 1}, nil, stem.ID)
	placeShade := makePlace("shade", mgl64.Vec3{1, 1.2, 1}, nil, shade.ID)
	g.AddNode(placeStem)
	g.AddNode(placeShade)

	lamp := makeGroup("lamp", base.ID, placeStem.ID, placeShade.ID)
	g.AddNode(lamp)
	g.AddRoot(lamp.ID)

	meshes, err := tessellate.Tessellate(g, sdfx.New())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}

	got := strings.Join(tessellate.PartNames(meshes), ",")
	if got != "base,stem,shade" {
		t.Errorf("part order = %s, want base,stem,shade", got)
	}
	for _, m := range meshes {
		if m.IsEmpty() {
			t.Errorf("mesh %q should not be empty", m.PartName)
		}
	}
}

func TestDefaultMeshOptions(t *testing.T) {
	g := graph.New()
	g.Defaults.Mesh.DoubleSided = true

	plain := makeCuboid("plain", 1, 1, 1)
	own := &graph.Node{
		ID:   graph.NewNodeID("cuboid/own"),
		Kind: graph.NodePrimitive,
		Name: "own",
		Data: graph.CuboidData{
			Size: mgl64.Vec3{1, 1, 1},
			Mesh: graph.MeshOptions{TextureSize: mgl64.Vec2{2, 2}},
		},
	}
	g.AddNode(plain)
	g.AddNode(own)
	g.AddRoot(plain.ID)
	g.AddRoot(own.ID)

	meshes, err := tessellate.Tessellate(g, nil)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if n := meshes[0].TriangleCount(); n != 24 {
		t.Errorf("part without options: %d triangles, want 24 (double-sided default)", n)
	}
	if n := meshes[1].TriangleCount(); n != 12 {
		t.Errorf("part with own options: %d triangles, want 12", n)
	}
}

func TestValidationErrorAborts(t *testing.T) {
	g := graph.New()
	flat := makeCuboid("flat", 1, 0, 1)
	g.AddNode(flat)
	g.AddRoot(flat.ID)

	meshes, err := tessellate.Tessellate(g, nil)
	if err == nil {
		t.Fatal("expected an error for a zero-height cuboid")
	}
	if meshes != nil {
		t.Errorf("expected no meshes, got %d", len(meshes))
	}
	if !strings.Contains(err.Error(), "dimension Y") {
		t.Errorf("error %q should name the failing check", err)
	}
}

func TestEmptyGraph(t *testing.T) {
	meshes, err := tessellate.Tessellate(graph.New(), nil)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 0 {
		t.Fatalf("expected 0 meshes, got %d", len(meshes))
	}

	meshes, err = tessellate.Tessellate(nil, nil)
	if err != nil || meshes != nil {
		t.Errorf("nil graph: meshes=%v err=%v", meshes, err)
	}
}
