package graph

import (
	"fmt"
	"math"

	"github.com/chazu/lathe/pkg/meshbuild"
	"github.com/go-gl/mathgl/mgl64"
)

// ---------------------------------------------------------------------------
// Tier 2: Geometric validation (errors + warnings)
// ---------------------------------------------------------------------------

// The mesh builders do not guard against degenerate input, so these checks
// are the only place it is caught.

// validateGeometry runs all Tier 2 geometric checks.
// Returns errors (blocking) and warnings (advisory) separately.
func validateGeometry(g *DesignGraph) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	for _, e := range validateMeshOptions(ZeroID, g.Defaults.Mesh) {
		e.Message = "defaults: " + e.Message
		errs = append(errs, e)
	}

	for _, id := range g.Order {
		node := g.Nodes[id]
		var e []ValidationError
		var w []ValidationWarning
		switch d := node.Data.(type) {
		case LatheData:
			e, w = validateLathe(node.ID, d, g.Defaults.Splines)
			e = append(e, validateMeshOptions(node.ID, d.Mesh)...)
		case CuboidData:
			e = validateCuboid(node.ID, d)
			e = append(e, validateMeshOptions(node.ID, d.Mesh)...)
		case PolygonData:
			e = validatePolygon(node.ID, d)
			e = append(e, validateMeshOptions(node.ID, d.Mesh)...)
		}
		errs = append(errs, e...)
		warnings = append(warnings, w...)
	}

	return errs, warnings
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// validateLathe checks spline count, profile presence, radii and height
// ordering of a lathe part. A part without its own spline count is checked
// against defaultSplines, the count it will be built with.
func validateLathe(id NodeID, d LatheData, defaultSplines int) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	switch {
	case d.Splines != 0 && d.Splines < 3:
		errs = append(errs, ValidationError{
			NodeID:   id,
			Message:  fmt.Sprintf("lathe splines is %d, must be at least 3", d.Splines),
			Severity: SeverityError,
		})
	case d.Splines == 0 && defaultSplines < 3:
		errs = append(errs, ValidationError{
			NodeID:   id,
			Message:  fmt.Sprintf("lathe splines is %d from defaults, must be at least 3", defaultSplines),
			Severity: SeverityError,
		})
	}
	if d.PointCount() == 0 {
		errs = append(errs, ValidationError{
			NodeID:   id,
			Message:  "lathe has no profile points",
			Severity: SeverityError,
		})
	}

	for si, seg := range d.Segments {
		if !finite(seg.Twist[0], seg.Twist[1], seg.Twist[2]) {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("lathe segment %d twist %v is not finite", si, seg.Twist),
				Severity: SeverityError,
			})
		}
		for pi, p := range seg.Profile {
			if !finite(p[0], p[1]) {
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  fmt.Sprintf("lathe segment %d point %d %v is not finite", si, pi, p),
					Severity: SeverityError,
				})
				continue
			}
			if p[0] < 0 {
				errs = append(errs, ValidationError{
					NodeID:   id,
					Message:  fmt.Sprintf("lathe segment %d point %d radius is %.4f, must not be negative", si, pi, p[0]),
					Severity: SeverityError,
				})
			}
			if pi > 0 && p[1] <= seg.Profile[pi-1][1] {
				warnings = append(warnings, ValidationWarning{
					NodeID:  id,
					Message: fmt.Sprintf("lathe segment %d point %d height %.4f does not rise above the previous point; rings may fold", si, pi, p[1]),
				})
			}
		}
	}

	return errs, warnings
}

// validateCuboid checks that every dimension of a cuboid is positive.
func validateCuboid(id NodeID, d CuboidData) []ValidationError {
	var errs []ValidationError

	for axis, name := range []string{"X", "Y", "Z"} {
		if !(d.Size[axis] > 0) || !finite(d.Size[axis]) {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cuboid dimension %s is %.4f, must be positive", name, d.Size[axis]),
				Severity: SeverityError,
			})
		}
	}

	return errs
}

// validatePolygon checks that a polygon can be ear-clipped, which requires
// at least three points forming a simple clockwise outline.
func validatePolygon(id NodeID, d PolygonData) []ValidationError {
	if !finite(d.Height, d.Depth) || d.Depth < 0 {
		return []ValidationError{{
			NodeID:   id,
			Message:  fmt.Sprintf("polygon height %v and depth %v must be finite, depth not negative", d.Height, d.Depth),
			Severity: SeverityError,
		}}
	}
	if len(d.Points) < 3 {
		return []ValidationError{{
			NodeID:   id,
			Message:  fmt.Sprintf("polygon has %d points, needs at least 3", len(d.Points)),
			Severity: SeverityError,
		}}
	}
	if _, err := meshbuild.Triangulate(d.Points); err != nil {
		return []ValidationError{{
			NodeID:   id,
			Message:  fmt.Sprintf("polygon cannot be triangulated (points must be simple and clockwise): %v", err),
			Severity: SeverityError,
		}}
	}
	return nil
}

// validateMeshOptions checks texture size and UV range settings.
func validateMeshOptions(id NodeID, m MeshOptions) []ValidationError {
	var errs []ValidationError

	if m.TextureSize != (mgl64.Vec2{}) && !(m.TextureSize[0] > 0 && m.TextureSize[1] > 0) {
		errs = append(errs, ValidationError{
			NodeID:   id,
			Message:  fmt.Sprintf("texture size %v must be positive in both directions", m.TextureSize),
			Severity: SeverityError,
		})
	}
	if r := m.UVRange; r != nil {
		if r.RepeatU < 1 || r.RepeatV < 1 {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("uv range repeats %dx%d, must be at least 1x1", r.RepeatU, r.RepeatV),
				Severity: SeverityError,
			})
		}
		if !(r.Width > 0 && r.Height > 0) {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("uv range size %.4fx%.4f must be positive", r.Width, r.Height),
				Severity: SeverityError,
			})
		}
	}

	return errs
}
