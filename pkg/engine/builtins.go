package engine

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/chazu/lathe/pkg/graph"
	"github.com/chazu/lathe/pkg/shapes"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/go-gl/mathgl/mgl64"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms lathe script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: uv-range -> uv_range
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec2 wraps a 2D vector: a profile point, UV offset or texture size.
type sexpVec2 struct {
	vec mgl64.Vec2
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.vec[0], v.vec[1])
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a 3D vector.
type sexpVec3 struct {
	vec mgl64.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpProfile wraps an ordered list of (radius, height) points.
type sexpProfile struct {
	points []mgl64.Vec2
}

func (p *sexpProfile) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(profile %d points)", len(p.points))
}
func (p *sexpProfile) Type() *zygo.RegisteredType { return nil }

// sexpSegment wraps a profile with its twist rate.
type sexpSegment struct {
	seg graph.LatheSegment
}

func (s *sexpSegment) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(segment %d points :twist %v)", len(s.seg.Profile), s.seg.Twist)
}
func (s *sexpSegment) Type() *zygo.RegisteredType { return nil }

// sexpUVRange wraps a texture tiling range.
type sexpUVRange struct {
	spec graph.UVRangeSpec
}

func (r *sexpUVRange) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(uv-range %gx%g %dx%d)", r.spec.Width, r.spec.Height, r.spec.RepeatU, r.spec.RepeatV)
}
func (r *sexpUVRange) Type() *zygo.RegisteredType { return nil }

// sexpPrimitive wraps primitive part data so it can be returned from
// `lathe`, `cuboid`, `polygon` or `mushroom` and consumed by `defpart`.
type sexpPrimitive struct {
	data graph.NodeData
}

func (p *sexpPrimitive) SexpString(ps *zygo.PrintState) string {
	switch d := p.data.(type) {
	case graph.LatheData:
		return fmt.Sprintf("(lathe %d segments)", len(d.Segments))
	case graph.CuboidData:
		return fmt.Sprintf("(cuboid %gx%gx%g)", d.Size[0], d.Size[1], d.Size[2])
	case graph.PolygonData:
		return fmt.Sprintf("(polygon %d points)", len(d.Points))
	}
	return fmt.Sprintf("(primitive %T)", p.data)
}
func (p *sexpPrimitive) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: a flag.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// kwFloat reads keyword key as a number into dst when present.
func (pa kwArgs) kwFloat(fn, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = f
	return nil
}

// kwInt reads keyword key as an integer into dst when present.
func (pa kwArgs) kwInt(fn, key string, dst *int) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = n
	return nil
}

// kwVec2 reads keyword key as a vec2 into dst when present.
func (pa kwArgs) kwVec2(fn, key string, dst *mgl64.Vec2) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	vec, err := toVec2(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = vec
	return nil
}

// kwVec3 reads keyword key as a vec3 into dst when present.
func (pa kwArgs) kwVec3(fn, key string, dst *mgl64.Vec3) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, key, err)
	}
	*dst = vec
	return nil
}

// meshOptions reads the mesh builder keywords shared by every primitive:
// :double-sided, :texture-size, :uv-origin, :uv-offset and :uv-range.
func (pa kwArgs) meshOptions(fn string, m *graph.MeshOptions) error {
	if v, ok := pa.kw["double-sided"]; ok {
		b, err := toBool(v)
		if err != nil {
			return fmt.Errorf("%s: double-sided: %w", fn, err)
		}
		m.DoubleSided = b
	}
	if err := pa.kwVec2(fn, "texture-size", &m.TextureSize); err != nil {
		return err
	}
	if err := pa.kwVec3(fn, "uv-origin", &m.UVOrigin); err != nil {
		return err
	}
	if err := pa.kwVec2(fn, "uv-offset", &m.UVOffset); err != nil {
		return err
	}
	if v, ok := pa.kw["uv-range"]; ok {
		r, ok := v.(*sexpUVRange)
		if !ok {
			return fmt.Errorf("%s: uv-range: expected uv-range, got %T (%s)", fn, v, v.SexpString(nil))
		}
		spec := r.spec
		m.UVRange = &spec
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a Sexp. Floats are accepted when they hold
// a whole number.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean. A trailing flag keyword (nil value) is true,
// as is any non-zero number.
func toBool(s zygo.Sexp) (bool, error) {
	if s == zygo.SexpNull {
		return true, nil
	}
	if f, err := toFloat64(s); err == nil {
		return f != 0, nil
	}
	switch s.SexpString(nil) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (graph.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return graph.ZeroID, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// toVec2 extracts a Vec2 from a sexpVec2.
func toVec2(s zygo.Sexp) (mgl64.Vec2, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return mgl64.Vec2{}, fmt.Errorf("expected vec2, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (mgl64.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toPoints flattens args into 2D points. Each arg is a vec2, a profile, a
// list of vec2s, or a number paired with the number after it.
func toPoints(args []zygo.Sexp) ([]mgl64.Vec2, error) {
	var pts []mgl64.Vec2
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case *sexpVec2:
			pts = append(pts, v.vec)
		case *sexpProfile:
			pts = append(pts, v.points...)
		case *zygo.SexpInt, *zygo.SexpFloat:
			if i+1 >= len(args) {
				return nil, fmt.Errorf("point %d: radius %s has no height", len(pts), v.SexpString(nil))
			}
			r, _ := toFloat64(v)
			h, err := toFloat64(args[i+1])
			if err != nil {
				return nil, fmt.Errorf("point %d: height: %w", len(pts), err)
			}
			pts = append(pts, mgl64.Vec2{r, h})
			i++
		default:
			items, err := sexpListToSlice(v)
			if err != nil {
				return nil, fmt.Errorf("point %d: expected vec2, profile or number, got %T (%s)", len(pts), v, v.SexpString(nil))
			}
			nested, err := toPoints(items)
			if err != nil {
				return nil, err
			}
			pts = append(pts, nested...)
		}
	}
	return pts, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Node ID generation
// ---------------------------------------------------------------------------

// nodeCounter provides unique suffixes for anonymous nodes.
var nodeCounter uint64

func nextNodeSuffix() string {
	n := atomic.AddUint64(&nodeCounter, 1)
	return fmt.Sprintf("_anon_%d", n)
}

// addPart adds a named primitive to g and returns a reference to it.
func addPart(g *graph.DesignGraph, partName string, data graph.NodeData) *sexpNodeRef {
	id := graph.NewNodeID("part/" + partName)
	g.AddNode(&graph.Node{
		ID:   id,
		Kind: graph.NodePrimitive,
		Name: partName,
		Data: data,
	})
	return &sexpNodeRef{id: id, name: partName}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all DSL builtins into a zygomys environment.
// The builtins operate on the provided DesignGraph, populating it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, g *graph.DesignGraph) {

	// -----------------------------------------------------------------------
	// (vec2 0.5 1)
	// -----------------------------------------------------------------------
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
		}

		return &sexpVec2{vec: mgl64.Vec2{x, y}}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: mgl64.Vec3{x, y, z}}, nil
	})

	// -----------------------------------------------------------------------
	// (profile (vec2 1 0) (vec2 1.2 1) ...)  or  (profile 1 0 1.2 1 ...)
	// (profile :column 0.2 :from 0 :to 1 :points 10)
	// -----------------------------------------------------------------------
	env.AddFunction("profile", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		pts, err := toPoints(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("profile: %w", err)
		}

		if _, ok := pa.kw["column"]; ok {
			var radius, from, to float64
			n := 2
			for _, f := range []struct {
				key string
				dst *float64
			}{{"column", &radius}, {"from", &from}, {"to", &to}} {
				if err := pa.kwFloat("profile", f.key, f.dst); err != nil {
					return zygo.SexpNull, err
				}
			}
			if err := pa.kwInt("profile", "points", &n); err != nil {
				return zygo.SexpNull, err
			}
			pts = append(pts, shapes.Column(radius, from, to, n)...)
		}

		return &sexpProfile{points: pts}, nil
	})

	// -----------------------------------------------------------------------
	// (segment (profile ...) :twist (vec3 5 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("segment", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		pts, err := toPoints(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("segment: %w", err)
		}
		seg := graph.LatheSegment{Profile: pts}
		if err := pa.kwVec3("segment", "twist", &seg.Twist); err != nil {
			return zygo.SexpNull, err
		}

		return &sexpSegment{seg: seg}, nil
	})

	// -----------------------------------------------------------------------
	// (uv-range :x 0 :y 0 :width 1 :height 1 :repeat-u 1 :repeat-v 4)
	// -----------------------------------------------------------------------
	env.AddFunction("uv_range", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		spec := graph.UVRangeSpec{Width: 1, Height: 1, RepeatU: 1, RepeatV: 1}

		for _, f := range []struct {
			key string
			dst *float64
		}{{"x", &spec.X}, {"y", &spec.Y}, {"width", &spec.Width}, {"height", &spec.Height}} {
			if err := pa.kwFloat("uv-range", f.key, f.dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		if err := pa.kwInt("uv-range", "repeat-u", &spec.RepeatU); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.kwInt("uv-range", "repeat-v", &spec.RepeatV); err != nil {
			return zygo.SexpNull, err
		}

		return &sexpUVRange{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (lathe :splines 16 (segment ...) (profile ...) :twist (vec3 0 10 0))
	//
	// Bare profiles become segments twisted by :twist.
	// -----------------------------------------------------------------------
	env.AddFunction("lathe", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ld := graph.LatheData{}

		if err := pa.kwInt("lathe", "splines", &ld.Splines); err != nil {
			return zygo.SexpNull, err
		}
		var twist mgl64.Vec3
		if err := pa.kwVec3("lathe", "twist", &twist); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.meshOptions("lathe", &ld.Mesh); err != nil {
			return zygo.SexpNull, err
		}

		for i, arg := range pa.positional {
			switch v := arg.(type) {
			case *sexpSegment:
				ld.Segments = append(ld.Segments, v.seg)
			case *sexpProfile:
				ld.Segments = append(ld.Segments, graph.LatheSegment{Profile: v.points, Twist: twist})
			default:
				return zygo.SexpNull, fmt.Errorf("lathe: argument %d: expected segment or profile, got %T (%s)",
					i, arg, arg.SexpString(nil))
			}
		}

		return &sexpPrimitive{data: ld}, nil
	})

	// -----------------------------------------------------------------------
	// (cuboid :size (vec3 2 0.1 1))
	// -----------------------------------------------------------------------
	env.AddFunction("cuboid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		cd := graph.CuboidData{Size: mgl64.Vec3{1, 1, 1}}

		if err := pa.kwVec3("cuboid", "size", &cd.Size); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.meshOptions("cuboid", &cd.Mesh); err != nil {
			return zygo.SexpNull, err
		}

		return &sexpPrimitive{data: cd}, nil
	})

	// -----------------------------------------------------------------------
	// (polygon (vec2 0 0) (vec2 0 1) (vec2 1 0) :height 0.5 :depth 0.2)
	// -----------------------------------------------------------------------
	env.AddFunction("polygon", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pd := graph.PolygonData{}

		pts, err := toPoints(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("polygon: %w", err)
		}
		pd.Points = pts
		if err := pa.kwFloat("polygon", "height", &pd.Height); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.kwFloat("polygon", "depth", &pd.Depth); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.meshOptions("polygon", &pd.Mesh); err != nil {
			return zygo.SexpNull, err
		}

		return &sexpPrimitive{data: pd}, nil
	})

	// -----------------------------------------------------------------------
	// (mushroom :stem-height 1 :stem-twist (vec3 5 0 0) :cap-radius 1 ...)
	// -----------------------------------------------------------------------
	env.AddFunction("mushroom", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		m := shapes.DefaultMushroom()

		for _, f := range []struct {
			key string
			dst *float64
		}{
			{"stem-height", &m.StemHeight},
			{"stem-radius", &m.StemRadius},
			{"cap-height", &m.CapHeight},
			{"cap-radius", &m.CapRadius},
		} {
			if err := pa.kwFloat("mushroom", f.key, f.dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		for _, f := range []struct {
			key string
			dst *int
		}{
			{"stem-segments", &m.StemSegments},
			{"cap-segments", &m.CapSegments},
			{"splines", &m.Splines},
		} {
			if err := pa.kwInt("mushroom", f.key, f.dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		if err := pa.kwVec3("mushroom", "stem-twist", &m.StemTwist); err != nil {
			return zygo.SexpNull, err
		}
		if err := m.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("mushroom: %w", err)
		}

		ld := graph.LatheData{
			Splines: m.Splines,
			Segments: []graph.LatheSegment{
				{Profile: m.StemProfile(), Twist: m.StemTwist},
				{Profile: m.CapProfile()},
			},
		}
		if err := pa.meshOptions("mushroom", &ld.Mesh); err != nil {
			return zygo.SexpNull, err
		}

		return &sexpPrimitive{data: ld}, nil
	})

	// -----------------------------------------------------------------------
	// (defpart "name" (lathe ...))
	// -----------------------------------------------------------------------
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name and a body expression")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}

		body, ok := args[1].(*sexpPrimitive)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("defpart: expected lathe, cuboid, polygon or mushroom expression, got %T", args[1])
		}

		return addPart(g, partName, body.data), nil
	})

	// -----------------------------------------------------------------------
	// (part "name")
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}

		n := g.Lookup(partName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
		}

		return &sexpNodeRef{id: n.ID, name: partName}, nil
	})

	// -----------------------------------------------------------------------
	// (defaults :splines 24 :double-sided true :texture-size (vec2 2 2))
	// -----------------------------------------------------------------------
	env.AddFunction("defaults", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		if err := pa.kwInt("defaults", "splines", &g.Defaults.Splines); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.meshOptions("defaults", &g.Defaults.Mesh); err != nil {
			return zygo.SexpNull, err
		}

		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (place (part "vase") :at (vec3 0 1 0) :rotate (vec3 0 45 0))
	//
	// An unnamed primitive (place (cuboid ...)) becomes an anonymous part.
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a part reference as first argument")
		}

		var childID graph.NodeID
		if prim, ok := pa.positional[0].(*sexpPrimitive); ok {
			childID = addPart(g, nextNodeSuffix(), prim.data).id
		} else {
			id, err := toNodeRef(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: part: %w", err)
			}
			childID = id
		}

		td := graph.TransformData{}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			td.Translation = &vec
		}
		if v, ok := pa.kw["rotate"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
			}
			td.Rotation = &vec
		}

		// Anonymous: the same part may be placed more than once.
		id := graph.NewNodeID("place/" + nextNodeSuffix())
		node := &graph.Node{
			ID:       id,
			Kind:     graph.NodeTransform,
			Children: []graph.NodeID{childID},
			Data:     td,
		}
		g.AddNode(node)

		return &sexpNodeRef{id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (assembly "name" (place ...) (part "base") ...)
	// -----------------------------------------------------------------------
	env.AddFunction("assembly", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
		}

		asmName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
		}

		var children []graph.NodeID
		for i := 1; i < len(args); i++ {
			ref, ok := args[i].(*sexpNodeRef)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("assembly: child %d: expected node reference, got %T (%s)",
					i, args[i], args[i].SexpString(nil))
			}
			children = append(children, ref.id)
		}

		id := graph.NewNodeID("assembly/" + asmName)
		node := &graph.Node{
			ID:       id,
			Kind:     graph.NodeGroup,
			Name:     asmName,
			Children: children,
			Data:     graph.GroupData{},
		}
		g.AddNode(node)
		g.AddRoot(id)

		return &sexpNodeRef{id: id, name: asmName}, nil
	})
}
