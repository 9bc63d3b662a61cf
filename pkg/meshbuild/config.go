package meshbuild

import (
	"github.com/chazu/lathe/pkg/kernel"
	"github.com/go-gl/mathgl/mgl64"
)

// Range1D is a closed-open interval [Min, Max) on one axis.
type Range1D struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Lerp maps t in [0,1] linearly onto the range. t is not clamped.
func (r Range1D) Lerp(t float64) float64 {
	return r.Min + (r.Max-r.Min)*t
}

// Contains reports whether Min <= v < Max.
func (r Range1D) Contains(v float64) bool {
	return v >= r.Min && v < r.Max
}

// Span returns Max - Min.
func (r Range1D) Span() float64 {
	return r.Max - r.Min
}

// Rect is an axis-aligned rectangle in UV space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// UVRange is a region of a texture plus how many times the texture repeats
// inside it in each direction.
type UVRange struct {
	Rect              Rect `json:"rect"`
	RepeatsHorizontal int  `json:"repeatsHorizontal"`
	RepeatsVertical   int  `json:"repeatsVertical"`
}

// NewUVRange returns a range over rect with one repeat in each direction.
func NewUVRange(rect Rect) UVRange {
	return UVRange{Rect: rect, RepeatsHorizontal: 1, RepeatsVertical: 1}
}

// Horizontal returns the U extent of the range.
func (r UVRange) Horizontal() Range1D {
	return Range1D{Min: r.Rect.X, Max: r.Rect.X + r.Rect.Width}
}

// Vertical returns the V extent of the range.
func (r UVRange) Vertical() Range1D {
	return Range1D{Min: r.Rect.Y, Max: r.Rect.Y + r.Rect.Height}
}

// UVWrap is the optional tiling range. The zero value means wrapping is
// disabled.
type UVWrap struct {
	rng     UVRange
	enabled bool
}

// NoWrap returns a disabled UVWrap.
func NoWrap() UVWrap {
	return UVWrap{}
}

// WrapWithin enables UV remapping and wrap-shifting within r.
func WrapWithin(r UVRange) UVWrap {
	return UVWrap{rng: r, enabled: true}
}

// Range returns the configured range and whether wrapping is enabled.
func (w UVWrap) Range() (UVRange, bool) {
	return w.rng, w.enabled
}

// Config holds every recognized builder option.
type Config struct {
	IsDoubleSided      bool       // mirror every triangle with cloned vertices
	Offset             mgl64.Vec3 // added to every position passed to AddVertex
	TextureSizeInUnits mgl64.Vec2 // world size of one texture repeat for automatic UVs
	AutomaticUVOrigin  mgl64.Vec3
	AutomaticUVOffset  mgl64.Vec2
	AutomaticUVRange   UVWrap

	// TriangleSubdivisionEnabled is accepted and reset like every other
	// option but has no effect on output.
	TriangleSubdivisionEnabled bool
}

// DefaultConfig returns the configuration a new or reset builder has.
func DefaultConfig() Config {
	return Config{
		TextureSizeInUnits: mgl64.Vec2{1, 1},
	}
}

// uvRangeY is the vertical range used for remapping; identity when
// wrapping is disabled.
func (c Config) uvRangeY() Range1D {
	if r, ok := c.AutomaticUVRange.Range(); ok {
		return r.Vertical()
	}
	return Range1D{Min: 0, Max: 1}
}

// Option configures a Builder during creation.
type Option func(*Builder)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(b *Builder) {
		b.cfg = cfg
	}
}

// WithDoubleSided makes every triangle addition also emit its mirror.
func WithDoubleSided(on bool) Option {
	return func(b *Builder) {
		b.cfg.IsDoubleSided = on
	}
}

// WithOffset translates every vertex added afterwards.
func WithOffset(offset mgl64.Vec3) Option {
	return func(b *Builder) {
		b.cfg.Offset = offset
	}
}

// WithTextureSize sets the world size of one texture repeat used by
// automatic UV projection.
func WithTextureSize(size mgl64.Vec2) Option {
	return func(b *Builder) {
		b.cfg.TextureSizeInUnits = size
	}
}

// WithUVOrigin sets the world point that maps to the automatic UV offset.
func WithUVOrigin(origin mgl64.Vec3) Option {
	return func(b *Builder) {
		b.cfg.AutomaticUVOrigin = origin
	}
}

// WithUVOffset sets the UV added to every projected coordinate.
func WithUVOffset(offset mgl64.Vec2) Option {
	return func(b *Builder) {
		b.cfg.AutomaticUVOffset = offset
	}
}

// WithUVRange enables vertical UV remapping and wrap-shifting within r.
func WithUVRange(r UVRange) Option {
	return func(b *Builder) {
		b.cfg.AutomaticUVRange = WrapWithin(r)
	}
}

// WithTriangleSubdivision sets the reserved subdivision flag.
func WithTriangleSubdivision(on bool) Option {
	return func(b *Builder) {
		b.cfg.TriangleSubdivisionEnabled = on
	}
}

// WithCapacity pre-sizes the vertex buffers for about n vertices and the
// index buffer for 3n indices.
func WithCapacity(n int) Option {
	return func(b *Builder) {
		b.vertices = make([]mgl64.Vec3, 0, n)
		b.uvs = make([]mgl64.Vec2, 0, n)
		b.triangles = make([]int, 0, n*3)
	}
}

// WithNormalRecalculator sets the collaborator used on finalize when
// normals are requested but were not supplied explicitly. It is not part
// of Config and survives Reset.
func WithNormalRecalculator(nr kernel.NormalRecalculator) Option {
	return func(b *Builder) {
		b.recalc = nr
	}
}
