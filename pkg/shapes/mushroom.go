// Package shapes generates profiles for common revolved shapes and builds
// them with the lathe.
package shapes

import (
	"fmt"
	"math"

	"github.com/chazu/lathe/pkg/kernel"
	"github.com/chazu/lathe/pkg/lathe"
	"github.com/chazu/lathe/pkg/meshbuild"
	"github.com/go-gl/mathgl/mgl64"
)

// Mushroom describes a twisted stem topped by a dome-shaped cap.
type Mushroom struct {
	StemHeight   float64    `json:"stemHeight"`
	StemSegments int        `json:"stemSegments"`
	StemRadius   float64    `json:"stemRadius"`
	StemTwist    mgl64.Vec3 `json:"stemTwist"` // Euler degrees per unit of height
	CapHeight    float64    `json:"capHeight"`
	CapRadius    float64    `json:"capRadius"`
	CapSegments  int        `json:"capSegments"`
	Splines      int        `json:"splines"`
}

// DefaultMushroom returns the standard mushroom parameters.
func DefaultMushroom() Mushroom {
	return Mushroom{
		StemHeight:   1,
		StemSegments: 10,
		StemRadius:   0.2,
		StemTwist:    mgl64.Vec3{5, 0, 0},
		CapHeight:    1,
		CapRadius:    1,
		CapSegments:  5,
		Splines:      10,
	}
}

// Validate checks that each profile has at least two points and that the
// lathe has at least three splines.
func (m Mushroom) Validate() error {
	switch {
	case m.StemSegments < 2:
		return fmt.Errorf("%w: mushroom stem needs at least 2 segments, got %d", meshbuild.ErrPrecondition, m.StemSegments)
	case m.CapSegments < 2:
		return fmt.Errorf("%w: mushroom cap needs at least 2 segments, got %d", meshbuild.ErrPrecondition, m.CapSegments)
	case m.Splines < 3:
		return fmt.Errorf("%w: mushroom needs at least 3 splines, got %d", meshbuild.ErrPrecondition, m.Splines)
	}
	return nil
}

// StemProfile returns StemSegments evenly spaced points at StemRadius from
// height 0 to StemHeight.
func (m Mushroom) StemProfile() []mgl64.Vec2 {
	return Column(m.StemRadius, 0, m.StemHeight, m.StemSegments)
}

// CapProfile returns CapSegments points rising from the stem top, with
// radius shrinking as sqrt(1-t) to a closed tip.
func (m Mushroom) CapProfile() []mgl64.Vec2 {
	pts := make([]mgl64.Vec2, m.CapSegments)
	for i := range pts {
		t := float64(i) / float64(m.CapSegments-1)
		pts[i] = mgl64.Vec2{
			math.Sqrt(1-t) * m.CapRadius,
			m.StemHeight + t*m.CapHeight,
		}
	}
	return pts
}

// AddTo adds the stem and then the cap to b. The cap continues from the
// twisted top of the stem.
func (m Mushroom) AddTo(b *lathe.Builder) {
	b.Add(m.StemProfile(), m.StemTwist)
	b.Add(m.CapProfile(), mgl64.Vec3{})
}

// Build validates m and returns its mesh. opts configure the lathe's mesh
// builder.
func (m Mushroom) Build(opts ...meshbuild.Option) (*kernel.Mesh, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	b := lathe.New(m.Splines, opts...)
	m.AddTo(b)
	return b.CreateMesh(), nil
}

// Column returns n points at radius spaced evenly from height from to to.
// A single point sits at from.
func Column(radius, from, to float64, n int) []mgl64.Vec2 {
	pts := make([]mgl64.Vec2, max(n, 0))
	for i := range pts {
		h := from
		if n > 1 {
			h = from + (to-from)*float64(i)/float64(n-1)
		}
		pts[i] = mgl64.Vec2{radius, h}
	}
	return pts
}
