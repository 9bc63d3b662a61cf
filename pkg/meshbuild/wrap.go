package meshbuild

import (
	"math"

	"github.com/samber/lo"
)

// shiftUVsTowardsOrigin moves the V coordinates of a face by whole texture
// tiles so the face sits near the middle tile of the configured range.
// Faces with any vertex already inside the range are left alone.
func (b *Builder) shiftUVsTowardsOrigin(indices ...int) {
	rng, ok := b.cfg.AutomaticUVRange.Range()
	if !ok {
		return
	}
	indices = lo.Uniq(indices)
	ry := rng.Vertical()
	if lo.SomeBy(indices, func(i int) bool { return ry.Contains(b.uvs[i][1]) }) {
		return
	}

	tiles := max(rng.RepeatsVertical, 1)
	tile := ry.Span() / float64(tiles)
	if tile <= 0 {
		return
	}
	target := ry.Lerp(float64(tiles/2) / float64(tiles))

	vs := lo.Map(indices, func(i int, _ int) float64 { return b.uvs[i][1] })
	current := (lo.Max(vs) + lo.Min(vs)) / 2

	var shift float64
	switch {
	case current < target:
		shift = math.Floor((target-current)/tile) * tile
	case current > target:
		shift = -math.Floor((current-target)/tile) * tile
	}
	if shift == 0 {
		return
	}
	for _, i := range indices {
		b.uvs[i][1] += shift
	}
}
