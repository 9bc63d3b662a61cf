package lathe

import "github.com/go-gl/mathgl/mgl64"

// ProfileNormals returns the outward 2D normal of a (radius, height)
// profile at each point. End points take the normal of their single edge;
// interior points average the normals of both adjacent edges.
func ProfileNormals(profile []mgl64.Vec2) []mgl64.Vec2 {
	normals := make([]mgl64.Vec2, len(profile))
	switch len(profile) {
	case 0:
		return normals
	case 1:
		normals[0] = mgl64.Vec2{1, 0}
		return normals
	}

	edges := make([]mgl64.Vec2, len(profile)-1)
	for i := range edges {
		edges[i] = edgeNormal(profile[i], profile[i+1])
	}
	normals[0] = edges[0]
	normals[len(normals)-1] = edges[len(edges)-1]
	for i := 1; i < len(profile)-1; i++ {
		sum := edges[i-1].Add(edges[i])
		if sum.Len() < 1e-12 {
			// edges fold back onto each other
			normals[i] = edges[i-1]
			continue
		}
		normals[i] = sum.Normalize()
	}
	return normals
}

// edgeNormal is the unit perpendicular to a->b pointing away from the
// axis for an upward edge.
func edgeNormal(a, b mgl64.Vec2) mgl64.Vec2 {
	d := b.Sub(a)
	p := mgl64.Vec2{d[1], -d[0]}
	if l := p.Len(); l > 0 {
		return p.Mul(1 / l)
	}
	return mgl64.Vec2{1, 0}
}
