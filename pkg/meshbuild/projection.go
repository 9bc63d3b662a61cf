package meshbuild

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	worldUp      = mgl64.Vec3{0, 1, 0}
	worldForward = mgl64.Vec3{0, 0, 1}
	worldBack    = mgl64.Vec3{0, 0, -1}
)

// FaceNormal returns the unit normal of the triangle p0 p1 p2, following
// (p1-p0) x (p2-p0). Degenerate triangles give the zero vector.
func FaceNormal(p0, p1, p2 mgl64.Vec3) mgl64.Vec3 {
	n := p1.Sub(p0).Cross(p2.Sub(p0))
	if l := n.Len(); l > 0 {
		return n.Mul(1 / l)
	}
	return mgl64.Vec3{}
}

// lookRotation returns the rotation whose columns are the right, up and
// forward axes of a frame looking along forward.
func lookRotation(forward, up mgl64.Vec3) mgl64.Mat3 {
	f := forward.Normalize()
	r := up.Cross(f).Normalize()
	u := f.Cross(r)
	return mgl64.Mat3FromCols(r, u, f)
}

// faceLocalRotation maps world directions into a frame where the face
// normal points along -Z and the face's up direction along +Y.
func faceLocalRotation(normal mgl64.Vec3) mgl64.Mat3 {
	if normal.Len() == 0 {
		return mgl64.Ident3()
	}
	approxUp := worldUp
	if math.Abs(normal.Dot(worldUp)) > 1-1e-9 {
		approxUp = worldForward
	}
	faceUp := normal.Cross(approxUp.Cross(normal).Normalize()).Normalize()
	return lookRotation(worldBack, worldUp).Mul3(lookRotation(normal, faceUp).Transpose())
}

// projectUVs planar-projects points into UV space using the plane of face.
// The configured origin, projected onto the plane, maps to the configured
// UV offset and one texture repeat covers TextureSizeInUnits.
func (b *Builder) projectUVs(face [3]mgl64.Vec3, points ...mgl64.Vec3) []mgl64.Vec2 {
	normal := FaceNormal(face[0], face[1], face[2])
	origin := b.cfg.AutomaticUVOrigin
	origin = origin.Sub(normal.Mul(origin.Sub(face[0]).Dot(normal)))
	rot := faceLocalRotation(normal)
	size := b.cfg.TextureSizeInUnits

	uvs := make([]mgl64.Vec2, len(points))
	for i, p := range points {
		local := rot.Mul3x1(p.Sub(origin))
		uvs[i] = b.cfg.AutomaticUVOffset.Add(mgl64.Vec2{local[0] / size[0], local[1] / size[1]})
	}
	return uvs
}
