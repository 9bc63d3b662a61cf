// Package kernel defines the finalized mesh produced by the builders and
// the collaborator interfaces that consume it. Implementations (sdfx)
// supply the geometry services the builders deliberately leave out, such
// as deriving smooth normals from face geometry.
package kernel

// NormalRecalculator derives per-vertex normals from triangle geometry.
// Builders call it on finalize when normals were requested but not
// supplied explicitly.
type NormalRecalculator interface {
	RecalculateNormals(m *Mesh)
}

// NormalRecalculatorFunc adapts a plain function to NormalRecalculator.
type NormalRecalculatorFunc func(m *Mesh)

// RecalculateNormals calls f(m).
func (f NormalRecalculatorFunc) RecalculateNormals(m *Mesh) {
	f(m)
}
