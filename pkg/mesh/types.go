// Package mesh provides the mesh data model and merge operations used when
// baking procedurally generated tree models into deployable assets.
package mesh

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is a single mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	TexCoord mgl32.Vec2
}

// Submesh is one material-bound index range within a mesh. Each submesh is
// rendered with its own material, so the order of submeshes must match the
// order of materials bound to the mesh.
type Submesh struct {
	Start int32
	Count int32
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Mesh holds vertex and index data partitioned into submeshes.
type Mesh struct {
	Vertices  []Vertex
	Indices   []uint32
	Submeshes []Submesh
	Bounds    Bounds
}

// New returns an empty mesh with zero submeshes.
func New() *Mesh {
	return &Mesh{}
}

// Empty reports whether the mesh has no geometry.
func (m *Mesh) Empty() bool {
	return len(m.Vertices) == 0
}

// emptyBounds returns sentinel bounds that any real point will shrink.
func emptyBounds() Bounds {
	return Bounds{
		Min: mgl32.Vec3{1e10, 1e10, 1e10},
		Max: mgl32.Vec3{-1e10, -1e10, -1e10},
	}
}

func (b *Bounds) grow(p mgl32.Vec3) {
	b.Min[0] = math32.Min(b.Min[0], p[0])
	b.Min[1] = math32.Min(b.Min[1], p[1])
	b.Min[2] = math32.Min(b.Min[2], p[2])
	b.Max[0] = math32.Max(b.Max[0], p[0])
	b.Max[1] = math32.Max(b.Max[1], p[1])
	b.Max[2] = math32.Max(b.Max[2], p[2])
}

// Center returns the geometric center of the bounds.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// RecomputeBounds rebuilds the bounding box from the current vertex positions.
// An empty mesh gets zero-value bounds.
func (m *Mesh) RecomputeBounds() {
	if len(m.Vertices) == 0 {
		m.Bounds = Bounds{}
		return
	}
	b := emptyBounds()
	for i := range m.Vertices {
		b.grow(m.Vertices[i].Position)
	}
	m.Bounds = b
}

// Translate subtracts offset from every vertex position and recomputes the
// bounds. Used to re-center the asset pivot after merging.
func (m *Mesh) Translate(offset mgl32.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i].Position = m.Vertices[i].Position.Sub(offset)
	}
	m.RecomputeBounds()
}

// RemapTexCoords applies f to every vertex texture coordinate in channel 0.
func (m *Mesh) RemapTexCoords(f func(mgl32.Vec2) mgl32.Vec2) {
	for i := range m.Vertices {
		m.Vertices[i].TexCoord = f(m.Vertices[i].TexCoord)
	}
}
