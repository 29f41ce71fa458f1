// Package material models the materials, textures, and bake parameters
// attached to tree submeshes.
package material

import "image"

// ShadingMode distinguishes the host engine's native tree shading from a
// custom shader family supplied by the authoring tool.
type ShadingMode int

const (
	ShadingNative ShadingMode = iota
	ShadingCustom
)

// Texture is a source texture reference. Identity (not pixel content) is what
// the bake compares, so two Textures with the same ID are the same texture
// even when only one of them carries decoded pixels.
type Texture struct {
	ID    string
	Image image.Image
}

// SameIdentity reports whether two texture references point at the same
// source texture. Nil references only match other nil references.
func (t *Texture) SameIdentity(other *Texture) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.ID == other.ID
}

// Size returns the pixel dimensions of the texture, or zeros when no pixel
// data is attached.
func (t *Texture) Size() (w, h int) {
	if t == nil || t.Image == nil {
		return 0, 0
	}
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Material is one submesh's material slot.
type Material struct {
	Name          string
	Shading       ShadingMode
	MainTexture   *Texture
	NormalTexture *Texture
}

// Params carries per-submesh bake metadata. It is registered independently of
// the material itself and keyed by the same submesh index.
type Params struct {
	// UseInAtlas marks the material's textures for atlas packing.
	UseInAtlas bool
	// NeedsCrop restricts atlas input to the submesh's MapArea.
	NeedsCrop bool
	// CopyName, when non-empty, requests a verbatim texture copy into the
	// output asset under this name instead of atlas packing.
	CopyName string
}

// MapArea is a normalized rectangle describing where a submesh's meaningful
// texture content lives within its source texture.
type MapArea struct {
	X float32
	Y float32
	W float32
	H float32
}

// FullArea covers the whole source texture.
func FullArea() MapArea {
	return MapArea{X: 0, Y: 0, W: 1, H: 1}
}

// Degenerate reports whether the area has zero width or height.
func (a MapArea) Degenerate() bool {
	return a.W == 0 || a.H == 0
}
