package atlas

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"golang.org/x/image/draw"
)

// Region is a normalized rectangle (0-1) within an atlas or source texture.
type Region struct {
	X float32
	Y float32
	W float32
	H float32
}

// Entry is one texture to pack. Normal is optional; when nil, a shared
// default normal texture is substituted so the normal atlas mirrors the
// color atlas placement exactly. Crop restricts the packed pixels to a
// normalized sub-rectangle of Image.
type Entry struct {
	Image  image.Image
	Normal image.Image
	Crop   *Region
}

// Atlas is the result of a build: a color page and a normal page with
// identical placements, plus the normalized region assigned to each key.
type Atlas struct {
	Color   *image.RGBA
	Normal  *image.RGBA
	Size    int
	Regions map[string]Region
}

// Builder collects entries and packs them into an atlas.
type Builder struct {
	maxDim        int
	keys          []string
	entries       map[string]Entry
	defaultNormal image.Image
}

// NewBuilder returns a builder whose output page is at most maxDim pixels
// per side.
func NewBuilder(maxDim int) *Builder {
	return &Builder{
		maxDim:  maxDim,
		entries: make(map[string]Entry),
	}
}

// SetDefaultNormal overrides the texture substituted for entries without a
// normal map.
func (b *Builder) SetDefaultNormal(img image.Image) {
	b.defaultNormal = img
}

// Add registers a texture under key. Re-adding a key replaces the prior
// entry but keeps its original packing order. A nil image or a degenerate
// crop rectangle is an error.
func (b *Builder) Add(key string, e Entry) error {
	if e.Image == nil {
		return fmt.Errorf("atlas entry %q has no image", key)
	}
	if e.Crop != nil && (e.Crop.W == 0 || e.Crop.H == 0) {
		return fmt.Errorf("atlas entry %q has a degenerate crop rectangle %+v", key, *e.Crop)
	}
	if _, seen := b.entries[key]; !seen {
		b.keys = append(b.keys, key)
	}
	b.entries[key] = e
	return nil
}

// Len returns the number of registered entries.
func (b *Builder) Len() int {
	return len(b.keys)
}

// Build packs all registered entries. With zero entries it returns (nil, nil):
// no atlas is produced and that is not an error. Entries are packed in
// registration order so the layout is deterministic.
func (b *Builder) Build() (*Atlas, error) {
	if len(b.keys) == 0 {
		return nil, nil
	}

	type placed struct {
		key   string
		img   *image.RGBA
		pos   image.Point
		w, h  int
		entry Entry
	}

	packer := NewPacker(b.maxDim)
	placements := make([]placed, 0, len(b.keys))
	for _, key := range b.keys {
		e := b.entries[key]
		src, err := cropToRGBA(e.Image, e.Crop)
		if err != nil {
			return nil, fmt.Errorf("atlas entry %q: %w", key, err)
		}
		w, h := src.Bounds().Dx(), src.Bounds().Dy()
		pos, ok := packer.Insert(w, h)
		if !ok {
			return nil, fmt.Errorf("atlas entry %q (%dx%d) does not fit in a %dx%d atlas", key, w, h, b.maxDim, b.maxDim)
		}
		placements = append(placements, placed{key: key, img: src, pos: pos, w: w, h: h, entry: e})
	}

	size := canvasSize(packer.Extent(), b.maxDim)
	colorPage := image.NewRGBA(image.Rect(0, 0, size, size))
	normalPage := image.NewRGBA(image.Rect(0, 0, size, size))
	regions := make(map[string]Region, len(placements))

	for _, p := range placements {
		dst := image.Rect(p.pos.X, p.pos.Y, p.pos.X+p.w, p.pos.Y+p.h)
		draw.Copy(colorPage, p.pos, p.img, p.img.Bounds(), draw.Src, nil)

		// The normal page mirrors the color placement exactly; a normal map
		// of mismatched dimensions is resampled so the two regions align.
		normal := p.entry.Normal
		if normal == nil {
			normal = b.normalFallback()
		}
		nb := normal.Bounds()
		if nb.Dx() == p.w && nb.Dy() == p.h {
			draw.Copy(normalPage, p.pos, normal, nb, draw.Src, nil)
		} else {
			draw.BiLinear.Scale(normalPage, dst, normal, nb, draw.Src, nil)
		}

		regions[p.key] = Region{
			X: float32(p.pos.X) / float32(size),
			Y: float32(p.pos.Y) / float32(size),
			W: float32(p.w) / float32(size),
			H: float32(p.h) / float32(size),
		}
	}

	return &Atlas{
		Color:   colorPage,
		Normal:  normalPage,
		Size:    size,
		Regions: regions,
	}, nil
}

func (b *Builder) normalFallback() image.Image {
	if b.defaultNormal != nil {
		return b.defaultNormal
	}
	flat := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(flat.Pix); i += 4 {
		flat.Pix[i] = FlatNormalColor.R
		flat.Pix[i+1] = FlatNormalColor.G
		flat.Pix[i+2] = FlatNormalColor.B
		flat.Pix[i+3] = FlatNormalColor.A
	}
	return flat
}

// cropToRGBA extracts the normalized crop rectangle of src as a new RGBA
// image, or converts the whole source when crop is nil.
func cropToRGBA(src image.Image, crop *Region) (*image.RGBA, error) {
	sb := src.Bounds()
	rect := sb
	if crop != nil {
		w := float32(sb.Dx())
		h := float32(sb.Dy())
		rect = image.Rect(
			sb.Min.X+int(math32.Round(crop.X*w)),
			sb.Min.Y+int(math32.Round(crop.Y*h)),
			sb.Min.X+int(math32.Round((crop.X+crop.W)*w)),
			sb.Min.Y+int(math32.Round((crop.Y+crop.H)*h)),
		).Intersect(sb)
		if rect.Empty() {
			return nil, fmt.Errorf("crop rectangle %+v is outside the source texture", *crop)
		}
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(out, image.Point{}, src, rect, draw.Src, nil)
	return out, nil
}

// canvasSize rounds the used extent up to a power of two, clamped to maxDim
// but never below the extent itself.
func canvasSize(extent image.Point, maxDim int) int {
	need := extent.X
	if extent.Y > need {
		need = extent.Y
	}
	size := 64
	for size < need {
		size *= 2
	}
	if size > maxDim {
		size = maxDim
	}
	if size < need {
		size = need
	}
	return size
}

// FlatNormalColor is the color of the flat tangent-space normal substituted
// when a packed texture has no normal map.
var FlatNormalColor = color.RGBA{R: 128, G: 128, B: 255, A: 255}
