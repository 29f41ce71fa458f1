// Package atlas packs source textures into combined atlas images and reports
// the normalized region each texture was assigned.
package atlas

import "image"

// Packer places rectangles into a single square page of at most maxDim pixels
// per side, guillotine-splitting the remaining free spaces on each insert.
type Packer struct {
	maxDim int
	spaces []image.Rectangle
	extent image.Point
}

// NewPacker returns a packer for a maxDim x maxDim page.
func NewPacker(maxDim int) *Packer {
	return &Packer{
		maxDim: maxDim,
		spaces: []image.Rectangle{{Max: image.Point{X: maxDim, Y: maxDim}}},
	}
}

// Insert places a w x h rectangle and returns its top-left position. The
// second return value is false when no free space can hold the rectangle.
func (p *Packer) Insert(w, h int) (image.Point, bool) {
	// Go backwards to prioritize the smaller spaces produced by recent splits.
	for i := len(p.spaces) - 1; i >= 0; i-- {
		space := p.spaces[i]
		rightSpace := space.Dx() - w
		bottomSpace := space.Dy() - h
		if rightSpace < 0 || bottomSpace < 0 {
			continue
		}

		p.spaces[i] = p.spaces[len(p.spaces)-1]
		p.spaces = p.spaces[:len(p.spaces)-1]

		// Rectangle goes in the space's top-left corner; the remainder splits
		// into at most two new spaces.
		pos := space.Min
		if bottomSpace > 0 {
			p.spaces = append(p.spaces, image.Rectangle{
				Min: image.Point{X: pos.X, Y: pos.Y + h},
				Max: space.Max,
			})
		}
		if rightSpace > 0 {
			p.spaces = append(p.spaces, image.Rectangle{
				Min: image.Point{X: pos.X + w, Y: pos.Y},
				Max: image.Point{X: space.Max.X, Y: pos.Y + h},
			})
		}

		if x := pos.X + w; x > p.extent.X {
			p.extent.X = x
		}
		if y := pos.Y + h; y > p.extent.Y {
			p.extent.Y = y
		}
		return pos, true
	}
	return image.Point{}, false
}

// Extent returns the used portion of the page.
func (p *Packer) Extent() image.Point {
	return p.extent
}
