package imageio

import (
	"fmt"
	"image"
	"image/color"
)

// TGA image type codes.
const (
	tgaTrueColor    = 2  // uncompressed true-color
	tgaTrueColorRLE = 10 // RLE-compressed true-color
)

const tgaHeaderLen = 18

type tgaHeader struct {
	imageType     byte
	width         int
	height        int
	bytesPerPixel int
	topToBottom   bool
	pixelOffset   int
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	var h tgaHeader
	if len(data) < tgaHeaderLen {
		return h, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	h.imageType = data[2]
	h.width = int(data[12]) | int(data[13])<<8
	h.height = int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	// Descriptor bit 5 flags top-to-bottom row order.
	h.topToBottom = data[17]&0x20 != 0

	if colorMapType != 0 {
		return h, fmt.Errorf("color-mapped TGA not supported")
	}
	if h.imageType != tgaTrueColor && h.imageType != tgaTrueColorRLE {
		return h, fmt.Errorf("unsupported TGA type %d (only true-color types 2 and 10 supported)", h.imageType)
	}
	if bpp != 24 && bpp != 32 {
		return h, fmt.Errorf("unsupported TGA bit depth %d (only 24/32 supported)", bpp)
	}
	h.bytesPerPixel = bpp / 8

	h.pixelOffset = tgaHeaderLen + idLength
	if h.pixelOffset > len(data) {
		return h, fmt.Errorf("TGA data truncated")
	}
	return h, nil
}

// DecodeTGA decodes a TGA image. Uncompressed and RLE true-color files at 24
// or 32 bits per pixel are supported, which covers the textures tree
// authoring tools emit.
func DecodeTGA(data []byte) (image.Image, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, h.width, h.height))
	pixels := data[h.pixelOffset:]

	if h.imageType == tgaTrueColor {
		if err := decodeTGARaw(img, pixels, h); err != nil {
			return nil, err
		}
	} else {
		decodeTGARLE(img, pixels, h)
	}
	return img, nil
}

// readTGAPixel reads one BGR(A) pixel starting at offset i.
func readTGAPixel(data []byte, i, bytesPerPixel int) color.RGBA {
	c := color.RGBA{B: data[i], G: data[i+1], R: data[i+2], A: 255}
	if bytesPerPixel == 4 {
		c.A = data[i+3]
	}
	return c
}

// putTGAPixel stores pixel n of the image, honoring the row-order bit.
func putTGAPixel(img *image.RGBA, n int, h tgaHeader, c color.RGBA) {
	x := n % h.width
	y := n / h.width
	if !h.topToBottom {
		y = h.height - 1 - y
	}
	img.SetRGBA(x, y, c)
}

func decodeTGARaw(img *image.RGBA, pixels []byte, h tgaHeader) error {
	if len(pixels) < h.width*h.height*h.bytesPerPixel {
		return fmt.Errorf("TGA pixel data truncated")
	}
	for n := 0; n < h.width*h.height; n++ {
		putTGAPixel(img, n, h, readTGAPixel(pixels, n*h.bytesPerPixel, h.bytesPerPixel))
	}
	return nil
}

func decodeTGARLE(img *image.RGBA, pixels []byte, h tgaHeader) {
	total := h.width * h.height
	n := 0
	i := 0
	for n < total && i < len(pixels) {
		packet := pixels[i]
		i++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run: one pixel repeated count times.
			if i+h.bytesPerPixel > len(pixels) {
				return
			}
			c := readTGAPixel(pixels, i, h.bytesPerPixel)
			i += h.bytesPerPixel
			for ; count > 0 && n < total; count-- {
				putTGAPixel(img, n, h, c)
				n++
			}
		} else {
			// Literal: count distinct pixels.
			for ; count > 0 && n < total; count-- {
				if i+h.bytesPerPixel > len(pixels) {
					return
				}
				putTGAPixel(img, n, h, readTGAPixel(pixels, i, h.bytesPerPixel))
				i += h.bytesPerPixel
				n++
			}
		}
	}
}
