// Package imageio decodes the source texture formats fed into a bake.
// Tree authoring pipelines commonly ship PNG color maps alongside TGA
// normal/specular maps, so both are supported.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

// Decode decodes image data, choosing the format from the file name
// extension (".png" or ".tga").
func Decode(name string, data []byte) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		return img, nil
	case ".tga":
		img, err := DecodeTGA(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported texture format: %s", name)
	}
}

// Load reads and decodes a texture file from disk.
func Load(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading texture %s: %w", path, err)
	}
	return Decode(path, data)
}

// ToRGBA converts any image to *image.RGBA, returning the input unchanged
// when it already is one.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}
