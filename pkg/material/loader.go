package material

import (
	"fmt"

	"github.com/Faultbox/treebake/pkg/imageio"
)

// LoadTexture reads a PNG or TGA texture from disk. The file path becomes
// the texture's identity, so two loads of the same path compare equal even
// though their pixel buffers differ.
func LoadTexture(path string) (*Texture, error) {
	img, err := imageio.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading texture: %w", err)
	}
	return &Texture{ID: path, Image: img}, nil
}
