// Package store defines the narrow contract the bake uses to persist output
// assets, plus a directory-backed implementation for tools that work straight
// against the filesystem. The bake core depends only on the contract, never
// on a store's internal format.
package store

import (
	"image"

	"github.com/Faultbox/treebake/pkg/material"
	"github.com/Faultbox/treebake/pkg/mesh"
	"github.com/Faultbox/treebake/pkg/scene"
)

// Asset is one persistent output asset under construction. Sub-objects
// (textures, materials, meshes) are attached as they are produced; Save
// persists the whole asset and replaces any prior save in place.
type Asset interface {
	// ID returns the asset's stable identifier.
	ID() string
	// AttachTexture stores a texture under the given name and returns its id.
	AttachTexture(name string, img image.Image) (string, error)
	// AttachMaterial stores a material and returns its id.
	AttachMaterial(m *material.Material) (string, error)
	// AttachMesh stores a mesh under the given name and returns its id.
	AttachMesh(name string, m *mesh.Mesh) (string, error)
	// Save persists the asset with the given hierarchy root. Calling Save
	// again replaces the previous save.
	Save(root *scene.Node) error
	// Release discards any unsaved attachments. Already-saved output is not
	// rolled back.
	Release()
}

// Store creates output assets after validating the destination.
type Store interface {
	// ValidateFolder reports an error when path is not a writable directory.
	ValidateFolder(path string) error
	// CreateAsset allocates a new asset named name inside folder.
	CreateAsset(folder, name string) (Asset, error)
}
