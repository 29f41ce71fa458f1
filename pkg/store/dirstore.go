package store

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/treebake/pkg/material"
	"github.com/Faultbox/treebake/pkg/mesh"
	"github.com/Faultbox/treebake/pkg/scene"
)

// DirStore persists assets as a YAML manifest plus PNG textures inside the
// destination folder.
type DirStore struct{}

// NewDirStore returns a filesystem-backed store.
func NewDirStore() *DirStore {
	return &DirStore{}
}

// ValidateFolder checks that path is an existing, writable directory by
// probing with a temporary file.
func (*DirStore) ValidateFolder(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("output folder %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path %s is not a directory", path)
	}
	probe, err := os.CreateTemp(path, ".write-probe-*")
	if err != nil {
		return fmt.Errorf("output folder %s is not writable: %w", path, err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// CreateAsset allocates a new asset rooted at folder/name.
func (s *DirStore) CreateAsset(folder, name string) (Asset, error) {
	if err := s.ValidateFolder(folder); err != nil {
		return nil, err
	}
	return &dirAsset{
		id:          uuid.NewString(),
		folder:      folder,
		name:        name,
		meshIDs:     make(map[*mesh.Mesh]string),
		materialIDs: make(map[*material.Material]string),
	}, nil
}

type dirAsset struct {
	id     string
	folder string
	name   string

	textures  []textureRecord
	materials []materialRecord
	meshes    []meshRecord

	meshIDs     map[*mesh.Mesh]string
	materialIDs map[*material.Material]string
}

type textureRecord struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

type materialRecord struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Shading       int    `yaml:"shading"`
	MainTexture   string `yaml:"main_texture,omitempty"`
	NormalTexture string `yaml:"normal_texture,omitempty"`
}

type meshRecord struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Vertices  int            `yaml:"vertices"`
	Indices   int            `yaml:"indices"`
	Submeshes []mesh.Submesh `yaml:"submeshes"`
	BoundsMin [3]float32     `yaml:"bounds_min"`
	BoundsMax [3]float32     `yaml:"bounds_max"`
}

type nodeRecord struct {
	Name       string            `yaml:"name"`
	Components []scene.Component `yaml:"components,omitempty"`
	Mesh       string            `yaml:"mesh,omitempty"`
	Materials  []string          `yaml:"materials,omitempty"`
	LOD        []levelRecord     `yaml:"lod,omitempty"`
	Children   []nodeRecord      `yaml:"children,omitempty"`
}

type levelRecord struct {
	Threshold float32    `yaml:"threshold"`
	Node      nodeRecord `yaml:"node"`
}

type manifest struct {
	Asset     string           `yaml:"asset"`
	Name      string           `yaml:"name"`
	Textures  []textureRecord  `yaml:"textures,omitempty"`
	Materials []materialRecord `yaml:"materials,omitempty"`
	Meshes    []meshRecord     `yaml:"meshes,omitempty"`
	Root      *nodeRecord      `yaml:"root,omitempty"`
}

func (a *dirAsset) ID() string {
	return a.id
}

func (a *dirAsset) textureDir() string {
	return filepath.Join(a.folder, a.name+"_textures")
}

func (a *dirAsset) AttachTexture(name string, img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("texture %q has no image data", name)
	}
	dir := a.textureDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating texture folder: %w", err)
	}
	file := filepath.Join(dir, name+".png")
	f, err := os.Create(file)
	if err != nil {
		return "", fmt.Errorf("writing texture %s: %w", file, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encoding texture %s: %w", file, err)
	}

	id := uuid.NewString()
	a.textures = append(a.textures, textureRecord{ID: id, Name: name, File: file})
	return id, nil
}

func (a *dirAsset) AttachMaterial(m *material.Material) (string, error) {
	if m == nil {
		return "", fmt.Errorf("nil material")
	}
	if id, ok := a.materialIDs[m]; ok {
		return id, nil
	}
	id := uuid.NewString()
	rec := materialRecord{
		ID:      id,
		Name:    m.Name,
		Shading: int(m.Shading),
	}
	if m.MainTexture != nil {
		rec.MainTexture = m.MainTexture.ID
	}
	if m.NormalTexture != nil {
		rec.NormalTexture = m.NormalTexture.ID
	}
	a.materials = append(a.materials, rec)
	a.materialIDs[m] = id
	return id, nil
}

func (a *dirAsset) AttachMesh(name string, m *mesh.Mesh) (string, error) {
	if m == nil {
		return "", fmt.Errorf("nil mesh")
	}
	if id, ok := a.meshIDs[m]; ok {
		return id, nil
	}
	id := uuid.NewString()
	a.meshes = append(a.meshes, meshRecord{
		ID:        id,
		Name:      name,
		Vertices:  len(m.Vertices),
		Indices:   len(m.Indices),
		Submeshes: m.Submeshes,
		BoundsMin: [3]float32(m.Bounds.Min),
		BoundsMax: [3]float32(m.Bounds.Max),
	})
	a.meshIDs[m] = id
	return id, nil
}

// Save writes the manifest, replacing any previous save of the same asset.
func (a *dirAsset) Save(root *scene.Node) error {
	man := manifest{
		Asset:     a.id,
		Name:      a.name,
		Textures:  a.textures,
		Materials: a.materials,
		Meshes:    a.meshes,
	}
	if root != nil {
		rec := a.nodeToRecord(root)
		man.Root = &rec
	}

	data, err := yaml.Marshal(&man)
	if err != nil {
		return fmt.Errorf("marshaling asset manifest: %w", err)
	}
	path := filepath.Join(a.folder, a.name+".yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing asset manifest %s: %w", path, err)
	}
	return nil
}

func (a *dirAsset) nodeToRecord(n *scene.Node) nodeRecord {
	rec := nodeRecord{
		Name:       n.Name,
		Components: n.Components,
	}
	if n.Mesh != nil {
		rec.Mesh = a.meshIDs[n.Mesh]
	}
	for _, m := range n.Materials {
		// Slots without a registered material stay nil; skip them rather
		// than recording an empty id.
		if m == nil {
			continue
		}
		rec.Materials = append(rec.Materials, a.materialIDs[m])
	}
	if n.LOD != nil {
		for _, lvl := range n.LOD.Levels {
			rec.LOD = append(rec.LOD, levelRecord{
				Threshold: lvl.Threshold,
				Node:      a.nodeToRecord(lvl.Node),
			})
		}
	}
	for _, child := range n.Children {
		rec.Children = append(rec.Children, a.nodeToRecord(child))
	}
	return rec
}

// Release drops buffered attachments. Files already written stay on disk;
// there is no partial rollback of committed output.
func (a *dirAsset) Release() {
	a.textures = nil
	a.materials = nil
	a.meshes = nil
	a.meshIDs = make(map[*mesh.Mesh]string)
	a.materialIDs = make(map[*material.Material]string)
}
