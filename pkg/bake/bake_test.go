package bake

import (
	"errors"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/treebake/pkg/material"
	"github.com/Faultbox/treebake/pkg/mesh"
	"github.com/Faultbox/treebake/pkg/scene"
	"github.com/Faultbox/treebake/pkg/store"
)

// memStore is an in-memory store.Store for orchestrator tests.
type memStore struct {
	validateErr error
	assets      []*memAsset
}

type memAsset struct {
	id        string
	textures  map[string]image.Image
	materials []*material.Material
	meshes    map[string]*mesh.Mesh
	meshIDs   map[*mesh.Mesh]string
	saves     int
	savedRoot *scene.Node
	released  bool
}

func newMemStore() *memStore {
	return &memStore{}
}

func (s *memStore) ValidateFolder(path string) error {
	return s.validateErr
}

func (s *memStore) CreateAsset(folder, name string) (store.Asset, error) {
	if s.validateErr != nil {
		return nil, s.validateErr
	}
	a := &memAsset{
		id:       name,
		textures: make(map[string]image.Image),
		meshes:   make(map[string]*mesh.Mesh),
		meshIDs:  make(map[*mesh.Mesh]string),
	}
	s.assets = append(s.assets, a)
	return a, nil
}

func (a *memAsset) ID() string { return a.id }

func (a *memAsset) AttachTexture(name string, img image.Image) (string, error) {
	if img == nil {
		return "", errors.New("nil image")
	}
	a.textures[name] = img
	return "tex:" + name, nil
}

func (a *memAsset) AttachMaterial(m *material.Material) (string, error) {
	a.materials = append(a.materials, m)
	return "mat:" + m.Name, nil
}

func (a *memAsset) AttachMesh(name string, m *mesh.Mesh) (string, error) {
	if id, ok := a.meshIDs[m]; ok {
		return id, nil
	}
	id := "mesh:" + name
	a.meshes[name] = m
	a.meshIDs[m] = id
	return id, nil
}

func (a *memAsset) Save(root *scene.Node) error {
	a.saves++
	a.savedRoot = root
	return nil
}

func (a *memAsset) Release() {
	a.released = true
}

// fragment builds a one-triangle mesh fragment with every UV set to uv.
func fragment(offset float32, uv mgl32.Vec2) *mesh.Mesh {
	m := &mesh.Mesh{
		Vertices: []mesh.Vertex{
			{Position: mgl32.Vec3{offset, 0, 0}, TexCoord: uv},
			{Position: mgl32.Vec3{offset + 1, 0, 0}, TexCoord: uv},
			{Position: mgl32.Vec3{offset, 1, 0}, TexCoord: uv},
		},
		Indices:   []uint32{0, 1, 2},
		Submeshes: []mesh.Submesh{{Start: 0, Count: 3}},
	}
	m.RecomputeBounds()
	return m
}

// texture builds a named solid-color texture with pixels.
func texture(id string, size int) *material.Texture {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 180
		img.Pix[i+3] = 255
	}
	return &material.Texture{ID: id, Image: img}
}

// begunSession returns an active session over a fresh memStore.
func begunSession(opts ...Option) (*Session, *memStore) {
	st := newMemStore()
	s := NewSession(st, opts...)
	if err := s.Begin("/out", "oak"); err != nil {
		panic(err)
	}
	return s, st
}

// stubBillboard returns a fixed billboard and records its inputs.
type stubBillboard struct {
	source      *scene.Node
	textureSize int
	err         error
}

func (b *stubBillboard) Build(source *scene.Node, textureSize int) (*Billboard, error) {
	b.source = source
	b.textureSize = textureSize
	if b.err != nil {
		return nil, b.err
	}
	img := image.NewRGBA(image.Rect(0, 0, textureSize, textureSize))
	img.SetRGBA(0, 0, color.RGBA{G: 255, A: 255})
	return &Billboard{
		Image:    img,
		Material: &material.Material{Name: "billboard"},
	}, nil
}
