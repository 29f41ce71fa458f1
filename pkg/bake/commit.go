package bake

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/treebake/pkg/material"
	"github.com/Faultbox/treebake/pkg/mesh"
	"github.com/Faultbox/treebake/pkg/scene"
)

const (
	// billboardThreshold is the screen-size threshold of the billboard LOD slot.
	billboardThreshold = 0.01
	// lodFloor is the lowest geometric threshold when a billboard follows, so
	// the billboard band stays open below the last mesh LOD.
	lodFloor = 0.05
)

// BillboardBuilder is the external billboard generator. The bake treats its
// output as an immutable artifact to attach as the lowest-detail LOD.
type BillboardBuilder interface {
	Build(source *scene.Node, textureSize int) (*Billboard, error)
}

// Billboard is a pre-rendered stand-in: the rendered image, the material
// binding it, and an optional stand-in mesh.
type Billboard struct {
	Image    image.Image
	Material *material.Material
	Mesh     *mesh.Mesh
}

// Commit builds the final hierarchy and saves it through the store. With
// exactly one registered pass and no billboard the result is a single
// mesh+material object; otherwise an LOD group is built with LOD 0 as the
// highest-detail pass and thresholds from the fixed schedule, the billboard
// (when requested) taking the lowest-detail slot. Configured components are
// attached to the root and every LOD object, and the LOD-ready notification
// fires once per object before the save.
//
// Commit is not idempotent: calling it again without an intervening Clear
// attaches components a second time and re-saves. That is a caller error.
func (s *Session) Commit() (*scene.Node, error) {
	if !s.valid {
		return nil, ErrNoBake
	}
	passNums := s.Passes()
	if len(passNums) == 0 {
		return nil, errors.New("commit: no submesh passes registered")
	}

	meshes := make([]*mesh.Mesh, len(passNums))
	for i, p := range passNums {
		meshes[i] = s.GetMesh(p)
	}
	if s.settings.LOD.RecenterPivot {
		// Re-center the pivot horizontally, using the highest-detail pass
		// bounds so every LOD shifts by the same offset.
		c := meshes[0].Bounds.Center()
		offset := mgl32.Vec3{c.X(), 0, c.Z()}
		for _, m := range meshes {
			m.Translate(offset)
		}
	}

	wantBillboard := s.billboard != nil && s.settings.Billboard.Enabled
	root := scene.NewNode(s.name)

	var lodNodes []*scene.Node
	if len(passNums) == 1 && !wantBillboard {
		root.Mesh = meshes[0]
		root.Materials = s.passMaterials(passNums[0])
		lodNodes = []*scene.Node{root}
	} else {
		thresholds := lodThresholds(len(passNums), wantBillboard)
		group := &scene.LODGroup{}
		for i, p := range passNums {
			node := scene.NewNode(fmt.Sprintf("LOD%d", i))
			node.Mesh = meshes[i]
			node.Materials = s.passMaterials(p)
			group.Levels = append(group.Levels, scene.Level{Threshold: thresholds[i], Node: node})
			root.AddChild(node)
			lodNodes = append(lodNodes, node)
		}
		if wantBillboard {
			node, err := s.buildBillboardNode(group.Levels[0].Node)
			if err != nil {
				return nil, err
			}
			group.Levels = append(group.Levels, scene.Level{Threshold: billboardThreshold, Node: node})
			root.AddChild(node)
			lodNodes = append(lodNodes, node)
		}
		root.LOD = group
	}

	for _, node := range lodNodes {
		s.attachComponents(node)
	}
	if root != lodNodes[0] || len(lodNodes) > 1 {
		s.attachComponents(root)
	}
	for _, node := range lodNodes {
		if s.onLODReady != nil {
			s.onLODReady(node)
		}
	}

	if err := s.attachOutput(root); err != nil {
		return nil, err
	}
	if err := s.asset.Save(root); err != nil {
		return nil, fmt.Errorf("saving asset: %w", err)
	}
	s.log.Infow("bake committed", "asset", s.name, "passes", len(passNums), "billboard", wantBillboard)
	return root, nil
}

func (s *Session) buildBillboardNode(source *scene.Node) (*scene.Node, error) {
	bb, err := s.billboard.Build(source, s.settings.Billboard.TextureSize)
	if err != nil {
		return nil, fmt.Errorf("building billboard: %w", err)
	}
	node := scene.NewNode("Billboard")
	node.Mesh = bb.Mesh
	if bb.Material != nil {
		node.Materials = []*material.Material{bb.Material}
	}
	if bb.Image != nil {
		if _, err := s.asset.AttachTexture("billboard", bb.Image); err != nil {
			return nil, fmt.Errorf("attaching billboard texture: %w", err)
		}
	}
	return node, nil
}

func (s *Session) attachComponents(node *scene.Node) {
	for _, c := range s.settings.Components {
		node.Attach(c)
	}
}

// attachOutput attaches every mesh, material, and referenced texture of the
// hierarchy to the output asset.
func (s *Session) attachOutput(root *scene.Node) error {
	seenTextures := make(map[string]bool)
	var walk func(n *scene.Node) error
	walk = func(n *scene.Node) error {
		if n.Mesh != nil {
			if _, err := s.asset.AttachMesh(n.Name, n.Mesh); err != nil {
				return fmt.Errorf("attaching mesh %q: %w", n.Name, err)
			}
		}
		for _, m := range n.Materials {
			if m == nil {
				continue
			}
			if _, err := s.asset.AttachMaterial(m); err != nil {
				return fmt.Errorf("attaching material %q: %w", m.Name, err)
			}
			for _, tex := range []*material.Texture{m.MainTexture, m.NormalTexture} {
				if tex == nil || tex.Image == nil || seenTextures[tex.ID] {
					continue
				}
				seenTextures[tex.ID] = true
				if _, err := s.asset.AttachTexture(tex.ID, tex.Image); err != nil {
					return fmt.Errorf("attaching texture %q: %w", tex.ID, err)
				}
			}
		}
		for _, child := range n.Children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root)
}

// lodThresholds returns the screen-size threshold schedule for the given
// pass count, ordered highest detail first: a single pass uses {0.5}, two
// passes use {0.6, 0.2}, and three or more are evenly spaced from 0.5 down
// to 0.0. Thresholds must descend so every level owns a band below the
// previous one; when a billboard takes the final slot the schedule spans
// 0.5 down to lodFloor instead, keeping each geometric threshold above the
// billboard's.
func lodThresholds(passes int, withBillboard bool) []float32 {
	switch passes {
	case 1:
		return []float32{0.5}
	case 2:
		return []float32{0.6, 0.2}
	default:
		var low float32
		if withBillboard {
			low = lodFloor
		}
		out := make([]float32, passes)
		for i := 0; i < passes; i++ {
			out[i] = low + (0.5-low)*float32(passes-1-i)/float32(passes-1)
		}
		return out
	}
}
