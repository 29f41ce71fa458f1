package bake

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/jinzhu/copier"

	"github.com/Faultbox/treebake/pkg/atlas"
	"github.com/Faultbox/treebake/pkg/material"
)

// Texture ids assigned to the shared atlas pages.
const (
	atlasMainTextureID   = "atlas_main"
	atlasNormalTextureID = "atlas_normal"
)

// OptimizeForAtlas packs every atlas-eligible material's texture into a
// shared color/normal atlas pair of at most maxSize pixels per side, then
// replaces the eligible materials' texture references and rewrites UV
// channel 0 of every affected submesh in every pass. Materials flagged for a
// raw texture copy are duplicated into the output asset instead.
//
// With zero eligible textures the atlas step is skipped entirely; that is
// not an error. Returns applied=false when no bake is active.
func (s *Session) OptimizeForAtlas(maxSize int) (applied bool, err error) {
	if !s.valid {
		return false, nil
	}

	eligible := s.atlasEligible()
	builder := atlas.NewBuilder(maxSize)
	for _, si := range eligible {
		m := s.materials[si][0]
		entry := atlas.Entry{Image: m.MainTexture.Image}
		if m.NormalTexture != nil {
			entry.Normal = m.NormalTexture.Image
		}
		if s.params[si].NeedsCrop {
			area := s.areas[si]
			entry.Crop = &atlas.Region{X: area.X, Y: area.Y, W: area.W, H: area.H}
		}
		if err := builder.Add(atlasKey(si), entry); err != nil {
			return false, fmt.Errorf("submesh %d: %w", si, err)
		}
	}

	packed, err := builder.Build()
	if err != nil {
		return false, fmt.Errorf("building atlas: %w", err)
	}
	if packed == nil {
		s.log.Debug("no atlas-eligible textures registered, skipping atlas")
	} else {
		mainTex := &material.Texture{ID: atlasMainTextureID, Image: packed.Color}
		normalTex := &material.Texture{ID: atlasNormalTextureID, Image: packed.Normal}
		for _, si := range eligible {
			m := s.materials[si][0]
			m.MainTexture = mainTex
			m.NormalTexture = normalTex
			s.remapUVs(si, packed.Regions[atlasKey(si)])
		}
		s.log.Infow("atlas built", "size", packed.Size, "textures", len(eligible))
	}

	if err := s.copyFlaggedTextures(); err != nil {
		return false, err
	}
	return true, nil
}

// atlasEligible returns the submesh indices whose materials participate in
// atlas packing, in material registration order.
func (s *Session) atlasEligible() []int {
	var out []int
	for _, si := range s.matOrder {
		mats, ok := s.materials[si]
		if !ok || len(mats) == 0 {
			continue
		}
		if !s.params[si].UseInAtlas {
			continue
		}
		if mats[0].MainTexture == nil {
			continue
		}
		out = append(out, si)
	}
	return out
}

func atlasKey(submesh int) string {
	return fmt.Sprintf("submesh_%d", submesh)
}

// remapUVs rewrites UV channel 0 of every fragment of the submesh, in every
// pass, from the submesh's original normalized sub-rectangle into its
// assigned atlas rectangle. The original rectangle is the submesh's MapArea
// when cropping applies and the unit square otherwise. Packing happened
// once; the rewrite is applied independently per pass.
func (s *Session) remapUVs(submesh int, rect atlas.Region) {
	orig := material.FullArea()
	if s.params[submesh].NeedsCrop {
		if area, ok := s.areas[submesh]; ok {
			orig = area
		}
	}
	su := rect.W / orig.W
	sv := rect.H / orig.H
	remap := func(uv mgl32.Vec2) mgl32.Vec2 {
		return mgl32.Vec2{
			rect.X + su*(uv[0]-orig.X),
			rect.Y + sv*(uv[1]-orig.Y),
		}
	}
	for _, subs := range s.passes {
		for _, frag := range subs[submesh] {
			frag.RemapTexCoords(remap)
		}
	}
}

// copyFlaggedTextures duplicates materials flagged for a verbatim texture
// copy (not atlas packing) into the output asset's texture folder under
// their caller-supplied name. Main and normal textures are handled
// independently; a material without a normal texture gets only its main
// texture copied.
func (s *Session) copyFlaggedTextures() error {
	for _, si := range s.matOrder {
		p := s.params[si]
		if p.CopyName == "" || p.UseInAtlas {
			continue
		}
		mats, ok := s.materials[si]
		if !ok || len(mats) == 0 {
			continue
		}
		src := mats[0]
		if src.MainTexture == nil || src.MainTexture.Image == nil {
			continue
		}

		dup := &material.Material{}
		if err := copier.Copy(dup, src); err != nil {
			return fmt.Errorf("duplicating material for submesh %d: %w", si, err)
		}

		mainID, err := s.asset.AttachTexture(p.CopyName, src.MainTexture.Image)
		if err != nil {
			return fmt.Errorf("copying texture %q: %w", p.CopyName, err)
		}
		dup.MainTexture = &material.Texture{ID: mainID, Image: src.MainTexture.Image}

		if src.NormalTexture != nil && src.NormalTexture.Image != nil {
			normalName := p.CopyName + "_normal"
			normalID, err := s.asset.AttachTexture(normalName, src.NormalTexture.Image)
			if err != nil {
				return fmt.Errorf("copying texture %q: %w", normalName, err)
			}
			dup.NormalTexture = &material.Texture{ID: normalID, Image: src.NormalTexture.Image}
		} else {
			dup.NormalTexture = nil
		}

		mats[0] = dup
		s.log.Debugw("texture copied", "submesh", si, "name", p.CopyName)
	}
	return nil
}
