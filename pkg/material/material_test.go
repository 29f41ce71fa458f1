package material

import "testing"

func TestSameIdentity(t *testing.T) {
	a := &Texture{ID: "bark"}
	b := &Texture{ID: "bark"}
	c := &Texture{ID: "leaf"}

	if !a.SameIdentity(b) {
		t.Error("textures with the same id must share identity")
	}
	if a.SameIdentity(c) {
		t.Error("textures with different ids must not share identity")
	}
	var nilTex *Texture
	if nilTex.SameIdentity(a) {
		t.Error("nil must not match a real texture")
	}
	if !nilTex.SameIdentity(nil) {
		t.Error("nil matches nil")
	}
}

func TestMapAreaDegenerate(t *testing.T) {
	if FullArea().Degenerate() {
		t.Error("full area is not degenerate")
	}
	if !(MapArea{X: 0.2, Y: 0.2, W: 0, H: 0.5}).Degenerate() {
		t.Error("zero width is degenerate")
	}
	if !(MapArea{X: 0.2, Y: 0.2, W: 0.5, H: 0}).Degenerate() {
		t.Error("zero height is degenerate")
	}
}

func TestTextureSize(t *testing.T) {
	var nilTex *Texture
	if w, h := nilTex.Size(); w != 0 || h != 0 {
		t.Errorf("nil texture size = %dx%d, want 0x0", w, h)
	}
	if w, h := (&Texture{ID: "bark"}).Size(); w != 0 || h != 0 {
		t.Errorf("pixel-less texture size = %dx%d, want 0x0", w, h)
	}
}
