package bake

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/treebake/pkg/material"
	"github.com/Faultbox/treebake/pkg/mesh"
	"github.com/Faultbox/treebake/pkg/scene"
)

func registerPass(s *Session, pass int, offset float32) {
	s.AddSubmeshes([]*mesh.Mesh{fragment(offset, mgl32.Vec2{})}, pass)
	s.AddMaterial(&material.Material{Name: "bark"}, 0, 0, material.FullArea())
}

func TestLodThresholdSchedule(t *testing.T) {
	assert.Equal(t, []float32{0.5}, lodThresholds(1, false))
	assert.Equal(t, []float32{0.6, 0.2}, lodThresholds(2, false))
	assert.Equal(t, []float32{0.5, 0.25, 0}, lodThresholds(3, false))
	assert.Equal(t, []float32{0.5, 0.375, 0.25, 0.125, 0}, lodThresholds(5, false))
}

func TestLodThresholdScheduleWithBillboard(t *testing.T) {
	// The lowest geometric threshold stays above the billboard slot so the
	// billboard band is never empty.
	for _, passes := range []int{3, 5, 8} {
		out := lodThresholds(passes, true)
		assert.InDelta(t, 0.5, out[0], 1e-6)
		assert.Equal(t, float32(lodFloor), out[passes-1])
		for i := 1; i < passes; i++ {
			assert.Less(t, out[i], out[i-1], "passes=%d level %d", passes, i)
		}
		assert.Greater(t, out[passes-1], float32(billboardThreshold))
	}
}

func TestCommitSinglePassSingleObject(t *testing.T) {
	settings := DefaultSettings()
	settings.LOD.RecenterPivot = false
	settings.Components = []scene.Component{{Name: "WindResponder"}}
	s, st := begunSession(WithSettings(settings))
	registerPass(s, 1, 0)

	root, err := s.Commit()
	require.NoError(t, err)

	assert.Nil(t, root.LOD, "single pass without billboard must not build a LOD group")
	assert.NotNil(t, root.Mesh)
	assert.Len(t, root.Materials, 1)
	assert.Equal(t, []scene.Component{{Name: "WindResponder"}}, root.Components)
	assert.Equal(t, 1, st.assets[0].saves)
}

func TestCommitTwoPassThresholds(t *testing.T) {
	settings := DefaultSettings()
	settings.LOD.RecenterPivot = false
	s, _ := begunSession(WithSettings(settings))
	registerPass(s, 1, 0)
	registerPass(s, 2, 4)

	root, err := s.Commit()
	require.NoError(t, err)

	require.NotNil(t, root.LOD)
	require.Len(t, root.LOD.Levels, 2)
	assert.Equal(t, float32(0.6), root.LOD.Levels[0].Threshold)
	assert.Equal(t, float32(0.2), root.LOD.Levels[1].Threshold)

	// LOD 0 is the highest-detail pass (pass 1).
	assert.Equal(t, "LOD0", root.LOD.Levels[0].Node.Name)
	assert.Equal(t, float32(0), root.LOD.Levels[0].Node.Mesh.Bounds.Min.X())
	assert.Equal(t, float32(4), root.LOD.Levels[1].Node.Mesh.Bounds.Min.X())
}

func TestCommitThreePassThresholds(t *testing.T) {
	settings := DefaultSettings()
	settings.LOD.RecenterPivot = false
	s, _ := begunSession(WithSettings(settings))
	registerPass(s, 1, 0)
	registerPass(s, 2, 0)
	registerPass(s, 3, 0)

	root, err := s.Commit()
	require.NoError(t, err)
	require.Len(t, root.LOD.Levels, 3)
	assert.Equal(t, float32(0.5), root.LOD.Levels[0].Threshold)
	assert.Equal(t, float32(0.25), root.LOD.Levels[1].Threshold)
	assert.Equal(t, float32(0), root.LOD.Levels[2].Threshold)
}

func TestCommitBillboardTakesLowestSlot(t *testing.T) {
	bb := &stubBillboard{}
	settings := DefaultSettings()
	settings.LOD.RecenterPivot = false
	settings.Billboard.Enabled = true
	settings.Billboard.TextureSize = 128
	s, st := begunSession(WithSettings(settings), WithBillboardBuilder(bb))
	registerPass(s, 1, 0)
	registerPass(s, 2, 0)

	root, err := s.Commit()
	require.NoError(t, err)

	require.Len(t, root.LOD.Levels, 3)
	last := root.LOD.Levels[2]
	assert.Equal(t, "Billboard", last.Node.Name)
	assert.Equal(t, float32(billboardThreshold), last.Threshold)

	assert.Equal(t, 128, bb.textureSize)
	assert.Same(t, root.LOD.Levels[0].Node, bb.source, "billboard renders from the highest-detail object")
	assert.Contains(t, st.assets[0].textures, "billboard")
}

func TestCommitThreePassesWithBillboardDescends(t *testing.T) {
	bb := &stubBillboard{}
	settings := DefaultSettings()
	settings.LOD.RecenterPivot = false
	settings.Billboard.Enabled = true
	s, _ := begunSession(WithSettings(settings), WithBillboardBuilder(bb))
	registerPass(s, 1, 0)
	registerPass(s, 2, 0)
	registerPass(s, 3, 0)

	root, err := s.Commit()
	require.NoError(t, err)

	require.Len(t, root.LOD.Levels, 4)
	assert.Equal(t, "Billboard", root.LOD.Levels[3].Node.Name)
	assert.Equal(t, float32(billboardThreshold), root.LOD.Levels[3].Threshold)
	for i := 1; i < len(root.LOD.Levels); i++ {
		assert.Less(t, root.LOD.Levels[i].Threshold, root.LOD.Levels[i-1].Threshold,
			"level %d threshold must sit below the previous level's", i)
	}
}

func TestCommitSinglePassWithBillboardBuildsGroup(t *testing.T) {
	bb := &stubBillboard{}
	settings := DefaultSettings()
	settings.LOD.RecenterPivot = false
	settings.Billboard.Enabled = true
	s, _ := begunSession(WithSettings(settings), WithBillboardBuilder(bb))
	registerPass(s, 1, 0)

	root, err := s.Commit()
	require.NoError(t, err)
	require.NotNil(t, root.LOD)
	require.Len(t, root.LOD.Levels, 2)
	assert.Equal(t, float32(0.5), root.LOD.Levels[0].Threshold)
	assert.Equal(t, "Billboard", root.LOD.Levels[1].Node.Name)
}

func TestCommitComponentsOnEveryLODObject(t *testing.T) {
	settings := DefaultSettings()
	settings.LOD.RecenterPivot = false
	settings.Components = []scene.Component{{Name: "WindResponder"}, {Name: "ColliderProxy"}}
	s, _ := begunSession(WithSettings(settings))
	registerPass(s, 1, 0)
	registerPass(s, 2, 0)

	root, err := s.Commit()
	require.NoError(t, err)

	assert.Len(t, root.Components, 2, "root gets the components")
	for _, lvl := range root.LOD.Levels {
		assert.Len(t, lvl.Node.Components, 2, "node %s", lvl.Node.Name)
	}
}

func TestCommitNotifiesOncePerLODObject(t *testing.T) {
	var notified []string
	settings := DefaultSettings()
	settings.LOD.RecenterPivot = false
	s, _ := begunSession(
		WithSettings(settings),
		WithLODReady(func(n *scene.Node) { notified = append(notified, n.Name) }),
	)
	registerPass(s, 1, 0)
	registerPass(s, 2, 0)
	registerPass(s, 3, 0)

	_, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, []string{"LOD0", "LOD1", "LOD2"}, notified)
}

func TestCommitRecentersPivot(t *testing.T) {
	settings := DefaultSettings()
	settings.LOD.RecenterPivot = true
	s, _ := begunSession(WithSettings(settings))
	// Geometry sits at x in [4, 5]; the pivot shifts to its horizontal center.
	registerPass(s, 1, 4)

	root, err := s.Commit()
	require.NoError(t, err)

	c := root.Mesh.Bounds.Center()
	assert.InDelta(t, 0, c.X(), 1e-5)
	assert.InDelta(t, 0, c.Z(), 1e-5)
}

func TestCommitWithoutPassesFails(t *testing.T) {
	s, _ := begunSession()
	_, err := s.Commit()
	assert.Error(t, err)
}

// Commit is documented as non-idempotent: a second Commit without Clear
// re-attaches and re-saves. The test pins the caller-contract behavior.
func TestCommitTwiceIsCallerError(t *testing.T) {
	settings := DefaultSettings()
	settings.LOD.RecenterPivot = false
	s, st := begunSession(WithSettings(settings))
	registerPass(s, 1, 0)
	registerPass(s, 2, 0)

	_, err := s.Commit()
	require.NoError(t, err)
	meshesAfterFirst := len(st.assets[0].meshIDs)

	_, err = s.Commit()
	require.NoError(t, err)
	assert.Equal(t, 2, st.assets[0].saves)
	assert.Greater(t, len(st.assets[0].meshIDs), meshesAfterFirst,
		"second commit duplicates attachments")
}
