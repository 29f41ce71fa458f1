package bake

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/treebake/pkg/material"
	"github.com/Faultbox/treebake/pkg/mesh"
)

func TestOperationsWithoutBeginAreNotApplied(t *testing.T) {
	s := NewSession(newMemStore())

	assert.False(t, s.AddSubmeshes([]*mesh.Mesh{fragment(0, mgl32.Vec2{})}, 1))
	assert.False(t, s.AddMaterial(&material.Material{Name: "bark"}, 0, 0, material.FullArea()))
	assert.False(t, s.AddMaterialParams(material.Params{}, 0))
	assert.False(t, s.OptimizeOnGroups())

	applied, err := s.OptimizeForAtlas(1024)
	assert.False(t, applied)
	assert.NoError(t, err)

	_, err = s.Commit()
	assert.ErrorIs(t, err, ErrNoBake)
}

func TestBeginWhileActiveFails(t *testing.T) {
	s, _ := begunSession()
	err := s.Begin("/elsewhere", "pine")
	assert.ErrorIs(t, err, ErrBakeActive)
}

func TestBeginSurfacesUnwritableDestination(t *testing.T) {
	st := newMemStore()
	st.validateErr = errors.New("read-only volume")
	s := NewSession(st)

	err := s.Begin("/out", "oak")
	require.Error(t, err)
	assert.False(t, s.Active())
}

func TestGetMeshUnknownPassIsEmpty(t *testing.T) {
	s, _ := begunSession()
	m := s.GetMesh(42)
	require.NotNil(t, m)
	assert.Empty(t, m.Submeshes)
	assert.True(t, m.Empty())
}

func TestGetMeshMergesFragmentsPerSubmesh(t *testing.T) {
	s, _ := begunSession()
	// Two registration calls: submesh 0 gets two fragments, submesh 1 one.
	require.True(t, s.AddSubmeshes([]*mesh.Mesh{fragment(0, mgl32.Vec2{}), fragment(2, mgl32.Vec2{})}, 1))
	require.True(t, s.AddSubmeshes([]*mesh.Mesh{fragment(4, mgl32.Vec2{})}, 1))

	m := s.GetMesh(1)
	require.Len(t, m.Submeshes, 2)
	assert.EqualValues(t, 6, m.Submeshes[0].Count, "submesh 0 should hold both fragments")
	assert.EqualValues(t, 3, m.Submeshes[1].Count)
	assert.Len(t, m.Vertices, 9)

	// Fragments collapse to one per submesh after merging.
	assert.Len(t, s.passes[1][0], 1)
}

func TestAddSubmeshesSkipsEmptyFragments(t *testing.T) {
	s, _ := begunSession()
	require.True(t, s.AddSubmeshes([]*mesh.Mesh{nil, mesh.New(), fragment(0, mgl32.Vec2{})}, 1))

	assert.NotContains(t, s.passes[1], 0)
	assert.NotContains(t, s.passes[1], 1)
	assert.Contains(t, s.passes[1], 2)
}

func TestAddSubmeshesAllEmptyRegistersNoPass(t *testing.T) {
	s, _ := begunSession()
	require.True(t, s.AddSubmeshes([]*mesh.Mesh{nil, mesh.New()}, 3))

	assert.False(t, s.HasPass(3))
	assert.Empty(t, s.Passes(), "a call with no usable fragments must leave no pass behind")
}

func TestAddMaterialReRegisterClearsPriorState(t *testing.T) {
	s, _ := begunSession()
	first := &material.Material{Name: "bark", MainTexture: texture("bark", 8)}
	second := &material.Material{Name: "moss", MainTexture: texture("moss", 8)}

	require.True(t, s.AddMaterial(first, 0, 1, material.FullArea()))
	require.True(t, s.AddMaterial(second, 0, 2, material.FullArea()))

	require.Len(t, s.materials[0], 1)
	assert.Same(t, second, s.materials[0][0])
	assert.Empty(t, s.groups[1], "prior group membership must be cleared")
	assert.Equal(t, []int{0}, s.groups[2])
}

func TestClearResetsFully(t *testing.T) {
	s, st := begunSession()
	require.True(t, s.AddSubmeshes([]*mesh.Mesh{fragment(0, mgl32.Vec2{})}, 1))
	require.True(t, s.AddMaterial(&material.Material{Name: "bark"}, 0, 3, material.FullArea()))
	require.True(t, s.AddMaterialParams(material.Params{UseInAtlas: true}, 0))

	s.Clear()

	assert.False(t, s.Active())
	assert.Empty(t, s.passes)
	assert.Empty(t, s.materials)
	assert.Empty(t, s.params)
	assert.Empty(t, s.areas)
	assert.Empty(t, s.groups)
	assert.True(t, st.assets[0].released, "output asset must be released")

	// A fresh Begin succeeds with no residue.
	require.NoError(t, s.Begin("/out", "pine"))
	assert.True(t, s.Active())
	assert.Empty(t, s.passes)
}
