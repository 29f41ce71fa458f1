// Package bake drives the tree-asset bake: per-pass submesh collection,
// group-based material consolidation, atlas packing with UV rewrite, and
// final LOD hierarchy assembly committed to an output asset store.
package bake

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/treebake/pkg/material"
	"github.com/Faultbox/treebake/pkg/mesh"
	"github.com/Faultbox/treebake/pkg/scene"
	"github.com/Faultbox/treebake/pkg/store"
)

var (
	// ErrBakeActive is returned by Begin while a bake is already in progress.
	ErrBakeActive = errors.New("bake already in progress")
	// ErrNoBake is returned by Commit when no bake has been begun.
	ErrNoBake = errors.New("no bake in progress")
)

// LODReadyFunc is invoked once per LOD object before the asset is finalized.
type LODReadyFunc func(node *scene.Node)

// Session is one bake from Begin to Commit (or Clear). All state is
// in-process and single-threaded; the session cooperates with the host
// tool's main thread and is never shared across goroutines. Only one bake
// may be active per Session at a time.
type Session struct {
	log      *zap.SugaredLogger
	store    store.Store
	settings Settings

	billboard  BillboardBuilder
	onLODReady LODReadyFunc

	valid  bool
	folder string
	name   string
	asset  store.Asset

	// passes maps pass number -> submesh index -> mesh fragments. Multiple
	// fragments exist per submesh before merging; GetMesh collapses them.
	passes    map[int]map[int][]*mesh.Mesh
	materials map[int][]*material.Material
	matOrder  []int
	params    map[int]material.Params
	areas     map[int]material.MapArea
	// groups maps group id -> member submesh indices in registration order.
	groups     map[int][]int
	groupOrder []int
}

// Option configures a Session at construction.
type Option func(*Session)

// WithLogger sets the session logger. The default is a no-op logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Session) { s.log = log }
}

// WithSettings overrides the default bake settings.
func WithSettings(settings Settings) Option {
	return func(s *Session) { s.settings = settings }
}

// WithBillboardBuilder injects the external billboard generator.
func WithBillboardBuilder(b BillboardBuilder) Option {
	return func(s *Session) { s.billboard = b }
}

// WithLODReady sets the notification invoked once per LOD object at commit.
func WithLODReady(fn LODReadyFunc) Option {
	return func(s *Session) { s.onLODReady = fn }
}

// NewSession creates an idle bake session writing through st.
func NewSession(st store.Store, opts ...Option) *Session {
	s := &Session{
		log:      zap.NewNop().Sugar(),
		store:    st,
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

// reset empties every session collection.
func (s *Session) reset() {
	s.passes = make(map[int]map[int][]*mesh.Mesh)
	s.materials = make(map[int][]*material.Material)
	s.matOrder = nil
	s.params = make(map[int]material.Params)
	s.areas = make(map[int]material.MapArea)
	s.groups = make(map[int][]int)
	s.groupOrder = nil
	s.folder = ""
	s.name = ""
	s.asset = nil
	s.valid = false
}

// Active reports whether a bake is in progress.
func (s *Session) Active() bool {
	return s.valid
}

// Begin starts a new bake targeting folder/name. It fails fast when a bake
// is already active or the destination is not writable; a failed Begin
// leaves the session idle.
func (s *Session) Begin(folder, name string) error {
	if s.valid {
		return ErrBakeActive
	}
	if err := s.store.ValidateFolder(folder); err != nil {
		return fmt.Errorf("begin bake: %w", err)
	}
	asset, err := s.store.CreateAsset(folder, name)
	if err != nil {
		return fmt.Errorf("begin bake: %w", err)
	}
	s.folder = folder
	s.name = name
	s.asset = asset
	s.valid = true
	s.log.Infow("bake begun", "folder", folder, "asset", name)
	return nil
}

// Clear discards all session state and releases the in-progress output
// asset. It is the only cancellation primitive; output already saved by a
// prior Commit is not rolled back.
func (s *Session) Clear() {
	if s.asset != nil {
		s.asset.Release()
	}
	s.reset()
	s.log.Debug("bake session cleared")
}

// AddSubmeshes registers one raw mesh fragment per submesh index for the
// given pass; fragments[i] joins submesh i. Nil or empty fragments are
// skipped so a submesh is never registered with an empty fragment list, and
// a call with no usable fragments does not register the pass at all.
// Returns false (not applied) when no bake is active.
func (s *Session) AddSubmeshes(fragments []*mesh.Mesh, pass int) bool {
	if !s.valid {
		return false
	}
	for i, frag := range fragments {
		if frag == nil || frag.Empty() {
			continue
		}
		// The pass is registered on the first accepted fragment only.
		subs, ok := s.passes[pass]
		if !ok {
			subs = make(map[int][]*mesh.Mesh)
			s.passes[pass] = subs
		}
		subs[i] = append(subs[i], frag)
	}
	return true
}

// AddMaterial registers the material for a submesh index. Re-registering an
// index clears its prior material and group state first. A group id of 0
// means no group membership. Returns false when no bake is active.
func (s *Session) AddMaterial(m *material.Material, submesh, group int, area material.MapArea) bool {
	if !s.valid || m == nil {
		return false
	}
	if _, seen := s.materials[submesh]; !seen {
		s.matOrder = append(s.matOrder, submesh)
	}
	s.materials[submesh] = []*material.Material{m}
	s.areas[submesh] = area

	s.removeFromGroups(submesh)
	if group > 0 {
		if _, seen := s.groups[group]; !seen {
			s.groupOrder = append(s.groupOrder, group)
		}
		s.groups[group] = append(s.groups[group], submesh)
	}
	return true
}

// AddMaterialParams registers bake metadata for a submesh index. Params are
// independent of the material registration itself. Returns false when no
// bake is active.
func (s *Session) AddMaterialParams(p material.Params, submesh int) bool {
	if !s.valid {
		return false
	}
	s.params[submesh] = p
	return true
}

func (s *Session) removeFromGroups(submesh int) {
	for g, members := range s.groups {
		for i, si := range members {
			if si == submesh {
				s.groups[g] = append(members[:i], members[i+1:]...)
				return
			}
		}
	}
}

// HasPass reports whether any submesh was registered for the pass.
func (s *Session) HasPass(pass int) bool {
	subs, ok := s.passes[pass]
	return ok && len(subs) > 0
}

// Passes returns the registered pass numbers in ascending order
// (1 = highest detail).
func (s *Session) Passes() []int {
	out := make([]int, 0, len(s.passes))
	for p := range s.passes {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// GetMesh builds the merged mesh for a pass: each submesh's fragments are
// combined into one, then all submeshes are combined into a single mesh with
// one indexed submesh region per slot so a material can be bound per region.
// An unregistered pass yields an empty mesh with zero submeshes, never an
// error; use HasPass first when emptiness is not acceptable.
func (s *Session) GetMesh(pass int) *mesh.Mesh {
	subs, ok := s.passes[pass]
	if !ok {
		return mesh.New()
	}
	idxs := sortedKeys(subs)
	parts := make([]*mesh.Mesh, 0, len(idxs))
	for _, si := range idxs {
		frags := subs[si]
		part := frags[0]
		if len(frags) > 1 {
			part = mesh.Combine(frags...)
			// Fragments collapse to one once merged.
			subs[si] = []*mesh.Mesh{part}
		}
		parts = append(parts, part)
	}
	return mesh.CombineSubmeshes(parts)
}

// passMaterials returns the primary material of each submesh slot in the
// pass, ordered to match the submesh regions GetMesh produces. A slot whose
// material was never registered yields a nil entry to keep alignment.
func (s *Session) passMaterials(pass int) []*material.Material {
	subs, ok := s.passes[pass]
	if !ok {
		return nil
	}
	idxs := sortedKeys(subs)
	out := make([]*material.Material, 0, len(idxs))
	for _, si := range idxs {
		if mats, ok := s.materials[si]; ok && len(mats) > 0 {
			out = append(out, mats[0])
		} else {
			out = append(out, nil)
		}
	}
	return out
}

func sortedKeys(m map[int][]*mesh.Mesh) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
