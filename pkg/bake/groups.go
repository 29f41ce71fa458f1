package bake

import "github.com/Faultbox/treebake/pkg/material"

// OptimizeOnGroups reduces the number of submesh/material slots by merging
// group members that share the same main-texture identity. Within each
// group, members are bucketed by texture identity in registration order;
// the first member of a bucket becomes the container and every other
// member's fragments and materials are folded into it across all registered
// passes, after which the folded slot is removed entirely.
//
// The pass is idempotent: once consolidated, re-running finds only
// single-member buckets and changes nothing. A group member with no
// material entry (already folded, or never registered) is skipped, not an
// error, so a later re-registration of that index starts a fresh slot.
// Returns false (not applied) when no bake is active.
func (s *Session) OptimizeOnGroups() bool {
	if !s.valid {
		return false
	}
	for _, g := range s.groupOrder {
		type bucket struct {
			tex     *material.Texture
			members []int
		}
		var buckets []*bucket
		for _, si := range s.groups[g] {
			mats, ok := s.materials[si]
			if !ok || len(mats) == 0 {
				continue
			}
			tex := mats[0].MainTexture
			var target *bucket
			for _, b := range buckets {
				if b.tex.SameIdentity(tex) {
					target = b
					break
				}
			}
			if target == nil {
				target = &bucket{tex: tex}
				buckets = append(buckets, target)
			}
			target.members = append(target.members, si)
		}

		var survivors []int
		for _, b := range buckets {
			container := b.members[0]
			survivors = append(survivors, container)
			for _, folded := range b.members[1:] {
				s.foldSubmesh(container, folded)
			}
		}
		s.groups[g] = survivors
	}
	return true
}

// foldSubmesh moves every fragment and material of the folded submesh into
// the container slot and deletes the folded slot from all session maps.
func (s *Session) foldSubmesh(container, folded int) {
	for pass, subs := range s.passes {
		frags, ok := subs[folded]
		if !ok {
			continue
		}
		subs[container] = append(subs[container], frags...)
		delete(subs, folded)
		s.log.Debugw("folded submesh", "pass", pass, "from", folded, "into", container)
	}
	s.materials[container] = append(s.materials[container], s.materials[folded]...)
	delete(s.materials, folded)
	delete(s.areas, folded)
}
