package mesh

// Combine merges the given fragments into a single mesh with one submesh
// spanning all indices. Vertex indices are rebased as fragments are appended.
// Submesh boundaries inside the fragments are discarded; use CombineSubmeshes
// when material slots must survive the merge.
func Combine(fragments ...*Mesh) *Mesh {
	out := &Mesh{}
	for _, frag := range fragments {
		if frag == nil || frag.Empty() {
			continue
		}
		base := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, frag.Vertices...)
		for _, idx := range frag.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
	}
	if len(out.Indices) > 0 {
		out.Submeshes = []Submesh{{Start: 0, Count: int32(len(out.Indices))}}
	}
	out.RecomputeBounds()
	return out
}

// CombineSubmeshes merges parts into one mesh where every part occupies its
// own submesh index range, so one material can later be bound per part.
// Parts with internal submesh structure are flattened to a single range first.
// Nil or empty parts still claim a submesh slot (with zero indices) so the
// part-to-slot correspondence stays stable.
func CombineSubmeshes(parts []*Mesh) *Mesh {
	out := &Mesh{
		Submeshes: make([]Submesh, 0, len(parts)),
	}
	for _, part := range parts {
		start := int32(len(out.Indices))
		if part != nil && !part.Empty() {
			base := uint32(len(out.Vertices))
			out.Vertices = append(out.Vertices, part.Vertices...)
			for _, idx := range part.Indices {
				out.Indices = append(out.Indices, base+idx)
			}
		}
		out.Submeshes = append(out.Submeshes, Submesh{
			Start: start,
			Count: int32(len(out.Indices)) - start,
		})
	}
	out.RecomputeBounds()
	return out
}
