// Package scene provides a minimal node tree for assembled bake output. The
// bake core only needs "attach an opaque behavior descriptor to a node", not
// any host-engine object model.
package scene

import (
	"github.com/Faultbox/treebake/pkg/material"
	"github.com/Faultbox/treebake/pkg/mesh"
)

// Component is an opaque behavior descriptor attached to a node. The bake
// never interprets Props; it only carries them into the output.
type Component struct {
	Name  string         `yaml:"name"`
	Props map[string]any `yaml:"props,omitempty"`
}

// Attacher is anything that accepts component descriptors.
type Attacher interface {
	Attach(c Component)
}

// Node is one object in the baked hierarchy.
type Node struct {
	Name       string
	Children   []*Node
	Components []Component
	Mesh       *mesh.Mesh
	Materials  []*material.Material
	LOD        *LODGroup
}

// Level is one entry of a LOD group: the node shown while the object's
// screen size is above Threshold (and below the previous level's).
type Level struct {
	Threshold float32
	Node      *Node
}

// LODGroup orders nodes from highest detail (index 0) to lowest.
type LODGroup struct {
	Levels []Level
}

// NewNode returns a named node with no children or components.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// Attach appends a component descriptor. Duplicates are allowed; the bake
// attaches descriptors unconditionally and callers own de-duplication.
func (n *Node) Attach(c Component) {
	n.Components = append(n.Components, c)
}

// AddChild appends a child node.
func (n *Node) AddChild(child *Node) {
	n.Children = append(n.Children, child)
}
