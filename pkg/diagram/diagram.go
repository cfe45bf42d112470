package diagram

import (
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidID is returned when an entity id is empty where one is required.
	ErrInvalidID = errors.New("id must not be empty")

	// ErrDuplicateID is returned by [Diagram.AddNode] and [Diagram.AddLink]
	// when an entity with the same id already exists.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrNodeNotFound is returned when a node id does not resolve.
	ErrNodeNotFound = errors.New("node not found")

	// ErrLinkNotFound is returned when a link id does not resolve.
	ErrLinkNotFound = errors.New("link not found")

	// ErrUnknownEndpoint is returned by [Diagram.AddLink] when either endpoint
	// references a node that does not exist. Links can only be drawn between
	// existing ports, so this is always a caller bug rather than user input.
	ErrUnknownEndpoint = errors.New("link endpoint references unknown node")
)

// Option configures a new Diagram.
type Option func(*Diagram)

// WithIDFunc overrides the id generator. Tests use this for deterministic ids;
// the default generates UUIDs.
func WithIDFunc(fn func() string) Option {
	return func(d *Diagram) { d.newID = fn }
}

// Diagram is the in-memory graph store: id-keyed entity tables for nodes,
// links, layers, and groups, plus the derived incident-link index.
//
// The zero value is not usable - use [New]. Diagram is not safe for
// concurrent use without external synchronization.
type Diagram struct {
	canvas   Canvas
	nodes    map[string]*Node
	links    map[string]*Link
	layers   []Layer
	groups   map[string]*Group
	incident map[string][]string // nodeID -> incident link ids
	version  uint64
	newID    func() string
}

// New creates an empty diagram with the Default layer and default canvas.
func New(opts ...Option) *Diagram {
	d := &Diagram{
		canvas:   DefaultCanvas(),
		nodes:    make(map[string]*Node),
		links:    make(map[string]*Link),
		layers:   []Layer{{Name: DefaultLayer, Visible: true}},
		groups:   make(map[string]*Group),
		incident: make(map[string][]string),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Version returns the monotonic change counter. Every successful mutation
// increments it; renderers compare versions instead of dirty-tracking
// object identity.
func (d *Diagram) Version() uint64 { return d.version }

func (d *Diagram) bump() { d.version++ }

// Canvas returns the current viewport settings.
func (d *Diagram) Canvas() Canvas { return d.canvas }

// SetCanvas replaces the viewport settings.
func (d *Diagram) SetCanvas(c Canvas) {
	d.canvas = c
	d.bump()
}

// =============================================================================
// Nodes
// =============================================================================

// AddNode inserts a node and returns the stored copy. An empty id is
// assigned a fresh one; an empty layer defaults to [DefaultLayer]; a zero
// size defaults to [DefaultNodeWidth] x [DefaultNodeHeight].
// Returns [ErrDuplicateID] if the id is already taken.
func (d *Diagram) AddNode(n Node) (*Node, error) {
	if n.ID == "" {
		n.ID = d.newID()
	}
	if _, exists := d.nodes[n.ID]; exists {
		return nil, ErrDuplicateID
	}
	if n.Layer == "" {
		n.Layer = DefaultLayer
	}
	if n.Size.Width == 0 {
		n.Size.Width = DefaultNodeWidth
	}
	if n.Size.Height == 0 {
		n.Size.Height = DefaultNodeHeight
	}
	node := &n
	d.nodes[node.ID] = node
	d.bump()
	return node, nil
}

// Node returns the node with the given id and true, or nil and false.
// The pointer refers to the stored record; mutate through [Diagram.UpdateNode]
// so the change version stays accurate.
func (d *Diagram) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by id for deterministic iteration.
func (d *Diagram) Nodes() []*Node {
	nodes := make([]*Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return strings.Compare(a.ID, b.ID) })
	return nodes
}

// NodeCount returns the number of nodes.
func (d *Diagram) NodeCount() int { return len(d.nodes) }

// UpdateNode applies a partial update to the node. Nil patch fields are
// left unchanged. Returns [ErrNodeNotFound] if the id does not resolve.
func (d *Diagram) UpdateNode(id string, patch NodePatch) error {
	n, ok := d.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	if patch.Label != nil {
		n.Label = *patch.Label
	}
	if patch.Model != nil {
		n.Model = *patch.Model
	}
	if patch.Description != nil {
		n.Description = *patch.Description
	}
	if patch.Position != nil {
		n.Position = *patch.Position
	}
	if patch.Size != nil {
		n.Size = *patch.Size
	}
	if patch.Layer != nil {
		n.Layer = *patch.Layer
	}
	if patch.Style != nil {
		n.Style = *patch.Style
	}
	if patch.Image != nil {
		n.Image = *patch.Image
	}
	if patch.Meta != nil {
		n.Meta = *patch.Meta
	}
	d.bump()
	return nil
}

// ReplaceNode overwrites the stored node with n, matched by id. The layer
// is registered if new. Returns [ErrNodeNotFound] if the id does not
// resolve.
func (d *Diagram) ReplaceNode(n Node) error {
	stored, ok := d.nodes[n.ID]
	if !ok {
		return ErrNodeNotFound
	}
	if n.Layer == "" {
		n.Layer = DefaultLayer
	}
	d.ensureLayer(n.Layer)
	*stored = n
	d.bump()
	return nil
}

// MoveNode sets the node's position. Returns [ErrNodeNotFound] if the id
// does not resolve.
func (d *Diagram) MoveNode(id string, to Point) error {
	n, ok := d.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	n.Position = to
	d.bump()
	return nil
}

// RemoveNode deletes the node, cascades to its incident links, and removes
// it from any group memberships. Returns [ErrNodeNotFound] if the id does
// not resolve, along with the removed node and links for undo support.
func (d *Diagram) RemoveNode(id string) (*Node, []*Link, error) {
	n, ok := d.nodes[id]
	if !ok {
		return nil, nil, ErrNodeNotFound
	}

	var removed []*Link
	for _, linkID := range slices.Clone(d.incident[id]) {
		if l, ok := d.links[linkID]; ok {
			removed = append(removed, l)
			d.detachLink(l)
		}
	}
	delete(d.incident, id)
	delete(d.nodes, id)

	for _, g := range d.groups {
		g.Members = slices.DeleteFunc(g.Members, func(m string) bool { return m == id })
	}

	d.bump()
	return n, removed, nil
}

// Lock marks the node immutable for drag and selection and stamps the
// identity holding the lock. Returns [ErrNodeNotFound] if the id does not
// resolve.
func (d *Diagram) Lock(id, by string) error {
	n, ok := d.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	n.Meta.Locked = true
	n.Meta.LockedBy = by
	d.bump()
	return nil
}

// Unlock clears the node's lock. Returns [ErrNodeNotFound] if the id does
// not resolve.
func (d *Diagram) Unlock(id string) error {
	n, ok := d.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	n.Meta.Locked = false
	n.Meta.LockedBy = ""
	d.bump()
	return nil
}

// =============================================================================
// Links
// =============================================================================

// AddLink inserts a link between two existing node ports and returns the
// stored copy. An empty id is assigned a fresh one; an empty style layout
// defaults to [LinkStraight] with an end arrowhead.
// Returns [ErrUnknownEndpoint] if either endpoint node does not exist, or
// [ErrDuplicateID] if the id is already taken.
func (d *Diagram) AddLink(l Link) (*Link, error) {
	if _, ok := d.nodes[l.From.NodeID]; !ok {
		return nil, ErrUnknownEndpoint
	}
	if _, ok := d.nodes[l.To.NodeID]; !ok {
		return nil, ErrUnknownEndpoint
	}
	if l.ID == "" {
		l.ID = d.newID()
	}
	if _, exists := d.links[l.ID]; exists {
		return nil, ErrDuplicateID
	}
	if l.Style.Layout == "" {
		l.Style.Layout = LinkStraight
		l.Style.Arrowheads.End = true
	}
	if l.Style.Width == 0 {
		l.Style.Width = 2
	}
	link := &l
	d.links[link.ID] = link
	d.incident[link.From.NodeID] = append(d.incident[link.From.NodeID], link.ID)
	if link.To.NodeID != link.From.NodeID {
		d.incident[link.To.NodeID] = append(d.incident[link.To.NodeID], link.ID)
	}
	d.bump()
	return link, nil
}

// Link returns the link with the given id and true, or nil and false.
func (d *Diagram) Link(id string) (*Link, bool) {
	l, ok := d.links[id]
	return l, ok
}

// Links returns all links sorted by id for deterministic iteration.
func (d *Diagram) Links() []*Link {
	links := make([]*Link, 0, len(d.links))
	for _, l := range d.links {
		links = append(links, l)
	}
	slices.SortFunc(links, func(a, b *Link) int { return strings.Compare(a.ID, b.ID) })
	return links
}

// LinkCount returns the number of links.
func (d *Diagram) LinkCount() int { return len(d.links) }

// IncidentLinks returns the ids of links touching the node.
// The returned slice is a read-only view.
func (d *Diagram) IncidentLinks(nodeID string) []string { return d.incident[nodeID] }

// UpdateLink applies a partial update to the link. Nil patch fields are
// left unchanged. Returns [ErrLinkNotFound] if the id does not resolve.
func (d *Diagram) UpdateLink(id string, patch LinkPatch) error {
	l, ok := d.links[id]
	if !ok {
		return ErrLinkNotFound
	}
	if patch.Label != nil {
		l.Label = *patch.Label
	}
	if patch.Type != nil {
		l.Type = *patch.Type
	}
	if patch.Style != nil {
		l.Style = *patch.Style
	}
	if patch.Meta != nil {
		l.Meta = *patch.Meta
	}
	d.bump()
	return nil
}

// ReplaceLink overwrites the stored link with l, matched by id, rebuilding
// the incident index when endpoints changed. Returns [ErrLinkNotFound] if
// the id does not resolve, or [ErrUnknownEndpoint] if either new endpoint
// node does not exist.
func (d *Diagram) ReplaceLink(l Link) error {
	stored, ok := d.links[l.ID]
	if !ok {
		return ErrLinkNotFound
	}
	if _, ok := d.nodes[l.From.NodeID]; !ok {
		return ErrUnknownEndpoint
	}
	if _, ok := d.nodes[l.To.NodeID]; !ok {
		return ErrUnknownEndpoint
	}
	if stored.From != l.From || stored.To != l.To {
		d.detachLink(stored)
		d.links[l.ID] = stored
		d.incident[l.From.NodeID] = append(d.incident[l.From.NodeID], l.ID)
		if l.To.NodeID != l.From.NodeID {
			d.incident[l.To.NodeID] = append(d.incident[l.To.NodeID], l.ID)
		}
	}
	*stored = l
	d.bump()
	return nil
}

// RemoveLink deletes the link. Returns the removed link for undo support,
// or [ErrLinkNotFound] if the id does not resolve.
func (d *Diagram) RemoveLink(id string) (*Link, error) {
	l, ok := d.links[id]
	if !ok {
		return nil, ErrLinkNotFound
	}
	d.detachLink(l)
	d.bump()
	return l, nil
}

// detachLink removes the link record and its incident-index entries without
// bumping the version. Callers bump once per logical mutation.
func (d *Diagram) detachLink(l *Link) {
	delete(d.links, l.ID)
	d.incident[l.From.NodeID] = slices.DeleteFunc(d.incident[l.From.NodeID], func(s string) bool { return s == l.ID })
	d.incident[l.To.NodeID] = slices.DeleteFunc(d.incident[l.To.NodeID], func(s string) bool { return s == l.ID })
}

// =============================================================================
// Degree Helpers
// =============================================================================

// Degrees returns inbound and outbound link counts per node id.
// Only links with two resolvable endpoints contribute; the store upholds
// that invariant on every path, so in practice all links count.
func (d *Diagram) Degrees() (inbound, outbound map[string]int) {
	inbound = make(map[string]int, len(d.nodes))
	outbound = make(map[string]int, len(d.nodes))
	for _, l := range d.links {
		if _, ok := d.nodes[l.From.NodeID]; !ok {
			continue
		}
		if _, ok := d.nodes[l.To.NodeID]; !ok {
			continue
		}
		outbound[l.From.NodeID]++
		inbound[l.To.NodeID]++
	}
	return inbound, outbound
}
