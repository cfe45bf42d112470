package diagram

import (
	"errors"
	"slices"
)

var (
	// ErrGroupNotFound is returned when a group id does not resolve.
	ErrGroupNotFound = errors.New("group not found")

	// ErrEmptyGroup is returned by [Diagram.GroupNodes] when fewer than two
	// member nodes resolve. A group of one is just a node.
	ErrEmptyGroup = errors.New("a group needs at least two member nodes")
)

// Groups returns all groups sorted by id.
func (d *Diagram) Groups() []*Group {
	groups := make([]*Group, 0, len(d.groups))
	for _, g := range d.groups {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b *Group) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return groups
}

// Group returns the group with the given id and true, or nil and false.
func (d *Diagram) Group(id string) (*Group, bool) {
	g, ok := d.groups[id]
	return g, ok
}

// GroupNodes creates a group containing the resolvable subset of memberIDs.
// Unknown ids are skipped; if fewer than two remain, [ErrEmptyGroup] is
// returned and nothing is created.
func (d *Diagram) GroupNodes(label string, memberIDs []string) (*Group, error) {
	members := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		if _, ok := d.nodes[id]; ok && !slices.Contains(members, id) {
			members = append(members, id)
		}
	}
	if len(members) < 2 {
		return nil, ErrEmptyGroup
	}
	slices.Sort(members)
	g := &Group{ID: d.newID(), Label: label, Members: members}
	d.groups[g.ID] = g
	d.bump()
	return g, nil
}

// Ungroup dissolves the group, releasing members in place - their absolute
// positions are untouched. Returns [ErrGroupNotFound] if the id does not
// resolve.
func (d *Diagram) Ungroup(id string) error {
	if _, ok := d.groups[id]; !ok {
		return ErrGroupNotFound
	}
	delete(d.groups, id)
	d.bump()
	return nil
}

// MoveGroup translates every member node by (dx, dy) in one mutation.
// Locked members are skipped. Returns [ErrGroupNotFound] if the id does
// not resolve.
func (d *Diagram) MoveGroup(id string, dx, dy float64) error {
	g, ok := d.groups[id]
	if !ok {
		return ErrGroupNotFound
	}
	for _, memberID := range g.Members {
		n, ok := d.nodes[memberID]
		if !ok || n.Locked() {
			continue
		}
		n.Position.X += dx
		n.Position.Y += dy
	}
	d.bump()
	return nil
}

// GroupOf returns the group containing the node, or nil if ungrouped.
func (d *Diagram) GroupOf(nodeID string) *Group {
	for _, g := range d.Groups() {
		if slices.Contains(g.Members, nodeID) {
			return g
		}
	}
	return nil
}
