// Package arrange implements the layout algorithms applied to diagram node
// positions: auto-arrange (layered placement), auto-route, align,
// distribute, and duplicate.
//
// All operations are idempotent transforms over the store - running
// auto-arrange twice produces the same positions, and align/distribute on
// an already-tidy selection is a no-op. Precondition failures (too few
// selected nodes) are rejected synchronously with a sentinel error and no
// partial mutation.
package arrange

import (
	"errors"
	"slices"
	"strings"

	"github.com/tracewire/tracewire/pkg/diagram"
)

var (
	// ErrTooFewForAlign is returned by [AlignLeft] and [AlignCenter] when
	// fewer than two selected nodes resolve.
	ErrTooFewForAlign = errors.New("alignment needs at least two selected devices")

	// ErrTooFewForDistribute is returned by [DistributeHorizontal] and
	// [DistributeVertical] when fewer than three selected nodes resolve.
	// Callers surface it as a user-facing warning, not a failure.
	ErrTooFewForDistribute = errors.New("distribution needs at least three selected devices")

	// ErrNothingSelected is returned by [Duplicate] for an empty selection.
	ErrNothingSelected = errors.New("nothing selected")
)

// Spacing used by [AutoArrange] and [Duplicate].
const (
	MarginX  = 60.0
	MarginY  = 60.0
	GapX     = 60.0 // horizontal gap between nodes in a row
	GapY     = 80.0 // vertical gap between rows
	DupShift = 24.0 // duplicate offset on both axes
)

// =============================================================================
// Auto-Arrange - Layered Placement
// =============================================================================

// AutoArrange assigns each node a layer index equal to its longest-path
// distance from a start device and repositions everything: rows top to
// bottom with fixed spacing, nodes within a row left to right in id order.
//
// Layering uses Kahn's topological traversal: start devices (inbound degree
// zero) sit at layer 0, and every other node is pushed one past its deepest
// parent. Nodes caught in a cycle never reach zero in-degree and stay at
// layer 0. The returned map holds the computed layer index per node id.
//
// The transform is deterministic and idempotent for a given graph.
func AutoArrange(d *diagram.Diagram) map[string]int {
	nodes := d.Nodes()
	inbound, _ := d.Degrees()

	adjacency := make(map[string][]string, len(nodes))
	indegree := make(map[string]int, len(nodes))
	for _, n := range nodes {
		indegree[n.ID] = inbound[n.ID]
	}
	for _, l := range d.Links() {
		adjacency[l.From.NodeID] = append(adjacency[l.From.NodeID], l.To.NodeID)
	}

	layers := make(map[string]int, len(nodes))
	var queue []string
	for _, n := range nodes {
		if indegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, child := range adjacency[curr] {
			if row := layers[curr] + 1; row > layers[child] {
				layers[child] = row
			}
			indegree[child]--
			if indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	// Bucket nodes per layer; Nodes() is already id-sorted, so buckets are too.
	byLayer := make(map[int][]*diagram.Node)
	maxLayer := 0
	for _, n := range nodes {
		row := layers[n.ID]
		byLayer[row] = append(byLayer[row], n)
		if row > maxLayer {
			maxLayer = row
		}
	}

	y := MarginY
	for row := 0; row <= maxLayer; row++ {
		rowNodes := byLayer[row]
		if len(rowNodes) == 0 {
			continue
		}
		x := MarginX
		rowHeight := 0.0
		for _, n := range rowNodes {
			d.MoveNode(n.ID, diagram.Point{X: x, Y: y})
			x += n.Size.Width + GapX
			if n.Size.Height > rowHeight {
				rowHeight = n.Size.Height
			}
		}
		y += rowHeight + GapY
	}

	return layers
}

// AutoRoute sets every link's layout style to orthogonal.
func AutoRoute(d *diagram.Diagram) {
	layout := diagram.LinkOrthogonal
	for _, l := range d.Links() {
		style := l.Style
		style.Layout = layout
		d.UpdateLink(l.ID, diagram.LinkPatch{Style: &style})
	}
}

// =============================================================================
// Align & Distribute
// =============================================================================

// resolve filters the selection down to nodes that exist, in id order.
func resolve(d *diagram.Diagram, selected []string) []*diagram.Node {
	nodes := make([]*diagram.Node, 0, len(selected))
	for _, id := range selected {
		if n, ok := d.Node(id); ok {
			nodes = append(nodes, n)
		}
	}
	slices.SortFunc(nodes, func(a, b *diagram.Node) int { return strings.Compare(a.ID, b.ID) })
	return nodes
}

// AlignLeft snaps the selected nodes to the minimum x among them,
// leaving y untouched. Returns [ErrTooFewForAlign] for fewer than two
// resolvable nodes.
func AlignLeft(d *diagram.Diagram, selected []string) error {
	nodes := resolve(d, selected)
	if len(nodes) < 2 {
		return ErrTooFewForAlign
	}
	minX := nodes[0].Position.X
	for _, n := range nodes[1:] {
		if n.Position.X < minX {
			minX = n.Position.X
		}
	}
	for _, n := range nodes {
		d.MoveNode(n.ID, diagram.Point{X: minX, Y: n.Position.Y})
	}
	return nil
}

// AlignCenter snaps the selected nodes to the mean x among them,
// leaving y untouched. Returns [ErrTooFewForAlign] for fewer than two
// resolvable nodes.
func AlignCenter(d *diagram.Diagram, selected []string) error {
	nodes := resolve(d, selected)
	if len(nodes) < 2 {
		return ErrTooFewForAlign
	}
	var sum float64
	for _, n := range nodes {
		sum += n.Position.X
	}
	mean := sum / float64(len(nodes))
	for _, n := range nodes {
		d.MoveNode(n.ID, diagram.Point{X: mean, Y: n.Position.Y})
	}
	return nil
}

// DistributeHorizontal spaces the selected nodes evenly between the leftmost
// and rightmost of them: step = (last - first) / (n - 1), sorted by current
// x. Fewer than three resolvable nodes is a no-op returning
// [ErrTooFewForDistribute].
func DistributeHorizontal(d *diagram.Diagram, selected []string) error {
	return distribute(d, selected,
		func(n *diagram.Node) float64 { return n.Position.X },
		func(n *diagram.Node, v float64) diagram.Point { return diagram.Point{X: v, Y: n.Position.Y} })
}

// DistributeVertical spaces the selected nodes evenly between the topmost
// and bottommost of them, sorted by current y. Fewer than three resolvable
// nodes is a no-op returning [ErrTooFewForDistribute].
func DistributeVertical(d *diagram.Diagram, selected []string) error {
	return distribute(d, selected,
		func(n *diagram.Node) float64 { return n.Position.Y },
		func(n *diagram.Node, v float64) diagram.Point { return diagram.Point{X: n.Position.X, Y: v} })
}

func distribute(d *diagram.Diagram, selected []string,
	axis func(*diagram.Node) float64,
	place func(*diagram.Node, float64) diagram.Point,
) error {
	nodes := resolve(d, selected)
	if len(nodes) < 3 {
		return ErrTooFewForDistribute
	}
	slices.SortStableFunc(nodes, func(a, b *diagram.Node) int {
		switch {
		case axis(a) < axis(b):
			return -1
		case axis(a) > axis(b):
			return 1
		default:
			return 0
		}
	})

	first, last := axis(nodes[0]), axis(nodes[len(nodes)-1])
	step := (last - first) / float64(len(nodes)-1)
	for i, n := range nodes {
		d.MoveNode(n.ID, place(n, first+step*float64(i)))
	}
	return nil
}

// =============================================================================
// Duplicate
// =============================================================================

// Duplicate copies the selected nodes with a fixed pixel offset, assigning
// fresh ids, and remaps links whose both endpoints are inside the selection.
// Links crossing the selection boundary are not duplicated. Returns the ids
// of the new nodes in the order of the (id-sorted) originals.
func Duplicate(d *diagram.Diagram, selected []string) ([]string, error) {
	nodes := resolve(d, selected)
	if len(nodes) == 0 {
		return nil, ErrNothingSelected
	}

	idMap := make(map[string]string, len(nodes))
	newIDs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		dup := *n
		dup.ID = ""
		dup.Position = diagram.Point{X: n.Position.X + DupShift, Y: n.Position.Y + DupShift}
		dup.Meta.Locked = false
		dup.Meta.LockedBy = ""
		created, err := d.AddNode(dup)
		if err != nil {
			return nil, err
		}
		idMap[n.ID] = created.ID
		newIDs = append(newIDs, created.ID)
	}

	for _, l := range d.Links() {
		from, fromIn := idMap[l.From.NodeID]
		to, toIn := idMap[l.To.NodeID]
		if !fromIn || !toIn {
			continue
		}
		dup := *l
		dup.ID = ""
		dup.From.NodeID = from
		dup.To.NodeID = to
		if _, err := d.AddLink(dup); err != nil {
			return nil, err
		}
	}

	return newIDs, nil
}
