// Package simulate implements the signal-flow simulation engine.
//
// Simulation computes forward reachability over a layout: start devices are
// the nodes nothing points at (inbound degree zero with at least one
// outbound connection, counting only connections with two resolvable
// endpoints), and a breadth-first traversal from all of them at once marks
// what a signal can reach. The result is an
// ordered finding list in the same shape the validation engine produces.
//
// The engine is deterministic given the layout and carries no state between
// runs other than an optional cached copy of the last result set, kept so
// exports can include the most recent simulation without re-running it.
package simulate

import (
	"fmt"

	"github.com/tracewire/tracewire/pkg/diagram"
	"github.com/tracewire/tracewire/pkg/finding"
)

// Run simulates signal flow through the layout.
//
// If no start devices exist (every connected node has an inbound
// connection, or the layout has no connections at all), Run returns a
// single informational finding and stops - it deliberately does not pile
// an unreachability warning onto every node in that case.
//
// Otherwise every node never reached by the traversal gets an
// "unreachable in simulation" warning, and every reached operational node
// with no outbound connections gets a "terminates the flow" warning.
// A run with nothing to report appends the explicit success finding.
func Run(l diagram.Layout) finding.List {
	var out finding.List

	nodes := make(map[string]*diagram.LayoutNode, len(l.Nodes))
	for i := range l.Nodes {
		nodes[l.Nodes[i].ID] = &l.Nodes[i]
	}

	adjacency := make(map[string][]string, len(nodes))
	inbound := make(map[string]int, len(nodes))
	for _, c := range l.Connections {
		if _, ok := nodes[c.From.NodeID]; !ok {
			continue
		}
		if _, ok := nodes[c.To.NodeID]; !ok {
			continue
		}
		adjacency[c.From.NodeID] = append(adjacency[c.From.NodeID], c.To.NodeID)
		inbound[c.To.NodeID]++
	}

	// Start set: zero inbound degree with at least one outbound connection,
	// in deterministic node order. A fully isolated node is not a start
	// device - a graph with no connections at all has nothing to simulate.
	var queue []string
	for _, n := range l.Nodes {
		if inbound[n.ID] == 0 && len(adjacency[n.ID]) > 0 {
			queue = append(queue, n.ID)
		}
	}

	if len(queue) == 0 {
		return finding.List{{
			Severity: finding.SeverityInfo,
			Message:  "no start devices detected",
		}}
	}

	visited := make(map[string]bool, len(nodes))
	for _, id := range queue {
		visited[id] = true
	}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[curr] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, n := range l.Nodes {
		if !visited[n.ID] {
			out = append(out, finding.Finding{
				Severity: finding.SeverityWarning,
				Message:  fmt.Sprintf("device %q is unreachable in simulation", label(&n)),
				NodeID:   n.ID,
			})
			continue
		}
		if n.Metadata.Status == diagram.StatusOperational && len(adjacency[n.ID]) == 0 {
			out = append(out, finding.Finding{
				Severity: finding.SeverityWarning,
				Message:  fmt.Sprintf("device %q terminates the flow", label(&n)),
				NodeID:   n.ID,
			})
		}
	}

	if len(out) == 0 {
		out = append(out, finding.Finding{
			Severity: finding.SeverityOK,
			Message:  "all devices reachable",
		})
	}
	return out
}

func label(n *diagram.LayoutNode) string {
	if n.Label != "" {
		return n.Label
	}
	if n.Model != "" {
		return n.Model
	}
	return n.ID
}

// Engine wraps [Run] with a cached copy of the last result set so exports
// can attach the most recent simulation without re-running it. The zero
// value is ready to use.
type Engine struct {
	last finding.List
}

// Run simulates the layout and caches the result.
func (e *Engine) Run(l diagram.Layout) finding.List {
	res := Run(l)
	e.last = append(finding.List(nil), res...)
	return res
}

// LastResults returns a copy of the most recent run's findings, or nil if
// the engine has not run yet.
func (e *Engine) LastResults() finding.List {
	if e.last == nil {
		return nil
	}
	return append(finding.List(nil), e.last...)
}
