// Package validate implements the topology validation engine.
//
// Validation is a pure function over a layout (the full serialized graph):
// it never mutates anything and never fails - content problems come back as
// ordered findings. Link endpoint errors sort first (in connection order),
// then signal-type mismatch warnings, then per-node connectivity warnings
// (in node order). A run that finds nothing appends the explicit
// "no issues found" success finding, so an empty result never needs to be
// disambiguated from "not yet run".
//
// The live editor passes [diagram.Diagram.ExportLayout]; imported or legacy
// layouts can be validated before loading, which is where dangling endpoint
// references actually occur (the store itself refuses them on create).
package validate

import (
	"fmt"

	"github.com/tracewire/tracewire/pkg/diagram"
	"github.com/tracewire/tracewire/pkg/finding"
)

// Run validates the layout and returns the ordered finding list.
//
// Checks, in order:
//
//   - every connection endpoint must reference an existing node (error)
//   - a non-empty connection type must match each endpoint's non-empty
//     signal_type, compared case-insensitively after normalization; a
//     differing endpoint is cited (warning)
//   - every node should carry a layer reference (warning)
//   - an operational node with zero inbound connections, or any node with
//     zero outbound connections, is flagged (warning)
//
// The result is never empty: a clean run yields a single
// [finding.SeverityOK] entry.
func Run(l diagram.Layout) finding.List {
	var out finding.List

	nodes := make(map[string]*diagram.LayoutNode, len(l.Nodes))
	for i := range l.Nodes {
		nodes[l.Nodes[i].ID] = &l.Nodes[i]
	}

	inbound := make(map[string]int, len(nodes))
	outbound := make(map[string]int, len(nodes))

	// Pass 1: structural endpoint errors. Valid connections feed the degree
	// counters used by the per-node checks below.
	for _, c := range l.Connections {
		_, fromOK := nodes[c.From.NodeID]
		_, toOK := nodes[c.To.NodeID]
		if !fromOK || !toOK {
			out = append(out, finding.Finding{
				Severity: finding.SeverityError,
				Message:  fmt.Sprintf("connection %q references a missing device", c.ID),
				LinkID:   c.ID,
			})
			continue
		}
		outbound[c.From.NodeID]++
		inbound[c.To.NodeID]++
	}

	// Pass 2: signal-type mismatches.
	for _, c := range l.Connections {
		connType := diagram.NormalizeSignalType(c.Type)
		if connType == "" {
			continue
		}
		for _, ep := range []diagram.Endpoint{c.From, c.To} {
			n, ok := nodes[ep.NodeID]
			if !ok {
				continue
			}
			nodeType := diagram.NormalizeSignalType(n.Metadata.SignalType)
			if nodeType == "" || nodeType == connType {
				continue
			}
			out = append(out, finding.Finding{
				Severity: finding.SeverityWarning,
				Message: fmt.Sprintf("connection %q carries %s but device %q is typed %s",
					c.ID, connType, displayLabel(n), nodeType),
				NodeID: n.ID,
				LinkID: c.ID,
			})
		}
	}

	// Pass 3: per-node checks.
	for _, n := range l.Nodes {
		if n.Layer == "" {
			out = append(out, finding.Finding{
				Severity: finding.SeverityWarning,
				Message:  fmt.Sprintf("device %q has no layer assignment", displayLabel(&n)),
				NodeID:   n.ID,
			})
		}
		if n.Metadata.Status == diagram.StatusOperational && inbound[n.ID] == 0 {
			out = append(out, finding.Finding{
				Severity: finding.SeverityWarning,
				Message:  fmt.Sprintf("operational device %q has no incoming links", displayLabel(&n)),
				NodeID:   n.ID,
			})
		}
		if outbound[n.ID] == 0 {
			out = append(out, finding.Finding{
				Severity: finding.SeverityWarning,
				Message:  fmt.Sprintf("device %q has no outgoing links", displayLabel(&n)),
				NodeID:   n.ID,
			})
		}
	}

	if len(out) == 0 {
		out = append(out, finding.Finding{
			Severity: finding.SeverityOK,
			Message:  "no issues found",
		})
	}
	return out
}

func displayLabel(n *diagram.LayoutNode) string {
	if n.Label != "" {
		return n.Label
	}
	if n.Model != "" {
		return n.Model
	}
	return n.ID
}
