package render

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/tracewire/tracewire/pkg/diagram"
)

// SignalReport produces the plain-text signal mapping handed to
// commissioning engineers: a device table followed by a connection table.
// Hidden layers are included; the report documents the whole system.
func SignalReport(d *diagram.Diagram) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "SIGNAL MAPPING REPORT\n")
	fmt.Fprintf(&buf, "devices: %d  connections: %d\n\n", d.NodeCount(), d.LinkCount())

	tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tMODEL\tLAYER\tIP\tSTATUS")
	for _, n := range d.Nodes() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			n.DisplayLabel(), n.Model, n.Layer, n.Meta.IPAddress, n.Meta.Status)
	}
	tw.Flush()

	buf.WriteString("\n")
	tw = tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FROM\tPORT\tTO\tPORT\tSIGNAL\tLABEL")
	for _, l := range d.Links() {
		from := endpointLabel(d, l.From)
		to := endpointLabel(d, l.To)
		signal := signalOf(d, l)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			from, l.From.PortID, to, l.To.PortID, signal, l.Label)
	}
	tw.Flush()

	return buf.Bytes()
}

func endpointLabel(d *diagram.Diagram, e diagram.Endpoint) string {
	if n, ok := d.Node(e.NodeID); ok {
		return n.DisplayLabel()
	}
	return e.NodeID
}

// signalOf prefers the link's own type, falling back to the source
// device's signal type.
func signalOf(d *diagram.Diagram, l *diagram.Link) string {
	if l.Type != "" {
		return l.Type
	}
	if n, ok := d.Node(l.From.NodeID); ok {
		return n.Meta.SignalType
	}
	return ""
}
