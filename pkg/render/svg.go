package render

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"github.com/tracewire/tracewire/pkg/diagram"
)

// SVGOption configures the native SVG renderer.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	showPorts  bool
	showGrid   bool
	padding    float64
	background string
}

// WithPorts draws the four port markers on every visible node.
func WithPorts() SVGOption { return func(r *svgRenderer) { r.showPorts = true } }

// WithGrid draws the snap grid behind the diagram when the canvas has it
// enabled.
func WithGrid() SVGOption { return func(r *svgRenderer) { r.showGrid = true } }

// WithPadding overrides the whitespace added around the content bounds.
func WithPadding(p float64) SVGOption { return func(r *svgRenderer) { r.padding = p } }

// SVG renders the diagram natively: device boxes at their stored
// positions, labels, routed connection paths with arrowheads, honoring
// layer visibility. Output is deterministic for a given diagram.
func SVG(d *diagram.Diagram, opts ...SVGOption) []byte {
	r := &svgRenderer{padding: 40, background: d.Canvas().Background}
	for _, opt := range opts {
		opt(r)
	}
	if r.background == "" {
		r.background = "#ffffff"
	}

	visible := map[string]*diagram.Node{}
	var nodes []*diagram.Node
	for _, n := range d.Nodes() {
		if !d.LayerVisible(n) {
			continue
		}
		visible[n.ID] = n
		nodes = append(nodes, n)
	}

	minX, minY, maxX, maxY := bounds(nodes)
	width := maxX - minX + 2*r.padding
	height := maxY - minY + 2*r.padding
	offX, offY := r.padding-minX, r.padding-minY

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	writeDefs(&buf)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill=%q/>`+"\n", r.background)

	if r.showGrid && d.Canvas().Grid.Enabled {
		writeGrid(&buf, width, height, float64(d.Canvas().Grid.Size))
	}

	// Connections under nodes, both in id order.
	for _, l := range d.Links() {
		from, okFrom := visible[l.From.NodeID]
		to, okTo := visible[l.To.NodeID]
		if !okFrom || !okTo {
			continue
		}
		writeLink(&buf, l, from, to, offX, offY)
	}
	for _, n := range nodes {
		writeNode(&buf, n, offX, offY, r.showPorts)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func bounds(nodes []*diagram.Node) (minX, minY, maxX, maxY float64) {
	if len(nodes) == 0 {
		return 0, 0, 200, 120
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		minX = math.Min(minX, n.Position.X)
		minY = math.Min(minY, n.Position.Y)
		maxX = math.Max(maxX, n.Position.X+n.Size.Width)
		maxY = math.Max(maxY, n.Position.Y+n.Size.Height)
	}
	return minX, minY, maxX, maxY
}

func writeDefs(buf *bytes.Buffer) {
	buf.WriteString(`  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="9" refY="5" markerWidth="7" markerHeight="7" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="#333333"/>
    </marker>
  </defs>
`)
}

func writeGrid(buf *bytes.Buffer, width, height, size float64) {
	if size <= 0 {
		return
	}
	fmt.Fprintf(buf, `  <g stroke="#eeeeee" stroke-width="1">`+"\n")
	for x := size; x < width; x += size {
		fmt.Fprintf(buf, `    <line x1="%.1f" y1="0" x2="%.1f" y2="%.1f"/>`+"\n", x, x, height)
	}
	for y := size; y < height; y += size {
		fmt.Fprintf(buf, `    <line x1="0" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", y, width, y)
	}
	buf.WriteString("  </g>\n")
}

func writeNode(buf *bytes.Buffer, n *diagram.Node, offX, offY float64, showPorts bool) {
	x, y := n.Position.X+offX, n.Position.Y+offY
	fmt.Fprintf(buf, `  <g id=%q>`+"\n", "node-"+n.ID)
	fmt.Fprintf(buf, `    <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="6" fill="#fdfdfd" stroke="#333333" stroke-width="1.5"/>`+"\n",
		x, y, n.Size.Width, n.Size.Height)
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family="sans-serif" font-size="13">%s</text>`+"\n",
		x+n.Size.Width/2, y+n.Size.Height/2, html.EscapeString(n.DisplayLabel()))

	if showPorts {
		for _, p := range n.Ports() {
			pos := n.PortPosition(p.ID)
			fmt.Fprintf(buf, `    <circle cx="%.1f" cy="%.1f" r="3.5" fill="#ffffff" stroke="#555555"/>`+"\n",
				pos.X+offX, pos.Y+offY)
		}
	}
	buf.WriteString("  </g>\n")
}

func writeLink(buf *bytes.Buffer, l *diagram.Link, from, to *diagram.Node, offX, offY float64) {
	a := from.PortPosition(l.From.PortID)
	b := to.PortPosition(l.To.PortID)
	a.X, a.Y = a.X+offX, a.Y+offY
	b.X, b.Y = b.X+offX, b.Y+offY

	var d string
	switch l.Style.Layout {
	case diagram.LinkOrthogonal:
		d = orthogonalPath(a, b)
	case diagram.LinkCurved:
		d = curvedPath(a, b)
	default:
		d = fmt.Sprintf("M %.1f %.1f L %.1f %.1f", a.X, a.Y, b.X, b.Y)
	}

	stroke := l.Style.Color
	if stroke == "" {
		stroke = "#333333"
	}
	width := l.Style.Width
	if width == 0 {
		width = 2
	}

	fmt.Fprintf(buf, `  <path id=%q d=%q fill="none" stroke=%q stroke-width="%.1f"`,
		"link-"+l.ID, d, stroke, width)
	if l.Style.Arrowheads.End {
		buf.WriteString(` marker-end="url(#arrow)"`)
	}
	if l.Style.Arrowheads.Start {
		buf.WriteString(` marker-start="url(#arrow)"`)
	}
	buf.WriteString("/>\n")

	if l.Label != "" {
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="11" fill="#555555">%s</text>`+"\n",
			(a.X+b.X)/2, (a.Y+b.Y)/2-6, html.EscapeString(l.Label))
	}
}

// orthogonalPath routes with a single elbow at the horizontal midpoint.
func orthogonalPath(a, b diagram.Point) string {
	midX := (a.X + b.X) / 2
	return fmt.Sprintf("M %.1f %.1f L %.1f %.1f L %.1f %.1f L %.1f %.1f",
		a.X, a.Y, midX, a.Y, midX, b.Y, b.X, b.Y)
}

// curvedPath draws a cubic bezier with control points pulled along x.
func curvedPath(a, b diagram.Point) string {
	pull := math.Abs(b.X-a.X) / 2
	if pull < 40 {
		pull = 40
	}
	return fmt.Sprintf("M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f",
		a.X, a.Y, a.X+pull, a.Y, b.X-pull, b.Y, b.X, b.Y)
}
