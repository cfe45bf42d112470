package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/tracewire/tracewire/pkg/diagram"
)

// ToDOT converts the diagram to Graphviz DOT for node-link review output.
// Stored positions are ignored; Graphviz computes its own ranked layout.
// Hidden layers are excluded, matching the native renderer.
func ToDOT(d *diagram.Diagram) string {
	var buf bytes.Buffer
	buf.WriteString("digraph tracewire {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	visible := map[string]bool{}
	for _, n := range d.Nodes() {
		if !d.LayerVisible(n) {
			continue
		}
		visible[n.ID] = true
		attrs := []string{fmt.Sprintf("label=%q", dotLabel(n))}
		if n.Meta.Status != "" && n.Meta.Status != diagram.StatusOperational {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range d.Links() {
		if !visible[l.From.NodeID] || !visible[l.To.NodeID] {
			continue
		}
		if l.Label != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", l.From.NodeID, l.To.NodeID, l.Label)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", l.From.NodeID, l.To.NodeID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(n *diagram.Node) string {
	label := n.DisplayLabel()
	if n.Meta.IPAddress != "" {
		label += "\n" + n.Meta.IPAddress
	}
	return label
}

// DOTToSVG renders a DOT graph to SVG using Graphviz.
func DOTToSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// DOTToPNG renders a DOT graph to PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image for high-DPI displays.
func DOTToPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := DOTToSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return ToPNG(svg, scale)
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites Graphviz's point-based svg header into a
// zero-origin pixel viewBox so downstream conversion scales correctly.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
