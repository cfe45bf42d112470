package diagram

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// =============================================================================
// Layout - Documented JSON Exchange Format
// =============================================================================

// Layout is the persisted and exchanged serialization of a diagram. The host
// application embeds it in its own submission payload; the template and
// version stores persist it as-is.
//
// The format is human-readable and designed for round-trip fidelity:
// export then re-import yields an equivalent diagram with the same ids.
type Layout struct {
	Canvas       Canvas       `json:"canvas" bson:"canvas"`
	Nodes        []LayoutNode `json:"nodes" bson:"nodes"`
	Connections  []Connection `json:"connections" bson:"connections"`
	Layers       []Layer      `json:"layers,omitempty" bson:"layers,omitempty"`
	Groups       []Group      `json:"groups,omitempty" bson:"groups,omitempty"`
	AssetLibrary []Asset      `json:"assetLibrary,omitempty" bson:"asset_library,omitempty"`
	Metadata     LayoutMeta   `json:"metadata" bson:"metadata"`
}

// LayoutNode is the node record as persisted in Layout JSON.
type LayoutNode struct {
	ID          string   `json:"id" bson:"id"`
	Label       string   `json:"label,omitempty" bson:"label,omitempty"`
	Model       string   `json:"model,omitempty" bson:"model,omitempty"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Position    Point    `json:"position" bson:"position"`
	Size        Size     `json:"size" bson:"size"`
	Image       Image    `json:"image,omitempty" bson:"image,omitempty"`
	Metadata    NodeMeta `json:"metadata" bson:"metadata"`
	Layer       string   `json:"layer,omitempty" bson:"layer,omitempty"`
	Style       string   `json:"style,omitempty" bson:"style,omitempty"`
	Ports       []Port   `json:"ports,omitempty" bson:"ports,omitempty"`
}

// Connection is the link record as persisted in Layout JSON.
type Connection struct {
	ID       string    `json:"id" bson:"id"`
	From     Endpoint  `json:"from" bson:"from"`
	To       Endpoint  `json:"to" bson:"to"`
	Label    string    `json:"label,omitempty" bson:"label,omitempty"`
	Type     string    `json:"type,omitempty" bson:"type,omitempty"`
	Metadata LinkMeta  `json:"metadata" bson:"metadata"`
	Style    LinkStyle `json:"style" bson:"style"`
}

// Asset references a device thumbnail stored by the asset library service.
type Asset struct {
	ID   string   `json:"id" bson:"id"`
	Name string   `json:"name,omitempty" bson:"name,omitempty"`
	URL  string   `json:"url" bson:"url"`
	Tags []string `json:"tags,omitempty" bson:"tags,omitempty"`
}

// LayoutMeta records provenance for an exported layout.
type LayoutMeta struct {
	GeneratedAt time.Time `json:"generated_at" bson:"generated_at"`
	Source      string    `json:"source,omitempty" bson:"source,omitempty"`
}

// LayoutSource is the provenance marker written by [Diagram.ExportLayout].
const LayoutSource = "tracewire"

// ImportStats reports what [ImportLayout] had to repair.
type ImportStats struct {
	DroppedConnections int  // connections with an unresolvable endpoint
	ChainSynthesized   bool // sequential fallback chain was generated
}

// =============================================================================
// Export
// =============================================================================

// ExportLayout serializes the diagram into the documented Layout JSON
// structure. Output is stable: nodes and connections are sorted by id and
// all ids are preserved, so re-importing the result reproduces the diagram.
func (d *Diagram) ExportLayout() Layout {
	out := Layout{
		Canvas:      d.canvas,
		Nodes:       make([]LayoutNode, 0, len(d.nodes)),
		Connections: make([]Connection, 0, len(d.links)),
		Layers:      d.Layers(),
		Metadata:    LayoutMeta{GeneratedAt: time.Now().UTC(), Source: LayoutSource},
	}
	for _, n := range d.Nodes() {
		out.Nodes = append(out.Nodes, LayoutNode{
			ID:          n.ID,
			Label:       n.Label,
			Model:       n.Model,
			Description: n.Description,
			Position:    n.Position,
			Size:        n.Size,
			Image:       n.Image,
			Metadata:    n.Meta,
			Layer:       n.Layer,
			Style:       n.Style,
			Ports:       n.Ports(),
		})
	}
	for _, l := range d.Links() {
		out.Connections = append(out.Connections, Connection{
			ID:       l.ID,
			From:     l.From,
			To:       l.To,
			Label:    l.Label,
			Type:     l.Type,
			Metadata: l.Meta,
			Style:    l.Style,
		})
	}
	for _, g := range d.Groups() {
		out.Groups = append(out.Groups, *g)
	}
	return out
}

// =============================================================================
// Import
// =============================================================================

// ImportLayout rebuilds a diagram from a Layout. The import is tolerant and
// never fails on graph content:
//
//   - missing node sizes, layers, and canvas settings get defaults
//   - connections referencing unknown node ids are dropped (and counted)
//   - unknown port ids fall back to sensible sides on load
//   - if the layout has two or more nodes but zero valid connections, a
//     best-effort sequential chain is synthesized as a usability fallback
//     for legacy equipment-list layouts (a documented heuristic, not a
//     correctness requirement)
//
// The returned stats describe what was repaired.
func ImportLayout(l Layout, opts ...Option) (*Diagram, ImportStats) {
	d := New(opts...)
	var stats ImportStats

	if l.Canvas.Zoom > 0 {
		d.canvas = l.Canvas
	}
	if d.canvas.Grid.Size == 0 {
		d.canvas.Grid.Size = DefaultGridSize
	}
	if d.canvas.Background == "" {
		d.canvas.Background = DefaultCanvas().Background
	}

	for _, layer := range l.Layers {
		d.ensureLayer(layer.Name)
		d.SetLayerVisible(layer.Name, layer.Visible)
		d.SetLayerLocked(layer.Name, layer.Locked)
	}

	for _, ln := range l.Nodes {
		if ln.ID == "" {
			ln.ID = d.newID()
		}
		d.ensureLayer(ln.Layer)
		// AddNode fills in layer and size defaults; duplicate ids keep the
		// first occurrence, matching drop-don't-fail import semantics.
		d.AddNode(Node{
			ID:          ln.ID,
			Label:       ln.Label,
			Model:       ln.Model,
			Description: ln.Description,
			Position:    ln.Position,
			Size:        ln.Size,
			Layer:       ln.Layer,
			Style:       ln.Style,
			Image:       ln.Image,
			Meta:        ln.Metadata,
		})
	}

	for _, c := range l.Connections {
		link := Link{
			ID:    c.ID,
			From:  normalizeEndpoint(c.From, PortRight),
			To:    normalizeEndpoint(c.To, PortLeft),
			Label: c.Label,
			Type:  c.Type,
			Style: c.Style,
			Meta:  c.Metadata,
		}
		if _, err := d.AddLink(link); err != nil {
			stats.DroppedConnections++
		}
	}

	for _, g := range l.Groups {
		if len(g.Members) >= 2 {
			if grp, err := d.GroupNodes(g.Label, g.Members); err == nil && g.ID != "" {
				// Preserve the original group id for round-trip fidelity.
				delete(d.groups, grp.ID)
				grp.ID = g.ID
				d.groups[g.ID] = grp
			}
		}
	}

	if d.NodeCount() >= 2 && d.LinkCount() == 0 {
		d.synthesizeChain()
		stats.ChainSynthesized = true
	}

	d.version = 0
	return d, stats
}

// normalizeEndpoint defaults missing or unknown port ids so legacy layouts
// that predate fixed ports still resolve.
func normalizeEndpoint(e Endpoint, fallback string) Endpoint {
	switch e.PortID {
	case PortTop, PortRight, PortBottom, PortLeft:
		return e
	}
	e.PortID = fallback
	return e
}

// synthesizeChain connects nodes sequentially (sorted by id) when an import
// produced two or more nodes and no usable connections.
func (d *Diagram) synthesizeChain() {
	nodes := d.Nodes()
	for i := 0; i < len(nodes)-1; i++ {
		d.AddLink(Link{
			From: Endpoint{NodeID: nodes[i].ID, PortID: PortRight},
			To:   Endpoint{NodeID: nodes[i+1].ID, PortID: PortLeft},
		})
	}
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout. Unknown fields are
// ignored and missing fields default, keeping legacy layouts loadable.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	return l, nil
}

// ReadLayout decodes a Layout from r.
func ReadLayout(r io.Reader) (Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return l, nil
}

// WriteLayout encodes a Layout to w as indented JSON.
func WriteLayout(l Layout, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return nil
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLayout(f)
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLayout(l, f)
}
