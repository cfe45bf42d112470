package diagram

import (
	"encoding/json"
	"testing"
)

func buildSample(t *testing.T) *Diagram {
	t.Helper()
	d := New(WithIDFunc(seqIDs()))
	d.AddLayer("Network")
	d.AddNode(Node{
		ID:       "plc",
		Label:    "PLC-01",
		Model:    "S7-1500",
		Position: Point{X: 40, Y: 40},
		Layer:    "Network",
		Meta:     NodeMeta{IPAddress: "10.0.0.5", SignalType: "digital", Status: StatusOperational},
	})
	d.AddNode(Node{ID: "hmi", Label: "HMI-01", Position: Point{X: 320, Y: 40}})
	d.AddLink(Link{
		ID:   "c1",
		From: Endpoint{NodeID: "plc", PortID: PortRight},
		To:   Endpoint{NodeID: "hmi", PortID: PortLeft},
		Type: "network",
		Style: LinkStyle{
			Color: "#2266aa", Width: 2, Layout: LinkOrthogonal,
			Arrowheads: Arrowheads{End: true},
		},
	})
	return d
}

func TestExportImportRoundTrip(t *testing.T) {
	d := buildSample(t)
	layout := d.ExportLayout()

	data, err := MarshalLayout(layout)
	if err != nil {
		t.Fatalf("MarshalLayout: %v", err)
	}
	parsed, err := UnmarshalLayout(data)
	if err != nil {
		t.Fatalf("UnmarshalLayout: %v", err)
	}

	got, stats := ImportLayout(parsed)
	if stats.DroppedConnections != 0 || stats.ChainSynthesized {
		t.Fatalf("round trip needed repairs: %+v", stats)
	}

	if got.NodeCount() != d.NodeCount() || got.LinkCount() != d.LinkCount() {
		t.Fatalf("counts = %d/%d, want %d/%d",
			got.NodeCount(), got.LinkCount(), d.NodeCount(), d.LinkCount())
	}
	for _, want := range d.Nodes() {
		n, ok := got.Node(want.ID)
		if !ok {
			t.Fatalf("node %s missing after round trip", want.ID)
		}
		if n.Position != want.Position {
			t.Errorf("node %s position = %+v, want %+v", want.ID, n.Position, want.Position)
		}
		if n.Meta.IPAddress != want.Meta.IPAddress || n.Meta.SignalType != want.Meta.SignalType {
			t.Errorf("node %s metadata changed: %+v", want.ID, n.Meta)
		}
		if n.Layer != want.Layer {
			t.Errorf("node %s layer = %q, want %q", want.ID, n.Layer, want.Layer)
		}
	}
	l, ok := got.Link("c1")
	if !ok {
		t.Fatal("link c1 missing after round trip")
	}
	if l.Style.Layout != LinkOrthogonal || l.Type != "network" {
		t.Errorf("link c1 = %+v, lost style or type", l)
	}
}

func TestImportDropsDanglingConnections(t *testing.T) {
	layout := Layout{
		Nodes: []LayoutNode{{ID: "a"}, {ID: "b"}},
		Connections: []Connection{
			{ID: "ok", From: Endpoint{NodeID: "a", PortID: PortRight}, To: Endpoint{NodeID: "b", PortID: PortLeft}},
			{ID: "bad", From: Endpoint{NodeID: "a", PortID: PortRight}, To: Endpoint{NodeID: "ghost", PortID: PortLeft}},
		},
	}

	d, stats := ImportLayout(layout)
	if stats.DroppedConnections != 1 {
		t.Errorf("dropped = %d, want 1", stats.DroppedConnections)
	}
	if d.LinkCount() != 1 {
		t.Errorf("links = %d, want 1", d.LinkCount())
	}
	if _, ok := d.Link("bad"); ok {
		t.Error("dangling connection survived import")
	}
}

func TestImportSynthesizesChain(t *testing.T) {
	layout := Layout{Nodes: []LayoutNode{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	d, stats := ImportLayout(layout)
	if !stats.ChainSynthesized {
		t.Fatal("expected the chain fallback to kick in")
	}
	if d.LinkCount() != 2 {
		t.Errorf("links = %d, want 2 (a->b, b->c)", d.LinkCount())
	}
	in, _ := d.Degrees()
	if in["a"] != 0 || in["b"] != 1 || in["c"] != 1 {
		t.Errorf("chain shape wrong: inbound %v", in)
	}
}

func TestImportNoChainForSingleNode(t *testing.T) {
	d, stats := ImportLayout(Layout{Nodes: []LayoutNode{{ID: "only"}}})
	if stats.ChainSynthesized || d.LinkCount() != 0 {
		t.Errorf("chain synthesized for single node: %+v", stats)
	}
}

func TestImportDefaults(t *testing.T) {
	// Legacy layout missing canvas, sizes, layers, and port ids.
	raw := `{
		"nodes": [
			{"id": "a", "position": {"x": 1, "y": 2}},
			{"id": "b", "layer": "Field"}
		],
		"connections": [
			{"id": "c", "from": {"nodeId": "a"}, "to": {"nodeId": "b", "portId": "bogus"}}
		],
		"unknown_field": 42
	}`

	var layout Layout
	if err := json.Unmarshal([]byte(raw), &layout); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	d, stats := ImportLayout(layout)
	if stats.DroppedConnections != 0 {
		t.Fatalf("dropped %d connections, want 0", stats.DroppedConnections)
	}

	a, _ := d.Node("a")
	if a.Size.Width != DefaultNodeWidth {
		t.Errorf("size defaulted to %+v", a.Size)
	}
	if a.Layer != DefaultLayer {
		t.Errorf("layer = %q, want Default", a.Layer)
	}
	if _, ok := d.Layer("Field"); !ok {
		t.Error("referenced layer Field was not registered")
	}
	if c := d.Canvas(); c.Zoom != 1 || c.Grid.Size != DefaultGridSize {
		t.Errorf("canvas not defaulted: %+v", c)
	}

	l, _ := d.Link("c")
	if l.From.PortID != PortRight || l.To.PortID != PortLeft {
		t.Errorf("port fallback = %q -> %q", l.From.PortID, l.To.PortID)
	}
}

func TestExportIsSorted(t *testing.T) {
	d := New()
	d.AddNode(Node{ID: "z"})
	d.AddNode(Node{ID: "a"})
	d.AddNode(Node{ID: "m"})

	layout := d.ExportLayout()
	if layout.Nodes[0].ID != "a" || layout.Nodes[1].ID != "m" || layout.Nodes[2].ID != "z" {
		t.Errorf("nodes not sorted by id: %v", []string{layout.Nodes[0].ID, layout.Nodes[1].ID, layout.Nodes[2].ID})
	}
	if layout.Metadata.Source != LayoutSource {
		t.Errorf("source = %q, want %q", layout.Metadata.Source, LayoutSource)
	}
}
