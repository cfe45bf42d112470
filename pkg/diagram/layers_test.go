package diagram

import (
	"errors"
	"testing"
)

func TestRemoveLayerReassignsMembers(t *testing.T) {
	d := New()
	if err := d.AddLayer("Network"); err != nil {
		t.Fatalf("AddLayer: %v", err)
	}
	d.AddNode(Node{ID: "a", Layer: "Network"})
	d.AddNode(Node{ID: "b", Layer: DefaultLayer})

	if err := d.RemoveLayer("Network"); err != nil {
		t.Fatalf("RemoveLayer: %v", err)
	}

	a, _ := d.Node("a")
	if a.Layer != DefaultLayer {
		t.Errorf("layer = %q, want %q", a.Layer, DefaultLayer)
	}
	if _, ok := d.Layer("Network"); ok {
		t.Error("layer still listed after removal")
	}
}

func TestRemoveDefaultLayerRejected(t *testing.T) {
	d := New()
	if err := d.RemoveLayer(DefaultLayer); !errors.Is(err, ErrDefaultLayer) {
		t.Errorf("err = %v, want ErrDefaultLayer", err)
	}
	if _, ok := d.Layer(DefaultLayer); !ok {
		t.Error("Default layer missing after rejected removal")
	}
}

func TestRemoveUnknownLayer(t *testing.T) {
	d := New()
	if err := d.RemoveLayer("ghost"); !errors.Is(err, ErrLayerNotFound) {
		t.Errorf("err = %v, want ErrLayerNotFound", err)
	}
}

func TestLayerVisibility(t *testing.T) {
	d := New()
	d.AddLayer("Power")
	d.AddNode(Node{ID: "a", Layer: "Power"})

	n, _ := d.Node("a")
	if !d.LayerVisible(n) {
		t.Error("new layer should be visible")
	}

	if err := d.SetLayerVisible("Power", false); err != nil {
		t.Fatalf("SetLayerVisible: %v", err)
	}
	if d.LayerVisible(n) {
		t.Error("node visible on hidden layer")
	}
}

func TestGroupUngroup(t *testing.T) {
	d := New(WithIDFunc(seqIDs()))
	a, _ := d.AddNode(Node{Position: Point{X: 1, Y: 2}})
	b, _ := d.AddNode(Node{Position: Point{X: 3, Y: 4}})

	g, err := d.GroupNodes("rack", []string{a.ID, b.ID, "ghost"})
	if err != nil {
		t.Fatalf("GroupNodes: %v", err)
	}
	if len(g.Members) != 2 {
		t.Errorf("members = %d, want 2 (unknown ids skipped)", len(g.Members))
	}

	if err := d.MoveGroup(g.ID, 10, 10); err != nil {
		t.Fatalf("MoveGroup: %v", err)
	}
	if a.Position.X != 11 || b.Position.Y != 14 {
		t.Errorf("group move did not translate members: a=%+v b=%+v", a.Position, b.Position)
	}

	if err := d.Ungroup(g.ID); err != nil {
		t.Fatalf("Ungroup: %v", err)
	}
	// Members stay exactly where they were.
	if a.Position.X != 11 || b.Position.Y != 14 {
		t.Errorf("ungroup moved members: a=%+v b=%+v", a.Position, b.Position)
	}

	if _, err := d.GroupNodes("solo", []string{a.ID}); !errors.Is(err, ErrEmptyGroup) {
		t.Errorf("err = %v, want ErrEmptyGroup", err)
	}
}
