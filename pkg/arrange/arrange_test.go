package arrange

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tracewire/tracewire/pkg/diagram"
)

func seqIDs(prefix string) func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func chain(t *testing.T, ids ...string) *diagram.Diagram {
	t.Helper()
	d := diagram.New(diagram.WithIDFunc(seqIDs("gen")))
	for _, id := range ids {
		if _, err := d.AddNode(diagram.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for i := 0; i < len(ids)-1; i++ {
		if _, err := d.AddLink(diagram.Link{
			From: diagram.Endpoint{NodeID: ids[i], PortID: diagram.PortBottom},
			To:   diagram.Endpoint{NodeID: ids[i+1], PortID: diagram.PortTop},
		}); err != nil {
			t.Fatalf("AddLink: %v", err)
		}
	}
	return d
}

// Scenario: a 3-node linear chain gets strictly increasing layer indices.
func TestAutoArrangeLinearChain(t *testing.T) {
	d := chain(t, "a", "b", "c")

	layers := AutoArrange(d)
	want := map[string]int{"a": 0, "b": 1, "c": 2}
	for id, row := range want {
		if layers[id] != row {
			t.Errorf("layer[%s] = %d, want %d", id, layers[id], row)
		}
	}

	a, _ := d.Node("a")
	b, _ := d.Node("b")
	c, _ := d.Node("c")
	if !(a.Position.Y < b.Position.Y && b.Position.Y < c.Position.Y) {
		t.Errorf("rows not top-to-bottom: %v %v %v", a.Position.Y, b.Position.Y, c.Position.Y)
	}
}

func TestAutoArrangeDiamond(t *testing.T) {
	d := diagram.New()
	for _, id := range []string{"a", "b", "c", "d"} {
		d.AddNode(diagram.Node{ID: id})
	}
	for _, e := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}} {
		d.AddLink(diagram.Link{
			From: diagram.Endpoint{NodeID: e[0], PortID: diagram.PortBottom},
			To:   diagram.Endpoint{NodeID: e[1], PortID: diagram.PortTop},
		})
	}

	layers := AutoArrange(d)
	if layers["a"] != 0 || layers["b"] != 1 || layers["c"] != 1 || layers["d"] != 2 {
		t.Errorf("diamond layers = %v", layers)
	}

	b, _ := d.Node("b")
	c, _ := d.Node("c")
	if b.Position.Y != c.Position.Y {
		t.Errorf("same-layer nodes at different y: %v vs %v", b.Position.Y, c.Position.Y)
	}
	if b.Position.X >= c.Position.X {
		t.Errorf("within-row order not by id: b.x=%v c.x=%v", b.Position.X, c.Position.X)
	}
}

func TestAutoArrangeIdempotent(t *testing.T) {
	d := chain(t, "a", "b", "c")
	AutoArrange(d)

	positions := map[string]diagram.Point{}
	for _, n := range d.Nodes() {
		positions[n.ID] = n.Position
	}

	AutoArrange(d)
	for _, n := range d.Nodes() {
		if n.Position != positions[n.ID] {
			t.Errorf("second run moved %s: %+v -> %+v", n.ID, positions[n.ID], n.Position)
		}
	}
}

func TestAutoRoute(t *testing.T) {
	d := chain(t, "a", "b", "c")
	AutoRoute(d)
	for _, l := range d.Links() {
		if l.Style.Layout != diagram.LinkOrthogonal {
			t.Errorf("link %s layout = %q, want orthogonal", l.ID, l.Style.Layout)
		}
	}
}

func TestAlign(t *testing.T) {
	d := diagram.New()
	d.AddNode(diagram.Node{ID: "a", Position: diagram.Point{X: 10, Y: 1}})
	d.AddNode(diagram.Node{ID: "b", Position: diagram.Point{X: 30, Y: 2}})
	d.AddNode(diagram.Node{ID: "c", Position: diagram.Point{X: 50, Y: 3}})

	if err := AlignLeft(d, []string{"a", "b", "c"}); err != nil {
		t.Fatalf("AlignLeft: %v", err)
	}
	for _, id := range []string{"a", "b", "c"} {
		n, _ := d.Node(id)
		if n.Position.X != 10 {
			t.Errorf("%s.x = %v, want 10", id, n.Position.X)
		}
	}
	// y is untouched.
	b, _ := d.Node("b")
	if b.Position.Y != 2 {
		t.Errorf("align changed y: %v", b.Position.Y)
	}

	d2 := diagram.New()
	d2.AddNode(diagram.Node{ID: "a", Position: diagram.Point{X: 0}})
	d2.AddNode(diagram.Node{ID: "b", Position: diagram.Point{X: 30}})
	if err := AlignCenter(d2, []string{"a", "b"}); err != nil {
		t.Fatalf("AlignCenter: %v", err)
	}
	a2, _ := d2.Node("a")
	if a2.Position.X != 15 {
		t.Errorf("center x = %v, want mean 15", a2.Position.X)
	}

	if err := AlignLeft(d2, []string{"a"}); !errors.Is(err, ErrTooFewForAlign) {
		t.Errorf("err = %v, want ErrTooFewForAlign", err)
	}
}

func TestDistributeHorizontal(t *testing.T) {
	d := diagram.New()
	d.AddNode(diagram.Node{ID: "a", Position: diagram.Point{X: 0, Y: 7}})
	d.AddNode(diagram.Node{ID: "b", Position: diagram.Point{X: 5, Y: 7}})
	d.AddNode(diagram.Node{ID: "c", Position: diagram.Point{X: 100, Y: 7}})

	if err := DistributeHorizontal(d, []string{"a", "b", "c"}); err != nil {
		t.Fatalf("DistributeHorizontal: %v", err)
	}
	b, _ := d.Node("b")
	if b.Position.X != 50 {
		t.Errorf("middle x = %v, want 50 (even spacing)", b.Position.X)
	}
	a, _ := d.Node("a")
	c, _ := d.Node("c")
	if a.Position.X != 0 || c.Position.X != 100 {
		t.Errorf("extremes moved: a=%v c=%v", a.Position.X, c.Position.X)
	}
}

// Distribute with two or fewer selected performs no position changes and
// returns the precondition warning, not a hard error.
func TestDistributeTooFew(t *testing.T) {
	d := diagram.New()
	d.AddNode(diagram.Node{ID: "a", Position: diagram.Point{X: 3}})
	d.AddNode(diagram.Node{ID: "b", Position: diagram.Point{X: 9}})

	err := DistributeHorizontal(d, []string{"a", "b"})
	if !errors.Is(err, ErrTooFewForDistribute) {
		t.Fatalf("err = %v, want ErrTooFewForDistribute", err)
	}
	a, _ := d.Node("a")
	b, _ := d.Node("b")
	if a.Position.X != 3 || b.Position.X != 9 {
		t.Error("precondition failure mutated positions")
	}
}

func TestDistributeVertical(t *testing.T) {
	d := diagram.New()
	d.AddNode(diagram.Node{ID: "a", Position: diagram.Point{Y: 0}})
	d.AddNode(diagram.Node{ID: "b", Position: diagram.Point{Y: 90}})
	d.AddNode(diagram.Node{ID: "c", Position: diagram.Point{Y: 20}})
	d.AddNode(diagram.Node{ID: "d", Position: diagram.Point{Y: 30}})

	if err := DistributeVertical(d, []string{"a", "b", "c", "d"}); err != nil {
		t.Fatalf("DistributeVertical: %v", err)
	}
	// Sorted by y: a(0), c(20), d(30), b(90) -> step 30.
	c, _ := d.Node("c")
	dd, _ := d.Node("d")
	if c.Position.Y != 30 || dd.Position.Y != 60 {
		t.Errorf("middle ys = %v, %v, want 30, 60", c.Position.Y, dd.Position.Y)
	}
}

func TestDuplicate(t *testing.T) {
	d := chain(t, "a", "b", "c")
	// External link c -> x must not be duplicated.
	d.AddNode(diagram.Node{ID: "x"})
	d.AddLink(diagram.Link{
		ID:   "ext",
		From: diagram.Endpoint{NodeID: "c", PortID: diagram.PortRight},
		To:   diagram.Endpoint{NodeID: "x", PortID: diagram.PortLeft},
	})

	linksBefore := d.LinkCount()
	newIDs, err := Duplicate(d, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if len(newIDs) != 3 {
		t.Fatalf("new nodes = %d, want 3", len(newIDs))
	}
	for _, id := range newIDs {
		if id == "a" || id == "b" || id == "c" {
			t.Errorf("duplicate reused original id %s", id)
		}
		n, ok := d.Node(id)
		if !ok {
			t.Fatalf("new node %s missing", id)
		}
		if n.Position.X == 0 {
			t.Errorf("duplicate of %s not offset: %+v", id, n.Position)
		}
	}

	// Internal links (a->b, b->c) duplicated, external (c->x) not.
	if got, want := d.LinkCount(), linksBefore+2; got != want {
		t.Errorf("links = %d, want %d", got, want)
	}

	if _, err := Duplicate(d, nil); !errors.Is(err, ErrNothingSelected) {
		t.Errorf("err = %v, want ErrNothingSelected", err)
	}
}
