// Package library implements the reusable-module library: capturing a
// selection of devices and their internal connections as a named snapshot,
// and stamping snapshots back into a diagram with fresh identities.
//
// A module snapshot is self-contained [diagram.Layout] data. Inserting the
// same module twice produces fully independent copies: every insertion
// remaps node and connection ids, so no id ever collides with a previous
// insertion or with the originals the module was captured from.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tracewire/tracewire/pkg/diagram"
)

var (
	// ErrEmptyName is returned by [Library.Save] for a blank module name.
	ErrEmptyName = errors.New("module name must not be empty")

	// ErrModuleNotFound is returned when no module exists under a name.
	ErrModuleNotFound = errors.New("module not found")

	// ErrEmptySnapshot is returned by [Library.Save] when the snapshot
	// captures no devices.
	ErrEmptySnapshot = errors.New("module snapshot has no devices")
)

// InsertStagger is the per-node offset applied on both axes when a module
// is stamped in, so repeated insertions fan out instead of stacking.
const InsertStagger = 16.0

// Module is a named, reusable subgraph snapshot.
type Module struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Snapshot  diagram.Layout `json:"snapshot"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// CaptureSelection extracts the selected nodes and the connections whose
// both endpoints fall inside the selection into a standalone layout. Group
// membership and layer definitions referenced by the captured nodes come
// along. Returns nil when the selection resolves to no nodes.
func CaptureSelection(d *diagram.Diagram, selected []string) *diagram.Layout {
	picked := make(map[string]bool, len(selected))
	for _, id := range selected {
		if _, ok := d.Node(id); ok {
			picked[id] = true
		}
	}
	if len(picked) == 0 {
		return nil
	}

	full := d.ExportLayout()
	snap := &diagram.Layout{
		Canvas:   full.Canvas,
		Metadata: full.Metadata,
	}

	usedLayers := map[string]bool{}
	for _, n := range full.Nodes {
		if !picked[n.ID] {
			continue
		}
		snap.Nodes = append(snap.Nodes, n)
		usedLayers[n.Layer] = true
	}
	for _, c := range full.Connections {
		if picked[c.From.NodeID] && picked[c.To.NodeID] {
			snap.Connections = append(snap.Connections, c)
		}
	}
	for _, layer := range full.Layers {
		if usedLayers[layer.Name] {
			snap.Layers = append(snap.Layers, layer)
		}
	}
	for _, g := range full.Groups {
		members := make([]string, 0, len(g.Members))
		for _, id := range g.Members {
			if picked[id] {
				members = append(members, id)
			}
		}
		if len(members) >= 2 {
			g.Members = members
			snap.Groups = append(snap.Groups, g)
		}
	}
	return snap
}

// InsertModule stamps a module's snapshot into the diagram at dropPoint.
// Every node gets a fresh id and an incremental stagger offset; connections
// are remapped onto the new ids, and any connection whose endpoint did not
// survive the remap is skipped. Returns the new node ids in snapshot order.
func InsertModule(d *diagram.Diagram, m *Module, dropPoint diagram.Point) ([]string, error) {
	if m == nil || len(m.Snapshot.Nodes) == 0 {
		return nil, ErrEmptySnapshot
	}

	// Snapshot positions are relative to their own top-left corner.
	origin := diagram.Point{X: m.Snapshot.Nodes[0].Position.X, Y: m.Snapshot.Nodes[0].Position.Y}
	for _, n := range m.Snapshot.Nodes[1:] {
		if n.Position.X < origin.X {
			origin.X = n.Position.X
		}
		if n.Position.Y < origin.Y {
			origin.Y = n.Position.Y
		}
	}

	idMap := make(map[string]string, len(m.Snapshot.Nodes))
	newIDs := make([]string, 0, len(m.Snapshot.Nodes))
	for i, ln := range m.Snapshot.Nodes {
		stagger := InsertStagger * float64(i)
		node := diagram.Node{
			Label:       ln.Label,
			Model:       ln.Model,
			Description: ln.Description,
			Layer:       ln.Layer,
			Style:       ln.Style,
			Position: diagram.Point{
				X: dropPoint.X + (ln.Position.X - origin.X) + stagger,
				Y: dropPoint.Y + (ln.Position.Y - origin.Y) + stagger,
			},
			Size:  ln.Size,
			Image: ln.Image,
			Meta:  ln.Metadata,
		}
		node.Meta.Locked = false
		node.Meta.LockedBy = ""
		created, err := d.AddNode(node)
		if err != nil {
			return nil, fmt.Errorf("insert module %q: %w", m.Name, err)
		}
		idMap[ln.ID] = created.ID
		newIDs = append(newIDs, created.ID)
	}

	for _, c := range m.Snapshot.Connections {
		from, fromOK := idMap[c.From.NodeID]
		to, toOK := idMap[c.To.NodeID]
		if !fromOK || !toOK {
			continue
		}
		link := diagram.Link{
			From:  diagram.Endpoint{NodeID: from, PortID: c.From.PortID},
			To:    diagram.Endpoint{NodeID: to, PortID: c.To.PortID},
			Label: c.Label,
			Type:  c.Type,
			Style: c.Style,
			Meta:  c.Metadata,
		}
		if _, err := d.AddLink(link); err != nil {
			return nil, fmt.Errorf("insert module %q: %w", m.Name, err)
		}
	}

	return newIDs, nil
}

// =============================================================================
// Library - Named Module Store
// =============================================================================

// Library holds named modules in memory and can persist itself to a JSON
// file. Not safe for concurrent use.
type Library struct {
	modules map[string]*Module
	now     func() time.Time
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{modules: map[string]*Module{}, now: time.Now}
}

// Save stores a snapshot under name, overwriting any previous module with
// the same name while preserving its id and creation time.
func (l *Library) Save(name string, snapshot *diagram.Layout) (*Module, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if snapshot == nil || len(snapshot.Nodes) == 0 {
		return nil, ErrEmptySnapshot
	}

	now := l.now()
	m := &Module{
		ID:        uuid.NewString(),
		Name:      name,
		Snapshot:  *snapshot,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prev, ok := l.modules[name]; ok {
		m.ID = prev.ID
		m.CreatedAt = prev.CreatedAt
	}
	l.modules[name] = m
	return m, nil
}

// Get returns the module stored under name.
func (l *Library) Get(name string) (*Module, error) {
	m, ok := l.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, name)
	}
	return m, nil
}

// Delete removes the module stored under name.
func (l *Library) Delete(name string) error {
	if _, ok := l.modules[name]; !ok {
		return fmt.Errorf("%w: %q", ErrModuleNotFound, name)
	}
	delete(l.modules, name)
	return nil
}

// List returns all modules sorted by name.
func (l *Library) List() []*Module {
	out := make([]*Module, 0, len(l.modules))
	for _, m := range l.modules {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *Module) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// SaveFile writes the library to path as indented JSON.
func (l *Library) SaveFile(path string) error {
	data, err := json.MarshalIndent(l.List(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode library: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write library: %w", err)
	}
	return nil
}

// LoadFile reads a library previously written by [Library.SaveFile].
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library: %w", err)
	}
	var modules []*Module
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, fmt.Errorf("decode library: %w", err)
	}
	l := NewLibrary()
	for _, m := range modules {
		l.modules[m.Name] = m
	}
	return l, nil
}
