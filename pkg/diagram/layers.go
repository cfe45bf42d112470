package diagram

import (
	"errors"
	"slices"
)

var (
	// ErrLayerNotFound is returned when a layer name does not resolve.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrDuplicateLayer is returned by [Diagram.AddLayer] when the name is taken.
	ErrDuplicateLayer = errors.New("duplicate layer name")

	// ErrDefaultLayer is returned when an operation would delete or rename
	// the Default layer. The Default layer always exists.
	ErrDefaultLayer = errors.New("the Default layer cannot be removed")
)

// Layers returns the layer list in display order, Default first.
// The returned slice is a copy.
func (d *Diagram) Layers() []Layer { return slices.Clone(d.layers) }

// Layer returns the layer with the given name and true, or a zero Layer
// and false.
func (d *Diagram) Layer(name string) (Layer, bool) {
	for _, l := range d.layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// AddLayer appends a new visible, unlocked layer.
// Returns [ErrInvalidID] for an empty name or [ErrDuplicateLayer] if taken.
func (d *Diagram) AddLayer(name string) error {
	if name == "" {
		return ErrInvalidID
	}
	if _, ok := d.Layer(name); ok {
		return ErrDuplicateLayer
	}
	d.layers = append(d.layers, Layer{Name: name, Visible: true})
	d.bump()
	return nil
}

// SetLayerVisible toggles a layer's visibility.
// Returns [ErrLayerNotFound] if the name does not resolve.
func (d *Diagram) SetLayerVisible(name string, visible bool) error {
	for i := range d.layers {
		if d.layers[i].Name == name {
			d.layers[i].Visible = visible
			d.bump()
			return nil
		}
	}
	return ErrLayerNotFound
}

// SetLayerLocked toggles a layer's lock. Nodes on a locked layer are
// excluded from drag and selection by the editor session.
// Returns [ErrLayerNotFound] if the name does not resolve.
func (d *Diagram) SetLayerLocked(name string, locked bool) error {
	for i := range d.layers {
		if d.layers[i].Name == name {
			d.layers[i].Locked = locked
			d.bump()
			return nil
		}
	}
	return ErrLayerNotFound
}

// RemoveLayer deletes the named layer and reassigns its member nodes to the
// Default layer. Deleting the Default layer is rejected unconditionally with
// [ErrDefaultLayer]; unknown names return [ErrLayerNotFound]. No partial
// mutation happens on either error.
func (d *Diagram) RemoveLayer(name string) error {
	if name == DefaultLayer {
		return ErrDefaultLayer
	}
	idx := slices.IndexFunc(d.layers, func(l Layer) bool { return l.Name == name })
	if idx < 0 {
		return ErrLayerNotFound
	}
	d.layers = slices.Delete(d.layers, idx, idx+1)
	for _, n := range d.nodes {
		if n.Layer == name {
			n.Layer = DefaultLayer
		}
	}
	d.bump()
	return nil
}

// LayerVisible reports whether the node's layer is currently visible.
// Nodes on unknown layers are treated as visible so a stale reference
// never hides equipment.
func (d *Diagram) LayerVisible(n *Node) bool {
	l, ok := d.Layer(n.Layer)
	if !ok {
		return true
	}
	return l.Visible
}

// ensureLayer registers the named layer if it is not already present.
// Import paths use it so node layer references always resolve.
func (d *Diagram) ensureLayer(name string) {
	if name == "" {
		return
	}
	if _, ok := d.Layer(name); !ok {
		d.layers = append(d.layers, Layer{Name: name, Visible: true})
	}
}
