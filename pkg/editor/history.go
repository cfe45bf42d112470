package editor

import (
	"errors"
	"fmt"

	"github.com/tracewire/tracewire/pkg/diagram"
)

var (
	// ErrNothingToUndo is returned by [Session.Undo] on an empty history.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by [Session.Redo] when no undone
	// command is pending.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// command is a reversible mutation recorded on the undo stack. Apply is
// the forward direction (used by redo), Revert the inverse.
type command interface {
	Apply(d *diagram.Diagram) error
	Revert(d *diagram.Diagram) error
}

// =============================================================================
// Commands
// =============================================================================

type addNodeCmd struct {
	node diagram.Node
}

func (c *addNodeCmd) Apply(d *diagram.Diagram) error {
	_, err := d.AddNode(c.node)
	return err
}

func (c *addNodeCmd) Revert(d *diagram.Diagram) error {
	_, _, err := d.RemoveNode(c.node.ID)
	return err
}

// removeNodeCmd remembers the cascaded links so revert restores them too.
type removeNodeCmd struct {
	node  diagram.Node
	links []diagram.Link
}

func (c *removeNodeCmd) Apply(d *diagram.Diagram) error {
	_, _, err := d.RemoveNode(c.node.ID)
	return err
}

func (c *removeNodeCmd) Revert(d *diagram.Diagram) error {
	if _, err := d.AddNode(c.node); err != nil {
		return err
	}
	for _, l := range c.links {
		if _, err := d.AddLink(l); err != nil {
			return fmt.Errorf("restore link %s: %w", l.ID, err)
		}
	}
	return nil
}

type addLinkCmd struct {
	link diagram.Link
}

func (c *addLinkCmd) Apply(d *diagram.Diagram) error {
	_, err := d.AddLink(c.link)
	return err
}

func (c *addLinkCmd) Revert(d *diagram.Diagram) error {
	_, err := d.RemoveLink(c.link.ID)
	return err
}

type removeLinkCmd struct {
	link diagram.Link
}

func (c *removeLinkCmd) Apply(d *diagram.Diagram) error {
	_, err := d.RemoveLink(c.link.ID)
	return err
}

func (c *removeLinkCmd) Revert(d *diagram.Diagram) error {
	_, err := d.AddLink(c.link)
	return err
}

// moveCmd records a position change. Successive moves of the same node
// coalesce into one history entry so a drag undoes in a single step.
type moveCmd struct {
	nodeID string
	from   diagram.Point
	to     diagram.Point
}

func (c *moveCmd) Apply(d *diagram.Diagram) error {
	return d.MoveNode(c.nodeID, c.to)
}

func (c *moveCmd) Revert(d *diagram.Diagram) error {
	return d.MoveNode(c.nodeID, c.from)
}

// patchNodeCmd records a full before/after node value for metadata and
// label edits.
type patchNodeCmd struct {
	before diagram.Node
	after  diagram.Node
}

func (c *patchNodeCmd) Apply(d *diagram.Diagram) error {
	return d.ReplaceNode(c.after)
}

func (c *patchNodeCmd) Revert(d *diagram.Diagram) error {
	return d.ReplaceNode(c.before)
}

type patchLinkCmd struct {
	before diagram.Link
	after  diagram.Link
}

func (c *patchLinkCmd) Apply(d *diagram.Diagram) error {
	return d.ReplaceLink(c.after)
}

func (c *patchLinkCmd) Revert(d *diagram.Diagram) error {
	return d.ReplaceLink(c.before)
}

// =============================================================================
// History
// =============================================================================

// history is the editor's undo/redo stack pair. Recording a new command
// clears the redo side.
type history struct {
	undo []command
	redo []command
}

func (h *history) record(c command) {
	// Coalesce consecutive moves of the same node.
	if mv, ok := c.(*moveCmd); ok && len(h.undo) > 0 {
		if prev, ok := h.undo[len(h.undo)-1].(*moveCmd); ok && prev.nodeID == mv.nodeID {
			prev.to = mv.to
			h.redo = h.redo[:0]
			return
		}
	}
	h.undo = append(h.undo, c)
	h.redo = h.redo[:0]
}

func (h *history) popUndo() (command, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	c := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return c, true
}

func (h *history) popRedo() (command, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	c := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return c, true
}

func (h *history) lens() (int, int) { return len(h.undo), len(h.redo) }
