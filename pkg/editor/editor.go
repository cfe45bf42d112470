// Package editor implements the interactive editing session over a diagram:
// the tool-mode state machine, pointer drag capture, undoable mutation,
// debounced consistency checks, and asynchronous save tracking.
//
// A [Session] owns one [diagram.Diagram] and serializes all access through
// its own mutex, so a single session is safe for concurrent use. Mutations
// go through the session rather than the store directly; that is what keeps
// the undo history and the save status coherent.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tracewire/tracewire/pkg/diagram"
	"github.com/tracewire/tracewire/pkg/finding"
	"github.com/tracewire/tracewire/pkg/observability"
	"github.com/tracewire/tracewire/pkg/simulate"
	"github.com/tracewire/tracewire/pkg/validate"
)

// Tool identifies an interaction mode. Transitions happen only through
// [Session.SetTool]; each mode carries its own entry effects (see
// [Session.Effects]).
type Tool string

const (
	ToolSelect     Tool = "select"
	ToolConnector  Tool = "connector"
	ToolAnnotation Tool = "annotation"
	ToolPan        Tool = "pan"
)

// SaveStatus tracks the persistence lifecycle of the in-memory diagram.
type SaveStatus string

const (
	SaveIdle   SaveStatus = "idle"
	SaveSaving SaveStatus = "saving"
	SaveSynced SaveStatus = "synced"
	SaveFailed SaveStatus = "failed"
)

// DebounceInterval is the default quiet window between a structural change
// and the consistency checks it triggers.
const DebounceInterval = 220 * time.Millisecond

var (
	// ErrUnknownTool is returned by [Session.SetTool] for a tool outside
	// the closed set.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrSelectionRequired is returned when entering the annotation tool
	// with nothing selected.
	ErrSelectionRequired = errors.New("annotation requires a selection")

	// ErrPointerBusy is returned by [Session.BeginDrag] when the pointer
	// id already holds a capture.
	ErrPointerBusy = errors.New("pointer already dragging")

	// ErrNoActiveDrag is returned by [Session.DragTo] and
	// [Session.EndDrag] for an unknown pointer id.
	ErrNoActiveDrag = errors.New("no active drag for pointer")

	// ErrNodeLocked is returned when a drag or edit targets a locked node.
	ErrNodeLocked = errors.New("node is locked")

	// ErrLayerLocked is returned when a drag targets a node on a locked
	// layer.
	ErrLayerLocked = errors.New("node layer is locked")
)

// Effects are the interaction affordances implied by the active tool.
type Effects struct {
	PortsVisible  bool
	DragEnabled   bool
	PanEnabled    bool
	AnnotateArmed bool
}

// Persister stores a layout snapshot. Implementations must be safe for
// concurrent use; the session calls Persist from its own goroutine.
type Persister interface {
	Persist(ctx context.Context, l diagram.Layout) error
}

// PersistFunc adapts a function to the [Persister] interface.
type PersistFunc func(ctx context.Context, l diagram.Layout) error

func (f PersistFunc) Persist(ctx context.Context, l diagram.Layout) error { return f(ctx, l) }

type drag struct {
	nodeID string
	origin diagram.Point
}

// Session is an interactive editing session over one diagram.
type Session struct {
	mu sync.Mutex
	d  *diagram.Diagram

	name   string
	logger *log.Logger

	tool        Tool
	selNodes    []string
	selLinks    []string
	pendingFrom *diagram.Endpoint // connector tool: armed source port

	drags map[int]*drag
	hist  history

	clock      Clock
	debounce   time.Duration
	checkTimer Timer
	onCheck    func(finding.List)
	findings   finding.List

	persister Persister
	status    SaveStatus
	saveErr   error
	saves     sync.WaitGroup
}

// Option configures a [Session].
type Option func(*Session)

// WithClock swaps the timer source; tests drive the debounce window with a
// fake clock.
func WithClock(c Clock) Option { return func(s *Session) { s.clock = c } }

// WithDebounce overrides the structural-check quiet window.
func WithDebounce(d time.Duration) Option { return func(s *Session) { s.debounce = d } }

// WithPersister sets the save target. Without one, saves are dropped and
// the status stays idle.
func WithPersister(p Persister) Option { return func(s *Session) { s.persister = p } }

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option { return func(s *Session) { s.logger = l } }

// WithName labels the session in logs and instrumentation. The server uses
// the session id; the CLI leaves the default.
func WithName(name string) Option { return func(s *Session) { s.name = name } }

// WithCheckFunc registers a callback invoked with fresh findings after each
// debounced check run.
func WithCheckFunc(f func(finding.List)) Option { return func(s *Session) { s.onCheck = f } }

// NewSession wraps d in an editing session starting in the select tool.
func NewSession(d *diagram.Diagram, opts ...Option) *Session {
	s := &Session{
		d:        d,
		name:     "local",
		logger:   log.New(io.Discard),
		tool:     ToolSelect,
		drags:    map[int]*drag{},
		clock:    systemClock{},
		debounce: DebounceInterval,
		status:   SaveIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Diagram returns the underlying store. Callers outside the session's own
// goroutine must not mutate it directly.
func (s *Session) Diagram() *diagram.Diagram { return s.d }

// =============================================================================
// Tool Modes
// =============================================================================

// Tool returns the active tool.
func (s *Session) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// SetTool switches the interaction mode. Entering the annotation tool with
// an empty selection is rejected with [ErrSelectionRequired]. Leaving the
// connector tool discards any armed source port.
func (s *Session) SetTool(t Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch t {
	case ToolSelect, ToolConnector, ToolAnnotation, ToolPan:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTool, t)
	}
	if t == ToolAnnotation && len(s.selNodes) == 0 && len(s.selLinks) == 0 {
		return ErrSelectionRequired
	}
	if s.tool == ToolConnector && t != ToolConnector {
		s.pendingFrom = nil
	}
	s.logger.Debug("tool switch", "from", s.tool, "to", t)
	s.tool = t
	return nil
}

// Effects reports the affordances of the active tool.
func (s *Session) Effects() Effects {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.tool {
	case ToolConnector:
		return Effects{PortsVisible: true}
	case ToolPan:
		return Effects{PanEnabled: true}
	case ToolAnnotation:
		return Effects{AnnotateArmed: true}
	default:
		return Effects{DragEnabled: true}
	}
}

// =============================================================================
// Selection
// =============================================================================

// Select replaces the selection with the given node and link ids; unknown
// and locked ids are dropped silently.
func (s *Session) Select(nodeIDs, linkIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selNodes = s.selNodes[:0]
	for _, id := range nodeIDs {
		if n, ok := s.d.Node(id); ok && s.selectable(n) && !slices.Contains(s.selNodes, id) {
			s.selNodes = append(s.selNodes, id)
		}
	}
	s.selLinks = s.selLinks[:0]
	for _, id := range linkIDs {
		if _, ok := s.d.Link(id); ok && !slices.Contains(s.selLinks, id) {
			s.selLinks = append(s.selLinks, id)
		}
	}
	slices.Sort(s.selNodes)
	slices.Sort(s.selLinks)
}

// ClearSelection empties the selection. If the annotation tool was armed it
// falls back to select.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selNodes = s.selNodes[:0]
	s.selLinks = s.selLinks[:0]
	if s.tool == ToolAnnotation {
		s.tool = ToolSelect
	}
}

// selectable reports whether a node may enter the selection. Locked nodes
// and nodes on locked layers stay out until unlocked, the same checks
// [Session.BeginDrag] applies.
func (s *Session) selectable(n *diagram.Node) bool {
	if n.Meta.Locked {
		return false
	}
	if layer, ok := s.d.Layer(n.Layer); ok && layer.Locked {
		return false
	}
	return true
}

// Selection returns the selected node and link ids, sorted.
func (s *Session) Selection() (nodes, links []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selNodes), slices.Clone(s.selLinks)
}

// =============================================================================
// Undoable Mutation
// =============================================================================

// AddNode inserts a node through the store and records the inverse on the
// undo stack.
func (s *Session) AddNode(n diagram.Node) (*diagram.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.d.AddNode(n)
	if err != nil {
		return nil, err
	}
	s.hist.record(&addNodeCmd{node: *created})
	s.noteMutation("add_node")
	s.afterStructuralChange()
	return created, nil
}

// RemoveNode deletes a node with link cascade; undo restores node and links.
func (s *Session) RemoveNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, links, err := s.d.RemoveNode(id)
	if err != nil {
		return err
	}
	cmd := &removeNodeCmd{node: *node}
	for _, l := range links {
		cmd.links = append(cmd.links, *l)
	}
	s.hist.record(cmd)
	s.noteMutation("remove_node")
	s.selNodes = slices.DeleteFunc(s.selNodes, func(v string) bool { return v == id })
	s.afterStructuralChange()
	return nil
}

// AddLink inserts a link through the store and records the inverse.
func (s *Session) AddLink(l diagram.Link) (*diagram.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.d.AddLink(l)
	if err != nil {
		return nil, err
	}
	s.hist.record(&addLinkCmd{link: *created})
	s.noteMutation("add_link")
	s.afterStructuralChange()
	return created, nil
}

// RemoveLink deletes a link and records the inverse.
func (s *Session) RemoveLink(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.d.RemoveLink(id)
	if err != nil {
		return err
	}
	s.hist.record(&removeLinkCmd{link: *removed})
	s.noteMutation("remove_link")
	s.selLinks = slices.DeleteFunc(s.selLinks, func(v string) bool { return v == id })
	s.afterStructuralChange()
	return nil
}

// UpdateNode applies a partial node update and records a before/after pair.
// Locked nodes reject edits with [ErrNodeLocked].
func (s *Session) UpdateNode(id string, patch diagram.NodePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.d.Node(id)
	if !ok {
		return diagram.ErrNodeNotFound
	}
	if n.Meta.Locked {
		return ErrNodeLocked
	}
	before := *n
	if err := s.d.UpdateNode(id, patch); err != nil {
		return err
	}
	s.hist.record(&patchNodeCmd{before: before, after: *n})
	s.noteMutation("update_node")
	s.scheduleSave()
	return nil
}

// UpdateLink applies a partial link update and records a before/after pair.
func (s *Session) UpdateLink(id string, patch diagram.LinkPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.d.Link(id)
	if !ok {
		return diagram.ErrLinkNotFound
	}
	before := *l
	if err := s.d.UpdateLink(id, patch); err != nil {
		return err
	}
	s.hist.record(&patchLinkCmd{before: before, after: *l})
	s.noteMutation("update_link")
	s.scheduleSave()
	return nil
}

// Apply runs a bulk operation against the diagram under the session lock.
// Bulk operations (auto-arrange, equipment seeding, template insertion) are
// not individually undoable; the history is cleared so undo can never apply
// a stale inverse.
func (s *Session) Apply(fn func(*diagram.Diagram) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.d); err != nil {
		return err
	}
	s.hist = history{}
	s.noteMutation("bulk")
	s.afterStructuralChange()
	return nil
}

// Layout returns a snapshot of the current diagram state.
func (s *Session) Layout() diagram.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.ExportLayout()
}

// Undo reverts the most recent command. Returns [ErrNothingToUndo] on an
// empty history.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, ok := s.hist.popUndo()
	if !ok {
		return ErrNothingToUndo
	}
	if err := cmd.Revert(s.d); err != nil {
		return fmt.Errorf("undo: %w", err)
	}
	s.hist.redo = append(s.hist.redo, cmd)
	s.noteMutation("undo")
	s.afterStructuralChange()
	return nil
}

// Redo re-applies the most recently undone command. Returns
// [ErrNothingToRedo] when nothing is pending.
func (s *Session) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, ok := s.hist.popRedo()
	if !ok {
		return ErrNothingToRedo
	}
	if err := cmd.Apply(s.d); err != nil {
		return fmt.Errorf("redo: %w", err)
	}
	s.hist.undo = append(s.hist.undo, cmd)
	s.noteMutation("redo")
	s.afterStructuralChange()
	return nil
}

// HistoryLens reports the undo and redo stack depths.
func (s *Session) HistoryLens() (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hist.lens()
}

// =============================================================================
// Connector Tool
// =============================================================================

// ArmConnector marks the source port for the next [Session.CompleteLink].
// Only meaningful in the connector tool.
func (s *Session) ArmConnector(nodeID, portID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tool != ToolConnector {
		return fmt.Errorf("%w: connector not active", ErrUnknownTool)
	}
	if _, ok := s.d.Node(nodeID); !ok {
		return diagram.ErrNodeNotFound
	}
	s.pendingFrom = &diagram.Endpoint{NodeID: nodeID, PortID: portID}
	return nil
}

// CompleteLink closes an armed connector gesture into a real link.
func (s *Session) CompleteLink(nodeID, portID string) (*diagram.Link, error) {
	s.mu.Lock()
	if s.pendingFrom == nil {
		s.mu.Unlock()
		return nil, errors.New("no armed source port")
	}
	from := *s.pendingFrom
	s.pendingFrom = nil
	s.mu.Unlock()

	return s.AddLink(diagram.Link{
		From: from,
		To:   diagram.Endpoint{NodeID: nodeID, PortID: portID},
	})
}

// =============================================================================
// Drag Capture
// =============================================================================

// BeginDrag captures a node under a pointer id. One capture per pointer;
// locked nodes and nodes on locked layers refuse the drag.
func (s *Session) BeginDrag(pointerID int, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.drags[pointerID]; busy {
		return ErrPointerBusy
	}
	n, ok := s.d.Node(nodeID)
	if !ok {
		return diagram.ErrNodeNotFound
	}
	if n.Meta.Locked {
		return ErrNodeLocked
	}
	if layer, ok := s.d.Layer(n.Layer); ok && layer.Locked {
		return ErrLayerLocked
	}
	s.drags[pointerID] = &drag{nodeID: nodeID, origin: n.Position}
	return nil
}

// DragTo moves the captured node to p. Returns [ErrNoActiveDrag] for an
// unknown pointer id.
func (s *Session) DragTo(pointerID int, p diagram.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dr, ok := s.drags[pointerID]
	if !ok {
		return ErrNoActiveDrag
	}
	return s.d.MoveNode(dr.nodeID, p)
}

// EndDrag releases the capture, records the whole gesture as one undoable
// move, and schedules persistence.
func (s *Session) EndDrag(pointerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dr, ok := s.drags[pointerID]
	if !ok {
		return ErrNoActiveDrag
	}
	delete(s.drags, pointerID)

	n, ok := s.d.Node(dr.nodeID)
	if !ok {
		return diagram.ErrNodeNotFound
	}
	if n.Position != dr.origin {
		s.hist.record(&moveCmd{nodeID: dr.nodeID, from: dr.origin, to: n.Position})
		s.noteMutation("move")
		s.scheduleSave()
	}
	return nil
}

// CancelDrag releases the capture and snaps the node back to its position
// at capture time.
func (s *Session) CancelDrag(pointerID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dr, ok := s.drags[pointerID]
	if !ok {
		return ErrNoActiveDrag
	}
	delete(s.drags, pointerID)
	return s.d.MoveNode(dr.nodeID, dr.origin)
}

// =============================================================================
// Locking
// =============================================================================

// Lock marks the node locked by the given identity and drops it from the
// selection.
func (s *Session) Lock(nodeID, by string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.d.Lock(nodeID, by); err != nil {
		return err
	}
	s.selNodes = slices.DeleteFunc(s.selNodes, func(v string) bool { return v == nodeID })
	s.scheduleSave()
	return nil
}

// Unlock releases the node's lock.
func (s *Session) Unlock(nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.d.Unlock(nodeID); err != nil {
		return err
	}
	s.scheduleSave()
	return nil
}

// =============================================================================
// Checks & Persistence
// =============================================================================

// afterStructuralChange schedules the debounced check run and a save.
// Callers hold s.mu.
func (s *Session) afterStructuralChange() {
	if s.checkTimer != nil {
		s.checkTimer.Reset(s.debounce)
	} else {
		s.checkTimer = s.clock.AfterFunc(s.debounce, s.runChecks)
	}
	s.scheduleSave()
}

// runChecks executes validation and simulation over a layout snapshot and
// publishes the combined findings.
func (s *Session) runChecks() {
	start := time.Now()
	s.mu.Lock()
	layout := s.d.ExportLayout()
	onCheck := s.onCheck
	s.mu.Unlock()

	results := append(validate.Run(layout), simulate.Run(layout)...)
	observability.Editor().OnCheckComplete(context.Background(), s.name, len(results), time.Since(start))

	s.mu.Lock()
	s.findings = results
	s.mu.Unlock()

	if onCheck != nil {
		onCheck(results)
	}
}

// CheckNow runs validation and simulation synchronously and returns the
// findings, bypassing the debounce window.
func (s *Session) CheckNow() finding.List {
	s.mu.Lock()
	if s.checkTimer != nil {
		s.checkTimer.Stop()
	}
	s.mu.Unlock()
	s.runChecks()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findings
}

// Findings returns the results of the most recent check run.
func (s *Session) Findings() finding.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.findings)
}

// scheduleSave fires an asynchronous persist of the current layout. The
// in-memory diagram is never rolled back on failure; the error is kept for
// [Session.SaveError] and the status flips to failed. Callers hold s.mu.
func (s *Session) scheduleSave() {
	if s.persister == nil {
		return
	}
	layout := s.d.ExportLayout()
	s.status = SaveSaving
	s.saves.Add(1)
	go func() {
		start := time.Now()
		err := s.persister.Persist(context.Background(), layout)
		observability.Editor().OnSaveComplete(context.Background(), s.name, time.Since(start), err)
		s.mu.Lock()
		if err != nil {
			s.status = SaveFailed
			s.saveErr = err
			s.logger.Error("save failed", "err", err)
		} else {
			s.status = SaveSynced
			s.saveErr = nil
		}
		s.mu.Unlock()
		s.saves.Done()
	}()
}

// SaveNow persists synchronously, waiting for in-flight saves first.
func (s *Session) SaveNow(ctx context.Context) error {
	s.saves.Wait()
	if s.persister == nil {
		return nil
	}
	s.mu.Lock()
	layout := s.d.ExportLayout()
	s.status = SaveSaving
	s.mu.Unlock()

	start := time.Now()
	err := s.persister.Persist(ctx, layout)
	observability.Editor().OnSaveComplete(ctx, s.name, time.Since(start), err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = SaveFailed
		s.saveErr = err
		return err
	}
	s.status = SaveSynced
	s.saveErr = nil
	return nil
}

// noteMutation reports a recorded command to the instrumentation hooks.
// Callers hold s.mu.
func (s *Session) noteMutation(kind string) {
	observability.Editor().OnMutation(context.Background(), s.name, kind)
}

// Flush blocks until all in-flight asynchronous saves settle.
func (s *Session) Flush() { s.saves.Wait() }

// Status reports the persistence lifecycle state.
func (s *Session) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SaveError returns the error from the most recent failed save, if any.
func (s *Session) SaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveErr
}
