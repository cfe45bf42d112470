package diagram

import "strings"

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// DefaultLayer is the layer every diagram carries. It cannot be deleted;
// deleting any other layer reassigns its members here.
const DefaultLayer = "Default"

// Fixed port ids. Every node exposes exactly these four attachment points.
const (
	PortTop    = "top"
	PortRight  = "right"
	PortBottom = "bottom"
	PortLeft   = "left"
)

// PortIDs lists the fixed port set in clockwise order starting at the top.
var PortIDs = []string{PortTop, PortRight, PortBottom, PortLeft}

// Link layout styles.
const (
	LinkStraight   = "straight"
	LinkOrthogonal = "orthogonal"
	LinkCurved     = "curved"
)

// Normalized signal types recognized by the validation engine.
const (
	SignalDigital = "digital"
	SignalAnalog  = "analog"
	SignalNetwork = "network"
	SignalControl = "control"
	SignalSafety  = "safety"
)

// Default geometry applied when imports or callers omit dimensions.
const (
	DefaultNodeWidth  = 120.0
	DefaultNodeHeight = 72.0
	DefaultGridSize   = 20
)

// StatusOperational is the node status that triggers connectivity warnings
// when the node has no incoming or no outgoing links.
const StatusOperational = "operational"

// NormalizeSignalType lowercases and trims a free-form signal or link type
// so comparisons stay case-insensitive. The canonical categories (digital,
// analog, network, control, safety) are their own lowercase spelling, so
// this is the full canonicalization; unknown values pass through lowercased
// without losing information.
func NormalizeSignalType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// =============================================================================
// Geometry
// =============================================================================

// Point is a position on the canvas in pixels.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Size is a node's bounding box in pixels.
type Size struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// =============================================================================
// Node - Placed Equipment
// =============================================================================

// NodeMeta holds the equipment metadata edited through the inspector.
type NodeMeta struct {
	IPAddress   string   `json:"ip_address,omitempty" bson:"ip_address,omitempty"`
	Slot        string   `json:"slot,omitempty" bson:"slot,omitempty"`
	Tags        []string `json:"tags,omitempty" bson:"tags,omitempty"`
	Protocol    string   `json:"protocol,omitempty" bson:"protocol,omitempty"`
	SignalType  string   `json:"signal_type,omitempty" bson:"signal_type,omitempty"`
	PowerRating string   `json:"power_rating,omitempty" bson:"power_rating,omitempty"`
	Status      string   `json:"status,omitempty" bson:"status,omitempty"`
	Notes       string   `json:"notes,omitempty" bson:"notes,omitempty"`
	Locked      bool     `json:"locked,omitempty" bson:"locked,omitempty"`
	LockedBy    string   `json:"locked_by,omitempty" bson:"locked_by,omitempty"`
}

// Image references a device thumbnail served by the asset library.
type Image struct {
	URL string `json:"url,omitempty" bson:"url,omitempty"`
}

// Node is a placed equipment element: a rack, module, or network device.
type Node struct {
	ID          string   `json:"id" bson:"id"`
	Label       string   `json:"label,omitempty" bson:"label,omitempty"`
	Model       string   `json:"model,omitempty" bson:"model,omitempty"`
	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Position    Point    `json:"position" bson:"position"`
	Size        Size     `json:"size" bson:"size"`
	Layer       string   `json:"layer,omitempty" bson:"layer,omitempty"`
	Style       string   `json:"style,omitempty" bson:"style,omitempty"`
	Image       Image    `json:"image,omitempty" bson:"image,omitempty"`
	Meta        NodeMeta `json:"metadata" bson:"metadata"`
}

// DisplayLabel returns the label if set, otherwise the model, otherwise the id.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	if n.Model != "" {
		return n.Model
	}
	return n.ID
}

// Locked reports whether the node is excluded from drag and selection.
func (n *Node) Locked() bool { return n.Meta.Locked }

// Port is one of the four fixed attachment points on a node.
type Port struct {
	ID       string  `json:"id" bson:"id"`
	Side     string  `json:"side" bson:"side"`
	Ratio    float64 `json:"ratio" bson:"ratio"`
	Position Point   `json:"position" bson:"position"`
}

// Ports derives the fixed port set with absolute canvas positions from the
// node's current position and size. Ports sit at the midpoint of each side.
func (n *Node) Ports() []Port {
	w, h := n.Size.Width, n.Size.Height
	x, y := n.Position.X, n.Position.Y
	return []Port{
		{ID: PortTop, Side: PortTop, Ratio: 0.5, Position: Point{X: x + w/2, Y: y}},
		{ID: PortRight, Side: PortRight, Ratio: 0.5, Position: Point{X: x + w, Y: y + h/2}},
		{ID: PortBottom, Side: PortBottom, Ratio: 0.5, Position: Point{X: x + w/2, Y: y + h}},
		{ID: PortLeft, Side: PortLeft, Ratio: 0.5, Position: Point{X: x, Y: y + h/2}},
	}
}

// PortPosition returns the absolute position of the named port.
// Unknown port ids fall back to the node center.
func (n *Node) PortPosition(portID string) Point {
	for _, p := range n.Ports() {
		if p.ID == portID {
			return p.Position
		}
	}
	return Point{X: n.Position.X + n.Size.Width/2, Y: n.Position.Y + n.Size.Height/2}
}

// =============================================================================
// Link - Typed Connection
// =============================================================================

// Endpoint names one side of a link: a node and one of its fixed ports.
type Endpoint struct {
	NodeID string `json:"nodeId" bson:"node_id"`
	PortID string `json:"portId" bson:"port_id"`
}

// Arrowheads controls arrow decoration at either end of a link.
type Arrowheads struct {
	Start bool `json:"start" bson:"start"`
	End   bool `json:"end" bson:"end"`
}

// LinkStyle holds the visual treatment of a link.
type LinkStyle struct {
	Color      string     `json:"color,omitempty" bson:"color,omitempty"`
	Width      float64    `json:"width,omitempty" bson:"width,omitempty"`
	Layout     string     `json:"layout,omitempty" bson:"layout,omitempty"`
	Arrowheads Arrowheads `json:"arrowheads" bson:"arrowheads"`
}

// LinkMeta holds annotation data attached to a link.
type LinkMeta struct {
	Badges []string `json:"badges,omitempty" bson:"badges,omitempty"`
	Notes  string   `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Link is a directed association between two node ports. Type is free-form
// and normalized by the validation engine (see [NormalizeSignalType]).
type Link struct {
	ID    string    `json:"id" bson:"id"`
	From  Endpoint  `json:"from" bson:"from"`
	To    Endpoint  `json:"to" bson:"to"`
	Label string    `json:"label,omitempty" bson:"label,omitempty"`
	Type  string    `json:"type,omitempty" bson:"type,omitempty"`
	Style LinkStyle `json:"style" bson:"style"`
	Meta  LinkMeta  `json:"metadata" bson:"metadata"`
}

// =============================================================================
// Layer & Group
// =============================================================================

// Layer is a named, independently visible and lockable grouping of nodes.
type Layer struct {
	Name    string `json:"name" bson:"name"`
	Visible bool   `json:"visible" bson:"visible"`
	Locked  bool   `json:"locked" bson:"locked"`
}

// Group aggregates member nodes for joint move and selection. Ungrouping
// releases members without altering their absolute positions.
type Group struct {
	ID      string   `json:"id" bson:"id"`
	Label   string   `json:"label,omitempty" bson:"label,omitempty"`
	Members []string `json:"members" bson:"members"`
}

// =============================================================================
// Canvas
// =============================================================================

// Grid holds the snap-grid settings persisted with a layout.
type Grid struct {
	Enabled bool `json:"enabled" bson:"enabled"`
	Size    int  `json:"size" bson:"size"`
	Snap    bool `json:"snap" bson:"snap"`
}

// Canvas holds the viewport and background settings persisted with a layout.
type Canvas struct {
	Zoom       float64 `json:"zoom" bson:"zoom"`
	Pan        Point   `json:"pan" bson:"pan"`
	Grid       Grid    `json:"grid" bson:"grid"`
	Background string  `json:"background" bson:"background"`
}

// DefaultCanvas returns the canvas settings used for new diagrams.
func DefaultCanvas() Canvas {
	return Canvas{
		Zoom:       1,
		Grid:       Grid{Enabled: true, Size: DefaultGridSize, Snap: true},
		Background: "#ffffff",
	}
}

// =============================================================================
// Patches - Partial Updates
// =============================================================================

// NodePatch describes a partial node update. Nil fields are left unchanged.
type NodePatch struct {
	Label       *string
	Model       *string
	Description *string
	Position    *Point
	Size        *Size
	Layer       *string
	Style       *string
	Image       *Image
	Meta        *NodeMeta
}

// LinkPatch describes a partial link update. Nil fields are left unchanged.
type LinkPatch struct {
	Label *string
	Type  *string
	Style *LinkStyle
	Meta  *LinkMeta
}
