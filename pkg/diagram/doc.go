// Package diagram implements the entity store at the heart of the Tracewire
// editor: nodes (placed equipment), links (typed connections between node
// ports), layers, and groups, kept in id-keyed tables with explicit mutation
// operations and a monotonic change version.
//
// # Design
//
// The store is deliberately plain: every entity is a record keyed by a stable
// string id, and every mutation goes through a method that maintains the
// derived indices (incident links per node, layer membership) and bumps the
// change version. Renderers compare [Diagram.Version] between frames instead
// of tracking object identity.
//
// The package also owns the persistence bridge: [Diagram.ExportLayout]
// produces the documented Layout JSON exchange format and
// [ImportLayout] reads it back tolerantly. Export is stable - re-importing
// its own output yields an equivalent diagram with the same ids.
//
// # Invariants
//
//   - Link endpoints always reference existing nodes. [Diagram.AddLink]
//     rejects unknown endpoints; [ImportLayout] silently drops them.
//   - Removing a node cascades to its incident links and group memberships.
//   - A layer named "Default" always exists and cannot be deleted. Deleting
//     any other layer reassigns its members to Default.
//   - Ungrouping releases member nodes without moving them.
//
// # Concurrency
//
// Diagram is not safe for concurrent use. The editor session
// (pkg/editor) serializes access; standalone users need their own locking.
//
// # Usage
//
//	d := diagram.New()
//	plc, _ := d.AddNode(diagram.Node{Label: "PLC-01", Meta: diagram.NodeMeta{SignalType: "digital"}})
//	hmi, _ := d.AddNode(diagram.Node{Label: "HMI-01"})
//	d.AddLink(diagram.Link{
//		From: diagram.Endpoint{NodeID: plc.ID, PortID: diagram.PortRight},
//		To:   diagram.Endpoint{NodeID: hmi.ID, PortID: diagram.PortLeft},
//		Type: "network",
//	})
//	data, _ := diagram.MarshalLayout(d.ExportLayout())
package diagram
