// Package pkg provides the core libraries for Tracewire diagram editing.
//
// # Overview
//
// Tracewire edits interactive system-architecture diagrams: equipment
// nodes with typed ports, signal links between them, layered arrangement,
// consistency checks, and export artifacts. The pkg directory is organized
// around that flow:
//
//  1. [diagram] - The graph store (nodes, links, layers, groups) and the
//     Layout JSON interchange format
//  2. [validate] / [simulate] - The consistency and signal-flow engines
//  3. [arrange] - Automatic layering and link routing
//  4. [render] - SVG, PNG, PDF, Graphviz DOT, and wiring report output
//  5. [pipeline] - Orchestration (arrange → check → render) with caching
//  6. [editor] - Interactive sessions: tool modes, undo/redo, debounced
//     checks, async saves
//  7. [store] / [cache] - Snapshot, template, and artifact persistence
//
// # Quick Start
//
// Build a diagram, check it, and render an SVG:
//
//	import (
//	    "github.com/tracewire/tracewire/pkg/diagram"
//	    "github.com/tracewire/tracewire/pkg/validate"
//	    "github.com/tracewire/tracewire/pkg/arrange"
//	    "github.com/tracewire/tracewire/pkg/render"
//	)
//
//	d := diagram.New()
//	plc, _ := d.AddNode(diagram.Node{Label: "PLC-01", Model: "S7-1500"})
//	hmi, _ := d.AddNode(diagram.Node{Label: "HMI-01"})
//	d.AddLink(diagram.Link{
//	    From: diagram.Endpoint{NodeID: plc.ID},
//	    To:   diagram.Endpoint{NodeID: hmi.ID},
//	})
//
//	findings := validate.Run(d.ExportLayout())
//	arrange.AutoArrange(d)
//	svg := render.SVG(d)
//
// # Main Packages
//
// [diagram] - The mutable graph store and the Layout serialization types.
// Every other package consumes either a *Diagram or a Layout.
//
// [editor] - Session layer used by the HTTP API and interactive tooling.
// Wraps a diagram with a tool-mode state machine, an undo/redo command
// stack with drag coalescing, debounced background checks, and async
// save scheduling.
//
// [validate] - Structural checks: dangling endpoints, port type and
// direction mismatches, duplicate links, layer violations.
//
// [simulate] - Signal-flow propagation over the link graph, reporting
// unreachable equipment and contention.
//
// [arrange] - Layered auto-arrangement and orthogonal link routing.
//
// [render] - Artifact generation. SVG natively, PNG and PDF via
// conversion, DOT via Graphviz, and a plain-text wiring report.
//
// [pipeline] - The arrange → check → render runner shared by the CLI and
// the server, with content-hash caching of check results and artifacts.
//
// [store] - Version snapshots and named templates. File (msgpack) and
// MongoDB backends, plus the remote asset catalog client.
//
// [cache] - Artifact cache with file, Redis, and null backends.
//
// [library] - Reusable module capture and insertion: save a selection as
// a named module, stamp copies into other diagrams.
//
// [equipment] - Equipment list ingestion (CSV and JSON) for seeding new
// diagrams.
//
// [finding] - The severity-tagged finding type shared by the check
// engines.
//
// [observability] - Pluggable instrumentation hooks for editor mutations,
// pipeline stages, and cache traffic.
//
// [errors] - Structured error codes, wrapping helpers, and input
// validation shared across the CLI and server.
package pkg
