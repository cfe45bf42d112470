// Package render turns diagrams into exportable artifacts.
//
// Four targets are supported:
//
//   - [SVG]: the native renderer; positioned device boxes, port markers,
//     and routed connection paths, matching what the editor canvas shows.
//   - [ToDOT] plus [DOTToSVG]/[DOTToPNG]: Graphviz node-link output for
//     topology reviews where positions do not matter.
//   - [ToPNG]/[ToPDF]: raster/print conversion of any SVG via the external
//     rsvg-convert tool (librsvg).
//   - [SignalReport]: the plain-text device and connection listing handed
//     to commissioning engineers.
//
// All renderers iterate nodes and connections in id order, so identical
// diagrams produce byte-identical artifacts. That property is what makes
// the content-hash caching in pkg/pipeline sound.
package render
