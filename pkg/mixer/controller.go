// Package mixer builds and drives the media graph: per-client decode
// branches into a compositor and a single encoded output branch.
//
// Grounded on the element graph in original_source/server.cpp
// (composite_pipeline_make / composite_pipeline_client_add) and on the
// go-gst usage pattern in the teacher's api/pkg/desktop/gst_pipeline.go.
package mixer

import "fmt"

// PadPlacement is the alpha/x/y/w/h state applied to one compositor
// sink pad, per spec.md §4.5.
type PadPlacement struct {
	Alpha      float64
	X, Y, W, H int
}

// Visible returns the placement for an admitted SOURCE at the given
// pixel origin, sized to one grid cell (alpha=1.0, w=W, h=H).
func Visible(x, y, cellW, cellH int) PadPlacement {
	return PadPlacement{Alpha: 1.0, X: x, Y: y, W: cellW, H: cellH}
}

// Hidden is the placement applied on SOURCE removal
// (alpha=0.0, x=y=w=h=0).
var Hidden = PadPlacement{}

// Controller is the contract the event loop uses to drive the media
// pipeline, matching spec.md §4.5's exposed interface. It is
// implemented by *Pipeline (this package, GStreamer via go-gst,
// pipeline.go) and by test fakes (fake.go).
type Controller interface {
	// SetPad repositions the i-th compositor sink pad. Applied
	// eagerly; takes effect on the next frame.
	SetPad(i int, p PadPlacement) error
	// SetCrop updates the capsfilter to cellW*cols x cellH*rows.
	SetCrop(rows, cols int) error
	// SinkPort is the loopback port the composite RTP stream arrives on.
	SinkPort() int
	// Close tears down the pipeline.
	Close() error
}

// errInvalidInput builds the error returned when a pad/input index is
// out of range.
func errInvalidInput(i, n int) error {
	return fmt.Errorf("mixer: input index %d out of range [0,%d)", i, n)
}
