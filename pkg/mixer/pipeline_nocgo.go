//go:build !cgo

package mixer

import (
	"errors"

	"github.com/animatour/animatour/pkg/inputpool"
)

// ErrCGORequired is returned when the real GStreamer-backed pipeline
// is requested without CGO support, mirroring the teacher's
// gst_pipeline_nocgo.go stub.
var ErrCGORequired = errors.New("mixer: GStreamer pipeline requires cgo")

// Config carries the build-time constants the graph would be
// assembled from (spec.md §6). Kept here so callers compile
// regardless of build tags.
type Config struct {
	CellW, CellH int
	FrameRate    int
	BitrateKbps  int
	SinkPort     int
}

// Pipeline is an unusable stand-in when CGO is disabled.
type Pipeline struct{}

// New always fails when CGO is disabled.
func New(cfg Config, inputs *inputpool.Pool) (*Pipeline, error) {
	return nil, ErrCGORequired
}

func (p *Pipeline) SetPad(i int, placement PadPlacement) error { return ErrCGORequired }
func (p *Pipeline) SetCrop(rows, cols int) error                { return ErrCGORequired }
func (p *Pipeline) SinkPort() int                               { return 0 }
func (p *Pipeline) Close() error                                { return nil }
