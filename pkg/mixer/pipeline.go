//go:build cgo

package mixer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gst/go-gst/gst"

	"github.com/animatour/animatour/pkg/inputpool"
)

var gstInitOnce sync.Once

// initGStreamer initializes the GStreamer library. Safe to call
// multiple times; grounded on the teacher's InitGStreamer in
// api/pkg/desktop/gst_pipeline.go.
func initGStreamer() {
	gstInitOnce.Do(func() {
		gst.Init(nil)
	})
}

// Config carries the build-time constants the graph is assembled
// from (spec.md §6).
type Config struct {
	CellW, CellH int
	FrameRate    int // frames per second, e.g. 30
	BitrateKbps  int
	// SinkPort is the loopback port the caller has already bound to
	// receive the composite RTP stream; the udpsink element is pointed
	// at it directly, mirroring original_source/server.cpp's sequence
	// of binding udpsink_sock and reading back its ephemeral port
	// *before* constructing the pipeline.
	SinkPort int
}

// Pipeline is the GStreamer-backed Controller: N decode branches into
// a compositor, followed by an autocrop, a capsfilter driving the
// composite size, an H.264 encoder and an RTP payloader writing to a
// loopback udpsink.
type Pipeline struct {
	cfg      Config
	pipeline *gst.Pipeline
	pads     []*gst.Pad
	capsf    *gst.Element
	sinkPort int

	mu sync.Mutex
}

// clientBranch returns the gst-launch-style sub-pipeline description
// for one client's decode branch, matching the element chain in
// original_source/server.cpp's composite_pipeline_client_add:
// udpsrc -> rtph264depay -> avdec_h264 -> videoscale -> videoconvert ->
// capsfilter(cellW x cellH) -> compositor.
func clientBranch(i int, cellW, cellH, fps int) string {
	return fmt.Sprintf(
		`udpsrc name=client%d_udpsrc caps="application/x-rtp, media=(string)video, clock-rate=(int)90000, encoding-name=(string)H264, payload=(int)96" `+
			`! rtph264depay ! avdec_h264 ! videoscale ! videoconvert `+
			`! video/x-raw, framerate=%d/1, width=%d, height=%d ! compositor.`,
		i, fps, cellW, cellH)
}

// compositeTail is the shared compositor -> autocrop -> capsfilter ->
// encode -> payload -> udpsink chain, matching
// original_source/server.cpp's composite_pipeline_make.
func compositeTail(cellW, cellH, bitrateKbps int) string {
	return fmt.Sprintf(
		`compositor name=compositor background=1 zero-size-is-unscaled=false ! `+
			`videobox name=videobox autocrop=true ! `+
			`capsfilter name=capsfilter caps="video/x-raw, width=%d, height=%d" ! `+
			`x264enc name=x264enc tune=4 bitrate=%d speed-preset=2 ! `+
			`rtph264pay ! udpsink name=udpsink host=127.0.0.1`,
		cellW, cellH, bitrateKbps)
}

// New builds the media graph for the inputs pool's N client inputs and
// starts it playing, binding each already-created loopback socket to
// its matching udpsrc element (mirroring g_socket_new_from_fd in
// original_source/server.cpp's init_udpsrcs).
func New(cfg Config, inputs *inputpool.Pool) (*Pipeline, error) {
	initGStreamer()

	n := inputs.Len()
	branches := make([]string, 0, n)
	for i := 0; i < n; i++ {
		branches = append(branches, clientBranch(i, cfg.CellW, cfg.CellH, cfg.FrameRate))
	}
	desc := strings.Join(branches, " ") + " " + compositeTail(cfg.CellW, cfg.CellH, cfg.BitrateKbps)

	pipeline, err := gst.NewPipelineFromString(desc)
	if err != nil {
		return nil, fmt.Errorf("mixer: parse pipeline: %w", err)
	}

	p := &Pipeline{cfg: cfg, pipeline: pipeline, pads: make([]*gst.Pad, n)}

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("client%d_udpsrc", i)
		elem, err := pipeline.GetElementByName(name)
		if err != nil {
			p.teardown()
			return nil, fmt.Errorf("mixer: get %s: %w", name, err)
		}
		port := inputs.Port(i)
		file, err := port.Conn.File()
		if err != nil {
			p.teardown()
			return nil, fmt.Errorf("mixer: dup input %d socket: %w", i, err)
		}
		// udpsrc has no "socket-fd" property; bind the already-open fd
		// via the "sockfd" int property, matching
		// original_source/server.cpp's init_udpsrcs technique of handing
		// udpsrc a pre-bound socket rather than letting it bind its own.
		if err := elem.SetProperty("sockfd", int(file.Fd())); err != nil {
			p.teardown()
			return nil, fmt.Errorf("mixer: bind input %d socket: %w", i, err)
		}

		compSinkName := fmt.Sprintf("sink_%d", i)
		compositor, err := pipeline.GetElementByName("compositor")
		if err != nil {
			p.teardown()
			return nil, fmt.Errorf("mixer: get compositor: %w", err)
		}
		pad := compositor.GetStaticPad(compSinkName)
		if pad == nil {
			pad, err = compositor.GetRequestPad("sink_%u")
			if err != nil {
				p.teardown()
				return nil, fmt.Errorf("mixer: request compositor pad %d: %w", i, err)
			}
		}
		p.pads[i] = pad
	}

	capsf, err := pipeline.GetElementByName("capsfilter")
	if err != nil {
		p.teardown()
		return nil, fmt.Errorf("mixer: get capsfilter: %w", err)
	}
	p.capsf = capsf

	udpsink, err := pipeline.GetElementByName("udpsink")
	if err != nil {
		p.teardown()
		return nil, fmt.Errorf("mixer: get udpsink: %w", err)
	}
	if err := udpsink.SetProperty("port", cfg.SinkPort); err != nil {
		p.teardown()
		return nil, fmt.Errorf("mixer: set udpsink port: %w", err)
	}
	p.sinkPort = cfg.SinkPort

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		p.teardown()
		return nil, fmt.Errorf("mixer: set pipeline playing: %w", err)
	}

	return p, nil
}

// SetPad implements Controller.
func (p *Pipeline) SetPad(i int, placement PadPlacement) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i < 0 || i >= len(p.pads) {
		return errInvalidInput(i, len(p.pads))
	}
	pad := p.pads[i]
	if err := pad.SetProperty("alpha", placement.Alpha); err != nil {
		return fmt.Errorf("mixer: set pad %d alpha: %w", i, err)
	}
	if err := pad.SetProperty("xpos", placement.X); err != nil {
		return fmt.Errorf("mixer: set pad %d xpos: %w", i, err)
	}
	if err := pad.SetProperty("ypos", placement.Y); err != nil {
		return fmt.Errorf("mixer: set pad %d ypos: %w", i, err)
	}
	if err := pad.SetProperty("width", placement.W); err != nil {
		return fmt.Errorf("mixer: set pad %d width: %w", i, err)
	}
	if err := pad.SetProperty("height", placement.H); err != nil {
		return fmt.Errorf("mixer: set pad %d height: %w", i, err)
	}
	return nil
}

// SetCrop implements Controller.
func (p *Pipeline) SetCrop(rows, cols int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	width := p.cfg.CellW * cols
	height := p.cfg.CellH * rows
	caps := gst.NewCapsFromString(fmt.Sprintf("video/x-raw, width=%d, height=%d", width, height))
	if err := p.capsf.SetProperty("caps", caps); err != nil {
		return fmt.Errorf("mixer: set crop %dx%d: %w", width, height, err)
	}
	return nil
}

// SinkPort implements Controller.
func (p *Pipeline) SinkPort() int { return p.sinkPort }

// Close implements Controller.
func (p *Pipeline) Close() error {
	p.teardown()
	return nil
}

func (p *Pipeline) teardown() {
	if p.pipeline != nil {
		_ = p.pipeline.SetState(gst.StateNull)
	}
}
