package mixer

import "sync"

// Fake is an in-memory Controller recording every call, used by
// pkg/conference's tests to drive the event loop without a real
// GStreamer pipeline (the real Pipeline requires cgo and the
// GStreamer shared libraries, neither available in a plain test
// environment).
type Fake struct {
	mu       sync.Mutex
	Pads     map[int]PadPlacement
	Crop     struct{ Rows, Cols int }
	Port     int
	Closed   bool
	SetCalls int
}

// NewFake returns a ready-to-use Fake with the given sink port.
func NewFake(sinkPort int) *Fake {
	return &Fake{Pads: make(map[int]PadPlacement), Port: sinkPort}
}

func (f *Fake) SetPad(i int, p PadPlacement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pads[i] = p
	f.SetCalls++
	return nil
}

func (f *Fake) SetCrop(rows, cols int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Crop.Rows, f.Crop.Cols = rows, cols
	return nil
}

func (f *Fake) SinkPort() int { return f.Port }

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// PadOf returns the last placement applied to pad i.
func (f *Fake) PadOf(i int) PadPlacement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Pads[i]
}
