// Package conference implements the event loop: the single cooperative
// thread that polls the external and internal datagram endpoints and
// drives admission, routing, fan-out and liveness sweeps.
//
// Grounded on original_source/server.cpp's main loop and on the
// goroutine/channel routing style in the teacher's
// api/pkg/moonlight/proxy.go (read loop per socket, route by endpoint,
// log and continue on per-datagram errors).
package conference

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/animatour/animatour/pkg/clients"
	"github.com/animatour/animatour/pkg/config"
	"github.com/animatour/animatour/pkg/grid"
	"github.com/animatour/animatour/pkg/inputpool"
	"github.com/animatour/animatour/pkg/metrics"
	"github.com/animatour/animatour/pkg/mixer"
	"github.com/animatour/animatour/pkg/netaddr"
	"github.com/animatour/animatour/pkg/slotpool"
)

// Params configures a new Server.
type Params struct {
	Config  config.Config
	Log     zerolog.Logger
	Metrics *metrics.Registry
}

// Server owns every pool, table, the pipeline handle, and the two
// sockets, per DESIGN NOTES §9's "single-owner structure". Every
// method that mutates state runs on the single event-loop goroutine in
// Run; no locks guard the fields below.
type Server struct {
	cfg     config.Config
	log     zerolog.Logger
	metrics *metrics.Registry

	external *net.UDPConn // server_sock: client <-> server
	sink     *net.UDPConn // udpsink_sock: pipeline -> server

	layout   *grid.Layout
	slots    *slotpool.Pool
	inputs   *inputpool.Pool
	table    *clients.Table
	pipeline mixer.Controller

	lastSweep  time.Time
	rows, cols int
}

// datagram is one received packet, tagged with which socket it arrived
// on; the two reader goroutines in Run push these onto a shared
// channel so all state mutation still happens on a single goroutine.
type datagram struct {
	from     netaddr.Endpoint
	payload  []byte
	internal bool // true: arrived on the sink socket (pipeline composite)
}

// New builds a Server bound to cfg.Port, with MAX_CLIENTS worth of
// pipeline inputs and grid slots, and a live media pipeline. Both the
// external bind and the pipeline construction are the two fatal
// startup failures named in spec.md §4.7/§7.
func New(p Params) (*Server, error) {
	external, err := net.ListenUDP("udp", &net.UDPAddr{Port: p.Config.Port})
	if err != nil {
		return nil, fmt.Errorf("conference: bind external socket on port %d: %w", p.Config.Port, err)
	}

	sink, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		external.Close()
		return nil, fmt.Errorf("conference: bind internal sink socket: %w", err)
	}
	sinkPort := sink.LocalAddr().(*net.UDPAddr).Port

	inputs, err := inputpool.New(config.MaxClients)
	if err != nil {
		external.Close()
		sink.Close()
		return nil, fmt.Errorf("conference: create input port pool: %w", err)
	}

	pipeline, err := mixer.New(mixer.Config{
		CellW:       config.CellWidth,
		CellH:       config.CellHeight,
		FrameRate:   config.FrameRate,
		BitrateKbps: p.Config.BitrateKbps,
		SinkPort:    sinkPort,
	}, inputs)
	if err != nil {
		external.Close()
		sink.Close()
		inputs.Close()
		return nil, fmt.Errorf("conference: construct media pipeline: %w", err)
	}

	return newServer(external, sink, inputs, pipeline, p), nil
}

// newServer is the shared constructor used by New and by tests, which
// supply their own sockets/pipeline (typically a *mixer.Fake).
func newServer(external, sink *net.UDPConn, inputs *inputpool.Pool, pipeline mixer.Controller, p Params) *Server {
	return &Server{
		cfg:       p.Config,
		log:       p.Log,
		metrics:   p.Metrics,
		external:  external,
		sink:      sink,
		layout:    grid.New(inputs.Len(), config.CellWidth, config.CellHeight, config.TargetAspect()),
		slots:     slotpool.New(inputs.Len()),
		inputs:    inputs,
		table:     clients.New(),
		pipeline:  pipeline,
		lastSweep: time.Now(),
	}
}

// Close tears down the pipeline and both sockets (spec.md §4.6
// Cancellation: the core loop itself never terminates gracefully, but
// an embedding caller can use Close for a clean shutdown).
func (s *Server) Close() error {
	if s.pipeline != nil {
		_ = s.pipeline.Close()
	}
	if s.inputs != nil {
		s.inputs.Close()
	}
	if s.sink != nil {
		_ = s.sink.Close()
	}
	if s.external != nil {
		_ = s.external.Close()
	}
	return nil
}

// Run drives the event loop until ctx is cancelled. It never returns
// nil on its own in steady state; the loop runs until process
// termination per spec.md §4.6.
func (s *Server) Run(ctx context.Context) error {
	datagrams := make(chan datagram, 64)
	readErrs := make(chan error, 2)

	go s.readLoop(ctx, s.external, false, datagrams, readErrs)
	go s.readLoop(ctx, s.sink, true, datagrams, readErrs)

	ticker := time.NewTicker(s.cfg.SweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErrs:
			// A closed listening socket is fatal: the loop can never
			// make progress again. Transient per-read errors are
			// handled inside readLoop and never reach this channel.
			return err
		case d := <-datagrams:
			s.handle(d)
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// readLoop receives datagrams from one socket and forwards them to ch.
// Per-datagram recv errors are logged and the loop continues (spec.md
// §4.7); only a permanent listener failure (socket closed) is reported
// on errs so Run can stop.
func (s *Server) readLoop(ctx context.Context, conn *net.UDPConn, internal bool, ch chan<- datagram, errs chan<- error) {
	buf := make([]byte, config.BufferSize)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if isClosedConnError(err) {
				errs <- fmt.Errorf("conference: socket closed: %w", err)
				return
			}
			s.log.Error().Err(err).Bool("internal", internal).Msg("recvfrom failed")
			continue
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		select {
		case ch <- datagram{from: netaddr.FromUDPAddr(addr), payload: payload, internal: internal}:
		case <-ctx.Done():
			return
		}
	}
}

func isClosedConnError(err error) bool {
	return err != nil && (err.Error() == "use of closed network connection" ||
		containsClosed(err))
}

func containsClosed(err error) bool {
	var opErr *net.OpError
	return asOpError(err, &opErr) && opErr.Err != nil && opErr.Err.Error() == "use of closed network connection"
}

func asOpError(err error, target **net.OpError) bool {
	opErr, ok := err.(*net.OpError)
	if ok {
		*target = opErr
	}
	return ok
}

// handle dispatches one received datagram to the external or internal
// path (spec.md §4.6).
func (s *Server) handle(d datagram) {
	if d.internal {
		s.fanOut(d.payload)
		return
	}
	s.handleExternal(d)
}

// handleExternal implements spec.md §4.6's "External readable" steps.
func (s *Server) handleExternal(d datagram) {
	now := time.Now()

	isNew := !s.table.Has(d.from)
	if isNew {
		s.table.AddSink(d.from, now)
		s.log.Debug().Str("client", d.from.String()).Msg("client admitted as sink")
	}
	s.table.Touch(d.from, now)

	if isNew && len(d.payload) > 0 {
		s.tryPromoteSource(d.from, now)
	}

	client, ok := s.table.Get(d.from)
	if ok && client.Source {
		s.forwardToInput(client, d.payload)
	}

	s.updateMetrics()
}

// tryPromoteSource admits a client as SOURCE iff an input and a slot
// are both available, per spec.md §3's Client.role and §4.6 step 3.
func (s *Server) tryPromoteSource(ep netaddr.Endpoint, now time.Time) {
	port, ok := s.inputs.Acquire()
	if !ok {
		s.log.Warn().Str("client", ep.String()).Msg("no free input port, admitting as sink-only")
		return
	}
	slot, ok := s.slots.Acquire()
	if !ok {
		s.inputs.Release(port.Index)
		s.log.Warn().Str("client", ep.String()).Msg("no free slot, admitting as sink-only")
		return
	}

	s.table.PromoteSource(ep, port.Index, slot)

	x, y := s.layout.PixelOrigin(slot)
	placement := mixer.Visible(x, y, config.CellWidth, config.CellHeight)
	if err := s.pipeline.SetPad(port.Index, placement); err != nil {
		s.log.Error().Err(err).Int("pad", port.Index).Msg("set pad failed")
	}

	s.log.Info().Str("client", ep.String()).Int("input", port.Index).Int("slot", slot).Msg("client promoted to source")

	s.recomputeCrop()
}

// forwardToInput sends a datagram verbatim to the client's bound input
// endpoint, per spec.md §4.6 step 4. It uses the external socket to
// send, matching original_source/server.cpp's choice of sendto on
// server_sock rather than a dedicated per-input egress socket (see
// DESIGN.md's resolution of the corresponding Open Question).
func (s *Server) forwardToInput(c *clients.Client, payload []byte) {
	port := s.inputs.Port(c.Input)
	if _, err := s.external.WriteToUDP(payload, port.Endpoint.UDPAddr()); err != nil {
		s.log.Error().Err(err).Str("client", c.Endpoint.String()).Msg("forward to pipeline input failed")
		return
	}
	s.table.CountDatagram(c.Endpoint)
	if s.metrics != nil {
		s.metrics.DatagramsForwarded.Inc()
	}
}

// fanOut implements spec.md §4.6's "Internal readable" step: forward
// the composite datagram to every SINK client, logging and skipping
// any per-peer send failure.
func (s *Server) fanOut(payload []byte) {
	for _, c := range s.table.Sinks() {
		if _, err := s.external.WriteToUDP(payload, c.Endpoint.UDPAddr()); err != nil {
			s.log.Error().Err(err).Str("client", c.Endpoint.String()).Msg("fan-out send failed")
			continue
		}
		s.table.CountDatagram(c.Endpoint)
		if s.metrics != nil {
			s.metrics.DatagramsFannedOut.Inc()
		}
	}
}

// sweep runs the liveness sweep described in spec.md §4.6: evict every
// client idle for more than IdleLimit, return resources, compact, and
// recompute the crop if the SOURCE set changed.
func (s *Server) sweep(now time.Time) {
	start := time.Now()
	s.lastSweep = now

	idle := s.table.Idle(now, s.cfg.IdleLimit)
	if len(idle) == 0 {
		return
	}

	sourceRemoved := false
	for _, c := range idle {
		if c.Source {
			if err := s.pipeline.SetPad(c.Input, mixer.Hidden); err != nil {
				s.log.Error().Err(err).Int("pad", c.Input).Msg("hide pad on eviction failed")
			}
			s.inputs.Release(c.Input)
			s.slots.Release(c.Slot)
			sourceRemoved = true
			s.log.Info().Str("client", c.Endpoint.String()).Msg("source evicted for inactivity")
		}
		s.table.Remove(c.Endpoint)
		if s.metrics != nil {
			s.metrics.ClientsEvicted.Inc()
		}
	}

	if sourceRemoved {
		s.compact()
		s.recomputeCrop()
	}

	s.updateMetrics()
	if s.metrics != nil {
		s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}
}

// compact applies slotpool's contiguity restoration to the surviving
// SOURCE clients' slots, repositioning each moved client's mixer pad
// to its new cell's pixel origin without touching alpha/width/height
// (spec.md §4.2).
func (s *Server) compact() {
	sources := s.table.Sources()
	slots := make([]int, len(sources))
	byslot := make(map[int]*clients.Client, len(sources))
	for i, c := range sources {
		slots[i] = c.Slot
		byslot[c.Slot] = c
	}

	for _, move := range s.slots.Compact(slots) {
		c, ok := byslot[move.From]
		if !ok {
			continue
		}
		s.table.SetSlot(c.Endpoint, move.To)
		delete(byslot, move.From)
		byslot[move.To] = c

		x, y := s.layout.PixelOrigin(move.To)
		placement := mixer.Visible(x, y, config.CellWidth, config.CellHeight)
		if err := s.pipeline.SetPad(c.Input, placement); err != nil {
			s.log.Error().Err(err).Int("pad", c.Input).Msg("reposition pad after compaction failed")
		}
	}
}

// recomputeCrop implements spec.md §4.5's crop update ordering: derive
// (rows, cols) from the current SOURCE slots and push it to the
// pipeline.
func (s *Server) recomputeCrop() {
	sources := s.table.Sources()
	slots := make([]int, len(sources))
	for i, c := range sources {
		slots[i] = c.Slot
	}
	rows, cols := s.layout.BoundingBox(slots)
	if rows == s.rows && cols == s.cols {
		return
	}
	s.rows, s.cols = rows, cols
	if err := s.pipeline.SetCrop(rows, cols); err != nil {
		s.log.Error().Err(err).Int("rows", rows).Int("cols", cols).Msg("set crop failed")
	}
}

func (s *Server) updateMetrics() {
	if s.metrics == nil {
		return
	}
	s.metrics.SourcesActive.Set(float64(len(s.table.Sources())))
	s.metrics.SinksActive.Set(float64(len(s.table.Sinks())))
	s.metrics.SlotsFree.Set(float64(s.slots.Free()))
	s.metrics.InputsFree.Set(float64(s.inputs.Free()))
}

// ExternalAddr returns the bound address of the external (client-facing)
// socket. Used by tests and logging.
func (s *Server) ExternalAddr() *net.UDPAddr { return s.external.LocalAddr().(*net.UDPAddr) }
