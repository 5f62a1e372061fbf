package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"runtime"
	"sync"
)

// DefaultMaxInFlight bounds the number of received datagrams queued for the
// worker pool. It is the backpressure limit: once reached, the receive
// loop blocks handing off new datagrams to the worker pool, and the OS
// socket buffer absorbs (and eventually drops) further arrivals.
const DefaultMaxInFlight = 1000

// ServerConfig configures a Server.
type ServerConfig struct {
	// Addr is the UDP address to listen on, e.g. ":1884".
	Addr string

	// MaxInFlight is the capacity of the queue of received datagrams
	// waiting for a worker; how many are dispatched at once is bounded by
	// Workers. Zero means DefaultMaxInFlight.
	MaxInFlight int

	// Workers is the fixed worker-pool size. Zero means
	// runtime.GOMAXPROCS(0) * 4.
	Workers int

	// Logger receives startup/shutdown and per-datagram-send failure
	// lines. A nil Logger discards all output.
	Logger *slog.Logger
}

func (c ServerConfig) maxInFlight() int {
	if c.MaxInFlight > 0 {
		return c.MaxInFlight
	}
	return DefaultMaxInFlight
}

func (c ServerConfig) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0) * 4
}

func (c ServerConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// datagram is one received UDP packet, queued for a worker to dispatch.
type datagram struct {
	data []byte
	addr net.Addr
}

// Server binds a UDP socket and multiplexes inbound datagrams across a
// fixed pool of worker goroutines, each of which invokes a Dispatcher and
// writes its response back to the originating address. It implements the
// single suspension-point contract: the receive loop itself never blocks
// on the dispatcher, only on handing a datagram to the bounded work queue.
type Server struct {
	cfg  ServerConfig
	d    *Dispatcher
	conn *net.UDPConn

	work chan datagram
	wg   sync.WaitGroup
}

// NewServer builds a Server that dispatches through d.
func NewServer(d *Dispatcher, cfg ServerConfig) *Server {
	return &Server{cfg: cfg, d: d}
}

// ListenAndServe binds the configured address, starts the worker pool, and
// serves until ctx is canceled or an unrecoverable socket error occurs.
// On return, every in-flight dispatch has completed (graceful drain).
func (s *Server) ListenAndServe(ctx context.Context) error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("gateway: resolve %q: %w", s.cfg.Addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("gateway: listen %q: %w", s.cfg.Addr, err)
	}
	s.conn = conn
	defer conn.Close()

	log := s.cfg.logger()
	s.work = make(chan datagram, s.cfg.maxInFlight())

	for i := 0; i < s.cfg.workers(); i++ {
		s.wg.Add(1)
		go s.runWorker(ctx)
	}

	log.Info("gateway listening", "addr", conn.LocalAddr().String(), "workers", s.cfg.workers(), "max_in_flight", s.cfg.maxInFlight())

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 65527)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			close(s.work)
			s.wg.Wait()
			if errors.Is(ctx.Err(), context.Canceled) {
				log.Info("gateway shutting down")
				return nil
			}
			return fmt.Errorf("gateway: read: %w", err)
		}

		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case s.work <- datagram{data: data, addr: addr}:
		case <-ctx.Done():
			close(s.work)
			s.wg.Wait()
			return nil
		}
	}
}

func (s *Server) runWorker(ctx context.Context) {
	defer s.wg.Done()
	log := s.cfg.logger()

	for dg := range s.work {
		resp := s.d.Dispatch(ctx, dg.data, dg.addr)
		if resp == nil {
			continue
		}
		if _, err := s.conn.WriteTo(resp, dg.addr); err != nil {
			reportError(log, err, map[string]string{"addr": dg.addr.String()}, "failed to write response", "addr", dg.addr.String())
		}
	}
}
