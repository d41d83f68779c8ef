package remote

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bitfsorg/hoard-go/store"
)

// Server exposes a named set of stores over TCP.
type Server struct {
	group   *store.Group
	ln      net.Listener
	logger  *slog.Logger
	metrics *Metrics

	wg   sync.WaitGroup
	quit chan struct{}

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	stopped bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics makes the server record request metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// Listen binds addr and starts serving stores. An empty addr listens on
// DefaultPort on all interfaces.
func Listen(addr string, stores map[string]store.Store, opts ...Option) (*Server, error) {
	if addr == "" {
		addr = fmt.Sprintf(":%d", DefaultPort)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return Serve(ln, stores, opts...), nil
}

// Serve starts serving stores on ln. The server owns ln and closes it on Stop.
func Serve(ln net.Listener, stores map[string]store.Store, opts ...Option) *Server {
	s := &Server{
		group:  store.NewGroup(stores),
		ln:     ln,
		logger: slog.Default(),
		quit:   make(chan struct{}),
		conns:  make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Info("remote store server listening", "addr", ln.Addr().String(), "stores", s.group.Names())

	s.wg.Add(1)
	go s.acceptLoop()
	return s
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Stop closes the listener and every live connection, then waits for all
// workers to exit. It must not be called concurrently with itself.
func (s *Server) Stop() error {
	s.logger.Warn("shutting down remote store server")
	close(s.quit)
	err := s.ln.Close()

	s.mu.Lock()
	s.stopped = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// Accept retry delays after a failure that is not a shutdown.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	var delay time.Duration
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}

			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay = min(2*delay, maxAcceptDelay)
			}
			s.logger.Error("accept failed", "error", err, "retry_in", delay)

			select {
			case <-s.quit:
				return
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		if !s.track(conn, true) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.handleConn(conn)
		}()
	}
}

// track adds or removes a live connection. Adding fails once Stop has run.
func (s *Server) track(conn net.Conn, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		if s.stopped {
			return false
		}
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
	if s.metrics != nil {
		s.metrics.Connections.Set(float64(len(s.conns)))
	}
	return true
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	for {
		data, err := readLengthPrefixed(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("read failed", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}
		req, err := DecodeRequest(data)
		if err != nil {
			s.logger.Warn("decode request failed", "remote", conn.RemoteAddr().String(), "error", err)
			return
		}

		resp := s.handleRequest(req)
		respData, err := EncodeResponse(resp)
		if err != nil {
			s.logger.Error("encode response failed", "command", CommandName(req.Command), "error", err)
			respData, err = EncodeResponse(s.errorFrame(req, err))
			if err != nil {
				return
			}
		}
		if err := writeLengthPrefixed(conn, respData); err != nil {
			s.logger.Warn("write failed", "remote", conn.RemoteAddr().String(), "error", err)
			return
		}
	}
}

func (s *Server) handleRequest(req *RequestFrame) *ResponseFrame {
	start := time.Now()
	cmd := CommandName(req.Command)

	out, err := s.dispatch(req)
	frame := &ResponseFrame{RequestID: req.RequestID, Status: StatusOK}
	if err == nil {
		frame.Payload, err = encodePayload(out)
	}
	if err != nil {
		frame = s.errorFrame(req, err)
	}

	if s.metrics != nil {
		status := "ok"
		if frame.Status != StatusOK {
			status = "error"
		}
		s.metrics.Requests.WithLabelValues(cmd, status).Inc()
		s.metrics.Duration.WithLabelValues(cmd).Observe(time.Since(start).Seconds())
	}
	return frame
}

func (s *Server) errorFrame(req *RequestFrame, err error) *ResponseFrame {
	payload, encErr := encodePayload(Response{Code: errorCode(err), Message: err.Error()})
	if encErr != nil {
		payload = nil
	}
	return &ResponseFrame{RequestID: req.RequestID, Status: StatusError, Payload: payload}
}

func (s *Server) dispatch(frame *RequestFrame) (Response, error) {
	var req Request
	if err := decodePayload(frame.Payload, &req); err != nil {
		return Response{}, fmt.Errorf("invalid payload: %w", err)
	}

	if frame.Command == CmdCheckExists {
		st, err := s.group.Store(req.Store)
		if err != nil {
			return Response{Found: false}, nil
		}
		return Response{Found: true, Codec: store.CodecOf(st).Name()}, nil
	}

	st, err := s.group.Store(req.Store)
	if err != nil {
		return Response{}, err
	}

	switch frame.Command {
	case CmdGetItem:
		v, err := st.LoadRaw(req.Key)
		if err != nil {
			return Response{}, err
		}
		return Response{Value: v, Found: true}, nil

	case CmdSetItem:
		s.logger.Info("setting item", "store", req.Store, "key", req.Key)
		return Response{}, st.StoreRaw(req.Key, req.Value)

	case CmdDelItem:
		s.logger.Info("deleting item", "store", req.Store, "key", req.Key)
		return Response{}, st.Delete(req.Key)

	case CmdContains:
		ok, err := st.Contains(req.Key)
		return Response{Found: ok}, err

	case CmdListKeys:
		keys, err := store.KeySlice(st)
		return Response{Keys: keys}, err

	default:
		return Response{}, fmt.Errorf("unknown command %d", frame.Command)
	}
}
