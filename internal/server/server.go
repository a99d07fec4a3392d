// Package server implements the connection-handling engine: a Unix domain
// socket listener, a fixed-capacity connection table, and one request worker
// per accepted connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/udslink/udslink/internal/core"
	"github.com/udslink/udslink/internal/protocol"
)

// ErrNoHandler is returned by New when no request handler is registered.
var ErrNoHandler = errors.New("server: a request handler is required")

// Handler turns a validated request packet into a response packet. One
// Handler is registered per server and invoked synchronously from every
// connection worker, so implementations must be safe for concurrent use.
// A nil response is answered on the wire as a generic error so the client
// is never left waiting.
type Handler interface {
	Handle(req *protocol.Packet) *protocol.Packet
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc func(*protocol.Packet) *protocol.Packet

func (f HandlerFunc) Handle(req *protocol.Packet) *protocol.Packet { return f(req) }

// Server owns the listening socket, the connection slot table, and the
// registered request handler.
type Server struct {
	config  *core.Config
	handler Handler
	log     *zap.SugaredLogger

	listener net.Listener
	slots    *slotTable
	workers  sync.WaitGroup
	closed   atomic.Bool
}

// New binds a listening socket at the configured path, removing any stale
// socket file left behind by an unclean shutdown. It fails without a
// handler; any partially created resources are released on error.
func New(cfg *core.Config, handler Handler, logger *zap.SugaredLogger) (*Server, error) {
	if handler == nil {
		return nil, ErrNoHandler
	}

	if err := os.Remove(cfg.SocketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket %s: %w", cfg.SocketPath, err)
	}

	listener, err := net.Listen("unix", cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", cfg.SocketPath, err)
	}

	return &Server{
		config:   cfg,
		handler:  handler,
		log:      logger,
		listener: listener,
		slots:    newSlotTable(cfg.MaxConnections),
	}, nil
}

// Addr returns the address of the listening socket.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until ctx is canceled or Close is called,
// spawning one worker goroutine per accepted connection. It returns only
// after every outstanding worker has exited and the socket file has been
// removed, so no worker touches server state after Serve returns.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Infof("waiting for connections on %s", s.config.SocketPath)

	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		if err := s.acceptOne(); err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.log.Warnf("failed to accept connection: %v", err)
		}
	}

	s.log.Infof("shutting down (waiting for connections to close)")
	s.drain()
	s.log.Infof("exited")

	return ctx.Err()
}

// acceptOne blocks for the next connection and hands it to a worker. When
// the slot table is full the connection is closed immediately rather than
// queued; only listener errors are returned to the accept loop.
func (s *Server) acceptOne() error {
	conn, err := s.listener.Accept()
	if err != nil {
		return err
	}

	sl, ok := s.slots.acquire(conn)
	if !ok {
		s.log.Warnf("rejecting connection: all %d slots in use", s.slots.capacity())
		_ = conn.Close()
		return nil
	}

	s.log.Infof("accepted connection (slot %d)", sl.index)

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		s.serveConnection(sl)
	}()

	return nil
}

// Close stops the listener. A Serve loop in progress drains its workers and
// returns; closing an already closed server is a no-op.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.listener.Close()
}

// drain unblocks every in-flight worker by closing its connection, waits for
// all of them to finish, and releases the remaining server resources. This
// is the only synchronization point between the lifecycle and the workers.
func (s *Server) drain() {
	s.closed.Store(true)

	for _, sl := range s.slots.slots {
		if sl.inUse.Load() {
			_ = sl.conn.Close()
		}
	}
	s.workers.Wait()

	_ = s.listener.Close()
	_ = os.Remove(s.config.SocketPath)
}
