package socket

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// Handler accepts incoming TCP connections. Implementations own the
// connection from the moment Handle is called: typically they wrap it
// in a Conn and call Run, closing it when Run returns.
type Handler interface {
	// Handle is called in its own goroutine for each accepted connection.
	Handle(conn *net.TCPConn)
}

// Server accepts TCP connections and hands them to a Handler.
type Server struct {
	listener        *net.TCPListener
	logger          Logger
	shutdownTimeout time.Duration

	mu       sync.Mutex
	stopping bool

	// forceClose cuts short a pending graceful-shutdown wait.
	forceClose chan struct{}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the logger used by the accept loop.
func ServerLoggerOption(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// ServerShutdownTimeoutOption sets how long Serve keeps accepting
// after its context is canceled before it closes the listener, giving
// in-flight handlers time to finish their exchanges. Zero (the
// default) stops accepting immediately.
//
// The timeout only delays listener closure. Existing connections are
// not tracked here; cancel them through the context passed to
// Conn.Run, or call Close to skip the remaining wait.
func ServerShutdownTimeoutOption(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.shutdownTimeout = timeout
	}
}

// New binds a TCP listener on addr and returns the server.
func New(addr *net.TCPAddr, opts ...ServerOption) (*Server, error) {
	listener, err := net.ListenTCP(addr.Network(), addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		listener:   listener,
		logger:     defaultLogger(),
		forceClose: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Serve accepts connections until ctx is canceled or the listener
// fails, dispatching each accepted connection to handler in its own
// goroutine. Accepted connections get TCP_NODELAY; temporary accept
// errors are retried. When ctx is canceled the configured shutdown
// timeout runs first, unless Close cuts it short.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	s.logger.Info("server started", "addr", s.listener.Addr())

	go s.watchShutdown(ctx)

	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			if s.isStopping() {
				s.logger.Info("server stopped", "addr", s.listener.Addr())
				return ctx.Err()
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("accept error", "error", err)
			return err
		}

		s.logger.Debug("accepted connection", "remote_addr", conn.RemoteAddr())
		_ = conn.SetNoDelay(true)
		go handler.Handle(conn)
	}
}

// watchShutdown waits for ctx to end, sits out the graceful-shutdown
// timeout, then unblocks the accept loop by putting a deadline in the
// past on the listener.
func (s *Server) watchShutdown(ctx context.Context) {
	<-ctx.Done()

	if s.shutdownTimeout > 0 {
		s.logger.Info("graceful shutdown initiated", "timeout", s.shutdownTimeout)
		select {
		case <-time.After(s.shutdownTimeout):
		case <-s.forceClose:
			s.logger.Debug("shutdown timeout cut short")
		}
	}

	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	_ = s.listener.SetDeadline(time.Now())
}

func (s *Server) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

// Close closes the listener, failing any blocked Accept. A pending
// graceful-shutdown wait is cut short.
func (s *Server) Close() error {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	select {
	case s.forceClose <- struct{}{}:
	default:
	}

	return s.listener.Close()
}

// Addr returns the address the listener is bound to.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
