package redisserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/zumicash/zumi-go/internal/storage"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
)

// Config holds the RESP server configuration.
type Config struct {
	// Address is the listen address. Port 0 picks a free port.
	Address string
	// Password, when set, requires AUTH before data commands.
	Password string
	// ReadTimeout bounds reading one command once its first byte arrived.
	ReadTimeout time.Duration
	// WriteTimeout bounds flushing one reply.
	WriteTimeout time.Duration
	// IdleTimeout closes connections idle between commands.
	IdleTimeout time.Duration
	// RateLimit is the number of commands per second per connection.
	// 0 disables limiting.
	RateLimit int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Address:      "127.0.0.1:6379",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
		RateLimit:    1000,
	}
}

// Server serves a storage.KV over RESP.
type Server struct {
	cfg     Config
	handler *CommandHandler
	logger  logger.Logger

	mu      sync.Mutex
	ln      net.Listener
	conns   map[*Conn]struct{}
	running atomic.Bool
	wg      sync.WaitGroup
}

// Conn is a single client connection.
type Conn struct {
	netConn net.Conn
	br      *bufio.Reader
	bw      *bufio.Writer
	limiter *rate.Limiter

	authenticated bool
	quit          bool
	closed        atomic.Bool
}

func newConn(c net.Conn, limit int) *Conn {
	conn := &Conn{
		netConn: c,
		br:      bufio.NewReader(c),
		bw:      bufio.NewWriter(c),
	}
	if limit > 0 {
		conn.limiter = rate.NewLimiter(rate.Limit(limit), limit)
	}
	return conn
}

// Close closes the underlying connection once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// New creates a RESP server over kv.
func New(cfg Config, kv storage.KV, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Minute
	}
	log = log.With("component", "redisserver")
	return &Server{
		cfg:     cfg,
		handler: NewCommandHandler(kv, cfg.Password, log),
		logger:  log,
		conns:   make(map[*Conn]struct{}),
	}
}

// Start binds the listener and serves connections in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("redisserver: listen %s: %w", s.cfg.Address, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	s.logger.Info("redis server listening", "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil {
			s.logger.Error("redis accept loop stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown closes the listener and all open connections, then waits for
// connection goroutines to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.mu.Lock()
	err := s.ln.Close()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		c := newConn(nc, s.cfg.RateLimit)
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.conns, c)
				s.mu.Unlock()
			}()
			s.serveConn(ctx, c)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer c.Close()

	for !c.quit {
		// Idle connections may wait up to IdleTimeout for the next command.
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			s.logReadErr(c, err)
			return
		}

		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}
		args, err := ReadCommand(c.br)
		if err != nil {
			s.logReadErr(c, err)
			if errors.Is(err, ErrLimitExceeded) {
				s.reply(c, func(w *bufio.Writer) { WriteError(w, "ERR protocol limit exceeded") })
			} else if errors.Is(err, ErrProtocol) {
				s.reply(c, func(w *bufio.Writer) { WriteError(w, "ERR "+err.Error()) })
			}
			return
		}
		if len(args) == 0 {
			continue
		}

		if c.limiter != nil && !c.limiter.Allow() {
			if !s.reply(c, func(w *bufio.Writer) { WriteError(w, "ERR rate limit exceeded") }) {
				return
			}
			continue
		}

		s.handler.Handle(ctx, c, args)
		if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return
		}
		if err := c.bw.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) reply(c *Conn, write func(*bufio.Writer)) bool {
	_ = c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	write(c.bw)
	return c.bw.Flush() == nil
}

func (s *Server) logReadErr(c *Conn, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		s.logger.Debug("connection timed out", "remote", c.RemoteAddr().String())
		return
	}
	s.logger.Warn("connection read error", "remote", c.RemoteAddr().String(), "error", err)
}
