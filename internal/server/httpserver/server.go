package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/zumicash/zumi-go/internal/infra/tlsroots"
	"github.com/zumicash/zumi-go/internal/telemetry/logger"
)

// Config holds listener settings for Server.
type Config struct {
	Addr         string
	TLSCertFile  string
	TLSKeyFile   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server represents the HTTP server.
type Server struct {
	cfg        Config
	httpServer *http.Server
	certs      *tlsroots.Watcher
	logger     logger.Logger
	listener   net.Listener
}

// New creates a new HTTP server. When both TLS files are set the
// certificate is loaded now and hot-reloaded while serving.
func New(cfg Config, handler http.Handler, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Default()
	}
	s := &Server{
		cfg:    cfg,
		logger: log.With("component", "httpserver"),
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		w, err := tlsroots.NewWatcher(cfg.TLSCertFile, cfg.TLSKeyFile, tlsroots.WithLogger(s.logger))
		if err != nil {
			return nil, err
		}
		s.certs = w
		s.httpServer.TLSConfig = &tls.Config{
			MinVersion:     tls.VersionTLS12,
			GetCertificate: w.GetCertificate,
		}
	}
	return s, nil
}

// TLS reports whether the server terminates TLS.
func (s *Server) TLS() bool {
	return s.certs != nil
}

// Listen binds the listener without serving. Addr reports the bound address
// afterwards, which is useful with port 0.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// Serve accepts connections until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	s.logger.Info("http server listening", "addr", s.Addr(), "tls", s.TLS())

	var err error
	if s.certs != nil {
		s.certs.StartAsync()
		err = s.httpServer.ServeTLS(s.listener, "", "")
	} else {
		err = s.httpServer.Serve(s.listener)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.certs != nil {
		s.certs.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
