package control

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	pkglog "github.com/aannaassalam/coachiatry-sub001/pkg/log"
)

// Server serves the control API on a loopback address.
type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewRouter builds the gin engine for h.
func NewRouter(h *HTTPHandler, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(pkglog.GinMiddleware(logger))
	h.RegisterRoutes(router)
	return router
}

// NewServer creates a control server listening on addr.
func NewServer(addr string, h *HTTPHandler, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	return &Server{
		srv: &http.Server{
			Addr:    addr,
			Handler: NewRouter(h, logger),
		},
		logger: logger,
	}
}

// Start listens and serves in the background. Listen errors are returned
// directly.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}

	go func() {
		s.logger.Info().Str("address", ln.Addr().String()).Msg("control api listening")
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("control api stopped")
		}
	}()
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
