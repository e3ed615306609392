package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaki95/record-player/config"
	"github.com/jaki95/record-player/internal/domain"
	"github.com/jaki95/record-player/internal/weather"
)

// Catalog is the read-only track registry the handlers select from.
type Catalog interface {
	Random() domain.Track
	Lookup(id int) (domain.Track, error)
	All() []domain.Track
	Len() int
}

// Streamer relays a track's bytes to the client.
type Streamer interface {
	Serve(w http.ResponseWriter, r *http.Request, track domain.Track) error
}

// WeatherService builds the weather ticket for a caller.
type WeatherService interface {
	Ticket(ctx context.Context, q weather.Query) weather.Ticket
}

// Server handles HTTP requests for the audio relay
type Server struct {
	cfg     *config.Config
	catalog Catalog
	relay   Streamer
	weather WeatherService
	router  *gin.Engine
}

// New creates a new HTTP server instance
func New(cfg *config.Config, catalog Catalog, relay Streamer, wx WeatherService) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:     cfg,
		catalog: catalog,
		relay:   relay,
		weather: wx,
	}

	router := gin.New()
	// Redirects are written before middleware runs and would go out without CORS headers
	router.RedirectTrailingSlash = false
	s.setupRoutes(router)
	s.router = router
	return s
}

// setupRoutes configures middleware and the HTTP routes
func (s *Server) setupRoutes(router *gin.Engine) {
	// CORS must run before anything that can answer the request
	router.Use(requestID(), corsHeaders(), requestLogger(), gin.Recovery())

	router.Any("/api/lofi-track", s.lofiTrack)
	router.Any("/api/audio/:id", s.audio)
	router.Any("/api/weather", s.weatherTicket)
	router.Any("/health", s.healthCheck)
	router.Any("/tracks", s.listTracks)

	router.NoRoute(s.notFound)
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	// No WriteTimeout: streams may legitimately last for the whole track
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", srv.Addr, "tracks", s.catalog.Len(), "mode", s.cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server", "timeout", s.cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
