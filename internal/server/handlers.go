package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jaki95/record-player/internal/domain"
	"github.com/jaki95/record-player/internal/relay"
	"github.com/jaki95/record-player/internal/weather"
)

// lofiTrack picks a random track and tells the client where to stream it from
func (s *Server) lofiTrack(c *gin.Context) {
	track := s.catalog.Random()
	c.JSON(http.StatusOK, domain.NewDescriptor(track, s.baseURL(c)))
}

// audio relays the bytes of one track
func (s *Server) audio(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Track not found"})
		return
	}

	track, err := s.catalog.Lookup(id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Track not found"})
		return
	}

	err = s.relay.Serve(c.Writer, c.Request, track)
	if err == nil {
		return
	}

	logger := slog.With("request_id", c.GetString(requestIDKey), "track_id", track.ID, "source", track.Source.Kind)

	var streamErr *relay.StreamError
	switch {
	case errors.As(err, &streamErr) && streamErr.Op == "write":
		logger.Info("Client stopped receiving audio", "written", streamErr.Written, "error", streamErr.Err)
	case errors.As(err, &streamErr):
		logger.Warn("Audio stream terminated", "written", streamErr.Written, "error", streamErr.Err)
	default:
		status, _ := relay.StatusFor(err)
		logger.Error("Failed to open audio source", "status", status, "error", err)
	}
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, domain.Health{
		Status:          "ok",
		TracksAvailable: s.catalog.Len(),
		Mode:            s.cfg.Mode,
	})
}

// listTracks returns the whole registry without source locations
func (s *Server) listTracks(c *gin.Context) {
	c.JSON(http.StatusOK, domain.TrackList{Tracks: s.catalog.All()})
}

// weatherTicket reports the caller's location and current weather
func (s *Server) weatherTicket(c *gin.Context) {
	q := weather.Query{
		IP:   c.ClientIP(),
		Unit: c.Query("unit"),
	}

	latRaw, lonRaw := c.Query("lat"), c.Query("lon")
	if latRaw != "" || lonRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lon, lonErr := strconv.ParseFloat(lonRaw, 64)
		if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid coordinates"})
			return
		}
		q.Latitude, q.Longitude = &lat, &lon
	}

	c.JSON(http.StatusOK, s.weather.Ticket(c.Request.Context(), q))
}

func (s *Server) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
}

// baseURL is the public origin written into track descriptors.
func (s *Server) baseURL(c *gin.Context) string {
	if s.cfg.Server.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.Server.PublicBaseURL, "/")
	}

	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
