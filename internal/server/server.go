// Package server exposes an opened archive over a small read-only HTTP API.
package server

import (
	"net/http"
	"path"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"

	"github.com/samcharles93/mpcextract/internal/logger"
	"github.com/samcharles93/mpcextract/pkg/mpc"
)

const headerRequestID = "X-Request-Id"

// Options tunes the server.
type Options struct {
	// RateLimit is the sustained requests per second across all clients.
	// Zero disables limiting.
	RateLimit float64
	// Burst is the token bucket size. Defaults to max(1, RateLimit).
	Burst int
}

type Server struct {
	c       *mpc.Container
	log     logger.Logger
	limiter *rate.Limiter
}

func New(c *mpc.Container, log logger.Logger, opts Options) *Server {
	if log == nil {
		log = logger.Default()
	}
	s := &Server{c: c, log: log}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = max(1, int(opts.RateLimit))
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	e.Use(requestID)
	if s.limiter != nil {
		e.Use(s.rateLimit)
	}

	e.GET("/v1/archive", s.handleArchive)
	e.GET("/v1/entries", s.handleListEntries)
	e.GET("/v1/entries/:index", s.withEntry(s.handleGetEntry))
	e.GET("/v1/entries/:index/content", s.withEntry(s.handleEntryContent))
}

// requestID tags every response with a fresh or propagated request id.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		id := c.Request().Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(headerRequestID, id)
		return next(c)
	}
}

func (s *Server) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		if !s.limiter.Allow() {
			return writeError(c, http.StatusTooManyRequests, "rate_limit_error", "too many requests")
		}
		return next(c)
	}
}

type archiveResponse struct {
	Name       string `json:"name"`
	Signature  string `json:"signature"`
	DirOffset  uint32 `json:"directory_offset"`
	Reserved   uint32 `json:"reserved"`
	EntryCount int    `json:"entry_count"`
}

type entryResponse struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Offset    uint32 `json:"offset"`
	Length    uint32 `json:"length"`
	Reserved1 uint32 `json:"reserved1"`
	Reserved2 uint32 `json:"reserved2"`
}

func toEntryResponse(e mpc.Entry) entryResponse {
	// Path is empty when the name would not be extracted.
	p, _ := mpc.SafeName(e.Name)
	return entryResponse{
		Index:     e.Index,
		Name:      e.Name,
		Path:      p,
		Offset:    e.Offset,
		Length:    e.Length,
		Reserved1: e.Reserved1,
		Reserved2: e.Reserved2,
	}
}

func (s *Server) handleArchive(c *echo.Context) error {
	h := s.c.Header()
	return c.JSON(http.StatusOK, archiveResponse{
		Name:       s.c.Name(),
		Signature:  string(h.Signature[:]),
		DirOffset:  h.DirOffset,
		Reserved:   h.Reserved,
		EntryCount: s.c.EntryCount(),
	})
}

func (s *Server) handleListEntries(c *echo.Context) error {
	entries := s.c.Entries()
	data := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, toEntryResponse(e))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   data,
	})
}

// withEntry resolves the :index parameter before calling fn.
func (s *Server) withEntry(fn func(*echo.Context, mpc.Entry) error) echo.HandlerFunc {
	return func(c *echo.Context) error {
		i, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			return writeBadRequest(c, "entry index must be an integer")
		}
		e, ok := s.c.Entry(i)
		if !ok {
			return writeNotFound(c, "entry not found")
		}
		return fn(c, e)
	}
}

func (s *Server) handleGetEntry(c *echo.Context, e mpc.Entry) error {
	return c.JSON(http.StatusOK, toEntryResponse(e))
}

func (s *Server) handleEntryContent(c *echo.Context, e mpc.Entry) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMEOctetStream)
	res.Header().Set("Content-Length", strconv.FormatUint(uint64(e.Length), 10))
	if p, err := mpc.SafeName(e.Name); err == nil {
		res.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(p)+`"`)
	}
	res.WriteHeader(http.StatusOK)

	n, err := s.c.CopyEntry(e, res)
	if err != nil {
		// Headers are already sent; the client sees a short body.
		s.log.Warn("payload stream failed",
			"index", e.Index, "name", e.Name, "written", n,
			"kind", mpc.KindOf(err).String(), "error", err,
			"request_id", res.Header().Get(headerRequestID))
	}
	return nil
}
