// Package server exposes a session over an HTTP JSON API.
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/amrverse/amrrulebrowser/internal/deeplink"
	"github.com/amrverse/amrrulebrowser/internal/export"
	"github.com/amrverse/amrrulebrowser/internal/query"
	"github.com/amrverse/amrrulebrowser/internal/rules"
	"github.com/amrverse/amrrulebrowser/internal/session"
)

// Server serves one session.
type Server struct {
	echo    *echo.Echo
	session *session.Session
	logger  *zap.Logger
}

// New creates a server for sess with its routes registered.
func New(sess *session.Session) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, session: sess, logger: sess.Logger()}
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(s.requestLogger())
	s.RegisterRoutes(e)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until the server is shut down.
func (s *Server) Start(addr string) error {
	s.logger.Info("serving", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops the server, waiting for in-flight requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// RegisterRoutes mounts the API under /api.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/files", s.GetFiles)
	api.GET("/options", s.GetOptions)
	api.GET("/columns", s.GetColumns)
	api.GET("/browse", s.GetBrowse)
	api.GET("/search", s.GetSearch)
	api.GET("/current", s.GetCurrent)
	api.POST("/sort", s.PostSort)
	api.GET("/export", s.GetExport)
	api.GET("/render", s.GetRender)
	api.GET("/link", s.GetLink)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			c.Response().Header().Set("X-Session-ID", s.session.ID)
			err := next(c)
			s.logger.Debug("request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Duration("elapsed", time.Since(start)))
			return err
		}
	}
}

// --- HANDLERS ---

type fileInfo struct {
	Name         string    `json:"name"`
	Label        string    `json:"label"`
	Rows         int       `json:"rows"`
	Headers      []string  `json:"headers"`
	Organisms    []string  `json:"organisms,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// GetFiles lists loaded files.
func (s *Server) GetFiles(c echo.Context) error {
	files := s.session.Store.SortedFiles()
	out := make([]fileInfo, 0, len(files))
	for _, f := range files {
		out = append(out, fileInfo{
			Name:         f.Name,
			Label:        rules.FormatFileName(f.Name),
			Rows:         len(f.Rows),
			Headers:      f.Headers(),
			Organisms:    f.Organisms(),
			LastModified: f.LastModified,
		})
	}
	message := ""
	if len(out) == 0 {
		message = "No files loaded."
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session": s.session.ID,
		"files":   out,
		"message": message,
	})
}

// GetOptions lists browse targets.
func (s *Server) GetOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session": s.session.ID,
		"options": s.session.Engine.BrowseOptions(),
	})
}

// GetColumns lists search columns and the hidden-column preference.
func (s *Server) GetColumns(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session": s.session.ID,
		"columns": append([]string{query.AllColumns}, s.session.Engine.SearchColumns()...),
		"hidden":  s.session.HiddenColumns(c.Request().Context()),
	})
}

// GetBrowse browses a file, organism or everything, with an optional filter.
func (s *Server) GetBrowse(c echo.Context) error {
	sel := query.Selection{File: c.QueryParam("file"), Organism: c.QueryParam("organism")}
	res, err := s.session.Engine.Browse(sel)
	if err == nil && c.QueryParam("q") != "" {
		res, err = s.session.Engine.FilterBrowse(c.QueryParam("q"), c.QueryParam("col"))
	}
	return s.respond(c, res, err)
}

// GetSearch searches every loaded file.
func (s *Server) GetSearch(c echo.Context) error {
	res, err := s.session.Engine.Search(c.QueryParam("q"), c.QueryParam("col"))
	return s.respond(c, res, err)
}

// GetCurrent returns the working set.
func (s *Server) GetCurrent(c echo.Context) error {
	return s.respond(c, s.session.Engine.Current(), nil)
}

// PostSort sorts the working set by col, toggling direction on repeat.
func (s *Server) PostSort(c echo.Context) error {
	res, err := s.session.Engine.SortBy(c.QueryParam("col"))
	return s.respond(c, res, err)
}

// GetExport downloads the working set as TSV or CSV.
func (s *Server) GetExport(c echo.Context) error {
	f, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return s.fail(c, http.StatusBadRequest, err.Error())
	}
	blob, err := s.session.Export(f)
	if errors.Is(err, export.ErrNoData) {
		return s.fail(c, http.StatusNotFound, "No data to download.")
	}
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+blob.FileName+`"`)
	return c.Blob(http.StatusOK, blob.ContentType, blob.Data)
}

// GetRender returns the working set as an HTML table.
func (s *Server) GetRender(c echo.Context) error {
	var buf bytes.Buffer
	if err := s.session.RenderHTML(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// GetLink runs the query encoded by a deep link in the path parameter.
func (s *Server) GetLink(c echo.Context) error {
	res, err := s.session.Apply(deeplink.Decode(c.QueryParam("path")))
	return s.respond(c, res, err)
}

type resultResponse struct {
	Session string `json:"session"`
	Link    string `json:"link"`
	query.Result
}

func (s *Server) respond(c echo.Context, res query.Result, err error) error {
	switch {
	case err == nil:
	case errors.Is(err, query.ErrEmptyTerm),
		errors.Is(err, query.ErrUnknownColumn),
		errors.Is(err, query.ErrNotBrowsing):
		return s.fail(c, http.StatusBadRequest, query.UserMessage(err))
	case errors.Is(err, query.ErrNoData), errors.Is(err, query.ErrUnknownFile):
		return s.fail(c, http.StatusNotFound, query.UserMessage(err))
	default:
		return err
	}
	if res.Headers == nil {
		res.Headers = []string{}
	}
	if res.Rows == nil {
		res.Rows = []rules.Row{}
	}
	return c.JSON(http.StatusOK, resultResponse{
		Session: s.session.ID,
		Link:    deeplink.Encode(session.StateOf(res)),
		Result:  res,
	})
}

func (s *Server) fail(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]interface{}{
		"session": s.session.ID,
		"error":   message,
	})
}
