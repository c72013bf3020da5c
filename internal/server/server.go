// Package server exposes the analyses over HTTP.
package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"go.uber.org/zap"

	"kgcheck/internal/engine"
	kgerrors "kgcheck/pkg/errors"
)

// Server holds the HTTP handlers for one engine.
type Server struct {
	engine *engine.Engine
	logger *zap.Logger
}

// New creates a server.
func New(e *engine.Engine, log *zap.Logger) *Server {
	return &Server{engine: e, logger: log}
}

type validateRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

type graphResponse struct {
	Nodes         []dbtype.Node         `json:"nodes"`
	Relationships []dbtype.Relationship `json:"relationships"`
}

// Router builds the gin engine with logging, recovery and every route.
func (s *Server) Router(release bool) *gin.Engine {
	if release {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(s.logger))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/validate", s.handleValidate)
		api.GET("/consistency/:type", s.handleConsistency)
		api.GET("/conflicts", s.handleConflicts)
		api.GET("/graph", s.handleGraph)
	}
	return router
}

// handleValidate validates inline content when given, otherwise the file or
// directory at path.
func (s *Server) handleValidate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Content != "" {
		c.JSON(http.StatusOK, s.engine.ValidateContent(req.Path, req.Content))
		return
	}

	path, err := s.resolvePath(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := s.engine.ValidatePath(c.Request.Context(), path)
	if err != nil {
		s.fail(c, "Failed to validate path", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

var (
	errOutsideRoot   = errors.New("path must be inside the corpus root")
	errWrongFileType = errors.New("path must name a directory or a corpus file")
)

// resolvePath maps a request path onto the corpus root. Relative paths are
// taken from the root. Symlinks are followed before the containment check.
func (s *Server) resolvePath(p string) (string, error) {
	cfg := s.engine.Config()
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return "", err
	}
	target := p
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target = filepath.Clean(target)
	if !within(root, target) {
		return "", errOutsideRoot
	}

	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		realRoot, err := filepath.EvalSymlinks(root)
		if err != nil || !within(realRoot, resolved) {
			return "", errOutsideRoot
		}
	}

	if info, err := os.Stat(target); err == nil && !info.IsDir() && filepath.Ext(target) != cfg.Extension {
		return "", errWrongFileType
	}
	return target, nil
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *Server) handleConsistency(c *gin.Context) {
	r, err := s.engine.Consistency(c.Request.Context(), c.Param("type"), c.Query("name"))
	if err != nil {
		s.fail(c, "Failed to check consistency", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleConflicts(c *gin.Context) {
	symbolsOnly, _ := strconv.ParseBool(c.DefaultQuery("symbols_only", "false"))
	r, err := s.engine.Conflicts(c.Request.Context(), symbolsOnly)
	if err != nil {
		s.fail(c, "Failed to detect conflicts", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleGraph(c *gin.Context) {
	corpus, err := s.engine.Corpus(c.Request.Context())
	if err != nil {
		s.fail(c, "Failed to build graph", err)
		return
	}
	c.JSON(http.StatusOK, graphResponse{
		Nodes:         corpus.GraphNodes(),
		Relationships: corpus.GraphRelationships(),
	})
}

func (s *Server) fail(c *gin.Context, msg string, err error) {
	if kgerrors.IsErrorType(err, kgerrors.ErrorTypeIO) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
