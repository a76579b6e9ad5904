package docbatch

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:embed web/index.html.tmpl
var webFS embed.FS

// Server exposes the batch service over HTTP: the upload UI, the progress
// stream, batch generation, output download, and cleanup.
type Server struct {
	svc        *Service
	uploadsDir string
	logger     *zap.Logger
	indexTmpl  *template.Template
}

// NewServer creates a Server around svc. Uploaded spreadsheets are
// staged in uploadsDir and removed after the batch finishes.
func NewServer(svc *Service, uploadsDir string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:        svc,
		uploadsDir: uploadsDir,
		logger:     logger,
		indexTmpl:  template.Must(template.ParseFS(webFS, "web/index.html.tmpl")),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/", s.handleIndex)
	router.GET("/progress", s.handleProgress)
	router.POST("/generate", s.handleGenerate)
	router.GET("/cleanup", s.handleCleanup)
	router.Static("/output", s.svc.OutputDir())

	return router
}

// handleIndex serves the UI page listing the available template names.
func (s *Server) handleIndex(c *gin.Context) {
	templates, err := s.svc.ListTemplates()
	if err != nil {
		s.logger.Error("listing templates", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list templates"})
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := s.indexTmpl.Execute(c.Writer, gin.H{"Templates": templates}); err != nil {
		s.logger.Error("rendering index page", zap.Error(err))
	}
}

// handleProgress streams progress snapshots as Server-Sent Events until
// the client disconnects.
func (s *Server) handleProgress(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	updates := s.svc.Tracker().Subscribe(c.Request.Context())

	c.Stream(func(w io.Writer) bool {
		snapshot, ok := <-updates
		if !ok {
			return false
		}
		c.SSEvent("message", snapshot)
		return true
	})
}

// handleGenerate accepts the multipart spreadsheet upload plus a template
// name, runs the batch synchronously, and reports success or failure once
// the batch ends. Progress during the batch is observed via /progress.
func (s *Server) handleGenerate(c *gin.Context) {
	templateName := c.PostForm("template")

	upload, err := c.FormFile("excel")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing spreadsheet upload"})
		return
	}

	stagedPath := filepath.Join(s.uploadsDir, uuid.NewString()+".xlsx")
	if err := c.SaveUploadedFile(upload, stagedPath); err != nil {
		s.logger.Error("staging upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store upload"})
		return
	}
	defer func() { _ = os.Remove(stagedPath) }()

	file, err := os.Open(stagedPath) // #nosec G304 -- path is server-generated
	if err != nil {
		s.logger.Error("opening staged upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read upload"})
		return
	}
	defer func() { _ = file.Close() }()

	rows, err := LoadRows(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.svc.Generate(c.Request.Context(), rows, templateName); err != nil {
		s.logger.Error("batch failed",
			zap.String("template", templateName),
			zap.Int("rows", len(rows)),
			zap.Error(err))
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusOK)
}

// handleCleanup clears the output area and resets progress. Idempotent.
func (s *Server) handleCleanup(c *gin.Context) {
	if err := s.svc.Cleanup(); err != nil {
		s.logger.Error("cleanup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, "cleanup complete")
}

// statusForError maps batch errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrBatchInFlight):
		return http.StatusConflict
	case errors.Is(err, ErrNoRows), errors.Is(err, ErrTemplateNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger logs each request through zap. The progress stream is
// skipped: it is long-lived and would log once per client disconnect.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/progress" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
