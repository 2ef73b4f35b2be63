package httpapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// serveFile streams a stored blob. Keys are validated by the blob store.
func (s *Server) serveFile(c *gin.Context) {
	if s.blobs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Arquivo não encontrado."})
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	info, body, err := s.blobs.Get(c.Request.Context(), key)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	defer body.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	if info.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if info.ETag != "" {
		c.Header("ETag", strconv.Quote(info.ETag))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		s.logger.Warn("stream blob", zap.String("key", key), zap.Error(err))
	}
}

func (s *Server) renderFailed(c *gin.Context, what string, err error) {
	s.logger.Error("render failed", zap.String("output", what), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
}
