package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"greenleaf/internal/blob"
	"greenleaf/internal/core"
	"greenleaf/internal/export"
	"greenleaf/pkg/domain"
)

const (
	msgInternal    = "Erro interno do servidor."
	msgInvalidID   = "ID inválido."
	msgNotFound    = "Amostra não encontrada."
	msgInvalidBody = "Corpo da requisição inválido."
)

// writeServiceError collapses service errors into the API's three outcomes:
// 400 for caller input, 404 for missing records and a static 500 otherwise.
// The service has already logged the operation.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidID})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	case errors.Is(err, core.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "O arquivo enviado não é uma imagem."})
	case errors.Is(err, blob.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Arquivo não encontrado."})
	case errors.Is(err, blob.ErrInvalidKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Caminho de arquivo inválido."})
	case errors.Is(err, export.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, export.ErrQueueFull), errors.Is(err, export.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Fila de exportação indisponível."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

func writeBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
