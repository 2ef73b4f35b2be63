package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"greenleaf/internal/core"
	"greenleaf/internal/stats"
	"greenleaf/pkg/domain"
)

func (s *Server) listSamples(c *gin.Context) {
	samples, err := s.svc.ListSamples(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if samples == nil {
		samples = []domain.Sample{}
	}
	c.JSON(http.StatusOK, gin.H{"samples": samples})
}

func (s *Server) createSample(c *gin.Context) {
	var in domain.Sample
	// An empty body creates an empty sample.
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(c, msgInvalidBody)
		return
	}
	in.ID = ""
	created, err := s.svc.CreateSample(c.Request.Context(), in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Location", "/leafsamples/"+created.ID)
	c.Status(http.StatusCreated)
}

func (s *Server) getSample(c *gin.Context) {
	sample, err := s.svc.GetSample(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sample": sample})
}

// replaceSample answers {sample:null} when the id is well-formed but unknown.
func (s *Server) replaceSample(c *gin.Context) {
	id := c.Param("id")
	if err := domain.CheckID(id); err != nil {
		writeServiceError(c, err)
		return
	}
	var in domain.Sample
	if err := c.ShouldBindJSON(&in); err != nil {
		writeBadRequest(c, msgInvalidBody)
		return
	}
	sample, err := s.svc.ReplaceSample(c.Request.Context(), id, in)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sample": sample})
}

func (s *Server) patchSample(c *gin.Context) {
	id := c.Param("id")
	if err := domain.CheckID(id); err != nil {
		writeServiceError(c, err)
		return
	}
	var patch domain.SamplePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeBadRequest(c, msgInvalidBody)
		return
	}
	sample, err := s.svc.PatchSample(c.Request.Context(), id, patch)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sample": sample})
}

func (s *Server) deleteSample(c *gin.Context) {
	if err := s.svc.DeleteSample(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) uploadImage(c *gin.Context) {
	id := c.Param("id")
	if err := domain.CheckID(id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Imagem excede o tamanho máximo permitido."})
			return
		}
		writeBadRequest(c, "Campo de arquivo 'image' obrigatório.")
		return
	}
	file, err := header.Open()
	if err != nil {
		writeServiceError(c, err)
		return
	}
	defer file.Close()

	sample, err := s.svc.AttachImage(c.Request.Context(), id, core.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sample": sample})
}

func (s *Server) dashboardStats(c *gin.Context) {
	d, err := s.svc.Dashboard(c.Request.Context(), stats.ParsePeriod(c.Query("period")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) heatmap(c *gin.Context) {
	overview, err := s.svc.MapOverview(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (s *Server) geojson(c *gin.Context) {
	fc, err := s.svc.MapFeatures(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}
