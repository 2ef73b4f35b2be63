package httpapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"greenleaf/internal/core"
	"greenleaf/internal/dashboard"
	"greenleaf/internal/export"
	"greenleaf/internal/stats"
)

// exportSamples renders a report synchronously and returns it as a download.
func (s *Server) exportSamples(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	period := stats.ParsePeriod(c.Query("period"))
	samples, err := s.svc.ListSamples(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	report := export.NewReport(samples, period, s.svc.Now())
	var buf bytes.Buffer
	if err := export.Render(&buf, format, report); err != nil {
		s.renderFailed(c, "export", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(format)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) dashboardPage(c *gin.Context) {
	d, err := s.svc.Dashboard(c.Request.Context(), stats.ParsePeriod(c.Query("period")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := dashboard.Render(&buf, d); err != nil {
		s.renderFailed(c, "dashboard", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

type exportRequest struct {
	Period  string   `json:"period"`
	Formats []string `json:"formats"`
}

func (s *Server) createExport(c *gin.Context) {
	if s.exports == nil {
		writeServiceError(c, export.ErrStopped)
		return
	}
	var in exportRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		writeBadRequest(c, msgInvalidBody)
		return
	}
	formats := make([]export.Format, 0, len(in.Formats))
	for _, raw := range in.Formats {
		formats = append(formats, export.Format(raw))
	}
	actor := core.ActorFrom(c.Request.Context())
	job, err := s.exports.Enqueue(c.Request.Context(), export.Request{
		Period:      stats.ParsePeriod(in.Period),
		Formats:     formats,
		RequestedBy: actor,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Location", "/exports/"+job.ID)
	c.JSON(http.StatusAccepted, gin.H{"export": job})
}

func (s *Server) listExports(c *gin.Context) {
	jobs := []export.Job{}
	if s.exports != nil {
		jobs = append(jobs, s.exports.List()...)
	}
	c.JSON(http.StatusOK, gin.H{"exports": jobs})
}

func (s *Server) getExport(c *gin.Context) {
	if s.exports != nil {
		if job, ok := s.exports.Get(c.Param("id")); ok {
			c.JSON(http.StatusOK, gin.H{"export": job})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Exportação não encontrada."})
}
