package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"greenleaf/internal/auth"
	"greenleaf/internal/core"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxClaims       = "claims"
)

// requestLogger assigns a request id, logs the request and observes the
// HTTP metrics once the handler chain has run.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		c.Next()

		elapsed := time.Since(started)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		if s.metrics != nil {
			s.metrics.ObserveRequest(c.Request.Method, route, status, elapsed)
		}
		fields := []zap.Field{
			zap.String("request_id", id),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("client_ip", c.ClientIP()),
		}
		switch {
		case status >= http.StatusInternalServerError:
			s.logger.Error("request failed", fields...)
		case status >= http.StatusBadRequest:
			s.logger.Info("request rejected", fields...)
		case route == "/healthz" || route == "/metrics":
			s.logger.Debug("request served", fields...)
		default:
			s.logger.Info("request served", fields...)
		}
	}
}

// recovery turns panics into the generic 500 body.
func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		s.logger.Error("panic serving request", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	})
}

// requireAuth validates the bearer token when an authenticator is configured
// and attaches the subject to the request context.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.auth == nil {
			c.Next()
			return
		}
		claims, err := s.auth.Validate(auth.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			msg := "Token inválido ou expirado."
			if errors.Is(err, auth.ErrMissingToken) {
				msg = "Token de autorização obrigatório."
			}
			s.logger.Info("unauthorized request", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Set(ctxClaims, claims)
		c.Request = c.Request.WithContext(core.WithActor(c.Request.Context(), claims.Subject))
		c.Next()
	}
}
