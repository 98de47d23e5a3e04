package httpserver

import (
	"time"

	"github.com/dmitrijs2005/bucketstore/internal/common"
	"github.com/dmitrijs2005/bucketstore/internal/server/apperr"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const bucketIDKey = "bucketID"

// bucketAuth resolves the Basic credentials of the request to a bucket id.
func (s *Server) bucketAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		bucketID, err := s.gate.Authenticate(c.Request.Context(), c.GetHeader(common.AuthorizationHeaderName))
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Set(bucketIDKey, bucketID)
		c.Next()
	}
}

// uploadTokenAuth resolves the :uploadId capability to a bucket id.
func (s *Server) uploadTokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenID, err := uuid.Parse(c.Param("uploadId"))
		if err != nil {
			s.fail(c, apperr.ErrInvalidToken)
			return
		}
		bucketID, err := s.uploads.Redeem(c.Request.Context(), tokenID)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Set(bucketIDKey, bucketID)
		c.Next()
	}
}

func bucketID(c *gin.Context) uuid.UUID {
	return c.MustGet(bucketIDKey).(uuid.UUID)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// fail logs err and writes the error body. Unexpected errors are logged
// with their cause and reach the caller only as a generic message.
func (s *Server) fail(c *gin.Context, err error) {
	status, msg := apperr.Resolve(err)
	ctx := c.Request.Context()

	if apperr.IsExpected(err) {
		s.logger.Warn(ctx, "request rejected", "path", c.FullPath(), "status", status, "error", msg)
	} else {
		s.logger.Error(ctx, "request failed", "path", c.FullPath(), "error", err)
	}

	if !bodyAllowed(status) {
		c.AbortWithStatus(status)
		return
	}
	c.AbortWithStatusJSON(status, errorResponse{ErrorInfo: msg})
}

type errorResponse struct {
	ErrorInfo string `json:"errorInfo"`
}

func bodyAllowed(status int) bool {
	return status >= 200 && status != 204 && status != 304
}
