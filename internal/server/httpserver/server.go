// Package httpserver exposes the bucket store over HTTP using gin.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bucketstore/internal/logging"
	"github.com/dmitrijs2005/bucketstore/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type KeyIssuer interface {
	Issue(ctx context.Context) (*services.IssuedKey, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, header string) (uuid.UUID, error)
}

type UploadTokens interface {
	Issue(ctx context.Context, bucketID uuid.UUID) (uuid.UUID, error)
	Redeem(ctx context.Context, tokenID uuid.UUID) (uuid.UUID, error)
}

type Files interface {
	Upload(ctx context.Context, bucketID uuid.UUID, filename string, data []byte) (uuid.UUID, error)
	Open(ctx context.Context, bucketID, fileID uuid.UUID) (*services.Download, error)
	Delete(ctx context.Context, bucketID, fileID uuid.UUID) error
}

type Options struct {
	Address         string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	// MaxUploadBytes caps a request body; 0 disables the limit.
	MaxUploadBytes int64
}

type Server struct {
	opts    Options
	logger  logging.Logger
	keys    KeyIssuer
	gate    Authenticator
	uploads UploadTokens
	files   Files
	engine  *gin.Engine
}

func New(opts Options, l logging.Logger, keys KeyIssuer, gate Authenticator, uploads UploadTokens, files Files) *Server {
	s := &Server{
		opts:    opts,
		logger:  l.With("module", "http_server"),
		keys:    keys,
		gate:    gate,
		uploads: uploads,
		files:   files,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors.New(corsConfig(s.opts.AllowedOrigins)))

	r.POST("/key", s.issueKey)

	authed := r.Group("/", s.bucketAuth())
	{
		authed.GET("/key/verify", s.verifyKey)
		authed.GET("/upload/key", s.issueUploadKey)
		authed.POST("/upload", s.upload)
		authed.GET("/download/:fileId", s.download)
		authed.GET("/delete/:fileId", s.delete)
	}

	r.POST("/upload/:uploadId", s.uploadTokenAuth(), s.upload)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", "Origin"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}
