// Package api exposes the ingestion pipeline and the metrics engine over HTTP.
//
// Routes:
//
//	GET  /                              upload form
//	GET  /healthz                       liveness
//	POST /upload/                       multipart "file" → pipeline → store
//	GET  /reports/sales-summary
//	GET  /reports/financial-metrics
//	GET  /reports/product-analysis      ?sort_by=quantidade_vendida|total_arrecadado
//	GET  /reports/regional-performance  ?estado=
//	GET  /reports/customer-profile
//	GET  /reports/overview              ?freq=
//	GET  /analytics/trends              ?freq=D|M|Y
//	GET  /data/search                   eight optional filters + limit
package api

import (
	"context"
	_ "embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"hanami/internal/ingest"
	"hanami/internal/logger"
	"hanami/internal/storage"
)

// Config controls server startup.
type Config struct {
	Addr string
	// Mode is the gin mode. Empty keeps gin's default.
	Mode             string
	UploadRatePerSec float64
	UploadBurst      int
	MaxUploadBytes   int64
}

// Server owns the gin engine and its collaborators.
type Server struct {
	cfg      Config
	engine   *gin.Engine
	repo     storage.Repository
	uploader *ingest.Uploader
	log      *logger.Logger
	tmpl     *template.Template
}

// NewServer builds a server with its routes registered.
func NewServer(cfg Config, repo storage.Repository, up *ingest.Uploader, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	s := &Server{
		cfg:      cfg,
		engine:   gin.New(),
		repo:     repo,
		uploader: up,
		log:      log,
		tmpl:     template.Must(template.New("index").Parse(indexHTML)),
	}
	s.routes()
	return s
}

// Handler returns the router, for tests and custom listeners.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("api: listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.log.Info("api: shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery(), RequestLogger(s.log), RecordMetrics())

	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/healthz", s.handleHealth)

	upload := []gin.HandlerFunc{}
	if s.cfg.UploadRatePerSec > 0 {
		upload = append(upload, RateLimit(rate.NewLimiter(rate.Limit(s.cfg.UploadRatePerSec), s.cfg.UploadBurst), s.log))
	}
	upload = append(upload, s.handleUpload)
	s.engine.POST("/upload/", upload...)

	reports := s.engine.Group("/reports")
	{
		reports.GET("/sales-summary", s.handleSalesSummary)
		reports.GET("/financial-metrics", s.handleFinancialMetrics)
		reports.GET("/product-analysis", s.handleProductAnalysis)
		reports.GET("/regional-performance", s.handleRegionalPerformance)
		reports.GET("/customer-profile", s.handleCustomerProfile)
		reports.GET("/overview", s.handleOverview)
	}
	s.engine.GET("/analytics/trends", s.handleTrends)
	s.engine.GET("/data/search", s.handleSearch)
}

// indexHTML is a minimal upload form.
//
//go:embed index.tmpl.html
var indexHTML string
