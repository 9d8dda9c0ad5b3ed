package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"productcatalog/internal/accounts"
	"productcatalog/internal/admin"
	"productcatalog/internal/apperr"
	"productcatalog/internal/catalog"
	"productcatalog/internal/config"
	"productcatalog/internal/db"
	"productcatalog/internal/logger"
	"productcatalog/internal/metrics"
	"productcatalog/internal/respond"
)

const ShutdownTimeout = 10 * time.Second

type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *db.Client
	Accounts *accounts.Service
	Catalog  *catalog.Service
	// Registry receives the HTTP, runtime and connection pool collectors.
	// A fresh registry is used when nil.
	Registry *prometheus.Registry
}

type Server struct {
	cfg    *config.Config
	logg   *logger.Logger
	db     *db.Client
	engine *gin.Engine
	http   *http.Server
}

func New(deps Deps) *Server {
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if sqlDB, err := deps.DB.SQL(); err == nil {
		reg.MustRegister(collectors.NewDBStatsCollector(sqlDB, "catalog"))
	}

	if deps.Config.App.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = int64(deps.Config.Media.MaxUploadMB) << 20
	r.Use(
		RequestID(logg),
		Logging(logg),
		metrics.NewHTTPMetrics(reg).Middleware(),
		Recovery(logg),
	)

	s := &Server{cfg: deps.Config, logg: logg, db: deps.DB, engine: r}

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.Static(admin.MediaURL, deps.Config.Media.Root)

	site := admin.NewSite(admin.Deps{
		DB:       deps.DB,
		Accounts: deps.Accounts,
		Catalog:  deps.Catalog,
		Uploads:  admin.NewUploader(deps.Config.Media.Root, deps.Config.Media.MaxUploadMB),
		Logger:   logg,
	})
	site.Register(r, admin.SessionMiddleware(deps.Config.Session, deps.Config.App.IsProd()))

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, logg, apperr.New(apperr.CodeNotFound, "no such route"))
	})

	s.http = &http.Server{
		Addr:              ":" + deps.Config.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	if err := s.db.Ping(c.Request.Context()); err != nil {
		s.logg.Error(c.Request.Context(), "health check failed", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Run serves until ctx is cancelled or the listener fails, then shuts the
// HTTP server down and closes the database. Errors from both are combined.
func (s *Server) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		defer close(serveErr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	s.logg.Info(s.logg.WithField(ctx, "addr", s.http.Addr), "server.started")

	select {
	case err := <-serveErr:
		return multierr.Append(err, s.db.Close())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)
	err = multierr.Append(err, <-serveErr)
	err = multierr.Append(err, s.db.Close())
	s.logg.Info(context.Background(), "server.stopped")
	return err
}
