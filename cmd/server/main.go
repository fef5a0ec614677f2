package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"model-catalog-service/internal/adapters/primary/http/handlers"
	"model-catalog-service/internal/adapters/primary/http/middleware"
	"model-catalog-service/internal/adapters/secondary/pipeline"
	"model-catalog-service/internal/adapters/secondary/postgres"
	"model-catalog-service/internal/config"
	"model-catalog-service/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("parse db config: %v", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatalf("create db pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatalf("ping db: %v", err)
	}
	log.Info("database connection established")

	// Secondary adapters
	modelRepo := postgres.NewModelRepository(pool)
	policyRepo := postgres.NewAccessPolicyRepository(pool)
	teamRepo := postgres.NewTeamPermissionsRepository(pool)
	historyRepo := postgres.NewDeploymentHistoryRepository(pool)
	auditRepo := postgres.NewAuditEventRepository(pool)
	publisher := pipeline.NewClient(&cfg.Pipeline)
	if cfg.Pipeline.Enabled {
		log.Info("pipeline publisher initialized")
	} else {
		log.Info("pipeline publishing disabled")
	}

	// Core services
	auditSvc := services.NewAuditService(auditRepo, cfg.Audit.QueueSize)
	defer auditSvc.Close()
	accessSvc := services.NewAccessControlService(modelRepo, policyRepo, teamRepo, auditSvc)
	registrySvc := services.NewRegistryService(modelRepo, historyRepo, accessSvc, auditSvc)
	deploymentSvc := services.NewDeploymentService(modelRepo, historyRepo, accessSvc, auditSvc, publisher)

	// Primary adapter
	h := handlers.New(registrySvc, deploymentSvc)

	router := gin.New()
	router.Use(middleware.CorrelationID(), middleware.Caller(), middleware.Logging(), gin.Recovery())

	api := router.Group("/api/v1/model-catalog")
	h.RegisterRoutes(api)

	router.GET("/healthz", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
