package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/api"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/auth"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/config"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/storage"
	"github.com/ShirePath-Solutions/BiblicalBattlePlans/internal/verse"
)

// app wires config, logger, storage and the verse client together for
// the api package.
type app struct {
	logger internal.Logger
	repos  *storage.Repositories
	verse  *verse.Service
}

func (a *app) Logger() internal.Logger      { return a.logger }
func (a *app) Repos() *storage.Repositories { return a.repos }
func (a *app) Verse() *verse.Service        { return a.verse }

func newLogger(cfg *config.Config) (internal.Logger, func()) {
	var zl *zap.Logger
	var err error
	if cfg.Env == "production" {
		zl, err = zap.NewProduction()
	} else {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	return internal.NewZapLogger(zl.Sugar()), func() { _ = zl.Sync() }
}

func main() {
	cfg := config.Load()
	logger, flush := newLogger(cfg)
	defer flush()

	var repos *storage.Repositories
	switch cfg.DBType {
	case "postgres":
		var err error
		repos, err = storage.NewPostgresRepositories(cfg.DBDSN, logger)
		if err != nil {
			logger.Fatalf("failed to init postgres storage: %v", err)
		}
	default:
		if dir := filepath.Dir(cfg.FilePlans); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				logger.Fatalf("failed to create data dir: %v", err)
			}
		}
		var fs *storage.FileStorage
		var err error
		repos, fs, err = storage.NewFileRepositories(cfg.FilePlans, cfg.FileUserPlans, cfg.FileProgress, cfg.FileProfiles, logger)
		if err != nil {
			logger.Fatalf("failed to init file storage: %v", err)
		}
		defer fs.Close()
	}

	if err := storage.SeedDefaultPlans(context.Background(), repos.Plans, logger); err != nil {
		logger.Fatalf("failed to seed plan catalog: %v", err)
	}

	var provider auth.Provider
	if cfg.Env == "development" {
		provider = auth.NewLocalAuthProvider("MOCK-TOKEN", logger)
	} else {
		provider = auth.NewRemoteAuthProvider(cfg.AuthServiceURL, logger)
	}

	verseSvc := verse.NewService(cfg.VerseAPIURL, logger)
	a := &app{logger: logger, repos: repos, verse: verseSvc}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(api.RequestIDMiddleware())

	protected := r.Group("/api")
	protected.Use(auth.AuthMiddleware(provider, cfg))
	protected.GET("/plans", api.GetPlans(a))
	protected.GET("/plans/:id", api.GetPlan(a))
	protected.POST("/plans/:id/enroll", api.PostEnroll(a))
	protected.GET("/user-plans", api.GetUserPlans(a))
	protected.GET("/user-plans/:id/today", api.GetToday(a))
	protected.POST("/user-plans/:id/toggle", api.PostToggle(a))
	protected.POST("/user-plans/:id/advance", api.PostAdvance(a))
	protected.POST("/user-plans/:id/archive", api.PostArchive(a, true))
	protected.POST("/user-plans/:id/unarchive", api.PostArchive(a, false))
	protected.GET("/stats", api.GetStats(a))
	protected.GET("/profile", api.GetProfile(a))
	protected.PUT("/profile", api.PutProfile(a))
	protected.GET("/verse", api.GetVerse(a))

	logger.Infof("Server running on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}
}
