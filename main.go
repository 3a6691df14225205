package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/robfig/cron/v3"

	"triddle_backend/internals/configs"
	"triddle_backend/internals/constants"
	database "triddle_backend/internals/databases"
	analyticsRepo "triddle_backend/internals/features/forms/analytics/repository"
	analyticsService "triddle_backend/internals/features/forms/analytics/service"
	formRepo "triddle_backend/internals/features/forms/forms/repository"
	formService "triddle_backend/internals/features/forms/forms/service"
	responseRepo "triddle_backend/internals/features/forms/responses/repository"
	responseScheduler "triddle_backend/internals/features/forms/responses/scheduler"
	responseService "triddle_backend/internals/features/forms/responses/service"
	authRepo "triddle_backend/internals/features/users/auth/repository"
	authScheduler "triddle_backend/internals/features/users/auth/scheduler"
	authService "triddle_backend/internals/features/users/auth/service"
	helperOSS "triddle_backend/internals/helpers/oss"
	middlewares "triddle_backend/internals/middlewares"
	routes "triddle_backend/internals/route"
	"triddle_backend/internals/seeds"
)

// blobStore: OSS kalau ALI_OSS_* lengkap, selain itu in-memory (dev lokal).
type blobStore interface {
	formService.ImageStore
	responseService.BlobStore
}

func newBlobStore() blobStore {
	svc, err := helperOSS.NewOSSServiceFromEnv(configs.GetEnv("ALI_OSS_PREFIX", "triddle"))
	if err != nil {
		log.Printf("⚠️ OSS nonaktif (%v), file disimpan in-memory", err)
		return helperOSS.NewMemoryBlobStore(configs.GetEnv("BLOB_PUBLIC_BASE"))
	}
	log.Println("✅ OSS siap:", svc.BucketName)
	return svc
}

func main() {
	configs.LoadEnv()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		BodyLimit:               constants.MaxMultipartBodyBytes,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          configs.GetList("TRUSTED_PROXIES", "0.0.0.0/0"),
	})

	// ⚙️ middleware dasar + performa
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault})) // gzip
	app.Use(etag.New())                                                  // 304 caching

	middlewares.SetupMiddlewares(app)

	// 🔌 DB connect + pool + schema + warm-up
	database.ConnectDB()
	database.TunePool()
	if configs.GetEnv("DB_AUTO_MIGRATE", "true") == "true" {
		if err := database.MigrateSchema(database.DB); err != nil {
			log.Fatalf("❌ Migrasi gagal: %v", err)
		}
	}
	database.WarmUpQueries()

	// 🧩 Repository + service
	blobs := newBlobStore()

	forms := formRepo.NewFormRepository(database.DB)
	formSvc := formService.NewFormService(forms, blobs, formService.Options{})

	analyticsSvc := analyticsService.NewAnalyticsService(
		analyticsRepo.NewAnalyticsRepository(database.DB),
		analyticsService.Options{CacheTTL: configs.AnalyticsCacheTTL()},
	)

	responseSvc := responseService.NewResponseService(forms, responseRepo.NewResponseRepository(database.DB), responseService.Options{
		Notifier: analyticsSvc,
		Blobs:    blobs,
	})

	users := authRepo.NewAuthRepository(database.DB)
	authSvc := authService.NewAuthService(users, authService.Options{
		Secret:    configs.JWTSecret,
		AccessTTL: configs.GetDuration("JWT_ACCESS_TTL", 24*time.Hour),
		Google:    authService.NewGoogleVerifier(configs.GoogleClientID),
	})

	// 🌱 data demo (opsional)
	if configs.GetEnv("SEED_DEMO") == "true" {
		if err := seeds.RunAllSeeds(context.Background(), authSvc, formSvc, configs.GetEnv("SEED_DIR", "internals/seeds")); err != nil {
			log.Printf("❌ Seeding gagal: %v", err)
		}
	}

	// ⏱ scheduler setelah DB siap
	var crons []*cron.Cron
	if c, err := responseScheduler.StartAbandonSweeper(responseSvc, configs.LoadResponseSettings()); err != nil {
		log.Printf("❌ Abandon sweeper tidak jalan: %v", err)
	} else {
		crons = append(crons, c)
	}
	if c, err := authScheduler.StartBlacklistCleanupScheduler(users,
		configs.GetEnv("TOKEN_BLACKLIST_CLEANUP_CRON", "0 3 * * *"),
		configs.TokenBlacklistTTLDays(),
	); err != nil {
		log.Printf("❌ Blacklist cleanup tidak jalan: %v", err)
	} else {
		crons = append(crons, c)
	}

	// ✅ Routes
	routes.SetupRoutes(app, routes.Services{
		Auth:      authSvc,
		Forms:     formSvc,
		Responses: responseSvc,
		Analytics: analyticsSvc,
		Secret:    configs.JWTSecret,
		Ping:      database.Ping,
	})

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")

	// Start server non-blocking
	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: stop cron, tutup HTTP, tutup pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, c := range crons {
		<-c.Stop().Done()
	}
	_ = app.ShutdownWithContext(ctx)

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
