package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jalansafe/routeintel/internal/config"
	"github.com/jalansafe/routeintel/internal/delivery/http"
	"github.com/jalansafe/routeintel/internal/domain"
	applog "github.com/jalansafe/routeintel/internal/logger"
	"github.com/jalansafe/routeintel/internal/repository/postgres"
	redisrepo "github.com/jalansafe/routeintel/internal/repository/redis"
	"github.com/jalansafe/routeintel/internal/scoring"
	"github.com/jalansafe/routeintel/internal/service"
	"github.com/jalansafe/routeintel/internal/task"
)

func main() {
	// Configuration
	cfg, found := config.Load()
	log := applog.New(applog.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if !found {
		log.Info("No .env file found, using system environment")
	}
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	// Database connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := connectPostgres(ctx, cfg.DatabaseURL, log)
	if pool != nil {
		defer pool.Close()
	}

	redisClient := connectRedis(ctx, cfg.RedisURL, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Dependency Injection: Repositories
	checks := map[string]domain.HealthChecker{}
	var reports domain.ReportStore
	var mock *postgres.MockRepository
	if pool != nil {
		repo := postgres.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.WithError(err).Warn("Could not apply database schema")
		}
		reports = repo
		checks["database"] = repo
	} else {
		mock = postgres.NewMockRepository(postgres.DemoHazards()...)
		reports = mock
	}

	traffic := trafficStore(cfg, reports, mock, redisClient, log)

	var tasks task.Store = task.NewMemoryStore()
	if cfg.TaskStore == config.BackendRedis {
		if redisClient != nil {
			tasks = task.NewRedisStore(redisClient, cfg.TaskRetention)
		} else {
			log.Warn("TASK_STORE=redis but redis is unavailable, keeping tasks in memory")
		}
	}
	if redisClient != nil {
		checks["redis"] = redisrepo.NewTrafficRepository(redisClient, cfg.Scoring.TrafficWindow)
	}

	// Dependency Injection: Services
	provider := service.NewGraphHopperProvider(cfg.GraphHopperURL, cfg.GraphHopperAPIKey, cfg.RoutingTimeout)
	geocoder := service.NewNominatimGeocoder(cfg.NominatimURL, cfg.NominatimCountry, cfg.GeocodingTimeout, log)
	weatherSvc := service.NewWeatherService("", cfg.OpenWeatherAPIKey, cfg.WeatherTimeout, log)
	imagery := service.NewImageryBridge(cfg.ImageryServiceURL, cfg.ImageryTimeout)
	checks["imagery"] = imagery

	synth := service.NewSynthesizer(provider, cfg.CandidateMinPoints, cfg.CandidateViaOffset, log)
	scorer := scoring.NewScorer(cfg.Scoring, log)
	routeSvc := service.NewRouteService(synth, scorer, geocoder, weatherSvc, reports, traffic, log)

	orchestrator := task.NewOrchestrator(tasks, map[domain.AnalysisKind]task.Runner{
		domain.KindRouteScoring: task.RouteRunner(routeSvc),
		domain.KindImagery:      task.ImageryRunner(imagery),
	}, cfg.TaskTimeout, log)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "RouteIntel API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Routes
	http.SetupRoutes(app, http.NewHandler(routeSvc, orchestrator, reports, checks))

	// Graceful shutdown
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Fatal("Server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.WithError(err).Warn("Server forced to shutdown")
	}

	routeSvc.WaitBackground()
	log.Info("Waiting for running analyses")
	orchestrator.Wait()
	log.Info("Server exited gracefully")
}

func connectPostgres(ctx context.Context, dsn string, log logrus.FieldLogger) *pgxpool.Pool {
	if dsn == "" {
		log.Warn("DATABASE_URL not set, running with mock data only")
		return nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err == nil {
		err = pool.Ping(ctx)
		if err != nil {
			pool.Close()
		}
	}
	if err != nil {
		log.WithError(err).Warn("Could not connect to database, running with mock data only")
		return nil
	}

	log.Info("Connected to PostgreSQL")
	return pool
}

func connectRedis(ctx context.Context, url string, log logrus.FieldLogger) *goredis.Client {
	if url == "" {
		return nil
	}

	opts, err := goredis.ParseURL(url)
	if err != nil {
		log.WithError(err).Warn("Invalid REDIS_URL, redis disabled")
		return nil
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Could not connect to redis, redis disabled")
		_ = client.Close()
		return nil
	}

	log.Info("Connected to Redis")
	return client
}

// trafficStore picks the route-choice backend named by TRAFFIC_BACKEND,
// falling back to whatever relational store is available
func trafficStore(cfg *config.Config, reports domain.ReportStore, mock *postgres.MockRepository, client *goredis.Client, log logrus.FieldLogger) domain.TrafficStore {
	switch cfg.TrafficBackend {
	case config.BackendRedis:
		if client != nil {
			return redisrepo.NewTrafficRepository(client, cfg.Scoring.TrafficWindow)
		}
		log.Warn("TRAFFIC_BACKEND=redis but redis is unavailable, falling back")
	case config.BackendMemory:
		if mock == nil {
			mock = postgres.NewMockRepository()
		}
		return mock
	}

	if ts, ok := reports.(domain.TrafficStore); ok {
		return ts
	}
	return postgres.NewMockRepository()
}
