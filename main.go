package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dost-atlas/client"
	"dost-atlas/config"
	"dost-atlas/dashboard"
	"dost-atlas/export"
	"dost-atlas/handlers"
	"dost-atlas/logging"
	"dost-atlas/metrics"
	"dost-atlas/raster"
	"dost-atlas/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.New(cfg.LogLevel)
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	rt := routes{
		logger:    logger,
		metrics:   m,
		jwtSecret: cfg.JWTSecret,
	}

	if cfg.ServeRecords() {
		mongoClient, redisClient := connectStores(ctx, cfg, logger)
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoClient.Disconnect(disconnectCtx)
			_ = redisClient.Close()
		}()

		db := mongoClient.Database(cfg.MongoDB)
		recordService := services.NewRecordService(db, redisClient, logger)
		userService := services.NewUserService(db, redisClient, cfg.JWTSecret, logger)
		if err := recordService.EnsureIndexes(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to create record indexes")
		}
		if err := userService.EnsureIndexes(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to create user indexes")
		}

		rt.records = handlers.NewRecordHandler(recordService)
		rt.auth = handlers.NewAuthHandler(userService)
		rt.users = handlers.NewUserHandler(userService)
		rt.health = append(rt.health,
			func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		)
	}

	var sink export.Sink
	if cfg.DownloadDir != "" {
		sink = export.DirSink{Dir: cfg.DownloadDir}
	}
	session := dashboard.New(client.New(cfg.RecordsAPIURL, nil), dashboard.Options{
		Logger:   logger,
		Metrics:  m,
		Location: cfg.DisplayZone,
		Tiles:    raster.NewHTTPTiles(cfg.TileUserAgent, logger),
		Width:    cfg.SurfaceWidth,
		Height:   cfg.SurfaceHeight,
		Settle:   cfg.ExportSettle,
		Sink:     sink,
	})
	rt.dashboard = handlers.NewDashboardHandler(session)

	srv := &http.Server{
		Handler:           rt.handler(cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.HTTPAddr).Msg("failed to listen")
	}

	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Bool("records_api", cfg.ServeRecords()).Msg("dost-atlas listening")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	// The records API may be this process, so load only once it is serving.
	go func() {
		if err := session.Refresh(ctx); err != nil {
			logger.Warn().Err(err).Msg("initial record load incomplete")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}

func connectStores(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*mongo.Client, *redis.Client) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping MongoDB")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(connectCtx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	logger.Info().Str("db", cfg.MongoDB).Str("redis", cfg.RedisAddr).Msg("record stores connected")
	return mongoClient, redisClient
}
