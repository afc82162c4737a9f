package main

import (
	"FocusDetect/internal/config"
	"FocusDetect/internal/view"
	"FocusDetect/pkg/log"
	"FocusDetect/pkg/redis"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		logger.Warnf("No .env file loaded, using process environment: %v", err)
	}

	env := config.LoadEnv()

	focusDetector, err := config.NewDetector(env, logger)
	if err != nil {
		logger.Fatalf("Error loading focus detector: %v", err)
	}

	var redisServer redis.IRedis
	if env.RedisAddress != "" {
		redisServer, err = redis.New(redis.Options{
			Address:  env.RedisAddress,
			Password: env.RedisPassword,
			DB:       env.RedisDB,
		})
		if err != nil {
			logger.Fatalf("Error connecting to Redis: %v", err)
		}
	}

	// Leave headroom over the upload limit for the multipart envelope and
	// base64 inflation of webcam frames.
	fiberApp := config.NewFiber(logger, view.New(), int(env.MaxUploadBytes())*2)
	validator := config.NewValidator()

	server, err := config.NewServer(
		config.WithEnv(env),
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithMiddleware(),
		config.WithDetector(focusDetector),
		config.WithRedisServer(redisServer),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Infof("Server started on port %s", env.Port)

	<-sigChan
	logger.Info("Shutting down server...")

	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
