package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/wxlake/weather-extractor/internal/api/http"
	"github.com/wxlake/weather-extractor/internal/config"
	"github.com/wxlake/weather-extractor/internal/extract"
	"github.com/wxlake/weather-extractor/internal/scheduler"
	"github.com/wxlake/weather-extractor/internal/status"
	"github.com/wxlake/weather-extractor/internal/storage"
	"github.com/wxlake/weather-extractor/internal/weather"
)

func main() {
	if err := run(); err != nil {
		log.Printf("weather-extractor: %v", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logFile, err := openLogFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	logger := log.New(io.MultiWriter(os.Stderr, logFile), "", log.LstdFlags|log.LUTC)
	logger.Printf("configuration loaded; query=%q bucket=%q", cfg.Query, cfg.Bucket)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	client := weather.NewClient(httpClient, cfg.APIKey, cfg.BaseURL)

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return err
	}
	store := storage.NewWriter(s3.New(sess), cfg.Bucket, cfg.Prefix)

	runs := status.NewMemoryStore(cfg.StatusMaxHistory, cfg.StatusMaxAge)
	runner := extract.NewRunner(cfg.Query, client, store, runs, logger, time.Now)

	// Single-shot mode: one run, exit code reflects the result.
	if cfg.RunInterval <= 0 {
		return runner.Run(context.Background())
	}

	return runDaemon(cfg, runner, runs, logger)
}

// runDaemon keeps the process up, re-running extraction on the configured
// interval and serving the run-status API until SIGINT/SIGTERM.
func runDaemon(cfg *config.Config, runner *extract.Runner, runs *status.MemoryStore, logger *log.Logger) error {
	sched := scheduler.New(runner, cfg.RunInterval, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-extractor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-extractor",
		})
	})

	httpapi.RegisterRoutes(app, runs)

	go func() {
		if err := app.Listen(":" + cfg.StatusPort); err != nil {
			logger.Printf("status server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Printf("error during shutdown: %v", err)
	}
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
