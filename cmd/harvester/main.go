package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"qqharvest.com/m/internal/config"
	"qqharvest.com/m/internal/export"
	"qqharvest.com/m/internal/harvest"
	"qqharvest.com/m/internal/qqmusic"
	"qqharvest.com/m/internal/store"
	"qqharvest.com/m/internal/tasks"
)

func main() {
	var (
		inputFile       = flag.String("input", "", "Artist task file (defaults to artists.xlsx or artists.csv in the working directory)")
		singleArtist    = flag.String("artist", "", "Harvest a single artist mid with weight 1 instead of reading a task file")
		dbPath          = flag.String("db", getEnv("DB_PATH", "qq_music_library.db"), "Path of the sqlite database")
		storageDir      = flag.String("storage", getEnv("STORAGE_DIR", "qq_music_library"), "Directory for downloaded audio and covers")
		exportPath      = flag.String("export", getEnv("EXPORT_PATH", "qq_music_output.xlsx"), "Spreadsheet written after a completed run; empty disables export")
		downloadAudio   = flag.Bool("download-audio", true, "Resolve and download audio files")
		refetchComments = flag.Bool("refetch-comments", false, "Re-crawl comments even for songs that already have some stored")
		logLevel        = flag.String("log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
		metricsPort     = flag.String("metrics-port", getEnv("METRICS_PORT", "9090"), "Metrics server port")
	)
	flag.Parse()

	// Load environment variables
	if os.Getenv("DEBUG") == "true" {
		err := godotenv.Load("../../.env")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: .env file not found. Using system environment variables.\n")
		}
	}

	logger, err := setupLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Default()
	cfg.DBPath = *dbPath
	cfg.StorageDir = *storageDir
	cfg.DownloadAudio = *downloadAudio
	cfg.RefetchComments = *refetchComments
	cfg.MetricsPort = *metricsPort

	logger.Info("Starting QQ music harvester",
		zap.String("db", cfg.DBPath),
		zap.String("storage", cfg.StorageDir),
		zap.Bool("downloadAudio", cfg.DownloadAudio),
		zap.String("logLevel", *logLevel),
		zap.String("metricsPort", cfg.MetricsPort))

	artistTasks, err := loadTasks(*singleArtist, *inputFile)
	if err != nil {
		logger.Fatal("Failed to load artist tasks", zap.Error(err))
	}

	st, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	client := qqmusic.NewClient(cfg, logger)
	harvester := harvest.New(cfg, st, client, prometheus.DefaultRegisterer, logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	go startMetricsServer(cfg.MetricsPort, logger)

	if err := harvester.Run(ctx, artistTasks); err != nil {
		logger.Warn("Harvest run interrupted", zap.Error(err))
		return
	}

	if *exportPath != "" {
		if err := export.ToExcel(context.Background(), st, *exportPath, logger); err != nil {
			logger.Error("Export failed", zap.Error(err))
		}
	}

	logger.Info("Harvester finished")
}

// loadTasks resolves the artist task list: a single -artist flag wins,
// otherwise the task file is read (found automatically when -input is empty).
func loadTasks(singleArtist, inputFile string) ([]tasks.ArtistTask, error) {
	if singleArtist != "" {
		return []tasks.ArtistTask{{SingerMid: singleArtist, Weight: 1.0}}, nil
	}

	if inputFile == "" {
		found, err := tasks.FindInputFile(".")
		if err != nil {
			return nil, err
		}
		inputFile = found
	}
	return tasks.Read(inputFile)
}

// startMetricsServer serves the Prometheus metrics endpoint.
func startMetricsServer(port string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	logger.Info("Starting metrics server", zap.String("port", port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Metrics server failed", zap.Error(err))
	}
}

func setupLogger(level string) (*zap.Logger, error) {
	var config zap.Config

	if level == "debug" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return config.Build()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
