package main

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"qqharvest.com/m/internal/service"
	"qqharvest.com/m/internal/store"
)

func main() {
	var logger *zap.Logger
	var err error

	if os.Getenv("DEBUG") == "true" {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		err = godotenv.Load("../../.env")
		if err != nil {
			logger.Warn("Warning: .env file not found. Using system environment variables.")
		}
	} else {
		logger, err = zap.NewProduction()
		if err != nil {
			panic(err)
		}
	}
	defer logger.Sync()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "qq_music_library.db"
	}

	st, err := store.Open(dbPath, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	router := service.NewRouter(st, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
		logger.Info("Defaulting to port", zap.String("port", port))
	}

	logger.Info("Harvest API server starting", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("Failed to run API server", zap.Error(err))
	}
}
