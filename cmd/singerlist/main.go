package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"qqharvest.com/m/internal/config"
	"qqharvest.com/m/internal/qqmusic"
)

func main() {
	var (
		output   = flag.String("output", "qq_music_singers.csv", "Destination CSV file")
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *logLevel == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	client := qqmusic.NewClient(config.Default(), logger)

	logger.Info("Fetching singer directory")
	singers, err := client.AllSingers(ctx)
	if err != nil {
		logger.Fatal("Failed to fetch singer directory", zap.Error(err))
	}

	if err := writeCSV(*output, singers); err != nil {
		logger.Fatal("Failed to write CSV", zap.Error(err))
	}

	logger.Info("Wrote singer directory",
		zap.String("path", *output),
		zap.Int("singers", len(singers)))
}

func writeCSV(path string, singers []qqmusic.SingerEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	// UTF-8 BOM so Excel renders Chinese names correctly.
	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(f)
	defer writer.Flush()

	if err := writer.Write([]string{"singer_mid", "singer_name"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, singer := range singers {
		if err := writer.Write([]string{singer.Mid, singer.Name}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return writer.Error()
}
