// Package app wires the configured pressure devices, the altimeter sessions
// and the sqlite store into a recording run.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chamberdyne/pressure-altimeter/internal/altimeter"
	"github.com/chamberdyne/pressure-altimeter/internal/atmosphere"
	"github.com/chamberdyne/pressure-altimeter/internal/storage"
)

const storageDir = "data"

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	var options []func(*Orchestrator)
	if config.Storage.MaxBatchSize > 0 {
		options = append(options, WithMaxBatchSize(config.Storage.MaxBatchSize))
	}

	orchestrator := NewOrchestrator(store, altimeterConfig(store, config, logger), logger, options...)
	for i := range config.Devices {
		if err = orchestrator.CreateDevice(&config.Devices[i]); err != nil {
			return fmt.Errorf("failed to create device: %w", err)
		}
	}

	return orchestrator.Run(ctx)
}

// altimeterConfig builds the estimator configuration, preferring a reference
// setting persisted by a previous run over the configured one.
func altimeterConfig(store *storage.Store, config *Config, logger *slog.Logger) altimeter.Config {
	cfg := altimeter.Config{
		ProcessVariance:     config.Altimeter.ProcessVariance,
		MeasurementVariance: config.Altimeter.MeasurementVariance,
		Setting:             atmosphere.NewSetting(config.Altimeter.SettingInHg),
	}

	saved, err := store.LoadSetting()
	switch {
	case err == nil:
		cfg.Setting = atmosphere.NewSetting(saved)
		logger.Info("restored reference setting", slog.Float64("inHg", cfg.Setting.InHg()))

	case errors.Is(err, storage.ErrNoSetting):
		logger.Info("using configured reference setting", slog.Float64("inHg", cfg.Setting.InHg()))

	default:
		logger.Warn(fmt.Sprintf("failed to load saved setting: %s", err.Error()))
	}

	return cfg
}

func createStorage(config *StorageConfig) (*storage.Store, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	var dbPath string
	if config.DataDirectory != "" {
		dbPath = filepath.Join(wd, config.DataDirectory)
	} else {
		dbPath = filepath.Join(wd, storageDir)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("checking storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("baro_session_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	store, err := storage.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	return store, nil
}
