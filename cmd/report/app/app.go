// Package app summarises a recorded altimeter session: filter residual and
// altitude statistics on stdout, plus an optional interactive HTML chart.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chamberdyne/pressure-altimeter/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	info, err := os.Stat(config.DBPath)
	if err != nil {
		return fmt.Errorf("database file '%s': %w", config.DBPath, err)
	}

	store, err := storage.New(config.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	reader, err := store.ReadReadings(ctx, config.SessionID)
	if err != nil {
		return err
	}
	defer reader.Close()

	data := NewReportData()
	for reader.Next() {
		data.Update(reader.Current())
	}
	if err = reader.Error(); err != nil {
		return err
	}

	session := reader.Session()
	summary := data.Summarize()

	logger.Debug("session loaded",
		slog.Int64("session", session.ID),
		slog.Int("readings", summary.Readings))

	summary.WriteText(os.Stdout, session, uint64(info.Size()))

	if config.OutputFile == "" {
		return nil
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	if err = RenderHTML(out, session, data, summary); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	logger.Info("report written", slog.String("destination", config.OutputFile))
	return nil
}
