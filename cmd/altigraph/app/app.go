// Package app reads a recorded altimeter session and renders it as a strip
// chart image: raw and filtered pressure in the top panel, indicated
// altitude in the bottom one.
package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/chamberdyne/pressure-altimeter/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store, err := storage.New(config.DBPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer store.Close()

	return renderTrace(ctx, store, config, logger)
}

func renderTrace(ctx context.Context, store *storage.Store, config *Config, logger *slog.Logger) error {
	var opts []storage.ReaderOption
	switch {
	case config.MinTimestamp != nil && config.MaxTimestamp != nil:
		opts = append(opts, storage.WithTimeRange(config.MinTimestamp.UTC(), config.MaxTimestamp.UTC()))
	case config.MinTimestamp != nil:
		opts = append(opts, storage.WithStartTime(config.MinTimestamp.UTC()))
	case config.MaxTimestamp != nil:
		opts = append(opts, storage.WithEndTime(config.MaxTimestamp.UTC()))
	}

	reader, err := store.ReadReadings(ctx, config.SessionID, opts...)
	if err != nil {
		return err
	}
	defer reader.Close()

	data := NewTraceData()
	for reader.Next() {
		data.Update(reader.Current())
	}
	if err = reader.Error(); err != nil {
		return err
	}

	session := reader.Session()
	logger.Info("finished reading session",
		slog.Group("stats",
			slog.String("device", session.DeviceID),
			slog.Int("readings", data.Len()),
			slog.String("from", data.TimeStart().Local().Format(time.DateTime)),
			slog.String("to", data.TimeEnd().Local().Format(time.DateTime)),
		))

	renderer, err := NewTraceRenderer(config.Width, config.Height)
	if err != nil {
		return fmt.Errorf("creating trace renderer: %w", err)
	}

	logger.Info("rendering trace",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("width", config.Width),
			slog.Int("height", config.Height),
		))

	img, err := renderer.Render(data, session.DeviceID)
	if err != nil {
		return fmt.Errorf("rendering trace: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
