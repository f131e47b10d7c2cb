package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chamberdyne/pressure-altimeter/internal/altimeter"
	"github.com/chamberdyne/pressure-altimeter/internal/sensor"
	"github.com/chamberdyne/pressure-altimeter/internal/sensor/nmea"
	"github.com/chamberdyne/pressure-altimeter/internal/sensor/sim"
	"github.com/chamberdyne/pressure-altimeter/internal/storage"
)

const maxBatchSize = 100

// WithMaxBatchSize sets the maximum batch size of collected readings to store
// within a single database transaction.
func WithMaxBatchSize(size int) func(*Orchestrator) {
	return func(o *Orchestrator) {
		o.maxBatchSize = size
	}
}

// Orchestrator manages sample collection across the configured pressure
// devices, runs one altimeter session per device, and stores the processed
// readings. A single consumer goroutine owns all altimeter state, which
// serializes every filter mutation.
type Orchestrator struct {
	devices    []*sensor.Device
	configs    map[string]any
	sessions   map[string]int64
	altimeters map[string]*altimeter.Altimeter

	logger *slog.Logger
	store  *storage.Store
	altCfg altimeter.Config

	maxBatchSize int

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(store *storage.Store, altCfg altimeter.Config, logger *slog.Logger, options ...func(*Orchestrator)) *Orchestrator {
	o := Orchestrator{
		configs:      make(map[string]any),
		sessions:     make(map[string]int64),
		altimeters:   make(map[string]*altimeter.Altimeter),
		logger:       logger,
		store:        store,
		altCfg:       altCfg,
		maxBatchSize: maxBatchSize,
	}

	for _, option := range options {
		option(&o)
	}

	return &o
}

// CreateDevice creates a new device and registers it with the Orchestrator
func (o *Orchestrator) CreateDevice(config *DeviceConfig) error {
	if !config.Enabled {
		return nil
	}

	var handler sensor.Handler
	var deviceConfig any
	var err error
	switch config.Type {
	case DeviceNMEA:
		if handler, err = nmea.New(config.NMEA); err != nil {
			return fmt.Errorf("creating NMEA device: %w", err)
		}
		deviceConfig = config.NMEA

	case DeviceSim:
		if handler, err = sim.New(config.Sim); err != nil {
			return fmt.Errorf("creating simulated device: %w", err)
		}
		deviceConfig = config.Sim

	default:
		return fmt.Errorf("creating device: unknown type '%s'", config.Type)
	}

	if _, ok := o.configs[config.Name]; ok {
		return fmt.Errorf("device %s already exists", config.Name)
	}

	o.devices = append(o.devices, sensor.NewDevice(config.Name, handler, sensor.WithLogger(o.logger)))
	o.configs[config.Name] = deviceConfig

	return nil
}

// Run begins synchronized data collection across all devices and blocks
// until the context is cancelled or every device stops.
func (o *Orchestrator) Run(ctx context.Context) error {
	if len(o.devices) == 0 {
		return fmt.Errorf("no devices to sample")
	}

	for _, device := range o.devices {
		sessionID, err := o.store.CreateSession(device.Device(), device.DeviceID(), o.configs[device.DeviceID()])
		if err != nil {
			return fmt.Errorf("creating session for device %s: %w", device.DeviceID(), err)
		}
		o.sessions[device.DeviceID()] = sessionID

		a, err := altimeter.New(o.altCfg)
		if err != nil {
			return fmt.Errorf("creating altimeter for device %s: %w", device.DeviceID(), err)
		}
		o.altimeters[device.DeviceID()] = a
	}

	ctx, o.cancel = context.WithCancel(ctx)
	startGate := make(chan struct{})
	samples := make(chan sensor.Sample, len(o.devices)*8)
	consumerDone := make(chan struct{})

	go o.handleSamples(samples, consumerDone)

	for _, device := range o.devices {
		o.wg.Add(1)
		go o.beginSampling(ctx, device, samples, startGate)
	}

	close(startGate) // Start the sampling goroutines

	o.wg.Wait()
	o.cancel()

	close(samples) // Signal the consumer that no more samples are coming
	<-consumerDone

	if err := o.store.SaveSetting(o.altCfg.Setting.InHg()); err != nil {
		o.logger.Error(fmt.Sprintf("failed to persist reference setting: %s", err.Error()))
	}

	clear(o.sessions)
	clear(o.altimeters)
	return nil
}

func (o *Orchestrator) beginSampling(ctx context.Context, dev *sensor.Device, samples chan<- sensor.Sample, startGate chan struct{}) {
	defer o.wg.Done()

	<-startGate

	done, err := dev.BeginSampling(ctx, samples)
	if err != nil {
		o.logger.Error(err.Error())
		o.cancel() // signal to other goroutines about fatal
		return
	}

	if err = <-done; err != nil {
		o.cancel() // device died, wind down the run
	}
}

// handleSamples is the single consumer of the sample stream; it owns the
// altimeters and the insert batches.
func (o *Orchestrator) handleSamples(samples <-chan sensor.Sample, consumerDone chan<- struct{}) {
	defer close(consumerDone)

	batches := make(map[string][]storage.ReadingData, len(o.altimeters))
	for s := range samples {
		a, ok := o.altimeters[s.DeviceID]
		if !ok {
			o.logger.Warn("sample from unknown device", slog.String("deviceID", s.DeviceID))
			continue
		}

		reading, err := a.Observe(s)
		if err != nil {
			o.logger.Error(fmt.Sprintf("processing sample: %s", err.Error()), slog.String("deviceID", s.DeviceID))
			continue
		}

		o.logger.Debug("reading",
			slog.String("deviceID", s.DeviceID),
			slog.Float64("rawHPa", reading.RawHPa),
			slog.Float64("filteredHPa", reading.FilteredHPa),
			slog.Float64("rateHPaSec", reading.RateHPaPerSec),
			slog.Float64("altitudeFt", reading.AltitudeFt),
		)

		batches[s.DeviceID] = append(batches[s.DeviceID], toReadingData(o.sessions[s.DeviceID], reading))
		if len(batches[s.DeviceID]) >= o.maxBatchSize {
			o.flush(s.DeviceID, batches)
		}
	}

	for deviceID := range batches {
		o.flush(deviceID, batches)
	}
}

func (o *Orchestrator) flush(deviceID string, batches map[string][]storage.ReadingData) {
	batch := batches[deviceID]
	if len(batch) == 0 {
		return
	}

	if err := o.store.BatchInsertReadings(batch); err != nil {
		o.logger.Error(fmt.Sprintf("storing readings: %s", err.Error()), slog.String("deviceID", deviceID))
	}
	batches[deviceID] = batch[:0]
}

func toReadingData(sessionID int64, r altimeter.Reading) storage.ReadingData {
	return storage.ReadingData{
		SessionID:   sessionID,
		Timestamp:   r.Timestamp.UTC(),
		PressureHPa: r.RawHPa,
		FilteredHPa: r.FilteredHPa,
		RateHPaSec:  r.RateHPaPerSec,
		AltitudeFt:  r.AltitudeFt,
		SettingInHg: r.SettingInHg,
	}
}
