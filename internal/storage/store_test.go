package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestCreateAndLoadSession(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateSession("nmea", "vario-1", map[string]any{"port": "/dev/ttyUSB0"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if id == 0 {
		t.Fatal("CreateSession returned zero ID")
	}

	sess, err := s.Session(id)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if sess.DeviceType != "nmea" || sess.DeviceID != "vario-1" {
		t.Errorf("session = %+v", sess)
	}
	if !sess.Config.Valid || sess.Config.String == "" {
		t.Error("session config not stored")
	}

	all, err := s.Sessions()
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(all) != 1 || all[0].ID != id {
		t.Errorf("Sessions = %+v", all)
	}
}

func TestBatchInsertAndRead(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateSession("sim", "sim-1", nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var batch []ReadingData
	for i := 0; i < 10; i++ {
		batch = append(batch, ReadingData{
			SessionID:   id,
			Timestamp:   base.Add(time.Duration(i) * time.Second),
			PressureHPa: 1013.25 + float64(i)*0.01,
			FilteredHPa: 1013.25,
			RateHPaSec:  0.01,
			AltitudeFt:  float64(i),
			SettingInHg: 29.92,
		})
	}
	if err = s.BatchInsertReadings(batch); err != nil {
		t.Fatalf("BatchInsertReadings: %v", err)
	}

	r, err := s.ReadReadings(context.Background(), id)
	if err != nil {
		t.Fatalf("ReadReadings: %v", err)
	}
	defer r.Close()

	var count int
	var prev time.Time
	for r.Next() {
		cur := r.Current()
		if cur.Timestamp.Before(prev) {
			t.Errorf("readings out of order at %v", cur.Timestamp)
		}
		prev = cur.Timestamp
		count++
	}
	if err = r.Error(); err != nil {
		t.Fatalf("iteration: %v", err)
	}
	if count != 10 {
		t.Errorf("read %d readings, want 10", count)
	}
	if r.Session().DeviceID != "sim-1" {
		t.Errorf("reader session = %+v", r.Session())
	}
}

func TestReadReadingsTimeRange(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreateSession("sim", "sim-1", nil)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var batch []ReadingData
	for i := 0; i < 10; i++ {
		batch = append(batch, ReadingData{
			SessionID:   id,
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			PressureHPa: 1000,
			FilteredHPa: 1000,
			SettingInHg: 29.92,
		})
	}
	if err = s.BatchInsertReadings(batch); err != nil {
		t.Fatalf("BatchInsertReadings: %v", err)
	}

	r, err := s.ReadReadings(context.Background(), id,
		WithTimeRange(base.Add(2*time.Minute), base.Add(5*time.Minute)))
	if err != nil {
		t.Fatalf("ReadReadings: %v", err)
	}
	defer r.Close()

	var count int
	for r.Next() {
		count++
	}
	if err = r.Error(); err != nil {
		t.Fatalf("iteration: %v", err)
	}
	if count != 4 {
		t.Errorf("read %d readings in range, want 4", count)
	}
}

func TestSettingRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.LoadSetting(); !errors.Is(err, ErrNoSetting) {
		t.Errorf("LoadSetting on empty store: err = %v, want ErrNoSetting", err)
	}

	if err := s.SaveSetting(30.12); err != nil {
		t.Fatalf("SaveSetting: %v", err)
	}
	if err := s.SaveSetting(29.85); err != nil {
		t.Fatalf("SaveSetting (overwrite): %v", err)
	}

	got, err := s.LoadSetting()
	if err != nil {
		t.Fatalf("LoadSetting: %v", err)
	}
	if got != 29.85 {
		t.Errorf("LoadSetting = %v, want 29.85", got)
	}
}

func TestReadReadingsUnknownSession(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateSession("sim", "sim-1", nil); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := s.ReadReadings(context.Background(), 999); err == nil {
		t.Error("ReadReadings for unknown session succeeded, want error")
	}
}
