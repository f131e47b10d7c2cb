// Package storage records altimeter sessions and their processed readings in
// a sqlite database, and persists the reference pressure setting between
// runs.
package storage

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SettingKey is the settings-table key under which the reference pressure
// setting (inHg) is persisted.
const SettingKey = "reference_inhg"

// ErrNoSetting is returned by LoadSetting when no setting has been saved yet.
var ErrNoSetting = errors.New("no saved setting")

// Store handles database operations. Connections open lazily: a WAL writer
// for the recording path and a read-only connection for the reporting path.
type Store struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates a Store for the database at dbPath. The schema is initialized
// on first write.
func New(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("empty database path")
	}
	return &Store{dbPath: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(schemaSQL)
	return err
}

func (s *Store) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL", s.dbPath))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = initSchema(db); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", s.dbPath))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

const insertSessionSQL = `
INSERT INTO sessions (start_time, device_type, device_id, config)
VALUES (?, ?, ?, ?)`

// CreateSession creates a new session and returns its ID. config may be a
// string, []byte, or any JSON-serializable value.
func (s *Store) CreateSession(deviceType, deviceID string, config any) (sessionID int64, err error) {
	var configData sql.NullString

	switch c := config.(type) {
	case nil:
	case string:
		configData = sql.NullString{String: c, Valid: true}
	case []byte:
		configData = sql.NullString{String: string(c), Valid: true}
	default:
		var p []byte
		if p, err = json.Marshal(config); err != nil {
			return 0, fmt.Errorf("marshaling config: %w", err)
		}
		configData = sql.NullString{String: string(p), Valid: true}
	}

	db, err := s.getWriteDB()
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.Prepare(insertSessionSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.Exec(time.Now().UTC(), deviceType, deviceID, configData)
	if err != nil {
		return 0, fmt.Errorf("inserting session: %w", err)
	}

	return result.LastInsertId()
}

const selectSessionSQL = `
SELECT
    id,
    start_time,
    device_type,
    device_id,
    config
FROM sessions
WHERE
    id = ?`

// Session returns a session by its ID.
func (s *Store) Session(id int64) (session *SessionData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	stmt, err := db.Prepare(selectSessionSQL)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var sess SessionData
	if err = stmt.QueryRow(id).Scan(&sess.ID, &sess.StartTime, &sess.DeviceType, &sess.DeviceID, &sess.Config); err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &sess, nil
}

const selectSessionsSQL = `
SELECT
    id,
    start_time,
    device_type,
    device_id,
    config
FROM sessions
ORDER BY start_time`

// Sessions returns all sessions ordered by start time.
func (s *Store) Sessions() (sessions []SessionData, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.Query(selectSessionsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess SessionData
		if err = rows.Scan(&sess.ID, &sess.StartTime, &sess.DeviceType, &sess.DeviceID, &sess.Config); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

const insertReadingSQL = `
INSERT INTO readings (session_id,
                      timestamp,
                      pressure_hpa,
                      filtered_hpa,
                      rate_hpa_s,
                      altitude_ft,
                      setting_inhg)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// BatchInsertReadings inserts multiple readings in a single transaction.
func (s *Store) BatchInsertReadings(readings []ReadingData) (err error) {
	if len(readings) == 0 {
		return nil
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	stmt, err := tx.Prepare(insertReadingSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for _, r := range readings {
		_, err = stmt.Exec(
			r.SessionID,
			r.Timestamp.UTC(),
			r.PressureHPa,
			r.FilteredHPa,
			r.RateHPaSec,
			r.AltitudeFt,
			r.SettingInHg,
		)
		if err != nil {
			return fmt.Errorf("inserting reading: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

const upsertSettingSQL = `
INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`

// SaveSetting persists the reference pressure setting, in inHg.
func (s *Store) SaveSetting(inHg float64) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	if _, err = db.Exec(upsertSettingSQL, SettingKey, fmt.Sprintf("%.2f", inHg)); err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}
	return nil
}

const selectSettingSQL = `SELECT value FROM settings WHERE key = ?`

// LoadSetting returns the persisted reference pressure setting in inHg, or
// ErrNoSetting when none has been saved.
func (s *Store) LoadSetting() (inHg float64, err error) {
	db, err := s.getWriteDB() // settings live in the writable database
	if err != nil {
		return 0, fmt.Errorf("getting write connection: %w", err)
	}

	var value string
	if err = db.QueryRow(selectSettingSQL, SettingKey).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNoSetting
		}
		return 0, fmt.Errorf("loading setting: %w", err)
	}

	if _, err = fmt.Sscanf(value, "%f", &inHg); err != nil {
		return 0, fmt.Errorf("parsing saved setting %q: %w", value, err)
	}
	return inHg, nil
}

// Close closes the database connections. It is safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
