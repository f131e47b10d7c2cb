package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// ReaderOption configures a ReadingsReader with filtering criteria.
type ReaderOption func(*ReadingsReader)

// WithStartTime excludes readings taken before the given time.
func WithStartTime(start time.Time) ReaderOption {
	return func(r *ReadingsReader) {
		r.startTime = &start
	}
}

// WithEndTime excludes readings taken after the given time.
func WithEndTime(end time.Time) ReaderOption {
	return func(r *ReadingsReader) {
		r.endTime = &end
	}
}

// WithTimeRange sets both time bounds.
func WithTimeRange(start, end time.Time) ReaderOption {
	return func(r *ReadingsReader) {
		r.startTime = &start
		r.endTime = &end
	}
}

// ReadingsReader iterates over the stored readings of one session in
// timestamp order. Each reader instance must be used from a single goroutine
// and closed after use.
type ReadingsReader struct {
	sessionID int64
	session   *SessionData

	startTime *time.Time
	endTime   *time.Time

	rows    *sql.Rows
	current *ReadingData
	err     error
}

// ReadReadings creates a reader over the readings of the given session.
func (s *Store) ReadReadings(ctx context.Context, sessionID int64, opts ...ReaderOption) (*ReadingsReader, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session %d: %w", sessionID, err)
	}

	r := &ReadingsReader{
		sessionID: sessionID,
		session:   session,
	}
	for _, opt := range opts {
		opt(r)
	}

	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	query, args := r.buildQuery()
	if r.rows, err = db.QueryContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("querying readings: %w", err)
	}

	return r, nil
}

func (r *ReadingsReader) buildQuery() (string, []any) {
	var sb strings.Builder
	sb.WriteString(`
SELECT
    id,
    session_id,
    timestamp,
    pressure_hpa,
    filtered_hpa,
    rate_hpa_s,
    altitude_ft,
    setting_inhg
FROM readings
WHERE
    session_id = ?`)

	args := []any{r.sessionID}
	if r.startTime != nil {
		sb.WriteString(" AND timestamp >= ?")
		args = append(args, r.startTime.UTC())
	}
	if r.endTime != nil {
		sb.WriteString(" AND timestamp <= ?")
		args = append(args, r.endTime.UTC())
	}
	sb.WriteString(" ORDER BY timestamp, id")

	return sb.String(), args
}

// Session returns metadata about the session this reader is accessing.
func (r *ReadingsReader) Session() *SessionData {
	return r.session
}

// Next advances the iterator, returning false at the end of data or on error.
func (r *ReadingsReader) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}

	var rd ReadingData
	if err := r.rows.Scan(
		&rd.ID,
		&rd.SessionID,
		&rd.Timestamp,
		&rd.PressureHPa,
		&rd.FilteredHPa,
		&rd.RateHPaSec,
		&rd.AltitudeFt,
		&rd.SettingInHg,
	); err != nil {
		r.err = fmt.Errorf("scanning reading: %w", err)
		return false
	}

	r.current = &rd
	return true
}

// Current returns the reading at the iterator's position. Behavior is
// undefined after Next returns false.
func (r *ReadingsReader) Current() *ReadingData {
	return r.current
}

// Error returns any error that occurred during iteration.
func (r *ReadingsReader) Error() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

// Close releases the database resources.
func (r *ReadingsReader) Close() error {
	return r.rows.Close()
}
