package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mszinte/locEMexp/internal/domain/model"
	"github.com/mszinte/locEMexp/pkg/metrics"
	_ "modernc.org/sqlite"
)

// schema.sql creates the results table and the per-window saccades table.
//
//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists results in an SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases alive and serializes
	// writers, which SQLite requires anyway.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		schemaSQL,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init %s: %w", path, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Save implements Store.Save in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, r model.Result) (err error) {
	if r.WindowID == "" {
		return ErrEmptyID
	}
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(sinceMs(start))
		if err != nil {
			metrics.RecordErrorByComponent("repository", "save")
		}
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO results
			(window_id, subject, run, sequence, trial, status, error, samples, spread_x, spread_y, analyzed_at, latency_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.WindowID, r.Subject, r.Run, r.Sequence, r.Trial, string(r.Status), r.Error, r.Samples,
		r.SpreadX, r.SpreadY, r.AnalyzedAt.UnixNano(), int64(r.Latency),
	); err != nil {
		return fmt.Errorf("insert result %s: %w", r.WindowID, err)
	}
	// INSERT OR REPLACE deletes the old row, which cascades to its
	// saccades; clear explicitly in case foreign keys are off.
	if _, err = tx.ExecContext(ctx, `DELETE FROM saccades WHERE window_id = ?`, r.WindowID); err != nil {
		return fmt.Errorf("clear saccades %s: %w", r.WindowID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO saccades
			(window_id, idx, onset_sample, offset_sample, onset_ms, offset_ms, duration_ms, onset_prop, offset_prop,
			 onset_x, onset_y, offset_x, offset_y, peak_velocity, dx, dy, distance, distance_angle,
			 amplitude_x, amplitude_y, amplitude, amplitude_angle, microsaccade, blink_adjacent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare saccades: %w", err)
	}
	defer stmt.Close()

	for _, sc := range r.Saccades {
		if _, err = stmt.ExecContext(ctx,
			r.WindowID, sc.Index, sc.OnsetSample, sc.OffsetSample, sc.OnsetTime, sc.OffsetTime, sc.DurationMS,
			sc.OnsetProportion, sc.OffsetProportion, sc.OnsetX, sc.OnsetY, sc.OffsetX, sc.OffsetY,
			sc.PeakVelocity, sc.DX, sc.DY, sc.Distance, sc.DistanceAngle,
			sc.AmplitudeX, sc.AmplitudeY, sc.Amplitude, sc.AmplitudeAngle, sc.Microsaccade, sc.BlinkAdjacent,
		); err != nil {
			return fmt.Errorf("insert saccade %s/%d: %w", r.WindowID, sc.Index, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", r.WindowID, err)
	}
	return nil
}

const resultColumns = `window_id, subject, run, sequence, trial, status, error, samples, spread_x, spread_y, analyzed_at, latency_ns`

// Get implements Store.Get.
func (s *SQLiteStore) Get(ctx context.Context, windowID string) (model.Result, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(sinceMs(start)) }()

	row := s.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM results WHERE window_id = ?`, windowID)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Result{}, fmt.Errorf("window %q: %w", windowID, ErrNotFound)
	}
	if err != nil {
		return model.Result{}, fmt.Errorf("get %s: %w", windowID, err)
	}
	if r.Saccades, err = s.saccades(ctx, windowID); err != nil {
		return model.Result{}, err
	}
	return r, nil
}

// List implements Store.List.
func (s *SQLiteStore) List(ctx context.Context, q Query) ([]model.Result, error) {
	if err := validQuery(q); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(sinceMs(start)) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+resultColumns+` FROM results
		WHERE ? = '' OR subject = ?
		ORDER BY analyzed_at DESC, window_id ASC
		LIMIT ?`, q.Subject, q.Subject, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]model.Result, 0, q.Limit)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list results: %w", err)
	}
	rows.Close()

	// The single connection must be free before the saccade lookups.
	for i := range out {
		if out[i].Saccades, err = s.saccades(ctx, out[i].WindowID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Count implements Store.Count. Errors count as an empty store.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&n); err != nil {
		metrics.RecordErrorByComponent("repository", "count")
		return 0
	}
	metrics.UpdateRepositoryRecordsTotal(n)
	return n
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (model.Result, error) {
	var (
		r          model.Result
		status     string
		analyzedAt int64
		latency    int64
	)
	if err := row.Scan(&r.WindowID, &r.Subject, &r.Run, &r.Sequence, &r.Trial, &status, &r.Error, &r.Samples,
		&r.SpreadX, &r.SpreadY, &analyzedAt, &latency); err != nil {
		return model.Result{}, err
	}
	r.Status = model.Status(status)
	r.AnalyzedAt = time.Unix(0, analyzedAt)
	r.Latency = time.Duration(latency)
	r.Saccades = []model.Saccade{}
	return r, nil
}

func (s *SQLiteStore) saccades(ctx context.Context, windowID string) ([]model.Saccade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, onset_sample, offset_sample, onset_ms, offset_ms, duration_ms, onset_prop, offset_prop,
		       onset_x, onset_y, offset_x, offset_y, peak_velocity, dx, dy, distance, distance_angle,
		       amplitude_x, amplitude_y, amplitude, amplitude_angle, microsaccade, blink_adjacent
		FROM saccades WHERE window_id = ? ORDER BY idx`, windowID)
	if err != nil {
		return nil, fmt.Errorf("saccades %s: %w", windowID, err)
	}
	defer rows.Close()

	out := []model.Saccade{}
	for rows.Next() {
		var sc model.Saccade
		if err := rows.Scan(&sc.Index, &sc.OnsetSample, &sc.OffsetSample, &sc.OnsetTime, &sc.OffsetTime, &sc.DurationMS,
			&sc.OnsetProportion, &sc.OffsetProportion, &sc.OnsetX, &sc.OnsetY, &sc.OffsetX, &sc.OffsetY,
			&sc.PeakVelocity, &sc.DX, &sc.DY, &sc.Distance, &sc.DistanceAngle,
			&sc.AmplitudeX, &sc.AmplitudeY, &sc.Amplitude, &sc.AmplitudeAngle, &sc.Microsaccade, &sc.BlinkAdjacent); err != nil {
			return nil, fmt.Errorf("scan saccade %s: %w", windowID, err)
		}
		sc.DistanceAngleDeg = sc.DistanceAngle * 180 / math.Pi
		sc.AmplitudeAngleDeg = sc.AmplitudeAngle * 180 / math.Pi
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("saccades %s: %w", windowID, err)
	}
	return out, nil
}
