// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package history keeps recent samples in a SQLite datalog.
package history

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/relabs-tech/pressure_node/internal/env"
	"github.com/relabs-tech/pressure_node/internal/poller"
)

const schema = `
CREATE TABLE IF NOT EXISTS samples (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	source          TEXT    NOT NULL,
	model           TEXT    NOT NULL,
	ts_ms           INTEGER NOT NULL,
	pressure_pa     REAL    NOT NULL,
	temp_c          REAL    NOT NULL,
	out_of_range    INTEGER NOT NULL,
	raw_pressure    INTEGER NOT NULL,
	raw_temperature INTEGER NOT NULL,
	samples         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS samples_source_ts ON samples (source, ts_ms);
`

// Store is a sample datalog.
type Store struct {
	db        *sql.DB
	retention time.Duration
}

// Open opens or creates the datalog at path. ":memory:" gives a private
// in-memory store. A retention of 0 keeps everything.
func Open(path string, retention time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	// One connection so ":memory:" is a single database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create schema: %w", err)
	}
	return &Store{db: db, retention: retention}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Insert appends one sample.
func (s *Store) Insert(smp env.Sample) error {
	_, err := s.db.Exec(
		`INSERT INTO samples (source, model, ts_ms, pressure_pa, temp_c, out_of_range, raw_pressure, raw_temperature, samples)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		smp.Source, smp.Model, smp.Time.UnixMilli(), smp.Pressure, smp.Temperature,
		smp.OutOfRange, smp.RawPressure, smp.RawTemperature, smp.Samples,
	)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Since returns the samples of source at or after t, oldest first.
func (s *Store) Since(source string, t time.Time) ([]env.Sample, error) {
	rows, err := s.db.Query(
		`SELECT source, model, ts_ms, pressure_pa, temp_c, out_of_range, raw_pressure, raw_temperature, samples
		 FROM samples WHERE source = ? AND ts_ms >= ? ORDER BY ts_ms, id`,
		source, t.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []env.Sample
	for rows.Next() {
		var smp env.Sample
		var ts int64
		if err := rows.Scan(&smp.Source, &smp.Model, &ts, &smp.Pressure, &smp.Temperature,
			&smp.OutOfRange, &smp.RawPressure, &smp.RawTemperature, &smp.Samples); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		smp.Time = time.UnixMilli(ts)
		smp.PressureMbar = smp.Pressure / 100.0
		out = append(out, smp)
	}
	return out, rows.Err()
}

// Sources lists the sensor ids with stored samples.
func (s *Store) Sources() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT source FROM samples ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Prune deletes samples older than the retention, measured from now.
func (s *Store) Prune(now time.Time) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	res, err := s.db.Exec(`DELETE FROM samples WHERE ts_ms < ?`, now.Add(-s.retention).UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	return res.RowsAffected()
}

// Attach logs every good sample of c.
func (s *Store) Attach(c *poller.Component) {
	c.OnSample(func(smp env.Sample) {
		if err := s.Insert(smp); err != nil {
			log.Printf("history: %v", err)
		}
	})
}
