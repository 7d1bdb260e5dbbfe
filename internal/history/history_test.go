// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package history

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/relabs-tech/pressure_node/internal/env"
)

func openMem(t *testing.T, retention time.Duration) *Store {
	t.Helper()
	s, err := Open(":memory:", retention)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleAt(id string, ts time.Time, pa float64) env.Sample {
	return env.Sample{Source: id, Model: "AMS5935-0200-D", Pressure: pa, Temperature: 21, Samples: 1, Time: ts}
}

func TestInsertSince(t *testing.T) {
	s := openMem(t, 0)
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := s.Insert(sampleAt("duct", base.Add(time.Duration(i)*time.Minute), float64(100*i))); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Insert(sampleAt("room", base, 1)); err != nil {
		t.Fatal(err)
	}

	got, err := s.Since("duct", base.Add(2*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0].Pressure != 200 || got[2].PressureMbar != 4 {
		t.Fatalf("Since = %+v", got)
	}
	if !got[0].Time.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("time %v", got[0].Time)
	}

	ids, err := s.Sources()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "duct" || ids[1] != "room" {
		t.Fatalf("Sources = %v", ids)
	}
}

func TestPrune(t *testing.T) {
	s := openMem(t, time.Hour)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	_ = s.Insert(sampleAt("duct", now.Add(-2*time.Hour), 1))
	_ = s.Insert(sampleAt("duct", now.Add(-30*time.Minute), 2))

	n, err := s.Prune(now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	got, _ := s.Since("duct", time.Time{})
	if len(got) != 1 || got[0].Pressure != 2 {
		t.Fatalf("remaining %+v", got)
	}
}

func TestWritePNG(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	var samples []env.Sample
	for i := 0; i < 10; i++ {
		samples = append(samples, sampleAt("duct", base.Add(time.Duration(i)*time.Second), float64(i*i)))
	}
	var buf bytes.Buffer
	if err := WritePNG(&buf, "duct", samples); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatal("output is not a PNG")
	}

	if err := WritePNG(&buf, "empty", nil); !errors.Is(err, ErrNoSamples) {
		t.Fatalf("empty err = %v", err)
	}
}
