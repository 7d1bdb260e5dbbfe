// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package influxout

import (
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/relabs-tech/pressure_node/internal/env"
)

type fakeWriter struct {
	points []*write.Point
}

func (f *fakeWriter) WritePoint(p *write.Point) { f.points = append(f.points, p) }

func TestWrite(t *testing.T) {
	w := &fakeWriter{}
	sink := New(w)
	ts := time.Unix(1700000000, 0)
	sink.Write(env.Sample{
		Source:      "duct",
		Model:       "AMS5935-0200-D",
		Pressure:    10000,
		Temperature: 21.5,
		RawPressure: 8388608,
		Time:        ts,
	})
	if len(w.points) != 1 {
		t.Fatalf("points = %d", len(w.points))
	}
	line := write.PointToLineProtocol(w.points[0], time.Second)
	for _, part := range []string{
		"ams5935,",
		"model=AMS5935-0200-D",
		"sensor=duct",
		"pressure_pa=10000",
		"temp_c=21.5",
		"raw_pressure=8388608i",
		"out_of_range=false",
		" 1700000000",
	} {
		if !strings.Contains(line, part) {
			t.Fatalf("%q missing from %q", part, line)
		}
	}
}
