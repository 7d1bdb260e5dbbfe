// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ams5935

import (
	"math"
	"testing"

	"periph.io/x/conn/v3/physic"
)

func TestPressureBoundsExact(t *testing.T) {
	for _, m := range Models() {
		lo, hi := m.PressureRange()
		if pa, clamped := PressurePa(OutputMin, m); pa != lo || clamped {
			t.Fatalf("%s: PressurePa(OutputMin) = %v, %v; want %v, false", m, pa, clamped, lo)
		}
		if pa, clamped := PressurePa(OutputMax, m); pa != hi || clamped {
			t.Fatalf("%s: PressurePa(OutputMax) = %v, %v; want %v, false", m, pa, clamped, hi)
		}
	}
}

func TestPressureClamped(t *testing.T) {
	lo, hi := Model0200D.PressureRange()
	for _, c := range []uint32{0, 1, OutputMin - 1} {
		pa, clamped := PressurePa(c, Model0200D)
		if pa != lo || !clamped {
			t.Fatalf("PressurePa(%d) = %v, %v; want %v, true", c, pa, clamped, lo)
		}
	}
	for _, c := range []uint32{OutputMax + 1, 1<<24 - 1} {
		pa, clamped := PressurePa(c, Model0200D)
		if pa != hi || !clamped {
			t.Fatalf("PressurePa(%d) = %v, %v; want %v, true", c, pa, clamped, hi)
		}
	}
}

func TestPressureMonotonic(t *testing.T) {
	for _, m := range []Model{Model0002D, Model0100DB, Model2000A, Model1200B} {
		prev := math.Inf(-1)
		for c := uint32(OutputMin); c <= OutputMax; c += 65536 {
			pa, _ := PressurePa(c, m)
			if pa < prev {
				t.Fatalf("%s: pressure decreased at %d counts: %v < %v", m, c, pa, prev)
			}
			prev = pa
		}
	}
}

func TestPressureMidpoint(t *testing.T) {
	// 8388608 is the midpoint of the output span.
	pa, clamped := PressurePa(8388608, Model0200D)
	if clamped {
		t.Fatal("midpoint reported as clamped")
	}
	if math.Abs(pa-10000) > 1e-6 {
		t.Fatalf("midpoint = %v Pa, want 10000", pa)
	}

	pa, _ = PressurePa(8388608, Model0010DB)
	if math.Abs(pa) > 1e-6 {
		t.Fatalf("bidirectional midpoint = %v Pa, want 0", pa)
	}
}

func TestTemperature(t *testing.T) {
	tests := []struct {
		counts uint32
		want   float64
	}{
		{0, -40},
		{1 << 23, 42.5},
		{1 << 24, 125},
	}
	for _, tt := range tests {
		if got := TemperatureC(tt.counts); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("TemperatureC(%d) = %v, want %v", tt.counts, got, tt.want)
		}
	}
}

func TestInverse(t *testing.T) {
	for _, pa := range []float64{0, 1234.5, 10000, 20000} {
		c := PressureCounts(pa, Model0200D)
		got, _ := PressurePa(c, Model0200D)
		if math.Abs(got-pa) > 0.01 {
			t.Fatalf("round trip %v Pa -> %d -> %v Pa", pa, c, got)
		}
	}
	if c := PressureCounts(-5, Model0200D); c != OutputMin {
		t.Fatalf("PressureCounts below range = %d, want OutputMin", c)
	}
	for _, tc := range []float64{-40, 0, 21.3, 85} {
		got := TemperatureC(TemperatureCounts(tc))
		if math.Abs(got-tc) > 0.001 {
			t.Fatalf("round trip %v C -> %v C", tc, got)
		}
	}
	if c := TemperatureCounts(500); c != 1<<24-1 {
		t.Fatalf("TemperatureCounts saturate = %d", c)
	}
}

func TestConvertSetsOutOfRange(t *testing.T) {
	r := Convert(Measurement{Pressure: 10, Temperature: 1 << 23}, Model0200D)
	if !r.OutOfRange || r.PressurePa != 0 {
		t.Fatalf("Convert = %+v", r)
	}
	if r.TemperatureC != 42.5 {
		t.Fatalf("TemperatureC = %v", r.TemperatureC)
	}
}

func TestReadingEnv(t *testing.T) {
	r := Reading{PressurePa: 10000, TemperatureC: 25}
	e := r.Env()
	if e.Pressure != 10*physic.KiloPascal {
		t.Fatalf("Pressure = %s", e.Pressure)
	}
	if got := e.Temperature.Celsius(); math.Abs(got-25) > 1e-6 {
		t.Fatalf("Temperature = %v C", got)
	}
}
