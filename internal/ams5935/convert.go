// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ams5935

import (
	"math"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/pressure_node/internal/mathx"
)

// Temperature channel transform, shared by the whole family:
// °C = counts * 165 / 2^24 - 40.
const (
	tempFullScale = 1 << 24
	tempSpan      = 165.0
	tempOffset    = -40.0
)

// Measurement is one set of raw counts taken during a poll cycle. When
// oversampling is enabled the counts are the mean of Samples reads.
type Measurement struct {
	Status      Status
	Pressure    uint32
	Temperature uint32
	Samples     int
	Time        time.Time
}

// Reading is a converted Measurement.
type Reading struct {
	Measurement

	PressurePa   float64
	TemperatureC float64
	// OutOfRange is set when the pressure counts fell outside the calibrated
	// output span and the pressure was clamped.
	OutOfRange bool
}

// Convert maps raw counts to physical units using the model's range.
func Convert(m Measurement, model Model) Reading {
	pa, clamped := PressurePa(m.Pressure, model)
	return Reading{
		Measurement:  m,
		PressurePa:   pa,
		TemperatureC: TemperatureC(m.Temperature),
		OutOfRange:   clamped,
	}
}

// PressurePa linearly maps counts from the output span to the model's
// pressure range. Counts outside the span are clamped to the range ends and
// reported with clamped=true.
func PressurePa(counts uint32, model Model) (pa float64, clamped bool) {
	pMin, pMax := model.PressureRange()
	switch {
	case counts <= OutputMin:
		return pMin, counts < OutputMin
	case counts >= OutputMax:
		return pMax, counts > OutputMax
	}
	pa = pMin + (pMax-pMin)*float64(counts-OutputMin)/float64(OutputMax-OutputMin)
	return mathx.Clamp(pa, pMin, pMax), false
}

// TemperatureC converts temperature counts to degrees Celsius.
func TemperatureC(counts uint32) float64 {
	return float64(counts)*tempSpan/tempFullScale + tempOffset
}

// PressureCounts is the inverse of PressurePa for pressures inside the
// model's range. Values outside the range saturate at the span ends.
func PressureCounts(pa float64, model Model) uint32 {
	pMin, pMax := model.PressureRange()
	pa = mathx.Clamp(pa, pMin, pMax)
	c := OutputMin + (pa-pMin)*float64(OutputMax-OutputMin)/(pMax-pMin)
	return uint32(math.Round(c))
}

// TemperatureCounts is the inverse of TemperatureC, saturating at the
// 24-bit channel limits.
func TemperatureCounts(c float64) uint32 {
	v := math.Round((c - tempOffset) * tempFullScale / tempSpan)
	return uint32(mathx.Clamp(v, 0, tempFullScale-1))
}

// Env returns the reading in periph physic units.
func (r *Reading) Env() physic.Env {
	return physic.Env{
		Pressure:    physic.Pressure(r.PressurePa * float64(physic.Pascal)),
		Temperature: physic.ZeroCelsius + physic.Temperature(r.TemperatureC*float64(physic.Kelvin)),
	}
}
