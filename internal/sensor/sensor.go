// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensor holds named value entities that publish readings to
// registered listeners (MQTT state topics, displays, metrics).
package sensor

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// Descriptor describes how a sensor's value is presented.
type Descriptor struct {
	Name             string
	ObjectID         string
	Unit             string
	DeviceClass      string
	StateClass       string
	AccuracyDecimals int
}

// PressureDescriptor returns the default pressure descriptor: Pa, no
// decimals.
func PressureDescriptor(name string) Descriptor {
	return Descriptor{
		Name:             name,
		ObjectID:         ObjectID(name),
		Unit:             "Pa",
		DeviceClass:      "pressure",
		StateClass:       "measurement",
		AccuracyDecimals: 0,
	}
}

// TemperatureDescriptor returns the default temperature descriptor: °C, one
// decimal.
func TemperatureDescriptor(name string) Descriptor {
	return Descriptor{
		Name:             name,
		ObjectID:         ObjectID(name),
		Unit:             "°C",
		DeviceClass:      "temperature",
		StateClass:       "measurement",
		AccuracyDecimals: 1,
	}
}

// Sensor is a published value. It is safe for concurrent use.
type Sensor struct {
	desc Descriptor

	mu        sync.RWMutex
	state     float64
	hasState  bool
	callbacks []func(float64)
}

// New returns a sensor without state.
func New(desc Descriptor) *Sensor {
	if desc.ObjectID == "" {
		desc.ObjectID = ObjectID(desc.Name)
	}
	return &Sensor{desc: desc, state: math.NaN()}
}

// Descriptor returns the sensor description.
func (s *Sensor) Descriptor() Descriptor { return s.desc }

// Name returns the display name.
func (s *Sensor) Name() string { return s.desc.Name }

// ObjectID returns the topic safe identifier.
func (s *Sensor) ObjectID() string { return s.desc.ObjectID }

// AddOnStateCallback registers fn to be called on every published state.
func (s *Sensor) AddOnStateCallback(fn func(float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// PublishState stores v and notifies the callbacks in registration order.
func (s *Sensor) PublishState(v float64) {
	s.mu.Lock()
	s.state = v
	s.hasState = true
	cbs := s.callbacks
	s.mu.Unlock()

	for _, fn := range cbs {
		fn(v)
	}
}

// State returns the last published value and whether one exists.
func (s *Sensor) State() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.hasState
}

// FormatState renders v with the configured accuracy.
func (s *Sensor) FormatState(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', s.desc.AccuracyDecimals, 64)
}

// ObjectID lower-cases name and replaces anything but letters, digits,
// '-' and '_' with '_'.
func ObjectID(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
