// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package i2cbus shares one I2C bus between several devices.
package i2cbus

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// Shared serializes access to a bus. Single transfers go through Tx;
// multi-step sequences that must not be interleaved use Transact.
type Shared struct {
	mu  sync.Mutex
	bus i2c.Bus
}

// New wraps b.
func New(b i2c.Bus) *Shared {
	return &Shared{bus: b}
}

// Open initializes periph and opens the named bus ("" for the first one).
func Open(name string) (*Shared, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", name, err)
	}
	return New(b), nil
}

func (s *Shared) String() string { return s.bus.String() }

// Tx implements i2c.Bus.
func (s *Shared) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.Tx(addr, w, r)
}

// SetSpeed implements i2c.Bus.
func (s *Shared) SetSpeed(f physic.Frequency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bus.SetSpeed(f)
}

// Transact runs fn with the bus held. fn receives the underlying bus and
// must not call back into s.
func (s *Shared) Transact(fn func(b i2c.Bus) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.bus)
}

// Close closes the underlying bus if it can be closed.
func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.bus.(i2c.BusCloser); ok {
		return c.Close()
	}
	return nil
}

// ErrSpeedUnsupported is returned by buses that cannot change clock speed.
var ErrSpeedUnsupported = errors.New("i2cbus: SetSpeed not supported")

type tinyGoBus struct {
	bus  drivers.I2C
	name string
}

// FromTinyGo adapts a TinyGo driver bus (machine.I2C on microcontrollers) so
// periph based drivers can use it. The clock is configured on the TinyGo
// side, so SetSpeed always fails.
func FromTinyGo(b drivers.I2C, name string) i2c.Bus {
	if name == "" {
		name = "tinygo-i2c"
	}
	return &tinyGoBus{bus: b, name: name}
}

func (t *tinyGoBus) String() string { return t.name }

func (t *tinyGoBus) Tx(addr uint16, w, r []byte) error { return t.bus.Tx(addr, w, r) }

func (t *tinyGoBus) SetSpeed(physic.Frequency) error { return ErrSpeedUnsupported }

var (
	_ i2c.Bus = (*Shared)(nil)
	_ i2c.Bus = (*tinyGoBus)(nil)
)
