// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package simbus emulates AMS5935 transducers on an in-memory I2C bus. It is
// used by the -mock mode of the tools and by tests.
package simbus

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/pressure_node/internal/ams5935"
)

// ErrNack is returned for transfers to an address with no device.
var ErrNack = errors.New("simbus: address not acknowledged")

// ErrInjected is returned by transfers failed with FailNext.
var ErrInjected = errors.New("simbus: injected failure")

// Bus is an emulated I2C bus.
type Bus struct {
	mu   sync.Mutex
	devs map[uint16]*Device
	now  func() time.Time
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{devs: map[uint16]*Device{}, now: time.Now}
}

// SetClock replaces the time source used for conversion timing.
func (b *Bus) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// Add attaches a transducer at addr.
func (b *Bus) Add(addr uint16, model ams5935.Model) *Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := &Device{addr: addr, model: model, status: ams5935.StatusPowered}
	d.SetPressure(0)
	d.SetTemperature(20)
	b.devs[addr] = d
	return d
}

func (b *Bus) String() string { return "simbus" }

// SetSpeed accepts any speed.
func (b *Bus) SetSpeed(physic.Frequency) error { return nil }

// Close is a no-op.
func (b *Bus) Close() error { return nil }

// Tx implements i2c.Bus.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	d, ok := b.devs[addr]
	now := b.now()
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: 0x%02X", ErrNack, addr)
	}
	return d.tx(now, w, r)
}

// Source produces the physical values a device reports at time t.
type Source func(t time.Time) (pa, celsius float64)

// Device is one emulated transducer.
type Device struct {
	mu       sync.Mutex
	addr     uint16
	model    ams5935.Model
	pCounts  uint32
	tCounts  uint32
	status   ams5935.Status
	src      Source
	readyAt  time.Time
	fail     int
	triggers int
	lastCmd  byte
}

// SetPressure sets the pressure reported by the next conversions.
func (d *Device) SetPressure(pa float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pCounts = ams5935.PressureCounts(pa, d.model)
}

// SetTemperature sets the temperature reported by the next conversions.
func (d *Device) SetTemperature(c float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tCounts = ams5935.TemperatureCounts(c)
}

// SetRaw sets the counts directly, including values outside the output span.
func (d *Device) SetRaw(pressure, temperature uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pCounts, d.tCounts = pressure, temperature
}

// SetSource makes each conversion sample src. A nil src keeps the last
// counts.
func (d *Device) SetSource(src Source) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.src = src
}

// SetStatus replaces the status bits reported once a conversion is done.
func (d *Device) SetStatus(st ams5935.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = st
}

// FailNext makes the next n transfers to the device fail.
func (d *Device) FailNext(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = n
}

// Triggers returns the number of conversions started.
func (d *Device) Triggers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.triggers
}

// LastCommand returns the last measurement command received.
func (d *Device) LastCommand() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastCmd
}

func (d *Device) tx(now time.Time, w, r []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.fail > 0 {
		d.fail--
		return ErrInjected
	}

	switch {
	case len(w) == 1 && len(r) == 0:
		conv, ok := ams5935.ConversionTime(w[0])
		if !ok {
			return fmt.Errorf("simbus: 0x%02X: unknown command 0x%02X", d.addr, w[0])
		}
		d.lastCmd = w[0]
		d.triggers++
		d.readyAt = now.Add(conv)
		if d.src != nil {
			pa, c := d.src(now)
			d.pCounts = ams5935.PressureCounts(pa, d.model)
			d.tCounts = ams5935.TemperatureCounts(c)
		}
		return nil

	case len(w) == 0 && len(r) > 0:
		st := d.status
		if now.Before(d.readyAt) {
			st |= ams5935.StatusBusy
		}
		frame := ams5935.EncodeFrame(st, d.pCounts, d.tCounts)
		copy(r, frame)
		return nil
	}
	return fmt.Errorf("simbus: 0x%02X: unsupported transfer w=%d r=%d", d.addr, len(w), len(r))
}

// Wave returns a Source oscillating around a base pressure and temperature.
// Used by mock runs.
func Wave(basePa, ampPa, baseC, ampC float64, period time.Duration) Source {
	start := time.Now()
	return func(t time.Time) (float64, float64) {
		phase := 2 * math.Pi * float64(t.Sub(start)) / float64(period)
		return basePa + ampPa*math.Sin(phase), baseC + ampC*math.Cos(phase)
	}
}
