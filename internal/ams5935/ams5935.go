// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ams5935 drives the AMS5935 family of digital pressure and
// temperature transducers over I2C.
//
// Each measurement is a trigger command, a fixed conversion delay and a
// 7 byte read of status, pressure counts and temperature counts. The counts
// are mapped to pascal and degrees Celsius using the calibrated range of the
// configured model.
package ams5935

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/pressure_node/internal/mathx"
)

// DefaultAddress is the factory I2C address.
const DefaultAddress uint16 = 0x28

// Measurement commands.
const (
	CmdMeasure           byte = 0xAA
	CmdMeasureOversample byte = 0xAD // four-fold on-chip oversampling
)

// Conversion times of the commands.
const (
	convTime           = 4 * time.Millisecond
	convTimeOversample = 15 * time.Millisecond
)

// Construction probe.
const (
	probeAttempts = 10
	probeInterval = 10 * time.Millisecond
)

// MaxOversampling is the largest host side oversampling count accepted.
const MaxOversampling = 16

var (
	// ErrBus wraps any failed bus transfer.
	ErrBus = errors.New("ams5935: bus error")
	// ErrBusy is returned when the device reports a conversion in progress.
	ErrBusy = errors.New("ams5935: device busy")
	// ErrStatusFault is returned when the status byte reports a diagnostic
	// fault or the device is not powered.
	ErrStatusFault = errors.New("ams5935: status fault")
	// ErrInvalidOversampling is returned by NewI2C for a sample count
	// outside 0..MaxOversampling.
	ErrInvalidOversampling = errors.New("ams5935: invalid oversampling")
)

// Transactor is implemented by buses that can grant exclusive access for a
// sequence of transfers. The bus must not be used by anyone else while fn
// runs.
type Transactor interface {
	Transact(fn func(b i2c.Bus) error) error
}

// Opts holds the configuration options. It is copied by NewI2C.
type Opts struct {
	Model Model
	// Addr defaults to DefaultAddress when 0.
	Addr uint16
	// Oversampling is the number of full measurements averaged into one
	// reading. 0 and 1 both mean a single measurement.
	Oversampling int
	// OnChipOversampling selects the device's four-fold oversampling
	// command. It composes with Oversampling.
	OnChipOversampling bool
}

// ConversionTime returns the conversion time of a measurement command.
func ConversionTime(cmd byte) (time.Duration, bool) {
	switch cmd {
	case CmdMeasure:
		return convTime, true
	case CmdMeasureOversample:
		return convTimeOversample, true
	}
	return 0, false
}

// command returns the measurement command selected by o.
func (o *Opts) command() byte {
	if o.OnChipOversampling {
		return CmdMeasureOversample
	}
	return CmdMeasure
}

// CycleTime is the conversion time of one reading taken with o.
func (o *Opts) CycleTime() time.Duration {
	wait, _ := ConversionTime(o.command())
	return time.Duration(mathx.Clamp(o.Oversampling, 1, MaxOversampling)) * wait
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Model: Model0200D,
	Addr:  DefaultAddress,
}

// Dev is a handle to an initialized AMS5935.
type Dev struct {
	name    string
	bus     i2c.Bus
	addr    uint16
	tx      Transactor
	model   Model
	samples int
	cmd     byte
	wait    time.Duration

	// mu serializes transactions when the bus has no Transactor.
	mu sync.Mutex
	// sleep is the conversion wait, replaced in tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewI2C returns a device on the bus after probing it. The probe retries
// up to 10 times, 10ms apart, before giving up.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	d, err := newDev(b, opts)
	if err != nil {
		return nil, err
	}
	if err := d.probe(); err != nil {
		return nil, err
	}
	return d, nil
}

func newDev(b i2c.Bus, opts *Opts) (*Dev, error) {
	if !opts.Model.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, opts.Model)
	}
	if opts.Oversampling < 0 || opts.Oversampling > MaxOversampling {
		return nil, fmt.Errorf("%w: %d samples, want 0..%d", ErrInvalidOversampling, opts.Oversampling, MaxOversampling)
	}
	cmd := opts.command()
	wait, _ := ConversionTime(cmd)
	d := &Dev{
		bus:     b,
		addr:    opts.Addr,
		model:   opts.Model,
		samples: mathx.Clamp(opts.Oversampling, 1, MaxOversampling),
		cmd:     cmd,
		wait:    wait,
		sleep:   sleepTimer,
		now:     time.Now,
	}
	if d.addr == 0 {
		d.addr = DefaultAddress
	}
	if t, ok := b.(Transactor); ok {
		d.tx = t
	}
	d.name = fmt.Sprintf("%s{%s, 0x%02X}", d.model, b, d.addr)
	return d, nil
}

// probe checks that the device answers a measurement.
func (d *Dev) probe() error {
	var err error
	for i := 0; i < probeAttempts; i++ {
		if i > 0 {
			d.sleep(probeInterval)
		}
		if _, err = d.measureOnce(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("ams5935: no response at 0x%02X after %d attempts: %w", d.addr, probeAttempts, err)
}

func (d *Dev) String() string { return d.name }

// Halt implements conn.Resource. The device has no continuous mode.
func (d *Dev) Halt() error { return nil }

// Model returns the configured model.
func (d *Dev) Model() Model { return d.model }

// Samples returns the number of measurements averaged per reading.
func (d *Dev) Samples() int { return d.samples }

// CycleTime is the minimum time one Sense call spends waiting for
// conversions.
func (d *Dev) CycleTime() time.Duration {
	return time.Duration(d.samples) * d.wait
}

// Sense reads and converts one measurement.
func (d *Dev) Sense(r *Reading) error {
	m, err := d.SenseRaw()
	if err != nil {
		return err
	}
	*r = Convert(m, d.model)
	return nil
}

// SenseEnv fills Pressure and Temperature in e. Humidity is left untouched.
func (d *Dev) SenseEnv(e *physic.Env) error {
	var r Reading
	if err := d.Sense(&r); err != nil {
		return err
	}
	v := r.Env()
	e.Pressure = v.Pressure
	e.Temperature = v.Temperature
	return nil
}

// SenseRaw runs the configured number of measurements and returns the mean
// counts. Each measurement is its own bus transaction. If any of them fails
// the whole reading is discarded.
func (d *Dev) SenseRaw() (Measurement, error) {
	ps := make([]uint32, 0, d.samples)
	ts := make([]uint32, 0, d.samples)
	var st Status
	for i := 0; i < d.samples; i++ {
		m, err := d.measureOnce()
		if err != nil {
			if d.samples > 1 {
				return Measurement{}, fmt.Errorf("sample %d/%d: %w", i+1, d.samples, err)
			}
			return Measurement{}, err
		}
		st = m.Status
		ps = append(ps, m.Pressure)
		ts = append(ts, m.Temperature)
	}
	return Measurement{
		Status:      st,
		Pressure:    mathx.MeanU32(ps),
		Temperature: mathx.MeanU32(ts),
		Samples:     d.samples,
		Time:        d.now(),
	}, nil
}

// Status runs a single measurement transaction and returns the status
// byte, whether or not it reports a fault.
func (d *Dev) Status() (Status, error) {
	var st Status
	err := d.transact(func(b i2c.Bus) error {
		if err := d.trigger(b); err != nil {
			return err
		}
		d.waitConversion()
		var buf [frameLen]byte
		if err := b.Tx(d.addr, nil, buf[:]); err != nil {
			return fmt.Errorf("%w: read: %v", ErrBus, err)
		}
		st = Status(buf[0])
		return nil
	})
	return st, err
}

// measureOnce is one trigger, wait, read sequence.
func (d *Dev) measureOnce() (Measurement, error) {
	var m Measurement
	err := d.transact(func(b i2c.Bus) error {
		if err := d.trigger(b); err != nil {
			return err
		}
		d.waitConversion()
		var err error
		m, err = d.readRaw(b)
		return err
	})
	return m, err
}

func (d *Dev) transact(fn func(b i2c.Bus) error) error {
	if d.tx != nil {
		return d.tx.Transact(fn)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.bus)
}

func (d *Dev) trigger(b i2c.Bus) error {
	if err := b.Tx(d.addr, []byte{d.cmd}, nil); err != nil {
		return fmt.Errorf("%w: trigger 0x%02X: %v", ErrBus, d.cmd, err)
	}
	return nil
}

func (d *Dev) waitConversion() { d.sleep(d.wait) }

func (d *Dev) readRaw(b i2c.Bus) (Measurement, error) {
	var buf [frameLen]byte
	if err := b.Tx(d.addr, nil, buf[:]); err != nil {
		return Measurement{}, fmt.Errorf("%w: read: %v", ErrBus, err)
	}
	st, p, t := decodeFrame(buf[:])
	if err := st.Err(); err != nil {
		return Measurement{}, err
	}
	return Measurement{Status: st, Pressure: p, Temperature: t, Samples: 1, Time: d.now()}, nil
}

// sleepTimer blocks on a timer so other goroutines keep running.
func sleepTimer(dur time.Duration) {
	t := time.NewTimer(dur)
	<-t.C
}

var _ conn.Resource = &Dev{}
