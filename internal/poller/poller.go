// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package poller runs periodic measurement cycles for one transducer and
// fans the results out to sensors and listeners.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/pressure_node/internal/ams5935"
	"github.com/relabs-tech/pressure_node/internal/env"
	"github.com/relabs-tech/pressure_node/internal/sensor"
)

// ErrStopped is returned by Update once the component has stopped.
var ErrStopped = errors.New("poller: stopped")

// State of a component.
type State int32

const (
	Idle State = iota
	Measuring
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Measuring:
		return "measuring"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Device is the part of *ams5935.Dev the poller needs.
type Device interface {
	Sense(r *ams5935.Reading) error
	Model() ams5935.Model
	String() string
}

// Config for a component. Pressure and Temperature are optional.
type Config struct {
	ID string
	// Interval between cycles. 0 disables periodic polling; Update can
	// still be called directly.
	Interval    time.Duration
	Pressure    *sensor.Sensor
	Temperature *sensor.Sensor
}

// Component polls one device.
type Component struct {
	id          string
	dev         Device
	interval    time.Duration
	pressure    *sensor.Sensor
	temperature *sensor.Sensor

	// cycle serializes Update calls.
	cycle sync.Mutex

	mu        sync.RWMutex
	state     State
	last      env.Sample
	hasLast   bool
	failures  int
	onSample  []func(env.Sample)
	onFailure []func(error)
	onCycle   []func(time.Duration, error)
}

// New returns an idle component.
func New(dev Device, cfg Config) *Component {
	return &Component{
		id:          cfg.ID,
		dev:         dev,
		interval:    cfg.Interval,
		pressure:    cfg.Pressure,
		temperature: cfg.Temperature,
	}
}

// ID returns the configured id.
func (c *Component) ID() string { return c.id }

// Interval returns the polling interval, 0 if polling is disabled.
func (c *Component) Interval() time.Duration { return c.interval }

// Pressure returns the pressure sensor, or nil.
func (c *Component) Pressure() *sensor.Sensor { return c.pressure }

// Temperature returns the temperature sensor, or nil.
func (c *Component) Temperature() *sensor.Sensor { return c.temperature }

// OnSample registers fn to receive every good sample.
func (c *Component) OnSample(fn func(env.Sample)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSample = append(c.onSample, fn)
}

// OnFailure registers fn to receive every failed cycle's error.
func (c *Component) OnFailure(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFailure = append(c.onFailure, fn)
}

// OnCycle registers fn to receive the duration and result of each cycle.
func (c *Component) OnCycle(fn func(time.Duration, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCycle = append(c.onCycle, fn)
}

// State returns the current state.
func (c *Component) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Last returns the last good sample. A failed cycle leaves it unchanged.
func (c *Component) Last() (env.Sample, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.hasLast
}

// Failures returns the number of failed cycles since start.
func (c *Component) Failures() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failures
}

func (c *Component) setState(s State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Stopped {
		return false
	}
	c.state = s
	return true
}

// Update runs one measurement cycle. On success the temperature and
// pressure sensors and the sample listeners are updated in that order. On
// failure nothing is published and the error is returned.
func (c *Component) Update() error {
	c.cycle.Lock()
	defer c.cycle.Unlock()

	if !c.setState(Measuring) {
		return ErrStopped
	}
	start := time.Now()

	var r ams5935.Reading
	err := c.dev.Sense(&r)
	dur := time.Since(start)

	c.mu.Lock()
	cycleFns := c.onCycle
	if err != nil {
		c.failures++
	}
	c.mu.Unlock()
	for _, fn := range cycleFns {
		fn(dur, err)
	}

	if err != nil {
		log.Printf("ams5935 %s: update failed: %v", c.id, err)
		c.mu.RLock()
		fns := c.onFailure
		c.mu.RUnlock()
		for _, fn := range fns {
			fn(err)
		}
		c.setState(Idle)
		return err
	}

	s := env.FromReading(c.id, c.dev.Model(), r)
	if s.OutOfRange {
		log.Printf("ams5935 %s: raw pressure %d outside output span, clamped to %.0f Pa", c.id, s.RawPressure, s.Pressure)
	}

	if c.temperature != nil {
		c.temperature.PublishState(s.Temperature)
	}
	if c.pressure != nil {
		c.pressure.PublishState(s.Pressure)
	}

	c.mu.Lock()
	c.last, c.hasLast = s, true
	fns := c.onSample
	c.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}

	c.setState(Idle)
	return nil
}

// Run performs a cycle immediately and then one per interval until ctx is
// cancelled. Ticks that arrive while a cycle is still running are dropped.
// The component is Stopped when Run returns.
func (c *Component) Run(ctx context.Context) error {
	defer c.Stop()

	if c.interval <= 0 {
		log.Printf("ams5935 %s: polling disabled", c.id)
		<-ctx.Done()
		return ctx.Err()
	}

	log.Printf("ams5935 %s: polling %s every %s", c.id, c.dev, c.interval)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.Update(); errors.Is(err, ErrStopped) {
			return err
		}
		skipMissed(ticker)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// skipMissed discards a tick that fell due while a cycle was running, so the
// next cycle waits for the next interval boundary.
func skipMissed(t *time.Ticker) {
	select {
	case <-t.C:
	default:
	}
}

// Stop moves the component to Stopped. Subsequent Update calls fail.
func (c *Component) Stop() {
	c.cycle.Lock()
	defer c.cycle.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Stopped
}
