// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/pressure_node/internal/ams5935"
	"github.com/relabs-tech/pressure_node/internal/config"
	"github.com/relabs-tech/pressure_node/internal/i2cbus"
	"github.com/relabs-tech/pressure_node/internal/poller"
	"github.com/relabs-tech/pressure_node/internal/sensor"
	"github.com/relabs-tech/pressure_node/internal/simbus"
)

// mockPeriod is the period of the simulated pressure wave.
const mockPeriod = 2 * time.Minute

// openBus returns the shared I2C bus of the node. With mock set, every
// configured transducer is emulated on a simulated bus instead.
func openBus(cfg *config.Config, mock bool) (*i2cbus.Shared, error) {
	if !mock {
		return i2cbus.Open(cfg.I2C.Bus)
	}
	log.Println("using simulated I2C bus")
	return i2cbus.New(newMockBus(cfg)), nil
}

// newMockBus emulates every configured transducer. Each one reports a wave
// around the middle of its range.
func newMockBus(cfg *config.Config) *simbus.Bus {
	b := simbus.NewBus()
	for i := range cfg.Sensors {
		sc := &cfg.Sensors[i]
		lo, hi := sc.ModelID.PressureRange()
		d := b.Add(sc.Address, sc.ModelID)
		d.SetSource(simbus.Wave((lo+hi)/2, (hi-lo)/10, 22, 3, mockPeriod))
		log.Printf("simbus: %s emulated at 0x%02X", sc.ModelID, sc.Address)
	}
	return b
}

// newDevice constructs the driver of one configuration entry.
func newDevice(bus i2c.Bus, sc *config.SensorConfig) (*ams5935.Dev, error) {
	opts := sc.Opts()
	dev, err := ams5935.NewI2C(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("ams5935[%s]: %w", sc.ID, err)
	}
	log.Printf("ams5935[%s]: %s ready, %d sample(s) per reading", sc.ID, dev, dev.Samples())
	return dev, nil
}

// buildComponents constructs a device and a poller per configuration entry.
func buildComponents(bus i2c.Bus, cfg *config.Config) ([]*poller.Component, error) {
	comps := make([]*poller.Component, 0, len(cfg.Sensors))
	for i := range cfg.Sensors {
		sc := &cfg.Sensors[i]
		dev, err := newDevice(bus, sc)
		if err != nil {
			return nil, err
		}
		pc := poller.Config{ID: sc.ID, Interval: sc.UpdateInterval.Duration()}
		if sc.Pressure != nil {
			pc.Pressure = sensor.New(sensor.PressureDescriptor(sc.Pressure.Name))
		}
		if sc.Temperature != nil {
			pc.Temperature = sensor.New(sensor.TemperatureDescriptor(sc.Temperature.Name))
		}
		comps = append(comps, poller.New(dev, pc))
	}
	return comps, nil
}
