// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/pressure_node/internal/ams5935"
	"github.com/relabs-tech/pressure_node/internal/config"
)

// RunProbe performs one status transaction and one reading on every
// configured transducer and prints the decoded result to w.
func RunProbe(w io.Writer, mock bool) error {
	cfg := config.Get()

	bus, err := openBus(cfg, mock)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	return probeSensors(w, bus, cfg)
}

// probeSensors reports every sensor and returns the first failure after
// all of them have been tried.
func probeSensors(w io.Writer, bus i2c.Bus, cfg *config.Config) error {
	var first error
	fail := func(id string, err error) {
		fmt.Fprintf(w, "%-8s ERROR %v\n", id, err)
		if first == nil {
			first = err
		}
	}

	for i := range cfg.Sensors {
		sc := &cfg.Sensors[i]
		dev, err := newDevice(bus, sc)
		if err != nil {
			fail(sc.ID, err)
			continue
		}
		lo, hi := sc.ModelID.PressureRange()
		fmt.Fprintf(w, "%-8s %s  %s  range %.0f..%.0f Pa  cycle %s\n",
			sc.ID, dev, sc.ModelID.Type(), lo, hi, dev.CycleTime())

		st, err := dev.Status()
		if err != nil {
			fail(sc.ID, err)
			continue
		}
		fmt.Fprintf(w, "%-8s status 0x%02X [%s]\n", sc.ID, byte(st), st)

		var r ams5935.Reading
		if err := dev.Sense(&r); err != nil {
			fail(sc.ID, err)
			continue
		}
		fmt.Fprintf(w, "%-8s raw p=%d t=%d  %.0f Pa  %.1f °C", sc.ID, r.Pressure, r.Temperature, r.PressurePa, r.TemperatureC)
		if r.OutOfRange {
			fmt.Fprint(w, "  OUT OF RANGE")
		}
		fmt.Fprintln(w)
	}
	return first
}
