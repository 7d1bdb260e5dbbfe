// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/relabs-tech/pressure_node/internal/config"
	"github.com/relabs-tech/pressure_node/internal/env"
)

// RunConsole reads the transducers directly, without a broker, and prints
// each sample until ctx is cancelled.
func RunConsole(ctx context.Context, mock bool) error {
	cfg := config.Get()

	bus, err := openBus(cfg, mock)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	comps, err := buildComponents(bus, cfg)
	if err != nil {
		return err
	}
	for _, c := range comps {
		c.OnSample(func(s env.Sample) {
			fmt.Println(formatSample(s, time.Now()))
		})
	}
	return runComponents(ctx, comps)
}
