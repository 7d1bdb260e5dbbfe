// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package history

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/relabs-tech/pressure_node/internal/env"
)

// ErrNoSamples is returned when there is nothing to plot.
var ErrNoSamples = errors.New("history: no samples")

// WritePNG renders the pressure of samples over time as a PNG line chart.
func WritePNG(w io.Writer, title string, samples []env.Sample) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}
	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("history: new plot: %w", err)
	}
	p.Title.Text = title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Pressure (Pa)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "15:04:05"}
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = float64(s.Time.Unix())
		pts[i].Y = s.Pressure
	}
	if err := plotutil.AddLinePoints(p, "pressure", pts); err != nil {
		return fmt.Errorf("history: add line: %w", err)
	}

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("history: render: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
