// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"testing"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/pressure_node/internal/env"
)

func litPixels(img *image1bit.VerticalLSB) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.BitAt(x, y) {
				n++
			}
		}
	}
	return n
}

func TestRenderSample(t *testing.T) {
	now := time.Now()
	waiting := renderSample("duct", env.Sample{}, false, now)
	if litPixels(waiting) == 0 {
		t.Fatal("waiting page is blank")
	}

	s := env.Sample{Source: "duct", Pressure: 10000, PressureMbar: 100, Temperature: 21.5, Time: now}
	page := renderSample("duct", s, true, now)
	if litPixels(page) == 0 {
		t.Fatal("sample page is blank")
	}
	if bytes.Equal(page.Pix, waiting.Pix) {
		t.Fatal("sample page equals waiting page")
	}

	s.OutOfRange = true
	oor := renderSample("duct", s, true, now)
	if litPixels(oor) <= litPixels(page) {
		t.Fatal("out-of-range marker not drawn")
	}

	stale := renderSample("duct", env.Sample{Source: "duct", Time: now.Add(-time.Hour)}, true, now)
	fresh := renderSample("duct", env.Sample{Source: "duct", Time: now}, true, now)
	if litPixels(stale) <= litPixels(fresh) {
		t.Fatal("stale marker not drawn")
	}
}

func TestDisplayData(t *testing.T) {
	var d DisplayData
	if _, ok := d.get(); ok {
		t.Fatal("empty data reports a sample")
	}
	d.set(env.Sample{Source: "duct", Pressure: 3})
	if s, ok := d.get(); !ok || s.Pressure != 3 {
		t.Fatalf("got %+v, %v", s, ok)
	}
}
