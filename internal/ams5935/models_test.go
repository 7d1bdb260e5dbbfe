// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ams5935

import (
	"errors"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		want Model
	}{
		{"AMS5935-0200-D", Model0200D},
		{"ams5935-0200-d", Model0200D},
		{"  AMS5935-1200-B\n", Model1200B},
		{"AMS5935-0001-D-B-N", Model0001DBN},
		{"AMS5935-2000-A", Model2000A},
	}
	for _, tt := range tests {
		got, err := Lookup(tt.in)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Lookup(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	for _, name := range []string{"", "AMS5935-9999-D", "AMS5915-0200-D", "AMS5935-0200"} {
		if _, err := Lookup(name); !errors.Is(err, ErrModelNotFound) {
			t.Fatalf("Lookup(%q) err = %v, want ErrModelNotFound", name, err)
		}
	}
}

func TestModelTableComplete(t *testing.T) {
	ms := Models()
	if len(ms) != 47 {
		t.Fatalf("got %d models, want 47", len(ms))
	}
	seen := map[string]bool{}
	for _, m := range ms {
		name := m.String()
		if seen[name] {
			t.Fatalf("duplicate model name %q", name)
		}
		seen[name] = true

		back, err := Lookup(name)
		if err != nil || back != m {
			t.Fatalf("Lookup(%q) = %v, %v; want %v", name, back, err, m)
		}
		lo, hi := m.PressureRange()
		if !(lo < hi) {
			t.Fatalf("%s: range %v..%v is empty", m, lo, hi)
		}
		olo, ohi := m.OutputRange()
		if olo != OutputMin || ohi != OutputMax {
			t.Fatalf("%s: output range %d..%d", m, olo, ohi)
		}
	}
}

func TestPressureRanges(t *testing.T) {
	tests := []struct {
		m      Model
		lo, hi float64
		kind   PressureType
	}{
		{Model0005D, 0, 500, Differential},
		{Model0200D, 0, 20000, Differential},
		{Model0035DB, -3500, 3500, BidirectionalDifferential},
		{Model1000DBN, -100000, 100000, BidirectionalDifferential},
		{Model1500A, 0, 150000, Absolute},
		{Model1200B, 70000, 120000, Barometric},
	}
	for _, tt := range tests {
		lo, hi := tt.m.PressureRange()
		if lo != tt.lo || hi != tt.hi {
			t.Fatalf("%s: range %v..%v, want %v..%v", tt.m, lo, hi, tt.lo, tt.hi)
		}
		if tt.m.Type() != tt.kind {
			t.Fatalf("%s: type %s, want %s", tt.m, tt.m.Type(), tt.kind)
		}
	}
}

func TestInvalidModel(t *testing.T) {
	var m Model
	if m.Valid() {
		t.Fatal("zero Model should be invalid")
	}
	if modelCount.Valid() {
		t.Fatal("modelCount should be invalid")
	}
	if got := Model(200).String(); got != "Model(200)" {
		t.Fatalf("String() = %q", got)
	}
	for _, m := range []Model{modelInvalid, modelCount, Model(200)} {
		if lo, hi := m.PressureRange(); lo != 0 || hi != 0 {
			t.Fatalf("%s: PressureRange() = %v, %v", m, lo, hi)
		}
		if got := m.Type(); got != UnknownType {
			t.Fatalf("%s: Type() = %s", m, got)
		}
	}
}
