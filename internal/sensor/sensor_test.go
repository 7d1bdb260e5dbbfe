// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensor

import "testing"

func TestPublishState(t *testing.T) {
	s := New(PressureDescriptor("Duct pressure"))
	if _, ok := s.State(); ok {
		t.Fatal("new sensor has state")
	}

	var got []float64
	s.AddOnStateCallback(func(v float64) { got = append(got, v) })
	s.AddOnStateCallback(func(v float64) { got = append(got, -v) })
	s.PublishState(101.6)

	if v, ok := s.State(); !ok || v != 101.6 {
		t.Fatalf("State() = %v, %v", v, ok)
	}
	if len(got) != 2 || got[0] != 101.6 || got[1] != -101.6 {
		t.Fatalf("callbacks saw %v", got)
	}
}

func TestFormatState(t *testing.T) {
	p := New(PressureDescriptor("p"))
	if got := p.FormatState(10000.4); got != "10000" {
		t.Fatalf("pressure = %q", got)
	}
	tc := New(TemperatureDescriptor("t"))
	if got := tc.FormatState(21.46); got != "21.5" {
		t.Fatalf("temperature = %q", got)
	}
}

func TestObjectID(t *testing.T) {
	tests := map[string]string{
		"Duct pressure":  "duct_pressure",
		" Room Temp °C ": "room_temp__c",
		"ams-1_p":        "ams-1_p",
	}
	for in, want := range tests {
		if got := ObjectID(in); got != want {
			t.Fatalf("ObjectID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDescriptors(t *testing.T) {
	p := PressureDescriptor("Duct pressure")
	if p.Unit != "Pa" || p.AccuracyDecimals != 0 || p.DeviceClass != "pressure" || p.ObjectID != "duct_pressure" {
		t.Fatalf("pressure descriptor %+v", p)
	}
	tc := TemperatureDescriptor("Duct temp")
	if tc.Unit != "°C" || tc.AccuracyDecimals != 1 || tc.StateClass != "measurement" {
		t.Fatalf("temperature descriptor %+v", tc)
	}
}
