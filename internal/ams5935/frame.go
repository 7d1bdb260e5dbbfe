// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ams5935

import (
	"fmt"
	"strings"
)

// frameLen is status + 24-bit pressure + 24-bit temperature.
const frameLen = 7

// Status is the first byte of every response frame.
type Status byte

// Status bits.
const (
	StatusSaturated   Status = 0x01 // ALU saturation during conversion
	StatusMemoryError Status = 0x04 // calibration memory integrity check failed
	StatusBusy        Status = 0x20 // conversion in progress, data is stale
	StatusPowered     Status = 0x40 // set while the device is powered
)

// Powered reports whether the power indication bit is set.
func (s Status) Powered() bool { return s&StatusPowered != 0 }

// Busy reports whether a conversion is still running.
func (s Status) Busy() bool { return s&StatusBusy != 0 }

// Fault reports whether a diagnostic bit is set or power indication is missing.
func (s Status) Fault() bool {
	return !s.Powered() || s&(StatusMemoryError|StatusSaturated) != 0
}

// Err maps the status to ErrBusy, ErrStatusFault or nil.
func (s Status) Err() error {
	switch {
	case s.Fault():
		return fmt.Errorf("%w: status 0x%02X (%s)", ErrStatusFault, byte(s), s)
	case s.Busy():
		return fmt.Errorf("%w: status 0x%02X", ErrBusy, byte(s))
	}
	return nil
}

func (s Status) String() string {
	var flags []string
	if s.Powered() {
		flags = append(flags, "powered")
	} else {
		flags = append(flags, "unpowered")
	}
	if s.Busy() {
		flags = append(flags, "busy")
	}
	if s&StatusMemoryError != 0 {
		flags = append(flags, "memory-error")
	}
	if s&StatusSaturated != 0 {
		flags = append(flags, "saturated")
	}
	return strings.Join(flags, "|")
}

// decodeFrame unpacks the two big-endian 24-bit counts.
func decodeFrame(b []byte) (st Status, pressure, temperature uint32) {
	st = Status(b[0])
	pressure = uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	temperature = uint32(b[4])<<16 | uint32(b[5])<<8 | uint32(b[6])
	return st, pressure, temperature
}

// EncodeFrame builds a response frame; used by bus simulators and tests.
func EncodeFrame(st Status, pressure, temperature uint32) []byte {
	return []byte{
		byte(st),
		byte(pressure >> 16), byte(pressure >> 8), byte(pressure),
		byte(temperature >> 16), byte(temperature >> 8), byte(temperature),
	}
}
