// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ams5935

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelNotFound is returned when a model identifier is not part of the
// AMS5935 family.
var ErrModelNotFound = errors.New("ams5935: model not found")

// Model identifies one calibrated variant of the AMS5935 family.
type Model uint8

// Models in datasheet order. The zero value is not a valid model.
const (
	modelInvalid Model = iota

	Model0002D
	Model0005D
	Model0010D
	Model0020D
	Model0035D
	Model0050D
	Model0100D
	Model0200D
	Model0350D
	Model0500D
	Model1000D

	Model0002DN
	Model0005DN
	Model0010DN
	Model0020DN
	Model0050DN
	Model0100DN
	Model0200DN
	Model0350DN
	Model1000DN

	Model0001DB
	Model0002DB
	Model0005DB
	Model0010DB
	Model0020DB
	Model0035DB
	Model0050DB
	Model0100DB
	Model0200DB
	Model0350DB
	Model0500DB
	Model1000DB

	Model0001DBN
	Model0002DBN
	Model0005DBN
	Model0010DBN
	Model0020DBN
	Model0050DBN
	Model0100DBN
	Model0200DBN
	Model0350DBN
	Model1000DBN

	Model0500A
	Model1000A
	Model1500A
	Model2000A

	Model1200B

	modelCount
)

// PressureType is the kind of pressure a model measures.
type PressureType uint8

const (
	Differential PressureType = iota
	BidirectionalDifferential
	Absolute
	Barometric

	// UnknownType is reported by invalid models.
	UnknownType PressureType = 0xFF
)

func (t PressureType) String() string {
	switch t {
	case Differential:
		return "differential"
	case BidirectionalDifferential:
		return "bidirectional differential"
	case Absolute:
		return "absolute"
	case Barometric:
		return "barometric"
	case UnknownType:
		return "unknown"
	default:
		return fmt.Sprintf("PressureType(%d)", uint8(t))
	}
}

// Output code span of the 24-bit pressure channel, shared by every model:
// 10% and 90% of 2^24.
const (
	OutputMin = 1677722
	OutputMax = 15099494
)

// mbarToPa converts the table's millibar ranges to pascal.
const mbarToPa = 100.0

type modelInfo struct {
	name string
	pMin int // mbar
	pMax int // mbar
	kind PressureType
}

var modelTable = [modelCount]modelInfo{
	Model0002D: {"AMS5935-0002-D", 0, 2, Differential},
	Model0005D: {"AMS5935-0005-D", 0, 5, Differential},
	Model0010D: {"AMS5935-0010-D", 0, 10, Differential},
	Model0020D: {"AMS5935-0020-D", 0, 20, Differential},
	Model0035D: {"AMS5935-0035-D", 0, 35, Differential},
	Model0050D: {"AMS5935-0050-D", 0, 50, Differential},
	Model0100D: {"AMS5935-0100-D", 0, 100, Differential},
	Model0200D: {"AMS5935-0200-D", 0, 200, Differential},
	Model0350D: {"AMS5935-0350-D", 0, 350, Differential},
	Model0500D: {"AMS5935-0500-D", 0, 500, Differential},
	Model1000D: {"AMS5935-1000-D", 0, 1000, Differential},

	Model0002DN: {"AMS5935-0002-D-N", 0, 2, Differential},
	Model0005DN: {"AMS5935-0005-D-N", 0, 5, Differential},
	Model0010DN: {"AMS5935-0010-D-N", 0, 10, Differential},
	Model0020DN: {"AMS5935-0020-D-N", 0, 20, Differential},
	Model0050DN: {"AMS5935-0050-D-N", 0, 50, Differential},
	Model0100DN: {"AMS5935-0100-D-N", 0, 100, Differential},
	Model0200DN: {"AMS5935-0200-D-N", 0, 200, Differential},
	Model0350DN: {"AMS5935-0350-D-N", 0, 350, Differential},
	Model1000DN: {"AMS5935-1000-D-N", 0, 1000, Differential},

	Model0001DB: {"AMS5935-0001-D-B", -1, 1, BidirectionalDifferential},
	Model0002DB: {"AMS5935-0002-D-B", -2, 2, BidirectionalDifferential},
	Model0005DB: {"AMS5935-0005-D-B", -5, 5, BidirectionalDifferential},
	Model0010DB: {"AMS5935-0010-D-B", -10, 10, BidirectionalDifferential},
	Model0020DB: {"AMS5935-0020-D-B", -20, 20, BidirectionalDifferential},
	Model0035DB: {"AMS5935-0035-D-B", -35, 35, BidirectionalDifferential},
	Model0050DB: {"AMS5935-0050-D-B", -50, 50, BidirectionalDifferential},
	Model0100DB: {"AMS5935-0100-D-B", -100, 100, BidirectionalDifferential},
	Model0200DB: {"AMS5935-0200-D-B", -200, 200, BidirectionalDifferential},
	Model0350DB: {"AMS5935-0350-D-B", -350, 350, BidirectionalDifferential},
	Model0500DB: {"AMS5935-0500-D-B", -500, 500, BidirectionalDifferential},
	Model1000DB: {"AMS5935-1000-D-B", -1000, 1000, BidirectionalDifferential},

	Model0001DBN: {"AMS5935-0001-D-B-N", -1, 1, BidirectionalDifferential},
	Model0002DBN: {"AMS5935-0002-D-B-N", -2, 2, BidirectionalDifferential},
	Model0005DBN: {"AMS5935-0005-D-B-N", -5, 5, BidirectionalDifferential},
	Model0010DBN: {"AMS5935-0010-D-B-N", -10, 10, BidirectionalDifferential},
	Model0020DBN: {"AMS5935-0020-D-B-N", -20, 20, BidirectionalDifferential},
	Model0050DBN: {"AMS5935-0050-D-B-N", -50, 50, BidirectionalDifferential},
	Model0100DBN: {"AMS5935-0100-D-B-N", -100, 100, BidirectionalDifferential},
	Model0200DBN: {"AMS5935-0200-D-B-N", -200, 200, BidirectionalDifferential},
	Model0350DBN: {"AMS5935-0350-D-B-N", -350, 350, BidirectionalDifferential},
	Model1000DBN: {"AMS5935-1000-D-B-N", -1000, 1000, BidirectionalDifferential},

	Model0500A: {"AMS5935-0500-A", 0, 500, Absolute},
	Model1000A: {"AMS5935-1000-A", 0, 1000, Absolute},
	Model1500A: {"AMS5935-1500-A", 0, 1500, Absolute},
	Model2000A: {"AMS5935-2000-A", 0, 2000, Absolute},

	Model1200B: {"AMS5935-1200-B", 700, 1200, Barometric},
}

var modelsByName = func() map[string]Model {
	m := make(map[string]Model, modelCount)
	for i := Model0002D; i < modelCount; i++ {
		m[modelTable[i].name] = i
	}
	return m
}()

// Lookup resolves a model identifier such as "AMS5935-0200-D".
// Matching is case-insensitive and ignores surrounding whitespace.
func Lookup(name string) (Model, error) {
	if m, ok := modelsByName[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return m, nil
	}
	return modelInvalid, fmt.Errorf("%w: %q", ErrModelNotFound, name)
}

// Models returns every known model in declaration order.
func Models() []Model {
	out := make([]Model, 0, modelCount-1)
	for i := Model0002D; i < modelCount; i++ {
		out = append(out, i)
	}
	return out
}

// Valid reports whether m is one of the known models.
func (m Model) Valid() bool { return m > modelInvalid && m < modelCount }

func (m Model) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Model(%d)", uint8(m))
	}
	return modelTable[m].name
}

// Type returns the pressure type the model measures, or UnknownType.
func (m Model) Type() PressureType {
	if !m.Valid() {
		return UnknownType
	}
	return modelTable[m].kind
}

// PressureRange returns the calibrated full-scale range in pascal. Invalid
// models have an empty range.
func (m Model) PressureRange() (lo, hi float64) {
	if !m.Valid() {
		return 0, 0
	}
	s := modelTable[m]
	return float64(s.pMin) * mbarToPa, float64(s.pMax) * mbarToPa
}

// OutputRange returns the output codes that map to the ends of the
// pressure range.
func (m Model) OutputRange() (lo, hi uint32) { return OutputMin, OutputMax }

// Unit is the unit PressureRange is expressed in.
func (m Model) Unit() string { return "Pa" }
