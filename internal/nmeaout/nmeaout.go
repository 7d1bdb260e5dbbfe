// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package nmeaout emits samples as NMEA 0183 XDR transducer sentences.
package nmeaout

import (
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/pressure_node/internal/env"
	"github.com/relabs-tech/pressure_node/internal/poller"
)

// DefaultTalker is used when no talker id is configured.
const DefaultTalker = "II"

// Sentence formats s as one XDR sentence with a pressure (Pa) and a
// temperature (°C) measurement, both named after the sensor id. The
// returned string includes the checksum but no line terminator.
func Sentence(talker string, s env.Sample) string {
	if talker == "" {
		talker = DefaultTalker
	}
	body := fmt.Sprintf("%sXDR,P,%s,P,%s,C,%s,C,%s",
		talker,
		strconv.FormatFloat(s.Pressure, 'f', 0, 64), s.Source,
		strconv.FormatFloat(s.Temperature, 'f', 1, 64), s.Source,
	)
	return "$" + body + "*" + nmea.Checksum(body)
}

// Writer writes sentences to a port.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	talker string
}

// New returns a writer on w.
func New(w io.Writer, talker string) *Writer {
	return &Writer{w: w, talker: talker}
}

// OpenSerial opens the named serial port for output.
func OpenSerial(port string, baud uint) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:        port,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}
	p, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("xdr: open %s: %w", port, err)
	}
	log.Printf("xdr: serial port opened on %s at %d baud", port, baud)
	return p, nil
}

// Write emits one sample.
func (w *Writer) Write(s env.Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := io.WriteString(w.w, Sentence(w.talker, s)+"\r\n")
	return err
}

// Attach writes every good sample of c.
func (w *Writer) Attach(c *poller.Component) {
	c.OnSample(func(s env.Sample) {
		if err := w.Write(s); err != nil {
			log.Printf("xdr: write error: %v", err)
		}
	})
}
