// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package influxout writes samples to InfluxDB.
package influxout

import (
	"log"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/relabs-tech/pressure_node/internal/env"
	"github.com/relabs-tech/pressure_node/internal/poller"
)

// Measurement is the InfluxDB measurement name samples are written to.
const Measurement = "ams5935"

// PointWriter is the non-blocking write API subset used here.
type PointWriter interface {
	WritePoint(p *write.Point)
}

// Sink converts samples to points.
type Sink struct {
	w PointWriter
}

// New returns a sink writing to w.
func New(w PointWriter) *Sink {
	return &Sink{w: w}
}

// Dial connects to a server and returns the sink and a close function that
// flushes pending writes.
func Dial(url, token, org, bucket string) (*Sink, func()) {
	client := influxdb2.NewClient(url, token)
	wa := client.WriteAPI(org, bucket)
	go func() {
		for err := range wa.Errors() {
			log.Printf("influx: write error: %v", err)
		}
	}()
	log.Printf("influx: writing to %s org=%s bucket=%s", url, org, bucket)
	return New(wa), func() {
		wa.Flush()
		client.Close()
	}
}

// Point builds the point for one sample.
func Point(s env.Sample) *write.Point {
	return influxdb2.NewPointWithMeasurement(Measurement).
		AddTag("sensor", s.Source).
		AddTag("model", s.Model).
		AddField("pressure_pa", s.Pressure).
		AddField("temp_c", s.Temperature).
		AddField("out_of_range", s.OutOfRange).
		AddField("raw_pressure", int64(s.RawPressure)).
		AddField("raw_temperature", int64(s.RawTemperature)).
		SetTime(s.Time)
}

// Write queues one sample.
func (s *Sink) Write(smp env.Sample) {
	s.w.WritePoint(Point(smp))
}

// Attach writes every good sample of c.
func (s *Sink) Attach(c *poller.Component) {
	c.OnSample(s.Write)
}
