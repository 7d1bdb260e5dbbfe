// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mqttout publishes sensor states, availability, Home Assistant
// discovery and raw samples over MQTT.
package mqttout

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/pressure_node/internal/env"
	"github.com/relabs-tech/pressure_node/internal/poller"
	"github.com/relabs-tech/pressure_node/internal/sensor"
)

// Availability payloads.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Publisher is the part of mqtt.Client used here.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Options names the topics.
type Options struct {
	Node        string
	TopicPrefix string
	// DiscoveryPrefix enables Home Assistant discovery when not empty.
	DiscoveryPrefix string
}

// Exporter publishes for the pollers attached to it.
type Exporter struct {
	pub  Publisher
	opts Options
}

// New returns an exporter. The topic prefix defaults to the node name.
func New(pub Publisher, opts Options) *Exporter {
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = opts.Node
	}
	return &Exporter{pub: pub, opts: opts}
}

// StatusTopic is the availability topic for prefix.
func StatusTopic(prefix string) string { return prefix + "/status" }

// ClientOptions returns paho options with a retained "offline" will on the
// status topic.
func ClientOptions(broker, clientID, username, password, prefix string) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetWill(StatusTopic(prefix), PayloadOffline, 1, true)
	if username != "" {
		opts.SetUsername(username).SetPassword(password)
	}
	return opts
}

// StateTopic returns the state topic of s.
func (e *Exporter) StateTopic(s *sensor.Sensor) string {
	return fmt.Sprintf("%s/sensor/%s/state", e.opts.TopicPrefix, s.ObjectID())
}

// SampleTopic returns the JSON sample topic of a sensor id.
func (e *Exporter) SampleTopic(id string) string {
	return fmt.Sprintf("%s/%s/sample", e.opts.TopicPrefix, id)
}

// DiscoveryTopic returns the Home Assistant config topic of s.
func (e *Exporter) DiscoveryTopic(s *sensor.Sensor) string {
	return fmt.Sprintf("%s/sensor/%s/%s/config", e.opts.DiscoveryPrefix, sensor.ObjectID(e.opts.Node), s.ObjectID())
}

type discoveryDevice struct {
	Identifiers  []string `json:"ids"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"mf"`
	Model        string   `json:"mdl"`
}

type discoveryConfig struct {
	Name              string          `json:"name"`
	StateTopic        string          `json:"stat_t"`
	AvailabilityTopic string          `json:"avty_t"`
	UniqueID          string          `json:"uniq_id"`
	DeviceClass       string          `json:"dev_cla,omitempty"`
	Unit              string          `json:"unit_of_meas,omitempty"`
	StateClass        string          `json:"stat_cla,omitempty"`
	Device            discoveryDevice `json:"dev"`
}

// DiscoveryPayload returns the retained discovery config of s.
func (e *Exporter) DiscoveryPayload(s *sensor.Sensor, model string) ([]byte, error) {
	d := s.Descriptor()
	node := sensor.ObjectID(e.opts.Node)
	return json.Marshal(discoveryConfig{
		Name:              d.Name,
		StateTopic:        e.StateTopic(s),
		AvailabilityTopic: StatusTopic(e.opts.TopicPrefix),
		UniqueID:          node + "-" + d.ObjectID,
		DeviceClass:       d.DeviceClass,
		Unit:              d.Unit,
		StateClass:        d.StateClass,
		Device: discoveryDevice{
			Identifiers:  []string{node},
			Name:         e.opts.Node,
			Manufacturer: "Amsys",
			Model:        model,
		},
	})
}

func (e *Exporter) publish(topic string, retained bool, payload interface{}) error {
	token := e.pub.Publish(topic, 0, retained, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

// Online marks the node available.
func (e *Exporter) Online() error {
	return e.publish(StatusTopic(e.opts.TopicPrefix), true, PayloadOnline)
}

// Offline marks the node unavailable. Used on clean shutdown; the will
// covers the unclean case.
func (e *Exporter) Offline() error {
	return e.publish(StatusTopic(e.opts.TopicPrefix), true, PayloadOffline)
}

// Announce publishes the discovery config of s when discovery is enabled.
func (e *Exporter) Announce(s *sensor.Sensor, model string) error {
	if e.opts.DiscoveryPrefix == "" {
		return nil
	}
	payload, err := e.DiscoveryPayload(s, model)
	if err != nil {
		return err
	}
	return e.publish(e.DiscoveryTopic(s), true, payload)
}

// PublishSample publishes s as retained JSON on its sample topic.
func (e *Exporter) PublishSample(s env.Sample) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	return e.publish(e.SampleTopic(s.Source), true, payload)
}

// Attach announces the sensors of c and publishes their states and
// samples from now on.
func (e *Exporter) Attach(c *poller.Component, model string) error {
	for _, s := range []*sensor.Sensor{c.Temperature(), c.Pressure()} {
		if s == nil {
			continue
		}
		if err := e.Announce(s, model); err != nil {
			return err
		}
		s := s
		topic := e.StateTopic(s)
		s.AddOnStateCallback(func(v float64) {
			if err := e.publish(topic, true, s.FormatState(v)); err != nil {
				log.Printf("MQTT publish error (%s): %v", s.ObjectID(), err)
			}
		})
	}
	c.OnSample(func(smp env.Sample) {
		if err := e.PublishSample(smp); err != nil {
			log.Printf("MQTT publish error (%s sample): %v", smp.Source, err)
		}
	})
	return nil
}
