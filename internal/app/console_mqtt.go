// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dustin/go-humanize"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/pressure_node/internal/config"
	"github.com/relabs-tech/pressure_node/internal/env"
)

// sampleFilter is the MQTT subscription matching every sample topic under
// prefix.
func sampleFilter(prefix string) string { return prefix + "/+/sample" }

// formatSample renders one console line.
func formatSample(s env.Sample, now time.Time) string {
	line := fmt.Sprintf("[%-8s] P=%8.0f Pa (%8.2f mbar)  T=%6.1f °C  n=%-2d %s",
		s.Source, s.Pressure, s.PressureMbar, s.Temperature, s.Samples,
		humanize.RelTime(s.Time, now, "ago", "from now"))
	if s.OutOfRange {
		line += "  OUT OF RANGE"
	}
	return line
}

// RunConsoleMQTT prints every sample published by the producer until ctx is
// cancelled.
func RunConsoleMQTT(ctx context.Context) error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(cfg.MQTT.ClientID + "-console")
	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username).SetPassword(cfg.MQTT.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTT.Broker)

	topic := sampleFilter(cfg.MQTT.TopicPrefix)
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s env.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: sample unmarshal error: %v", err)
			return
		}
		fmt.Println(formatSample(s, time.Now()))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", topic)

	<-ctx.Done()

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
