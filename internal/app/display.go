// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/pressure_node/internal/config"
	"github.com/relabs-tech/pressure_node/internal/env"
	"github.com/relabs-tech/pressure_node/internal/i2cbus"
)

// staleAfter marks a sample as old on the display.
const staleAfter = 5 * time.Minute

// DisplayData holds the latest sample for the display.
type DisplayData struct {
	mu     sync.RWMutex
	sample env.Sample
	have   bool
}

func (d *DisplayData) set(s env.Sample) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sample, d.have = s, true
}

func (d *DisplayData) get() (env.Sample, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sample, d.have
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// renderSample draws the page of one sensor.
func renderSample(id string, s env.Sample, have bool, now time.Time) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	if !have {
		drawLine(drawer, 0, 26, id)
		drawLine(drawer, 0, 39, "Waiting...")
		return img
	}

	header := id
	if now.Sub(s.Time) > staleAfter {
		header += " (old)"
	}
	drawLine(drawer, 0, 13, header)
	drawLine(drawer, 0, 26, fmt.Sprintf("%.0f Pa", s.Pressure))
	drawLine(drawer, 0, 39, fmt.Sprintf("%.2f mbar", s.PressureMbar))
	drawLine(drawer, 0, 52, fmt.Sprintf("%.1f C", s.Temperature))
	if s.OutOfRange {
		drawLine(drawer, 86, 52, "OOR")
	}
	return img
}

func showSplash(dev *ssd1306.Dev, node string) error {
	img, drawer := newFrame()
	drawLine(drawer, 10, 26, node)
	drawLine(drawer, 10, 43, "AMS5935")
	return dev.Draw(dev.Bounds(), img, image.Point{})
}

// RunDisplay shows the latest sample of the configured sensor on an SSD1306
// until ctx is cancelled.
func RunDisplay(ctx context.Context) error {
	cfg := config.Get()
	if cfg.Display.Sensor == "" {
		return fmt.Errorf("display.sensor is not configured")
	}

	bus, err := i2cbus.Open(cfg.I2C.Bus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, cfg.Display.Address, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Printf("display: initialized at 0x%02X", cfg.Display.Address)

	if err := showSplash(dev, cfg.Node.Name); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(cfg.MQTT.ClientID + "-display")
	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username).SetPassword(cfg.MQTT.Password)
	}
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTT.Broker)

	topic := fmt.Sprintf("%s/%s/sample", cfg.MQTT.TopicPrefix, cfg.Display.Sensor)
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s env.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("display: sample unmarshal error: %v", err)
			return
		}
		data.set(s)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", topic)

	ticker := time.NewTicker(cfg.Display.UpdateInterval)
	defer ticker.Stop()

	log.Println("display: starting update loop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			s, have := data.get()
			img := renderSample(cfg.Display.Sensor, s, have, t)
			if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}
