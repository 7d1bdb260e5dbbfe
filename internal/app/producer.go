// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/pressure_node/internal/config"
	"github.com/relabs-tech/pressure_node/internal/history"
	"github.com/relabs-tech/pressure_node/internal/influxout"
	"github.com/relabs-tech/pressure_node/internal/metrics"
	"github.com/relabs-tech/pressure_node/internal/mqttout"
	"github.com/relabs-tech/pressure_node/internal/nmeaout"
	"github.com/relabs-tech/pressure_node/internal/poller"
)

// pruneInterval is how often the history datalog drops expired rows.
const pruneInterval = 10 * time.Minute

// RunProducer polls every configured transducer and publishes the results
// on MQTT and the configured outputs until ctx is cancelled.
func RunProducer(ctx context.Context, mock bool) error {
	log.Println("starting pressure-node producer")

	cfg := config.Get()

	bus, err := openBus(cfg, mock)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	comps, err := buildComponents(bus, cfg)
	if err != nil {
		return err
	}

	// --- connect to MQTT ---
	opts := mqttout.ClientOptions(cfg.MQTT.Broker, cfg.MQTT.ClientID,
		cfg.MQTT.Username, cfg.MQTT.Password, cfg.MQTT.TopicPrefix)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)
	log.Printf("connected to MQTT broker at %s", cfg.MQTT.Broker)

	exp := mqttout.New(client, mqttout.Options{
		Node:            cfg.Node.Name,
		TopicPrefix:     cfg.MQTT.TopicPrefix,
		DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix,
	})
	for i, c := range comps {
		if err := exp.Attach(c, cfg.Sensors[i].ModelID.String()); err != nil {
			return err
		}
	}
	if err := exp.Online(); err != nil {
		return err
	}
	defer func() {
		if err := exp.Offline(); err != nil {
			log.Printf("MQTT offline publish error: %v", err)
		}
	}()

	closers, err := attachOutputs(ctx, cfg, comps)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()
	if err != nil {
		return err
	}

	return runComponents(ctx, comps)
}

// attachOutputs wires the optional outputs of cfg to every component. The
// returned functions release them and are valid even when err is not nil.
func attachOutputs(ctx context.Context, cfg *config.Config, comps []*poller.Component) ([]func(), error) {
	var closers []func()

	if cfg.Metrics.Listen != "" {
		m := metrics.New()
		for _, c := range comps {
			m.Attach(c)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
		go func() {
			log.Printf("metrics: listening on %s", cfg.Metrics.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics: %v", err)
			}
		}()
		closers = append(closers, func() { srv.Close() })
	}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path, cfg.History.Retention)
		if err != nil {
			return closers, err
		}
		for _, c := range comps {
			store.Attach(c)
		}
		go pruneLoop(ctx, store)
		closers = append(closers, func() { store.Close() })
		log.Printf("history: logging to %s, retention %s", cfg.History.Path, cfg.History.Retention)
	}

	if cfg.Influx.URL != "" {
		sink, closeFn := influxout.Dial(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket)
		for _, c := range comps {
			sink.Attach(c)
		}
		closers = append(closers, closeFn)
	}

	if cfg.XDR.Port != "" {
		port, err := nmeaout.OpenSerial(cfg.XDR.Port, cfg.XDR.Baud)
		if err != nil {
			return closers, err
		}
		w := nmeaout.New(port, cfg.XDR.Talker)
		for _, c := range comps {
			w.Attach(c)
		}
		closers = append(closers, func() { port.Close() })
	}

	return closers, nil
}

func pruneLoop(ctx context.Context, store *history.Store) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			n, err := store.Prune(t)
			if err != nil {
				log.Printf("history: prune error: %v", err)
			} else if n > 0 {
				log.Printf("history: pruned %d samples", n)
			}
		}
	}
}

// runComponents runs every component until ctx is cancelled.
func runComponents(ctx context.Context, comps []*poller.Component) error {
	var wg sync.WaitGroup
	for _, c := range comps {
		wg.Add(1)
		go func(c *poller.Component) {
			defer wg.Done()
			c.Run(ctx)
		}(c)
	}
	wg.Wait()
	log.Println("producer: all sensors stopped")
	return nil
}
