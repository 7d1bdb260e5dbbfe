// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mqttout

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/pressure_node/internal/ams5935"
	"github.com/relabs-tech/pressure_node/internal/env"
	"github.com/relabs-tech/pressure_node/internal/poller"
	"github.com/relabs-tech/pressure_node/internal/sensor"
)

// doneToken is an already completed mqtt.Token.
type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type message struct {
	topic    string
	retained bool
	payload  string
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []message
	err  error
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	var p string
	switch v := payload.(type) {
	case string:
		p = v
	case []byte:
		p = string(v)
	}
	f.msgs = append(f.msgs, message{topic, retained, p})
	return doneToken{f.err}
}

func (f *fakePublisher) find(topic string) (message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if f.msgs[i].topic == topic {
			return f.msgs[i], true
		}
	}
	return message{}, false
}

type stubDev struct{}

func (stubDev) Sense(r *ams5935.Reading) error {
	*r = ams5935.Reading{PressurePa: 10000.4, TemperatureC: 21.46}
	return nil
}
func (stubDev) Model() ams5935.Model { return ams5935.Model0200D }
func (stubDev) String() string       { return "stub" }

func TestAttachPublishesStates(t *testing.T) {
	pub := &fakePublisher{}
	e := New(pub, Options{Node: "Pressure Node", TopicPrefix: "pn", DiscoveryPrefix: "homeassistant"})

	p := sensor.New(sensor.PressureDescriptor("Duct pressure"))
	tc := sensor.New(sensor.TemperatureDescriptor("Duct temp"))
	c := poller.New(stubDev{}, poller.Config{ID: "duct", Pressure: p, Temperature: tc})
	if err := e.Attach(c, "AMS5935-0200-D"); err != nil {
		t.Fatal(err)
	}
	if err := c.Update(); err != nil {
		t.Fatal(err)
	}

	if m, ok := pub.find("pn/sensor/duct_pressure/state"); !ok || m.payload != "10000" || !m.retained {
		t.Fatalf("pressure state %+v, %v", m, ok)
	}
	if m, ok := pub.find("pn/sensor/duct_temp/state"); !ok || m.payload != "21.5" {
		t.Fatalf("temperature state %+v, %v", m, ok)
	}

	m, ok := pub.find("pn/duct/sample")
	if !ok {
		t.Fatal("no sample published")
	}
	var s env.Sample
	if err := json.Unmarshal([]byte(m.payload), &s); err != nil {
		t.Fatal(err)
	}
	if s.Source != "duct" || s.Pressure != 10000.4 {
		t.Fatalf("sample %+v", s)
	}

	m, ok = pub.find("homeassistant/sensor/pressure_node/duct_pressure/config")
	if !ok {
		t.Fatal("no discovery config")
	}
	var cfg map[string]interface{}
	if err := json.Unmarshal([]byte(m.payload), &cfg); err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"stat_t":       "pn/sensor/duct_pressure/state",
		"avty_t":       "pn/status",
		"dev_cla":      "pressure",
		"unit_of_meas": "Pa",
		"stat_cla":     "measurement",
		"uniq_id":      "pressure_node-duct_pressure",
	}
	for k, v := range want {
		if cfg[k] != v {
			t.Fatalf("discovery %s = %v, want %v", k, cfg[k], v)
		}
	}
}

func TestDiscoveryDisabled(t *testing.T) {
	pub := &fakePublisher{}
	e := New(pub, Options{Node: "node"})
	s := sensor.New(sensor.PressureDescriptor("p"))
	if err := e.Announce(s, "m"); err != nil {
		t.Fatal(err)
	}
	if len(pub.msgs) != 0 {
		t.Fatalf("published %+v", pub.msgs)
	}
	if got := e.StateTopic(s); got != "node/sensor/p/state" {
		t.Fatalf("StateTopic = %q", got)
	}
}

func TestAvailability(t *testing.T) {
	pub := &fakePublisher{}
	e := New(pub, Options{Node: "n", TopicPrefix: "pn"})
	if err := e.Online(); err != nil {
		t.Fatal(err)
	}
	if m, _ := pub.find("pn/status"); m.payload != PayloadOnline || !m.retained {
		t.Fatalf("status %+v", m)
	}

	pub.err = errors.New("not connected")
	if err := e.Offline(); err == nil {
		t.Fatal("Offline ignored publish error")
	}
}

func TestClientOptionsWill(t *testing.T) {
	o := ClientOptions("tcp://localhost:1883", "id", "u", "p", "pn")
	if !o.WillEnabled || o.WillTopic != "pn/status" || string(o.WillPayload) != PayloadOffline || !o.WillRetained {
		t.Fatalf("will %v %q %q %v", o.WillEnabled, o.WillTopic, o.WillPayload, o.WillRetained)
	}
	if o.Username != "u" {
		t.Fatalf("username %q", o.Username)
	}
}
