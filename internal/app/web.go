// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/relabs-tech/pressure_node/internal/config"
	"github.com/relabs-tech/pressure_node/internal/env"
	"github.com/relabs-tech/pressure_node/internal/history"
)

// defaultHistoryWindow is used when /api/history has no "since" parameter.
const defaultHistoryWindow = time.Hour

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// latest keeps the most recent sample of each sensor and fans them out to
// websocket clients.
type latest struct {
	mu      sync.RWMutex
	samples map[string]env.Sample
	clients map[*websocket.Conn]bool
}

func newLatest() *latest {
	return &latest{
		samples: map[string]env.Sample{},
		clients: map[*websocket.Conn]bool{},
	}
}

// update stores s and sends it to every connected client.
func (l *latest) update(s env.Sample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples[s.Source] = s
	for conn := range l.clients {
		if err := conn.WriteJSON(s); err != nil {
			log.Printf("web: websocket write error: %v", err)
			conn.Close()
			delete(l.clients, conn)
		}
	}
}

func (l *latest) get(id string) (env.Sample, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.samples[id]
	return s, ok
}

// all returns the samples sorted by sensor id.
func (l *latest) all() []env.Sample {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]env.Sample, 0, len(l.samples))
	for _, s := range l.samples {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// register adds conn and sends it the current samples.
func (l *latest) register(conn *websocket.Conn) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.samples {
		if err := conn.WriteJSON(s); err != nil {
			return err
		}
	}
	l.clients[conn] = true
	return nil
}

func (l *latest) unregister(conn *websocket.Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.clients, conn)
}

// sensorView is the API form of a sample.
type sensorView struct {
	env.Sample
	Age string `json:"age"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

// webServer serves the API. store may be nil when no datalog is configured.
type webServer struct {
	latest *latest
	store  *history.Store
	now    func() time.Time
}

func (ws *webServer) view(s env.Sample) sensorView {
	return sensorView{Sample: s, Age: humanize.RelTime(s.Time, ws.now(), "ago", "from now")}
}

func (ws *webServer) handleSensors(w http.ResponseWriter, r *http.Request) {
	samples := ws.latest.all()
	views := make([]sensorView, 0, len(samples))
	for _, s := range samples {
		views = append(views, ws.view(s))
	}
	writeJSON(w, views)
}

func (ws *webServer) handleSensor(w http.ResponseWriter, r *http.Request) {
	s, ok := ws.latest.get(r.PathValue("id"))
	if !ok {
		http.Error(w, "no data yet", http.StatusNotFound)
		return
	}
	writeJSON(w, ws.view(s))
}

// historySamples reads the samples of the {id} path value since the
// "since" query parameter, a duration such as "30m".
func (ws *webServer) historySamples(w http.ResponseWriter, r *http.Request) ([]env.Sample, bool) {
	if ws.store == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return nil, false
	}
	window := defaultHistoryWindow
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, fmt.Sprintf("invalid since %q", v), http.StatusBadRequest)
			return nil, false
		}
		window = d
	}
	samples, err := ws.store.Since(r.PathValue("id"), ws.now().Add(-window))
	if err != nil {
		log.Printf("web: history error: %v", err)
		http.Error(w, "history error", http.StatusInternalServerError)
		return nil, false
	}
	return samples, true
}

func (ws *webServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	samples, ok := ws.historySamples(w, r)
	if !ok {
		return
	}
	if samples == nil {
		samples = []env.Sample{}
	}
	writeJSON(w, samples)
}

func (ws *webServer) handlePlot(w http.ResponseWriter, r *http.Request) {
	samples, ok := ws.historySamples(w, r)
	if !ok {
		return
	}
	if len(samples) == 0 {
		http.Error(w, "no samples", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := history.WritePNG(w, r.PathValue("id"), samples); err != nil {
		log.Printf("web: plot error: %v", err)
	}
}

func (ws *webServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if err := ws.latest.register(conn); err != nil {
		log.Printf("web: websocket write error: %v", err)
		return
	}
	defer ws.latest.unregister(conn)

	// Reads only detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// handler returns the routes of the web app.
func (ws *webServer) handler(staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sensors", ws.handleSensors)
	mux.HandleFunc("GET /api/sensors/{id}", ws.handleSensor)
	mux.HandleFunc("GET /api/history/{id}", ws.handleHistory)
	mux.HandleFunc("GET /api/history/{id}/plot.png", ws.handlePlot)
	mux.HandleFunc("/ws", ws.handleWS)
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

// RunWeb serves the latest samples, the datalog and a live websocket stream
// fed from MQTT until ctx is cancelled.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()
	ws := &webServer{latest: newLatest(), now: time.Now}

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path, cfg.History.Retention)
		if err != nil {
			return err
		}
		defer store.Close()
		ws.store = store
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetClientID(cfg.MQTT.ClientID + "-web")
	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username).SetPassword(cfg.MQTT.Password)
	}
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTT.Broker)

	topic := sampleFilter(cfg.MQTT.TopicPrefix)
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s env.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("web: MQTT payload unmarshal error: %v", err)
			return
		}
		ws.latest.update(s)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", topic)

	srv := &http.Server{Addr: cfg.Web.Listen, Handler: ws.handler(cfg.Web.StaticDir)}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Printf("web server listening on %s", cfg.Web.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
