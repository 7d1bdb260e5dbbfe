package env

import (
	"time"

	"github.com/relabs-tech/pressure_node/internal/ams5935"
)

// Sample represents a single AMS5935 measurement as published on MQTT.
type Sample struct {
	Source string `json:"source"` // sensor id from the config
	Model  string `json:"model"`

	Temperature  float64 `json:"temp_c"`        // °C
	Pressure     float64 `json:"pressure_pa"`   // Pa
	PressureMbar float64 `json:"pressure_mbar"` // 1 mbar = 100 Pa
	OutOfRange   bool    `json:"out_of_range"`

	RawPressure    uint32 `json:"raw_pressure"`
	RawTemperature uint32 `json:"raw_temperature"`
	Samples        int    `json:"samples"`

	Time time.Time `json:"time"`
}

// FromReading builds the published form of a converted reading.
func FromReading(source string, model ams5935.Model, r ams5935.Reading) Sample {
	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}
	return Sample{
		Source:         source,
		Model:          model.String(),
		Temperature:    r.TemperatureC,
		Pressure:       r.PressurePa,
		PressureMbar:   r.PressurePa / 100.0,
		OutOfRange:     r.OutOfRange,
		RawPressure:    r.Pressure,
		RawTemperature: r.Temperature,
		Samples:        r.Samples,
		Time:           t,
	}
}
