package env

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/relabs-tech/pressure_node/internal/ams5935"
)

func TestFromReading(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := ams5935.Reading{
		Measurement:  ams5935.Measurement{Pressure: 8388608, Temperature: 1 << 23, Samples: 4, Time: ts},
		PressurePa:   10000,
		TemperatureC: 42.5,
	}
	s := FromReading("duct", ams5935.Model0200D, r)
	if s.PressureMbar != 100 || s.Model != "AMS5935-0200-D" || s.Samples != 4 || !s.Time.Equal(ts) {
		t.Fatalf("sample = %+v", s)
	}

	b, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"source":"duct"`, `"pressure_pa":10000`, `"temp_c":42.5`, `"out_of_range":false`} {
		if !strings.Contains(string(b), key) {
			t.Fatalf("%s missing from %s", key, b)
		}
	}
}
