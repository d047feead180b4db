package render

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/arkivio/archivecache/internal/archive"
	"github.com/arkivio/archivecache/internal/timeutil"
)

// grafanaTarget is one entry of the Grafana JSON datasource response:
// a target name paired with [value, timestamp_ms] points.
type grafanaTarget struct {
	Target     string      `json:"target"`
	DataPoints []dataPoint `json:"datapoints"`
}

// dataPoint is one [value, t_ms] pair. Value marshals as JSON null when
// the underlying sample carries a non-numeric value such as a string, since
// the wire format has no slot for it and encoding/json rejects NaN.
// Booleans are encoded as 1 and 0.
type dataPoint struct {
	value   float64
	numeric bool
	tMs     float64
}

func (p dataPoint) MarshalJSON() ([]byte, error) {
	if !p.numeric {
		return []byte(fmt.Sprintf("[null,%s]", formatMillis(p.tMs))), nil
	}
	return []byte(fmt.Sprintf("[%s,%s]", formatFloat(p.value), formatMillis(p.tMs))), nil
}

func formatFloat(v float64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func formatMillis(v float64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// GrafanaJSON encodes data as a Grafana simple-json datasource response:
// one object per attribute, each holding [value, t_ms] pairs.
func GrafanaJSON(data map[string]archive.Series) ([]byte, error) {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	targets := make([]grafanaTarget, 0, len(names))
	for _, name := range names {
		series := data[name]
		points := make([]dataPoint, 0, len(series.Samples))
		for _, samp := range series.Samples {
			v, ok := toFloat(samp.Value)
			tMs := float64(samp.Instant()) / float64(timeutil.MicrosPerSecond) * 1000
			points = append(points, dataPoint{value: v, numeric: ok, tMs: tMs})
		}
		targets = append(targets, grafanaTarget{Target: name, DataPoints: points})
	}

	out, err := json.Marshal(targets)
	if err != nil {
		return nil, fmt.Errorf("render: marshaling grafana json: %w", err)
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case int:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
