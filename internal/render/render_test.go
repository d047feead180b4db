package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/arkivio/archivecache/internal/archive"
)

func sampleSeries() archive.Series {
	return archive.Series{
		Samples: []archive.Sample{
			{Seconds: 1710500000, Micros: 0, Value: 1.5},
			{Seconds: 1710500001, Micros: 250000, Value: 2.25},
		},
	}
}

func TestCSVWritesTabSeparatedRows(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]archive.Series{"sys/d/f/m/a": sampleSeries()}

	if err := CSV(&buf, data); err != nil {
		t.Fatalf("CSV() error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (header + 2 rows): %q", len(lines), buf.String())
	}
	if lines[0] != "sys/d/f/m/a" {
		t.Fatalf("header = %q, want attribute name", lines[0])
	}
	if !strings.Contains(lines[1], "\t") {
		t.Fatalf("row %q is not tab-separated", lines[1])
	}
}

func TestCSVOrdersAttributesDeterministically(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]archive.Series{
		"z/attr": sampleSeries(),
		"a/attr": sampleSeries(),
	}
	if err := CSV(&buf, data); err != nil {
		t.Fatalf("CSV() error: %v", err)
	}
	out := buf.String()
	if strings.Index(out, "a/attr") > strings.Index(out, "z/attr") {
		t.Fatalf("expected a/attr before z/attr, got %q", out)
	}
}

func TestGrafanaJSONShape(t *testing.T) {
	data := map[string]archive.Series{"sys/d/f/m/a": sampleSeries()}

	out, err := GrafanaJSON(data)
	if err != nil {
		t.Fatalf("GrafanaJSON() error: %v", err)
	}

	var decoded []struct {
		Target     string        `json:"target"`
		DataPoints [][2]*float64 `json:"datapoints"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("GrafanaJSON() produced invalid json: %v\n%s", err, out)
	}
	if len(decoded) != 1 || decoded[0].Target != "sys/d/f/m/a" {
		t.Fatalf("decoded = %+v, want one target sys/d/f/m/a", decoded)
	}
	if len(decoded[0].DataPoints) != 2 {
		t.Fatalf("got %d datapoints, want 2", len(decoded[0].DataPoints))
	}
	if decoded[0].DataPoints[0][0] == nil || *decoded[0].DataPoints[0][0] != 1.5 {
		t.Fatalf("datapoints[0][0] = %v, want 1.5", decoded[0].DataPoints[0][0])
	}
}

func TestGrafanaJSONNonNumericValueEncodesAsNull(t *testing.T) {
	series := archive.Series{Samples: []archive.Sample{{Seconds: 1, Micros: 0, Value: "fault"}}}
	out, err := GrafanaJSON(map[string]archive.Series{"sys/d/f/m/a": series})
	if err != nil {
		t.Fatalf("GrafanaJSON() error: %v", err)
	}
	if !strings.Contains(string(out), "null") {
		t.Fatalf("expected null for non-numeric value, got %s", out)
	}
}
