package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid", "xml", "", true},
		{"invalid with message", "csv", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormat_InvalidErrorMessage(t *testing.T) {
	_, err := ParseFormat("xml")
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), "json, table, or yaml") {
		t.Errorf("error message should mention valid formats, got: %v", err)
	}
}

type counters struct {
	Started int64 `json:"started"`
	Failed  int64 `json:"failed"`
}

type sample struct {
	Stream  string   `json:"stream"`
	Created bool     `json:"created"`
	Skipped string   `json:"-"`
	Plain   int      `json:",omitempty"`
	Metrics counters `json:"metrics"`
}

func TestRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, &buf)

	if err := r.Render(sample{Stream: "i-abc", Created: true}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["stream"] != "i-abc" || got["created"] != true {
		t.Errorf("unexpected JSON: %s", buf.String())
	}
}

func TestRenderer_YAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, &buf)

	if err := r.Render(map[string]string{"key": "value"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "key: value") {
		t.Errorf("YAML output missing expected content: %s", buf.String())
	}
}

func TestRenderer_Table_Struct(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	data := &sample{Stream: "i-abc", Created: true, Plain: 7, Metrics: counters{Started: 3, Failed: 1}}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"stream:", "i-abc", "created:", "true", "plain:", "metrics.started:", "metrics.failed:"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "skipped") {
		t.Errorf("json:\"-\" fields should not render:\n%s", got)
	}
}

func TestRenderer_Table_MapSorted(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	if err := r.Render(map[string]int{"b": 2, "a": 1, "c": 3}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "a:") || !strings.HasPrefix(lines[2], "c:") {
		t.Errorf("map rows should be sorted:\n%s", buf.String())
	}
}

func TestRenderer_UnknownFormat(t *testing.T) {
	r := NewRendererWithWriter(Format("xml"), &bytes.Buffer{})
	if err := r.Render("x"); err == nil {
		t.Error("expected error for unknown format")
	}
}
