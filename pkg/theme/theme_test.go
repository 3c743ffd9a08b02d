package theme

import (
	"bytes"
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultJSONShape(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Default(), FormatJSON); err != nil {
		t.Fatalf("Encode json: %v", err)
	}

	var doc struct {
		Content []string `json:"content"`
		Theme   struct {
			Extend struct {
				Colors     map[string]any      `json:"colors"`
				FontFamily map[string][]string `json:"fontFamily"`
			} `json:"extend"`
		} `json:"theme"`
		Plugins []string `json:"plugins"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Content) != 2 || doc.Content[1] != "./src/**/*.{vue,js,ts,jsx,tsx}" {
		t.Fatalf("unexpected content globs: %v", doc.Content)
	}
	if got := doc.Theme.Extend.Colors["reach-blue"]; got != "#2563eb" {
		t.Fatalf("reach-blue = %v", got)
	}
	gray, ok := doc.Theme.Extend.Colors["warm-gray"].(map[string]any)
	if !ok || gray["300"] != "#d6d3d1" {
		t.Fatalf("warm-gray scale = %v", doc.Theme.Extend.Colors["warm-gray"])
	}
	if fonts := doc.Theme.Extend.FontFamily["child-friendly"]; len(fonts) != 4 || fonts[0] != "Comic Neue" {
		t.Fatalf("child-friendly fonts = %v", fonts)
	}
	if doc.Plugins == nil || len(doc.Plugins) != 0 {
		t.Fatalf("plugins should be an empty list, got %v", doc.Plugins)
	}
}

func TestDefaultYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, Default(), "YAML"); err != nil {
		t.Fatalf("Encode yaml: %v", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	colors := doc["theme"].(map[string]any)["extend"].(map[string]any)["colors"].(map[string]any)
	if colors["reach-orange"] != "#f97316" {
		t.Fatalf("yaml missing reach-orange token:\n%s", buf.String())
	}
}

func TestDefaultReturnsCopy(t *testing.T) {
	m := Default()
	m.Theme.Extend.Colors["reach-blue"] = Hex("#000000")
	if Default().Theme.Extend.Colors["reach-blue"].Value != "#2563eb" {
		t.Fatalf("Default must not share state between calls")
	}
}

func TestEncodeRejectsUnknownFormat(t *testing.T) {
	if err := Encode(&bytes.Buffer{}, Default(), "toml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
