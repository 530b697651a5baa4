package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFilterSerialization(t *testing.T) {
	f := And(
		StringIn("instrument", "PS2", "PSB.SD"),
		DateRange("acquired", DateRangeConfig{GTE: "2020-06-01T00:00:00Z", LT: "2020-07-01T00:00:00Z"}),
	)

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshaling filter: %v", err)
	}

	var doc struct {
		Type   string `json:"type"`
		Config []struct {
			Type      string          `json:"type"`
			FieldName string          `json:"field_name"`
			Config    json.RawMessage `json:"config"`
		} `json:"config"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("filter JSON malformed: %v", err)
	}
	if doc.Type != "AndFilter" || len(doc.Config) != 2 {
		t.Fatalf("filter tree = %s", data)
	}
	if doc.Config[0].Type != "StringInFilter" || doc.Config[0].FieldName != "instrument" {
		t.Errorf("first branch = %+v", doc.Config[0])
	}
	if doc.Config[1].Type != "DateRangeFilter" || doc.Config[1].FieldName != "acquired" {
		t.Errorf("second branch = %+v", doc.Config[1])
	}
}

func TestRangeFilterOmitsUnsetBounds(t *testing.T) {
	limit := 0.2
	data, err := json.Marshal(Range("cloud_cover", RangeConfig{LTE: &limit}))
	if err != nil {
		t.Fatalf("marshaling filter: %v", err)
	}

	var doc struct {
		Config map[string]float64 `json:"config"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("filter JSON malformed: %v", err)
	}
	if len(doc.Config) != 1 || doc.Config["lte"] != 0.2 {
		t.Errorf("config = %v, want only lte", doc.Config)
	}
}

func TestLoadSearchConfig(t *testing.T) {
	dir := t.TempDir()

	aoiPath := filepath.Join(dir, "aoi.geojson")
	if err := os.WriteFile(aoiPath, []byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`), 0600); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(dir, "search.yaml")
	cfgYAML := `name: june-doves
item_types: [PSScene]
instrument: [PS2, PSB.SD]
acquired:
  gte: "2020-06-01T00:00:00Z"
  lt: "2020-07-01T00:00:00Z"
cloud_cover:
  lte: 0.2
aoi_file: ` + aoiPath + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadSearchConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadSearchConfig() error = %v", err)
	}
	if cfg.Name != "june-doves" || len(cfg.ItemTypes) != 1 {
		t.Errorf("config = %+v", cfg)
	}
	if len(cfg.AOI) == 0 {
		t.Error("AOI file content not loaded")
	}

	filter, err := cfg.BuildFilter()
	if err != nil {
		t.Fatalf("BuildFilter() error = %v", err)
	}
	if filter.Type != "AndFilter" {
		t.Errorf("filter type = %q, want AndFilter", filter.Type)
	}
	branches, ok := filter.Config.([]Filter)
	if !ok || len(branches) != 4 {
		t.Errorf("filter branches = %v, want geometry, acquired, instrument, cloud_cover", filter.Config)
	}
}

func TestLoadSearchConfigRejectsEmptyItemTypes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("name: bad\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSearchConfig(path); err == nil {
		t.Fatal("config without item_types must fail")
	}
}

func TestBuildFilterRequiresAtLeastOnePredicate(t *testing.T) {
	cfg := SearchConfig{Name: "empty", ItemTypes: []string{"PSScene"}}
	if _, err := cfg.BuildFilter(); err == nil {
		t.Fatal("unconstrained search must be rejected")
	}
}
