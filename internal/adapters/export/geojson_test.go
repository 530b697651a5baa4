package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"

	"github.com/mfriedel/looksel/internal/application"
	"github.com/mfriedel/looksel/internal/domain"
)

func testPolygon() orb.Polygon {
	return orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}
}

func TestWriteResultRows(t *testing.T) {
	writer := NewGeoJSONWriter()
	rows := []application.ResultRow{
		{
			Geometry: testPolygon(),
			Columns: map[string]interface{}{
				"pair_id":   "a-b",
				"ovlp_area": 90.0,
			},
		},
	}

	var buf bytes.Buffer
	if err := writer.Write(&buf, rows); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry   json.RawMessage        `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Type != "FeatureCollection" {
		t.Errorf("type = %q, want FeatureCollection", doc.Type)
	}
	if len(doc.Features) != 1 {
		t.Fatalf("features = %d, want 1", len(doc.Features))
	}
	props := doc.Features[0].Properties
	if props["pair_id"] != "a-b" || props["ovlp_area"] != 90.0 {
		t.Errorf("properties = %v", props)
	}
}

func TestWriteEmptyRows(t *testing.T) {
	var buf bytes.Buffer
	if err := NewGeoJSONWriter().Write(&buf, nil); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("empty collection is not valid JSON: %v", err)
	}
}

func TestWriteSceneIDs(t *testing.T) {
	groups := []domain.MultilookGroup{
		domain.NewMultilookGroup([]string{"c", "a"}, testPolygon(), 1),
		domain.NewMultilookGroup([]string{"c", "b"}, testPolygon(), 1),
	}

	var buf bytes.Buffer
	if err := WriteSceneIDs(&buf, groups); err != nil {
		t.Fatalf("WriteSceneIDs() error = %v", err)
	}
	if got, want := buf.String(), "a\nb\nc\n"; got != want {
		t.Errorf("scene ids = %q, want %q", got, want)
	}
}

func TestWriteSceneIDsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSceneIDs(&buf, nil); err != nil {
		t.Fatalf("WriteSceneIDs() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("no groups must write nothing, got %q", buf.String())
	}
}

func TestWritePairSceneIDs(t *testing.T) {
	pairs := []domain.OverlapPair{
		{ID1: "b", ID2: "a"},
		{ID1: "a", ID2: "b"},
	}

	var buf bytes.Buffer
	if err := WritePairSceneIDs(&buf, pairs); err != nil {
		t.Fatalf("WritePairSceneIDs() error = %v", err)
	}
	if got, want := buf.String(), "a\nb\n"; got != want {
		t.Errorf("scene ids = %q, want %q", got, want)
	}
}
