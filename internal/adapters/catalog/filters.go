// Package catalog provides the Planet Data API v1 search client.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
	"gopkg.in/yaml.v3"
)

// Filter is one node of a Data API search filter tree. It serializes to
// the API's JSON filter grammar.
type Filter struct {
	Type   string      `json:"type"`
	Config interface{} `json:"config,omitempty"`

	FieldName string `json:"field_name,omitempty"`
}

// And combines filters; every branch must match.
func And(filters ...Filter) Filter {
	return Filter{Type: "AndFilter", Config: filters}
}

// GeometryFilter matches scenes intersecting the given GeoJSON geometry.
func GeometryFilter(geometry *geojson.Geometry) Filter {
	return Filter{Type: "GeometryFilter", FieldName: "geometry", Config: geometry}
}

// DateRangeConfig bounds a date field. RFC 3339 timestamps; zero values
// leave that side open.
type DateRangeConfig struct {
	GTE string `json:"gte,omitempty" yaml:"gte,omitempty"`
	LTE string `json:"lte,omitempty" yaml:"lte,omitempty"`
	GT  string `json:"gt,omitempty" yaml:"gt,omitempty"`
	LT  string `json:"lt,omitempty" yaml:"lt,omitempty"`
}

// DateRange matches scenes whose field falls in the configured interval.
func DateRange(field string, config DateRangeConfig) Filter {
	return Filter{Type: "DateRangeFilter", FieldName: field, Config: config}
}

// StringIn matches scenes whose field equals any of the given values.
func StringIn(field string, values ...string) Filter {
	return Filter{Type: "StringInFilter", FieldName: field, Config: values}
}

// RangeConfig bounds a numeric field.
type RangeConfig struct {
	GTE *float64 `json:"gte,omitempty" yaml:"gte,omitempty"`
	LTE *float64 `json:"lte,omitempty" yaml:"lte,omitempty"`
	GT  *float64 `json:"gt,omitempty" yaml:"gt,omitempty"`
	LT  *float64 `json:"lt,omitempty" yaml:"lt,omitempty"`
}

// Range matches scenes whose numeric field falls in the configured bounds.
func Range(field string, config RangeConfig) Filter {
	return Filter{Type: "RangeFilter", FieldName: field, Config: config}
}

// SearchConfig is a saved search definition, loadable from YAML. It maps
// onto a quick-search request without hand-building the filter tree.
type SearchConfig struct {
	Name       string   `yaml:"name"`
	ItemTypes  []string `yaml:"item_types"`
	Instrument []string `yaml:"instrument,omitempty"`
	StripIDs   []string `yaml:"strip_ids,omitempty"`

	Acquired   *DateRangeConfig `yaml:"acquired,omitempty"`
	CloudCover *RangeConfig     `yaml:"cloud_cover,omitempty"`

	// AOI is an inline GeoJSON geometry document.
	AOI json.RawMessage `yaml:"-"`
	// AOIFile points at a GeoJSON file holding the area of interest.
	AOIFile string `yaml:"aoi_file,omitempty"`
}

// LoadSearchConfig reads a saved search definition from a YAML file.
func LoadSearchConfig(path string) (*SearchConfig, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("reading search config: %w", err)
	}

	var cfg SearchConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing search config: %w", err)
	}
	if len(cfg.ItemTypes) == 0 {
		return nil, fmt.Errorf("search config %s: item_types must not be empty", path)
	}

	if cfg.AOIFile != "" {
		aoi, err := os.ReadFile(cfg.AOIFile) //#nosec G304 -- path from operator config
		if err != nil {
			return nil, fmt.Errorf("reading AOI file: %w", err)
		}
		cfg.AOI = aoi
	}

	return &cfg, nil
}

// BuildFilter assembles the config's filter tree.
func (c *SearchConfig) BuildFilter() (Filter, error) {
	var filters []Filter

	if len(c.AOI) > 0 {
		geom, err := geojson.UnmarshalGeometry(c.AOI)
		if err != nil {
			return Filter{}, fmt.Errorf("parsing AOI geometry: %w", err)
		}
		filters = append(filters, GeometryFilter(geom))
	}
	if c.Acquired != nil {
		filters = append(filters, DateRange("acquired", *c.Acquired))
	}
	if len(c.Instrument) > 0 {
		filters = append(filters, StringIn("instrument", c.Instrument...))
	}
	if len(c.StripIDs) > 0 {
		filters = append(filters, StringIn("strip_id", c.StripIDs...))
	}
	if c.CloudCover != nil {
		filters = append(filters, Range("cloud_cover", *c.CloudCover))
	}

	if len(filters) == 0 {
		return Filter{}, fmt.Errorf("search config %s selects everything; add at least one filter", c.Name)
	}
	if len(filters) == 1 {
		return filters[0], nil
	}
	return And(filters...), nil
}
