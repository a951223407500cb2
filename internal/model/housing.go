package model

import "github.com/twpayne/go-geom/encoding/geojson"

// GeoJSON feature property keys written by the housing endpoint.
const (
	PropRegionID      = "GEOID20"
	PropTown          = "TOWN"
	PropZ             = "z"
	PropUnitsChange   = "housing_units_change"
	PropUnitsChangePc = "housing_units_change_percent"
)

// HousingRequest is the body of POST /api/housing. The city change fields are
// optional; insight sentences are produced only when the absolute change is
// present and non-zero.
type HousingRequest struct {
	Year1              string   `json:"year1"`
	Year2              string   `json:"year2"`
	City               string   `json:"city"`
	CityChangeAbsolute *int     `json:"city_change_absolute"`
	CityChangePercent  *float64 `json:"city_change_percent"`
}

// HousingResponse is the success body of POST /api/housing.
type HousingResponse struct {
	GeoJSON   *geojson.FeatureCollection `json:"geojson"`
	Sentences []string                   `json:"sentences"`
}

// CityHousing holds town-wide housing unit totals for the two years.
type CityHousing struct {
	Year1          int     `json:"year1"`
	Year2          int     `json:"year2"`
	ChangeAbsolute int     `json:"change_absolute"`
	ChangePercent  float64 `json:"change_percent"`
}

// FeatureString returns a string property, or "" when absent or not a string.
func FeatureString(f *geojson.Feature, key string) string {
	if f == nil || f.Properties == nil {
		return ""
	}
	s, _ := f.Properties[key].(string)
	return s
}

// FeatureNumber returns a numeric property. The bool is false when the
// property is absent, null, or not a number.
func FeatureNumber(f *geojson.Feature, key string) (float64, bool) {
	if f == nil || f.Properties == nil {
		return 0, false
	}
	switch v := f.Properties[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
