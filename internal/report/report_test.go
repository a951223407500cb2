package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/missing-middle/internal/detail"
	"github.com/sells-group/missing-middle/internal/model"
)

func samplePopulation() *model.PopulationResponse {
	return &model.PopulationResponse{
		AgeGroupData: model.AgeGroupData{
			Year1: map[string]model.GenderCounts{
				"00 - 04": {Male: 100, Female: 90, Total: 190},
				"05 - 09": {Male: 80, Female: 85, Total: 165},
			},
			Year2: map[string]model.GenderCounts{
				"00 - 04": {Male: 110, Female: 80, Total: 190},
				"05 - 09": {Male: 70, Female: 95, Total: 165},
			},
			Changes: map[string]model.AgeGroupChange{
				"00 - 04": {MaleChangeAbsolute: 10, MaleChangePercent: 10, FemaleChangeAbsolute: -10, FemaleChangePercent: -11.11},
				"05 - 09": {MaleChangeAbsolute: -10, MaleChangePercent: -12.5, FemaleChangeAbsolute: 10, FemaleChangePercent: 11.76},
			},
			Sentences: []string{"The male population aged 00 - 04 increased by 10 people (10.0%)."},
			Order:     []string{"00 - 04", "05 - 09"},
		},
		RaceGroupData: model.RaceGroupData{
			Year1:     map[string]int{"white": 300, "asian": 55},
			Year2:     map[string]int{"white": 280, "asian": 75},
			Changes:   map[string]model.RaceGroupChange{"white": {ChangeAbsolute: -20}, "asian": {ChangeAbsolute: 20}},
			Sentences: []string{"The asian population increased by 20 people (36.36%)."},
		},
	}
}

func feature(id, town string, u1, u2 any) *geojson.Feature {
	return &geojson.Feature{ID: id, Properties: map[string]any{
		model.PropRegionID:      id,
		model.PropTown:          town,
		"housing_units_2010":    u1,
		"housing_units_2020":    u2,
		model.PropUnitsChange:   nil,
		model.PropUnitsChangePc: nil,
	}}
}

func cellStrings(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		out[i] = c.Value
	}
	return out
}

func TestWrite(t *testing.T) {
	housing := &model.HousingResponse{
		GeoJSON: &geojson.FeatureCollection{Features: []*geojson.Feature{
			feature("250173501002", "Somerville", 50.0, 70.0),
			feature("250173521001", "Cambridge", 300.0, 290.0),
			feature("250173501001", "Somerville", 100.0, 120.0),
		}},
		Sentences: []string{"Housing units increased by 40 (26.7%) across Somerville."},
	}
	ctx := detail.Context{Year1: "2010", Year2: "2020", City: "Somerville"}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, samplePopulation(), housing, ctx))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, f.Sheets, 4)
	assert.Equal(t, []string{SheetAge, SheetRace, SheetHousing, SheetInsights},
		[]string{f.Sheets[0].Name, f.Sheets[1].Name, f.Sheets[2].Name, f.Sheets[3].Name})

	age := f.Sheet[SheetAge]
	require.Len(t, age.Rows, 3)
	assert.Equal(t, "Men 2010", age.Rows[0].Cells[1].Value)
	assert.Equal(t, []string{"00 - 04", "100", "90", "190", "110", "80", "190"}, cellStrings(age.Rows[1])[:7])

	race := f.Sheet[SheetRace]
	require.Len(t, race.Rows, 3)
	assert.Equal(t, "white", race.Rows[1].Cells[0].Value, "canonical race order")
	assert.Equal(t, "asian", race.Rows[2].Cells[0].Value)
	assert.Equal(t, "20", race.Rows[2].Cells[3].Value)

	hs := f.Sheet[SheetHousing]
	require.Len(t, hs.Rows, 4, "header, two Somerville block groups, total")
	assert.Equal(t, "250173501001", hs.Rows[1].Cells[0].Value)
	assert.Equal(t, "250173501002", hs.Rows[2].Cells[0].Value)
	assert.Equal(t, "Total Somerville", hs.Rows[3].Cells[0].Value)
	assert.Equal(t, "150", hs.Rows[3].Cells[1].Value)
	assert.Equal(t, "40", hs.Rows[3].Cells[3].Value)

	ins := f.Sheet[SheetInsights]
	require.Len(t, ins.Rows, 5)
	assert.Equal(t, []string{"Filters", "Somerville, 2010 to 2020"}, cellStrings(ins.Rows[1]))
	assert.Equal(t, "Housing", ins.Rows[4].Cells[0].Value)
}

func TestWrite_WithoutHousing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, samplePopulation(), nil, detail.Context{Year1: "2010", Year2: "2020", City: "Somerville"}))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	assert.Len(t, f.Sheet[SheetHousing].Rows, 1)
}

func TestWrite_RequiresPopulation(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, nil, nil, detail.Context{}))
}
