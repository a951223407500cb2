package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/missing-middle/internal/dataset"
	"github.com/sells-group/missing-middle/internal/model"
)

// buildTable creates a table with every age, race and housing column for the
// given years. cellValue supplies each cell for each town row.
func buildTable(t *testing.T, years []string, towns []string, cellValue func(town, column string) any) *dataset.Table {
	t.Helper()

	cols := []string{dataset.ColTown}
	for _, y := range years {
		for _, b := range AgeBrackets {
			cols = append(cols, "male_"+b.Column+"_"+y, "female_"+b.Column+"_"+y)
		}
		for _, r := range raceColumns {
			cols = append(cols, "pop_"+r.Column+"_"+y)
		}
		cols = append(cols, "housing_units_"+y)
	}

	var rows [][]any
	for _, town := range towns {
		row := []any{town}
		for _, c := range cols[1:] {
			row = append(row, cellValue(town, c))
		}
		rows = append(rows, row)
	}

	tbl, err := dataset.NewTable(cols, rows)
	require.NoError(t, err)
	return tbl
}

func TestAgeCounts_MergesBrackets(t *testing.T) {
	tbl := buildTable(t, []string{"2010"}, []string{"Somerville", "Somerville", "Cambridge"}, func(town, col string) any {
		if town == "Cambridge" {
			return 1000
		}
		switch col {
		case "male_15-17_2010":
			return 3
		case "male_18-19_2010":
			return 4
		case "female_20_2010", "female_21_2010", "female_22-24_2010":
			return 5
		}
		return 1
	})

	counts, err := AgeCounts(tbl, "2010", "Somerville")
	require.NoError(t, err)
	require.Len(t, counts, len(model.AgeGroups))

	// Two Somerville rows each contribute.
	assert.Equal(t, model.GenderCounts{Male: 14, Female: 4, Total: 18}, counts["15 - 19"])
	assert.Equal(t, model.GenderCounts{Male: 6, Female: 30, Total: 36}, counts["20 - 24"])
	assert.Equal(t, model.GenderCounts{Male: 2, Female: 2, Total: 4}, counts["85+"])
}

func TestAgeCounts_MissingColumn(t *testing.T) {
	tbl := buildTable(t, []string{"2010"}, []string{"Somerville"}, func(string, string) any { return 1 })

	_, err := AgeCounts(tbl, "2020", "Somerville")
	assert.ErrorIs(t, err, dataset.ErrColumnNotFound)
}

func TestRaceCounts_RenamesTwoPlus(t *testing.T) {
	tbl := buildTable(t, []string{"2010"}, []string{"Somerville"}, func(_, col string) any {
		if col == "pop_two_plus_2010" {
			return 42
		}
		return 1
	})

	counts, err := RaceCounts(tbl, "2010", "Somerville")
	require.NoError(t, err)
	assert.Equal(t, 42, counts["multiracial"])
	assert.NotContains(t, counts, "two_plus")
	assert.Len(t, counts, 7)
}

func TestAgeChanges(t *testing.T) {
	y1 := map[string]model.GenderCounts{
		"00 - 04": {Male: 100, Female: 0, Total: 100},
		"05 - 09": {Male: 0, Female: 50, Total: 50},
	}
	y2 := map[string]model.GenderCounts{
		"00 - 04": {Male: 80, Female: 10, Total: 90},
		"05 - 09": {Male: 0, Female: 60, Total: 60},
	}

	ch := AgeChanges(y1, y2)

	a := ch["00 - 04"]
	assert.Equal(t, -20, a.MaleChangeAbsolute)
	assert.InDelta(t, -20.0, a.MaleChangePercent, 1e-9)
	assert.Equal(t, "darkred", a.MaleColor)
	assert.Equal(t, 10, a.FemaleChangeAbsolute)
	assert.Equal(t, 100.0, a.FemaleChangePercent, "zero base with growth reports 100")
	assert.Equal(t, "lightcoral", a.FemaleColor)
	assert.Equal(t, "darkred", a.TotalColor)

	b := ch["05 - 09"]
	assert.Equal(t, 0, b.MaleChangeAbsolute)
	assert.Equal(t, 0.0, b.MaleChangePercent, "zero base without growth reports 0")
	assert.Equal(t, "steelblue", b.MaleColor)
	assert.Equal(t, "#30664B", b.TotalColor)
	assert.InDelta(t, 20.0, b.TotalChangePercent, 1e-9)
}

func TestRaceChanges_ZeroBaseReportsYear2(t *testing.T) {
	ch := RaceChanges(map[string]int{"asian": 0, "white": 200}, map[string]int{"asian": 35, "white": 150})

	assert.Equal(t, 35, ch["asian"].ChangeAbsolute)
	assert.Equal(t, 35.0, ch["asian"].ChangePercent)
	assert.Equal(t, -50, ch["white"].ChangeAbsolute)
	assert.InDelta(t, -25.0, ch["white"].ChangePercent, 1e-9)
	assert.Equal(t, "darkred", ch["white"].Color)
}

func TestTotalCityChange(t *testing.T) {
	y1 := map[string]model.GenderCounts{"00 - 04": {Total: 100}, "05 - 09": {Total: 300}}
	changes := map[string]model.AgeGroupChange{
		"00 - 04": {TotalChangeAbsolute: 20},
		"05 - 09": {TotalChangeAbsolute: -60},
	}

	c := TotalCityChange(changes, y1)
	assert.Equal(t, -40, c.Change)
	assert.InDelta(t, -10.0, c.Percent, 1e-9)
	assert.Equal(t, "darkred", c.Color)

	empty := TotalCityChange(map[string]model.AgeGroupChange{"00 - 04": {TotalChangeAbsolute: 5}}, map[string]model.GenderCounts{})
	assert.Equal(t, 0.0, empty.Percent)
	assert.Equal(t, "#30664B", empty.Color)
}

func TestTopAgeChanges_FirstExtremeWins(t *testing.T) {
	changes := map[string]model.AgeGroupChange{
		"00 - 04": {MaleChangeAbsolute: 50, FemaleChangeAbsolute: -10, TotalChangeAbsolute: 40, TotalChangePercent: 8},
		"05 - 09": {MaleChangeAbsolute: 50, FemaleChangeAbsolute: -30, TotalChangeAbsolute: 20},
		"85+":     {MaleChangeAbsolute: -5, FemaleChangeAbsolute: -30, TotalChangeAbsolute: -35, TotalChangePercent: -12.345},
	}

	top := TopAgeChanges(changes)
	assert.Equal(t, "male population aged 00 - 04", top.Increase.Group)
	assert.Equal(t, 50, top.Increase.Change)
	assert.Nil(t, top.Increase.Breakdown)

	assert.Equal(t, "total population aged 85+", top.Decrease.Group)
	assert.Equal(t, -35, top.Decrease.Change)
	require.NotNil(t, top.Decrease.Breakdown)
	assert.Equal(t, GenderBreakdown{Male: -5, Female: -30}, *top.Decrease.Breakdown)
}

func TestDemographicSentences(t *testing.T) {
	top := TopChanges{
		Increase: TopChange{Group: "asian population", Change: 120, Percent: 15.4987},
		Decrease: TopChange{
			Group: "total population aged 85+", Change: -35, Percent: -12.346,
			Breakdown: &GenderBreakdown{Male: -5, Female: -30},
		},
	}

	got := DemographicSentences(top)
	assert.Equal(t, []string{
		"The asian population increased by 120 people (15.5%).",
		"The total population aged 85+ decreased by 35 people (12.35%). 5 were men and 30 were women.",
	}, got)
}

func TestDemographicSentences_WholePercentKeepsDecimal(t *testing.T) {
	top := TopChanges{
		Increase: TopChange{Group: "male population aged 20 - 24", Change: 20, Percent: 20},
		Decrease: TopChange{Group: "black population", Change: 0, Percent: 0},
	}

	assert.Equal(t, []string{
		"The male population aged 20 - 24 increased by 20 people (20.0%).",
		"The black population decreased by 0 people (0.0%).",
	}, DemographicSentences(top))
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100, "100.0"},
		{0, "0.0"},
		{15.5, "15.5"},
		{12.35, "12.35"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in))
	}
}

func TestTopRaceChanges(t *testing.T) {
	top := TopRaceChanges(map[string]model.RaceGroupChange{
		"white":       {ChangeAbsolute: -500, ChangePercent: -5},
		"asian":       {ChangeAbsolute: 300, ChangePercent: 30},
		"multiracial": {ChangeAbsolute: 300, ChangePercent: 100},
	})

	assert.Equal(t, "asian population", top.Increase.Group)
	assert.Equal(t, "white population", top.Decrease.Group)
}

func TestPopulation(t *testing.T) {
	tbl := buildTable(t, []string{"2010", "2020"}, []string{"Somerville"}, func(_, col string) any {
		switch col {
		case "male_25-29_2020":
			return 300
		case "pop_asian_2020":
			return 90
		}
		return 100
	})

	resp, err := Population(tbl, "2010", "2020", "Somerville")
	require.NoError(t, err)

	assert.Equal(t, model.AgeGroups, resp.AgeGroupData.Order)
	assert.Equal(t, model.RaceGroups, resp.RaceGroupData.Order)
	assert.Equal(t, 200, resp.AgeGroupData.Changes["25 - 29"].MaleChangeAbsolute)
	assert.Equal(t, -10, resp.RaceGroupData.Changes["asian"].ChangeAbsolute)
	assert.Equal(t, 200, resp.TotalCityChange.Change)
	require.Len(t, resp.AgeGroupData.Sentences, 2)
	assert.Equal(t, "The male population aged 25 - 29 increased by 200 people (200.0%).", resp.AgeGroupData.Sentences[0])
	assert.Equal(t, "The asian population decreased by 10 people (10.0%).", resp.RaceGroupData.Sentences[1])
}

func TestCityHousing(t *testing.T) {
	tbl := buildTable(t, []string{"2010", "2020"}, []string{"Somerville", "Somerville"}, func(_, col string) any {
		switch col {
		case "housing_units_2010":
			return 1500
		case "housing_units_2020":
			return 1600
		}
		return 0
	})

	h, err := CityHousing(tbl, "2010", "2020", "Somerville")
	require.NoError(t, err)
	assert.Equal(t, model.CityHousing{Year1: 3000, Year2: 3200, ChangeAbsolute: 200, ChangePercent: 6.67}, h)

	h, err = CityHousing(tbl, "2010", "2020", "Nowhere")
	require.NoError(t, err)
	assert.Equal(t, 0.0, h.ChangePercent)

	_, err = CityHousing(tbl, "1990", "2020", "Somerville")
	assert.ErrorIs(t, err, dataset.ErrColumnNotFound)
}

func TestHousingSentences(t *testing.T) {
	tests := []struct {
		name string
		h    model.CityHousing
		pop  model.CityChange
		want string
	}{
		{
			name: "both grew",
			h:    model.CityHousing{ChangeAbsolute: 1200, ChangePercent: 3.04},
			pop:  model.CityChange{Change: 3000, Percent: 3.9},
			want: "Housing units increased by 1,200 (3.0%) across Somerville, while the population grew by 3,000 people (3.9%). " +
				"This suggests approximately 2.5 people per new housing unit.",
		},
		{
			name: "housing up population down",
			h:    model.CityHousing{ChangeAbsolute: 50, ChangePercent: 0.2},
			pop:  model.CityChange{Change: -1500, Percent: -2.04},
			want: "Despite housing units increasing by 50 (0.2%) across Somerville, the population declined by 1,500 people (2.0%), " +
				"indicating households are shrinking in size or vacancy rates are rising.",
		},
		{
			name: "housing down",
			h:    model.CityHousing{ChangeAbsolute: -75, ChangePercent: -1.25},
			pop:  model.CityChange{Change: 2000, Percent: 2.5},
			want: "Housing units decreased by 75 (1.2%) across Somerville, while the population changed by +2,000 people (2.5%).",
		},
		{
			name: "stable",
			h:    model.CityHousing{},
			pop:  model.CityChange{Change: -1234, Percent: -1.6},
			want: "Housing units remained relatively stable with a change of +0 across Somerville, while the population changed by -1,234 people (1.6%).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, []string{tt.want}, HousingSentences("Somerville", tt.h, tt.pop))
		})
	}
}
