// Package analysis aggregates the NHGIS table into the population and
// housing change statistics served by the census API.
package analysis

import (
	"math"

	"github.com/sells-group/missing-middle/internal/model"
)

// Summer sums one column over the rows of a town.
type Summer interface {
	Sum(town, column string) (float64, error)
}

// ageBracket maps an NHGIS age column fragment to its display bracket.
type ageBracket struct {
	Column  string
	Display string
}

// AgeBrackets lists the NHGIS age fragments in display order. Several
// fragments fold into one display bracket.
var AgeBrackets = []ageBracket{
	{"under_5", "00 - 04"},
	{"5-9", "05 - 09"},
	{"10-14", "10 - 14"},
	{"15-17", "15 - 19"},
	{"18-19", "15 - 19"},
	{"20", "20 - 24"},
	{"21", "20 - 24"},
	{"22-24", "20 - 24"},
	{"25-29", "25 - 29"},
	{"30-34", "30 - 34"},
	{"35-39", "35 - 39"},
	{"40-44", "40 - 44"},
	{"45-49", "45 - 49"},
	{"50-54", "50 - 54"},
	{"55-59", "55 - 59"},
	{"60-61", "60 - 64"},
	{"62-64", "60 - 64"},
	{"65-69", "65 - 69"},
	{"70-74", "70 - 74"},
	{"75-79", "75 - 79"},
	{"80-84", "80 - 84"},
	{"85_plus", "85+"},
}

// raceColumns maps NHGIS race fragments to display groups, in display order.
var raceColumns = []struct {
	Column  string
	Display string
}{
	{"white", "white"},
	{"black", "black"},
	{"native", "native"},
	{"asian", "asian"},
	{"islander", "islander"},
	{"other", "other"},
	{"two_plus", "multiracial"},
}

// AgeCounts sums male and female population per display bracket for town in
// year. Columns are named "<sex>_<fragment>_<year>".
func AgeCounts(t Summer, year, town string) (map[string]model.GenderCounts, error) {
	out := make(map[string]model.GenderCounts, len(model.AgeGroups))
	for _, b := range AgeBrackets {
		c := out[b.Display]
		male, err := t.Sum(town, "male_"+b.Column+"_"+year)
		if err != nil {
			return nil, err
		}
		female, err := t.Sum(town, "female_"+b.Column+"_"+year)
		if err != nil {
			return nil, err
		}
		c.Male += int(male)
		c.Female += int(female)
		c.Total += int(male) + int(female)
		out[b.Display] = c
	}
	return out, nil
}

// RaceCounts sums population per race group for town in year. Columns are
// named "pop_<fragment>_<year>".
func RaceCounts(t Summer, year, town string) (map[string]int, error) {
	out := make(map[string]int, len(raceColumns))
	for _, r := range raceColumns {
		n, err := t.Sum(town, "pop_"+r.Column+"_"+year)
		if err != nil {
			return nil, err
		}
		out[r.Display] += int(n)
	}
	return out, nil
}

// agePercent is the percent change with a zero base reported as 100 for
// growth and 0 otherwise.
func agePercent(change, base int) float64 {
	if base == 0 {
		if change > 0 {
			return 100
		}
		return 0
	}
	return float64(change) / float64(base) * 100
}

// AgeChanges computes per-bracket male, female and total changes.
func AgeChanges(y1, y2 map[string]model.GenderCounts) map[string]model.AgeGroupChange {
	out := make(map[string]model.AgeGroupChange, len(y1))
	for group, a := range y1 {
		b := y2[group]
		male := b.Male - a.Male
		female := b.Female - a.Female
		total := b.Total - a.Total
		out[group] = model.AgeGroupChange{
			MaleChangeAbsolute:   male,
			MaleChangePercent:    agePercent(male, a.Male),
			MaleColor:            model.ChangeColor(male, model.ColorMaleIncrease),
			FemaleChangeAbsolute: female,
			FemaleChangePercent:  agePercent(female, a.Female),
			FemaleColor:          model.ChangeColor(female, model.ColorFemaleIncrease),
			TotalChangeAbsolute:  total,
			TotalChangePercent:   agePercent(total, a.Total),
			TotalColor:           model.ChangeColor(total, model.ColorIncrease),
		}
	}
	return out
}

// RaceChanges computes per-group changes. A zero base reports the year-2
// count as the percent.
func RaceChanges(y1, y2 map[string]int) map[string]model.RaceGroupChange {
	out := make(map[string]model.RaceGroupChange, len(y1))
	for group, a := range y1 {
		b := y2[group]
		change := b - a
		pct := float64(b)
		if a != 0 {
			pct = float64(change) / float64(a) * 100
		}
		out[group] = model.RaceGroupChange{
			ChangeAbsolute: change,
			ChangePercent:  pct,
			Color:          model.ChangeColor(change, model.ColorIncrease),
		}
	}
	return out
}

// TotalCityChange sums the bracket totals. A town with no year-1 population
// reports a 0 percent change.
func TotalCityChange(changes map[string]model.AgeGroupChange, y1 map[string]model.GenderCounts) model.CityChange {
	var change, base int
	for group, c := range changes {
		change += c.TotalChangeAbsolute
		base += y1[group].Total
	}

	var pct float64
	if base != 0 {
		pct = float64(change) / float64(base) * 100
	}
	return model.CityChange{Change: change, Percent: pct, Color: model.ChangeColor(change, model.ColorIncrease)}
}

// Population builds the full population response for town between year1
// and year2.
func Population(t Summer, year1, year2, town string) (*model.PopulationResponse, error) {
	age1, err := AgeCounts(t, year1, town)
	if err != nil {
		return nil, err
	}
	age2, err := AgeCounts(t, year2, town)
	if err != nil {
		return nil, err
	}
	race1, err := RaceCounts(t, year1, town)
	if err != nil {
		return nil, err
	}
	race2, err := RaceCounts(t, year2, town)
	if err != nil {
		return nil, err
	}

	ageChanges := AgeChanges(age1, age2)
	raceChanges := RaceChanges(race1, race2)

	return &model.PopulationResponse{
		AgeGroupData: model.AgeGroupData{
			Year1:     age1,
			Year2:     age2,
			Changes:   ageChanges,
			Sentences: DemographicSentences(TopAgeChanges(ageChanges)),
			Order:     append([]string(nil), model.AgeGroups...),
		},
		RaceGroupData: model.RaceGroupData{
			Year1:     race1,
			Year2:     race2,
			Changes:   raceChanges,
			Sentences: DemographicSentences(TopRaceChanges(raceChanges)),
			Order:     append([]string(nil), model.RaceGroups...),
		},
		TotalCityChange: TotalCityChange(ageChanges, age1),
	}, nil
}

// round2 rounds half away from zero to two decimals.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
