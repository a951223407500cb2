package model

import "sort"

// AgeGroups lists the display age brackets in chart order.
var AgeGroups = []string{
	"00 - 04", "05 - 09", "10 - 14", "15 - 19", "20 - 24", "25 - 29",
	"30 - 34", "35 - 39", "40 - 44", "45 - 49", "50 - 54", "55 - 59",
	"60 - 64", "65 - 69", "70 - 74", "75 - 79", "80 - 84", "85+",
}

// RaceGroups lists the display race groups in chart order.
var RaceGroups = []string{
	"white", "black", "native", "asian", "islander", "other", "multiracial",
}

// Change colors shared by the API and the renderers.
const (
	ColorDecrease       = "darkred"
	ColorIncrease       = "#30664B"
	ColorMaleIncrease   = "steelblue"
	ColorFemaleIncrease = "lightcoral"
)

// PopulationRequest is the body of POST /api/population.
type PopulationRequest struct {
	Year1 string `json:"year1"`
	Year2 string `json:"year2"`
	City  string `json:"city"`
}

// PopulationResponse is the success body of POST /api/population.
type PopulationResponse struct {
	AgeGroupData    AgeGroupData  `json:"age_group_data"`
	RaceGroupData   RaceGroupData `json:"race_group_data"`
	TotalCityChange CityChange    `json:"total_city_change"`
}

// GenderCounts holds one age bracket's population for one year.
type GenderCounts struct {
	Male   int `json:"male"`
	Female int `json:"female"`
	Total  int `json:"total"`
}

// AgeGroupChange holds the year-over-year change for one age bracket.
type AgeGroupChange struct {
	MaleChangeAbsolute   int     `json:"male_change_absolute"`
	MaleChangePercent    float64 `json:"male_change_percent"`
	MaleColor            string  `json:"male_color"`
	FemaleChangeAbsolute int     `json:"female_change_absolute"`
	FemaleChangePercent  float64 `json:"female_change_percent"`
	FemaleColor          string  `json:"female_color"`
	TotalChangeAbsolute  int     `json:"total_change_absolute"`
	TotalChangePercent   float64 `json:"total_change_percent"`
	TotalColor           string  `json:"total_color"`
}

// AgeGroupData is the age pyramid section of a population response.
type AgeGroupData struct {
	Year1     map[string]GenderCounts   `json:"year1"`
	Year2     map[string]GenderCounts   `json:"year2"`
	Changes   map[string]AgeGroupChange `json:"changes"`
	Sentences []string                  `json:"sentences"`
	Order     []string                  `json:"order,omitempty"`
}

// Labels returns the bracket labels in chart order.
func (d AgeGroupData) Labels() []string {
	return orderedLabels(d.Order, AgeGroups, keys(d.Year1))
}

// RaceGroupChange holds the year-over-year change for one race group.
type RaceGroupChange struct {
	ChangeAbsolute int     `json:"change_absolute"`
	ChangePercent  float64 `json:"change_percent"`
	Color          string  `json:"color"`
}

// RaceGroupData is the race pyramid section of a population response.
type RaceGroupData struct {
	Year1     map[string]int             `json:"year1"`
	Year2     map[string]int             `json:"year2"`
	Changes   map[string]RaceGroupChange `json:"changes"`
	Sentences []string                   `json:"sentences"`
	Order     []string                   `json:"order,omitempty"`
}

// Labels returns the race group labels in chart order.
func (d RaceGroupData) Labels() []string {
	return orderedLabels(d.Order, RaceGroups, keys(d.Year1))
}

// CityChange is the town-wide population change between the two years.
type CityChange struct {
	Change  int     `json:"change"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChangeColor picks the decrease color for negative changes and inc otherwise.
func ChangeColor(change int, inc string) string {
	if change < 0 {
		return ColorDecrease
	}
	return inc
}

// orderedLabels resolves the label order for a group section. An explicit
// order wins; otherwise present labels follow the canonical order, and labels
// unknown to it are appended sorted.
func orderedLabels(explicit, canonical, present []string) []string {
	if len(explicit) > 0 {
		return explicit
	}

	seen := make(map[string]bool, len(present))
	for _, p := range present {
		seen[p] = true
	}

	out := make([]string, 0, len(present))
	for _, c := range canonical {
		if seen[c] {
			out = append(out, c)
			delete(seen, c)
		}
	}

	var rest []string
	for p := range seen {
		rest = append(rest, p)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
