package analysis

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/sells-group/missing-middle/internal/model"
)

// TopChange is the largest increase or decrease within a section.
type TopChange struct {
	Group   string // "male population aged 20 - 24" or "asian population"
	Change  int
	Percent float64
	Color   string
	// Set for the "total" age category only.
	Breakdown *GenderBreakdown
}

// GenderBreakdown splits a total age change by sex.
type GenderBreakdown struct {
	Male   int
	Female int
}

// TopChanges holds a section's extremes.
type TopChanges struct {
	Increase TopChange
	Decrease TopChange
}

// TopAgeChanges scans every (bracket, category) pair in display order and
// keeps the first maximum and the first minimum.
func TopAgeChanges(changes map[string]model.AgeGroupChange) TopChanges {
	var top TopChanges
	first := true
	for _, group := range model.AgeGroups {
		c, ok := changes[group]
		if !ok {
			continue
		}
		candidates := []TopChange{
			{Group: "male population aged " + group, Change: c.MaleChangeAbsolute, Percent: c.MaleChangePercent, Color: c.MaleColor},
			{Group: "female population aged " + group, Change: c.FemaleChangeAbsolute, Percent: c.FemaleChangePercent, Color: c.FemaleColor},
			{
				Group: "total population aged " + group, Change: c.TotalChangeAbsolute, Percent: c.TotalChangePercent, Color: c.TotalColor,
				Breakdown: &GenderBreakdown{Male: c.MaleChangeAbsolute, Female: c.FemaleChangeAbsolute},
			},
		}
		for _, cand := range candidates {
			if first {
				top.Increase, top.Decrease = cand, cand
				first = false
				continue
			}
			if cand.Change > top.Increase.Change {
				top.Increase = cand
			}
			if cand.Change < top.Decrease.Change {
				top.Decrease = cand
			}
		}
	}
	return top
}

// TopRaceChanges keeps the first maximum and minimum in display order.
func TopRaceChanges(changes map[string]model.RaceGroupChange) TopChanges {
	var top TopChanges
	first := true
	for _, group := range model.RaceGroups {
		c, ok := changes[group]
		if !ok {
			continue
		}
		cand := TopChange{Group: group + " population", Change: c.ChangeAbsolute, Percent: c.ChangePercent, Color: c.Color}
		if first {
			top.Increase, top.Decrease = cand, cand
			first = false
			continue
		}
		if cand.Change > top.Increase.Change {
			top.Increase = cand
		}
		if cand.Change < top.Decrease.Change {
			top.Decrease = cand
		}
	}
	return top
}

// DemographicSentences describes the largest increase then the largest
// decrease, e.g. "The asian population increased by 120 people (15.5%)."
func DemographicSentences(top TopChanges) []string {
	return []string{
		changeSentence("increased", top.Increase),
		changeSentence("decreased", top.Decrease),
	}
}

func changeSentence(verb string, c TopChange) string {
	s := fmt.Sprintf("The %s %s by %d people (%s%%).", c.Group, verb, absInt(c.Change), formatNumber(math.Abs(round2(c.Percent))))
	if c.Breakdown != nil {
		s += fmt.Sprintf(" %d were men and %d were women.", absInt(c.Breakdown.Male), absInt(c.Breakdown.Female))
	}
	return s
}

// CityHousing sums housing units for town in both years.
func CityHousing(t Summer, year1, year2, town string) (model.CityHousing, error) {
	u1, err := t.Sum(town, "housing_units_"+year1)
	if err != nil {
		return model.CityHousing{}, err
	}
	u2, err := t.Sum(town, "housing_units_"+year2)
	if err != nil {
		return model.CityHousing{}, err
	}

	h := model.CityHousing{Year1: int(u1), Year2: int(u2)}
	h.ChangeAbsolute = h.Year2 - h.Year1
	if h.Year1 != 0 {
		h.ChangePercent = round2(float64(h.ChangeAbsolute) / float64(h.Year1) * 100)
	}
	return h, nil
}

// HousingSentences relates the town's housing change to its population
// change.
func HousingSentences(town string, h model.CityHousing, pop model.CityChange) []string {
	hc, hp := h.ChangeAbsolute, math.Abs(h.ChangePercent)
	pc, pp := pop.Change, math.Abs(pop.Percent)

	switch {
	case hc > 0 && pc > 0:
		ratio := float64(absInt(pc)) / float64(hc)
		return []string{fmt.Sprintf(
			"Housing units increased by %s (%.1f%%) across %s, while the population grew by %s people (%.1f%%). "+
				"This suggests approximately %.1f people per new housing unit.",
			comma(absInt(hc)), hp, town, comma(absInt(pc)), pp, ratio)}
	case hc > 0 && pc < 0:
		return []string{fmt.Sprintf(
			"Despite housing units increasing by %s (%.1f%%) across %s, the population declined by %s people (%.1f%%), "+
				"indicating households are shrinking in size or vacancy rates are rising.",
			comma(absInt(hc)), hp, town, comma(absInt(pc)), pp)}
	case hc < 0:
		return []string{fmt.Sprintf(
			"Housing units decreased by %s (%.1f%%) across %s, while the population changed by %s people (%.1f%%).",
			comma(absInt(hc)), hp, town, signedComma(pc), pp)}
	default:
		return []string{fmt.Sprintf(
			"Housing units remained relatively stable with a change of %s across %s, while the population changed by %s people (%.1f%%).",
			signedComma(hc), town, signedComma(pc), pp)}
	}
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func comma(n int) string { return humanize.Comma(int64(n)) }

func signedComma(n int) string {
	if n < 0 {
		return humanize.Comma(int64(n))
	}
	return "+" + humanize.Comma(int64(n))
}

// formatNumber renders f with the fewest digits that round-trip and at least
// one decimal place: 15.5, 100.0.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
