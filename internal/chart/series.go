package chart

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/missing-middle/internal/model"
)

// Series is an ordered set of category bars. Labels, Values and Colors are
// positionally aligned; a bar's index resolves back to its label.
type Series struct {
	Title  string
	Labels []string
	Values []float64
	Colors []string
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Labels) }

// LabelAt returns the label of the bar at index i.
func (s Series) LabelAt(i int) (string, error) {
	if i < 0 || i >= len(s.Labels) {
		return "", eris.Errorf("chart: bar index %d out of range [0,%d)", i, len(s.Labels))
	}
	return s.Labels[i], nil
}

// AgeSeries builds the total-change series for the age pyramid.
func AgeSeries(d model.AgeGroupData) Series {
	labels := d.Labels()
	s := Series{
		Title:  "Population Change by Age Group",
		Labels: labels,
		Values: make([]float64, len(labels)),
		Colors: make([]string, len(labels)),
	}
	for i, l := range labels {
		c := d.Changes[l]
		s.Values[i] = float64(c.TotalChangeAbsolute)
		s.Colors[i] = c.TotalColor
	}
	return s
}

// RaceSeries builds the change series for the race pyramid.
func RaceSeries(d model.RaceGroupData) Series {
	labels := d.Labels()
	s := Series{
		Title:  "Population Change by Race",
		Labels: labels,
		Values: make([]float64, len(labels)),
		Colors: make([]string, len(labels)),
	}
	for i, l := range labels {
		c := d.Changes[l]
		s.Values[i] = float64(c.ChangeAbsolute)
		s.Colors[i] = c.Color
	}
	return s
}
