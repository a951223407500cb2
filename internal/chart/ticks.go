// Package chart builds axis scales and category series for the diverging
// population bar charts and renders them with gonum/plot.
package chart

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"
)

// TickCount is the number of ticks on a diverging axis. Odd so that zero sits
// in the middle.
const TickCount = 7

// ErrInvalidInput is returned when a tick scale is requested for an empty or
// non-finite series.
var ErrInvalidInput = eris.New("chart: invalid input")

// Tier maps magnitudes strictly above Above to a rounding granularity.
type Tier struct {
	Above   float64
	RoundTo float64
}

// Ladder picks a rounding granularity for a maximum magnitude. Tiers are
// checked in order; Floor applies when none match.
type Ladder struct {
	Tiers []Tier
	Floor float64
}

// AgeLadder is the granularity ladder for the age pyramid.
var AgeLadder = Ladder{
	Tiers: []Tier{{Above: 2000, RoundTo: 1000}, {Above: 1000, RoundTo: 500}, {Above: 500, RoundTo: 250}},
	Floor: 100,
}

// RaceLadder is the granularity ladder for the race pyramid.
var RaceLadder = Ladder{
	Tiers: []Tier{{Above: 5000, RoundTo: 2000}, {Above: 2000, RoundTo: 1000}, {Above: 1000, RoundTo: 500}},
	Floor: 250,
}

// Granularity returns the rounding step for a maximum magnitude.
func (l Ladder) Granularity(maxAbs float64) float64 {
	for _, t := range l.Tiers {
		if maxAbs > t.Above {
			return t.RoundTo
		}
	}
	return l.Floor
}

// TickScale is a symmetric set of axis ticks around zero.
type TickScale struct {
	Values []float64
	Labels []string
	Step   float64
	Max    float64 // rounded maximum magnitude the scale was built from
}

// ComputeTicks derives a symmetric TickCount-tick scale from signed values.
func ComputeTicks(values []float64, ladder Ladder) (TickScale, error) {
	if len(values) == 0 {
		return TickScale{}, eris.Wrap(ErrInvalidInput, "chart: no values to scale")
	}

	var maxAbs float64
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return TickScale{}, eris.Wrapf(ErrInvalidInput, "chart: non-finite value %v", v)
		}
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}

	roundTo := ladder.Granularity(maxAbs)
	if roundTo <= 0 {
		return TickScale{}, eris.Wrap(ErrInvalidInput, "chart: ladder granularity must be positive")
	}

	maxRounded := math.Ceil(maxAbs/roundTo) * roundTo
	if maxRounded == 0 {
		// All-zero series: keep the axis readable.
		maxRounded = roundTo
	}

	half := TickCount / 2
	step := math.Ceil(maxRounded / float64(half))

	scale := TickScale{
		Values: make([]float64, 0, TickCount),
		Labels: make([]string, 0, TickCount),
		Step:   step,
		Max:    maxRounded,
	}
	for i := -half; i <= half; i++ {
		v := float64(i) * step
		scale.Values = append(scale.Values, v)
		scale.Labels = append(scale.Labels, humanize.Comma(int64(math.Abs(v))))
	}

	return scale, nil
}
