// Package detail projects one clicked chart category into the record shown in
// the group detail panel.
package detail

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rotisserie/eris"

	"github.com/sells-group/missing-middle/internal/model"
)

// ErrUnknownGroup is returned when a label or bar index does not resolve to a
// category present in the population response.
var ErrUnknownGroup = eris.New("detail: unknown group")

// Kind discriminates age brackets from race groups.
type Kind int

const (
	KindAge Kind = iota
	KindRace
)

func (k Kind) String() string {
	switch k {
	case KindAge:
		return "age"
	case KindRace:
		return "race"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps "age" or "race" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "age":
		return KindAge, nil
	case "race":
		return KindRace, nil
	default:
		return 0, eris.Errorf("detail: unknown kind %q", s)
	}
}

// Layout selects the detail table shape.
type Layout int

const (
	LayoutTwoRow Layout = iota // men and women
	LayoutOneRow               // total only
)

// Row is one line of the detail table.
type Row struct {
	Label         string
	Year1         int
	Year2         int
	Change        int
	PercentChange float64
}

// Record is a projected detail record. It is either an *Age or a *Race.
type Record interface {
	Kind() Kind
	Group() string
	TotalChange() int
	Layout() Layout
	record()
}

// Age is the detail record of an age bracket, always broken down by gender.
type Age struct {
	Bracket            string
	Male               Row
	Female             Row
	TotalYear1         int
	TotalYear2         int
	TotalChangeValue   int
	TotalPercentChange float64
}

func (a *Age) Kind() Kind       { return KindAge }
func (a *Age) Group() string    { return a.Bracket }
func (a *Age) TotalChange() int { return a.TotalChangeValue }
func (a *Age) Layout() Layout   { return LayoutTwoRow }
func (a *Age) record()          {}

// Race is the detail record of a race group: one total per year.
type Race struct {
	Name  string
	Total Row
}

func (r *Race) Kind() Kind       { return KindRace }
func (r *Race) Group() string    { return r.Name }
func (r *Race) TotalChange() int { return r.Total.Change }
func (r *Race) Layout() Layout   { return LayoutOneRow }
func (r *Race) record()          {}

// Project builds the record for label in the kind's section of pop.
func Project(kind Kind, label string, pop model.PopulationResponse) (Record, error) {
	switch kind {
	case KindAge:
		return projectAge(label, pop.AgeGroupData)
	case KindRace:
		return projectRace(label, pop.RaceGroupData)
	default:
		return nil, eris.Wrapf(ErrUnknownGroup, "detail: kind %s", kind)
	}
}

// ProjectAt resolves a bar index to its label in chart order, then projects it.
func ProjectAt(kind Kind, index int, pop model.PopulationResponse) (Record, error) {
	var labels []string
	switch kind {
	case KindAge:
		labels = pop.AgeGroupData.Labels()
	case KindRace:
		labels = pop.RaceGroupData.Labels()
	}
	if index < 0 || index >= len(labels) {
		return nil, eris.Wrapf(ErrUnknownGroup, "detail: %s index %d out of range", kind, index)
	}
	return Project(kind, labels[index], pop)
}

func projectAge(label string, d model.AgeGroupData) (*Age, error) {
	y1, ok1 := d.Year1[label]
	y2, ok2 := d.Year2[label]
	ch, ok3 := d.Changes[label]
	if !ok1 || !ok2 || !ok3 {
		return nil, eris.Wrapf(ErrUnknownGroup, "detail: age group %q", label)
	}

	return &Age{
		Bracket: label,
		Male: Row{
			Label:         "Men",
			Year1:         y1.Male,
			Year2:         y2.Male,
			Change:        ch.MaleChangeAbsolute,
			PercentChange: ch.MaleChangePercent,
		},
		Female: Row{
			Label:         "Women",
			Year1:         y1.Female,
			Year2:         y2.Female,
			Change:        ch.FemaleChangeAbsolute,
			PercentChange: ch.FemaleChangePercent,
		},
		TotalYear1:         y1.Total,
		TotalYear2:         y2.Total,
		TotalChangeValue:   ch.TotalChangeAbsolute,
		TotalPercentChange: ch.TotalChangePercent,
	}, nil
}

func projectRace(label string, d model.RaceGroupData) (*Race, error) {
	y1, ok1 := d.Year1[label]
	y2, ok2 := d.Year2[label]
	ch, ok3 := d.Changes[label]
	if !ok1 || !ok2 || !ok3 {
		return nil, eris.Wrapf(ErrUnknownGroup, "detail: race group %q", label)
	}

	return &Race{
		Name: label,
		Total: Row{
			Label:         "Total",
			Year1:         y1,
			Year2:         y2,
			Change:        ch.ChangeAbsolute,
			PercentChange: ch.ChangePercent,
		},
	}, nil
}

// Tone is the color class of a rendered change.
type Tone int

const (
	TonePositive Tone = iota
	ToneNegative
)

func (t Tone) String() string {
	if t == ToneNegative {
		return "negative"
	}
	return "positive"
}

// Change is a signed, formatted change value.
type Change struct {
	Text string
	Tone Tone
}

// FormatChange renders n with thousands grouping. Non-negative values get an
// explicit "+" and the positive tone; negative values keep their native "-".
func FormatChange(n int) Change {
	if n < 0 {
		return Change{Text: humanize.Comma(int64(n)), Tone: ToneNegative}
	}
	return Change{Text: "+" + humanize.Comma(int64(n)), Tone: TonePositive}
}

// FormatPercent renders a percent change with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
