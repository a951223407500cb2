package detail

import (
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Context carries the filters a record was projected under.
type Context struct {
	Year1 string
	Year2 string
	City  string
}

// Panel is the display form of a record.
type Panel struct {
	Title    string
	Subtitle string
	Summary  Change // total change, rendered "<change> people"
	Layout   Layout
	Header   []string
	Rows     [][]string
	Tones    []Tone // tone of each row's change cell
}

var titleCaser = cases.Title(language.English)

// Title returns "Population Aged <bracket> in <city>" for age records and
// "<Race> Population in <city>" for race records.
func Title(r Record, city string) string {
	if r.Kind() == KindAge {
		return "Population Aged " + r.Group() + " in " + city
	}
	return titleCaser.String(strings.ToLower(r.Group())) + " Population in " + city
}

// NewPanel renders r for display. The table layout follows the record's kind.
func NewPanel(r Record, ctx Context) Panel {
	p := Panel{
		Title:    Title(r, ctx.City),
		Subtitle: ctx.Year1 + " → " + ctx.Year2,
		Summary:  FormatChange(r.TotalChange()),
		Layout:   r.Layout(),
	}

	switch rec := r.(type) {
	case *Age:
		p.Header = []string{"", ctx.Year1, ctx.Year2, "Change"}
		for _, row := range []Row{rec.Male, rec.Female} {
			c := FormatChange(row.Change)
			p.Rows = append(p.Rows, []string{
				row.Label,
				humanize.Comma(int64(row.Year1)),
				humanize.Comma(int64(row.Year2)),
				c.Text + " (" + FormatPercent(row.PercentChange) + ")",
			})
			p.Tones = append(p.Tones, c.Tone)
		}
	case *Race:
		c := FormatChange(rec.Total.Change)
		pct := FormatPercent(rec.Total.PercentChange)
		if c.Tone == TonePositive {
			pct = "+" + pct
		}
		p.Header = []string{ctx.Year1, ctx.Year2, "Change"}
		p.Rows = [][]string{{
			humanize.Comma(int64(rec.Total.Year1)),
			humanize.Comma(int64(rec.Total.Year2)),
			pct,
		}}
		p.Tones = []Tone{c.Tone}
	}

	return p
}

// Table returns the header followed by the body rows.
func (p Panel) Table() [][]string {
	out := make([][]string, 0, len(p.Rows)+1)
	out = append(out, p.Header)
	return append(out, p.Rows...)
}
