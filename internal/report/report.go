// Package report exports a dashboard snapshot as an XLSX workbook.
package report

import (
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/missing-middle/internal/detail"
	"github.com/sells-group/missing-middle/internal/model"
)

// Sheet names in workbook order.
const (
	SheetAge      = "Age"
	SheetRace     = "Race"
	SheetHousing  = "Housing"
	SheetInsights = "Insights"
)

const percentFormat = "0.00"

// Write renders the population and housing results for filters as a workbook.
// housing may be nil; the Housing sheet then carries only its header.
func Write(w io.Writer, pop *model.PopulationResponse, housing *model.HousingResponse, filters detail.Context) error {
	if pop == nil {
		return eris.New("report: population data is required")
	}

	f := xlsx.NewFile()
	if err := ageSheet(f, *pop, filters); err != nil {
		return err
	}
	if err := raceSheet(f, *pop, filters); err != nil {
		return err
	}
	if err := housingSheet(f, housing, filters); err != nil {
		return err
	}
	if err := insightsSheet(f, pop, housing, filters); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write workbook")
	}
	return nil
}

func ageSheet(f *xlsx.File, pop model.PopulationResponse, filters detail.Context) error {
	sheet, err := f.AddSheet(SheetAge)
	if err != nil {
		return eris.Wrap(err, "report: add age sheet")
	}
	addStrings(sheet.AddRow(), "Age Group",
		"Men "+filters.Year1, "Women "+filters.Year1, "Total "+filters.Year1,
		"Men "+filters.Year2, "Women "+filters.Year2, "Total "+filters.Year2,
		"Men Change", "Men %", "Women Change", "Women %", "Total Change", "Total %")

	for _, label := range pop.AgeGroupData.Labels() {
		rec, err := detail.Project(detail.KindAge, label, pop)
		if err != nil {
			return eris.Wrapf(err, "report: age group %s", label)
		}
		a := rec.(*detail.Age)

		row := sheet.AddRow()
		row.AddCell().SetString(a.Bracket)
		addInts(row, a.Male.Year1, a.Female.Year1, a.TotalYear1, a.Male.Year2, a.Female.Year2, a.TotalYear2)
		addChange(row, a.Male.Change, a.Male.PercentChange)
		addChange(row, a.Female.Change, a.Female.PercentChange)
		addChange(row, a.TotalChangeValue, a.TotalPercentChange)
	}
	return nil
}

func raceSheet(f *xlsx.File, pop model.PopulationResponse, filters detail.Context) error {
	sheet, err := f.AddSheet(SheetRace)
	if err != nil {
		return eris.Wrap(err, "report: add race sheet")
	}
	addStrings(sheet.AddRow(), "Race", filters.Year1, filters.Year2, "Change", "%")

	for _, label := range pop.RaceGroupData.Labels() {
		rec, err := detail.Project(detail.KindRace, label, pop)
		if err != nil {
			return eris.Wrapf(err, "report: race group %s", label)
		}
		r := rec.(*detail.Race)

		row := sheet.AddRow()
		row.AddCell().SetString(r.Name)
		addInts(row, r.Total.Year1, r.Total.Year2)
		addChange(row, r.Total.Change, r.Total.PercentChange)
	}
	return nil
}

// housingSheet lists the selected town's block groups and a total row.
func housingSheet(f *xlsx.File, housing *model.HousingResponse, filters detail.Context) error {
	sheet, err := f.AddSheet(SheetHousing)
	if err != nil {
		return eris.Wrap(err, "report: add housing sheet")
	}
	col1, col2 := "housing_units_"+filters.Year1, "housing_units_"+filters.Year2
	addStrings(sheet.AddRow(), "Block Group", "Units "+filters.Year1, "Units "+filters.Year2, "Change", "%")

	if housing == nil || housing.GeoJSON == nil {
		return nil
	}

	features := townFeatures(housing.GeoJSON, filters.City)
	var sum1, sum2 float64
	for _, ft := range features {
		row := sheet.AddRow()
		row.AddCell().SetString(model.FeatureString(ft, model.PropRegionID))
		u1, ok1 := model.FeatureNumber(ft, col1)
		u2, ok2 := model.FeatureNumber(ft, col2)
		addOptional(row, u1, ok1, "")
		addOptional(row, u2, ok2, "")
		ch, okc := model.FeatureNumber(ft, model.PropUnitsChange)
		addOptional(row, ch, okc, "")
		pc, okp := model.FeatureNumber(ft, model.PropUnitsChangePc)
		addOptional(row, pc, okp, percentFormat)
		sum1 += u1
		sum2 += u2
	}

	total := sheet.AddRow()
	total.AddCell().SetString("Total " + filters.City)
	total.AddCell().SetFloat(sum1)
	total.AddCell().SetFloat(sum2)
	total.AddCell().SetFloat(sum2 - sum1)
	if sum1 != 0 {
		total.AddCell().SetFloatWithFormat((sum2-sum1)/sum1*100, percentFormat)
	}
	return nil
}

func insightsSheet(f *xlsx.File, pop *model.PopulationResponse, housing *model.HousingResponse, filters detail.Context) error {
	sheet, err := f.AddSheet(SheetInsights)
	if err != nil {
		return eris.Wrap(err, "report: add insights sheet")
	}
	addStrings(sheet.AddRow(), "Section", "Insight")
	addStrings(sheet.AddRow(), "Filters", filters.City+", "+filters.Year1+" to "+filters.Year2)

	for _, s := range pop.AgeGroupData.Sentences {
		addStrings(sheet.AddRow(), "Age", s)
	}
	for _, s := range pop.RaceGroupData.Sentences {
		addStrings(sheet.AddRow(), "Race", s)
	}
	if housing != nil {
		for _, s := range housing.Sentences {
			addStrings(sheet.AddRow(), "Housing", s)
		}
	}
	return nil
}

// townFeatures returns the features of town sorted by GEOID.
func townFeatures(fc *geojson.FeatureCollection, town string) []*geojson.Feature {
	var out []*geojson.Feature
	for _, ft := range fc.Features {
		if model.FeatureString(ft, model.PropTown) == town {
			out = append(out, ft)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return model.FeatureString(out[i], model.PropRegionID) < model.FeatureString(out[j], model.PropRegionID)
	})
	return out
}

func addStrings(row *xlsx.Row, vals ...string) {
	for _, v := range vals {
		row.AddCell().SetString(v)
	}
}

func addInts(row *xlsx.Row, vals ...int) {
	for _, v := range vals {
		row.AddCell().SetInt(v)
	}
}

func addChange(row *xlsx.Row, change int, pct float64) {
	row.AddCell().SetInt(change)
	row.AddCell().SetFloatWithFormat(pct, percentFormat)
}

// addOptional writes v, or an empty cell when ok is false.
func addOptional(row *xlsx.Row, v float64, ok bool, format string) {
	cell := row.AddCell()
	switch {
	case !ok:
		cell.SetString("")
	case format != "":
		cell.SetFloatWithFormat(v, format)
	default:
		cell.SetFloat(v)
	}
}
