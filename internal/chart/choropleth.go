package chart

import (
	"image/color"
	"io"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/sells-group/missing-middle/internal/geo"
	"github.com/sells-group/missing-middle/internal/model"
)

var (
	rampLow  = color.RGBA{R: 0xd1, G: 0xe5, B: 0xf0, A: 0xff}
	rampHigh = color.RGBA{R: 0x21, G: 0x66, B: 0xac, A: 0xff}
	outline  = color.RGBA{R: 0x94, G: 0xa3, B: 0xb8, A: 0xff}
)

// mapPadding is the fraction of the town extent added on each side.
const mapPadding = 0.15

// ChoroplethFill returns the fill for a feature's z value. Features without z
// and non-positive changes stay unfilled.
func ChoroplethFill(z float64, ok bool, zmax float64) color.Color {
	if !ok || z <= 0 || zmax <= 0 {
		return nil
	}
	return lerpColor(rampLow, rampHigh, z/zmax)
}

// ChoroplethPlot draws every feature's outline and shades the selected town's
// block groups by housing unit change, framed on the town's centroid.
func ChoroplethPlot(fc *geojson.FeatureCollection, town string, fallback geo.Point) (*plot.Plot, error) {
	if fc == nil || len(fc.Features) == 0 {
		return nil, eris.Wrap(ErrInvalidInput, "chart: no features to map")
	}

	var zmax float64
	for _, f := range fc.Features {
		if z, ok := model.FeatureNumber(f, model.PropZ); ok {
			zmax = math.Max(zmax, z)
		}
	}

	p := plot.New()
	p.Title.Text = "Housing Supply Map"
	p.HideAxes()

	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		z, ok := model.FeatureNumber(f, model.PropZ)
		fill := ChoroplethFill(z, ok, zmax)

		for _, rings := range polygonRings(f.Geometry) {
			poly, err := plotter.NewPolygon(rings...)
			if err != nil {
				return nil, eris.Wrapf(err, "chart: polygon %s", model.FeatureString(f, model.PropRegionID))
			}
			poly.Color = fill
			poly.LineStyle.Color = outline
			poly.LineStyle.Width = vg.Points(0.5)
			p.Add(poly)
		}
	}

	boundaries := geo.BoundariesFromFeatures(fc)
	center := geo.CentroidOr(boundaries, town, fallback)
	halfW, halfH := 0.1, 0.1
	if b, ok := geo.TownBounds(boundaries, town); ok {
		halfW = math.Max(center.Lon-b.Min(0), b.Max(0)-center.Lon) * (1 + mapPadding)
		halfH = math.Max(center.Lat-b.Min(1), b.Max(1)-center.Lat) * (1 + mapPadding)
	}
	p.X.Min, p.X.Max = center.Lon-halfW, center.Lon+halfW
	p.Y.Min, p.Y.Max = center.Lat-halfH, center.Lat+halfH

	return p, nil
}

// RenderChoropleth draws the housing map for town to w.
func RenderChoropleth(w io.Writer, fc *geojson.FeatureCollection, town string, fallback geo.Point, opts RenderOptions) error {
	opts = opts.withDefaults()

	p, err := ChoroplethPlot(fc, town, fallback)
	if err != nil {
		return err
	}
	if opts.Title != "" {
		p.Title.Text = opts.Title
	}

	return writePlot(w, p, opts)
}

// polygonRings flattens a Polygon or MultiPolygon into per-polygon ring lists
// suitable for plotter.NewPolygon.
func polygonRings(g geom.T) [][]plotter.XYer {
	var polys []*geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		polys = append(polys, t)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			polys = append(polys, t.Polygon(i))
		}
	}

	out := make([][]plotter.XYer, 0, len(polys))
	for _, poly := range polys {
		var rings []plotter.XYer
		for i := 0; i < poly.NumLinearRings(); i++ {
			coords := poly.LinearRing(i).Coords()
			xys := make(plotter.XYs, len(coords))
			for j, c := range coords {
				xys[j] = plotter.XY{X: c.X(), Y: c.Y()}
			}
			rings = append(rings, xys)
		}
		if len(rings) > 0 {
			out = append(out, rings)
		}
	}
	return out
}
