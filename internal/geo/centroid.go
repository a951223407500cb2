// Package geo frames the housing map: it averages a town's boundary vertices
// into a center point and computes the town's extent.
package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/missing-middle/internal/model"
)

// Point is a longitude/latitude pair.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// DefaultCenter is used when a town has no boundary vertices (Eastern MA).
var DefaultCenter = Point{Lon: -71.1, Lat: 42.35}

// Boundary is one region's polygon or multipolygon, tagged with its region
// identifier and town.
type Boundary struct {
	RegionID string
	Town     string
	Geometry geom.T
}

// Centroid returns the mean of the outer-ring vertices of every boundary in
// town, or DefaultCenter when there are none.
func Centroid(boundaries []Boundary, town string) Point {
	return CentroidOr(boundaries, town, DefaultCenter)
}

// CentroidOr is Centroid with an explicit fallback point.
//
// The mean is unweighted: regions digitized with more vertices pull the
// center toward themselves. Closing vertices that repeat the first vertex are
// counted like any other.
func CentroidOr(boundaries []Boundary, town string, fallback Point) Point {
	var sumLon, sumLat float64
	var n int

	for _, b := range boundaries {
		if b.Town != town {
			continue
		}
		for _, ring := range outerRings(b.Geometry) {
			for _, c := range ring {
				sumLon += c.X()
				sumLat += c.Y()
				n++
			}
		}
	}

	if n == 0 {
		return fallback
	}
	return Point{Lon: sumLon / float64(n), Lat: sumLat / float64(n)}
}

// TownBounds returns the bounding box of every boundary in town. The bool is
// false when the town has no geometry.
func TownBounds(boundaries []Boundary, town string) (*geom.Bounds, bool) {
	var bounds *geom.Bounds
	for _, b := range boundaries {
		if b.Town != town || b.Geometry == nil || len(b.Geometry.FlatCoords()) == 0 {
			continue
		}
		if bounds == nil {
			bounds = geom.NewBounds(geom.XY)
		}
		bounds.Extend(b.Geometry)
	}
	return bounds, bounds != nil
}

// BoundariesFromFeatures converts housing GeoJSON features into boundaries.
// Features without geometry are skipped.
func BoundariesFromFeatures(fc *geojson.FeatureCollection) []Boundary {
	if fc == nil {
		return nil
	}

	out := make([]Boundary, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		out = append(out, Boundary{
			RegionID: model.FeatureString(f, model.PropRegionID),
			Town:     model.FeatureString(f, model.PropTown),
			Geometry: f.Geometry,
		})
	}
	return out
}

// outerRings returns the exterior ring of each polygon in g. Other geometry
// types contribute nothing.
func outerRings(g geom.T) [][]geom.Coord {
	switch t := g.(type) {
	case *geom.Polygon:
		if t.NumLinearRings() == 0 {
			return nil
		}
		return [][]geom.Coord{t.LinearRing(0).Coords()}
	case *geom.MultiPolygon:
		rings := make([][]geom.Coord, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			p := t.Polygon(i)
			if p.NumLinearRings() == 0 {
				continue
			}
			rings = append(rings, p.LinearRing(0).Coords())
		}
		return rings
	default:
		return nil
	}
}
