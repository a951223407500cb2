// Package geospatial loads TIGER block group shapefiles and joins them with
// NHGIS housing counts to build the housing change map.
package geospatial

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/missing-middle/internal/dataset"
	"github.com/sells-group/missing-middle/internal/model"
)

// Columns used to build GEOID20 when the shapefile does not carry it.
var geoidParts = []string{"STATEFP20", "COUNTYFP20", "TRACTCE20", "BLKGRPCE20"}

// MissingFileError reports a shapefile that does not exist on disk.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string { return e.Path }

func (e *MissingFileError) Unwrap() error { return fs.ErrNotExist }

// BlockGroup is one shapefile record.
type BlockGroup struct {
	GEOID      string
	Attributes map[string]string
	Geometry   geom.T // *geom.Polygon or *geom.MultiPolygon
}

// ReadBlockGroups reads every polygon record in the shapefile at path.
// Records without geometry are skipped.
func ReadBlockGroups(path string) ([]BlockGroup, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingFileError{Path: path}
		}
		return nil, eris.Wrapf(err, "geospatial: stat %s", path)
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geospatial: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
		idx[names[i]] = i
	}

	_, hasGEOID := idx[model.PropRegionID]
	if !hasGEOID {
		for _, p := range geoidParts {
			if _, ok := idx[p]; !ok {
				return nil, &dataset.ColumnError{Column: model.PropRegionID}
			}
		}
	}

	var (
		out     []BlockGroup
		skipped int
	)
	for reader.Next() {
		_, shape := reader.Shape()

		g := shapeToGeometry(shape)
		if g == nil {
			skipped++
			continue
		}

		attrs := make(map[string]string, len(names))
		for i, name := range names {
			attrs[name] = strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
		}

		bg := BlockGroup{Attributes: attrs, Geometry: g}
		if hasGEOID {
			bg.GEOID = attrs[model.PropRegionID]
		} else {
			var b strings.Builder
			for _, p := range geoidParts {
				b.WriteString(attrs[p])
			}
			bg.GEOID = b.String()
			attrs[model.PropRegionID] = bg.GEOID
		}
		out = append(out, bg)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "geospatial: read shapefile %s", path)
	}

	if skipped > 0 {
		zap.L().Debug("geospatial: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return out, nil
}

// shapeToGeometry converts a shapefile polygon into a go-geom Polygon, or a
// MultiPolygon when it has more than one outer ring. Clockwise rings start a
// new polygon; counter-clockwise rings are holes of the preceding one.
func shapeToGeometry(shape shp.Shape) geom.T {
	p, ok := shape.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	var polys []*geom.Polygon
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || end > int32(len(p.Points)) || end-start < 4 {
			continue
		}

		pts := p.Points[start:end]
		flat := make([]float64, 0, len(pts)*2)
		for _, pt := range pts {
			flat = append(flat, pt.X, pt.Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if len(polys) == 0 || signedArea(pts) <= 0 {
			poly := geom.NewPolygon(geom.XY)
			if err := poly.Push(ring); err != nil {
				zap.L().Debug("geospatial: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
				continue
			}
			polys = append(polys, poly)
			continue
		}
		if err := polys[len(polys)-1].Push(ring); err != nil {
			zap.L().Debug("geospatial: skipping malformed hole", zap.Int32("part", i), zap.Error(err))
		}
	}

	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0]
	}
	mp := geom.NewMultiPolygon(geom.XY)
	for _, poly := range polys {
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("geospatial: skipping malformed polygon", zap.Error(err))
		}
	}
	return mp
}

// signedArea is positive for counter-clockwise rings.
func signedArea(pts []shp.Point) float64 {
	var a float64
	for i := 0; i < len(pts)-1; i++ {
		a += pts[i].X*pts[i+1].Y - pts[i+1].X*pts[i].Y
	}
	return a / 2
}
