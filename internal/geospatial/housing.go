package geospatial

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/missing-middle/internal/config"
	"github.com/sells-group/missing-middle/internal/dataset"
	"github.com/sells-group/missing-middle/internal/model"
)

// Loader reads county block group shapefiles and caches them by FIPS code.
// Safe for concurrent use.
type Loader struct {
	dir         string
	pattern     string
	concurrency int
	read        func(path string) ([]BlockGroup, error)

	mu       sync.Mutex
	counties map[string][]BlockGroup
	inflight singleflight.Group
}

// NewLoader builds a Loader from the data config. Shapefiles are found at
// shapefile_dir/shapefile_pattern with "{fips}" replaced by the county FIPS.
func NewLoader(cfg config.DataConfig) *Loader {
	concurrency := cfg.LoadConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		dir:         cfg.ShapefileDir,
		pattern:     cfg.ShapefilePattern,
		concurrency: concurrency,
		read:        ReadBlockGroups,
		counties:    make(map[string][]BlockGroup),
	}
}

// Path returns the shapefile path for a 5-digit county FIPS code.
func (l *Loader) Path(fips string) string {
	return filepath.Join(l.dir, strings.ReplaceAll(l.pattern, "{fips}", fips))
}

// County returns the block groups of one county, reading the shapefile on
// first use. Concurrent first calls for the same county share one read.
func (l *Loader) County(fips string) ([]BlockGroup, error) {
	l.mu.Lock()
	bgs, ok := l.counties[fips]
	l.mu.Unlock()
	if ok {
		return bgs, nil
	}

	v, err, _ := l.inflight.Do(fips, func() (any, error) {
		l.mu.Lock()
		cached, ok := l.counties[fips]
		l.mu.Unlock()
		if ok {
			return cached, nil
		}

		path := l.Path(fips)
		bgs, err := l.read(path)
		if err != nil {
			return nil, err
		}
		zap.L().Info("geospatial: loaded county shapefile",
			zap.String("fips", fips),
			zap.String("path", path),
			zap.Int("block_groups", len(bgs)),
		)

		l.mu.Lock()
		l.counties[fips] = bgs
		l.mu.Unlock()
		return bgs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]BlockGroup), nil
}

// Cached reports how many counties are held in memory.
func (l *Loader) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counties)
}

// Counties loads several counties concurrently, preserving input order.
func (l *Loader) Counties(ctx context.Context, fips []string) ([][]BlockGroup, error) {
	out := make([][]BlockGroup, len(fips))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, code := range fips {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bgs, err := l.County(code)
			if err != nil {
				return err
			}
			out[i] = bgs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// HousingMap joins every county's block groups with the NHGIS rows by GEOID
// and returns one feature per block group. Block groups without a matching row
// keep null housing values. The z property carries the unit change only for
// block groups in town.
func (l *Loader) HousingMap(ctx context.Context, t *dataset.Table, year1, year2, town string) (*geojson.FeatureCollection, error) {
	col1, col2 := "housing_units_"+year1, "housing_units_"+year2
	for _, c := range []string{col1, col2} {
		if !t.HasColumn(c) {
			return nil, &dataset.ColumnError{Column: c}
		}
	}

	fips, err := t.CountyFIPS()
	if err != nil {
		return nil, err
	}

	byGEOID := make(map[string]dataset.Row, t.Len())
	for _, r := range t.Rows() {
		id, err := r.GEOID()
		if err != nil {
			return nil, err
		}
		if _, dup := byGEOID[id]; !dup {
			byGEOID[id] = r
		}
	}

	counties, err := l.Counties(ctx, fips)
	if err != nil {
		return nil, err
	}

	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for _, bgs := range counties {
		for _, bg := range bgs {
			f, err := housingFeature(bg, byGEOID, col1, col2, town)
			if err != nil {
				return nil, err
			}
			fc.Features = append(fc.Features, f)
		}
	}
	return fc, nil
}

func housingFeature(bg BlockGroup, rows map[string]dataset.Row, col1, col2, town string) (*geojson.Feature, error) {
	props := make(map[string]any, len(bg.Attributes)+6)
	for k, v := range bg.Attributes {
		props[k] = v
	}
	props[model.PropTown] = nil
	props[col1] = nil
	props[col2] = nil
	props[model.PropUnitsChange] = nil
	props[model.PropUnitsChangePc] = nil
	props[model.PropZ] = nil

	f := &geojson.Feature{ID: bg.GEOID, Geometry: bg.Geometry, Properties: props}

	row, ok := rows[bg.GEOID]
	if !ok {
		return f, nil
	}

	name, err := row.Text(dataset.ColTown)
	if err != nil {
		return nil, err
	}
	if name != "" {
		props[model.PropTown] = name
	}

	u1, ok1, err := row.Number(col1)
	if err != nil {
		return nil, err
	}
	u2, ok2, err := row.Number(col2)
	if err != nil {
		return nil, err
	}
	if ok1 {
		props[col1] = u1
	}
	if ok2 {
		props[col2] = u2
	}
	if !ok1 || !ok2 {
		return f, nil
	}

	change := math.Round(u2 - u1)
	props[model.PropUnitsChange] = change
	if u1 != 0 {
		props[model.PropUnitsChangePc] = math.Round((u2-u1)/u1*100*100) / 100
	}
	if name == town {
		props[model.PropZ] = change
	}
	return f, nil
}
