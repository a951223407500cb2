package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/missing-middle/internal/chart"
	"github.com/sells-group/missing-middle/internal/dashboard"
	"github.com/sells-group/missing-middle/internal/detail"
	"github.com/sells-group/missing-middle/internal/geo"
	"github.com/sells-group/missing-middle/internal/report"
	"github.com/sells-group/missing-middle/pkg/demographics"
)

var (
	renderFilters filterFlags
	renderOut     string
	renderFormat  string
	renderXLSX    bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the dashboard charts, housing map and optional workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		fallback := geo.Point{Lon: cfg.Map.CenterLon, Lat: cfg.Map.CenterLat}
		opts := renderOptions{dir: renderOut, format: renderFormat, xlsx: renderXLSX, center: fallback}
		return runRender(cmd.Context(), cmd.OutOrStdout(), newClient(), renderFilters.resolve(), opts)
	},
}

type renderOptions struct {
	dir    string
	format string
	xlsx   bool
	center geo.Point
}

func runRender(ctx context.Context, out io.Writer, client demographics.Client, filters dashboard.Filters, opts renderOptions) error {
	if opts.format != "png" && opts.format != "svg" {
		return eris.Errorf("render: unsupported format %q", opts.format)
	}
	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return eris.Wrap(err, "render: create output dir")
	}

	s, err := loadSession(ctx, client, filters)
	if err != nil {
		return err
	}
	st := s.Snapshot()
	if st.Population.Status == dashboard.StatusError {
		return panelError("population", st.Population.Err)
	}
	pop := st.Population.Data
	ropts := chart.RenderOptions{Format: opts.format}

	age := chart.AgeSeries(pop.AgeGroupData)
	if err := renderPyramid(out, opts.dir, "age_pyramid."+opts.format, age, chart.AgeLadder, ropts); err != nil {
		return err
	}
	race := chart.RaceSeries(pop.RaceGroupData)
	if err := renderPyramid(out, opts.dir, "race_pyramid."+opts.format, race, chart.RaceLadder, ropts); err != nil {
		return err
	}

	if st.Housing.Status == dashboard.StatusSuccess && st.Housing.Data.GeoJSON != nil {
		path := filepath.Join(opts.dir, "housing_map."+opts.format)
		err := writeFile(path, func(w io.Writer) error {
			return chart.RenderChoropleth(w, st.Housing.Data.GeoJSON, filters.City, opts.center, ropts)
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, path)
	} else {
		zap.L().Warn("render: skipping housing map", zap.String("status", st.Housing.Status.String()))
	}

	if opts.xlsx {
		path := filepath.Join(opts.dir, "report.xlsx")
		err := writeFile(path, func(w io.Writer) error {
			return report.Write(w, pop, st.Housing.Data, detail.Context{Year1: filters.Year1, Year2: filters.Year2, City: filters.City})
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, path)
	}
	return nil
}

func renderPyramid(out io.Writer, dir, name string, s chart.Series, ladder chart.Ladder, ropts chart.RenderOptions) error {
	scale, err := chart.ComputeTicks(s.Values, ladder)
	if err != nil {
		return eris.Wrapf(err, "render: scale %s", name)
	}
	path := filepath.Join(dir, name)
	if err := writeFile(path, func(w io.Writer) error { return chart.RenderPyramid(w, s, scale, ropts) }); err != nil {
		return err
	}
	fmt.Fprintln(out, path)
	return nil
}

// writeFile creates path and hands it to write, removing it on failure.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "render: create %s", path)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return eris.Wrapf(err, "render: write %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "render: close %s", path)
	}
	return nil
}

func init() {
	renderFilters.register(renderCmd)
	renderCmd.Flags().StringVar(&renderOut, "out", "out", "output directory")
	renderCmd.Flags().StringVar(&renderFormat, "format", "png", "image format: png or svg")
	renderCmd.Flags().BoolVar(&renderXLSX, "xlsx", false, "also write report.xlsx")
	rootCmd.AddCommand(renderCmd)
}
