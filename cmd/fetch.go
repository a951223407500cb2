package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/missing-middle/internal/dashboard"
	"github.com/sells-group/missing-middle/internal/detail"
	"github.com/sells-group/missing-middle/pkg/demographics"
)

var (
	fetchFilters filterFlags
	fetchHousing bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch population (and housing) insights from the census API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd.Context(), cmd.OutOrStdout(), newClient(), fetchFilters.resolve(), fetchHousing)
	},
}

func runFetch(ctx context.Context, out io.Writer, client demographics.Client, filters dashboard.Filters, withHousing bool) error {
	s, err := loadSession(ctx, client, filters)
	if err != nil {
		return err
	}
	st := s.Snapshot()

	if st.Population.Status == dashboard.StatusError {
		return panelError("population", st.Population.Err)
	}
	pop := st.Population.Data

	fmt.Fprintf(out, "%s, %s to %s\n", filters.City, filters.Year1, filters.Year2)
	total := detail.FormatChange(pop.TotalCityChange.Change)
	fmt.Fprintf(out, "Total population change: %s people (%s)\n\n", total.Text, detail.FormatPercent(pop.TotalCityChange.Percent))

	fmt.Fprintln(out, "Age")
	for _, line := range pop.AgeGroupData.Sentences {
		fmt.Fprintf(out, "  %s\n", line)
	}
	fmt.Fprintln(out, "Race")
	for _, line := range pop.RaceGroupData.Sentences {
		fmt.Fprintf(out, "  %s\n", line)
	}

	if !withHousing {
		return nil
	}
	if st.Housing.Status == dashboard.StatusError {
		return panelError("housing", st.Housing.Err)
	}
	h := st.Housing.Data
	fmt.Fprintln(out, "Housing")
	if h.GeoJSON != nil {
		fmt.Fprintf(out, "  %d block groups\n", len(h.GeoJSON.Features))
	}
	for _, line := range h.Sentences {
		fmt.Fprintf(out, "  %s\n", line)
	}
	return nil
}

// panelError reports a failed panel with its origin.
func panelError(panel string, e *demographics.Error) error {
	if e == nil {
		return fmt.Errorf("%s: failed", panel)
	}
	return fmt.Errorf("%s (%s): %w", panel, e.Origin, e)
}

func init() {
	fetchFilters.register(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchHousing, "housing", false, "include housing insights")
	rootCmd.AddCommand(fetchCmd)
}
