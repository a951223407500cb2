package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/missing-middle/internal/dashboard"
	"github.com/sells-group/missing-middle/pkg/demographics"
)

// filterFlags are the --year1/--year2/--city flags shared by the client
// commands. Empty values fall back to the dashboard config.
type filterFlags struct {
	year1, year2, city string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.year1, "year1", "", "first census year (default from config)")
	cmd.Flags().StringVar(&f.year2, "year2", "", "second census year (default from config)")
	cmd.Flags().StringVar(&f.city, "city", "", "town name (default from config)")
}

func (f *filterFlags) resolve() dashboard.Filters {
	out := dashboard.Filters{Year1: cfg.Dashboard.Year1, Year2: cfg.Dashboard.Year2, City: cfg.Dashboard.City}
	if f.year1 != "" {
		out.Year1 = f.year1
	}
	if f.year2 != "" {
		out.Year2 = f.year2
	}
	if f.city != "" {
		out.City = f.city
	}
	return out
}

// newClient builds the census API client from config.
func newClient() demographics.Client {
	return demographics.NewClient(
		demographics.WithBaseURL(cfg.API.BaseURL),
		demographics.WithTimeout(time.Duration(cfg.API.TimeoutSecs)*time.Second),
	)
}

// loadSession validates the dashboard config and runs one full load.
// The session is returned even when a panel failed; callers inspect its
// snapshot for per-panel errors.
func loadSession(ctx context.Context, client demographics.Client, filters dashboard.Filters) (*dashboard.Session, error) {
	if err := cfg.Validate("dashboard"); err != nil {
		return nil, err
	}
	s := dashboard.New(client, filters)
	_ = s.Load(ctx)
	return s, nil
}
