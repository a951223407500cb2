package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/missing-middle/internal/dashboard"
	"github.com/sells-group/missing-middle/internal/detail"
	"github.com/sells-group/missing-middle/pkg/demographics"
)

var (
	detailFilters filterFlags
	detailKind    string
	detailGroup   string
)

var detailCmd = &cobra.Command{
	Use:   "detail",
	Short: "Print the detail table of one age bracket or race group",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := detail.ParseKind(detailKind)
		if err != nil {
			return err
		}
		return runDetail(cmd.Context(), cmd.OutOrStdout(), newClient(), detailFilters.resolve(), kind, detailGroup)
	},
}

func runDetail(ctx context.Context, out io.Writer, client demographics.Client, filters dashboard.Filters, kind detail.Kind, group string) error {
	s, err := loadSession(ctx, client, filters)
	if err != nil {
		return err
	}
	if st := s.Snapshot(); st.Population.Status == dashboard.StatusError {
		return panelError("population", st.Population.Err)
	}

	if _, err := s.Select(kind, group); err != nil {
		return err
	}
	p, ok := s.DetailPanel(kind)
	if !ok {
		return fmt.Errorf("detail: no %s selection", kind)
	}

	fmt.Fprintln(out, p.Title)
	fmt.Fprintln(out, p.Subtitle)
	fmt.Fprintf(out, "Total change: %s people\n\n", p.Summary.Text)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, row := range p.Table() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func init() {
	detailFilters.register(detailCmd)
	detailCmd.Flags().StringVar(&detailKind, "kind", "age", "group kind: age or race")
	detailCmd.Flags().StringVar(&detailGroup, "group", "", "group label, e.g. \"20 - 24\" or \"asian\"")
	_ = detailCmd.MarkFlagRequired("group")
	rootCmd.AddCommand(detailCmd)
}
