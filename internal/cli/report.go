package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Club summary: revenue, upcoming tournaments and top participants",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				report  Report
				revenue Revenue
			)

			if err := client.Get("/api/v1/tournaments/revenue", &revenue); err != nil {
				return err
			}
			if err := client.Get("/api/v1/tournaments/upcoming", &report.Upcoming); err != nil {
				return err
			}
			if err := client.Get("/api/v1/members/top-participants?limit="+strconv.Itoa(limit), &report.TopParticipants); err != nil {
				return err
			}
			report.TotalRevenue = revenue.Revenue

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(report)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "Number of top participants to show")

	return cmd
}
