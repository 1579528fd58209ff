package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/andynicholson/cricket/client"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// statsCmd creates a new cobra.Command for showing the athlete's running
// totals. It returns a pointer to the created cobra.Command.
func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show your running totals",
		Long:  "Show recent, year-to-date, and all-time running totals from Strava",
		Run: func(cmd *cobra.Command, args []string) {
			svc := newServices(stravaConfigFromEnv(), true)
			defer svc.close()

			athlete := svc.manager.Athlete()
			if athlete == nil {
				cmd.PrintErrln("Error: Not connected to Strava. Use `cricket connect` first.")
				return
			}

			ctx := context.Background()
			token, err := svc.accessToken(ctx)
			if err != nil {
				cmd.PrintErrln("Error:", err)
				return
			}

			stats, err := svc.strava.GetAthleteStats(ctx, token, athlete.ID)
			if err != nil {
				cmd.PrintErrln("Error: Failed to fetch athlete stats.")
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Period", "Runs", "Distance", "Moving Time", "Elevation"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)       // Align all columns to the left
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT) // Align headers to the left
			table.SetAutoWrapText(false)                     // Disable text wrapping in all columns
			table.SetRowLine(false)                          // Disable row line breaks

			for _, row := range []struct {
				period string
				totals client.ActivityTotals
			}{
				{"Recent (4 weeks)", stats.RecentRunTotals},
				{"Year to date", stats.YTDRunTotals},
				{"All time", stats.AllRunTotals},
			} {
				table.Append([]string{
					row.period,
					formatInt(row.totals.Count),
					formatDistance(row.totals.Distance),
					formatDuration(row.totals.MovingTime),
					fmt.Sprintf("%.0f m", row.totals.ElevationGain),
				})
			}
			table.Render()
		},
	}
	return cmd
}
