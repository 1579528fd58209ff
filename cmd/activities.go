package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// activitiesCmd creates a new cobra.Command for listing recent activities.
// It returns a pointer to the created cobra.Command.
func activitiesCmd() *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "activities",
		Short: "List your recent activities",
		Long:  "List your Strava activities, most recent first",
		Run: func(cmd *cobra.Command, args []string) {
			svc := newServices(stravaConfigFromEnv(), true)
			defer svc.close()

			ctx := context.Background()
			token, err := svc.accessToken(ctx)
			if err != nil {
				cmd.PrintErrln("Error:", err)
				return
			}

			activities, err := svc.strava.GetActivities(ctx, token, page, perPage)
			if err != nil {
				cmd.PrintErrln("Error: Failed to fetch activities.")
				return
			}
			if len(activities) == 0 {
				cmd.Println("No activities found.")
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Date", "Name", "Type", "Distance", "Moving Time"})
			table.SetColMinWidth(1, 40)                      // Set minimum width for the Name column
			table.SetAlignment(tablewriter.ALIGN_LEFT)       // Align all columns to the left
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT) // Align headers to the left
			table.SetAutoWrapText(false)                     // Disable text wrapping in all columns
			table.SetRowLine(false)                          // Disable row line breaks

			for _, a := range activities {
				// Clean the name to remove line breaks or unnecessary spaces
				cleanedName := strings.ReplaceAll(a.Name, "\n", " ")
				table.Append([]string{
					a.StartDateLocal,
					cleanedName,
					a.Type,
					formatDistance(a.Distance),
					formatDuration(a.MovingTime),
				})
			}
			table.Render()
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number to fetch")
	cmd.Flags().IntVarP(&perPage, "per-page", "c", 10, "Number of activities per page")

	return cmd
}
