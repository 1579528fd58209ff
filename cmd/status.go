package cmd

import (
	"context"
	"os"

	"github.com/andynicholson/cricket/auth"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// statusCmd creates a new cobra.Command for showing the connection status.
// It returns a pointer to the created cobra.Command.
func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the Strava connection status",
		Run: func(cmd *cobra.Command, args []string) {
			svc := newServices(stravaConfigFromEnv(), true)
			defer svc.close()

			appVersion, err := svc.api.GetAppVersion(context.Background())
			if err != nil {
				appVersion = version
			}
			cmd.Println("Cricket version:", appVersion)

			if svc.manager.Status() != auth.StatusAuthenticated {
				cmd.Println("Not connected to Strava. Use `cricket connect` to connect your account.")
				return
			}

			athlete := svc.manager.Athlete()
			if athlete == nil {
				cmd.Println("Connected to Strava.")
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Athlete ID", "Name", "City", "Country"})
			table.SetAlignment(tablewriter.ALIGN_LEFT)       // Align all columns to the left
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT) // Align headers to the left
			table.SetAutoWrapText(false)                     // Disable text wrapping in all columns
			table.SetRowLine(false)                          // Disable row line breaks
			table.Append([]string{
				formatInt(athlete.ID),
				athlete.FirstName + " " + athlete.LastName,
				athlete.City,
				athlete.Country,
			})
			table.Render()
		},
	}
	return cmd
}
