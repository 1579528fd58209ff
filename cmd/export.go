package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// exportCmd creates a new cobra.Command for exporting the full activity
// history to a JSON file. It returns a pointer to the created cobra.Command.
func exportCmd() *cobra.Command {
	var outPath string
	var perPage int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export your full activity history",
		Long:  "Download every Strava activity and write them to a JSON file",
		Run: func(cmd *cobra.Command, args []string) {
			svc := newServices(stravaConfigFromEnv(), true)
			defer svc.close()

			ctx := context.Background()
			token, err := svc.accessToken(ctx)
			if err != nil {
				cmd.PrintErrln("Error:", err)
				return
			}

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("Fetching activities..."),
				progressbar.OptionSetWidth(20),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			activities, err := svc.strava.GetAllActivities(ctx, token, perPage, func(fetched int) {
				bar.Set(fetched)
			})
			bar.Finish()
			if err != nil {
				cmd.PrintErrln("Error: Failed to fetch the activity history.")
				return
			}

			if dir := filepath.Dir(outPath); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					cmd.PrintErrln("Error: Failed to create the output directory.")
					return
				}
			}

			data, err := json.MarshalIndent(activities, "", "  ")
			if err != nil {
				cmd.PrintErrln("Error: Failed to encode the activities.")
				return
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				cmd.PrintErrln("Error: Failed to write the output file.")
				return
			}

			cmd.Printf("Exported %d activities to %s.\n", len(activities), outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "activities.json", "Path of the output JSON file")
	cmd.Flags().IntVarP(&perPage, "per-page", "c", 100, "Number of activities fetched per request")

	return cmd
}
