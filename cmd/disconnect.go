package cmd

import (
	"github.com/spf13/cobra"
)

// disconnectCmd creates a new cobra.Command for disconnecting the Strava
// account. It returns a pointer to the created cobra.Command.
func disconnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect your Strava account",
		Long:  "Remove the stored Strava tokens and return to the anonymous state",
		Run: func(cmd *cobra.Command, args []string) {
			svc := newServices(stravaConfigFromEnv(), true)
			defer svc.close()

			svc.manager.Logout()
			cmd.Println("Strava account disconnected.")
		},
	}
	return cmd
}
