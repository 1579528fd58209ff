package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// connectCmd creates a new cobra.Command for connecting a Strava account.
// It returns a pointer to the created cobra.Command.
func connectCmd() *cobra.Command {
	var headless bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect your Strava account",
		Long:  "Authorize cricket with your Strava account in a browser window",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := stravaConfigFromEnv()
			if cfg.ClientID == "" {
				cfg.ClientID = promptForInput("Strava client ID: ")
			}
			if cfg.ClientSecret == "" {
				secret, err := promptForSecret("Strava client secret: ")
				if err != nil {
					cmd.PrintErrln("Error: Failed to read the client secret.")
					return
				}
				cfg.ClientSecret = secret
			}
			if !validateStravaConfig(cfg) {
				cmd.PrintErrln("Error: Client ID and client secret cannot be empty.")
				return
			}

			svc := newServices(cfg, headless)
			defer svc.close()

			if err := svc.manager.Login(); err != nil {
				cmd.PrintErrln("Error: Failed to start the authorization flow.")
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := svc.manager.WaitForLogin(ctx); err != nil {
				cmd.PrintErrln("Error: Authorization did not complete:", err)
				return
			}

			if athlete := svc.manager.Athlete(); athlete != nil {
				cmd.Printf("Connected as %s %s.\n", athlete.FirstName, athlete.LastName)
			} else {
				cmd.Println("Strava account connected.")
			}
		},
	}

	cmd.Flags().BoolVarP(&headless, "headless", "n", false,
		"Run the browser window in headless mode? [true, false]")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 4*time.Minute,
		"How long to wait for the authorization to complete")

	return cmd
}

// promptForInput prompts the user for input and returns the trimmed string.
// It takes a prompt string as an argument.
func promptForInput(prompt string) string {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(prompt)
	input, err := reader.ReadString('\n')
	if err != nil {
		fmt.Println("Error: Failed to read input.")
		os.Exit(1)
	}
	return strings.TrimSpace(input)
}
