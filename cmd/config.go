package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/andynicholson/cricket/client"
	"golang.org/x/term"
)

// Environment variables carrying the Strava application credentials. They are
// read once here, at the composition root, and handed only to the privileged
// client; nothing downstream of the capability bridge ever sees them.
const (
	envClientID     = "CRICKET_STRAVA_CLIENT_ID"
	envClientSecret = "CRICKET_STRAVA_CLIENT_SECRET"
)

// stravaConfigFromEnv assembles the client configuration from the
// environment.
func stravaConfigFromEnv() client.Config {
	return client.Config{
		ClientID:     strings.TrimSpace(os.Getenv(envClientID)),
		ClientSecret: strings.TrimSpace(os.Getenv(envClientSecret)),
		RedirectURI:  client.DefaultRedirectURI,
	}
}

// promptForSecret prompts the user for the client secret without echoing it.
func promptForSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	fmt.Println()
	return strings.TrimSpace(string(secret)), nil
}

// validateStravaConfig checks that both credentials are present.
func validateStravaConfig(cfg client.Config) bool {
	return cfg.ClientID != "" && cfg.ClientSecret != ""
}
