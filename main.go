package main

import (
	"os"
	"os/signal"

	"github.com/andynicholson/cricket/cmd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// main is the entry point of the application.
// It configures logging based on the DEBUG_CRICKET environment variable,
// starts a goroutine to listen for interrupt signals, and executes the main command.
func main() {
	configureLogLevelFromEnv()

	stopChan := setupInterruptListener()
	go handleInterrupt(stopChan, func(msg string) { log.Fatal().Msg(msg) }, os.Exit)

	cmd.Execute()
}

// configureLogLevelFromEnv enables debug logging when DEBUG_CRICKET is set to
// anything other than "", "0", or "false"; otherwise logging is disabled.
func configureLogLevelFromEnv() {
	switch os.Getenv("DEBUG_CRICKET") {
	case "", "0", "false":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// setupInterruptListener registers a channel for interrupt signals.
func setupInterruptListener() chan os.Signal {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	return stopChan
}

// handleInterrupt blocks until a signal arrives, then logs and exits.
func handleInterrupt(stopChan chan os.Signal, fatalLog func(string), exit func(int)) {
	<-stopChan
	fatalLog("Interrupt signal received. Exiting...")
	exit(1)
}
