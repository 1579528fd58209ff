package cmd

import (
	"path/filepath"
	"testing"

	"github.com/andynicholson/cricket/db"
)

// TestCreateRootCmd checks that createRootCmd returns a root command
// with the expected use string, subcommands, and a replaced help command.
func TestCreateRootCmd(t *testing.T) {
	rootCmd := createRootCmd()
	if rootCmd.Use != "cricket" {
		t.Errorf("expected root command use to be 'cricket', got: %s", rootCmd.Use)
	}

	subCommands := rootCmd.Commands()
	if len(subCommands) == 0 {
		t.Error("expected root command to have subcommands, got none")
	}

	// Verify that the default help command is replaced (i.e. no subcommand with Use "help")
	for _, cmd := range subCommands {
		if cmd.Use == "help" {
			t.Error("expected help command to be replaced, but found a subcommand with use 'help'")
		}
	}
}

// TestInitializeAndCloseDatabase sets a temporary DB path and calls
// initializeDatabase and closeDatabase. If no os.Exit occurs, the test passes.
func TestInitializeAndCloseDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	db.Path = filepath.Join(tmpDir, "cricket.db")
	initializeDatabase()
	closeDatabase()
}
