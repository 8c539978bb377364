// Package cmd provides the command-line interface of pktsim.
package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// LogLevelEnv names the environment variable that sets the log level when
// the --log-level flag is not given. It may also be set in a .env file.
const LogLevelEnv = "PKTSIM_LOG_LEVEL"

// NewRootCommand creates the pktsim command with all its subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pktsim",
		Short: "pktsim runs packet flow simulations.",
		Long: `pktsim builds networks of queues, schedulers, filters and ` +
			`servers from YAML topology files and simulates them in ` +
			`virtual time.`,
		SilenceUsage:      true,
		PersistentPreRunE: setUpLogging,
	}

	rootCmd.PersistentFlags().String("log-level", "",
		"log level (panic, fatal, error, warn, info, debug, trace); "+
			"defaults to $"+LogLevelEnv+" or warn")

	rootCmd.AddCommand(newRunCommand(), newCheckCommand())

	return rootCmd
}

func setUpLogging(cmd *cobra.Command, _ []string) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = os.Getenv(LogLevelEnv)
	}

	if level == "" {
		level = "warn"
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	logrus.SetLevel(parsed)

	return nil
}

// Execute runs the root command and exits, running the exit handlers that
// flush recorded data.
func Execute() {
	err := NewRootCommand().Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
