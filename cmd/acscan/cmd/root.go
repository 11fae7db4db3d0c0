package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configFile string
)

var rootCmd = &cobra.Command{
	Use:           "acscan",
	Short:         "acscan: multi-keyword byte stream scanner",
	Long:          "Finds every occurrence of every keyword from a list in files or stdin, in one pass per file.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// projectRoot returns the project root (cwd by default).
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return dir
}

// newLogger builds the stderr console logger at the given level.
func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	out := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    !isStderrTTY(),
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default warn)")
	pf.StringVar(&configFile, "config", "", "Config file (default .acscan/config.yaml when present)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}
