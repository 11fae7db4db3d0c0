package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/corey/acscan/internal/adapters/bbolt"
	"github.com/corey/acscan/internal/app"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
	Long:  "Shows the project paths and the effective configuration (defaults plus config file) as YAML.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	root := projectRoot()
	paths := app.NewPaths(root)
	cfg := app.DefaultConfig()

	source := "defaults"
	file := configFile
	if file == "" && paths.HasConfig() {
		file = paths.Config
	}
	if file != "" {
		if err := app.LoadConfigFile(file, &cfg); err != nil {
			return err
		}
		source = file
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	status := fmt.Sprintf("%s✓ valid%s", colorGreen, colorReset)
	if err := cfg.Validate(); err != nil {
		status = fmt.Sprintf("%s✗ %v%s", colorYellow, err, colorReset)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s⚡ acscan config%s\n", colorBold, colorReset)
	fmt.Fprintf(w, "  Root:       %s\n", root)
	fmt.Fprintf(w, "  DB:         %s\n", paths.DB)
	fmt.Fprintf(w, "  Source:     %s\n", source)
	fmt.Fprintf(w, "  Status:     %s\n", status)
	fmt.Fprintf(w, "  Reports:    %s\n\n", recordedSets(paths.DB))

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// recordedSets describes how many keyword sets have reports in the store.
func recordedSets(dbPath string) string {
	if _, err := os.Stat(dbPath); err != nil {
		return "none recorded"
	}
	store, err := bbolt.NewStore(dbPath)
	if err != nil {
		return fmt.Sprintf("%s✗ %s%s", colorYellow, Describe(err), colorReset)
	}
	defer store.Close()
	sets, err := store.ListKeywordSets()
	if err != nil {
		return fmt.Sprintf("%s✗ %v%s", colorYellow, err, colorReset)
	}
	return fmt.Sprintf("%d keyword sets", len(sets))
}
