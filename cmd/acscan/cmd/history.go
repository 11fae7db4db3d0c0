package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corey/acscan/internal/app"
)

var (
	historyKeywords string
	historyAlphabet int
	historyFormat   string
	historyClear    bool
)

var historyCmd = &cobra.Command{
	Use:   "history -k keywords.txt",
	Short: "List recorded per-file reports for a keyword list",
	Long: "Shows the reports recorded by scan --record / --incremental for the given keyword\n" +
		"list. Reports are kept per keyword list; editing the list starts a fresh history.",
	Args:          cobra.NoArgs,
	RunE:          runHistory,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	f := historyCmd.Flags()
	f.StringVarP(&historyKeywords, "keywords", "k", "", "Keyword list file, one keyword per line")
	f.IntVar(&historyAlphabet, "alphabet-size", app.DefaultConfig().AlphabetSize, "Alphabet size the reports were recorded with")
	f.StringVar(&historyFormat, "format", "text", "Output format: text, json")
	f.BoolVar(&historyClear, "clear", false, "Delete the recorded reports instead of listing them")
}

func runHistory(cmd *cobra.Command, args []string) error {
	opts := scanOptions{keywords: historyKeywords, alphabetSize: historyAlphabet, format: historyFormat, color: "auto"}
	cfg, err := opts.config(cmd.Flags())
	if err != nil {
		return err
	}
	cfg.Record = true
	if cfg.DBPath == "" {
		paths := app.NewPaths(projectRoot())
		if err := paths.EnsureDirs(); err != nil {
			return err
		}
		cfg.DBPath = paths.DB
	}

	h, err := app.OpenHistory(cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	if historyClear {
		if err := h.Forget(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared reports for keyword set %s\n", h.SetID)
		return nil
	}

	reports, err := h.Reports()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if historyFormat == "json" {
		enc := json.NewEncoder(w)
		for _, r := range reports {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	color := isStdoutTTY()
	if color {
		fmt.Fprintf(w, "%s⚡ %d reports%s │ keyword set %s\n", colorBold, len(reports), colorReset, h.SetID)
	} else {
		fmt.Fprintf(w, "⚡ %d reports │ keyword set %s\n", len(reports), h.SetID)
	}
	for _, r := range reports {
		scanned := time.Unix(r.ScannedAt, 0).Format(time.DateTime)
		mark := ""
		if r.Truncated {
			mark = " (truncated)"
		}
		if color {
			fmt.Fprintf(w, "  %s%s%s:%d%s  %s%s%s\n", colorCyan, r.Path, colorReset, r.Matches, mark, colorGray, scanned, colorReset)
		} else {
			fmt.Fprintf(w, "  %s:%d%s  %s\n", r.Path, r.Matches, mark, scanned)
		}
	}
	return nil
}
