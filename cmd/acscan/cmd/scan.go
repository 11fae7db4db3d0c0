package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/corey/acscan/internal/app"
)

// stdinName labels matches read from standard input.
const stdinName = "(standard input)"

// errQuietStop ends a --quiet scan at the first match.
var errQuietStop = errors.New("match found")

var (
	scanOpts  scanOptions
	scanCount bool
	scanQuiet bool
	scanStats bool
)

var scanCmd = &cobra.Command{
	Use:   "scan -k keywords.txt [flags] [path ...]",
	Short: "Report every keyword occurrence in files",
	Long: "Scans each file once and prints every occurrence of every keyword with inclusive\n" +
		"byte offsets. Directories are walked recursively. With no path (or \"-\") stdin is scanned.\n" +
		"Exit status: 0 if anything matched, 1 if nothing did, 2 on error.",
	Args:          cobra.ArbitraryArgs,
	RunE:          runScan,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	f := scanCmd.Flags()
	addScanFlags(f, &scanOpts)
	f.BoolVar(&scanOpts.incremental, "incremental", false, "Skip files unchanged since their recorded report (implies --record)")
	f.BoolVarP(&scanCount, "count", "c", false, "Print per-file match counts only")
	f.BoolVarP(&scanQuiet, "quiet", "q", false, "Quiet mode (exit code only, stops at the first match)")
	f.BoolVar(&scanStats, "stats", false, "Print a summary line to stderr")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := scanOpts.config(cmd.Flags())
	if err != nil {
		return err
	}
	cfg.CountOnly = scanCount || scanQuiet
	if !scanQuiet && !isStdoutTTY() {
		cfg.Progress = app.NewProgress(os.Stderr)
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := bufio.NewWriter(cmd.OutOrStdout())
	defer out.Flush()
	p := &printer{
		w:          out,
		json:       scanOpts.format == "json",
		color:      scanOpts.format == "text" && resolveColor(scanOpts.color),
		noFilename: scanOpts.noFilename,
		count:      scanCount,
		keyword:    a.Matcher.Keyword,
	}

	sink := func(res app.FileResult) error {
		if scanQuiet {
			if res.Report != nil && res.Report.Matches > 0 {
				return errQuietStop
			}
			return nil
		}
		return p.print(res)
	}

	var sum app.Summary
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		if len(args) == 0 && !isStdinPipe() {
			return fmt.Errorf("no paths given and stdin is a terminal")
		}
		sum, err = scanStdin(ctx, a, cmd, sink)
	} else {
		sum, err = a.Scan(ctx, args, sink)
	}

	switch {
	case errors.Is(err, errQuietStop):
		return scanExit{0}
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("interrupted")
	case err != nil:
		return err
	}

	if scanStats {
		out.Flush()
		fmt.Fprintln(cmd.ErrOrStderr(), formatSummary(sum, isStderrTTY()))
	}
	return exitFor(sum)
}

// scanStdin scans standard input as a single stream.
func scanStdin(ctx context.Context, a *app.App, cmd *cobra.Command, sink app.Sink) (app.Summary, error) {
	res := a.ScanReader(ctx, stdinName, cmd.InOrStdin())
	sum := app.Summary{Files: 1}
	if res.Err != nil {
		if errors.Is(res.Err, context.Canceled) {
			return sum, context.Canceled
		}
		log := a.Config().Log
		log.Warn().Err(res.Err).Msg("scan failed")
		sum.Failed = 1
	} else {
		sum.Scanned = 1
		sum.Matches = res.Report.Matches
	}
	return sum, sink(res)
}

// exitFor maps a finished run to a grep-style status: 0 when anything
// matched, 2 when nothing could be scanned at all, 1 otherwise.
func exitFor(sum app.Summary) error {
	switch {
	case sum.Matches > 0:
		return nil
	case sum.Failed > 0 && sum.Scanned+sum.Skipped == 0:
		return scanExit{2}
	default:
		return scanExit{1}
	}
}
