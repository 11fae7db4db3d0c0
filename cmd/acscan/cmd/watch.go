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

	"github.com/corey/acscan/internal/adapters/fsnotify"
	"github.com/corey/acscan/internal/app"
)

var (
	watchOpts  scanOptions
	watchCount bool
)

var watchCmd = &cobra.Command{
	Use:   "watch -k keywords.txt [flags] DIR",
	Short: "Scan a directory, then rescan files as they change",
	Long: "Runs a full scan of DIR, then watches it recursively and prints the matches of\n" +
		"every file whose content changes. Stops on Ctrl-C.",
	Args:          cobra.ExactArgs(1),
	RunE:          runWatch,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	f := watchCmd.Flags()
	addScanFlags(f, &watchOpts)
	f.BoolVarP(&watchCount, "count", "c", false, "Print per-file match counts only")
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := args[0]
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	cfg, err := watchOpts.config(cmd.Flags())
	if err != nil {
		return err
	}
	cfg.CountOnly = watchCount

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []fsnotify.Option{fsnotify.WithLogger(cfg.Log)}
	if cfg.ExcludeDir != "" {
		opts = append(opts, fsnotify.WithExcludeDir(cfg.ExcludeDir))
	}
	w, err := fsnotify.NewWatcher(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := bufio.NewWriter(cmd.OutOrStdout())
	p := &printer{
		w:          out,
		json:       watchOpts.format == "json",
		color:      watchOpts.format == "text" && resolveColor(watchOpts.color),
		noFilename: watchOpts.noFilename,
		count:      watchCount,
		keyword:    a.Matcher.Keyword,
	}
	// Flush per file so changes show up as they happen.
	sink := func(res app.FileResult) error {
		if err := p.print(res); err != nil {
			return err
		}
		return out.Flush()
	}

	err = a.Watch(ctx, root, w, sink)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
