package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/corey/acscan/internal/app"
	"github.com/corey/acscan/internal/ports"
)

// ANSI color codes for terminal output.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorGray    = "\033[90m"
)

// printer renders scan results. Text lines look like
//
//	path:keyword:start:end
//	keyword start end          (--no-filename)
//	path:count                 (--count)
//
// and JSON output is one object per line.
type printer struct {
	w          io.Writer
	json       bool
	color      bool
	noFilename bool
	count      bool
	keyword    func(int) []byte
}

type jsonMatch struct {
	Path    string `json:"path,omitempty"`
	Keyword string `json:"keyword"`
	Index   int    `json:"index"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
}

type jsonCount struct {
	Path      string      `json:"path"`
	Matches   int         `json:"matches"`
	Counts    map[int]int `json:"counts"`
	Truncated bool        `json:"truncated,omitempty"`
	Skipped   bool        `json:"skipped,omitempty"`
}

// print writes one file's result. Failed results print nothing; the scan
// has already logged them.
func (p *printer) print(res app.FileResult) error {
	if res.Err != nil || res.Report == nil {
		return nil
	}
	if p.count {
		return p.printCount(res)
	}
	if len(res.Matches) == 0 {
		return nil
	}

	if p.json {
		enc := json.NewEncoder(p.w)
		for _, m := range res.Matches {
			jm := jsonMatch{
				Keyword: string(p.keyword(m.Keyword)),
				Index:   m.Keyword,
				Start:   m.Start,
				End:     m.End,
			}
			if !p.noFilename {
				jm.Path = res.Path
			}
			if err := enc.Encode(jm); err != nil {
				return err
			}
		}
		return nil
	}

	var sb strings.Builder
	for _, m := range res.Matches {
		p.writeMatch(&sb, res.Path, m)
	}
	_, err := io.WriteString(p.w, sb.String())
	return err
}

func (p *printer) writeMatch(sb *strings.Builder, path string, m ports.Match) {
	kw := p.keyword(m.Keyword)
	start := strconv.FormatInt(m.Start, 10)
	end := strconv.FormatInt(m.End, 10)

	if p.noFilename {
		if p.color {
			fmt.Fprintf(sb, "%s%s%s %s %s\n", colorMagenta, kw, colorReset, start, end)
		} else {
			fmt.Fprintf(sb, "%s %s %s\n", kw, start, end)
		}
		return
	}
	if p.color {
		fmt.Fprintf(sb, "%s%s%s:%s%s%s:%s%s:%s%s\n",
			colorCyan, path, colorReset,
			colorMagenta, kw, colorReset,
			colorGreen, start, end, colorReset)
		return
	}
	fmt.Fprintf(sb, "%s:%s:%s:%s\n", path, kw, start, end)
}

func (p *printer) printCount(res app.FileResult) error {
	rep := res.Report
	if p.json {
		return json.NewEncoder(p.w).Encode(jsonCount{
			Path:      res.Path,
			Matches:   rep.Matches,
			Counts:    rep.Counts,
			Truncated: rep.Truncated,
			Skipped:   res.Skipped,
		})
	}
	var line string
	switch {
	case p.noFilename:
		line = fmt.Sprintf("%d\n", rep.Matches)
	case p.color:
		line = fmt.Sprintf("%s%s%s:%d\n", colorCyan, res.Path, colorReset, rep.Matches)
	default:
		line = fmt.Sprintf("%s:%d\n", res.Path, rep.Matches)
	}
	_, err := io.WriteString(p.w, line)
	return err
}

// formatSummary renders the end-of-run statistics line.
//
//	⚡ 12 matches │ 40 files (38 scanned, 1 skipped, 1 failed) │ 3ms
func formatSummary(sum app.Summary, color bool) string {
	head := fmt.Sprintf("⚡ %d matches", sum.Matches)
	if color {
		head = colorBold + head + colorReset
	}
	detail := fmt.Sprintf("%d files (%d scanned, %d skipped, %d failed)",
		sum.Files, sum.Scanned, sum.Skipped, sum.Failed)
	if color && sum.Failed > 0 {
		detail = colorYellow + detail + colorReset
	}
	return fmt.Sprintf("%s │ %s │ %s", head, detail, sum.Elapsed.Round(10*time.Microsecond))
}
