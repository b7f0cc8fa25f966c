package output

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/dmagro/eth-wallet-rpc/internal/metrics"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()

	headerFmt = color.New(color.FgCyan, color.Underline).SprintfFunc()
)

// DisableColor turns colored output off, e.g. for --no-color or pipes.
func DisableColor() { color.NoColor = true }

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(str string) string {
	return ansiRegex.ReplaceAllString(str, "")
}

// padRight pads a colored string to width visible characters.
func padRight(str string, width int) string {
	visible := len([]rune(stripANSI(str)))
	if visible < width {
		return str + strings.Repeat(" ", width-visible)
	}
	return str
}

func colorLatency(d time.Duration) string {
	ms := d.Milliseconds()
	s := fmt.Sprintf("%dms", ms)
	switch {
	case ms < 100:
		return green(s)
	case ms < 300:
		return yellow(s)
	default:
		return red(s)
	}
}

func colorSuccessRate(pct float64) string {
	s := fmt.Sprintf("%.1f%%", pct)
	switch {
	case pct >= 99:
		return green(s)
	case pct >= 90:
		return yellow(s)
	default:
		return red(s)
	}
}

func colorStatus(s metrics.Status) string {
	switch s {
	case metrics.StatusUp:
		return green(string(s))
	case metrics.StatusSlow, metrics.StatusDegraded:
		return yellow(string(s))
	default:
		return red(string(s))
	}
}

func colorCount(n int) string {
	if n == 0 {
		return dim("0")
	}
	return red(fmt.Sprintf("%d", n))
}
