package outwriter

import (
	"os"

	"github.com/huangsam/gitreport/internal/contract"
	"golang.org/x/term"
)

// Bounds for the contributor name column.
const (
	minNameWidth = 12
	maxNameWidth = 40
)

// getTerminalWidth returns the --width override, the detected terminal width, or 80.
func getTerminalWidth(cfg *contract.Config) int {
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Conservative default for narrow terminals and CI
		return 80
	}
	return detectedWidth
}

// getMaxTableNameWidth calculates the maximum width for contributor names in the
// contributor table based on terminal width.
func getMaxTableNameWidth(cfg *contract.Config) int {
	// Rank + Commits + Added + Removed + Last commit, with borders and padding
	baseWidth := 6 + 10 + 12 + 12 + 14 + 16
	return min(max(getTerminalWidth(cfg)-baseWidth, minNameWidth), maxNameWidth)
}
