package outwriter

import (
	"os"

	"github.com/huangsam/symnet/internal/contract"
	"golang.org/x/term"
)

// Bounds for symptom name columns.
const (
	minNameWidth = 8
	maxNameWidth = 40
)

// GetMaxTableNameWidth calculates the maximum width for symptom names in table output
// based on terminal width and the number of numeric columns beside the name.
func GetMaxTableNameWidth(cfg *contract.Config, numericColumns int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Each numeric column needs roughly precision digits plus sign, padding and a border
	baseWidth := numericColumns*(cfg.Precision+6) + 4

	available := termWidth - baseWidth
	if available < minNameWidth {
		return minNameWidth
	}
	if available > maxNameWidth {
		return maxNameWidth
	}
	return available
}

// displayName abbreviates and truncates a symptom name for table output.
func displayName(name string, cfg *contract.Config, width int) string {
	if cfg.Abbreviate && cfg.Catalog != nil {
		name = cfg.Catalog.Abbreviate(name)
	}
	return contract.TruncateName(name, width)
}
