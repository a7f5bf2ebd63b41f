package outwriter

import (
	"os"

	"github.com/thaafei/domainx/internal/contract"
	"golang.org/x/term"
)

// getMaxTableNameWidth calculates the maximum width for library names in table output
// based on terminal width and the number of category columns.
func getMaxTableNameWidth(cfg *contract.Config, categoryColumns int) int {
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

	// Rank + Score + Label with borders/padding
	baseWidth := 30

	if cfg.Detail {
		baseWidth += 12 * categoryColumns // one score column per category
		baseWidth += 10                   // completeness
	}

	baseWidth += 10

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 50 {
		return 50
	}
	return available
}
