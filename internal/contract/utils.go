package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Scoring label constants.
const (
	ExcellentValue = "Excellent"
	GoodValue      = "Good"
	FairValue      = "Fair"
	PoorValue      = "Poor"
)

// Color variables for console output.
var (
	ExcellentColor = color.New(color.FgGreen, color.Bold)
	GoodColor      = color.New(color.FgCyan)
	FairColor      = color.New(color.FgYellow)
	PoorColor      = color.New(color.FgRed)
)

// GetPlainLabel returns a plain text label for an overall score in [0,1].
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 0.8:
		return ExcellentValue
	case score >= 0.6:
		return GoodValue
	case score >= 0.4:
		return FairValue
	default:
		return PoorValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(score float64) string {
	text := GetPlainLabel(score)

	switch text {
	case ExcellentValue:
		return ExcellentColor.Sprint(text)
	case GoodValue:
		return GoodColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	default:
		return PoorColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output.
// An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

func homeFile(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(homeDir, name)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for the domain store.
func GetStoreDBFilePath() string {
	return homeFile(".domainx.db")
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the ranking cache.
func GetCacheDBFilePath() string {
	return homeFile(".domainx_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for ranking history.
func GetHistoryDBFilePath() string {
	return homeFile(".domainx_history.db")
}

// TruncateName shortens a display name to maxWidth runes with an ellipsis suffix.
// Requires maxWidth > 3 so at least one character of content survives.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
