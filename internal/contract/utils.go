package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Node label constants.
const (
	HubValue      = "Hub"      // Hub value
	HighValue     = "High"     // High value
	ModerateValue = "Moderate" // Moderate value
	LowValue      = "Low"      // Low value
	IsolatedValue = "Isolated" // Isolated value
)

// Color variables for console output.
var (
	HubColor      = color.New(color.FgRed, color.Bold)     // HubColor marks the most connected symptoms.
	HighColor     = color.New(color.FgMagenta, color.Bold) // HighColor marks strongly connected symptoms.
	ModerateColor = color.New(color.FgYellow)              // ModerateColor is not bold.
	LowColor      = color.New(color.FgCyan)                // LowColor is informational.
	IsolatedColor = color.New(color.FgHiBlack)             // IsolatedColor marks nodes without edges.
	PositiveColor = color.New(color.FgGreen)               // PositiveColor marks reinforcing edges.
	NegativeColor = color.New(color.FgRed)                 // NegativeColor marks dampening edges.
)

// GetPlainLabel returns a plain text label for a node based on its degree
// relative to the most connected node. This is the core logic used for
// CSV, JSON, and table printing.
func GetPlainLabel(degree, maxDegree int) string {
	if degree <= 0 || maxDegree <= 0 {
		return IsolatedValue
	}
	ratio := float64(degree) / float64(maxDegree)
	switch {
	case ratio >= 0.8:
		return HubValue
	case ratio >= 0.6:
		return HighValue
	case ratio >= 0.4:
		return ModerateValue
	default:
		return LowValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(degree, maxDegree int) string {
	text := GetPlainLabel(degree, maxDegree)

	switch text {
	case HubValue:
		return HubColor.Sprint(text)
	case HighValue:
		return HighColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	case LowValue:
		return LowColor.Sprint(text)
	default: // "Isolated"
		return IsolatedColor.Sprint(text)
	}
}

// GetSignLabel returns "+" or "-" for an edge weight, colored when requested.
func GetSignLabel(weight float64, useColors bool) string {
	if weight < 0 {
		if useColors {
			return NegativeColor.Sprint("-")
		}
		return "-"
	}
	if useColors {
		return PositiveColor.Sprint("+")
	}
	return "+"
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout for an empty path.
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

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".symnet_cache.db"
	}
	return filepath.Join(homeDir, ".symnet_cache.db")
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".symnet_analysis.db"
	}
	return filepath.Join(homeDir, ".symnet_analysis.db")
}

// TruncateName truncates a symptom or subject name to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so that at least one character of content remains.
func TruncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// SafeFileName replaces characters that are unsafe in file names with underscores.
func SafeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
