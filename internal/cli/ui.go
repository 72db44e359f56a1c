package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	errs "github.com/matzehuels/deptree/pkg/errors"
	"github.com/matzehuels/deptree/pkg/expand"
	"github.com/matzehuels/deptree/pkg/graph"
)

// statusOut receives status lines. Stdout is reserved for command output.
var statusOut io.Writer = os.Stderr

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(statusOut, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printStats prints expansion statistics on a single line.
func printStats(packages, nodes int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d packages", packages),
		fmt.Sprintf("%d lines", nodes),
	}
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}

	var b strings.Builder
	b.WriteString("  ")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(StyleDim.Render(" · "))
		}
		b.WriteString(StyleDim.Render(part))
	}
	b.WriteString(StyleDim.Render(" · "))
	b.WriteString(statusStyle.Render(status))
	fmt.Fprintln(statusOut, b.String())
}

// =============================================================================
// Error Messages
// =============================================================================

// errorMessage describes err for the terminal. Every structural error kind
// gets its own wording.
func errorMessage(err error) string {
	var (
		missing   *graph.MissingDependencyError
		malformed *graph.MalformedGraphError
		invalid   *graph.InvalidKeyError
		self      *expand.SelfDependencyError
	)
	switch {
	case errors.As(err, &missing):
		if missing.Parent == "" {
			return fmt.Sprintf("Missing dependency: %q is not declared in the graph", missing.Package)
		}
		return fmt.Sprintf("Missing dependency: %q (required by %q) is not declared in the graph", missing.Package, missing.Parent)
	case errors.As(err, &malformed):
		return fmt.Sprintf("Malformed graph: dependencies of %q must be a list, got %s", malformed.Package, malformed.Kind)
	case errors.As(err, &invalid):
		if invalid.Package == "" {
			return fmt.Sprintf("Invalid key: %v (%s) is not a package name", invalid.Value, invalid.Kind)
		}
		return fmt.Sprintf("Invalid key: dependency %v (%s) of %q is not a package name", invalid.Value, invalid.Kind, invalid.Package)
	case errors.As(err, &self):
		return fmt.Sprintf("Self-dependency: %q lists itself as a dependency", self.Package)
	case errors.Is(err, expand.ErrNodeLimit):
		return "Expansion stopped: " + strings.TrimPrefix(err.Error(), string(errs.ErrCodeLimitExceeded)+": ")
	}
	return errs.UserMessage(err)
}

// PrintError writes a styled, user-facing description of err to stderr.
// main uses it for the final error of a failed command.
func PrintError(err error) {
	printError("%s", errorMessage(err))
}
