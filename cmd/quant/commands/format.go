package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	keyColor     = color.New(color.Faint)
)

const separatorWidth = 59

// PrintHeader prints a titled block header
func PrintHeader(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("═", separatorWidth))
	headerColor.Fprintf(w, "  %s\n", title)
	fmt.Fprintln(w, strings.Repeat("─", separatorWidth))
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("─", separatorWidth))
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, "✅ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, format string, args ...interface{}) {
	warningColor.Fprintf(w, "⚠️  "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(w io.Writer, format string, args ...interface{}) {
	errorColor.Fprintf(w, "❌ "+format+"\n", args...)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value interface{}, keyWidth int) {
	fmt.Fprintf(w, "   %s : %v\n", keyColor.Sprintf("%-*s", keyWidth, key), value)
}

// PrintList prints a bulleted list
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}
