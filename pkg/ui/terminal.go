package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Logo printed at the top of interactive commands
const Logo = `
 ███╗   ██╗██╗  ██╗██████╗ ██╗
 ████╗  ██║██║  ██║██╔══██╗██║
 ██╔██╗ ██║███████║██║  ██║██║
 ██║╚██╗██║██╔══██║██║  ██║██║
 ██║ ╚████║██║  ██║██████╔╝███████╗
 ╚═╝  ╚═══╝╚═╝  ╚═╝╚═════╝ ╚══════╝
      gallery downloader`

var (
	cyan    = lipgloss.Color("#00D7FF")
	yellow  = lipgloss.Color("#FFD75F")
	red     = lipgloss.Color("#FF5F5F")
	green   = lipgloss.Color("#5FFF87")
	magenta = lipgloss.Color("#FF5FD7")
	grey    = lipgloss.Color("#8A8A8A")

	logoStyle      = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(cyan)
	valueStyle     = lipgloss.NewStyle().Foreground(yellow)
	errorStyle     = lipgloss.NewStyle().Foreground(red).Bold(true)
	successStyle   = lipgloss.NewStyle().Foreground(green).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(yellow)
	highlightStyle = lipgloss.NewStyle().Foreground(magenta).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(grey)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(magenta).
			Padding(0, 1)
)

var (
	mu     sync.Mutex
	output io.Writer = os.Stdout
	quiet  bool
)

// SetOutput redirects everything this package prints.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetQuiet suppresses the logo and info lines; errors still print.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

func IsQuietMode() bool {
	mu.Lock()
	defer mu.Unlock()
	return quiet
}

func emit(always bool, s string) {
	mu.Lock()
	defer mu.Unlock()
	if quiet && !always {
		return
	}
	fmt.Fprintln(output, s)
}

func Dim(s string) string    { return dimStyle.Render(s) }
func Label(s string) string  { return labelStyle.Render(s) }
func Value(s string) string  { return valueStyle.Render(s) }
func Green(s string) string  { return successStyle.Render(s) }
func Yellow(s string) string { return warningStyle.Render(s) }
func Red(s string) string    { return errorStyle.Render(s) }

// PrintLogo prints the logo
func PrintLogo() {
	emit(false, logoStyle.Render(Logo))
}

// PrintError prints msg, followed by the first arg when given
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	emit(true, errorStyle.Render(msg))
}

func PrintSuccess(msg string) {
	emit(false, successStyle.Render(msg))
}

// PrintInfo prints a "label: value" line
func PrintInfo(label string, value string) {
	emit(false, fmt.Sprintf("%s: %s", labelStyle.Render(label), valueStyle.Render(value)))
}

func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = fmt.Sprintf("%s: %v", msg, args[0])
	}
	emit(true, warningStyle.Render(msg))
}

func PrintHighlight(msg string) {
	emit(false, highlightStyle.Render(msg))
}

// PrintBox prints lines inside a rounded border under a highlighted title.
func PrintBox(title string, lines ...string) {
	body := highlightStyle.Render(title)
	for _, l := range lines {
		body += "\n" + l
	}
	emit(false, boxStyle.Render(body))
}
