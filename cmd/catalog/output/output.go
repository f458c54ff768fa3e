package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/Lixing-Zhang/product-catalog/internal/models"
)

var (
	// Color styles for terminal output
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#4F46E5")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
)

// Success prints a success message
func Success(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprint(w, successStyle.Render("✓ "))
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}

// Warning prints a warning message
func Warning(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprint(w, warningStyle.Render("⚠ "))
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}

// Error prints an error message
func Error(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprint(w, errorStyle.Render("✗ "))
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}

// Muted prints a muted message
func Muted(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a section header
func Section(w io.Writer, title string) {
	_, _ = fmt.Fprintln(w, primaryStyle.Render(title))
}

// Products prints products as an aligned table.
func Products(w io.Writer, products []models.Product) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tDESCRIPTION")
	_, _ = fmt.Fprintln(tw, "--\t----\t--------\t-----\t-----------")

	for _, p := range products {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			p.ID,
			p.Name,
			p.Category,
			p.FormatPrice(),
			p.Description,
		)
	}
	_ = tw.Flush()
}
