package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Lixing-Zhang/product-catalog/internal/models"
)

// ConfirmationDialog represents a yes/no confirmation dialog
type ConfirmationDialog struct {
	Title       string
	Message     string
	YesSelected bool
}

// NewConfirmationDialog creates a new confirmation dialog
func NewConfirmationDialog(title, message string) ConfirmationDialog {
	return ConfirmationDialog{
		Title:   title,
		Message: message,
	}
}

// Update moves the selection and reports whether the user decided, and if so
// whether they confirmed.
func (d *ConfirmationDialog) Update(msg tea.Msg) (decided, confirmed bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, false
	}

	switch key.String() {
	case "left", "h":
		d.YesSelected = true
	case "right", "l":
		d.YesSelected = false
	case "tab":
		d.YesSelected = !d.YesSelected
	case "y":
		return true, true
	case "n", "esc", "q":
		return true, false
	case "enter":
		return true, d.YesSelected
	}
	return false, false
}

// View renders the confirmation dialog
func (d ConfirmationDialog) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(d.Title))
	b.WriteString("\n\n")
	b.WriteString(d.Message)
	b.WriteString("\n\n")

	yesButton := inactiveButtonStyle.Render("Delete")
	noButton := inactiveButtonStyle.Render("Cancel")

	if d.YesSelected {
		yesButton = activeButtonStyle.Background(colorDanger).Render("Delete")
	} else {
		noButton = activeButtonStyle.Render("Cancel")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, yesButton, "  ", noButton))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(FormatKey("←/→", "choose") + " • " + FormatKey("enter", "confirm") + " • " + FormatKey("esc", "cancel")))

	return boxStyle.Render(b.String())
}

// ProductItem is a product in the list
type ProductItem struct {
	Product models.Product
}

func (i ProductItem) FilterValue() string { return i.Product.Name }
func (i ProductItem) Title() string {
	return fmt.Sprintf("%s  %s", i.Product.Name, priceStyle.Render(i.Product.FormatPrice()))
}
func (i ProductItem) Description() string {
	desc := i.Product.Description
	if len(desc) > 60 {
		desc = desc[:57] + "..."
	}
	return mutedStyle.Render(i.Product.Category + " · " + desc)
}

// ProductItemDelegate renders product list items
type ProductItemDelegate struct{}

func (d ProductItemDelegate) Height() int                             { return 2 }
func (d ProductItemDelegate) Spacing() int                            { return 1 }
func (d ProductItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d ProductItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(ProductItem)
	if !ok {
		return
	}

	var s string
	if index == m.Index() {
		s = selectedItemStyle.Render("▸ " + i.Title() + "\n  " + i.Description())
	} else {
		s = unselectedItemStyle.Render("  " + i.Title() + "\n  " + i.Description())
	}

	_, _ = fmt.Fprint(w, s)
}

func productItems(products []models.Product) []list.Item {
	items := make([]list.Item, len(products))
	for i, p := range products {
		items[i] = ProductItem{Product: p}
	}
	return items
}

// skeletonRows is how many placeholder rows show during the first load.
const skeletonRows = 6

func skeletonView(width int) string {
	if width <= 0 {
		width = 48
	}
	bar := func(w int) string {
		return skeletonStyle.Render(strings.Repeat(" ", max(w, 4)))
	}

	rows := make([]string, 0, skeletonRows)
	for range skeletonRows {
		rows = append(rows, bar(width/3)+"\n"+bar(width/2)+"\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

type toastKind int

const (
	toastLoading toastKind = iota
	toastSuccess
	toastError
)

// Toast is a transient notification. Loading toasts stay until replaced.
type Toast struct {
	ID   int
	Kind toastKind
	Text string
}

func (t Toast) View() string {
	switch t.Kind {
	case toastSuccess:
		return toastStyle.BorderForeground(colorSuccess).Render(successStyle.Render("✓ ") + t.Text)
	case toastError:
		return toastStyle.BorderForeground(colorDanger).Render(dangerStyle.Render("✗ ") + t.Text)
	default:
		return toastStyle.Render(infoStyle.Render("◌ ") + t.Text)
	}
}
