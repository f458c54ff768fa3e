// Package tui is the interactive terminal front end of the product catalog.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Lixing-Zhang/product-catalog/internal/catalog"
	"github.com/Lixing-Zhang/product-catalog/internal/models"
)

// Mode represents what the UI is currently showing
type Mode int

const (
	ModeList Mode = iota
	ModeForm
	ModeConfirm
)

// toastDuration is how long success and error toasts stay visible.
const toastDuration = 3 * time.Second

// Toast texts.
const (
	msgSaving         = "Saving product..."
	msgCreated        = "Product created successfully!"
	msgUpdated        = "Product updated successfully!"
	msgSaveFailed     = "Failed to save product"
	msgDeleting       = "Deleting product..."
	msgDeleted        = "Product deleted successfully!"
	msgDeleteFailed   = "Failed to delete product"
	msgLoadFailed     = "Unable to load products"
	msgLoadFailedHint = "There was a problem connecting to the server."
	msgEmpty          = `No products yet. Press "n" to add one.`
)

// Catalog is what the UI needs from the catalog binding.
type Catalog interface {
	Create(ctx context.Context, draft models.Draft, onSuccess func(id int64)) (int64, error)
	Update(ctx context.Context, id int64, draft models.Draft, onSuccess func()) error
	Delete(ctx context.Context, id int64, onSuccess func()) error
	Refresh() error
	Focus()
}

// Messages
type productsMsg catalog.ProductsState

type savedMsg struct {
	editing bool
	err     error
}

type deletedMsg struct {
	err error
}

type toastExpiredMsg struct {
	id int
}

// Model is the Bubbletea model for the catalog screen
type Model struct {
	mode    Mode
	catalog Catalog
	logger  *slog.Logger

	state   catalog.ProductsState
	list    list.Model
	spinner spinner.Model
	form    ProductForm
	confirm ConfirmationDialog
	target  models.Product

	toast    *Toast
	toastSeq int

	width  int
	height int
}

// NewModel creates the catalog UI model.
func NewModel(c Catalog, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}

	l := list.New(nil, ProductItemDelegate{}, 0, 0)
	l.Title = "Products"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = titleStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = infoStyle

	return Model{
		mode:    ModeList,
		catalog: c,
		logger:  logger,
		state:   catalog.ProductsState{IsLoading: true},
		list:    l,
		spinner: s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.FocusMsg:
		return m, m.focusCmd()

	case productsMsg:
		state := catalog.ProductsState(msg)
		if state.Version < m.state.Version {
			return m, nil
		}
		m.state = state
		if state.Products != nil {
			return m, m.list.SetItems(productItems(state.Products))
		}
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.logger.Error("save product failed", "error", msg.err)
			m.form.submitting = false
			m.form.failure = msg.err.Error()
			return m, m.showToast(toastError, msgSaveFailed)
		}
		m.mode = ModeList
		if msg.editing {
			return m, m.showToast(toastSuccess, msgUpdated)
		}
		return m, m.showToast(toastSuccess, msgCreated)

	case deletedMsg:
		if msg.err != nil {
			m.logger.Error("delete product failed", "error", msg.err)
			return m, m.showToast(toastError, msgDeleteFailed)
		}
		return m, m.showToast(toastSuccess, msgDeleted)

	case toastExpiredMsg:
		if m.toast != nil && m.toast.ID == msg.id {
			m.toast = nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	if m.mode == ModeForm {
		_, cmd := m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeForm:
		if msg.String() == "esc" {
			if m.form.submitting {
				return m, nil
			}
			m.mode = ModeList
			return m, nil
		}
		if m.form.submitting {
			return m, nil
		}
		submit, cmd := m.form.Update(msg)
		if !submit {
			return m, cmd
		}
		draft, err := m.form.Draft()
		if err != nil {
			return m, nil
		}
		m.form.submitting = true
		m.form.failure = ""
		m.showToast(toastLoading, msgSaving)
		return m, m.saveCmd(m.form.editing, draft)

	case ModeConfirm:
		decided, confirmed := m.confirm.Update(msg)
		if !decided {
			return m, nil
		}
		m.mode = ModeList
		if !confirmed {
			return m, nil
		}
		m.showToast(toastLoading, msgDeleting)
		return m, m.deleteCmd(m.target.ID)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		return m, m.refreshCmd()
	}

	// The error screen only offers retry and quit.
	if m.state.Err != nil || m.state.IsLoading {
		return m, nil
	}

	switch msg.String() {
	case "n":
		m.form = NewProductForm(nil)
		m.mode = ModeForm
		return m, m.form.Init()

	case "e", "enter":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.form = NewProductForm(&p)
		m.mode = ModeForm
		return m, m.form.Init()

	case "d", "delete":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.target = p
		m.confirm = NewConfirmationDialog(
			"Delete Product",
			fmt.Sprintf("Are you sure you want to delete '%s'?\nThis action cannot be undone.", p.Name),
		)
		m.mode = ModeConfirm
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) selected() (models.Product, bool) {
	item, ok := m.list.SelectedItem().(ProductItem)
	if !ok {
		return models.Product{}, false
	}
	return item.Product, true
}

// showToast replaces the current toast. Loading toasts never expire on their
// own; the returned command is nil for them.
func (m *Model) showToast(kind toastKind, text string) tea.Cmd {
	m.toastSeq++
	id := m.toastSeq
	m.toast = &Toast{ID: id, Kind: kind, Text: text}
	if kind == toastLoading {
		return nil
	}
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// Commands
func (m Model) saveCmd(editing *models.Product, draft models.Draft) tea.Cmd {
	c := m.catalog
	return func() tea.Msg {
		ctx := context.Background()
		if editing != nil {
			err := c.Update(ctx, editing.ID, draft, nil)
			return savedMsg{editing: true, err: err}
		}
		_, err := c.Create(ctx, draft, nil)
		return savedMsg{err: err}
	}
}

func (m Model) deleteCmd(id int64) tea.Cmd {
	c := m.catalog
	return func() tea.Msg {
		return deletedMsg{err: c.Delete(context.Background(), id, nil)}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	c, logger := m.catalog, m.logger
	return func() tea.Msg {
		if err := c.Refresh(); err != nil {
			logger.Warn("refresh failed", "error", err)
		}
		return nil
	}
}

func (m Model) focusCmd() tea.Cmd {
	c := m.catalog
	return func() tea.Msg {
		c.Focus()
		return nil
	}
}

// View renders the UI
func (m Model) View() string {
	var body string
	switch m.mode {
	case ModeForm:
		body = m.form.View()
	case ModeConfirm:
		body = m.confirm.View()
	default:
		body = m.listView()
	}

	sections := []string{m.headerView(), body}
	if m.toast != nil {
		sections = append(sections, m.toast.View())
	}
	if m.mode == ModeList {
		sections = append(sections, m.helpView())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) headerView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Product Catalog"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("Manage your products inventory"))
	if m.state.IsFetching && !m.state.IsLoading {
		b.WriteString("  ")
		b.WriteString(badgeStyle.Render(m.spinner.View() + " Refreshing..."))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) listView() string {
	switch {
	case m.state.Err != nil:
		return errorBoxStyle.Render(
			dangerStyle.Render(msgLoadFailed) + "\n" +
				mutedStyle.Render(msgLoadFailedHint) + "\n\n" +
				activeButtonStyle.Render("r  Try Again"),
		)
	case m.state.IsLoading:
		return skeletonView(m.width)
	case len(m.state.Products) == 0:
		return mutedStyle.Render(msgEmpty)
	default:
		return m.list.View()
	}
}

func (m Model) helpView() string {
	if m.state.Err != nil {
		return helpStyle.Render(FormatKey("r", "try again") + " • " + FormatKey("q", "quit"))
	}
	return helpStyle.Render(
		FormatKey("↑/↓", "navigate") + " • " +
			FormatKey("n", "new") + " • " +
			FormatKey("e", "edit") + " • " +
			FormatKey("d", "delete") + " • " +
			FormatKey("r", "refresh") + " • " +
			FormatKey("q", "quit"),
	)
}

// Run starts the interactive catalog UI and blocks until the user quits or
// ctx is cancelled.
func Run(ctx context.Context, c *catalog.Catalog, logger *slog.Logger, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	}, opts...)
	p := tea.NewProgram(NewModel(c, logger), opts...)

	// Snapshots may arrive from several goroutines; the model drops any whose
	// version is older than the one it already shows.
	sub, err := c.WatchProducts(func(s catalog.ProductsState) {
		go p.Send(productsMsg(s))
	})
	if err != nil {
		return fmt.Errorf("watch products: %w", err)
	}
	defer sub.Unsubscribe()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
