package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Lixing-Zhang/product-catalog/internal/models"
)

const (
	fieldName = iota
	fieldDescription
	fieldPrice
	fieldCategory
	fieldCount
)

var fieldKeys = [fieldCount]string{"name", "description", "price", "category"}

var fieldLabels = [fieldCount]string{"Product Name", "Description", "Price", "Category"}

// ProductForm edits a draft. It is used for both create and edit; editing is
// set when it was opened on an existing product.
type ProductForm struct {
	inputs     [fieldCount]textinput.Model
	focus      int
	editing    *models.Product
	errors     map[string]string
	submitting bool
	failure    string
}

// NewProductForm returns a form prefilled from p, or an empty one when p is nil.
func NewProductForm(p *models.Product) ProductForm {
	f := ProductForm{editing: p, errors: map[string]string{}}

	placeholders := [fieldCount]string{
		"Enter product name",
		"Provide a detailed description of your product",
		"0.00",
		"e.g., Electronics",
	}
	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Prompt = "  "
		in.Width = 48
		in.CharLimit = 256
		f.inputs[i] = in
	}
	f.inputs[fieldPrice].CharLimit = 16

	if p != nil {
		f.inputs[fieldName].SetValue(p.Name)
		f.inputs[fieldDescription].SetValue(p.Description)
		f.inputs[fieldPrice].SetValue(strconv.FormatFloat(p.Price, 'f', 2, 64))
		f.inputs[fieldCategory].SetValue(p.Category)
	}
	f.inputs[fieldName].Focus()

	return f
}

// Editing reports whether the form updates an existing product.
func (f ProductForm) Editing() bool {
	return f.editing != nil
}

// Init returns the cursor blink command.
func (f ProductForm) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles a key press. submit is true when the user asked to save.
func (f *ProductForm) Update(msg tea.Msg) (submit bool, cmd tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+s":
			return true, nil
		case "enter":
			if f.focus == fieldCount-1 {
				return true, nil
			}
			return false, f.setFocus(f.focus + 1)
		case "tab", "down":
			return false, f.setFocus((f.focus + 1) % fieldCount)
		case "shift+tab", "up":
			return false, f.setFocus((f.focus + fieldCount - 1) % fieldCount)
		}
	}

	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return false, cmd
}

func (f *ProductForm) setFocus(i int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[i].Focus()
}

// SetValue replaces the text of one field.
func (f *ProductForm) SetValue(field int, value string) {
	f.inputs[field].SetValue(value)
}

// Draft parses the inputs. On failure the per-field messages are kept on the
// form for display and the returned error is a *models.ValidationError.
func (f *ProductForm) Draft() (models.Draft, error) {
	f.errors = map[string]string{}

	draft := models.Draft{
		Name:        strings.TrimSpace(f.inputs[fieldName].Value()),
		Description: strings.TrimSpace(f.inputs[fieldDescription].Value()),
		Category:    strings.TrimSpace(f.inputs[fieldCategory].Value()),
	}

	var fields []models.FieldError
	rawPrice := strings.TrimSpace(f.inputs[fieldPrice].Value())
	if rawPrice == "" {
		fields = append(fields, models.FieldError{Field: "price", Message: "is required"})
	} else if price, err := strconv.ParseFloat(rawPrice, 64); err != nil {
		fields = append(fields, models.FieldError{Field: "price", Message: "must be a number"})
	} else {
		draft.Price = price
	}

	if err := draft.Validate(); err != nil {
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			return models.Draft{}, err
		}
		for _, fe := range verr.Fields {
			if fe.Field == "price" && len(fields) > 0 {
				continue
			}
			fields = append(fields, fe)
		}
	}

	if len(fields) > 0 {
		for _, fe := range fields {
			f.errors[fe.Field] = fe.Message
		}
		return models.Draft{}, &models.ValidationError{Fields: fields}
	}
	return draft, nil
}

// View renders the form
func (f ProductForm) View() string {
	var b strings.Builder

	title, subtitle := "Add New Product", "Fill in the information below to create a new product."
	action := "Create Product"
	if f.Editing() {
		title, subtitle = "Edit Product", "Update the product information below."
		action = "Update Product"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(subtitle))
	b.WriteString("\n\n")

	for i := range f.inputs {
		b.WriteString(labelStyle.Render(fieldLabels[i]) + " " + requiredStyle.Render("*"))
		b.WriteString("\n")
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
		if msg := f.errors[fieldKeys[i]]; msg != "" {
			b.WriteString(fieldErrorStyle.Render(fieldLabels[i] + " " + msg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if f.failure != "" {
		b.WriteString(dangerStyle.Render(f.failure))
		b.WriteString("\n\n")
	}

	if f.submitting {
		b.WriteString(mutedStyle.Render("Saving..."))
	} else {
		b.WriteString(activeButtonStyle.Render(action))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(
		FormatKey("tab", "next field") + " • " +
			FormatKey("ctrl+s", "save") + " • " +
			FormatKey("esc", "cancel"),
	))

	return boxStyle.Render(b.String())
}
