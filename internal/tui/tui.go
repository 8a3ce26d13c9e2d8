// Package tui provides the Bubble Tea setup form for fooocus-batch.
package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/fooocus-batch/internal/config"
	ioutils "github.com/handiism/fooocus-batch/internal/io"
)

// ErrCancelled is returned by Run when the user leaves the form without
// starting a batch.
var ErrCancelled = errors.New("setup cancelled")

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	focusedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// State represents the current UI state.
type State int

const (
	StateForm State = iota
	StateConfirm
	StateDone
	StateCancelled
)

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldToggle
)

// Form rows, in display order.
const (
	rowPrompts = iota
	rowFaceModel
	rowSteps
	rowCFGScale
	rowImagePrompt
	rowImagePromptStrength
	rowFaceSwap
	rowCount
)

type field struct {
	label string
	kind  fieldKind
	input textinput.Model
	on    bool
}

// Model is the Bubble Tea model for the setup form.
type Model struct {
	state  State
	fields []field
	focus  int
	base   *config.BatchConfig
	result *config.BatchConfig
	err    error

	fileExists func(string) bool
}

func newTextField(label, value string) field {
	ti := textinput.New()
	ti.SetValue(value)
	ti.CharLimit = 500
	ti.Width = 50
	return field{label: label, kind: fieldText, input: ti}
}

// NewModel creates a form pre-filled from cfg.
func NewModel(cfg *config.BatchConfig) Model {
	fields := make([]field, rowCount)
	fields[rowPrompts] = newTextField("Prompts file", cfg.PromptsFile)
	fields[rowFaceModel] = newTextField("Face model image", cfg.FaceModelImage)
	fields[rowSteps] = newTextField("Steps", strconv.Itoa(cfg.Steps))
	fields[rowCFGScale] = newTextField("CFG scale", strconv.FormatFloat(cfg.CFGScale, 'f', -1, 64))
	fields[rowImagePrompt] = field{label: "Use face model as image prompt", kind: fieldToggle, on: cfg.UseImagePrompt}
	fields[rowImagePromptStrength] = newTextField("Image prompt strength", strconv.FormatFloat(cfg.ImagePromptStrength, 'f', -1, 64))
	fields[rowFaceSwap] = field{label: "Enable face swap", kind: fieldToggle, on: cfg.EnableFaceSwap}

	m := Model{
		state:      StateForm,
		fields:     fields,
		base:       cfg.Clone(),
		fileExists: ioutils.FileExists,
	}
	m.fields[0].input.Focus()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// State returns the current state.
func (m Model) State() State { return m.state }

// Config returns the submitted configuration, or nil if the form was not
// completed.
func (m Model) Config() *config.BatchConfig { return m.result }

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		// Cursor blink and other input internals.
		f := &m.fields[m.focus]
		if m.state != StateForm || f.kind != fieldText {
			return m, nil
		}
		var cmd tea.Cmd
		f.input, cmd = f.input.Update(msg)
		return m, cmd
	}

	if key.String() == "ctrl+c" {
		m.state = StateCancelled
		return m, tea.Quit
	}

	switch m.state {
	case StateForm:
		return m.updateForm(key)
	case StateConfirm:
		return m.updateConfirm(key)
	}
	return m, nil
}

func (m Model) updateForm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.state = StateCancelled
		return m, tea.Quit

	case "tab", "down":
		return m, m.moveFocus(1)

	case "shift+tab", "up":
		return m, m.moveFocus(-1)

	case "enter":
		return m.submit()

	case " ", "space":
		if m.fields[m.focus].kind == fieldToggle {
			m.fields[m.focus].on = !m.fields[m.focus].on
			return m, nil
		}
	}

	f := &m.fields[m.focus]
	if f.kind != fieldText {
		return m, nil
	}
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(key)
	return m, cmd
}

func (m Model) updateConfirm(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(key.String()) {
	case "y":
		m.result.EnableFaceSwap = false
		m.result.UseImagePrompt = false
		m.state = StateDone
		return m, tea.Quit
	case "n", "esc":
		m.state = StateCancelled
		return m, tea.Quit
	}
	return m, nil
}

// moveFocus moves focus by delta rows, wrapping around.
func (m *Model) moveFocus(delta int) tea.Cmd {
	m.fields[m.focus].input.Blur()
	m.focus = (m.focus + delta + len(m.fields)) % len(m.fields)
	if m.fields[m.focus].kind == fieldText {
		return m.fields[m.focus].input.Focus()
	}
	return nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	cfg, err := m.apply()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		m.err = err
		return m, nil
	}

	m.err = nil
	m.result = cfg
	if cfg.EnableFaceSwap && !m.fileExists(cfg.FaceModelImage) {
		m.state = StateConfirm
		return m, nil
	}

	m.state = StateDone
	return m, tea.Quit
}

// apply copies the form values onto a copy of the base configuration.
func (m Model) apply() (*config.BatchConfig, error) {
	cfg := m.base.Clone()

	cfg.PromptsFile = m.text(rowPrompts)
	cfg.FaceModelImage = m.text(rowFaceModel)

	steps, err := strconv.Atoi(m.text(rowSteps))
	if err != nil {
		return nil, fmt.Errorf("steps: %q is not a whole number", m.text(rowSteps))
	}
	cfg.Steps = steps

	if cfg.CFGScale, err = strconv.ParseFloat(m.text(rowCFGScale), 64); err != nil {
		return nil, fmt.Errorf("cfg scale: %q is not a number", m.text(rowCFGScale))
	}
	if cfg.ImagePromptStrength, err = strconv.ParseFloat(m.text(rowImagePromptStrength), 64); err != nil {
		return nil, fmt.Errorf("image prompt strength: %q is not a number", m.text(rowImagePromptStrength))
	}

	cfg.UseImagePrompt = m.fields[rowImagePrompt].on
	cfg.EnableFaceSwap = m.fields[rowFaceSwap].on
	return cfg, nil
}

func (m Model) text(row int) string {
	return strings.TrimSpace(m.fields[row].input.Value())
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🎨 Fooocus Batch"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Batch prompts and face swap setup"))
	b.WriteString("\n\n")

	switch m.state {
	case StateForm:
		b.WriteString(m.viewForm())
	case StateConfirm:
		b.WriteString(m.viewConfirm())
	case StateDone:
		b.WriteString(subtitleStyle.Render("Starting batch..."))
		b.WriteString("\n")
	case StateCancelled:
		b.WriteString(dimStyle.Render("Cancelled."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewForm() string {
	var b strings.Builder

	for i, f := range m.fields {
		label := f.label + ":"
		if i == m.focus {
			label = focusedStyle.Render("› " + label)
		} else {
			label = subtitleStyle.Render("  " + label)
		}
		b.WriteString(label)
		b.WriteString("\n")

		switch f.kind {
		case fieldText:
			b.WriteString("  " + f.input.View())
		case fieldToggle:
			check := "[ ]"
			if f.on {
				check = "[x]"
			}
			b.WriteString("  " + check)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output folder: %s", m.base.BatchOutputFolder)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Target images: %s", m.base.TargetImagesFolder)))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("❌ " + m.err.Error()))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewConfirm() string {
	msg := fmt.Sprintf("⚠️  Face model not found: %s\n\nContinue without face swap? (y/n)", m.result.FaceModelImage)
	return boxStyle.Render(warningStyle.Render(msg)) + "\n"
}

func (m Model) helpText() string {
	switch m.state {
	case StateForm:
		return "tab/↓: next • shift+tab/↑: previous • space: toggle • enter: start • esc: quit"
	case StateConfirm:
		return "y: continue without face swap • n: cancel"
	}
	return ""
}

// Run shows the form pre-filled from cfg and returns the submitted
// configuration. ErrCancelled is returned when the user quits or declines
// to continue without a face model.
func Run(cfg *config.BatchConfig) (*config.BatchConfig, error) {
	final, err := tea.NewProgram(NewModel(cfg)).Run()
	if err != nil {
		return nil, err
	}

	m, ok := final.(Model)
	if !ok || m.state != StateDone || m.result == nil {
		return nil, ErrCancelled
	}
	return m.result, nil
}
