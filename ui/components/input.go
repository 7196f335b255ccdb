package components

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/RoriChat/ui/styles"
)

const inputHeight = 3

// Input is the multi-line message box. Enter is handled by the controller;
// the textarea only sees the newline binding. It stays editable while a reply
// is generated so the next message can be drafted.
type Input struct {
	textarea textarea.Model
	busy     bool
	width    int
}

func NewInput(keys KeyMap) Input {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.Focus()

	return Input{textarea: ta}
}

func (i *Input) SetWidth(w int) {
	i.width = w
	// border and padding take four columns
	i.textarea.SetWidth(max(w-6, 1))
}

// SetBusy only changes the border; sending is gated by the controller.
func (i *Input) SetBusy(busy bool) {
	i.busy = busy
}

func (i *Input) Busy() bool {
	return i.busy
}

func (i *Input) Value() string {
	return i.textarea.Value()
}

func (i *Input) SetValue(s string) {
	i.textarea.SetValue(s)
}

func (i *Input) Reset() {
	i.textarea.Reset()
}

func (i *Input) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	i.textarea, cmd = i.textarea.Update(msg)
	return cmd
}

// Height is the number of terminal rows the rendered input occupies.
func (i *Input) Height() int {
	return inputHeight + 2
}

func (i *Input) View() string {
	style := styles.InputStyle(i.width)
	if i.busy {
		style = styles.DisabledInputStyle(i.width)
	}
	return style.Render(i.textarea.View())
}
