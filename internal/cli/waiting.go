package cli

import (
	"context"
	"errors"
	"fmt"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
)

// errInterrupted is returned when the user aborts the waiting view.
var errInterrupted = errors.New("interrupted")

// doneMsg carries the result of the background work.
type doneMsg struct {
	err error
}

// waitingModel is the bubbletea model shown while a completion is in flight.
type waitingModel struct {
	spinner  spinner.Model
	theme    Theme
	label    string
	work     tea.Cmd
	cancel   context.CancelFunc
	done     bool
	quitting bool
	err      error
}

func newWaitingModel(label string, work tea.Cmd, cancel context.CancelFunc) waitingModel {
	return waitingModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:   defaultTheme,
		label:   label,
		work:    work,
		cancel:  cancel,
	}
}

// Init starts the spinner and the work.
func (m waitingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

// Update handles messages and returns the updated model.
func (m waitingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the waiting line. It is empty once finished so the result
// printed afterwards starts on a clean line.
func (m waitingModel) View() tea.View {
	if m.done || m.quitting {
		return tea.NewView("")
	}
	hint := m.theme.hintStyle().Render("Ctrl+C to abort")
	return tea.NewView(fmt.Sprintf("%s %s  %s\n", m.spinner.View(), m.theme.statusStyle().Render(m.label), hint))
}

// runWaiting runs work, showing a spinner when output is a terminal.
func runWaiting(label string, work func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !styled() {
		return work(ctx)
	}

	model := newWaitingModel(label, func() tea.Msg {
		return doneMsg{err: work(ctx)}
	}, cancel)

	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return fmt.Errorf("waiting view: %w", err)
	}
	if m, ok := finalModel.(waitingModel); ok {
		if m.quitting {
			return errInterrupted
		}
		return m.err
	}
	return nil
}
