package ui

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// stopMsg asks the waiting model to clear its line and quit.
type stopMsg struct{}

var _ tea.Msg = stopMsg{}

// waitModel renders a spinner next to a label until it receives [stopMsg].
type waitModel struct {
	spinner spinner.Model
	label   string
	done    bool
}

func newWaitModel(label string) waitModel {
	return waitModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.title)),
		label:   label,
	}
}

func (m waitModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m waitModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + styles.help.Render(m.label)
}

// Spinner is a single-line waiting indicator drawn by a bubbletea program.
//
// It never reads input or installs signal handlers: the caller's context owns cancellation.
type Spinner struct {
	program *tea.Program
	done    chan struct{}
}

// StartSpinner draws label with an animated spinner on w until [Spinner.Stop] is called or ctx is done.
func StartSpinner(ctx context.Context, w io.Writer, label string) *Spinner {
	s := &Spinner{
		program: tea.NewProgram(newWaitModel(label),
			tea.WithOutput(w),
			tea.WithInput(nil),
			tea.WithContext(ctx),
			tea.WithoutSignalHandler(),
		),
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		s.program.Run()
	}()
	return s
}

// Stop clears the spinner line and returns once the program has stopped writing.
func (s *Spinner) Stop() {
	// Send returns once the program is gone, so it cannot leak past a cancelled run.
	go s.program.Send(stopMsg{})
	<-s.done
}

// IsTerminal reports whether w is a terminal, so animations are only drawn for people.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
