// Package ui implements a command-line user interface using [tea].
package ui

import (
	"context"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// Handler is the principal implementation of a user interface [Handler].
type Handler struct {
	program *tea.Program

	LogWriter *TeaLogWriter

	Ready  atomic.Bool
	Failed atomic.Bool
}

// NewHandler returns a pointer to a new user interface [Handler].
func NewHandler(ctx context.Context, cancel context.CancelFunc) *Handler {
	handler := &Handler{}

	model := NewTeaModel(handler, cancel)
	handler.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	handler.LogWriter = NewTeaLogWriter(handler.program)

	return handler
}

// Sink returns a [Sink] feeding install progress into the user interface.
func (uiHandler *Handler) Sink() *Sink {
	return &Sink{program: uiHandler.program}
}

// Done signals the user interface that the install has finished, so that it
// can render the final state and stop accepting progress.
func (uiHandler *Handler) Done(err error) {
	uiHandler.program.Send(doneMsg{err: err})
}

// Launch starts the command-line user interface (the [tea.Program]).
func (uiHandler *Handler) Launch() error {
	defer uiHandler.LogWriter.Stop()

	if _, err := uiHandler.program.Run(); err != nil {
		uiHandler.Failed.Store(true)

		return fmt.Errorf("(ui) %w", err)
	}

	return nil
}

// Sink forwards install progress into a running [tea.Program] as [tea.Msg].
// It is safe for use from any goroutine.
type Sink struct {
	program teaProgramProvider
}

// Status sets the currently displayed step description.
func (s *Sink) Status(text string) {
	s.program.Send(statusMsg(text))
}

// Percent sets the overall progress percentage (0-100).
func (s *Sink) Percent(pct int) {
	s.program.Send(percentMsg(pct))
}

// Busy toggles the indeterminate activity indicator, for phases where no
// meaningful percentage exists.
func (s *Sink) Busy(on bool) {
	s.program.Send(busyMsg(on))
}
