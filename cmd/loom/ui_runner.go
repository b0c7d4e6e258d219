package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"loom/internal/driver"
	"loom/internal/ui"
)

type pipelineOutcome struct {
	outcome *checkOutcome
	err     error
}

// runCheckWithUI runs the pipeline on a background goroutine while a Bubble
// Tea model renders its event stream. The event channel is closed when the
// pipeline returns, which quits the model.
func runCheckWithUI(title string, files []string, run func(driver.ProgressSink) (*checkOutcome, error)) (*checkOutcome, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan pipelineOutcome, 1)

	go func() {
		out, err := run(driver.ChannelSink{Ch: events})
		outcomeCh <- pipelineOutcome{outcome: out, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	result := <-outcomeCh
	if uiErr != nil {
		return result.outcome, uiErr
	}
	return result.outcome, result.err
}
