package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"restruct/internal/driver"
	"restruct/internal/ui"
)

type lowerOutcome struct {
	result *driver.ModuleResult
	err    error
}

// runLowerWithUI calls run while a progress view follows its driver events.
func runLowerWithUI(title string, funcs []string, run func(driver.Sink) (*driver.ModuleResult, error)) (*driver.ModuleResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan lowerOutcome, 1)

	go func() {
		res, err := run(driver.ChannelSink{Ch: events})
		outcomeCh <- lowerOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, funcs, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
