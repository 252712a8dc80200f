package ui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"viper/internal/driver"
)

// RunWithProgress runs work in the background while a progress view of
// files is drawn on w. work receives the sink to report into; its exit code
// is returned once both it and the view have finished.
func RunWithProgress(w io.Writer, title string, files []string, work func(driver.ProgressSink) driver.ExitCode) (driver.ExitCode, error) {
	events := make(chan driver.Event, 256)
	done := make(chan driver.ExitCode, 1)
	go func() {
		code := work(driver.ChannelSink{Ch: events})
		close(events)
		done <- code
	}()

	program := tea.NewProgram(NewProgressModel(title, files, events), tea.WithOutput(w), tea.WithInput(nil))
	_, uiErr := program.Run()
	if uiErr != nil {
		// дочитываем события, чтобы work не заблокировался
		go func() {
			for range events {
			}
		}()
	}
	return <-done, uiErr
}
