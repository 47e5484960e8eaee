package model

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ahme/config"
	"ahme/ollama"
)

// FetchModelList retrieves the list of locally available models.
func (m *Model) FetchModelList() tea.Cmd {
	client := m.OllamaClient
	return func() tea.Msg {
		if client == nil {
			return ModelsListMsg{Err: fmt.Errorf("model host unavailable")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		models, err := client.ListModels(ctx)
		return ModelsListMsg{Models: models, Err: err}
	}
}

// PullModel downloads a model, reporting progress through the download
// tracker. Only one download runs at a time; a second request while one is
// active fails immediately.
func (m *Model) PullModel(name string) tea.Cmd {
	client := m.OllamaClient
	tracker := m.Downloads

	return func() tea.Msg {
		if client == nil {
			return PullFinishedMsg{Model: name, Err: fmt.Errorf("model host unavailable")}
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if !tracker.Begin(name, cancel) {
			return PullFinishedMsg{Model: name, Err: fmt.Errorf("a download is already in progress")}
		}

		if config.DebugLog != nil {
			config.DebugLog.Printf("pull started: %s", name)
		}

		err := client.Pull(ctx, name, func(p ollama.PullProgress) {
			tracker.Update(p)
		})

		tracker.Finish(err)
		if config.DebugLog != nil {
			config.DebugLog.Printf("pull finished: %s err=%v", name, err)
		}
		return PullFinishedMsg{Model: name, Err: err}
	}
}
