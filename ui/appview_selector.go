package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

func (a AppView) handleModelSelector(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.pullMode {
		switch msg.Type {
		case tea.KeyEsc:
			a.pullMode = false
			a.pullInput.Blur()
			return a, nil
		case tea.KeyEnter:
			name := strings.TrimSpace(a.pullInput.Value())
			a.pullMode = false
			a.pullInput.Blur()
			if name == "" {
				return a, nil
			}
			a.pulling = true
			return a, tea.Batch(a.dataModel.PullModel(name), downloadTick())
		}
		var cmd tea.Cmd
		a.pullInput, cmd = a.pullInput.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "esc", "alt+m":
		a.showModelSelector = false
		return a, nil

	case "j", "down":
		if a.selectedModelIdx < len(a.modelList)-1 {
			a.selectedModelIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedModelIdx > 0 {
			a.selectedModelIdx--
		}
		return a, nil

	case "enter":
		if a.selectedModelIdx < len(a.modelList) {
			chosen := a.modelList[a.selectedModelIdx].Name
			if a.dataModel.CurrentSession != nil {
				a.dataModel.CurrentSession.Model = chosen
				a.showModelSelector = false
				return a, a.dataModel.SaveCurrentSession()
			}
			a.dataModel.Config.DefaultModel = chosen
		}
		a.showModelSelector = false
		return a, nil

	case "p":
		a.pullMode = true
		a.pullInput.SetValue("")
		a.pullInput.Focus()
		return a, textinput.Blink

	case "c":
		if a.dataModel.Downloads.State().Active {
			a.dataModel.Downloads.Cancel()
		}
		return a, nil

	case "r":
		a.modelListCached = false
		return a, a.dataModel.FetchModelList()
	}

	return a, nil
}

func (a AppView) renderModelSelector() string {
	var lines []string
	lines = append(lines, TitleStyle.Render("Models"), "")

	if len(a.modelList) == 0 {
		lines = append(lines, DimStyle.Render("no local models; press p to pull one"))
	}

	current := a.dataModel.CurrentModel()
	for i, m := range a.modelList {
		label := fmt.Sprintf("%s  %s", m.Name, DimStyle.Render(formatModelSize(m.Size)))
		if m.Name == current {
			label += DimStyle.Render("  (current)")
		}
		if i == a.selectedModelIdx {
			label = SelectedStyle.Render("> ") + label
		} else {
			label = "  " + label
		}
		lines = append(lines, runewidth.Truncate(label, a.width-4, "…"))
	}

	lines = append(lines, "")
	if a.pullMode {
		lines = append(lines, a.pullInput.View())
	} else if dl := a.dataModel.Downloads.State(); dl.Active {
		if dl.Percent >= 0 {
			lines = append(lines, SelectedStyle.Render(fmt.Sprintf("⇣ %s %.0f%% (%s)  c to cancel", dl.Model, dl.Percent, dl.Status)))
		} else {
			lines = append(lines, SelectedStyle.Render(fmt.Sprintf("⇣ %s %s  c to cancel", dl.Model, dl.Status)))
		}
	} else {
		lines = append(lines, FormatFooter("j/k", "Navigate", "Enter", "Select", "p", "Pull", "r", "Refresh", "Esc", "Close"))
	}

	return centerLines(lines, a.width, a.height)
}

func formatModelSize(size int64) string {
	const gb = 1 << 30
	const mb = 1 << 20
	switch {
	case size >= gb:
		return fmt.Sprintf("%.1f GB", float64(size)/gb)
	case size >= mb:
		return fmt.Sprintf("%.0f MB", float64(size)/mb)
	case size > 0:
		return fmt.Sprintf("%d B", size)
	default:
		return ""
	}
}
