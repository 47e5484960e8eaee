package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

func (a AppView) handleSessionManager(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.sessionRenameMode {
		switch msg.Type {
		case tea.KeyEsc:
			a.sessionRenameMode = false
			a.sessionRenameInput.Blur()
			return a, nil
		case tea.KeyEnter:
			name := strings.TrimSpace(a.sessionRenameInput.Value())
			a.sessionRenameMode = false
			a.sessionRenameInput.Blur()
			if name == "" || a.selectedSessionIdx >= len(a.sessionList) {
				return a, nil
			}
			target := a.sessionList[a.selectedSessionIdx]
			if a.dataModel.CurrentSession != nil && a.dataModel.CurrentSession.ID == target.ID {
				a.dataModel.CurrentSession.Name = name
			}
			return a, a.dataModel.RenameSessionCmd(target.ID, name)
		}
		var cmd tea.Cmd
		a.sessionRenameInput, cmd = a.sessionRenameInput.Update(msg)
		return a, cmd
	}

	if a.confirmDeleteSession != nil {
		switch msg.String() {
		case "y":
			id := a.confirmDeleteSession.ID
			a.confirmDeleteSession = nil
			return a, a.dataModel.DeleteSessionCmd(id)
		default:
			a.confirmDeleteSession = nil
			return a, nil
		}
	}

	switch msg.String() {
	case "esc", "alt+s":
		a.showSessionManager = false
		return a, nil

	case "j", "down":
		if a.selectedSessionIdx < len(a.sessionList)-1 {
			a.selectedSessionIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedSessionIdx > 0 {
			a.selectedSessionIdx--
		}
		return a, nil

	case "enter":
		if a.selectedSessionIdx < len(a.sessionList) {
			return a, a.dataModel.LoadSessionCmd(a.sessionList[a.selectedSessionIdx].ID)
		}
		return a, nil

	case "r":
		if a.selectedSessionIdx < len(a.sessionList) {
			a.sessionRenameMode = true
			a.sessionRenameInput.SetValue(a.sessionList[a.selectedSessionIdx].Name)
			a.sessionRenameInput.Focus()
			return a, textinput.Blink
		}
		return a, nil

	case "d":
		if a.selectedSessionIdx < len(a.sessionList) {
			target := a.sessionList[a.selectedSessionIdx]
			a.confirmDeleteSession = &target
		}
		return a, nil

	case "n":
		newSession, err := a.dataModel.CreateAndSaveNewSession("New Session", "")
		if err != nil {
			a.statusLine = ErrorStyle.Render(fmt.Sprintf("new session: %v", err))
			return a, nil
		}
		a.dataModel.ResetForSession(newSession)
		a.showSessionManager = false
		a.updateViewportContent(true)
		return a, nil
	}

	return a, nil
}

func (a AppView) renderSessionManager() string {
	var lines []string
	lines = append(lines, TitleStyle.Render("Sessions"), "")

	if len(a.sessionList) == 0 {
		lines = append(lines, DimStyle.Render("no saved sessions"))
	}

	currentID := ""
	if a.dataModel.CurrentSession != nil {
		currentID = a.dataModel.CurrentSession.ID
	}

	for i, s := range a.sessionList {
		label := fmt.Sprintf("%s  %s",
			runewidth.Truncate(s.Name, 32, "…"),
			DimStyle.Render(fmt.Sprintf("%d msgs · %s", s.MessageCount, s.UpdatedAt.Format("Jan 2 15:04"))))
		if s.ID == currentID {
			label += DimStyle.Render("  (current)")
		}
		if i == a.selectedSessionIdx {
			label = SelectedStyle.Render("> ") + label
		} else {
			label = "  " + label
		}
		lines = append(lines, runewidth.Truncate(label, a.width-4, "…"))
	}

	lines = append(lines, "")
	switch {
	case a.sessionRenameMode:
		lines = append(lines, a.sessionRenameInput.View())
	case a.confirmDeleteSession != nil:
		lines = append(lines, ErrorStyle.Render(fmt.Sprintf("delete %q? y/n", a.confirmDeleteSession.Name)))
	default:
		lines = append(lines, FormatFooter("j/k", "Navigate", "Enter", "Open", "n", "New", "r", "Rename", "d", "Delete", "Esc", "Close"))
	}

	return centerLines(lines, a.width, a.height)
}
