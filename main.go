package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"ahme/config"
	"ahme/document"
	"ahme/storage"
	"ahme/ui"
)

const Version = "v0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	config.CheckDebug()
	config.InitDebugLog(cfg.DataDir())

	creds := config.NewCredentialStore(config.SecurityMethod(cfg.SecurityMethod), cfg.SSHKeyPath)
	if err := creds.Load(cfg.DataDir()); err != nil {
		// Missing or unreadable credentials degrade features, never startup.
		if config.DebugLog != nil {
			config.DebugLog.Printf("credential load failed: %v", err)
		}
	}

	sessionStorage, err := storage.NewSessionStorage(cfg.DataDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize session storage: %v\n", err)
		os.Exit(1)
	}
	defer sessionStorage.Close()

	var lastSession *storage.Session
	if lastSessionID, err := sessionStorage.LoadCurrentSessionID(); err == nil && lastSessionID != "" {
		lastSession, _ = sessionStorage.Load(lastSessionID)
	}

	// An optional file argument becomes the document the panel works
	// against; without one the panel runs detached and insertion is
	// refused.
	var editor document.Editor
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open document: %v\n", err)
			os.Exit(1)
		}
		editor = document.NewBuffer(string(data))
	}

	p := tea.NewProgram(
		ui.NewAppView(cfg, sessionStorage, lastSession, creds, editor, Version),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
