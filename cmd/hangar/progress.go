package main

import (
	"context"
	"fmt"

	"hangar/internal/core"
	"hangar/internal/fetch"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type progressMsg fetch.Progress

type installDoneMsg struct{}

// progressModel renders one download's progress bar. Downloads without a
// known total show a byte counter instead of a bar.
type progressModel struct {
	modID      string
	bar        progress.Model
	downloaded int64
	total      int64
	width      int
}

func newProgressModel(modID string) progressModel {
	return progressModel{
		modID: modID,
		bar:   progress.New(progress.WithDefaultGradient()),
		width: 60,
	}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = msg.Width - 20
	case progressMsg:
		m.downloaded = msg.Downloaded
		m.total = msg.TotalBytes
	case installDoneMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	header := labelStyle.Render("Downloading "+m.modID) + "\n"
	if m.total > 0 {
		pct := float64(m.downloaded) / float64(m.total)
		counter := dimStyle.Render(fmt.Sprintf("%s / %s", formatBytes(m.downloaded), formatBytes(m.total)))
		return header + m.bar.ViewAs(pct) + " " + counter + "\n"
	}
	return header + dimStyle.Render(formatBytes(m.downloaded)+" downloaded") + "\n"
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// installWithProgress runs the install, rendering download progress unless
// --no-progress is set.
func installWithProgress(ctx context.Context, svc *core.Service, modID string) error {
	if noProgress {
		return svc.InstallMod(ctx, modID, nil)
	}

	prog := tea.NewProgram(newProgressModel(modID))
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.InstallMod(ctx, modID, func(p fetch.Progress) {
			prog.Send(progressMsg(p))
		})
		prog.Send(installDoneMsg{})
	}()

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("rendering progress: %w", err)
	}
	return <-errCh
}
