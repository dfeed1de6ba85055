// # cmd/scriptbridge/ui.go
package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scriptbridge/internal/app"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	diagnosticStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	summary    app.Summary
	lastUpdate time.Time
}

type updateMsg struct {
	summary app.Summary
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.summary = msg.summary
		m.lastUpdate = time.Now()

		items := []list.Item{}
		for _, d := range m.summary.Diagnostics {
			items = append(items, item{
				title: string(d.Code),
				desc:  fmt.Sprintf("%s: %s", d.Class, d.Detail),
			})
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last run: %v | %d classes | %d bridges | %d proxies | %d written | %d up to date",
		m.lastUpdate.Format("15:04:05"),
		m.summary.Classes, m.summary.Bridges, m.summary.Proxies,
		m.summary.Written, m.summary.Skipped))

	var verdict string
	if len(m.summary.Diagnostics) == 0 {
		verdict = successStyle.Render("✅ All classes resolved")
	} else {
		verdict = diagnosticStyle.Render(fmt.Sprintf("⚠️  %d diagnostics", len(m.summary.Diagnostics)))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Script Binding Generator"), status, verdict)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Diagnostics"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}

// runUI hands the terminal to bubbletea and reroutes run summaries into it.
func runUI(a *app.App, initial app.Summary) error {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())

	a.SetUpdateHandler(func(s app.Summary) {
		p.Send(updateMsg{summary: s})
	})

	go p.Send(updateMsg{summary: initial})

	_, err := p.Run()
	return err
}
