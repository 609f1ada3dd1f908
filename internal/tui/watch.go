// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

// Package tui renders a live view of a session converging: each poll
// updates the pending-metric count until every scorer lands or the wait
// budget runs out.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.design/x/clipboard"

	"github.com/elastic/metricat/internal/fetch"
)

var (
	primaryColor = lipgloss.Color("#7D56F4")
	successColor = lipgloss.Color("#04B575")
	warningColor = lipgloss.Color("#FFCC00")
	errorColor   = lipgloss.Color("#FF5F56")
	mutedColor   = lipgloss.Color("#6C757D")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	doneStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor).
			Padding(0, 1)

	timeoutStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warningColor).
			Padding(0, 1)

	errStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(1, 1, 0, 1)
)

// progressMsg carries one poll update from the fetcher goroutine.
type progressMsg fetch.ProgressEvent

// doneMsg carries the final report (or error) from the fetcher goroutine.
type doneMsg struct {
	report *fetch.SessionReport
	err    error
}

// FetchFunc runs one metrics fetch, reporting each poll through the
// given progress callback.
type FetchFunc func(ctx context.Context, progress fetch.ProgressFunc) (*fetch.SessionReport, error)

// Model is the watch-session TUI state.
type Model struct {
	sessionID string
	spinner   spinner.Model
	start     time.Time

	poll    int
	pending int

	report   *fetch.SessionReport
	err      error
	finished bool
	copied   bool

	clipboardOK bool
}

// NewModel creates the watch model for one session.
func NewModel(sessionID string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	clipboardOK := clipboard.Init() == nil

	return Model{
		sessionID:   sessionID,
		spinner:     sp,
		start:       time.Now(),
		clipboardOK: clipboardOK,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "c":
			if m.clipboardOK && m.report != nil {
				if data, err := json.MarshalIndent(m.report, "", "  "); err == nil {
					clipboard.Write(clipboard.FmtText, data)
					m.copied = true
				}
			}
			return m, nil
		}
		return m, nil

	case progressMsg:
		m.poll = msg.Poll
		m.pending = msg.Pending
		return m, nil

	case doneMsg:
		m.finished = true
		m.report = msg.report
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	s := titleStyle.Render(fmt.Sprintf("Watching session %s", m.sessionID)) + "\n\n"

	switch {
	case m.err != nil:
		s += errStyle.Render(fmt.Sprintf("✗ %v", m.err)) + "\n"
	case m.finished && m.report != nil && m.report.TimedOut:
		s += timeoutStyle.Render(fmt.Sprintf("⚠ timed out after %d polls, %d metrics still pending",
			m.poll, m.report.PendingCount())) + "\n"
	case m.finished:
		s += doneStyle.Render(fmt.Sprintf("✓ converged after %d polls in %s",
			m.poll, time.Since(m.start).Round(time.Second))) + "\n"
	default:
		s += statusStyle.Render(fmt.Sprintf("%s poll %d, %d metrics pending (%s elapsed)",
			m.spinner.View(), m.poll, m.pending, time.Since(m.start).Round(time.Second))) + "\n"
	}

	if m.finished && m.report != nil {
		s += statusStyle.Render(fmt.Sprintf("%d traces, %d metrics total",
			len(m.report.Traces), m.report.MetricCount())) + "\n"
	}

	help := "q quit"
	if m.finished && m.report != nil && m.clipboardOK {
		help = "c copy report as JSON · q quit"
		if m.copied {
			help = "copied! · q quit"
		}
	}
	s += helpStyle.Render(help) + "\n"
	return s
}

// Run drives the watch TUI until the fetch finishes and the user quits.
// The fetch runs in its own goroutine; poll updates stream in as
// messages. The final report is returned for non-TTY rendering by the
// caller if needed.
func Run(ctx context.Context, sessionID string, run FetchFunc) (*fetch.SessionReport, error) {
	m := NewModel(sessionID)
	p := tea.NewProgram(m, tea.WithContext(ctx))

	go func() {
		report, err := run(ctx, func(e fetch.ProgressEvent) {
			p.Send(progressMsg(e))
		})
		p.Send(doneMsg{report: report, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	fm, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", final)
	}
	if fm.err != nil {
		return nil, fm.err
	}
	return fm.report, nil
}
