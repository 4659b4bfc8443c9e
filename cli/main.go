package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// chatLine is one rendered line of the conversation
type chatLine struct {
	fromUser bool
	text     string
}

// Model defines the application state
type Model struct {
	textInput   textinput.Model
	spinner     spinner.Model
	inventory   table.Model
	events      table.Model
	client      *ApiClient
	chat        []chatLine
	currentView string
	loading     bool
	error       string
}

// Messages produced by API commands
type replyMsg *Reply
type inventoryMsg []InventoryEntry
type eventsMsg []LedgerEvent
type errMsg error

// Initialize the model
func initialModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "bought 2kg chicken..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60

	inventoryTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Item", Width: 20},
			{Title: "Amount", Width: 10},
			{Title: "Unit", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	eventsTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 5},
			{Title: "Item", Width: 16},
			{Title: "Kind", Width: 10},
			{Title: "Delta", Width: 10},
			{Title: "Left", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	return Model{
		textInput:   ti,
		spinner:     s,
		inventory:   inventoryTable,
		events:      eventsTable,
		client:      NewApiClient(),
		currentView: "chat",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen)
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.error = ""
			switch m.currentView {
			case "chat":
				m.currentView = "inventory"
				m.loading = true
				return m, m.fetchInventory()
			case "inventory":
				m.currentView = "events"
				m.loading = true
				return m, m.fetchEvents()
			default:
				m.currentView = "chat"
				m.textInput.Focus()
			}
			return m, nil
		case "r":
			if m.currentView == "inventory" {
				m.loading = true
				return m, m.fetchInventory()
			}
			if m.currentView == "events" {
				m.loading = true
				return m, m.fetchEvents()
			}
		case "enter":
			if m.currentView == "chat" && !m.loading {
				text := strings.TrimSpace(m.textInput.Value())
				if text == "" {
					return m, nil
				}
				m.chat = append(m.chat, chatLine{fromUser: true, text: text})
				m.textInput.Reset()
				m.loading = true
				m.error = ""
				return m, m.sendMessage(text)
			}
		}

	case replyMsg:
		m.loading = false
		m.chat = append(m.chat, chatLine{text: msg.Text})
		return m, nil

	case inventoryMsg:
		m.loading = false
		rows := make([]table.Row, 0, len(msg))
		for _, e := range msg {
			rows = append(rows, table.Row{e.ItemKey, fmt.Sprintf("%g", e.Amount), e.Unit})
		}
		m.inventory.SetRows(rows)
		return m, nil

	case eventsMsg:
		m.loading = false
		rows := make([]table.Row, 0, len(msg))
		for _, e := range msg {
			rows = append(rows, table.Row{
				fmt.Sprintf("%d", e.Sequence),
				e.ItemKey,
				e.Kind,
				fmt.Sprintf("%+g %s", e.Delta, e.Unit),
				fmt.Sprintf("%g %s", e.Resulting, e.Unit),
			})
		}
		m.events.SetRows(rows)
		return m, nil

	case errMsg:
		m.loading = false
		m.error = msg.Error()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "chat":
		m.textInput, cmd = m.textInput.Update(msg)
	case "inventory":
		m.inventory, cmd = m.inventory.Update(msg)
	case "events":
		m.events, cmd = m.events.Update(msg)
	}
	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Grocery Bot"))
	b.WriteString(hintStyle.Render("  tab: switch view • r: refresh • esc: quit"))
	b.WriteString("\n\n")

	switch m.currentView {
	case "chat":
		for _, line := range m.chat {
			if line.fromUser {
				b.WriteString(userStyle.Render("you"))
			} else {
				b.WriteString(botStyle.Render("bot"))
			}
			b.WriteString(" " + line.text + "\n")
		}
		b.WriteString("\n")
		if m.loading {
			b.WriteString(m.spinner.View() + " thinking...\n")
		}
		b.WriteString(m.textInput.View())

	case "inventory":
		b.WriteString(titleStyle.Render("Inventory") + "\n\n")
		if m.loading {
			b.WriteString(m.spinner.View() + " loading...\n")
		} else {
			b.WriteString(m.inventory.View())
		}

	case "events":
		b.WriteString(titleStyle.Render("Recent Changes") + "\n\n")
		if m.loading {
			b.WriteString(m.spinner.View() + " loading...\n")
		} else {
			b.WriteString(m.events.View())
		}
	}

	if m.error != "" {
		b.WriteString("\n\n" + errorStyle.Render(m.error))
	}
	return docStyle.Render(b.String())
}

// API commands

func (m Model) sendMessage(text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := m.client.SendMessage(text)
		if err != nil {
			return errMsg(err)
		}
		return replyMsg(reply)
	}
}

func (m Model) fetchInventory() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.client.GetInventory()
		if err != nil {
			return errMsg(err)
		}
		return inventoryMsg(entries)
	}
}

func (m Model) fetchEvents() tea.Cmd {
	return func() tea.Msg {
		events, err := m.client.GetEvents(50)
		if err != nil {
			return errMsg(err)
		}
		return eventsMsg(events)
	}
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}
