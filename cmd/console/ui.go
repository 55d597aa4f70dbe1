package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/realm-engine/pkg/action"
	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/world"
	"github.com/muesli/reflow/wordwrap"
)

const (
	PlaceHolderText = "explore, fight, craft <el> <el>, discover, rest..."
	requestTimeout  = 15 * time.Second
)

type entryKind int

const (
	entryUser entryKind = iota
	entryResult
	entryWorld
	entryInfo
	entryError
)

type logEntry struct {
	kind entryKind
	text string
}

// ConsoleUI is the BubbleTea model for the realm console.
type ConsoleUI struct {
	api          *APIClient
	player       *actor.Player
	world        *world.Snapshot
	entries      []logEntry
	lastResult   string
	logViewport  viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool

	showQuitModal bool
	progressTick  int
}

type actionResultMsg struct {
	result *action.Result
	err    error
}

type worldMsg struct {
	snapshot *world.Snapshot
	err      error
}

type progressTickMsg struct{}

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	worldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")) // purple

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	separatorStyle = promptStyle

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

func NewConsoleUI(api *APIClient, p *actor.Player, snap *world.Snapshot) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	m := ConsoleUI{
		api:          api,
		player:       p,
		world:        snap,
		textarea:     ta,
		logViewport:  logVp,
		metaViewport: viewport.New(20, 20),
	}
	m.entries = append(m.entries, logEntry{entryInfo, fmt.Sprintf("%s stands at %s. Type /help for commands.", p.Name, p.Location)})
	return m
}

func (m *ConsoleUI) addEntry(kind entryKind, text string) {
	m.entries = append(m.entries, logEntry{kind: kind, text: text})
}

// layout sizes the panels with a 75/25 split.
func (m *ConsoleUI) layout() (logWidth, metaWidth int) {
	logWidth = int(float64(m.width)*0.75) - 4
	metaWidth = m.width - logWidth - 6
	return logWidth, metaWidth
}

func (m *ConsoleUI) writeLog() {
	width := m.logViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("REALM ENGINE") + "\n\n")
	for _, e := range m.entries {
		text := wordwrap.String(e.text, width)
		switch e.kind {
		case entryUser:
			b.WriteString(userStyle.Render("> "+text) + "\n")
		case entryResult:
			b.WriteString(resultStyle.Render(text) + "\n\n")
		case entryWorld:
			b.WriteString(worldStyle.Render(text) + "\n")
		case entryError:
			b.WriteString(errorStyle.Render(text) + "\n\n")
		default:
			b.WriteString(text + "\n\n")
		}
	}
	if m.loading {
		b.WriteString(m.renderProgressBar())
	}
	m.logViewport.SetContent(b.String())
	m.logViewport.GotoBottom()
}

func writeMetadata(p *actor.Player, snap *world.Snapshot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(strings.ToUpper(p.Name)) + "\n\n")
	fmt.Fprintf(&b, "Level %d\nXP %d/%d\n\n", p.Level, p.XP, p.XPToNext)
	fmt.Fprintf(&b, "STR %d  INT %d  AGI %d\n\n", p.Stats.Strength, p.Stats.Intelligence, p.Stats.Agility)
	fmt.Fprintf(&b, "Location:\n%s\n\n", p.Location)

	b.WriteString("Elements:\n")
	if len(p.Inventory.Elements) == 0 {
		b.WriteString("none\n")
	} else {
		b.WriteString(strings.Join(p.Inventory.Elements, ", ") + "\n")
	}
	b.WriteString("\nItems:\n")
	if len(p.Inventory.Items) == 0 {
		b.WriteString("none\n")
	}
	for _, it := range p.Inventory.Items {
		fmt.Fprintf(&b, "• %s [%s]\n", it.Name, it.Rarity)
	}

	b.WriteString("\nEncounters:\n")
	encounters := sortedEncounters(p)
	if len(encounters) == 0 {
		b.WriteString("none\n")
	}
	for i, e := range encounters {
		fmt.Fprintf(&b, "%d. %s %d/%d\n", i+1, e.Name, e.HP, e.MaxHP)
	}

	if snap != nil {
		fmt.Fprintf(&b, "\nBlueprints known: %d\n", snap.BlueprintsCount)
	}
	return b.String()
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.logViewport, vpCmd = m.logViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logWidth, metaWidth := m.layout()
		m.logViewport.Width = logWidth - 2
		m.logViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(logWidth - 4)
		m.ready = true
		m.writeLog()
		m.metaViewport.SetContent(writeMetadata(m.player, m.world))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.addEntry(entryUser, input)
			req, err := parseInput(input, m.player)
			if err != nil {
				m.addEntry(entryError, err.Error())
				m.writeLog()
				return m, nil
			}
			m.loading = true
			m.progressTick = 0
			m.writeLog()
			return m, tea.Batch(m.act(req), progressTick())
		}

	case actionResultMsg:
		m.loading = false
		if msg.err != nil {
			m.addEntry(entryError, "Error: "+msg.err.Error())
		} else {
			text := strings.Join(describeResult(msg.result), "\n")
			m.lastResult = text
			kind := entryResult
			if msg.result.Error != "" {
				kind = entryError
			}
			m.addEntry(kind, text)
			if msg.result.Player != nil {
				m.player = msg.result.Player
				m.metaViewport.SetContent(writeMetadata(m.player, m.world))
			}
		}
		m.writeLog()
		return m, nil

	case worldMsg:
		m.loading = false
		if msg.err != nil {
			m.addEntry(entryError, "Error: "+msg.err.Error())
		} else {
			m.world = msg.snapshot
			m.addEntry(entryInfo, titleStyle.Render("World feed"))
			for i := len(msg.snapshot.Events) - 1; i >= 0; i-- {
				e := msg.snapshot.Events[i]
				m.addEntry(entryWorld, e.T.Local().Format("15:04")+"  "+e.Event)
			}
			m.metaViewport.SetContent(writeMetadata(m.player, m.world))
		}
		m.writeLog()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeLog()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.logViewport, vpCmd = m.logViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(input) {
	case "/help":
		m.addEntry(entryInfo, `Commands:
• explore - wander and maybe meet an enemy or find an element
• fight [n|id] [flee] - attack encounter n (default 1), or flee
• craft <el> <el> [...] - combine elements into an item
• discover - try to learn a new blueprint
• rest - recover and reflect
• /world - show the world feed
• /copy - copy the last result to the clipboard
• Ctrl+C - quit`)

	case "/world":
		m.loading = true
		m.writeLog()
		return m, tea.Batch(m.fetchWorld(), progressTick())

	case "/copy":
		if m.lastResult == "" {
			m.addEntry(entryInfo, "Nothing to copy yet.")
		} else if err := clipboard.WriteAll(m.lastResult); err != nil {
			m.addEntry(entryError, "Clipboard unavailable: "+err.Error())
		} else {
			m.addEntry(entryInfo, "Copied.")
		}

	default:
		m.addEntry(entryError, fmt.Sprintf("Unknown command %s", input))
	}

	m.writeLog()
	return m, nil
}

func (m ConsoleUI) act(req action.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := m.api.Act(ctx, req)
		return actionResultMsg{result: res, err: err}
	}
}

func (m ConsoleUI) fetchWorld() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		snap, err := m.api.World(ctx)
		return worldMsg{snapshot: snap, err: err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}
	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the realm?"))
	content.WriteString("\n\n")
	content.WriteString("Your wanderer stays in the world while you are away.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth, metaWidth := m.layout()

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(logWidth-4, 1))),
			m.textarea.View(),
		),
	)
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(m.metaViewport.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}

// renderProgressBar draws the loading animation under the log.
func (m ConsoleUI) renderProgressBar() string {
	usable := min(max(m.logViewport.Width-6, 10), 80)

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		switch {
		case i < filled:
			bar.WriteString("█")
		case i == filled && frame%4 < 2:
			bar.WriteString("▓")
		default:
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
