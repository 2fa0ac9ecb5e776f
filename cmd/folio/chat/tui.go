package chatcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/termenv"

	"github.com/frantai/folio/pkg/chat"
	"github.com/frantai/folio/pkg/client"
	"github.com/frantai/folio/pkg/cliui"
	"github.com/frantai/folio/pkg/sse"
)

var (
	chatTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	chatMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	chatFailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	chatBorderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("237"))
)

type chatKeyMap struct {
	Send key.Binding
	New  key.Binding
	Up   key.Binding
	Down key.Binding
	Quit key.Binding
}

func (k chatKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.New, k.Up, k.Down, k.Quit}
}

func (k chatKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Send, k.New}, {k.Up, k.Down, k.Quit}}
}

func defaultChatKeyMap() chatKeyMap {
	return chatKeyMap{
		Send: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		New:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new chat")),
		Up:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		Down: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Quit: key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

// tokenMsg is sent for every event of the streaming reply.
type tokenMsg struct{}

// replyDoneMsg is sent when a reply has finished or failed.
type replyDoneMsg struct {
	err error
}

// newChatMsg is sent when a new session has been opened.
type newChatMsg struct {
	err error
}

type chatModel struct {
	ctx     context.Context
	runner  *chat.Runner
	input   textinput.Model
	view    viewport.Model
	spinner spinner.Model
	help    help.Model
	keys    chatKeyMap

	// events carries messages from the streaming goroutine.
	events chan bubbletea.Msg

	busy    bool
	lastErr error
	width   int
	height  int
}

func newChatModel(ctx context.Context, runner *chat.Runner) chatModel {
	input := textinput.New()
	input.Placeholder = "Ask a question"
	input.CharLimit = client.MaxMessageLength
	input.Prompt = cliui.UserStyle.Render("› ")
	input.Focus()

	return chatModel{
		ctx:     ctx,
		runner:  runner,
		input:   input,
		view:    viewport.New(80, 20),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    defaultChatKeyMap(),
		events:  make(chan bubbletea.Msg, 64),
	}
}

func runChatTUI(ctx context.Context, runner *chat.Runner, opts ...bubbletea.ProgramOption) error {
	// Replies still streaming when the window closes are abandoned.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Force TrueColor profile to fix lipgloss color detection issue
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)

	opts = append([]bubbletea.ProgramOption{
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	}, opts...)
	program := bubbletea.NewProgram(newChatModel(ctx, runner), opts...)
	_, err := program.Run()
	return err
}

func (m chatModel) Init() bubbletea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	var cmds []bubbletea.Cmd

	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Width = max(msg.Width-2, 10)
		m.view.Height = max(msg.Height-7, 3)
		m.input.Width = max(msg.Width-6, 10)
		m.refresh()

	case bubbletea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, bubbletea.Quit
		case key.Matches(msg, m.keys.New):
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.lastErr = nil
			return m, bubbletea.Batch(m.newChat(), m.spinner.Tick)
		case key.Matches(msg, m.keys.Send):
			text := m.input.Value()
			if m.busy || strings.TrimSpace(text) == "" {
				return m, nil
			}
			m.input.Reset()
			m.busy = true
			m.lastErr = nil
			cmd := m.ask(text)
			m.refresh()
			return m, bubbletea.Batch(cmd, m.waitForEvent(), m.spinner.Tick)
		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			var cmd bubbletea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}

	case tokenMsg:
		m.refresh()
		return m, m.waitForEvent()

	case replyDoneMsg:
		m.busy = false
		m.lastErr = msg.err
		m.refresh()
		return m, nil

	case newChatMsg:
		m.busy = false
		m.lastErr = msg.err
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd bubbletea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, bubbletea.Batch(cmds...)
}

// ask streams a reply in the background, reporting progress on m.events.
// The conversation is updated by the runner; the model only re-renders.
func (m chatModel) ask(text string) bubbletea.Cmd {
	events := m.events
	runner := m.runner
	ctx := m.ctx

	return func() bubbletea.Msg {
		go func() {
			_, err := runner.Ask(ctx, text, func(sse.Event) {
				select {
				case events <- tokenMsg{}:
				default:
				}
			})
			select {
			case events <- replyDoneMsg{err: err}:
			case <-ctx.Done():
			}
		}()
		return nil
	}
}

func (m chatModel) waitForEvent() bubbletea.Cmd {
	events := m.events
	return func() bubbletea.Msg {
		return <-events
	}
}

func (m chatModel) newChat() bubbletea.Cmd {
	runner := m.runner
	ctx := m.ctx
	return func() bubbletea.Msg {
		_, err := runner.NewChat(ctx)
		return newChatMsg{err: err}
	}
}

// refresh re-renders the conversation into the viewport.
func (m *chatModel) refresh() {
	m.view.SetContent(renderConversation(m.runner.Conversation().Messages(), m.view.Width))
	m.view.GotoBottom()
}

func renderConversation(messages []chat.Message, width int) string {
	wrap := lipgloss.NewStyle().Width(max(width-2, 10))

	var b strings.Builder
	for _, msg := range messages {
		switch {
		case msg.Role == chat.RoleUser:
			b.WriteString(cliui.UserStyle.Render("you"))
		default:
			b.WriteString(cliui.AssistantStyle.Render("assistant"))
		}
		if msg.ResponseTime > 0 {
			b.WriteString(" " + chatMutedStyle.Render(cliui.FormatDuration(msg.ResponseTime)))
		}
		b.WriteString("\n")

		content := msg.Content
		if msg.Streaming && content == "" {
			content = "…"
		}
		if msg.Failed {
			b.WriteString(chatFailStyle.Render(wrap.Render(content)))
		} else {
			b.WriteString(wrap.Render(content))
		}
		b.WriteString("\n\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m chatModel) View() string {
	title := chatTitleStyle.Render("folio chat")
	if id, err := m.runner.SessionID(); err == nil && id != uuid.Nil {
		title += " " + chatMutedStyle.Render(id.String())
	}
	if m.width > 0 {
		title = ansi.Truncate(title, m.width, "…")
	}

	status := ""
	switch {
	case m.busy:
		status = m.spinner.View() + " " + chatMutedStyle.Render("thinking")
	case m.lastErr != nil:
		status = chatFailStyle.Render(m.lastErr.Error())
	}

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s",
		title,
		chatBorderStyle.Render(m.view.View()),
		m.input.View(),
		status,
		m.help.View(m.keys),
	)
}
