package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Beastly713/quorum/pkg/chat"
	"github.com/Beastly713/quorum/pkg/disclosure"
)

// Styles
var (
	senderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	lockedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	clearStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")) // Green
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	docStyle    = lipgloss.NewStyle().Margin(1, 2)
)

const helpLine = "Enter: Send | Ctrl+R: Refresh | Esc: Quit"

type chatModel struct {
	ctx    context.Context
	svc    *chat.Service
	viewer string

	views    []*disclosure.View
	input    textinput.Model
	status   string
	quitting bool
	sending  bool
}

type feedMsg []*disclosure.View

type sentMsg struct{ id string }

type errMsg struct{ err error }

func newChatModel(ctx context.Context, svc *chat.Service, viewer string) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Write a message"
	ti.CharLimit = 1024
	ti.Width = 60
	ti.Focus()

	return chatModel{
		ctx:    ctx,
		svc:    svc,
		viewer: viewer,
		input:  ti,
		status: helpLine,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadFeed())
}

func (m chatModel) loadFeed() tea.Cmd {
	return func() tea.Msg {
		views, err := m.svc.Feed(m.ctx, m.viewer)
		if err != nil {
			return errMsg{err}
		}
		return feedMsg(views)
	}
}

func (m chatModel) send(text string) tea.Cmd {
	return func() tea.Msg {
		msg, err := m.svc.Send(m.ctx, m.viewer, text)
		if err != nil {
			return errMsg{err}
		}
		return sentMsg{id: msg.ID}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyCtrlR:
			m.status = "Refreshing..."
			return m, m.loadFeed()

		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.sending {
				return m, nil
			}
			m.sending = true
			m.input.Reset()
			m.status = "Sending..."
			return m, m.send(text)
		}

	case feedMsg:
		m.views = msg
		m.status = helpLine
		return m, nil

	case sentMsg:
		m.sending = false
		m.status = fmt.Sprintf("Sent %s", msg.id)
		return m, m.loadFeed()

	case errMsg:
		m.sending = false
		m.status = fmt.Sprintf("Error: %v", msg.err)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) View() string {
	if m.quitting {
		return "Bye!\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Signed in as %s\n\n", m.viewer)

	if len(m.views) == 0 {
		b.WriteString(lockedStyle.Render("No messages yet.") + "\n")
	}
	// Oldest at the top, like a conversation.
	for i := len(m.views) - 1; i >= 0; i-- {
		v := m.views[i]
		text := clearStyle.Render(v.Text)
		if v.Masked {
			text = lockedStyle.Render(fmt.Sprintf("%s [locked %d/%d]", v.Text, v.Available, v.Total))
		}
		fmt.Fprintf(&b, "%s %s\n", senderStyle.Render(v.Sender+":"), text)
	}

	fmt.Fprintf(&b, "\n%s\n\n%s\n", m.input.View(), statusStyle.Render(m.status))
	return docStyle.Render(b.String())
}

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Short:   "Interactive terminal UI for the group chat",
	Args:    cobra.NoArgs,
	PreRunE: requireIdentity,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, store, err := openChat(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		p := tea.NewProgram(newChatModel(cmd.Context(), svc, chatAs), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)

	interactiveCmd.Flags().StringVar(&chatAs, "as", "", "Your participant email")
}
