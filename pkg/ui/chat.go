package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/chainview/pkg/model"
)

// ChatPane shows the assistant conversation log above a single-line input.
// The input does not accept text while a reply is pending.
type ChatPane struct {
	viewport viewport.Model
	input    textinput.Model
	md       *markdownRenderer
	theme    Theme

	state  model.ConversationState
	partID string
	width  int
	height int
}

// NewChatPane creates an empty chat pane.
func NewChatPane(theme Theme, md *markdownRenderer) ChatPane {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = "Ask about this part…"
	ti.CharLimit = 500
	return ChatPane{
		viewport: viewport.New(0, 0),
		input:    ti,
		md:       md,
		theme:    theme,
	}
}

// SetSize sets the inner dimensions.
func (c *ChatPane) SetSize(width, height int) {
	c.width, c.height = width, height
	c.viewport.Width = width
	c.viewport.Height = max(height-3, 1)
	c.input.Width = max(width-4, 1)
	c.refresh()
}

// SetConversation replaces the log and follows it to the bottom.
func (c *ChatPane) SetConversation(state model.ConversationState) {
	c.state = state
	if state.Pending {
		c.input.Blur()
		c.input.Placeholder = "Waiting for the assistant…"
	} else {
		c.input.Placeholder = "Ask about this part…"
	}
	c.refresh()
	c.viewport.GotoBottom()
}

// SetPart names the part the conversation is about.
func (c *ChatPane) SetPart(id string) { c.partID = id }

// Conversation returns the state being shown.
func (c ChatPane) Conversation() model.ConversationState { return c.state }

// Focus gives the input focus unless a reply is pending.
func (c *ChatPane) Focus() tea.Cmd {
	if c.state.Pending {
		return nil
	}
	return c.input.Focus()
}

func (c *ChatPane) Blur() { c.input.Blur() }

// Focused reports whether the input has focus.
func (c ChatPane) Focused() bool { return c.input.Focused() }

// Value returns the typed text.
func (c ChatPane) Value() string { return c.input.Value() }

// ClearInput empties the input after a message was accepted.
func (c *ChatPane) ClearInput() { c.input.Reset() }

// Update forwards keys to the input and other messages to the viewport.
func (c ChatPane) Update(msg tea.Msg) (ChatPane, tea.Cmd) {
	var cmd tea.Cmd
	if _, ok := msg.(tea.KeyMsg); ok {
		if c.state.Pending {
			return c, nil
		}
		c.input, cmd = c.input.Update(msg)
		return c, cmd
	}
	c.viewport, cmd = c.viewport.Update(msg)
	return c, cmd
}

func (c *ChatPane) ScrollUp() { c.viewport.HalfViewUp() }

func (c *ChatPane) ScrollDown() { c.viewport.HalfViewDown() }

func (c *ChatPane) refresh() {
	t := c.theme
	if len(c.state.Messages) == 0 {
		c.viewport.SetContent(t.MutedText.Render("No messages yet."))
		return
	}
	if c.md != nil {
		c.md.setWidth(c.width)
	}

	var sb strings.Builder
	for i, msg := range c.state.Messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch msg.From {
		case model.FromUser:
			sb.WriteString(t.UserLabel.Render("You"))
			sb.WriteString("\n")
			sb.WriteString(msg.Text)
		default:
			sb.WriteString(t.AssistLabel.Render("Assistant"))
			sb.WriteString("\n")
			text := msg.Text
			if c.md != nil {
				text = c.md.render(text)
			}
			sb.WriteString(text)
		}
	}
	if c.state.Pending {
		sb.WriteString("\n\n")
		sb.WriteString(t.MutedText.Render("Assistant is typing…"))
	}
	c.viewport.SetContent(sb.String())
}

// View renders the pane contents without a border.
func (c ChatPane) View() string {
	t := c.theme
	title := "Assistant"
	if c.partID != "" {
		title += " · " + c.partID
	}
	title = t.PrimaryBold.Render(title)
	if c.state.SessionID != "" {
		title += t.MutedText.Render(" (session " + truncate(c.state.SessionID, 12) + ")")
	}
	return strings.Join([]string{
		title,
		c.viewport.View(),
		RenderDivider(c.width),
		c.input.View(),
	}, "\n")
}
