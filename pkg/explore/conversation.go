package explore

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/chainview/pkg/debug"
	"github.com/vanderheijden86/chainview/pkg/metrics"
	"github.com/vanderheijden86/chainview/pkg/model"
)

const (
	// NoReplyPlaceholder is shown when the assistant answers without text.
	NoReplyPlaceholder = "(no reply)"
	// FallbackReply replaces any transport or server failure in the log.
	FallbackReply = "Sorry, I couldn't reach the assistant. Please try again."
)

// ConversationOutcome classifies how a reply message was handled.
type ConversationOutcome int

const (
	ConversationStale ConversationOutcome = iota
	ConversationReplied
	ConversationFailed
)

// ConversationController holds the message log and session token of the
// conversation about the selected part.
type ConversationController struct {
	src     ConversationSource
	base    context.Context
	timeout time.Duration

	state model.ConversationState
	epoch uint64
}

// NewConversationController creates an idle controller with an empty log.
func NewConversationController(src ConversationSource, timeout time.Duration) *ConversationController {
	return &ConversationController{
		src:     src,
		base:    context.Background(),
		timeout: timeout,
	}
}

// Submit appends the trimmed text as a user message and returns the command
// that sends it. Blank text, or a submission while a reply is pending, is
// refused with a nil command and no state change.
func (c *ConversationController) Submit(text, partID string) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" || c.state.Pending {
		return nil
	}

	c.state.Messages = append(c.state.Messages, model.Message{From: model.FromUser, Text: text})
	c.state.Pending = true
	c.state.Phase = model.PhasePending

	req := model.ConversationRequest{
		Message:   text,
		SessionID: c.state.SessionID,
		PartID:    partID,
	}
	epoch := c.epoch
	src, base, timeout := c.src, c.base, c.timeout

	return func() tea.Msg {
		ctx := base
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(base, timeout)
			defer cancel()
		}
		start := time.Now()
		reply, err := src.PostConversationMessage(ctx, req)
		if err != nil {
			metrics.ConversationRoundTrip.RecordFailure()
		} else {
			metrics.ConversationRoundTrip.Record(time.Since(start))
		}
		return ConversationReplyMsg{Epoch: epoch, Reply: reply, Err: err}
	}
}

// Complete reconciles the optimistic append with the reply. A failure leaves
// the controller in the transient error phase with the fallback message
// appended; call Settle after it has been rendered.
func (c *ConversationController) Complete(msg ConversationReplyMsg) ConversationOutcome {
	if msg.Epoch != c.epoch || !c.state.Pending {
		debug.Log("conversation reply from epoch %d dropped (current %d)", msg.Epoch, c.epoch)
		return ConversationStale
	}
	c.state.Pending = false

	if msg.Err != nil {
		debug.Log("conversation request failed: %v", msg.Err)
		c.state.Messages = append(c.state.Messages, model.Message{From: model.FromAssistant, Text: FallbackReply})
		c.state.Phase = model.PhaseError
		return ConversationFailed
	}

	text := msg.Reply.Reply
	if text == "" {
		text = NoReplyPlaceholder
	}
	c.state.Messages = append(c.state.Messages, model.Message{From: model.FromAssistant, Text: text})
	if msg.Reply.SessionID != "" {
		c.state.SessionID = msg.Reply.SessionID
	}
	c.state.Phase = model.PhaseIdle
	return ConversationReplied
}

// Settle returns from the error phase to idle. It reports whether anything changed.
func (c *ConversationController) Settle() bool {
	if c.state.Phase != model.PhaseError {
		return false
	}
	c.state.Phase = model.PhaseIdle
	return true
}

// Reset starts a new conversation: the log and session id are discarded and
// any reply still in flight will be dropped on arrival.
func (c *ConversationController) Reset() {
	c.epoch++
	c.state = model.ConversationState{}
}

// State returns a copy of the conversation state.
func (c *ConversationController) State() model.ConversationState { return c.state.Clone() }

// Pending reports whether a reply is outstanding.
func (c *ConversationController) Pending() bool { return c.state.Pending }

// SessionID returns the continuity token, or "" if none has been issued.
func (c *ConversationController) SessionID() string { return c.state.SessionID }
