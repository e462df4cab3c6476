package explore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanderheijden86/chainview/pkg/model"
)

func TestSubmitBlankIsNoop(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		src := newFakeSource()
		s, r := loaded(t, src)

		assert.Nil(t, s.Submit(text))
		assert.Empty(t, s.Conversation().Messages)
		assert.False(t, s.ConversationLoading())
		assert.Empty(t, r.convs)
		assert.Empty(t, src.sentRequests())
	}
}

func TestSubmitAppendsOptimistically(t *testing.T) {
	src := newFakeSource()
	s, r := loaded(t, src)
	s.Update(s.Select("P1", model.KindPart)())

	cmd := s.Submit("  who is the riskiest supplier?  ")

	require.NotNil(t, cmd)
	conv := s.Conversation()
	assert.Equal(t, []model.Message{{From: model.FromUser, Text: "who is the riskiest supplier?"}}, conv.Messages)
	assert.True(t, conv.Pending)
	assert.Equal(t, model.PhasePending, conv.Phase)
	assert.True(t, s.ConversationLoading())
	assert.Equal(t, conv, r.lastConversation())
	assert.Empty(t, src.sentRequests(), "nothing is sent until the command runs")

	s.Update(cmd())

	conv = s.Conversation()
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, model.Message{From: model.FromAssistant, Text: "ok"}, conv.Messages[1])
	assert.False(t, conv.Pending)
	assert.Equal(t, model.PhaseIdle, conv.Phase)
	assert.False(t, s.ConversationLoading())

	reqs := src.sentRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, model.ConversationRequest{Message: "who is the riskiest supplier?", PartID: "P1"}, reqs[0])
}

func TestSubmitWhilePendingIsRefused(t *testing.T) {
	src := newFakeSource()
	s, _ := loaded(t, src)

	first := s.Submit("one")
	require.NotNil(t, first)
	assert.Nil(t, s.Submit("two"))
	assert.Len(t, s.Conversation().Messages, 1)

	s.Update(first())
	assert.NotNil(t, s.Submit("two"))
}

func TestSessionIDIsEchoedUntilPartChanges(t *testing.T) {
	src := newFakeSource()
	src.replies = []model.ConversationReply{
		{Reply: "hello", SessionID: "sess-1"},
		{Reply: "again"},
	}
	s, _ := loaded(t, src)
	s.Update(s.Select("P1", model.KindPart)())

	s.Update(s.Submit("first")())
	assert.Equal(t, "sess-1", s.Conversation().SessionID)

	s.Update(s.Submit("second")())
	assert.Equal(t, "sess-1", s.Conversation().SessionID, "a reply without a session id keeps the old one")

	s.Update(s.Select("P2", model.KindPart)())
	assert.Empty(t, s.Conversation().Messages)
	assert.Empty(t, s.Conversation().SessionID)

	s.Update(s.Submit("third")())

	reqs := src.sentRequests()
	require.Len(t, reqs, 3)
	assert.Empty(t, reqs[0].SessionID)
	assert.Equal(t, "sess-1", reqs[1].SessionID)
	assert.Empty(t, reqs[2].SessionID)
	assert.Equal(t, "P2", reqs[2].PartID)
}

func TestReselectingSamePartKeepsConversation(t *testing.T) {
	src := newFakeSource()
	src.replies = []model.ConversationReply{{Reply: "hi", SessionID: "sess-1"}}
	s, _ := loaded(t, src)
	s.Update(s.Select("P1", model.KindPart)())
	s.Update(s.Submit("hello")())

	s.Update(s.Select("P1", model.KindPart)())

	assert.Len(t, s.Conversation().Messages, 2)
	assert.Equal(t, "sess-1", s.Conversation().SessionID)
}

func TestConversationFailureAppendsFallback(t *testing.T) {
	src := newFakeSource()
	src.chatErr = errors.New("dial tcp 10.0.0.1:5000: connection refused")
	s, r := loaded(t, src)

	s.Update(s.Submit("hello")())

	conv := s.Conversation()
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, model.Message{From: model.FromAssistant, Text: FallbackReply}, conv.Messages[1])
	for _, m := range conv.Messages {
		assert.NotContains(t, m.Text, "connection refused")
	}
	assert.Equal(t, model.PhaseIdle, conv.Phase)
	assert.False(t, conv.Pending)
	assert.False(t, s.ConversationLoading())
	assert.Empty(t, r.failures, "conversation failures are recovered in the log")

	// The renderer sees the transient error phase before it settles.
	n := len(r.convs)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, model.PhaseError, r.convs[n-2].Phase)
	assert.Equal(t, model.PhaseIdle, r.convs[n-1].Phase)

	// The user can retry immediately.
	src.chatErr = nil
	s.Update(s.Submit("hello again")())
	assert.Len(t, s.Conversation().Messages, 4)
}

func TestEmptyReplyGetsPlaceholder(t *testing.T) {
	src := newFakeSource()
	src.replies = []model.ConversationReply{{SessionID: "sess-9"}}
	s, _ := loaded(t, src)

	s.Update(s.Submit("anything?")())

	conv := s.Conversation()
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, NoReplyPlaceholder, conv.Messages[1].Text)
	assert.Equal(t, "sess-9", conv.SessionID)
}

func TestReplyAfterPartChangeIsDropped(t *testing.T) {
	src := newFakeSource()
	src.replies = []model.ConversationReply{{Reply: "late", SessionID: "sess-old"}}
	s, _ := loaded(t, src)
	s.Update(s.Select("P1", model.KindPart)())

	pending := s.Submit("question about P1")
	require.True(t, s.ConversationLoading())

	s.Select("P2", model.KindPart)
	assert.False(t, s.ConversationLoading(), "the new conversation is not waiting on anything")

	s.Update(pending())

	assert.Empty(t, s.Conversation().Messages)
	assert.Empty(t, s.Conversation().SessionID)
}

func TestSwitchToDetailBlockedWhileReplyPending(t *testing.T) {
	s, _ := loaded(t, newFakeSource(), WithInitialView(model.ViewConversation))

	cmd := s.Submit("hi")

	assert.False(t, s.CanSwitch(model.ViewDetail))
	assert.ErrorIs(t, s.SwitchView(model.ViewDetail), ErrSwitchBlocked)

	s.Update(cmd())
	assert.True(t, s.CanSwitch(model.ViewDetail))
}

func TestConversationStateIsACopy(t *testing.T) {
	c := NewConversationController(newFakeSource(), 0)
	cmd := c.Submit("hello", "")
	require.NotNil(t, cmd)

	st := c.State()
	st.Messages[0].Text = "mutated"

	assert.Equal(t, "hello", c.State().Messages[0].Text)
}

func TestSettleOnlyLeavesErrorPhase(t *testing.T) {
	c := NewConversationController(newFakeSource(), 0)
	assert.False(t, c.Settle())

	c.Submit("x", "")
	assert.False(t, c.Settle())
	assert.Equal(t, model.PhasePending, c.State().Phase)

	assert.Equal(t, ConversationFailed, c.Complete(ConversationReplyMsg{Err: errors.New("boom")}))
	assert.Equal(t, model.PhaseError, c.State().Phase)
	assert.True(t, c.Settle())
	assert.Equal(t, model.PhaseIdle, c.State().Phase)
}

func TestCompleteWithoutPendingIsStale(t *testing.T) {
	c := NewConversationController(newFakeSource(), 0)

	assert.Equal(t, ConversationStale, c.Complete(ConversationReplyMsg{Reply: model.ConversationReply{Reply: "?"}}))
	assert.Empty(t, c.State().Messages)
}
