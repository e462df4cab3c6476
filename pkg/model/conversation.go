package model

// Speaker identifies who authored a conversation message.
type Speaker string

const (
	FromUser      Speaker = "user"
	FromAssistant Speaker = "assistant"
)

// Message is one entry of the conversation log.
type Message struct {
	From Speaker `json:"from"`
	Text string  `json:"text"`
}

// ConversationPhase is the state of the conversation controller.
type ConversationPhase int

const (
	PhaseIdle ConversationPhase = iota
	PhasePending
	// PhaseError is transient: it is reported once with the fallback message
	// appended and then replaced by PhaseIdle.
	PhaseError
)

func (p ConversationPhase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// ConversationState is the message log plus session continuity token.
// An empty SessionID means no token has been issued yet.
type ConversationState struct {
	Messages  []Message         `json:"messages"`
	SessionID string            `json:"session_id,omitempty"`
	Phase     ConversationPhase `json:"phase"`
	Pending   bool              `json:"pending"`
}

// Clone returns a copy whose message slice does not alias the original.
func (c ConversationState) Clone() ConversationState {
	out := c
	if c.Messages != nil {
		out.Messages = append([]Message(nil), c.Messages...)
	}
	return out
}

// ConversationRequest is the outbound payload for one conversation turn.
// SessionID is omitted until the assistant has issued one; its absence asks
// the server to start a new conversation context.
type ConversationRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	PartID    string `json:"partId,omitempty"`
}

// ConversationReply is the assistant response. An absent reply field decodes
// to the empty string.
type ConversationReply struct {
	Reply     string `json:"reply,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}
