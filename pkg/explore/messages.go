package explore

import "github.com/vanderheijden86/chainview/pkg/model"

// GraphLoadedMsg completes a full graph load.
type GraphLoadedMsg struct {
	Gen  uint64
	Rows []model.Relationship
	Err  error
}

// DetailCycleMsg completes one detail fetch cycle (the join of the detail,
// risk and forecast requests for PartID).
type DetailCycleMsg struct {
	Gen     uint64
	PartID  string
	CycleID string
	Panel   model.PanelState
	Err     error
}

// ConversationReplyMsg completes one assistant turn. Epoch identifies the
// conversation the request was sent from.
type ConversationReplyMsg struct {
	Epoch uint64
	Reply model.ConversationReply
	Err   error
}
