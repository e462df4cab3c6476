package explore

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/chainview/pkg/model"
)

// ErrSwitchBlocked is returned when a view switch is refused because the
// other view has an operation in flight.
var ErrSwitchBlocked = errors.New("view switch blocked")

// ViewModeController decides which panel is visible. It is a two-flag gate,
// not a lock: it only refuses mode switches, the fetches themselves keep
// running in the background.
type ViewModeController struct {
	mode                model.ViewMode
	detailLoading       bool
	conversationLoading bool
}

// NewViewModeController starts in the given mode.
func NewViewModeController(initial model.ViewMode) *ViewModeController {
	return &ViewModeController{mode: initial}
}

// Mode returns the active view mode.
func (v *ViewModeController) Mode() model.ViewMode { return v.mode }

// CanSwitch reports whether a switch to mode would be allowed right now.
func (v *ViewModeController) CanSwitch(mode model.ViewMode) bool {
	return v.blockedBy(mode) == ""
}

func (v *ViewModeController) blockedBy(mode model.ViewMode) string {
	switch mode {
	case model.ViewDetail:
		if v.conversationLoading {
			return "assistant reply pending"
		}
	case model.ViewConversation:
		if v.detailLoading {
			return "part detail loading"
		}
	}
	return ""
}

// SwitchTo activates mode. It reports whether the active mode changed.
// Switching to the active mode is a no-op.
func (v *ViewModeController) SwitchTo(mode model.ViewMode) (bool, error) {
	if mode == v.mode {
		return false, nil
	}
	if reason := v.blockedBy(mode); reason != "" {
		return false, fmt.Errorf("%w: %s", ErrSwitchBlocked, reason)
	}
	v.mode = mode
	return true, nil
}

// SetDetailLoading records whether a detail fetch cycle is in flight.
func (v *ViewModeController) SetDetailLoading(loading bool) { v.detailLoading = loading }

// SetConversationLoading records whether an assistant reply is pending.
func (v *ViewModeController) SetConversationLoading(loading bool) { v.conversationLoading = loading }

// DetailLoading reports the detail loading flag.
func (v *ViewModeController) DetailLoading() bool { return v.detailLoading }

// ConversationLoading reports the conversation loading flag.
func (v *ViewModeController) ConversationLoading() bool { return v.conversationLoading }
