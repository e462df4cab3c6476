// Package model defines the supply-chain graph, panel and conversation types
// shared by the transport, the exploration engine and the terminal UI.
package model

import (
	"fmt"
	"strings"
)

// NodeKind distinguishes parts from suppliers. Both share one id namespace.
type NodeKind string

const (
	KindPart     NodeKind = "part"
	KindSupplier NodeKind = "supplier"
)

// IsValid returns true if the kind is one of the known node kinds.
func (k NodeKind) IsValid() bool {
	return k == KindPart || k == KindSupplier
}

// Node is a vertex of the relationship graph.
type Node struct {
	ID          string   `json:"id"`
	Kind        NodeKind `json:"kind"`
	DisplayName string   `json:"display_name"`
}

// Link connects a part to one of its suppliers.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Relationship is one flat row of the full-graph load: a part and the
// suppliers it is supplied by. The part-detail resource returns the same shape.
type Relationship struct {
	Part      string   `json:"part"`
	Name      string   `json:"name"`
	Suppliers []string `json:"suppliers"`
}

// RiskSummary is the risk narrative for a part.
type RiskSummary struct {
	Text string `json:"text"`
}

// Forecast carries weekly demand history (oldest first) and forecast text.
type Forecast struct {
	History  []float64 `json:"history"`
	Forecast string    `json:"forecast"`
}

// PanelState is the content of the detail panel. It is always replaced as a
// whole; there are no partial updates.
type PanelState struct {
	Part      string    `json:"part"`
	Name      string    `json:"name"`
	Suppliers []string  `json:"suppliers"`
	Risk      string    `json:"risk"`
	History   []float64 `json:"history"`
	Forecast  string    `json:"forecast"`
}

// IsEmpty reports whether no fetch cycle has completed yet.
func (p PanelState) IsEmpty() bool {
	return p.Part == ""
}

// Markdown renders the panel as a markdown document. Week numbers are
// 1-based: History[i] is week i+1.
func (p PanelState) Markdown() string {
	if p.IsEmpty() {
		return ""
	}
	var sb strings.Builder
	title := p.Part
	if p.Name != "" && p.Name != p.Part {
		title = fmt.Sprintf("%s (%s)", p.Part, p.Name)
	}
	fmt.Fprintf(&sb, "# Part: %s\n\n", title)

	sb.WriteString("## Suppliers\n\n")
	if len(p.Suppliers) == 0 {
		sb.WriteString("_none_\n")
	}
	for _, s := range p.Suppliers {
		fmt.Fprintf(&sb, "- %s\n", s)
	}

	sb.WriteString("\n## Risk Summary\n\n")
	sb.WriteString(p.Risk)
	sb.WriteString("\n\n## Demand History\n\n")
	if len(p.History) == 0 {
		sb.WriteString("_no history_\n")
	}
	for i, q := range p.History {
		fmt.Fprintf(&sb, "- Week %d: %s\n", i+1, FormatQuantity(q))
	}

	sb.WriteString("\n## Forecast\n\n")
	sb.WriteString(p.Forecast)
	sb.WriteString("\n")
	return sb.String()
}

// FormatQuantity prints whole quantities without a fractional part.
func FormatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}

// ViewMode selects which panel is visible next to the graph.
type ViewMode int

const (
	ViewDetail ViewMode = iota
	ViewConversation
)

func (v ViewMode) String() string {
	switch v {
	case ViewDetail:
		return "detail"
	case ViewConversation:
		return "conversation"
	default:
		return "unknown"
	}
}

// ParseViewMode maps a config value onto a ViewMode.
func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "detail":
		return ViewDetail, nil
	case "conversation", "chat", "assistant":
		return ViewConversation, nil
	default:
		return ViewDetail, fmt.Errorf("unknown view mode %q", s)
	}
}
