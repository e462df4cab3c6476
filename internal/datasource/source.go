// Package datasource provides the transports behind the exploration engine:
// the JSON/HTTP backend and an offline, read-only SQLite snapshot of it.
package datasource

import (
	"errors"
	"fmt"
	"io"

	"github.com/vanderheijden86/chainview/pkg/config"
	"github.com/vanderheijden86/chainview/pkg/explore"
)

var (
	// ErrUnknownKind is returned by Open for an unsupported source kind.
	ErrUnknownKind = errors.New("unknown source kind")
	// ErrConversationUnavailable is returned by sources without an assistant.
	ErrConversationUnavailable = errors.New("conversation is not available for this source")
)

// Source is an explore.Source that holds resources and can describe itself.
type Source interface {
	explore.Source
	io.Closer
	fmt.Stringer
}

var (
	_ Source = (*HTTPSource)(nil)
	_ Source = (*SnapshotSource)(nil)
)

// Open builds the source selected by cfg.
func Open(cfg config.SourceConfig) (Source, error) {
	switch cfg.Kind {
	case config.SourceHTTP, "":
		return NewHTTPSource(cfg.BaseURL, cfg.Token, WithChatPath(cfg.ChatPath)), nil
	case config.SourceSnapshot:
		return OpenSnapshot(cfg.SnapshotPath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}
