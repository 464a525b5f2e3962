package relay

import "context"

// Event is one message received from a remote session. Text is only
// meaningful when HasText is set; events without text (setup acks, usage
// reports) are skipped by the bridge.
type Event struct {
	Text    string
	HasText bool
}

// TextEvent returns an Event carrying a text fragment.
func TextEvent(text string) Event {
	return Event{Text: text, HasText: true}
}

// Session is a scoped, stateful connection to a remote model. A session
// carries at most one turn and must be closed on every path.
//
// Receive returns io.EOF once the turn is complete or the stream is
// exhausted. Close is idempotent.
type Session interface {
	Send(ctx context.Context, text string, endOfTurn bool) error
	Receive(ctx context.Context) (Event, error)
	Close() error
}

// Connector opens sessions against a remote model. Implementations are
// shared by all requests and must be safe for concurrent use.
type Connector interface {
	Connect(ctx context.Context, cfg ModelConfig) (Session, error)
}
