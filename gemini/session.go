package gemini

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/relay"
	"github.com/gorilla/websocket"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ relay.Session = (*session)(nil)

// session implements [relay.Session] on top of a genai Live session.
// Cancelling the context of a blocked Receive closes the websocket, which is
// the only way to interrupt the SDK's blocking read.
type session struct {
	live *genai.Session

	// done is set once the server reports the turn complete. Only the
	// receiving goroutine touches it.
	done bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newSession(live *genai.Session) *session {
	return &session{live: live}
}

func (s *session) Send(ctx context.Context, text string, endOfTurn bool) error {
	if s.closed.Load() {
		return relay.ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.live.SendClientContent(genai.LiveClientContentInput{
		Turns:        []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		TurnComplete: genai.Ptr(endOfTurn),
	})
	if err != nil {
		return fmt.Errorf("gemini: %w", err)
	}
	return nil
}

func (s *session) Receive(ctx context.Context) (relay.Event, error) {
	if s.done {
		return relay.Event{}, io.EOF
	}
	if s.closed.Load() {
		// A context that ended closed the session; report that instead.
		if err := ctx.Err(); err != nil {
			return relay.Event{}, err
		}
		return relay.Event{}, relay.ErrSessionClosed
	}
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	msg, err := s.live.Receive()
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return relay.Event{}, cerr
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			s.done = true
			return relay.Event{}, io.EOF
		}
		return relay.Event{}, fmt.Errorf("gemini: %w", err)
	}

	sc := msg.ServerContent
	if sc == nil {
		// Setup acknowledgements, usage metadata and similar carry no text.
		return relay.Event{}, nil
	}
	if sc.TurnComplete {
		s.done = true
	}
	if text, ok := ModelText(sc.ModelTurn); ok {
		return relay.TextEvent(text), nil
	}
	if s.done {
		return relay.Event{}, io.EOF
	}
	return relay.Event{}, nil
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.live.Close()
	})
	return s.closeErr
}

// ModelText concatenates the non-thought text parts of a model turn. It
// reports false when the turn carries no text at all.
// Exported for testing.
func ModelText(turn *genai.Content) (string, bool) {
	if turn == nil {
		return "", false
	}
	var sb strings.Builder
	found := false
	for _, p := range turn.Parts {
		if p == nil || p.Thought || p.Text == "" {
			continue
		}
		sb.WriteString(p.Text)
		found = true
	}
	return sb.String(), found
}
