package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/relay"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/openai/openai-go/v3/responses"
)

// Interface compliance check.
var _ relay.Session = (*session)(nil)

var errNoTurn = errors.New("openai: receive before end of turn")

type session struct {
	client *openai.Client
	params responses.ResponseNewParams

	pending strings.Builder
	stream  *ssestream.Stream[responses.ResponseStreamEventUnion]
	done    bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func newSession(client *openai.Client, params responses.ResponseNewParams) *session {
	return &session{client: client, params: params}
}

func (s *session) Send(ctx context.Context, text string, endOfTurn bool) error {
	if s.closed.Load() {
		return relay.ErrSessionClosed
	}
	if s.stream != nil {
		return errors.New("openai: turn already sent")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.pending.WriteString(text)
	if !endOfTurn {
		return nil
	}
	params := s.params
	params.Input = responses.ResponseNewParamsInputUnion{OfString: param.NewOpt(s.pending.String())}
	s.stream = s.client.Responses.NewStreaming(ctx, params)
	if err := s.stream.Err(); err != nil {
		return fmt.Errorf("openai: %w", err)
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
	if s.stream == nil {
		return relay.Event{}, errNoTurn
	}
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for s.stream.Next() {
		switch ev := s.stream.Current().AsAny().(type) {
		case responses.ResponseTextDeltaEvent:
			if ev.Delta != "" {
				return relay.TextEvent(ev.Delta), nil
			}
		case responses.ResponseErrorEvent:
			return relay.Event{}, fmt.Errorf("openai: %s: %s", ev.Code, ev.Message)
		case responses.ResponseFailedEvent:
			return relay.Event{}, fmt.Errorf("openai: response failed: %s", ev.Response.Error.Message)
		case responses.ResponseCompletedEvent, responses.ResponseIncompleteEvent:
			s.done = true
			return relay.Event{}, io.EOF
		}
	}
	if err := ctx.Err(); err != nil {
		return relay.Event{}, err
	}
	if err := s.stream.Err(); err != nil {
		return relay.Event{}, fmt.Errorf("openai: %w", err)
	}
	s.done = true
	return relay.Event{}, io.EOF
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.stream != nil {
			s.closeErr = s.stream.Close()
		}
	})
	return s.closeErr
}
