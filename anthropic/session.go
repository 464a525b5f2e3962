package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/relay"
)

// Interface compliance check.
var _ relay.Session = (*session)(nil)

// session implements [relay.Session] by parsing SSE events from a Messages
// response body.
type session struct {
	client *Client
	cfg    relay.ModelConfig

	pending strings.Builder
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func (s *session) Send(ctx context.Context, text string, endOfTurn bool) error {
	if s.closed.Load() {
		return relay.ErrSessionClosed
	}
	if s.body != nil {
		return errors.New("anthropic: turn already sent")
	}
	s.pending.WriteString(text)
	if !endOfTurn {
		return nil
	}
	body, err := s.client.post(ctx, s.cfg, s.pending.String())
	if err != nil {
		return err
	}
	s.body = body
	s.scanner = bufio.NewScanner(body)
	return nil
}

// Receive reads the next text fragment. Returns io.EOF after message_stop.
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
	if s.body == nil {
		return relay.Event{}, errors.New("anthropic: receive before end of turn")
	}
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		eventType, data, err := s.readSSEEvent()
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return relay.Event{}, cerr
			}
			if err == io.EOF {
				// A well-formed stream ends with message_stop.
				return relay.Event{}, errors.New("anthropic: unexpected end of stream")
			}
			return relay.Event{}, err
		}

		evt, err := s.processEvent(eventType, data)
		if err != nil {
			return relay.Event{}, err
		}
		if s.done {
			return relay.Event{}, io.EOF
		}
		if evt.HasText {
			return evt, nil
		}
		// Non-text event (ping, message_start, etc.) - keep reading.
	}
}

// Close closes the underlying HTTP response body.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.body != nil {
			s.closeErr = s.body.Close()
		}
	})
	return s.closeErr
}

// readSSEEvent reads lines until a complete SSE event is assembled.
// Returns the event type and the data payload.
func (s *session) readSSEEvent() (string, string, error) {
	var eventType string
	var dataBuf strings.Builder

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if dataBuf.Len() > 0 {
				return eventType, dataBuf.String(), nil
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			eventType = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			if dataBuf.Len() > 0 {
				dataBuf.WriteByte('\n')
			}
			dataBuf.WriteString(strings.TrimPrefix(line, "data: "))
		}
		// Ignore comments (lines starting with ':') and unknown fields.
	}

	if err := s.scanner.Err(); err != nil {
		return "", "", fmt.Errorf("anthropic: %w", err)
	}
	if dataBuf.Len() > 0 {
		return eventType, dataBuf.String(), nil
	}
	return "", "", io.EOF
}

// processEvent maps an SSE event to a relay event. Only text deltas carry
// text; message_stop ends the turn.
func (s *session) processEvent(eventType, data string) (relay.Event, error) {
	switch eventType {
	case "content_block_delta":
		var evt sseContentBlockDelta
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			return relay.Event{}, fmt.Errorf("anthropic: failed to parse content_block_delta: %w", err)
		}
		if evt.Delta.Type == "text_delta" && evt.Delta.Text != "" {
			return relay.TextEvent(evt.Delta.Text), nil
		}
		return relay.Event{}, nil
	case "message_stop":
		s.done = true
		return relay.Event{}, nil
	case "error":
		var evt sseError
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			return relay.Event{}, fmt.Errorf("anthropic: failed to parse error event: %w", err)
		}
		return relay.Event{}, fmt.Errorf("anthropic: %s: %s", evt.Error.Type, evt.Error.Message)
	default:
		// message_start, content_block_start/stop, message_delta, ping and
		// unknown event types carry no text.
		return relay.Event{}, nil
	}
}
