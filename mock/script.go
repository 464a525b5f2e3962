package mock

import (
	"context"
	"io"
	"sync"

	"github.com/fwojciec/relay"
)

// Script is a scripted remote backend. Every Connect hands out a fresh
// session that replays Fragments and then io.EOF. Each failure field makes
// the matching step fail instead. Script records what it saw so tests can
// assert on session lifecycles.
type Script struct {
	Fragments  []string
	ConnectErr error
	SendErr    error
	ReceiveErr error // returned after all Fragments
	CloseErr   error

	mu       sync.Mutex
	connects int
	closes   int
	sent     []string
	configs  []relay.ModelConfig
}

// Connector returns a Connector backed by s.
func (s *Script) Connector() *Connector {
	return &Connector{ConnectFn: s.connect}
}

func (s *Script) connect(_ context.Context, cfg relay.ModelConfig) (relay.Session, error) {
	s.mu.Lock()
	s.configs = append(s.configs, cfg)
	s.mu.Unlock()
	if s.ConnectErr != nil {
		return nil, s.ConnectErr
	}
	s.mu.Lock()
	s.connects++
	s.mu.Unlock()

	remaining := append([]string(nil), s.Fragments...)
	return &Session{
		SendFn: func(_ context.Context, text string, _ bool) error {
			s.mu.Lock()
			s.sent = append(s.sent, text)
			s.mu.Unlock()
			return s.SendErr
		},
		ReceiveFn: func(_ context.Context) (relay.Event, error) {
			if len(remaining) > 0 {
				f := remaining[0]
				remaining = remaining[1:]
				return relay.TextEvent(f), nil
			}
			if s.ReceiveErr != nil {
				return relay.Event{}, s.ReceiveErr
			}
			return relay.Event{}, io.EOF
		},
		CloseFn: func() error {
			s.mu.Lock()
			s.closes++
			s.mu.Unlock()
			return s.CloseErr
		},
	}, nil
}

// Connects returns the number of sessions successfully opened.
func (s *Script) Connects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

// Closes returns the number of Close calls across all sessions.
func (s *Script) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Sent returns every text passed to Send, in order.
func (s *Script) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

// Configs returns the configuration passed to each Connect call.
func (s *Script) Configs() []relay.ModelConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]relay.ModelConfig(nil), s.configs...)
}
