// Package mock provides test doubles for relay interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/relay"
)

// Interface compliance checks.
var (
	_ relay.Connector = (*Connector)(nil)
	_ relay.Session   = (*Session)(nil)
	_ relay.Deliverer = (*Deliverer)(nil)
	_ relay.Observer  = (*Observer)(nil)
)

// Connector is a test double for relay.Connector.
// Set ConnectFn before calling Connect.
type Connector struct {
	ConnectFn func(ctx context.Context, cfg relay.ModelConfig) (relay.Session, error)
}

// Connect delegates to ConnectFn.
func (c *Connector) Connect(ctx context.Context, cfg relay.ModelConfig) (relay.Session, error) {
	return c.ConnectFn(ctx, cfg)
}

// Session is a test double for relay.Session.
// SendFn and ReceiveFn panic when nil to catch missing setup. CloseFn is
// nil-safe because the bridge always closes the session.
type Session struct {
	SendFn    func(ctx context.Context, text string, endOfTurn bool) error
	ReceiveFn func(ctx context.Context) (relay.Event, error)
	CloseFn   func() error
}

// Send delegates to SendFn.
func (s *Session) Send(ctx context.Context, text string, endOfTurn bool) error {
	return s.SendFn(ctx, text, endOfTurn)
}

// Receive delegates to ReceiveFn.
func (s *Session) Receive(ctx context.Context) (relay.Event, error) {
	return s.ReceiveFn(ctx)
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Session) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Deliverer is a test double for relay.Deliverer.
type Deliverer struct {
	DeliverFn func(ctx context.Context, message string) relay.Result
}

// Deliver delegates to DeliverFn.
func (d *Deliverer) Deliver(ctx context.Context, message string) relay.Result {
	return d.DeliverFn(ctx, message)
}

// Observer is a test double for relay.Observer. ObserveFn may be nil.
type Observer struct {
	ObserveFn func(relay.Report)
}

// Observe delegates to ObserveFn.
func (o *Observer) Observe(r relay.Report) {
	if o.ObserveFn != nil {
		o.ObserveFn(r)
	}
}
