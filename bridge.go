package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Result is the outcome of one Deliver call. On failure Text holds the
// error's description, so callers that only read Text see a valid string
// either way.
type Result struct {
	Text string
	Err  error
}

// Failed reports whether the delivery ended in an error.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Deliverer turns one message into one assembled reply.
type Deliverer interface {
	Deliver(ctx context.Context, message string) Result
}

// Report summarizes a finished delivery for an [Observer].
type Report struct {
	Model     string
	Fragments int
	Elapsed   time.Duration
	Err       error
}

// Observer receives one Report per Deliver call.
type Observer interface {
	Observe(Report)
}

// Interface compliance check.
var _ Deliverer = (*Bridge)(nil)

// Bridge sends one turn per call over a fresh remote session and assembles
// the streamed reply.
type Bridge struct {
	connector Connector
	config    ModelConfig
	persona   string
	timeout   time.Duration
	observer  Observer
}

// BridgeOption configures a [Bridge].
type BridgeOption func(*Bridge)

// WithPersona sets a prefix prepended to every outbound message.
func WithPersona(prefix string) BridgeOption {
	return func(b *Bridge) { b.persona = prefix }
}

// WithTimeout bounds each Deliver call. Zero disables the bound.
func WithTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) { b.timeout = d }
}

// WithObserver sets an observer notified after every delivery.
func WithObserver(o Observer) BridgeOption {
	return func(b *Bridge) { b.observer = o }
}

// NewBridge creates a Bridge that opens sessions through connector using a
// private copy of cfg.
func NewBridge(connector Connector, cfg ModelConfig, opts ...BridgeOption) *Bridge {
	b := &Bridge{connector: connector, config: cfg.Clone()}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Deliver sends message as a single complete turn and returns the
// concatenated fragments. Errors from connecting, sending or receiving are
// folded into the Result; the session is closed on every path. The caller
// is expected to reject empty messages before calling.
func (b *Bridge) Deliver(ctx context.Context, message string) Result {
	start := time.Now()
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	text, fragments, err := b.exchange(ctx, b.persona+message)

	if b.observer != nil {
		b.observer.Observe(Report{
			Model:     b.config.Model,
			Fragments: fragments,
			Elapsed:   time.Since(start),
			Err:       err,
		})
	}
	if err != nil {
		return Result{Text: err.Error(), Err: err}
	}
	return Result{Text: text}
}

func (b *Bridge) exchange(ctx context.Context, text string) (reply string, fragments int, err error) {
	// Each session gets its own copy so a connector cannot alter the
	// configuration seen by concurrent deliveries.
	session, err := b.connector.Connect(ctx, b.config.Clone())
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil && err == nil {
			reply, err = "", fmt.Errorf("close session: %w", cerr)
		}
	}()

	if err := session.Send(ctx, text, true); err != nil {
		return "", 0, err
	}

	var sb strings.Builder
	for {
		evt, err := session.Receive(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fragments, err
		}
		if !evt.HasText {
			continue
		}
		sb.WriteString(evt.Text)
		fragments++
	}
	return sb.String(), fragments, nil
}
