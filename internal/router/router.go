package router

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/printhive/printhive-core/internal/bus"
	"github.com/printhive/printhive-core/internal/events"
)

// Worker is a running device-bridge session owned by the router.
// Abort forcibly terminates the worker; it must be safe to call more
// than once.
type Worker interface {
	Abort()
}

// SpawnFunc creates and starts a device-bridge worker bound to the given
// device endpoint. The worker consumes the bridge-outbound queue and
// publishes into the distribution queue.
type SpawnFunc func(address string, port int) Worker

// ViolationPolicy decides what the run loop does with an invariant
// violation.
type ViolationPolicy int

const (
	// DropViolation logs the offending event and keeps the router alive.
	DropViolation ViolationPolicy = iota

	// TerminateOnViolation stops the run loop, returning the violation.
	// This matches the behaviour of hosts that prefer a restart over
	// continuing with a possibly corrupted session belief.
	TerminateOnViolation
)

// InvariantViolationError reports a contradiction between an observed
// event and the router's session-state belief.
type InvariantViolationError struct {
	// Event is the offending event.
	Event events.Event

	// Reason describes the contradiction.
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation: %s (event %T)", e.Reason, e.Event)
}

// Logger is the logging interface used by the router.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Router.
type Options struct {
	// Distribution is the queue the router drains. The router also
	// publishes into it when an event must re-enter classification.
	Distribution *bus.Queue[events.Event]

	// BridgeOut carries commands and echoes to the device-bridge worker.
	BridgeOut *bus.Queue[events.Event]

	// WebsocketOut carries outward-facing events to the API worker.
	WebsocketOut *bus.Queue[events.Event]

	// Spawn creates a device-bridge worker for a ConnectionCreate event.
	Spawn SpawnFunc

	// Policy selects the invariant-violation behaviour. Zero value drops.
	Policy ViolationPolicy

	// Logger is optional; a no-op logger is used when nil.
	Logger Logger
}

// Router is the single arbiter of "is a device connected". It owns the
// session handle for the device-bridge worker; no other code reads or
// writes it.
type Router struct {
	dist   *bus.Queue[events.Event]
	bridge *bus.Queue[events.Event]
	ws     *bus.Queue[events.Event]
	spawn  SpawnFunc
	policy ViolationPolicy
	logger Logger

	// session is non-nil iff a bridge worker is believed to be running.
	// Confined to the Run loop (and Dispatch callers in tests).
	session Worker

	// live mirrors session != nil for observers on other goroutines.
	live atomic.Bool
}

// New creates a Router. It does not start draining until Run is called.
func New(opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Router{
		dist:   opts.Distribution,
		bridge: opts.BridgeOut,
		ws:     opts.WebsocketOut,
		spawn:  opts.Spawn,
		policy: opts.Policy,
		logger: logger,
	}
}

// SessionActive reports whether a device session is currently believed
// live. Safe to call from any goroutine; the router loop remains the
// authoritative owner of the session handle.
func (r *Router) SessionActive() bool {
	return r.live.Load()
}

// Run drains the distribution queue until it is closed or, under
// TerminateOnViolation, until an invariant violation occurs. Cancelling
// the context closes the distribution queue, which ends the loop once
// pending events are processed.
func (r *Router) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, r.dist.Close)
	defer stop()

	for {
		ev, ok := r.dist.Receive()
		if !ok {
			r.logger.Info("distribution queue closed, router stopping")
			r.teardown()
			return nil
		}

		if err := r.Dispatch(ev); err != nil {
			var violation *InvariantViolationError
			if errors.As(err, &violation) && r.policy == TerminateOnViolation {
				r.teardown()
				return err
			}
			r.logger.Error("event dropped", "error", err, "event", fmt.Sprintf("%T", ev))
		}
	}
}

// Dispatch routes a single dequeued event. It performs exactly one of:
// forward (transformed) to one or both outbound queues, spawn or tear
// down the bridge worker, or drop. The returned error is an
// *InvariantViolationError when the event contradicts the session belief.
//
// Dispatch is not safe for concurrent use; it is called only from the
// Run loop (and directly from tests).
func (r *Router) Dispatch(ev events.Event) error {
	switch e := ev.(type) {
	case events.ConnectionCreate:
		return r.handleConnectionCreate(e)

	case events.ConnectionCreateError:
		return r.handleConnectionCreateError(e)

	case events.TerminalRead:
		r.sendWebsocket(events.WebsocketTerminalRead{Message: e.Message})
		return nil

	case events.TerminalSend:
		if r.session == nil {
			r.logger.Debug("terminal send dropped, no device session")
			return nil
		}
		r.sendBridge(e)
		r.sendWebsocket(events.WebsocketTerminalSend{Message: e.Message})
		return nil

	case events.PrintStart:
		if r.session == nil {
			r.logger.Debug("print start dropped, no device session")
			return nil
		}
		r.sendBridge(e)
		return nil

	case events.PrintEnd:
		// Always forwarded: a clean end-of-print signal is allowed even
		// during teardown races.
		r.sendBridge(e)
		return nil

	case events.StateUpdate:
		return r.handleStateUpdate(e)

	case events.WebsocketEvent:
		r.sendWebsocket(e)
		return nil

	case events.Kill:
		// Only meaningful as an outbound signal to a worker.
		return nil

	default:
		r.logger.Warn("unroutable event", "event", fmt.Sprintf("%T", ev))
		return nil
	}
}

// handleConnectionCreate spawns a new bridge session. A second create
// while one is live contradicts the mutual-exclusion invariant and is
// rejected without touching the existing session.
func (r *Router) handleConnectionCreate(e events.ConnectionCreate) error {
	if r.session != nil {
		return &InvariantViolationError{
			Event:  e,
			Reason: "connection created before the old connection was terminated",
		}
	}

	r.logger.Info("creating bridge session", "address", e.Address, "port", e.Port)
	r.setSession(r.spawn(e.Address, e.Port))
	return nil
}

// handleConnectionCreateError surfaces a failed connection attempt to
// remote clients and force-aborts the session it belongs to. The errored
// state re-enters through the distribution queue so it follows the same
// outward route as every other websocket event.
//
// A connection error with no session to blame is reported as a violation
// after the client notification is sent: clients still learn of the
// fault even when the belief state is contradicted.
func (r *Router) handleConnectionCreateError(e events.ConnectionCreateError) error {
	r.logger.Warn("connection attempt failed", "error", e.Error)

	r.sendDistribution(events.WebsocketStateUpdate{
		State:       events.StateErrored,
		Description: events.ErrorDescription{Message: e.Error},
	})

	if r.session == nil {
		return &InvariantViolationError{
			Event:  e,
			Reason: "connection error received with no session to blame",
		}
	}

	r.session.Abort()
	r.setSession(nil)
	return nil
}

// handleStateUpdate applies the bridge worker's health report. Terminal
// states tear the session down (Kill to the worker, handle cleared);
// non-terminal states are echoed back to the worker for its own
// bookkeeping. Both branches mirror the update to remote clients.
func (r *Router) handleStateUpdate(e events.StateUpdate) error {
	if r.session == nil {
		r.logger.Debug("state update dropped, no device session", "state", e.State)
		return nil
	}

	if e.State.Terminal() {
		r.logger.Info("device session ended", "state", e.State)
		r.sendBridge(events.Kill{})
		r.setSession(nil)
	} else {
		r.sendBridge(e)
	}

	r.sendWebsocket(events.WebsocketStateUpdate{
		State:       e.State,
		Description: e.Description,
	})
	return nil
}

// setSession updates the session handle and its observer mirror.
func (r *Router) setSession(w Worker) {
	r.session = w
	r.live.Store(w != nil)
}

// teardown aborts a live session when the loop exits.
func (r *Router) teardown() {
	if r.session != nil {
		r.session.Abort()
		r.setSession(nil)
	}
}

// sendBridge forwards an event to the bridge-outbound queue. A closed
// queue means the worker side is gone; the router resynchronises by
// dropping the session belief instead of aborting the process.
func (r *Router) sendBridge(ev events.Event) {
	if err := r.bridge.Send(ev); err != nil {
		r.logger.Error("bridge-outbound send failed", "error", err)
		if errors.Is(err, bus.ErrClosed) && r.session != nil {
			r.session.Abort()
			r.setSession(nil)
		}
	}
}

// sendWebsocket forwards an event to the websocket-outbound queue.
func (r *Router) sendWebsocket(ev events.WebsocketEvent) {
	if err := r.ws.Send(ev); err != nil {
		r.logger.Error("websocket-outbound send failed", "error", err)
	}
}

// sendDistribution re-enters an event into the distribution queue.
func (r *Router) sendDistribution(ev events.Event) {
	if err := r.dist.Send(ev); err != nil {
		r.logger.Error("distribution send failed", "error", err)
	}
}
