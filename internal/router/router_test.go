package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/printhive/printhive-core/internal/bus"
	"github.com/printhive/printhive-core/internal/events"
)

// fakeWorker records aborts in place of a real bridge session.
type fakeWorker struct {
	aborted int
}

func (w *fakeWorker) Abort() { w.aborted++ }

// harness wires a router to small queues and a recording spawn func.
type harness struct {
	router    *Router
	dist      *bus.Queue[events.Event]
	bridgeOut *bus.Queue[events.Event]
	wsOut     *bus.Queue[events.Event]
	spawned   []*fakeWorker
}

func newHarness(t *testing.T, policy ViolationPolicy) *harness {
	t.Helper()

	h := &harness{
		dist:      bus.New[events.Event](64, bus.Block),
		bridgeOut: bus.New[events.Event](64, bus.Block),
		wsOut:     bus.New[events.Event](64, bus.Block),
	}
	h.router = New(Options{
		Distribution: h.dist,
		BridgeOut:    h.bridgeOut,
		WebsocketOut: h.wsOut,
		Policy:       policy,
		Spawn: func(_ string, _ int) Worker {
			w := &fakeWorker{}
			h.spawned = append(h.spawned, w)
			return w
		},
	})
	return h
}

// connect dispatches a ConnectionCreate and returns the spawned worker.
func (h *harness) connect(t *testing.T) *fakeWorker {
	t.Helper()
	if err := h.router.Dispatch(events.ConnectionCreate{Address: "COM3", Port: 9600}); err != nil {
		t.Fatalf("Dispatch(ConnectionCreate) error = %v", err)
	}
	return h.spawned[len(h.spawned)-1]
}

func TestDispatch_ConnectionCreateSpawnsSession(t *testing.T) {
	h := newHarness(t, DropViolation)

	h.connect(t)

	if len(h.spawned) != 1 {
		t.Fatalf("spawned %d workers, want 1", len(h.spawned))
	}
	if !h.router.SessionActive() {
		t.Error("SessionActive() = false after ConnectionCreate")
	}
}

func TestDispatch_SecondCreateWhileLiveIsRejected(t *testing.T) {
	h := newHarness(t, DropViolation)
	h.connect(t)

	err := h.router.Dispatch(events.ConnectionCreate{Address: "COM4", Port: 115200})

	var violation *InvariantViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("Dispatch() error = %v, want InvariantViolationError", err)
	}
	if len(h.spawned) != 1 {
		t.Errorf("spawned %d workers, want 1 (second create rejected)", len(h.spawned))
	}
	if !h.router.SessionActive() {
		t.Error("existing session must survive a rejected create")
	}
}

func TestDispatch_TerminalStateTearsDownSession(t *testing.T) {
	for _, state := range []events.ConnectionState{events.StateDisconnected, events.StateErrored} {
		t.Run(string(state), func(t *testing.T) {
			h := newHarness(t, DropViolation)
			h.connect(t)

			desc := events.ErrorDescription{Message: "gone"}
			if err := h.router.Dispatch(events.StateUpdate{State: state, Description: desc}); err != nil {
				t.Fatalf("Dispatch(StateUpdate) error = %v", err)
			}

			// Exactly one Kill on bridge-outbound.
			got, ok := h.bridgeOut.TryReceive()
			if !ok {
				t.Fatal("no event on bridge-outbound, want Kill")
			}
			if _, isKill := got.(events.Kill); !isKill {
				t.Errorf("bridge-outbound event = %T, want Kill", got)
			}
			if _, extra := h.bridgeOut.TryReceive(); extra {
				t.Error("more than one event on bridge-outbound")
			}

			// Exactly one mirrored state update on websocket-outbound.
			wsEv, ok := h.wsOut.TryReceive()
			if !ok {
				t.Fatal("no event on websocket-outbound, want WebsocketStateUpdate")
			}
			mirror, isState := wsEv.(events.WebsocketStateUpdate)
			if !isState {
				t.Fatalf("websocket-outbound event = %T, want WebsocketStateUpdate", wsEv)
			}
			if mirror.State != state || mirror.Description != events.StateDescription(desc) {
				t.Errorf("mirror = %+v, want state %q with original description", mirror, state)
			}

			if h.router.SessionActive() {
				t.Error("session must be cleared after a terminal state update")
			}
		})
	}
}

func TestDispatch_NonTerminalStateIsEchoedAndMirrored(t *testing.T) {
	h := newHarness(t, DropViolation)
	h.connect(t)

	update := events.StateUpdate{State: events.StateConnected, Description: events.NoDescription{}}
	if err := h.router.Dispatch(update); err != nil {
		t.Fatalf("Dispatch(StateUpdate) error = %v", err)
	}

	got, ok := h.bridgeOut.TryReceive()
	if !ok {
		t.Fatal("no echo on bridge-outbound")
	}
	if echo, isUpdate := got.(events.StateUpdate); !isUpdate || echo != update {
		t.Errorf("bridge-outbound echo = %#v, want %#v", got, update)
	}

	if _, ok := h.wsOut.TryReceive(); !ok {
		t.Error("no mirror on websocket-outbound")
	}
	if !h.router.SessionActive() {
		t.Error("session must survive a non-terminal state update")
	}
}

func TestDispatch_StateUpdateWithoutSessionIsDropped(t *testing.T) {
	h := newHarness(t, DropViolation)

	err := h.router.Dispatch(events.StateUpdate{State: events.StateConnected, Description: events.NoDescription{}})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if _, ok := h.bridgeOut.TryReceive(); ok {
		t.Error("bridge-outbound should be empty")
	}
	if _, ok := h.wsOut.TryReceive(); ok {
		t.Error("websocket-outbound should be empty (mirror gated with the session)")
	}
}

func TestDispatch_TerminalReadEchoFidelity(t *testing.T) {
	h := newHarness(t, DropViolation)
	h.connect(t)

	if err := h.router.Dispatch(events.TerminalRead{Message: "ok"}); err != nil {
		t.Fatalf("Dispatch(TerminalRead) error = %v", err)
	}

	got, ok := h.wsOut.TryReceive()
	if !ok {
		t.Fatal("no event on websocket-outbound")
	}
	read, isRead := got.(events.WebsocketTerminalRead)
	if !isRead || read.Message != "ok" {
		t.Errorf("websocket-outbound event = %#v, want WebsocketTerminalRead{ok}", got)
	}
	if _, extra := h.wsOut.TryReceive(); extra {
		t.Error("TerminalRead must produce exactly one websocket event")
	}
	if _, ok := h.bridgeOut.TryReceive(); ok {
		t.Error("TerminalRead must not produce bridge-outbound traffic")
	}
}

func TestDispatch_TerminalSendGatingAndMirror(t *testing.T) {
	t.Run("no session drops entirely", func(t *testing.T) {
		h := newHarness(t, DropViolation)

		if err := h.router.Dispatch(events.TerminalSend{Message: "G28"}); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		if _, ok := h.bridgeOut.TryReceive(); ok {
			t.Error("bridge-outbound should be empty")
		}
		if _, ok := h.wsOut.TryReceive(); ok {
			t.Error("websocket-outbound should be empty")
		}
	})

	t.Run("live session forwards and mirrors", func(t *testing.T) {
		h := newHarness(t, DropViolation)
		h.connect(t)

		if err := h.router.Dispatch(events.TerminalSend{Message: "G28"}); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}

		fwd, ok := h.bridgeOut.TryReceive()
		if !ok {
			t.Fatal("no forward on bridge-outbound")
		}
		if send, isSend := fwd.(events.TerminalSend); !isSend || send.Message != "G28" {
			t.Errorf("bridge-outbound event = %#v, want TerminalSend{G28}", fwd)
		}

		mirror, ok := h.wsOut.TryReceive()
		if !ok {
			t.Fatal("no mirror on websocket-outbound")
		}
		if echo, isEcho := mirror.(events.WebsocketTerminalSend); !isEcho || echo.Message != "G28" {
			t.Errorf("websocket-outbound event = %#v, want WebsocketTerminalSend{G28}", mirror)
		}
	})
}

func TestDispatch_PrintGatingAsymmetry(t *testing.T) {
	h := newHarness(t, DropViolation)

	// PrintStart without a session is dropped.
	if err := h.router.Dispatch(events.PrintStart{Info: events.PrintInfo{Filename: "benchy.gcode"}}); err != nil {
		t.Fatalf("Dispatch(PrintStart) error = %v", err)
	}
	if _, ok := h.bridgeOut.TryReceive(); ok {
		t.Error("PrintStart without session must not reach bridge-outbound")
	}

	// PrintEnd is forwarded even without a session.
	if err := h.router.Dispatch(events.PrintEnd{}); err != nil {
		t.Fatalf("Dispatch(PrintEnd) error = %v", err)
	}
	got, ok := h.bridgeOut.TryReceive()
	if !ok {
		t.Fatal("PrintEnd must always reach bridge-outbound")
	}
	if _, isEnd := got.(events.PrintEnd); !isEnd {
		t.Errorf("bridge-outbound event = %T, want PrintEnd", got)
	}

	// With a session, PrintStart is forwarded.
	h.connect(t)
	if err := h.router.Dispatch(events.PrintStart{Info: events.PrintInfo{Filename: "benchy.gcode"}}); err != nil {
		t.Fatalf("Dispatch(PrintStart) error = %v", err)
	}
	if _, ok := h.bridgeOut.TryReceive(); !ok {
		t.Error("PrintStart with live session must reach bridge-outbound")
	}
}

func TestDispatch_ConnectionCreateErrorAbortsLiveSession(t *testing.T) {
	h := newHarness(t, DropViolation)
	worker := h.connect(t)

	if err := h.router.Dispatch(events.ConnectionCreateError{Error: "timeout"}); err != nil {
		t.Fatalf("Dispatch(ConnectionCreateError) error = %v", err)
	}

	if worker.aborted != 1 {
		t.Errorf("worker aborted %d times, want 1", worker.aborted)
	}
	if h.router.SessionActive() {
		t.Error("session must be cleared after ConnectionCreateError")
	}

	// The errored state re-enters via the distribution queue and reaches
	// remote clients on the next loop iteration.
	reentry, ok := h.dist.TryReceive()
	if !ok {
		t.Fatal("no re-entered event on distribution queue")
	}
	if err := h.router.Dispatch(reentry); err != nil {
		t.Fatalf("Dispatch(re-entry) error = %v", err)
	}
	got, ok := h.wsOut.TryReceive()
	if !ok {
		t.Fatal("no event on websocket-outbound after re-entry")
	}
	update, isUpdate := got.(events.WebsocketStateUpdate)
	if !isUpdate || update.State != events.StateErrored {
		t.Fatalf("websocket-outbound event = %#v, want errored WebsocketStateUpdate", got)
	}
	desc, isErr := update.Description.(events.ErrorDescription)
	if !isErr || desc.Message != "timeout" {
		t.Errorf("description = %#v, want ErrorDescription{timeout}", update.Description)
	}
}

func TestDispatch_ConnectionCreateErrorWithoutSessionIsViolation(t *testing.T) {
	h := newHarness(t, DropViolation)

	err := h.router.Dispatch(events.ConnectionCreateError{Error: "boom"})

	var violation *InvariantViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("Dispatch() error = %v, want InvariantViolationError", err)
	}

	// Clients are still notified before the violation is reported.
	if _, ok := h.dist.TryReceive(); !ok {
		t.Error("error notification must re-enter the distribution queue even on violation")
	}
}

func TestDispatch_WebsocketEventsPassThrough(t *testing.T) {
	h := newHarness(t, DropViolation)

	ev := events.WebsocketStateUpdate{State: events.StateConnecting, Description: events.NoDescription{}}
	if err := h.router.Dispatch(ev); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	got, ok := h.wsOut.TryReceive()
	if !ok {
		t.Fatal("no event on websocket-outbound")
	}
	if got != events.Event(ev) {
		t.Errorf("websocket-outbound event = %#v, want unchanged %#v", got, ev)
	}
}

func TestDispatch_InboundKillIsIgnored(t *testing.T) {
	h := newHarness(t, DropViolation)
	h.connect(t)

	if err := h.router.Dispatch(events.Kill{}); err != nil {
		t.Fatalf("Dispatch(Kill) error = %v", err)
	}
	if _, ok := h.bridgeOut.TryReceive(); ok {
		t.Error("inbound Kill must not be forwarded")
	}
	if !h.router.SessionActive() {
		t.Error("inbound Kill must not touch the session")
	}
}

func TestRun_TerminateOnViolationReturnsError(t *testing.T) {
	h := newHarness(t, TerminateOnViolation)

	h.dist.Send(events.ConnectionCreate{Address: "COM3", Port: 9600})   //nolint:errcheck // test setup
	h.dist.Send(events.ConnectionCreate{Address: "COM4", Port: 115200}) //nolint:errcheck // test setup

	errCh := make(chan error, 1)
	go func() { errCh <- h.router.Run(context.Background()) }()

	select {
	case err := <-errCh:
		var violation *InvariantViolationError
		if !errors.As(err, &violation) {
			t.Fatalf("Run() error = %v, want InvariantViolationError", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not terminate on violation")
	}

	// The live session is aborted on the way out.
	if h.spawned[0].aborted != 1 {
		t.Errorf("worker aborted %d times, want 1", h.spawned[0].aborted)
	}
}

func TestRun_DropPolicySurvivesViolation(t *testing.T) {
	h := newHarness(t, DropViolation)

	h.dist.Send(events.ConnectionCreate{Address: "COM3", Port: 9600})   //nolint:errcheck // test setup
	h.dist.Send(events.ConnectionCreate{Address: "COM4", Port: 115200}) //nolint:errcheck // test setup
	h.dist.Send(events.TerminalRead{Message: "still alive"})            //nolint:errcheck // test setup
	h.dist.Close()

	if err := h.router.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v, want nil under DropViolation", err)
	}

	// The event after the violation was still routed.
	got, ok := h.wsOut.TryReceive()
	if !ok {
		t.Fatal("router did not keep serving after a dropped violation")
	}
	if read, isRead := got.(events.WebsocketTerminalRead); !isRead || read.Message != "still alive" {
		t.Errorf("websocket-outbound event = %#v, want WebsocketTerminalRead{still alive}", got)
	}
}

func TestRun_ContextCancelStopsLoop(t *testing.T) {
	h := newHarness(t, DropViolation)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.router.Run(ctx) }()

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after context cancellation")
	}
}
