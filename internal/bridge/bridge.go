package bridge

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/printhive/printhive-core/internal/bus"
	"github.com/printhive/printhive-core/internal/events"
	"github.com/printhive/printhive-core/internal/router"
)

// Connection constants.
const (
	// dialTimeout is the timeout for the initial device connection.
	dialTimeout = 10 * time.Second

	// writeTimeout is the per-command write deadline.
	writeTimeout = 5 * time.Second

	// maxLineBytes bounds a single device output line.
	maxLineBytes = 64 * 1024
)

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Bridge owns exactly one device connection for its lifetime.
type Bridge struct {
	dist     *bus.Queue[events.Event]
	commands *bus.Queue[events.Event]
	address  string
	port     int
	logger   Logger

	conn   net.Conn
	connMu sync.Mutex

	// killed is set once termination is underway, suppressing the
	// reader's Disconnected report on the resulting read error.
	killed atomic.Bool

	// lastState is the most recent state echoed back by the router.
	lastState   events.ConnectionState
	lastStateMu sync.Mutex

	// job is the active print job, if any.
	job   *events.PrintInfo
	jobMu sync.Mutex
}

// New creates a Bridge bound to a device endpoint. Run starts the session.
func New(dist, commands *bus.Queue[events.Event], address string, port int, logger Logger) *Bridge {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Bridge{
		dist:     dist,
		commands: commands,
		address:  address,
		port:     port,
		logger:   logger,
	}
}

// Run dials the device and services the session until the connection
// drops, a Kill arrives, or the context is cancelled. It blocks; the
// caller runs it on a dedicated goroutine.
//
// A failed dial is reported as ConnectionCreateError and Run returns
// without consuming the command queue, so a later session sees every
// command intended for it.
func (b *Bridge) Run(ctx context.Context) {
	endpoint := net.JoinHostPort(b.address, strconv.Itoa(b.port))

	b.sendState(events.StateConnecting, events.NoDescription{})

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		b.logger.Warn("device dial failed", "endpoint", endpoint, "error", err)
		b.send(events.ConnectionCreateError{Error: err.Error()})
		return
	}

	b.connMu.Lock()
	b.conn = conn
	b.connMu.Unlock()

	// Forced abort closes the connection, which unblocks the reader.
	stop := context.AfterFunc(ctx, b.terminate)
	defer stop()

	b.logger.Info("device connected", "endpoint", endpoint)
	b.sendState(events.StateConnected, events.NoDescription{})

	go b.readLoop(conn)
	b.commandLoop(ctx, conn)
}

// readLoop relays device output lines into the distribution queue until
// the connection drops. Fatal firmware errors end the session with an
// Errored report; anything else that ends the stream reports
// Disconnected, unless termination was already underway.
func (b *Bridge) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Text()
		b.logger.Debug("device output", "line", line)
		b.send(events.TerminalRead{Message: line})

		if IsFatalError(line) {
			b.sendState(events.StateErrored, events.ErrorDescription{Message: line})
			return
		}
	}

	if b.killed.Load() {
		return
	}

	if err := scanner.Err(); err != nil {
		b.sendState(events.StateErrored, events.ErrorDescription{Message: err.Error()})
		return
	}
	b.sendState(events.StateDisconnected, events.NoDescription{})
}

// commandLoop consumes the bridge-outbound queue until a Kill arrives,
// the queue closes, or the context is cancelled.
func (b *Bridge) commandLoop(ctx context.Context, conn net.Conn) {
	for {
		ev, ok := b.commands.Receive()
		if !ok {
			b.logger.Info("command queue closed, ending session")
			b.terminate()
			return
		}
		if ctx.Err() != nil {
			return
		}

		switch e := ev.(type) {
		case events.Kill:
			b.logger.Info("kill received, ending session")
			b.terminate()
			return

		case events.TerminalSend:
			if err := b.write(conn, e.Message); err != nil {
				b.logger.Error("device write failed", "error", err)
			}

		case events.PrintStart:
			b.jobMu.Lock()
			info := e.Info
			b.job = &info
			b.jobMu.Unlock()
			b.logger.Info("print started", "filename", e.Info.Filename)

		case events.PrintEnd:
			b.jobMu.Lock()
			b.job = nil
			b.jobMu.Unlock()
			b.logger.Info("print ended")

		case events.StateUpdate:
			// Router echo of our own report; record for bookkeeping.
			b.lastStateMu.Lock()
			b.lastState = e.State
			b.lastStateMu.Unlock()

		default:
			b.logger.Debug("unexpected command", "event", fmt.Sprintf("%T", ev))
		}
	}
}

// write sends one line to the device.
func (b *Bridge) write(conn net.Conn, message string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	if _, err := conn.Write([]byte(message + "\n")); err != nil {
		return fmt.Errorf("writing %q: %w", message, err)
	}
	return nil
}

// terminate marks the session as ending and closes the connection.
// Safe to call more than once.
func (b *Bridge) terminate() {
	b.killed.Store(true)

	b.connMu.Lock()
	conn := b.conn
	b.conn = nil
	b.connMu.Unlock()

	if conn != nil {
		conn.Close() //nolint:errcheck // best effort on teardown
	}
}

// LastState returns the most recent state echoed back by the router.
func (b *Bridge) LastState() events.ConnectionState {
	b.lastStateMu.Lock()
	defer b.lastStateMu.Unlock()
	return b.lastState
}

// CurrentJob returns the active print job, or nil.
func (b *Bridge) CurrentJob() *events.PrintInfo {
	b.jobMu.Lock()
	defer b.jobMu.Unlock()
	if b.job == nil {
		return nil
	}
	info := *b.job
	return &info
}

// send publishes an event into the distribution queue.
func (b *Bridge) send(ev events.Event) {
	if err := b.dist.Send(ev); err != nil {
		b.logger.Error("distribution send failed", "error", err)
	}
}

// sendState publishes a StateUpdate into the distribution queue.
func (b *Bridge) sendState(state events.ConnectionState, desc events.StateDescription) {
	b.send(events.StateUpdate{State: state, Description: desc})
}

// Spawner creates router workers backed by real device connections.
type Spawner struct {
	dist     *bus.Queue[events.Event]
	commands *bus.Queue[events.Event]
	logger   Logger
}

// NewSpawner wires a Spawner to the distribution and bridge-outbound
// queues.
func NewSpawner(dist, commands *bus.Queue[events.Event], logger Logger) *Spawner {
	return &Spawner{dist: dist, commands: commands, logger: logger}
}

// Spawn starts a Bridge session on its own goroutine and returns the
// router's handle to it.
func (s *Spawner) Spawn(address string, port int) router.Worker {
	ctx, cancel := context.WithCancel(context.Background())
	b := New(s.dist, s.commands, address, port, s.logger)

	go b.Run(ctx)

	return &handle{bridge: b, cancel: cancel}
}

// handle is the router-facing abort handle for a running session.
type handle struct {
	bridge *Bridge
	cancel context.CancelFunc
}

// Abort forcibly terminates the session.
func (h *handle) Abort() {
	h.cancel()
	h.bridge.terminate()
}
