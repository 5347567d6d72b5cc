package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/printhive/printhive-core/internal/bus"
	"github.com/printhive/printhive-core/internal/events"
	"github.com/printhive/printhive-core/internal/infrastructure/logging"
)

// broker is the subset of Client the sink needs. Narrowed for testing.
type broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler MessageHandler) error
}

// Sink mirrors outward-facing printer events onto the MQTT topic
// hierarchy. It plugs into the API server's relay loop, which calls
// Publish for every event drained from the websocket-outbound queue.
//
// Thread Safety: Publish may be called from a single goroutine (the
// relay loop); the underlying client handles its own synchronisation.
type Sink struct {
	broker broker
	qos    byte
	logger *logging.Logger
}

// NewSink creates an MQTT sink publishing at the given QoS level.
func NewSink(b broker, qos byte, logger *logging.Logger) *Sink {
	return &Sink{broker: b, qos: qos, logger: logger}
}

// statePayload is the wire form of a state publication.
type statePayload struct {
	State       string `json:"state"`
	Description any    `json:"description,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// terminalPayload is the wire form of a terminal line publication.
type terminalPayload struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Publish maps an event to its topic and publishes it. State updates
// are retained so late subscribers see the current connection state;
// terminal traffic is fire-and-forget.
func (s *Sink) Publish(ev events.WebsocketEvent) {
	topics := Topics{}

	switch e := ev.(type) {
	case events.WebsocketStateUpdate:
		s.publishJSON(topics.State(), statePayload{
			State:       string(e.State),
			Description: describeState(e.Description),
			Timestamp:   timestamp(),
		}, true)

	case events.WebsocketTerminalRead:
		s.publishJSON(topics.TerminalRead(), terminalPayload{Message: e.Message, Timestamp: timestamp()}, false)

	case events.WebsocketTerminalSend:
		s.publishJSON(topics.TerminalSend(), terminalPayload{Message: e.Message, Timestamp: timestamp()}, false)

	default:
		s.logger.Warn("unhandled event for mqtt sink", "event", fmt.Sprintf("%T", ev))
	}
}

// SubscribeCommands wires the remote command topic into the event
// pipeline. Each message on printhive/command/terminal becomes a
// terminal send on the distribution queue, subject to the same session
// gating as commands from the REST API.
func (s *Sink) SubscribeCommands(dist *bus.Queue[events.Event]) error {
	return s.broker.Subscribe(Topics{}.CommandTerminal(), s.qos, func(_ string, payload []byte) error {
		message := strings.TrimSpace(string(payload))
		if message == "" {
			return nil
		}
		if err := dist.Send(events.TerminalSend{Message: message}); err != nil {
			return fmt.Errorf("enqueueing remote terminal command: %w", err)
		}
		return nil
	})
}

func (s *Sink) publishJSON(topic string, payload any, retained bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal mqtt payload", "topic", topic, "error", err)
		return
	}
	if err := s.broker.Publish(topic, data, s.qos, retained); err != nil {
		s.logger.Warn("mqtt publish failed", "topic", topic, "error", err)
	}
}

// describeState converts a state description to its JSON form.
func describeState(desc events.StateDescription) any {
	switch d := desc.(type) {
	case events.ErrorDescription:
		return map[string]string{"kind": "error", "message": d.Message}
	case events.JobDescription:
		return map[string]any{"kind": "job", "filename": d.Filename, "progress": d.Progress}
	default:
		return nil
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
