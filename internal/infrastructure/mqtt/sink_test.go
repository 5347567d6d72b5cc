package mqtt

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/printhive/printhive-core/internal/bus"
	"github.com/printhive/printhive-core/internal/events"
	"github.com/printhive/printhive-core/internal/infrastructure/logging"
)

// fakeBroker records publishes and subscriptions in memory.
type fakeBroker struct {
	published []publishedMessage
	handlers  map[string]MessageHandler
}

type publishedMessage struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string]MessageHandler)}
}

func (f *fakeBroker) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.published = append(f.published, publishedMessage{topic, payload, qos, retained})
	return nil
}

func (f *fakeBroker) Subscribe(topic string, _ byte, handler MessageHandler) error {
	f.handlers[topic] = handler
	return nil
}

// deliver simulates an inbound broker message.
func (f *fakeBroker) deliver(t *testing.T, topic string, payload []byte) error {
	t.Helper()
	handler, ok := f.handlers[topic]
	if !ok {
		t.Fatalf("no subscription for %s", topic)
	}
	return handler(topic, payload)
}

func TestSinkPublishStateRetained(t *testing.T) {
	broker := newFakeBroker()
	sink := NewSink(broker, 1, logging.Default())

	sink.Publish(events.WebsocketStateUpdate{
		State:       events.StateConnected,
		Description: events.NoDescription{},
	})

	if len(broker.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(broker.published))
	}
	msg := broker.published[0]
	if msg.topic != "printhive/state" {
		t.Errorf("topic = %s, want printhive/state", msg.topic)
	}
	if !msg.retained {
		t.Error("state publication should be retained")
	}

	var payload statePayload
	if err := json.Unmarshal(msg.payload, &payload); err != nil {
		t.Fatalf("unmarshalling payload: %v", err)
	}
	if payload.State != "connected" {
		t.Errorf("state = %q, want connected", payload.State)
	}
	if payload.Description != nil {
		t.Errorf("description = %v, want omitted", payload.Description)
	}
}

func TestSinkPublishTerminal(t *testing.T) {
	broker := newFakeBroker()
	sink := NewSink(broker, 1, logging.Default())

	sink.Publish(events.WebsocketTerminalRead{Message: "ok T:210.0"})
	sink.Publish(events.WebsocketTerminalSend{Message: "M105"})

	if len(broker.published) != 2 {
		t.Fatalf("published %d messages, want 2", len(broker.published))
	}
	if broker.published[0].topic != "printhive/terminal/read" {
		t.Errorf("read topic = %s", broker.published[0].topic)
	}
	if broker.published[1].topic != "printhive/terminal/send" {
		t.Errorf("send topic = %s", broker.published[1].topic)
	}
	if broker.published[0].retained || broker.published[1].retained {
		t.Error("terminal traffic should not be retained")
	}
}

func TestSinkPublishErrorDescription(t *testing.T) {
	broker := newFakeBroker()
	sink := NewSink(broker, 1, logging.Default())

	sink.Publish(events.WebsocketStateUpdate{
		State:       events.StateErrored,
		Description: events.ErrorDescription{Message: "thermal runaway"},
	})

	var payload statePayload
	if err := json.Unmarshal(broker.published[0].payload, &payload); err != nil {
		t.Fatalf("unmarshalling payload: %v", err)
	}
	desc, ok := payload.Description.(map[string]any)
	if !ok {
		t.Fatalf("description = %T, want object", payload.Description)
	}
	if desc["kind"] != "error" || desc["message"] != "thermal runaway" {
		t.Errorf("description = %v", desc)
	}
}

func TestSubscribeCommands(t *testing.T) {
	broker := newFakeBroker()
	sink := NewSink(broker, 1, logging.Default())
	dist := bus.New[events.Event](8, bus.Reject)
	defer dist.Close()

	if err := sink.SubscribeCommands(dist); err != nil {
		t.Fatalf("SubscribeCommands() error = %v", err)
	}

	if err := broker.deliver(t, "printhive/command/terminal", []byte("  G28\n")); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	ev, ok := dist.TryReceive()
	if !ok {
		t.Fatal("no event on distribution queue")
	}
	send, ok := ev.(events.TerminalSend)
	if !ok {
		t.Fatalf("event = %T, want TerminalSend", ev)
	}
	if send.Message != "G28" {
		t.Errorf("message = %q, want G28 (trimmed)", send.Message)
	}

	// Blank payloads are dropped without error
	if err := broker.deliver(t, "printhive/command/terminal", []byte("   ")); err != nil {
		t.Fatalf("blank payload error = %v", err)
	}
	if _, ok := dist.TryReceive(); ok {
		t.Error("blank payload should not enqueue an event")
	}

	// Queue closed surfaces as a handler error
	dist.Close()
	err := broker.deliver(t, "printhive/command/terminal", []byte("G29"))
	if !errors.Is(err, bus.ErrClosed) {
		t.Errorf("error = %v, want bus.ErrClosed", err)
	}
}

func TestClientValidation(t *testing.T) {
	c := &Client{}

	if err := c.Publish("", nil, 0, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("printhive/state", nil, 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("qos 3 error = %v, want ErrInvalidQoS", err)
	}
	if err := c.Publish("printhive/state", nil, 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected error = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("topic", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v, want ErrSubscribeFailed", err)
	}
}

func TestTopics(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		got, want string
	}{
		{topics.State(), "printhive/state"},
		{topics.TerminalRead(), "printhive/terminal/read"},
		{topics.TerminalSend(), "printhive/terminal/send"},
		{topics.CommandTerminal(), "printhive/command/terminal"},
		{topics.SystemStatus(), "printhive/system/status"},
		{topics.AllTerminal(), "printhive/terminal/+"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic = %s, want %s", tt.got, tt.want)
		}
	}
}
