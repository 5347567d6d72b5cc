package api

import (
	"fmt"

	"github.com/printhive/printhive-core/internal/events"
)

// statePayload is the wire form of a state update broadcast.
type statePayload struct {
	State       events.ConnectionState `json:"state"`
	Description any                    `json:"description,omitempty"`
}

// terminalPayload is the wire form of a terminal broadcast.
type terminalPayload struct {
	Direction string `json:"direction"` // "read" (from device) or "send" (to device)
	Message   string `json:"message"`
}

// relayLoop drains the websocket-outbound queue and pushes every event
// to connected WebSocket clients, then to the integration sinks. It is
// the only consumer of the queue; it exits when the queue closes.
func (s *Server) relayLoop() {
	for {
		ev, ok := s.wsOut.Receive()
		if !ok {
			s.logger.Info("websocket-outbound queue closed, relay stopping")
			return
		}

		wsEv, ok := ev.(events.WebsocketEvent)
		if !ok {
			// The router only forwards websocket events here; anything
			// else indicates a miswired producer.
			s.logger.Warn("non-websocket event on outbound queue", "event", fmt.Sprintf("%T", ev))
			continue
		}

		s.broadcast(wsEv)
		for _, sink := range s.sinks {
			sink.Publish(wsEv)
		}
	}
}

// broadcast maps an outward-facing event to its hub channel and payload.
func (s *Server) broadcast(ev events.WebsocketEvent) {
	switch e := ev.(type) {
	case events.WebsocketStateUpdate:
		s.hub.Broadcast(ChannelState, statePayload{
			State:       e.State,
			Description: describePayload(e.Description),
		})

	case events.WebsocketTerminalRead:
		s.hub.Broadcast(ChannelTerminal, terminalPayload{Direction: "read", Message: e.Message})

	case events.WebsocketTerminalSend:
		s.hub.Broadcast(ChannelTerminal, terminalPayload{Direction: "send", Message: e.Message})

	default:
		s.logger.Warn("unhandled websocket event", "event", fmt.Sprintf("%T", ev))
	}
}

// describePayload converts a state description to its JSON form.
// NoDescription serialises to nothing at all.
func describePayload(desc events.StateDescription) any {
	switch d := desc.(type) {
	case events.ErrorDescription:
		return map[string]string{"kind": "error", "message": d.Message}
	case events.JobDescription:
		return map[string]any{"kind": "job", "filename": d.Filename, "progress": d.Progress}
	default:
		return nil
	}
}
