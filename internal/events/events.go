package events

// Event is implemented by every value that can travel on a queue.
// The set of implementations is closed: bridge events, websocket events,
// and the Kill sentinel.
type Event interface {
	event()
}

// BridgeEvent is an event that originates from, or is destined for, the
// device-bridge worker.
type BridgeEvent interface {
	Event
	bridgeEvent()
}

// WebsocketEvent is an event destined for, or originating from, remote
// API clients.
type WebsocketEvent interface {
	Event
	websocketEvent()
}

// Kill instructs the addressed worker to terminate its session now.
// It is only meaningful on an outbound queue; the router ignores it.
type Kill struct{}

func (Kill) event() {}

// ConnectionCreate requests a new device connection.
type ConnectionCreate struct {
	Address string
	Port    int
}

// ConnectionCreateError reports that a connection attempt failed before a
// live session existed.
type ConnectionCreateError struct {
	Error string
}

// TerminalRead carries raw data received from the device.
type TerminalRead struct {
	Message string
}

// TerminalSend carries raw data to be written to the device.
type TerminalSend struct {
	Message string
}

// PrintStart marks the beginning of a print job. The job info is opaque
// to the router and forwarded verbatim.
type PrintStart struct {
	Info PrintInfo
}

// PrintEnd marks the end of a print job.
type PrintEnd struct{}

// StateUpdate is the bridge worker's authoritative report of connection
// health.
type StateUpdate struct {
	State       ConnectionState
	Description StateDescription
}

func (ConnectionCreate) event()      {}
func (ConnectionCreateError) event() {}
func (TerminalRead) event()          {}
func (TerminalSend) event()          {}
func (PrintStart) event()            {}
func (PrintEnd) event()              {}
func (StateUpdate) event()           {}

func (ConnectionCreate) bridgeEvent()      {}
func (ConnectionCreateError) bridgeEvent() {}
func (TerminalRead) bridgeEvent()          {}
func (TerminalSend) bridgeEvent()          {}
func (PrintStart) bridgeEvent()            {}
func (PrintEnd) bridgeEvent()              {}
func (StateUpdate) bridgeEvent()           {}

// WebsocketStateUpdate mirrors a connection-health change to remote clients.
type WebsocketStateUpdate struct {
	State       ConnectionState
	Description StateDescription
}

// WebsocketTerminalRead mirrors device output to remote clients.
type WebsocketTerminalRead struct {
	Message string
}

// WebsocketTerminalSend echoes an accepted terminal command back to remote
// clients so the sender's own UI reflects it.
type WebsocketTerminalSend struct {
	Message string
}

func (WebsocketStateUpdate) event()  {}
func (WebsocketTerminalRead) event() {}
func (WebsocketTerminalSend) event() {}

func (WebsocketStateUpdate) websocketEvent()  {}
func (WebsocketTerminalRead) websocketEvent() {}
func (WebsocketTerminalSend) websocketEvent() {}

// PrintInfo describes a print job. The router never inspects it.
type PrintInfo struct {
	Filename  string `json:"filename"`
	FileSize  int64  `json:"file_size"`
	LineCount int64  `json:"line_count"`
}
