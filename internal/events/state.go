package events

// ConnectionState describes device-connection health as reported by the
// bridge worker.
type ConnectionState string

const (
	// StateConnecting means a connection attempt is in progress.
	StateConnecting ConnectionState = "connecting"

	// StateConnected means a live device session exists.
	StateConnected ConnectionState = "connected"

	// StateDisconnected means the session ended cleanly.
	StateDisconnected ConnectionState = "disconnected"

	// StateErrored means the session ended due to a fault.
	StateErrored ConnectionState = "errored"
)

// Terminal reports whether the state always ends the current device
// session when observed by the router.
func (s ConnectionState) Terminal() bool {
	return s == StateDisconnected || s == StateErrored
}

// StateDescription carries human-readable context for a state transition.
// Only ErrorDescription is interpreted anywhere; other variants are opaque
// payload forwarded verbatim to remote clients.
type StateDescription interface {
	stateDescription()
}

// NoDescription is the empty description.
type NoDescription struct{}

// ErrorDescription explains a fault transition.
type ErrorDescription struct {
	Message string `json:"message"`
}

// JobDescription reports print-job context alongside a state change.
type JobDescription struct {
	Filename string  `json:"filename"`
	Progress float64 `json:"progress"`
}

func (NoDescription) stateDescription()    {}
func (ErrorDescription) stateDescription() {}
func (JobDescription) stateDescription()   {}
