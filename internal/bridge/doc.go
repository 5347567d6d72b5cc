// Package bridge implements the device-bridge worker: the goroutine that
// owns the physical printer connection for the lifetime of a session.
//
// A Bridge is constructed from the distribution queue sender, the
// bridge-outbound command queue, and the device endpoint. It dials the
// device, reports connection health as StateUpdate events, relays device
// output as TerminalRead events, and consumes TerminalSend, PrintStart,
// PrintEnd, StateUpdate echoes, and Kill from the command queue.
//
// The router is the only code that creates or aborts a Bridge; the Kill
// event on the command queue is the primary termination signal, with a
// forced abort (context cancel plus connection close) as the backstop.
package bridge
