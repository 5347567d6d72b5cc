package mqtt

import "fmt"

// Topic prefixes for the PrintHive MQTT hierarchy.
//
// Outward topics are published by Core; command topics are consumed by it.
const (
	// TopicPrefix is the base for all PrintHive topics.
	TopicPrefix = "printhive"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "printhive/system"
)

// Topics provides builders for PrintHive MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topics.State() // "printhive/state"
type Topics struct{}

// State returns the topic for connection state updates.
// Published retained so new subscribers see the current state.
func (Topics) State() string {
	return fmt.Sprintf("%s/state", TopicPrefix)
}

// TerminalRead returns the topic for lines received from the printer.
func (Topics) TerminalRead() string {
	return fmt.Sprintf("%s/terminal/read", TopicPrefix)
}

// TerminalSend returns the topic for lines sent to the printer.
func (Topics) TerminalSend() string {
	return fmt.Sprintf("%s/terminal/send", TopicPrefix)
}

// CommandTerminal returns the topic Core listens on for remote g-code.
// Payloads are raw command strings, one message per command.
func (Topics) CommandTerminal() string {
	return fmt.Sprintf("%s/command/terminal", TopicPrefix)
}

// SystemStatus returns the online/offline status topic. The LWT is
// registered against this topic.
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllTerminal returns a pattern matching both terminal directions.
//
// Pattern: printhive/terminal/+
func (Topics) AllTerminal() string {
	return fmt.Sprintf("%s/terminal/+", TopicPrefix)
}
