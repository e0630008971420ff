package protocol

// ProtocolVersion is bumped whenever the wire format changes incompatibly.
const ProtocolVersion = 1

// WebSocket event names pushed from server to client.
const (
	// EventReceiveSignal carries an enriched signal record to every
	// connected client except the sender.
	EventReceiveSignal = "receiveSignal"

	// EventSignalSent is the acknowledgment copy sent back to the
	// originating connection only.
	EventSignalSent = "signalSent"

	// EventSignalError reports a persistence or validation failure to the
	// originating connection only.
	EventSignalError = "signalError"

	// EventShutdown announces a graceful server shutdown.
	EventShutdown = "shutdown"
)

// Client → server message types.
const (
	// TypeSendSignal submits a signal for broadcast.
	TypeSendSignal = "sendSignal"
)
