package types

type RunMode string

const (
	// ModeLocal runs the API server with the in-process event bus
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server
	ModeAPI RunMode = "api"
	// ModeConsumer tails the events topic without serving HTTP
	ModeConsumer RunMode = "consumer"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// EventsBackend selects the transport the event recorder publishes on
type EventsBackend string

const (
	EventsBackendMemory EventsBackend = "memory"
	EventsBackendKafka  EventsBackend = "kafka"
)
