package types

type RunMode string

const (
	// ModeLocal runs the API server with developer friendly logging
	ModeLocal RunMode = "local"
	// ModeAPI runs the API server
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// EventBusDriver selects the transport coupon lifecycle events are published on
type EventBusDriver string

const (
	EventBusDriverMemory EventBusDriver = "memory"
	EventBusDriverKafka  EventBusDriver = "kafka"
)
