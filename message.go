package relay

import "time"

// Kind tags the traffic carried by a Channel.
type Kind string

const (
	// KindGeneric marks a message whose payload is an opaque user value.
	KindGeneric Kind = "generic"
	// KindLog marks a message whose payload is a LogRecord.
	KindLog Kind = "log"
)

// Level is an open-ended log level tag. Any string is accepted.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// WorkerID identifies the pool slot a job ran on. It is only meant for display.
type WorkerID int

// LogRecord is the payload of a KindLog message.
type LogRecord struct {
	Time  time.Time
	Level Level
	Text  string
}

// Message is the unit carried from workers to the coordinator.
type Message struct {
	Worker  WorkerID
	Job     int // submission index of the sending job
	Kind    Kind
	Payload any
}
