package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ScanStarted Type = iota + 1
	ScanComplete
	HashStarted
	FileHashed
	HashFailed
	HashComplete
	GroupFound
	DeleteFile
	DeleteFailed
	Warning
)

var typeNames = [...]string{
	ScanStarted:  "ScanStarted",
	ScanComplete: "ScanComplete",
	HashStarted:  "HashStarted",
	FileHashed:   "FileHashed",
	HashFailed:   "HashFailed",
	HashComplete: "HashComplete",
	GroupFound:   "GroupFound",
	DeleteFile:   "DeleteFile",
	DeleteFailed: "DeleteFailed",
	Warning:      "Warning",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event is a single progress notification from the engine. Events are a
// side channel: the engine never blocks on delivering one.
type Event struct {
	Timestamp time.Time
	Error     error
	Path      string // absolute path of the file concerned, if any
	Type      Type
	Size      int64 // file size, or bytes reclaimable for GroupFound
	Total     int64 // total files (ScanComplete, HashStarted) or group members (GroupFound)
	TotalSize int64 // total bytes (ScanComplete, HashStarted)
}

// Emit sends e on ch without blocking. A nil channel discards the event.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	select {
	case ch <- e:
	default:
	}
}
