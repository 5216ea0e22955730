package ui

import "github.com/bamsammich/ddupe/internal/event"

// Event is the engine's progress notification.
type Event = event.Event

// Re-export event types for convenience.
const (
	ScanStarted  = event.ScanStarted
	ScanComplete = event.ScanComplete
	HashStarted  = event.HashStarted
	FileHashed   = event.FileHashed
	HashFailed   = event.HashFailed
	HashComplete = event.HashComplete
	GroupFound   = event.GroupFound
	DeleteFile   = event.DeleteFile
	DeleteFailed = event.DeleteFailed
	Warning      = event.Warning
)
