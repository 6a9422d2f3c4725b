// Package events carries install lifecycle notifications out of the core
// without coupling it to a particular frontend.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Type identifies what happened.
type Type string

const (
	TypeResolveStarted  Type = "resolve.started"
	TypeDownloadStarted Type = "download.started"
	TypeDownloadDone    Type = "download.done"
	TypeInstallStarted  Type = "install.started"
	TypeInstallDone     Type = "install.done"
	TypeInstallFailed   Type = "install.failed"
	TypeUninstallDone   Type = "uninstall.done"
	TypeModEnabled      Type = "mod.enabled"
	TypeModDisabled     Type = "mod.disabled"
)

// Event describes one lifecycle notification.
type Event struct {
	ID       string
	Type     Type
	ModID    string
	Message  string
	Bytes    int64
	Duration time.Duration
	Time     time.Time
	Err      error
}

// Sink receives events. Implementations must not block.
type Sink interface {
	Publish(Event)
}

// New builds an event with a fresh id and timestamp.
func New(typ Type, modID, message string) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    typ,
		ModID:   modID,
		Message: message,
		Time:    time.Now(),
	}
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Publish(Event) {}

// LogSink writes events to a structured logger.
type LogSink struct {
	Log zerolog.Logger
}

func (s LogSink) Publish(e Event) {
	ev := s.Log.Info()
	if e.Err != nil {
		ev = s.Log.Error().Err(e.Err)
	}
	if e.Bytes > 0 {
		ev = ev.Int64("bytes", e.Bytes)
	}
	if e.Duration > 0 {
		ev = ev.Dur("took", e.Duration)
	}
	ev.Str("event", string(e.Type)).Str("mod", e.ModID).Msg(e.Message)
}
