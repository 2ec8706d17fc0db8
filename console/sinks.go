package v8console

import (
	"github.com/augustoroman/v8shim"
	"github.com/sirupsen/logrus"
)

// LogSink forwards console messages to a logrus logger, with the caller
// location as fields.
type LogSink struct {
	Log logrus.FieldLogger
}

func (s LogSink) Write(level Level, caller v8shim.Loc, msg string) {
	entry := s.Log.WithFields(logrus.Fields{
		"file": caller.Filename,
		"line": caller.Line,
	})
	switch level {
	case Debug:
		entry.Debug(msg)
	case Warn:
		entry.Warn(msg)
	case Error:
		entry.Error(msg)
	default:
		entry.Info(msg)
	}
}

// Message is one recorded console call.
type Message struct {
	Level  Level
	Caller v8shim.Loc
	Text   string
}

// Buffer records console messages until they are flushed to another sink.
type Buffer struct {
	Messages []Message
}

func (b *Buffer) Write(level Level, caller v8shim.Loc, msg string) {
	b.Messages = append(b.Messages, Message{level, caller, msg})
}

// Flush replays every recorded message to s, in order, and empties the
// buffer.
func (b *Buffer) Flush(s Sink) {
	for _, m := range b.Messages {
		s.Write(m.Level, m.Caller, m.Text)
	}
	b.Messages = nil
}
