package goSession

import (
	"io"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"go.uber.org/zap"
)

// AuditEvent is one security-relevant event emitted by the Engine.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the Engine's dispatcher goroutine.
type AuditSink = internalaudit.Sink

type NoOpSink = internalaudit.NoOpSink

type ChannelSink = internalaudit.ChannelSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

type JSONWriterSink = internalaudit.JSONWriterSink

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

type ZapSink = internalaudit.ZapSink

// NewZapSink logs audit events through logger under the "audit" name.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}
