// Package audit records security-relevant events. Entries are
// append-only: nothing in this package, or anywhere else in the core,
// updates or deletes them.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/NassaQ/server/internal/auth"
	"github.com/NassaQ/server/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context so every
// entry recorded for the request can be correlated.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// StoreSink appends entries to the persistent audit log.
type StoreSink struct {
	store auth.AuditStore
}

// NewStoreSink constructs a sink backed by the given store.
func NewStoreSink(store auth.AuditStore) (*StoreSink, error) {
	if store == nil {
		return nil, errors.New("audit: store is required")
	}
	return &StoreSink{store: store}, nil
}

// Record appends the entry. The timestamp is filled in when the caller
// left it zero.
func (s *StoreSink) Record(ctx context.Context, entry *auth.AuditEntry) error {
	if entry == nil || entry.ActionType == "" {
		return errors.New("audit: action type is required")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	return s.store.Append(ctx, entry)
}

// LogSink emits entries as structured JSON lines via the shared logger.
// Useful in development and as a secondary sink next to StoreSink.
type LogSink struct{}

// Record writes one JSON line per entry. It never fails on marshal
// because the entry is a plain struct.
func (LogSink) Record(ctx context.Context, entry *auth.AuditEntry) error {
	if entry == nil || entry.ActionType == "" {
		return errors.New("audit: action type is required")
	}
	line := map[string]any{
		"ts":    entry.Timestamp.UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": entry.ActionType,
	}
	if entry.Timestamp.IsZero() {
		line["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if rid := requestIDFromContext(ctx); rid != "" {
		line["request_id"] = rid
	}
	if entry.UserID != nil {
		line["user_id"] = *entry.UserID
	}
	if entry.EntityID != nil {
		line["entity_id"] = *entry.EntityID
	}
	if entry.Details != "" {
		line["details"] = entry.Details
	}
	data, err := json.Marshal(line)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}

// Fanout records to every sink, returning the first error after all
// sinks have been attempted.
type Fanout []auth.AuditSink

// Record implements auth.AuditSink.
func (f Fanout) Record(ctx context.Context, entry *auth.AuditEntry) error {
	var first error
	for _, sink := range f {
		if err := sink.Record(ctx, entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}
