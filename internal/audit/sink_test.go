package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NassaQ/server/internal/auth"
)

type memStore struct {
	entries []*auth.AuditEntry
	err     error
}

func (m *memStore) Append(ctx context.Context, entry *auth.AuditEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memStore) ListRecent(ctx context.Context, limit int) ([]auth.AuditEntry, error) {
	return nil, nil
}

func TestStoreSinkRecord(t *testing.T) {
	store := &memStore{}
	sink, err := NewStoreSink(store)
	if err != nil {
		t.Fatal(err)
	}

	entry := &auth.AuditEntry{ActionType: "user.login"}
	if err := sink.Record(context.Background(), entry); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(store.entries) != 1 {
		t.Fatalf("appended %d entries", len(store.entries))
	}
	if entry.Timestamp.IsZero() {
		t.Error("zero timestamp not filled in")
	}
}

func TestStoreSinkKeepsTimestamp(t *testing.T) {
	store := &memStore{}
	sink, _ := NewStoreSink(store)
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	entry := &auth.AuditEntry{ActionType: "user.login", Timestamp: ts}
	if err := sink.Record(context.Background(), entry); err != nil {
		t.Fatal(err)
	}
	if !entry.Timestamp.Equal(ts) {
		t.Errorf("timestamp overwritten: %v", entry.Timestamp)
	}
}

func TestStoreSinkRejectsEmpty(t *testing.T) {
	sink, _ := NewStoreSink(&memStore{})
	if err := sink.Record(context.Background(), nil); err == nil {
		t.Error("nil entry accepted")
	}
	if err := sink.Record(context.Background(), &auth.AuditEntry{}); err == nil {
		t.Error("entry without action type accepted")
	}
}

func TestNewStoreSinkRequiresStore(t *testing.T) {
	if _, err := NewStoreSink(nil); err == nil {
		t.Error("nil store accepted")
	}
}

type failSink struct{ err error }

func (f failSink) Record(ctx context.Context, entry *auth.AuditEntry) error { return f.err }

func TestFanoutRecordsAllAndReturnsFirstError(t *testing.T) {
	store := &memStore{}
	storeSink, _ := NewStoreSink(store)
	boom := errors.New("boom")

	fanout := Fanout{failSink{err: boom}, storeSink}
	err := fanout.Record(context.Background(), &auth.AuditEntry{ActionType: "user.login"})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	// The failing sink must not stop the others.
	if len(store.entries) != 1 {
		t.Errorf("store sink skipped, %d entries", len(store.entries))
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if got := requestIDFromContext(ctx); got != "req-123" {
		t.Errorf("request id = %q", got)
	}
	if got := requestIDFromContext(context.Background()); got != "" {
		t.Errorf("unexpected request id %q", got)
	}
	// Blank ids are not attached.
	ctx = WithRequestID(context.Background(), "   ")
	if got := requestIDFromContext(ctx); got != "" {
		t.Errorf("blank request id attached: %q", got)
	}
}
