package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesikahq/patient-dashboard/internal/config"
)

type memorySink struct {
	events []*Event
	err    error
	closed bool
}

func (m *memorySink) Name() string { return "memory" }

func (m *memorySink) Write(_ context.Context, event *Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memorySink) Close(context.Context) error {
	m.closed = true
	return nil
}

func TestLogEventFillsDefaults(t *testing.T) {
	sink := &memorySink{}
	var out bytes.Buffer
	svc := NewService(sink, WithOutput(&out))

	event := &Event{
		EventType:  EventAccess,
		Actor:      "127.0.0.1",
		Action:     "VIEW",
		Resource:   "patient",
		ResourceID: "0",
		Status:     "success",
	}
	require.NoError(t, svc.LogEvent(context.Background(), event))

	require.Len(t, sink.events, 1)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Equal(t, "PHI", event.Sensitivity)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &line))
	assert.Equal(t, "Audit event logged", line["msg"])
	assert.Equal(t, "ACCESS", line["event_type"])
	assert.Equal(t, "VIEW", line["action"])
	assert.Equal(t, event.ID, line["event_id"])

	require.NoError(t, svc.Close(context.Background()))
	assert.True(t, sink.closed)
}

func TestLogEventKeepsCallerValues(t *testing.T) {
	sink := &memorySink{}
	svc := NewService(sink, WithOutput(io.Discard))
	ts := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	event := &Event{ID: "fixed", Timestamp: ts, Sensitivity: "LOW"}
	require.NoError(t, svc.LogEvent(context.Background(), event))

	assert.Equal(t, "fixed", event.ID)
	assert.Equal(t, ts, event.Timestamp)
	assert.Equal(t, "LOW", event.Sensitivity)
}

func TestLogEventSinkFailure(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	var out bytes.Buffer
	svc := NewService(sink, WithOutput(&out))

	err := svc.LogEvent(context.Background(), &Event{EventType: EventTransfer})
	assert.Equal(t, sink.err, err)
	assert.Contains(t, out.String(), "Failed to store audit event")
	assert.Contains(t, out.String(), "disk full")
}

func TestLogOnlyService(t *testing.T) {
	sink, err := OpenSink(context.Background(), config.Audit{Sink: "log"})
	require.NoError(t, err)
	assert.Nil(t, sink)

	svc := NewService(sink, WithOutput(io.Discard))
	assert.NoError(t, svc.LogEvent(context.Background(), &Event{}))
	assert.NoError(t, svc.Close(context.Background()))
}

func TestOpenSinkRejectsUnknown(t *testing.T) {
	_, err := OpenSink(context.Background(), config.Audit{Sink: "kafka"})
	assert.Error(t, err)
}

func TestElasticsearchSinkIndexesMonthly(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		method, path, body = r.Method, r.URL.Path, b
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	sink := NewElasticsearchSink(es, "phi_audit")
	event := &Event{
		ID:        "evt-1",
		Timestamp: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		EventType: EventAccess,
		Action:    "VIEW",
	}
	require.NoError(t, sink.Write(context.Background(), event))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/phi_audit_2024.03/_doc/evt-1", path)

	var doc Event
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, "VIEW", doc.Action)
}

func TestElasticsearchSinkReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	}))
	defer srv.Close()

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	err = NewElasticsearchSink(es, "phi_audit").Write(context.Background(), &Event{ID: "x", Timestamp: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestPostgresStatementsQuoteTable(t *testing.T) {
	sink := NewPostgresSink(nil, `audit"; DROP TABLE x; --`)

	stmt := insertSQL(sink.table)
	assert.True(t, strings.Contains(stmt, `INSERT INTO "audit""; DROP TABLE x; --"`), stmt)
	assert.Contains(t, createTableSQL(sink.table), `CREATE TABLE IF NOT EXISTS "audit""; DROP TABLE x; --"`)
	assert.Contains(t, stmt, "$13")
}

func TestPostgresInsertMatchesColumns(t *testing.T) {
	stmt := insertSQL(NewPostgresSink(nil, "audit_events").table)

	open := strings.Index(stmt, "(")
	closing := strings.Index(stmt, ")")
	require.True(t, open > 0 && closing > open, stmt)
	columns := strings.Split(stmt[open+1:closing], ",")

	assert.Len(t, columns, 13)
	assert.Contains(t, stmt, `INSERT INTO "audit_events"`)
	assert.Equal(t, 13, strings.Count(stmt, "$"))
	assert.Contains(t, createTableSQL(`"audit_events"`), "details JSONB")
}
