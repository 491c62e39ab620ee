package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesikahq/patient-dashboard/internal/audit"
	"github.com/mesikahq/patient-dashboard/internal/patient"
)

type stubFetcher struct {
	records []patient.Record
	err     error
}

func (f stubFetcher) Fetch(context.Context) ([]patient.Record, error) {
	return f.records, f.err
}

type eventSink struct{ events []*audit.Event }

func (s *eventSink) Name() string { return "events" }

func (s *eventSink) Write(_ context.Context, e *audit.Event) error {
	s.events = append(s.events, e)
	return nil
}

func (s *eventSink) Close(context.Context) error { return nil }

func TestLoadRecordsAuditsTransfer(t *testing.T) {
	sink := &eventSink{}
	svc := audit.NewService(sink, audit.WithOutput(io.Discard))
	fetcher := stubFetcher{records: []patient.Record{{Name: "A"}, {Name: "B"}}}

	records, err := LoadRecords(context.Background(), fetcher, svc, "cli", zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, records, 2)

	require.Len(t, sink.events, 1)
	event := sink.events[0]
	assert.Equal(t, audit.EventTransfer, event.EventType)
	assert.Equal(t, "cli", event.Actor)
	assert.Equal(t, "success", event.Status)

	var details map[string]int
	require.NoError(t, json.Unmarshal(event.Details, &details))
	assert.Equal(t, 2, details["count"])
}

func TestLoadRecordsLogsFailure(t *testing.T) {
	sink := &eventSink{}
	svc := audit.NewService(sink, audit.WithOutput(io.Discard))
	core, logs := observer.New(zap.ErrorLevel)
	upstream := errors.New("connection refused")

	records, err := LoadRecords(context.Background(), stubFetcher{err: upstream}, svc, "web", zap.New(core))
	assert.ErrorIs(t, err, upstream)
	assert.Nil(t, records)
	assert.Equal(t, 1, logs.FilterMessage("Failed to load patients").Len())

	require.Len(t, sink.events, 1)
	assert.Equal(t, "failure", sink.events[0].Status)
}
