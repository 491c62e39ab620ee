package audit

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type EventType string

const (
	EventAccess   EventType = "ACCESS"
	EventTransfer EventType = "TRANSFER"
)

type Event struct {
	ID          string          `json:"id" bson:"_id"`
	Timestamp   time.Time       `json:"timestamp" bson:"timestamp"`
	EventType   EventType       `json:"event_type" bson:"event_type"`
	Actor       string          `json:"actor" bson:"actor"`
	Action      string          `json:"action" bson:"action"`
	Resource    string          `json:"resource" bson:"resource"`
	ResourceID  string          `json:"resource_id" bson:"resource_id"`
	IPAddress   string          `json:"ip_address,omitempty" bson:"ip_address,omitempty"`
	UserAgent   string          `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	RequestID   string          `json:"request_id,omitempty" bson:"request_id,omitempty"`
	Status      string          `json:"status" bson:"status"`
	Details     json.RawMessage `json:"details,omitempty" bson:"-"`
	Sensitivity string          `json:"sensitivity" bson:"sensitivity"`
}

// Sink stores audit events somewhere durable.
type Sink interface {
	Name() string
	Write(ctx context.Context, event *Event) error
	Close(ctx context.Context) error
}

type Service interface {
	LogEvent(ctx context.Context, event *Event) error
	Close(ctx context.Context) error
}

type service struct {
	sink   Sink
	logger *logrus.Logger
}

type Option func(*service)

// WithOutput redirects the audit log, mainly for tests.
func WithOutput(w io.Writer) Option {
	return func(s *service) {
		s.logger.SetOutput(w)
	}
}

// NewService logs every event through logrus and, when sink is non-nil,
// writes it to the sink first.
func NewService(sink Sink, opts ...Option) Service {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	s := &service{
		sink:   sink,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) LogEvent(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Sensitivity == "" {
		event.Sensitivity = "PHI"
	}

	fields := logrus.Fields{
		"event_id":    event.ID,
		"event_type":  event.EventType,
		"actor":       event.Actor,
		"action":      event.Action,
		"resource":    event.Resource,
		"resource_id": event.ResourceID,
		"ip_address":  event.IPAddress,
		"request_id":  event.RequestID,
		"status":      event.Status,
		"sensitivity": event.Sensitivity,
	}

	if s.sink != nil {
		if err := s.sink.Write(ctx, event); err != nil {
			s.logger.WithFields(fields).WithError(err).WithField("sink", s.sink.Name()).Error("Failed to store audit event")
			return err
		}
	}

	s.logger.WithFields(fields).Info("Audit event logged")
	return nil
}

func (s *service) Close(ctx context.Context) error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Close(ctx)
}

// Details marshals v for Event.Details, dropping it if it cannot be encoded.
func Details(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
