package audit

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoSink struct {
	coll *mongo.Collection
}

// NewMongoSink inserts one document per event. Close disconnects the
// collection's client.
func NewMongoSink(coll *mongo.Collection) Sink {
	return &mongoSink{coll: coll}
}

func (s *mongoSink) Name() string { return "mongo" }

func (s *mongoSink) Write(ctx context.Context, event *Event) error {
	if _, err := s.coll.InsertOne(ctx, mongoDocument(event)); err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}

func (s *mongoSink) Close(ctx context.Context) error {
	return s.coll.Database().Client().Disconnect(ctx)
}

// mongoEvent stores Details as an embedded document so it can be queried.
type mongoEvent struct {
	Event   `bson:",inline"`
	Details interface{} `bson:"details,omitempty"`
}

// mongoDocument converts event for insertion. Details that are not a JSON
// object are kept as a string.
func mongoDocument(event *Event) mongoEvent {
	doc := mongoEvent{Event: *event}
	if len(event.Details) == 0 {
		return doc
	}
	var details bson.D
	if err := bson.UnmarshalExtJSON(event.Details, false, &details); err != nil {
		doc.Details = string(event.Details)
		return doc
	}
	doc.Details = details
	return doc
}
