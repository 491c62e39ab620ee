package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/mesikahq/patient-dashboard/internal/config"
	"github.com/mesikahq/patient-dashboard/internal/database"
)

const applicationName = "patient-dashboard"

// OpenSink connects the sink selected by cfg.Sink. The "log" sink returns a
// nil Sink: events then only go to the logrus audit log.
func OpenSink(ctx context.Context, cfg config.Audit) (Sink, error) {
	switch cfg.Sink {
	case "", "log":
		return nil, nil

	case "elasticsearch":
		es, err := elasticsearch.NewClient(elasticsearch.Config{
			Addresses: cfg.Elasticsearch.Addresses,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
		}
		return NewElasticsearchSink(es, cfg.Elasticsearch.IndexPrefix), nil

	case "mongo":
		timeout := cfg.Mongo.ConnectTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		client, err := database.NewMongoClient(ctx, database.MongoConfig{
			URI:            cfg.Mongo.URI,
			AppName:        applicationName,
			ConnectTimeout: timeout,
		})
		if err != nil {
			return nil, err
		}
		return NewMongoSink(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection)), nil

	case "postgres":
		sink, err := OpenPostgresSink(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return sink, nil

	default:
		return nil, fmt.Errorf("unsupported audit sink %q", cfg.Sink)
	}
}

// OpenPostgresSink connects to the configured database without touching the
// schema; call EnsureTable to create the table.
func OpenPostgresSink(ctx context.Context, cfg config.Postgres) (*PostgresSink, error) {
	pool, err := database.Connect(ctx, database.PostgresConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Database:        cfg.Database,
		User:            cfg.User,
		Password:        cfg.Password,
		SSLMode:         cfg.SSLMode,
		ApplicationName: applicationName,
		MaxPoolSize:     cfg.MaxPoolSize,
		ConnTimeout:     cfg.ConnTimeout,
	})
	if err != nil {
		return nil, err
	}
	return NewPostgresSink(pool, cfg.Table), nil
}
