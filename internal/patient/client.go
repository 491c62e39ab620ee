package patient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const maxErrorBody = 512

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

type ClientConfig struct {
	Endpoint    string
	Username    string
	Password    string
	Timeout     time.Duration
	OrderPolicy OrderPolicy
}

type Client interface {
	// Fetch performs the single upstream GET and returns validated records.
	Fetch(ctx context.Context) ([]Record, error)
}

type client struct {
	cfg        ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg ClientConfig, logger *zap.Logger) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.OrderPolicy == "" {
		cfg.OrderPolicy = OrderStrict
	}
	return &client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

func (c *client) Fetch(ctx context.Context) ([]Record, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
		return nil, fmt.Errorf("%w: body is not a JSON array", ErrUnexpectedPayload)
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
	}

	reordered, err := Ingest(records, c.cfg.OrderPolicy)
	if err != nil {
		return nil, fmt.Errorf("ingestion rejected batch: %w", err)
	}
	for _, i := range reordered {
		c.logger.Warn("diagnosis history reordered newest-first",
			zap.Int("record", i),
			zap.String("name", records[i].Name),
		)
	}

	c.logger.Info("patients fetched",
		zap.String("endpoint", c.cfg.Endpoint),
		zap.Int("count", len(records)),
		zap.Duration("duration", time.Since(start)),
	)

	return records, nil
}
