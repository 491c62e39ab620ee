package dashboard

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesikahq/patient-dashboard/internal/audit"
	"github.com/mesikahq/patient-dashboard/internal/patient"
)

// Fetcher is the part of patient.Client the hosts depend on.
type Fetcher interface {
	Fetch(ctx context.Context) ([]patient.Record, error)
}

// LoadRecords performs the single startup fetch and records it as a PHI
// transfer. A failed fetch is logged and returned; the caller decides whether
// to carry on with an empty dashboard.
func LoadRecords(ctx context.Context, fetcher Fetcher, auditService audit.Service, actor string, logger *zap.Logger) ([]patient.Record, error) {
	records, err := fetcher.Fetch(ctx)

	event := &audit.Event{
		EventType: audit.EventTransfer,
		Actor:     actor,
		Action:    "FETCH",
		Resource:  "patient_list",
		Status:    "success",
	}
	if err != nil {
		event.Status = "failure"
		event.Details = audit.Details(map[string]string{"error": err.Error()})
	} else {
		event.Details = audit.Details(map[string]int{"count": len(records)})
	}
	if auditErr := auditService.LogEvent(context.WithoutCancel(ctx), event); auditErr != nil {
		logger.Error("Failed to record audit event", zap.String("action", event.Action), zap.Error(auditErr))
	}

	if err != nil {
		logger.Error("Failed to load patients", zap.Error(err))
		return nil, fmt.Errorf("load patients: %w", err)
	}
	return records, nil
}
