package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesikahq/patient-dashboard/internal/audit"
	"github.com/mesikahq/patient-dashboard/internal/config"
	"github.com/mesikahq/patient-dashboard/internal/dashboard"
	"github.com/mesikahq/patient-dashboard/internal/patient"
)

const actor = "cli"

// app holds what every command needs once flags are parsed.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	audit      audit.Service
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) close() {
	if a.audit != nil {
		if err := a.audit.Close(context.Background()); err != nil {
			a.logger.Warn("Failed to close audit sink", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) auditService(ctx context.Context) (audit.Service, error) {
	if a.audit != nil {
		return a.audit, nil
	}
	sink, err := audit.OpenSink(ctx, a.cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit sink: %w", err)
	}
	a.audit = audit.NewService(sink)
	return a.audit, nil
}

// fetch performs the single upstream fetch for this invocation.
func (a *app) fetch(ctx context.Context) ([]patient.Record, error) {
	svc, err := a.auditService(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := patient.ParseOrderPolicy(a.cfg.Ingest.OrderPolicy)
	if err != nil {
		return nil, err
	}
	client := patient.NewClient(patient.ClientConfig{
		Endpoint:    a.cfg.Upstream.Endpoint,
		Username:    a.cfg.Upstream.Username,
		Password:    a.cfg.Upstream.Password,
		Timeout:     a.cfg.Upstream.Timeout,
		OrderPolicy: policy,
	}, a.logger)
	return dashboard.LoadRecords(ctx, client, svc, actor, a.logger)
}

// recordView logs the PHI access for a rendered profile. Failures are logged
// and do not stop the command.
func (a *app) recordView(ctx context.Context, view *dashboard.ProfileView) {
	if a.audit == nil {
		return
	}
	err := a.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventAccess,
		Actor:      actor,
		Action:     "VIEW",
		Resource:   "patient",
		ResourceID: fmt.Sprint(view.Index),
		Status:     "success",
		Details: audit.Details(map[string]string{
			"name":    view.Name,
			"surface": "terminal",
		}),
	})
	if err != nil {
		a.logger.Error("Failed to record audit event", zap.Error(err))
	}
}
