package notifications

import (
	"context"

	"github.com/aurevo/storefront/internal/cart"
	"github.com/aurevo/storefront/internal/checkout"
	"github.com/aurevo/storefront/pkg/enums"
	"github.com/aurevo/storefront/pkg/logger"
)

// LogRenderer writes every rendering event to the structured log.
type LogRenderer struct {
	logg *logger.Logger
}

func NewLogRenderer(logg *logger.Logger) LogRenderer {
	if logg == nil {
		logg = logger.Nop()
	}
	return LogRenderer{logg: logg}
}

func (l LogRenderer) OnCartChanged(ctx context.Context, snapshot cart.Snapshot) {
	l.logg.Debug(l.logg.WithFields(ctx, map[string]any{
		"cart_lines": len(snapshot.Items),
		"cart_count": snapshot.Count,
		"cart_total": snapshot.Total.StringFixed(2),
	}), "cart changed")
}

func (l LogRenderer) OnValidationChanged(ctx context.Context, result checkout.ValidationResult) {
	if result.Valid {
		return
	}
	fields := make([]string, 0, len(result.Errors))
	for field := range result.Errors {
		fields = append(fields, field)
	}
	l.logg.Debug(l.logg.WithField(ctx, "invalid_fields", fields), "checkout form invalid")
}

func (l LogRenderer) OnSubmissionStateChanged(ctx context.Context, state enums.SubmissionState) {
	l.logg.Info(l.logg.WithField(ctx, "submission_state", state.String()), "submission state changed")
}

func (l LogRenderer) Notify(ctx context.Context, message string, severity enums.Severity) {
	ctx = l.logg.WithField(ctx, "severity", string(severity))
	if severity == enums.SeverityError {
		l.logg.Warn(ctx, message)
		return
	}
	l.logg.Info(ctx, message)
}

// Fanout forwards every event to each renderer in order.
type Fanout []checkout.Renderer

func (f Fanout) OnCartChanged(ctx context.Context, snapshot cart.Snapshot) {
	for _, r := range f {
		r.OnCartChanged(ctx, snapshot)
	}
}

func (f Fanout) OnValidationChanged(ctx context.Context, result checkout.ValidationResult) {
	for _, r := range f {
		r.OnValidationChanged(ctx, result)
	}
}

func (f Fanout) OnSubmissionStateChanged(ctx context.Context, state enums.SubmissionState) {
	for _, r := range f {
		r.OnSubmissionStateChanged(ctx, state)
	}
}

func (f Fanout) Notify(ctx context.Context, message string, severity enums.Severity) {
	for _, r := range f {
		r.Notify(ctx, message, severity)
	}
}

var (
	_ checkout.Renderer = (*Recorder)(nil)
	_ checkout.Renderer = LogRenderer{}
	_ checkout.Renderer = Fanout(nil)
)
