package metrics

import (
	"context"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	"github.com/rafabene/carelink-accounts/internal/domain/ports"
)

// EventRecorder conta os eventos de conta e repassa cada um para next
type EventRecorder struct {
	next ports.EventPublisher
}

// NewEventRecorder envolve o publisher informado; next pode ser nil
func NewEventRecorder(next ports.EventPublisher) *EventRecorder {
	return &EventRecorder{next: next}
}

func (r *EventRecorder) Publish(ctx context.Context, event entities.AccountEvent) {
	switch event.Type {
	case entities.EventVerificationSent:
		OneTimeCodesIssuedTotal.WithLabelValues("verification").Inc()
	case entities.EventPasswordResetRequested:
		OneTimeCodesIssuedTotal.WithLabelValues("password_reset").Inc()
	}

	if r.next != nil {
		r.next.Publish(ctx, event)
	}
}
