package ports

import (
	"context"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
)

// EventPublisher recebe eventos de conta já confirmados; Publish nunca bloqueia
type EventPublisher interface {
	Publish(ctx context.Context, event entities.AccountEvent)
}
