package ports

import "context"

// Notifier entrega uma mensagem já renderizada para um destino (telefone E.164)
type Notifier interface {
	Deliver(ctx context.Context, destination, message string) error
}
