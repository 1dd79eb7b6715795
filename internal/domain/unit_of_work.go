package domain

import "context"

// UnitOfWork define a interface para gerenciamento de transações
type UnitOfWork interface {
	// WithTransaction executa fn numa única transação; o contexto recebido carrega a transação
	// e deve ser repassado aos repositórios. Erro em fn faz rollback.
	WithTransaction(ctx context.Context, fn func(context.Context) error) error
}
