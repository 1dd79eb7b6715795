package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/rafabene/carelink-accounts/internal/domain"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const txKey contextKey = "tx"

// UnitOfWork implementa domain.UnitOfWork
type UnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork cria um novo UnitOfWork
func NewUnitOfWork(db *gorm.DB) domain.UnitOfWork {
	return &UnitOfWork{db: db}
}

// WithTransaction abre uma transação e a coloca no contexto.
// Se o contexto já carrega uma transação, fn participa dela.
func (uow *UnitOfWork) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}

	var fnErr error
	err := uow.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey, tx)
		fnErr = fn(txCtx)
		return fnErr
	})

	if fnErr != nil {
		return fnErr
	}
	// Falha no commit
	return translateError(err)
}

// dbFromContext extrai DB do contexto (para suportar transações)
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

// translateError converte erros do GORM para o vocabulário do domínio
func translateError(err error) error {
	if err == nil {
		return nil
	}
	return domainerrors.Unavailable(err)
}
