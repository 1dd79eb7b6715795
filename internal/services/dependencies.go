package services

import (
	"context"
	"time"

	"github.com/rafabene/carelink-accounts/internal/domain"
	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/ports"
	"github.com/rafabene/carelink-accounts/internal/domain/repositories"
	"github.com/rafabene/carelink-accounts/internal/domain/valueobjects"
)

// Dependencies agrupa os colaboradores compartilhados pelos serviços
type Dependencies struct {
	Users      repositories.UserRepository
	Roles      repositories.RoleRepository
	UnitOfWork domain.UnitOfWork
	Hasher     ports.PasswordHasher
	Tokens     ports.TokenIssuer
	Codes      ports.CodeGenerator
	Notifier   ports.Notifier
	Events     ports.EventPublisher
	Translator ports.Translator
	Logger     ports.Logger
	Clock      Clock
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, entities.AccountEvent) {}

func (d Dependencies) withDefaults() Dependencies {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Events == nil {
		d.Events = noopPublisher{}
	}
	return d
}

func (d Dependencies) now() time.Time {
	return d.Clock().UTC()
}

// publish emite o evento; chamado somente depois do commit
func (d Dependencies) publish(ctx context.Context, event entities.AccountEvent) {
	event.OccurredAt = d.now()
	d.Events.Publish(ctx, event)
}

// sendCode entrega o código por SMS no idioma da requisição.
// Falhas são registradas e descartadas: a mutação já foi confirmada.
func (d Dependencies) sendCode(ctx context.Context, phone valueobjects.PhoneNumber, templateKey, code string, ttl time.Duration) bool {
	lang := ports.LanguageFromContext(ctx, d.Translator.GetDefaultLanguage())
	message := d.Translator.T(lang, templateKey, map[string]interface{}{
		"Code":    code,
		"Minutes": ttlMinutes(ttl),
	})

	// A entrega não deve ser abortada se o cliente desconectar
	if err := d.Notifier.Deliver(context.WithoutCancel(ctx), phone.String(), message); err != nil {
		d.Logger.WithContext(ctx).Warn("failed to deliver one-time code",
			"phone", phone.Masked(),
			"template", templateKey,
			"error", err,
		)
		return false
	}
	return true
}

func ttlMinutes(ttl time.Duration) int {
	m := int(ttl / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}

// resolveRoles busca os roles pelo nome; qualquer nome inexistente é NotFound.
// Roles inativos são retornados e cada chamador decide como tratá-los.
func (d Dependencies) resolveRoles(ctx context.Context, raw []string) ([]*entities.Role, error) {
	names, err := valueobjects.NormalizeRoleNames(raw)
	if err != nil {
		return nil, domainerrors.ErrRoleNotFound.WithField("roles")
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = n.String()
	}

	found, err := d.Roles.FindByNames(ctx, keys)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*entities.Role, len(found))
	for _, r := range found {
		byName[r.Name] = r
	}

	roles := make([]*entities.Role, 0, len(keys))
	for _, key := range keys {
		role, ok := byName[key]
		if !ok {
			return nil, domainerrors.ErrRoleNotFound.WithField("roles")
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// hashPassword traduz falhas do hasher (senha vazia ou longa demais) em erro de validação
func (d Dependencies) hashPassword(plaintext, field string) (string, error) {
	hash, err := d.Hasher.Hash(plaintext)
	if err != nil {
		return "", domainerrors.Wrap(domainerrors.KindInvalid, domainerrors.ErrInvalidUserData.Message, err).WithField(field)
	}
	return hash, nil
}
