package testsupport

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/rafabene/carelink-accounts/internal/infrastructure/i18n"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/logging"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/persistence/postgres"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/security"
	"github.com/rafabene/carelink-accounts/internal/services"
)

// TestJWTSecret assina os tokens emitidos nos testes
const TestJWTSecret = "test-secret"

// Env é um conjunto completo de serviços sobre SQLite com dublês observáveis
type Env struct {
	DB        *gorm.DB
	Deps      services.Dependencies
	Policy    services.Policy
	Notifier  *RecordingNotifier
	Publisher *RecordingPublisher
	Clock     *Clock
	Codes     *SequenceCodes
	I18n      *i18n.Service

	Users        *services.UserService
	Verification *services.VerificationService
	Reset        *services.PasswordResetService
	Roles        *services.RoleService
	Gate         *services.AccessGate
	Seeder       *services.Seeder
}

// NewEnv monta o ambiente e semeia os roles de sistema
func NewEnv(tb TB) *Env {
	tb.Helper()

	db := NewSQLiteDB(tb)
	translator, err := i18n.NewEmbeddedService("en")
	if err != nil {
		tb.Fatalf("failed to load i18n: %v", err)
	}

	env := &Env{
		DB:        db,
		Notifier:  &RecordingNotifier{},
		Publisher: &RecordingPublisher{},
		Clock:     NewClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)),
		Codes:     &SequenceCodes{},
		I18n:      translator,
		Policy:    services.DefaultPolicy(),
	}

	issuer := security.NewJWTIssuer(TestJWTSecret, "carelink-test")
	env.Deps = services.Dependencies{
		Users:      postgres.NewUserRepository(db),
		Roles:      postgres.NewRoleRepository(db),
		UnitOfWork: postgres.NewUnitOfWork(db),
		Hasher:     security.NewBcryptHasher(bcrypt.MinCost),
		Tokens:     issuer,
		Codes:      env.Codes,
		Notifier:   env.Notifier,
		Events:     env.Publisher,
		Translator: translator,
		Logger:     logging.NewNopLogger(),
		Clock:      env.Clock.Now,
	}
	env.Rebuild()

	if err := env.Seeder.SeedSystemRoles(context.Background()); err != nil {
		tb.Fatalf("failed to seed roles: %v", err)
	}
	return env
}

// Rebuild recria os serviços depois de alterar Deps ou Policy
func (e *Env) Rebuild() {
	e.Users = services.NewUserService(e.Deps, e.Policy)
	e.Verification = services.NewVerificationService(e.Deps, e.Policy)
	e.Reset = services.NewPasswordResetService(e.Deps, e.Policy)
	e.Roles = services.NewRoleService(e.Deps)
	e.Gate = services.NewAccessGate(e.Deps)
	e.Seeder = services.NewSeeder(e.Deps)
}
