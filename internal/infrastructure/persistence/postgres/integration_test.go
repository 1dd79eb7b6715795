//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/i18n"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/logging"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/persistence/postgres"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/security"
	"github.com/rafabene/carelink-accounts/internal/services"
	"github.com/rafabene/carelink-accounts/internal/testsupport"
)

// newPostgresDB sobe um PostgreSQL descartável; exige Docker
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("carelink"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("falha ao iniciar postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("falha ao encerrar container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("falha ao obter DSN: %v", err)
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), postgres.GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("falha ao conectar: %v", err)
	}
	if err := postgres.Migrate(db); err != nil {
		t.Fatalf("falha ao migrar: %v", err)
	}
	return db
}

func newPostgresServices(t *testing.T, db *gorm.DB) (services.Dependencies, *testsupport.SequenceCodes) {
	t.Helper()
	translator, err := i18n.NewEmbeddedService("en")
	if err != nil {
		t.Fatalf("falha ao carregar i18n: %v", err)
	}
	codes := &testsupport.SequenceCodes{}
	deps := services.Dependencies{
		Users:      postgres.NewUserRepository(db),
		Roles:      postgres.NewRoleRepository(db),
		UnitOfWork: postgres.NewUnitOfWork(db),
		Hasher:     security.NewBcryptHasher(bcrypt.MinCost),
		Tokens:     security.NewJWTIssuer(testsupport.TestJWTSecret, "carelink-test"),
		Codes:      codes,
		Notifier:   &testsupport.RecordingNotifier{},
		Translator: translator,
		Logger:     logging.NewNopLogger(),
	}
	if err := services.NewSeeder(deps).SeedSystemRoles(context.Background()); err != nil {
		t.Fatalf("falha ao semear roles: %v", err)
	}
	return deps, codes
}

func TestPostgres_ConcurrentRegistration(t *testing.T) {
	db := newPostgresDB(t)
	deps, _ := newPostgresServices(t, db)
	users := services.NewUserService(deps, services.DefaultPolicy())

	const attempts = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[domainerrors.Kind]int{}
		success int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := users.Register(context.Background(), services.RegisterInput{
				FullName: "Test User", PhoneNumber: "+250788000111", Gender: "male", Password: "Passw0rd!",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			results[domainerrors.KindOf(err)]++
		}()
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("esperava exatamente 1 cadastro, obteve %d", success)
	}
	if results[domainerrors.KindConflict] != attempts-1 {
		t.Errorf("as demais tentativas deveriam ser Conflict: %v", results)
	}
}

func TestPostgres_ConcurrentVerificationIsSingleUse(t *testing.T) {
	db := newPostgresDB(t)
	deps, codes := newPostgresServices(t, db)
	policy := services.DefaultPolicy()

	users := services.NewUserService(deps, policy)
	verification := services.NewVerificationService(deps, policy)

	if _, err := users.Register(context.Background(), services.RegisterInput{
		FullName: "Test User", PhoneNumber: "+250788000111", Gender: "male", Password: "Passw0rd!",
	}); err != nil {
		t.Fatalf("cadastro falhou: %v", err)
	}
	code := codes.Last()

	const attempts = 5
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		verified int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := verification.VerifyAccount(ctx, "+250788000111", code); err == nil {
				mu.Lock()
				verified++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if verified != 1 {
		t.Errorf("o código deveria ser aceito uma única vez, aceito %d vezes", verified)
	}
}
