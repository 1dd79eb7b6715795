package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rafabene/carelink-accounts/docs"
	"github.com/rafabene/carelink-accounts/internal/domain/ports"
	"github.com/rafabene/carelink-accounts/internal/handlers/dto"
	httphandlers "github.com/rafabene/carelink-accounts/internal/handlers/http"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/config"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/i18n"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/logging"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/metrics"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/persistence/postgres"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/realtime"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/security"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/sms"
	"github.com/rafabene/carelink-accounts/internal/services"
)

// @title						CareLink Accounts API
// @version					1.0
// @description				User accounts: registration, phone verification, login, roles and password reset.
// @BasePath					/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Inicializar logger
	logger := logging.NewSlogLogger(cfg.Logging.Level)
	logger.Info("starting carelink accounts",
		"env", cfg.Env,
		"version", "dev",
	)

	// Conectar ao banco de dados
	db, err := postgres.NewDatabaseConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		log.Fatal(err)
	}

	// Inicializar i18n
	i18nService, err := newI18n(cfg.I18n)
	if err != nil {
		logger.Error("failed to initialize i18n", "error", err)
		log.Fatal(err)
	}
	logger.Info("i18n initialized",
		"default_language", i18nService.GetDefaultLanguage(),
		"supported_languages", i18nService.GetSupportedLanguages(),
	)

	// Métricas
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.MustRegister(registry)

	hub := realtime.NewHub(logger,
		realtime.WithAllowedOrigins(cfg.CORS.Origins()),
		realtime.WithRecheckPeriod(cfg.Realtime.SessionRecheck),
	)

	deps := services.Dependencies{
		Users:      postgres.NewUserRepository(db),
		Roles:      postgres.NewRoleRepository(db),
		UnitOfWork: postgres.NewUnitOfWork(db),
		Hasher:     security.NewBcryptHasher(cfg.Security.BcryptCost),
		Tokens:     security.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.Issuer),
		Codes:      security.NewRandomCodeGenerator(),
		Notifier:   newNotifier(cfg.SMS, logger),
		Events:     metrics.NewEventRecorder(hub),
		Translator: i18nService,
		Logger:     logger,
	}
	policy := services.Policy{
		AccessTokenTTL:   cfg.JWT.AccessExpiry,
		VerificationTTL:  cfg.Codes.VerificationTTL,
		PasswordResetTTL: cfg.Codes.PasswordResetTTL,
		CodeLength:       cfg.Codes.Length,
		ResetCodeStyle:   services.ResetCodeStyle(cfg.Codes.ResetCodeStyle),
		DefaultRoles:     services.DefaultPolicy().DefaultRoles,
	}

	// Roles de sistema e admin inicial
	seeder := services.NewSeeder(deps)
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := seeder.SeedSystemRoles(seedCtx); err != nil {
		cancelSeed()
		logger.Error("failed to seed system roles", "error", err)
		log.Fatal(err)
	}
	if err := seeder.EnsureBootstrapAdmin(seedCtx, services.BootstrapAdmin{
		Phone:    cfg.Bootstrap.AdminPhone,
		Password: cfg.Bootstrap.AdminPassword,
		FullName: cfg.Bootstrap.AdminName,
	}); err != nil {
		cancelSeed()
		logger.Error("failed to create bootstrap admin", "error", err)
		log.Fatal(err)
	}
	cancelSeed()

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := dto.RegisterValidators(); err != nil {
		logger.Error("failed to register validators", "error", err)
		log.Fatal(err)
	}

	docs.SwaggerInfo.Host = cfg.Server.Host + ":" + cfg.Server.Port

	router := httphandlers.NewRouter(httphandlers.RouterConfig{
		Env:                 cfg.Env,
		BaseURL:             cfg.Server.BaseURL,
		CORSAllowedOrigins:  cfg.CORS.AllowedOrigins,
		Logger:              logger,
		I18n:                i18nService,
		Gate:                services.NewAccessGate(deps),
		UserService:         services.NewUserService(deps, policy),
		VerificationService: services.NewVerificationService(deps, policy),
		ResetService:        services.NewPasswordResetService(deps, policy),
		RoleService:         services.NewRoleService(deps),
		Hub:                 hub,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		EnableSwagger:       !cfg.IsProduction(),
	})

	// HTTP Server
	srv := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info("server starting",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			log.Fatal(err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Conexões websocket são sequestradas e não entram no Shutdown
	hub.Close()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("server exited")
}

// newI18n usa o diretório configurado ou, se vazio, os catálogos embutidos
func newI18n(cfg config.I18nConfig) (*i18n.Service, error) {
	if cfg.LocalesDir != "" {
		return i18n.NewService(cfg.LocalesDir, cfg.DefaultLanguage)
	}
	return i18n.NewEmbeddedService(cfg.DefaultLanguage)
}

func newNotifier(cfg config.SMSConfig, logger ports.Logger) ports.Notifier {
	if cfg.Provider == config.SMSProviderPindo {
		return sms.NewPindoNotifier(cfg.APIURL, cfg.APIToken, cfg.Sender, cfg.Timeout, logger)
	}
	logger.Warn("SMS provider is log-only; one-time codes are written to the log")
	return sms.NewLogNotifier(logger)
}
