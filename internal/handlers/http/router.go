package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	"github.com/rafabene/carelink-accounts/internal/domain/ports"
	"github.com/rafabene/carelink-accounts/internal/handlers/middleware"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/realtime"
	"github.com/rafabene/carelink-accounts/internal/services"
)

// RouterConfig reúne o que o roteador precisa para montar as rotas
type RouterConfig struct {
	Env                string
	BaseURL            string
	CORSAllowedOrigins string

	Logger ports.Logger
	I18n   middleware.LanguageCatalog
	Gate   middleware.Gate

	UserService         *services.UserService
	VerificationService *services.VerificationService
	ResetService        *services.PasswordResetService
	RoleService         *services.RoleService
	Hub                 *realtime.Hub

	// MetricsHandler é servido em /metrics quando não for nil
	MetricsHandler http.Handler
	// EnableSwagger expõe /swagger/*any
	EnableSwagger bool
	// AccessLogOutput recebe o log de acesso; nil usa gin.DefaultWriter
	AccessLogOutput io.Writer
}

// NewRouter monta o gin.Engine com middlewares globais e rotas da API
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.AccessLog(cfg.AccessLogOutput), gin.Recovery())

	// Middleware global para adicionar base URL ao contexto
	router.Use(func(c *gin.Context) {
		c.Set("base_url", cfg.BaseURL)
		c.Next()
	})
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.NewI18nMiddleware(cfg.I18n).DetectLanguage())

	errors := NewErrorResponder(cfg.Logger)
	auth := middleware.NewAuthMiddleware(cfg.Gate, errors.Respond)
	requireAdmin := auth.RequireRole(entities.RoleAdmin)

	authHandler := NewAuthHandler(cfg.UserService, cfg.VerificationService, cfg.ResetService, errors)
	userHandler := NewUserHandler(cfg.UserService, cfg.RoleService, errors)
	roleHandler := NewRoleHandler(cfg.RoleService, errors)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"env":    cfg.Env,
		})
	})
	if cfg.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}
	if cfg.EnableSwagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := router.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			users.POST("/register", authHandler.Register)
			users.POST("/login", authHandler.Login)
			users.POST("/verify", authHandler.VerifyAccount)
			users.POST("/resend-verification", authHandler.ResendVerification)
			users.POST("/forgot-password", authHandler.ForgotPassword)
			users.POST("/reset-password", authHandler.ResetPassword)

			users.GET("/me", auth.RequireAuth(), userHandler.Me)
			users.POST("/me/change-password", auth.RequireAuth(), userHandler.ChangePassword)

			users.GET("", requireAdmin, userHandler.ListUsers)
			users.GET("/:id", auth.RequireAuth(), userHandler.GetUser)
			users.PATCH("/:id/status", requireAdmin, userHandler.UpdateStatus)
			users.POST("/:id/roles", requireAdmin, userHandler.AssignRoles)
			users.DELETE("/:id/roles", requireAdmin, userHandler.RemoveRoles)
		}

		roles := v1.Group("/roles")
		{
			roles.GET("", auth.RequireAuth(), roleHandler.ListRoles)
			roles.GET("/:id", auth.RequireAuth(), roleHandler.GetRole)
			roles.POST("", requireAdmin, roleHandler.CreateRole)
			roles.PUT("/:id", requireAdmin, roleHandler.UpdateRole)
			roles.DELETE("/:id", requireAdmin, roleHandler.DeleteRole)
		}

		if cfg.Hub != nil {
			events := NewEventsHandler(cfg.Hub, cfg.Gate, cfg.Logger)
			v1.GET("/admin/events", auth.RequireRoleWS(entities.RoleAdmin), events.Stream)
		}
	}

	return router
}
