package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config contém todas as configurações da aplicação
type Config struct {
	Env       string
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Codes     CodesConfig
	Security  SecurityConfig
	SMS       SMSConfig
	Logging   LoggingConfig
	CORS      CORSConfig
	I18n      I18nConfig
	Realtime  RealtimeConfig
	Bootstrap BootstrapConfig
}

type ServerConfig struct {
	Port    string
	Host    string
	BaseURL string // URL base da API para construir URIs RFC 7807
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	MinConns    int
	MaxIdleTime int
	AutoMigrate bool
}

type JWTConfig struct {
	Secret       string
	Issuer       string
	AccessExpiry time.Duration
}

// CodesConfig define as janelas de validade dos códigos de uso único
type CodesConfig struct {
	VerificationTTL  time.Duration
	PasswordResetTTL time.Duration
	Length           int
	ResetCodeStyle   string // "numeric" ou "token"
}

type SecurityConfig struct {
	BcryptCost int
}

type SMSConfig struct {
	Provider string // "pindo" ou "log"
	APIURL   string
	APIToken string
	Sender   string
	Timeout  time.Duration
}

type LoggingConfig struct {
	Level string
}

type CORSConfig struct {
	AllowedOrigins string
}

// Origins retorna as origens permitidas; nil quando qualquer origem vale ("*" ou vazio)
func (c CORSConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			return nil
		}
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// RealtimeConfig controla o feed de eventos por websocket
type RealtimeConfig struct {
	SessionRecheck time.Duration
}

type I18nConfig struct {
	LocalesDir      string
	DefaultLanguage string
}

// BootstrapConfig descreve o admin criado na primeira inicialização, se configurado
type BootstrapConfig struct {
	AdminPhone    string
	AdminPassword string
	AdminName     string
}

const (
	ResetCodeNumeric = "numeric"
	ResetCodeToken   = "token"

	SMSProviderPindo = "pindo"
	SMSProviderLog   = "log"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8080")
	v.SetDefault("API_BASE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "carelink")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_TIME", 300)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("JWT_ISSUER", "carelink-accounts")
	v.SetDefault("JWT_ACCESS_EXPIRY", "30m")

	v.SetDefault("VERIFICATION_CODE_TTL", "10m")
	v.SetDefault("PASSWORD_RESET_TTL", "15m")
	v.SetDefault("VERIFICATION_CODE_LENGTH", 6)
	v.SetDefault("PASSWORD_RESET_CODE_STYLE", ResetCodeNumeric)

	v.SetDefault("BCRYPT_COST", 10)

	v.SetDefault("SMS_PROVIDER", SMSProviderLog)
	v.SetDefault("SMS_API_URL", "https://api.pindo.io/v1/sms/")
	v.SetDefault("SMS_SENDER", "PindoTest")
	v.SetDefault("SMS_TIMEOUT", "10s")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("I18N_LOCALES_DIR", "") // vazio usa os catálogos embutidos
	v.SetDefault("I18N_DEFAULT_LANGUAGE", "en")
	v.SetDefault("WS_SESSION_RECHECK", "1m")
	v.SetDefault("BOOTSTRAP_ADMIN_NAME", "System Administrator")
}

// Load carrega as configurações do ambiente; um arquivo .env, se existir, é lido antes
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	config := &Config{
		Env: v.GetString("ENV"),
		Server: ServerConfig{
			Port:    v.GetString("PORT"),
			Host:    v.GetString("HOST"),
			BaseURL: v.GetString("API_BASE_URL"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetInt("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASS"),
			DBName:      v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSL_MODE"),
			MaxConns:    v.GetInt("DB_MAX_CONNS"),
			MinConns:    v.GetInt("DB_MIN_CONNS"),
			MaxIdleTime: v.GetInt("DB_MAX_IDLE_TIME"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			Issuer:       v.GetString("JWT_ISSUER"),
			AccessExpiry: v.GetDuration("JWT_ACCESS_EXPIRY"),
		},
		Codes: CodesConfig{
			VerificationTTL:  v.GetDuration("VERIFICATION_CODE_TTL"),
			PasswordResetTTL: v.GetDuration("PASSWORD_RESET_TTL"),
			Length:           v.GetInt("VERIFICATION_CODE_LENGTH"),
			ResetCodeStyle:   strings.ToLower(v.GetString("PASSWORD_RESET_CODE_STYLE")),
		},
		Security: SecurityConfig{
			BcryptCost: v.GetInt("BCRYPT_COST"),
		},
		SMS: SMSConfig{
			Provider: strings.ToLower(v.GetString("SMS_PROVIDER")),
			APIURL:   v.GetString("SMS_API_URL"),
			APIToken: v.GetString("SMS_API_TOKEN"),
			Sender:   v.GetString("SMS_SENDER"),
			Timeout:  v.GetDuration("SMS_TIMEOUT"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetString("CORS_ALLOWED_ORIGINS"),
		},
		I18n: I18nConfig{
			LocalesDir:      v.GetString("I18N_LOCALES_DIR"),
			DefaultLanguage: v.GetString("I18N_DEFAULT_LANGUAGE"),
		},
		Realtime: RealtimeConfig{
			SessionRecheck: v.GetDuration("WS_SESSION_RECHECK"),
		},
		Bootstrap: BootstrapConfig{
			AdminPhone:    v.GetString("BOOTSTRAP_ADMIN_PHONE"),
			AdminPassword: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
			AdminName:     v.GetString("BOOTSTRAP_ADMIN_NAME"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// IsProduction indica se o ambiente é de produção
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate verifica combinações inválidas de configuração
func (c *Config) Validate() error {
	var problems []string

	if c.JWT.Secret == "" {
		if c.IsProduction() {
			problems = append(problems, "JWT_SECRET is required in production")
		} else {
			c.JWT.Secret = "insecure-development-secret-change-me"
		}
	}
	if c.JWT.AccessExpiry <= 0 {
		problems = append(problems, "JWT_ACCESS_EXPIRY must be positive")
	}
	if c.Codes.VerificationTTL <= 0 {
		problems = append(problems, "VERIFICATION_CODE_TTL must be positive")
	}
	if c.Codes.PasswordResetTTL <= 0 {
		problems = append(problems, "PASSWORD_RESET_TTL must be positive")
	}
	if c.Codes.Length < 4 || c.Codes.Length > 10 {
		problems = append(problems, "VERIFICATION_CODE_LENGTH must be between 4 and 10")
	}
	if c.Codes.ResetCodeStyle != ResetCodeNumeric && c.Codes.ResetCodeStyle != ResetCodeToken {
		problems = append(problems, "PASSWORD_RESET_CODE_STYLE must be numeric or token")
	}
	switch c.SMS.Provider {
	case SMSProviderLog:
	case SMSProviderPindo:
		if c.SMS.APIToken == "" {
			problems = append(problems, "SMS_API_TOKEN is required for the pindo provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown SMS_PROVIDER %q", c.SMS.Provider))
	}
	if c.SMS.Timeout <= 0 {
		problems = append(problems, "SMS_TIMEOUT must be positive")
	}
	if c.Realtime.SessionRecheck <= 0 {
		problems = append(problems, "WS_SESSION_RECHECK must be positive")
	}
	if (c.Bootstrap.AdminPhone == "") != (c.Bootstrap.AdminPassword == "") {
		problems = append(problems, "BOOTSTRAP_ADMIN_PHONE and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DSN retorna a connection string do PostgreSQL
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}
