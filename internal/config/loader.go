package config

import (
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/regworks/companies-register/internal/db"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// AuthConfig holds identity and capability settings. Roles maps actor
// subjects to register roles (REGISTRAR, AUTHORITY, APPLICANT).
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Roles     map[string][]string
}

// BulkConfig bounds bulk operation processing.
type BulkConfig struct {
	Workers          int
	MaxUploadBytes   int64
	ExecutionTimeout time.Duration
}

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig
	Database db.Config
	Auth     AuthConfig
	Bulk     BulkConfig
}

// Load reads config.yaml from configPath, with environment overrides under
// the REGISTER prefix (e.g. REGISTER_DATABASE_HOST). A missing file means
// defaults plus environment.
func Load(configPath string, logger *zap.Logger) (Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
		},
		Database: db.DefaultConfig(),
		Auth: AuthConfig{
			Issuer: "companies-register",
		},
		Bulk: BulkConfig{
			Workers:          4,
			MaxUploadBytes:   32 << 20,
			ExecutionTimeout: 10 * time.Second,
		},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("REGISTER")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")
	v.BindEnv("auth.jwt_secret")

	if err := v.ReadInConfig(); err != nil {
		logger.Info("no config.yaml found, using defaults and env vars")
	} else {
		logger.Info("loaded config.yaml", zap.String("file", v.ConfigFileUsed()))
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("auth.jwt_secret") {
		cfg.Auth.JWTSecret = v.GetString("auth.jwt_secret")
	}
	if v.IsSet("auth.issuer") {
		cfg.Auth.Issuer = v.GetString("auth.issuer")
	}
	if v.IsSet("auth.roles") {
		cfg.Auth.Roles = v.GetStringMapStringSlice("auth.roles")
	}
	if v.IsSet("bulk.workers") {
		cfg.Bulk.Workers = v.GetInt("bulk.workers")
	}
	if v.IsSet("bulk.max_upload_bytes") {
		cfg.Bulk.MaxUploadBytes = v.GetInt64("bulk.max_upload_bytes")
	}
	if v.IsSet("bulk.execution_timeout") {
		cfg.Bulk.ExecutionTimeout = v.GetDuration("bulk.execution_timeout")
	}

	return cfg, nil
}
