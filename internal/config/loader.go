package config

import (
	"fmt"

	"github.com/intelboard/api/internal/db"

	"github.com/spf13/viper"
)

// Config carries everything the server needs at startup.
type Config struct {
	Server   ServerConfig
	Database db.Config
	Session  SessionConfig
}

// ServerConfig holds HTTP level settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	MaxUploadBytes int64
}

// SessionConfig holds per-session staging settings.
type SessionConfig struct {
	ProcessedRetention int
}

// Load reads config.yaml from the given path, with environment overrides.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
			MaxUploadBytes: 32 << 20,
		},
		Database: db.DefaultConfig(),
		Session: SessionConfig{
			ProcessedRetention: 64,
		},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()      // allow environment overrides
	v.SetEnvPrefix("APP") // map env vars like APP_SERVER_ADDR

	v.BindEnv("server.addr")
	v.BindEnv("database.driver")
	v.BindEnv("database.path")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("server.max_upload_bytes") {
		cfg.Server.MaxUploadBytes = v.GetInt64("server.max_upload_bytes")
	}
	if v.IsSet("database.driver") {
		cfg.Database.Driver = v.GetString("database.driver")
	}
	if v.IsSet("database.path") {
		cfg.Database.Path = v.GetString("database.path")
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
	if v.IsSet("session.processed_retention") {
		cfg.Session.ProcessedRetention = v.GetInt("session.processed_retention")
	}

	if cfg.Database.Driver != db.DriverSQLite && cfg.Database.Driver != db.DriverPostgres {
		return cfg, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	return cfg, nil
}
