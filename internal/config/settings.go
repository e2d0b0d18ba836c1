package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the server reads, e.g.
// BRIGHTCODERS_SERVER_PORT.
const EnvPrefix = "BRIGHTCODERS"

// Settings is the fully resolved server configuration.
type Settings struct {
	Env      string           `mapstructure:"env"`
	Server   ServerSettings   `mapstructure:"server"`
	Database DatabaseSettings `mapstructure:"database"`
	Auth     AuthSettings     `mapstructure:"auth"`
	Mail     MailSettings     `mapstructure:"mail"`
	Uploads  UploadSettings   `mapstructure:"uploads"`
	Metrics  MetricsSettings  `mapstructure:"metrics"`
	Log      LogSettings      `mapstructure:"log"`
}

// ServerSettings controls the HTTP listener.
type ServerSettings struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`

	// TrustProxy reads client addresses from forwarding headers. Enable it
	// only behind a proxy that sets them.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

// DatabaseSettings selects the store backend.
type DatabaseSettings struct {
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	DataDir string `mapstructure:"data_dir"`
}

// AuthSettings controls session tokens.
type AuthSettings struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// MailSettings configures outbound email. An empty API key logs mail
// instead of sending it.
type MailSettings struct {
	ResendAPIKey string `mapstructure:"resend_api_key"`
	From         string `mapstructure:"from"`
	AlertsFrom   string `mapstructure:"alerts_from"`
	AdminEmail   string `mapstructure:"admin_email"`
}

// UploadSettings selects where uploaded images are stored.
type UploadSettings struct {
	Backend       string     `mapstructure:"backend"`
	Dir           string     `mapstructure:"dir"`
	PublicBaseURL string     `mapstructure:"public_base_url"`
	S3            S3Settings `mapstructure:"s3"`
}

// S3Settings configures the S3-compatible upload backend.
type S3Settings struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// MetricsSettings controls the Prometheus endpoint. /metrics is served only
// when Token is set, and scrapers must send it as a bearer token.
type MetricsSettings struct {
	Token string `mapstructure:"token"`
}

// LogSettings controls log output.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() *Settings {
	return &Settings{
		Env: "development",
		Server: ServerSettings{
			Host:            "0.0.0.0",
			Port:            5000,
			CORSOrigins:     []string{"http://localhost:5173", "https://*.vercel.app"},
			ShutdownTimeout: 30 * time.Second,
			MaxBodySize:     10 << 20,
		},
		Auth: AuthSettings{
			SessionTTL: time.Hour,
		},
		Mail: MailSettings{
			From:       "Bright Coders <onboarding@resend.dev>",
			AlertsFrom: "Bright Coders Alerts <onboarding@resend.dev>",
		},
		Uploads: UploadSettings{
			Backend: "local",
			Dir:     "uploads",
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

// legacyEnv maps keys to the bare variable names older deployments export.
var legacyEnv = map[string]string{
	"env":                 "NODE_ENV",
	"server.port":         "PORT",
	"database.dsn":        "DATABASE_URL",
	"auth.jwt_secret":     "JWT_SECRET",
	"mail.resend_api_key": "RESEND_API_KEY",
	"mail.admin_email":    "ADMIN_EMAIL",
}

// NewViper returns a viper instance with defaults registered and environment
// lookups configured. Callers add flags and config files on top.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range flatten(DefaultSettings().toMap(false), "") {
		v.SetDefault(key, value)
	}
	for key, legacy := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, envKey, legacy)
	}
	return v
}

// LoadSettings decodes v into Settings and validates the result.
func LoadSettings(v *viper.Viper) (*Settings, error) {
	s, err := DecodeSettings(v)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// DecodeSettings decodes v into Settings without validating it. Commands
// that only touch the database use it so they run without a JWT secret.
func DecodeSettings(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if s.Database.Driver == "" {
		if s.Database.DSN != "" {
			s.Database.Driver = DriverPostgres
		} else {
			s.Database.Driver = DriverSQLite
		}
	}
	s.Database.Driver = normalizeDriver(s.Database.Driver)
	return &s, nil
}

func normalizeDriver(d string) string {
	switch strings.ToLower(d) {
	case "postgres", "postgresql", "pg", "pgx":
		return DriverPostgres
	case "sqlite", "sqlite3":
		return DriverSQLite
	}
	return d
}

// IsProduction reports whether the server runs in production mode, which
// switches cookies to Secure/SameSite=None.
func (s *Settings) IsProduction() bool {
	return strings.EqualFold(s.Env, "production")
}

// Validate checks the settings for values the server cannot start with.
func (s *Settings) Validate() error {
	var errs []error
	if s.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	} else if s.IsProduction() && len(s.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 32 characters in production"))
	}
	if s.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("auth.session_ttl must be positive"))
	}
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", s.Server.Port))
	}
	switch s.Database.Driver {
	case DriverPostgres:
		if s.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for the pgx driver"))
		}
	case DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", s.Database.Driver))
	}
	switch s.Uploads.Backend {
	case "local":
		if s.Uploads.Dir == "" {
			errs = append(errs, errors.New("uploads.dir is required for the local backend"))
		}
	case "s3":
		if s.Uploads.S3.Bucket == "" {
			errs = append(errs, errors.New("uploads.s3.bucket is required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("uploads.backend %q is not supported", s.Uploads.Backend))
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not supported", s.Log.Format))
	}
	return errors.Join(errs...)
}

// Masked returns the settings as a nested map with secrets replaced, for
// display.
func (s *Settings) Masked() map[string]interface{} {
	return s.toMap(true)
}

// WriteSettingsTemplate writes the default settings to a YAML file.
func WriteSettingsTemplate(path string) error {
	data, err := yaml.Marshal(DefaultSettings().toMap(false))
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	header := "# Bright Coders server configuration.\n" +
		"# Every key can be overridden with BRIGHTCODERS_<SECTION>_<KEY>.\n"
	return os.WriteFile(path, append([]byte(header), data...), 0644)
}

func (s *Settings) toMap(mask bool) map[string]interface{} {
	secret := func(v string) string {
		if mask && v != "" {
			return "********"
		}
		return v
	}
	return map[string]interface{}{
		"env": s.Env,
		"server": map[string]interface{}{
			"host":             s.Server.Host,
			"port":             s.Server.Port,
			"cors_origins":     s.Server.CORSOrigins,
			"shutdown_timeout": s.Server.ShutdownTimeout.String(),
			"max_body_size":    s.Server.MaxBodySize,
			"trust_proxy":      s.Server.TrustProxy,
		},
		"database": map[string]interface{}{
			"driver":   s.Database.Driver,
			"dsn":      secret(s.Database.DSN),
			"data_dir": s.Database.DataDir,
		},
		"auth": map[string]interface{}{
			"jwt_secret":  secret(s.Auth.JWTSecret),
			"session_ttl": s.Auth.SessionTTL.String(),
		},
		"mail": map[string]interface{}{
			"resend_api_key": secret(s.Mail.ResendAPIKey),
			"from":           s.Mail.From,
			"alerts_from":    s.Mail.AlertsFrom,
			"admin_email":    s.Mail.AdminEmail,
		},
		"uploads": map[string]interface{}{
			"backend":         s.Uploads.Backend,
			"dir":             s.Uploads.Dir,
			"public_base_url": s.Uploads.PublicBaseURL,
			"s3": map[string]interface{}{
				"bucket":            s.Uploads.S3.Bucket,
				"region":            s.Uploads.S3.Region,
				"endpoint":          s.Uploads.S3.Endpoint,
				"access_key_id":     s.Uploads.S3.AccessKeyID,
				"secret_access_key": secret(s.Uploads.S3.SecretAccessKey),
			},
		},
		"metrics": map[string]interface{}{
			"token": secret(s.Metrics.Token),
		},
		"log": map[string]interface{}{
			"level":  s.Log.Level,
			"format": s.Log.Format,
		},
	}
}

// Flatten turns a nested settings map such as Masked returns into dotted
// keys ("server.port").
func Flatten(m map[string]interface{}) map[string]interface{} {
	return flatten(m, "")
}

func flatten(m map[string]interface{}, prefix string) map[string]interface{} {
	out := make(map[string]interface{})
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]interface{}); ok {
			for nk, nv := range flatten(nested, key) {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}
