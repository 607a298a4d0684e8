package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, public URL, credentials)
// - default: Values common across all environments (timezone, timeouts, backends)
// -----------------------------------------------------------------------------

type Config struct {
	Server ServerConfig
	Coupon CouponConfig
	Ledger LedgerConfig
	DB     DBConfig
	Sheets SheetsConfig
	Lock   LockConfig
	Mail   MailConfig
	CORS   CORSConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type CouponConfig struct {
	PublicBaseURL    string `envconfig:"COUPON_PUBLIC_BASE_URL" required:"true"`
	CodeLength       int    `envconfig:"COUPON_CODE_LENGTH" default:"8"`
	MaxIssueAttempts int    `envconfig:"COUPON_MAX_ISSUE_ATTEMPTS" default:"3"`
	DateLayout       string `envconfig:"COUPON_DATE_LAYOUT" default:"2006-01-02 15:04:05"`
	BrandName        string `envconfig:"COUPON_BRAND_NAME" default:"Many Offers"`
}

const (
	LedgerBackendPostgres = "postgres"
	LedgerBackendSheets   = "sheets"
	LedgerBackendMemory   = "memory"
)

type LedgerConfig struct {
	Backend string `envconfig:"LEDGER_BACKEND" default:"postgres"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	DBName   string `envconfig:"DB_NAME"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
}

type SheetsConfig struct {
	SpreadsheetID   string `envconfig:"SHEETS_SPREADSHEET_ID"`
	SheetName       string `envconfig:"SHEETS_SHEET_NAME" default:"Sheet1"`
	CredentialsJSON string `envconfig:"GOOGLE_CREDENTIALS"`
	HasHeader       bool   `envconfig:"SHEETS_HAS_HEADER" default:"true"`
}

const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

type LockConfig struct {
	Backend       string        `envconfig:"LOCK_BACKEND" default:"local"`
	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL           time.Duration `envconfig:"LOCK_TTL" default:"10s"`
	Wait          time.Duration `envconfig:"LOCK_WAIT" default:"5s"`
}

const (
	MailProviderSES = "ses"
	MailProviderLog = "log"
)

type MailConfig struct {
	Provider        string `envconfig:"MAIL_PROVIDER" default:"log"`
	From            string `envconfig:"MAIL_FROM"`
	FromName        string `envconfig:"MAIL_FROM_NAME" default:"Many Offers"`
	Region          string `envconfig:"AWS_REGION" default:"us-east-1"`
	AccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"false"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

// Validate checks the settings that only matter for the selected backends.
func (c Config) Validate() error {
	switch c.Ledger.Backend {
	case LedgerBackendPostgres:
		if c.DB.User == "" || c.DB.DBName == "" {
			return fmt.Errorf("postgres ledger requires DB_USER and DB_NAME")
		}
	case LedgerBackendSheets:
		if c.Sheets.SpreadsheetID == "" || c.Sheets.CredentialsJSON == "" {
			return fmt.Errorf("sheets ledger requires SHEETS_SPREADSHEET_ID and GOOGLE_CREDENTIALS")
		}
	case LedgerBackendMemory:
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q", c.Ledger.Backend)
	}

	switch c.Lock.Backend {
	case LockBackendLocal, LockBackendRedis:
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", c.Lock.Backend)
	}

	switch c.Mail.Provider {
	case MailProviderSES:
		if c.Mail.From == "" {
			return fmt.Errorf("ses mail provider requires MAIL_FROM")
		}
	case MailProviderLog:
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.Mail.Provider)
	}

	if c.Coupon.CodeLength < 4 || c.Coupon.CodeLength > 32 {
		return fmt.Errorf("COUPON_CODE_LENGTH must be between 4 and 32, got %d", c.Coupon.CodeLength)
	}
	if c.Coupon.MaxIssueAttempts < 1 {
		return fmt.Errorf("COUPON_MAX_ISSUE_ATTEMPTS must be positive, got %d", c.Coupon.MaxIssueAttempts)
	}
	return nil
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		Coupon: CouponConfig{
			PublicBaseURL:    "http://localhost:8889",
			CodeLength:       8,
			MaxIssueAttempts: 3,
			DateLayout:       "2006-01-02 15:04:05",
			BrandName:        "Many Offers",
		},
		Ledger: LedgerConfig{
			Backend: LedgerBackendMemory,
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Sheets: SheetsConfig{
			SheetName: "Sheet1",
			HasHeader: true,
		},
		Lock: LockConfig{
			Backend: LockBackendLocal,
			TTL:     5 * time.Second,
			Wait:    2 * time.Second,
		},
		Mail: MailConfig{
			Provider: MailProviderLog,
			FromName: "Many Offers",
			Region:   "us-east-1",
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			MaxAge:       time.Hour,
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
	}
}
