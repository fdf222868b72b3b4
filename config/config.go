package config

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	// MinJWTSecretLength is the minimum required length for the token signing secret in production
	MinJWTSecretLength = 32
)

type Config struct {
	ServerPort  string
	Environment string
	LogLevel    string
	Timezone    string
	// Database
	DBDriver         string // sqlite, libsql or mysql
	DBPath           string
	DatabaseURL      string
	TursoDatabaseURL string
	TursoAuthToken   string
	// Auth
	JWTSecret string
	JWTExpiry time.Duration
	InvitePIN string
	// Public forms
	TurnstileSecretKey string
	// Email (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged instead of sent
	// HTTP
	AllowedOrigins []string
	FrontendURL    string
	// Storage
	UploadDir         string
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	StorageEndpoint   string
	StorageRegion     string
	// Intelligence
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAITimeout      time.Duration
	ANACNewsURL        string
	ScraperTimeout     time.Duration
	SlackWebhookURL    string
	DecisionMatrixPath string
	// Scheduler
	SchedulerEnabled   bool
	ScraperSchedule    string
	NewsletterSchedule string
	PhaseAlertSchedule string
	ReminderSchedule   string
	CleanupSchedule    string
	ChromeRemoteURL    string
	RateLimitEnabled   bool
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using system environment variables")
	}

	environment := getEnv("ENVIRONMENT", "development")
	jwtSecret := getEnv("JWT_SECRET", "")

	// Fatal in production if invalid
	ValidateJWTSecret(jwtSecret, environment)

	if jwtSecret == "" && environment != "production" {
		jwtSecret = GenerateSecureSecret()
		log.Info().Msg("generated temporary JWT secret for development; set JWT_SECRET for persistence")
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "5000"),
		Environment:        environment,
		LogLevel:           getEnv("LOG_LEVEL", ""),
		Timezone:           getEnv("TIMEZONE", "America/Argentina/Buenos_Aires"),
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:             getEnv("DB_PATH", "db/jetlex.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		TursoDatabaseURL:   getEnv("TURSO_DATABASE_URL", ""),
		TursoAuthToken:     getEnv("TURSO_AUTH_TOKEN", ""),
		JWTSecret:          jwtSecret,
		JWTExpiry:          getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		InvitePIN:          getEnv("INVITE_PIN", ""),
		TurnstileSecretKey: getEnv("TURNSTILE_SECRET_KEY", ""),
		ResendAPIKey:       getEnv("RESEND_API_KEY", ""),
		EmailFrom:          getEnv("EMAIL_FROM", "noreply@jetlex.com.ar"),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Jetlex ANAC Intelligence"),
		EmailTestMode:      getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		AllowedOrigins:     strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		R2AccountID:        getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:      getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey:  getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:       getEnv("R2_BUCKET_NAME", ""),
		StorageEndpoint:    getEnv("STORAGE_ENDPOINT", ""),
		StorageRegion:      getEnv("STORAGE_REGION", "auto"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4"),
		OpenAITimeout:      getEnvDuration("OPENAI_TIMEOUT", 60*time.Second),
		ANACNewsURL:        getEnv("ANAC_NEWS_URL", "https://www.anac.gov.ar/anac/web/index.php/1/22/noticias"),
		ScraperTimeout:     getEnvDuration("SCRAPER_TIMEOUT", 30*time.Second),
		SlackWebhookURL:    getEnv("SLACK_WEBHOOK_URL", ""),
		DecisionMatrixPath: getEnv("DECISION_MATRIX_PATH", "config/decision_matrix.yaml"),
		SchedulerEnabled:   getEnvBool("SCHEDULER_ENABLED", true),
		ScraperSchedule:    getEnv("CRON_SCRAPER", "0 9,14,18 * * *"),
		NewsletterSchedule: getEnv("CRON_NEWSLETTER", "0 9 * * 1"),
		PhaseAlertSchedule: getEnv("CRON_PHASE_ALERTS", "0 7 * * *"),
		ReminderSchedule:   getEnv("CRON_EVENT_REMINDERS", "0 8 * * 1"),
		CleanupSchedule:    getEnv("CRON_TOKEN_CLEANUP", "30 3 * * *"),
		ChromeRemoteURL:    getEnv("CHROME_REMOTE_URL", ""),
		RateLimitEnabled:   getEnvBool("RATE_LIMIT_ENABLED", true),
	}
}

// ObjectStorageConfigured reports whether bucket credentials are present
func (c *Config) ObjectStorageConfigured() bool {
	return c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != "" &&
		(c.R2AccountID != "" || c.StorageEndpoint != "")
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location returns the configured time zone, falling back to UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", c.Timezone).Msg("invalid timezone, using UTC")
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid integer, using default")
		return defaultValue
	}
	return n
}

// getEnvDuration accepts Go durations ("45s") or a plain number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs := getEnvInt(key, -1); secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// ValidateJWTSecret validates the token signing secret.
// In production it must be at least 32 bytes and not a known insecure default.
func ValidateJWTSecret(secret string, environment string) error {
	insecureDefaults := []string{
		"dev-secret-change-in-production",
		"change-me",
		"secret",
		"development",
		"test",
		"",
	}

	for _, insecure := range insecureDefaults {
		if strings.EqualFold(secret, insecure) {
			if environment == "production" {
				log.Fatal().Msg("JWT_SECRET is set to an insecure default value. Generate a secure random secret with: openssl rand -base64 32")
			}
			log.Warn().Msg("JWT_SECRET is set to an insecure default value. This is acceptable only in development.")
			return nil
		}
	}

	if environment == "production" && len(secret) < MinJWTSecretLength {
		log.Fatal().Int("length", len(secret)).Msgf("JWT_SECRET must be at least %d characters in production", MinJWTSecretLength)
	}

	return nil
}

// GenerateSecureSecret generates a cryptographically secure random secret.
// Used only in development when no secret is provided.
func GenerateSecureSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Warn().Err(err).Msg("failed to generate secure secret")
		return ""
	}
	return base64.StdEncoding.EncodeToString(bytes)
}
