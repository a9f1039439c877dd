package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	SNSRegion      string

	// CompanyName is the tenant namespace this instance serves. It also
	// becomes the SMS sender id (the From field of outbound messages).
	CompanyName string
	// DefaultMessage is used when a request carries no template. It must
	// contain the ~ placeholder.
	DefaultMessage string
	// PendingTTL bounds how long an unverified code stays redeemable.
	PendingTTL time.Duration

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Confirmations string
	Deliveries    string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Confirmations: getEnv("DYNAMO_TABLE_CONFIRMATIONS", "confirmations"),
			Deliveries:    getEnv("DYNAMO_TABLE_DELIVERIES", "deliveries"),
		},
		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		CompanyName:    getEnv("COMPANY_NAME", "acme"),
		DefaultMessage: getEnv("DEFAULT_MESSAGE", "Your confirmation code: ~"),
		PendingTTL:     time.Duration(getEnvInt("PENDING_TTL_HOURS", 24)) * time.Hour,

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
