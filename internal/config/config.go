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

	// Bucket for archiving frames rejected by the 256-byte protocol ceiling.
	S3BucketName string

	// Ops alert topic for aborted delivery batches.
	SNSRegion   string
	SNSTopicARN string

	// APNs gateway connection.
	GatewaySandbox      bool
	CertificatePath     string // PKCS#12 bundle holding the gateway client certificate
	CertificatePassword string

	// Delivery behaviour.
	ExpirySeconds    int // enhanced-frame expiry window
	ResponseTimeout  time.Duration
	DeliveryInterval time.Duration // 0 disables the background scheduler

	JWTPublicKeyPath  string
	JWTPrivateKeyPath string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Notifications string
	Devices       string
	Counters      string
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
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "apns_notifications"),
			Devices:       getEnv("DYNAMO_TABLE_DEVICES", "apns_devices"),
			Counters:      getEnv("DYNAMO_TABLE_COUNTERS", "apns_counters"),
		},

		S3BucketName: getEnv("S3_BUCKET_NAME", "apns-frame-archive"),

		SNSRegion:   getEnv("SNS_REGION", "us-east-1"),
		SNSTopicARN: getEnv("SNS_TOPIC_ARN", ""),

		GatewaySandbox:      getEnvBool("APNS_SANDBOX", true),
		CertificatePath:     getEnv("APNS_CERTIFICATE_PATH", "./apns.p12"),
		CertificatePassword: getEnv("APNS_CERTIFICATE_PASSWORD", ""),

		// 30 days, the gateway default for enhanced-frame expiry.
		ExpirySeconds:    getEnvInt("APNS_EXPIRY_SECONDS", 2592000),
		ResponseTimeout:  time.Duration(getEnvInt("APNS_RESPONSE_TIMEOUT_SECONDS", 5)) * time.Second,
		DeliveryInterval: time.Duration(getEnvInt("DELIVERY_INTERVAL_SECONDS", 0)) * time.Second,

		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
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

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
