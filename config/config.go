package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	IdentityPort  int
	UsersPort     int
	QuestionsPort int
	AttemptsPort  int

	Database DatabaseConfig
	Secrets  SecretsConfig
	Peers    PeersConfig
	Mail     MailConfig
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
	Minio    MinioConfig
	GCS      GCSConfig

	// MailDriver selects how outbound mail is dispatched: "resend"
	// sends synchronously, "queue" publishes a job for the mailworker.
	MailDriver string

	// MQDriver selects the queue backend: "rabbitmq" or "pubsub".
	MQDriver string

	// StorageDriver selects the avatar object store: "minio" or "gcs".
	StorageDriver string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// SecretsConfig carries the signing secrets, one per token class, plus
// the inter-service bypass secret. The three token secrets must be
// distinct: a token minted for one class must never verify under
// another class's secret.
type SecretsConfig struct {
	SessionSecret      string
	VerificationSecret string
	ResetSecret        string
	BypassSecret       string
}

// PeersConfig holds the network addresses services use to reach each
// other, and the public frontend base URL embedded in emailed links.
type PeersConfig struct {
	IdentityURL string
	UsersURL    string
	FrontendURL string
}

type MailConfig struct {
	ResendAPIKey string
	From         string
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return Config{
		IdentityPort:  getEnvInt("IDENTITY_PORT", 8080),
		UsersPort:     getEnvInt("USERS_PORT", 8081),
		QuestionsPort: getEnvInt("QUESTIONS_PORT", 8082),
		AttemptsPort:  getEnvInt("ATTEMPTS_PORT", 8083),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "quizdeck"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "quizdeck_db"),
			UseSSL:   getEnvBool("DB_USE_SSL", false),
		},
		Secrets: SecretsConfig{
			SessionSecret:      os.Getenv("SESSION_SECRET"),
			VerificationSecret: os.Getenv("VERIFICATION_SECRET"),
			ResetSecret:        os.Getenv("RESET_SECRET"),
			BypassSecret:       os.Getenv("BYPASS_SECRET"),
		},
		Peers: PeersConfig{
			IdentityURL: getEnv("IDENTITY_URL", "http://localhost:8080"),
			UsersURL:    getEnv("USERS_URL", "http://localhost:8081"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Mail: MailConfig{
			ResendAPIKey: os.Getenv("RESEND_API_KEY"),
			From:         getEnv("MAIL_FROM", "QuizDeck <no-reply@quizdeck.app>"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:             os.Getenv("RABBITMQ_URL"),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTODELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH", 8),
		},
		PubSub: PubSubConfig{
			ProjectID:          os.Getenv("PUBSUB_PROJECT_ID"),
			CredentialsFile:    os.Getenv("PUBSUB_CREDENTIALS_FILE"),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "quizdeck-avatars"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          os.Getenv("GCS_BUCKET"),
			ProjectID:       os.Getenv("GCS_PROJECT_ID"),
			CredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
		},
		MailDriver:    getEnv("MAIL_DRIVER", "resend"),
		MQDriver:      getEnv("MQ_DRIVER", "rabbitmq"),
		StorageDriver: getEnv("STORAGE_DRIVER", "minio"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return value == "true" || value == "1"
	}
	return defaultValue
}
