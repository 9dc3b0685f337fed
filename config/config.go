package config

import (
	"github.com/joho/godotenv"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type MailboxConfig struct {
	Server         string
	Username       string
	Password       string
	Folder         string
	IgnoredSenders []string
	// ShortCircuit stops the incremental scan at the first message not
	// newer than the checkpoint instead of checking every candidate.
	// Only safe when the server returns messages in date order.
	ShortCircuit bool
}

type OpenAIConfig struct {
	APIKey string
	OrgID  string
	Model  string
}

type ParcelsAppConfig struct {
	BaseUri         string
	APIKey          string
	Country         string
	PostalCode      string
	PollInterval    time.Duration
	MaxPollAttempts int
}

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

type Config struct {
	DataDirectory string
	LogsDirectory string
	Schedule      string
	NotifyAddress string
	Mailbox       *MailboxConfig
	OpenAI        *OpenAIConfig
	ParcelsApp    *ParcelsAppConfig
	SMTP          *SMTPConfig
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return &Config{
		DataDirectory: getEnv("DATA_DIRECTORY", "."),
		LogsDirectory: getEnv("LOGS_DIRECTORY", "logs"),
		Schedule:      getEnv("SCAN_SCHEDULE", "*/30 * * * *"),
		NotifyAddress: os.Getenv("NOTIFY_ADDRESS"),
		Mailbox: &MailboxConfig{
			Server:         getEnv("IMAP_SERVER", "imap.gmail.com:993"),
			Username:       os.Getenv("IMAP_USERNAME"),
			Password:       os.Getenv("IMAP_PASSWORD"),
			Folder:         getEnv("IMAP_FOLDER", "INBOX"),
			IgnoredSenders: splitList(getEnv("IGNORED_SENDERS", "paypal.com")),
			ShortCircuit:   getBool("SCAN_SHORT_CIRCUIT", false),
		},
		OpenAI: &OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			OrgID:  os.Getenv("OPENAI_ORG_ID"),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o"),
		},
		ParcelsApp: &ParcelsAppConfig{
			BaseUri:         getEnv("PARCELSAPP_BASE_URI", "https://parcelsapp.com/api/v3/shipments/tracking"),
			APIKey:          os.Getenv("PARCELSAPP_API_KEY"),
			Country:         getEnv("TRACKING_COUNTRY", "Canada"),
			PostalCode:      os.Getenv("TRACKING_POSTAL_CODE"),
			PollInterval:    getDuration("TRACKING_POLL_INTERVAL", 10*time.Second),
			MaxPollAttempts: getInt("TRACKING_MAX_POLLS", 30),
		},
		SMTP: &SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getInt("SMTP_PORT", 465),
			From:     os.Getenv("SMTP_FROM"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s: %v", key, err)
		return fallback
	}
	return parsed
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid value for %s: %v", key, err)
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid value for %s: %v", key, err)
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
