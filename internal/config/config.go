package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Scan   ScanConfig
	Kafka  KafkaConfig
	Email  EmailConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Addr string
}

type ScanConfig struct {
	// SecretKey authorizes ticket submission. Required by the scan
	// service; its main refuses to start without it.
	SecretKey string
	// AllowedOrigins, when set, is emitted as the CORS allow-origin
	// header for browser-based scanner clients.
	AllowedOrigins string
	// EventJoin selects the deployment variant that enriches ticket
	// data responses with the related event record.
	EventJoin bool
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type EmailConfig struct {
	MailgunAPIKey string
	MailgunDomain string
	From          string
	TemplateID    string
	Tag           string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Scan: ScanConfig{
			SecretKey:      os.Getenv("SECRET_KEY"),
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
			EventJoin:      getEnvBool("EVENT_JOIN", false),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC_SCANS", "ticket-scans"),
		},
		Email: EmailConfig{
			MailgunAPIKey: os.Getenv("MAILGUN_API_KEY"),
			MailgunDomain: getEnv("MAILGUN_DOMAIN", "mg.orchestra.sg"),
			From:          getEnv("MAILGUN_FROM", "OMM Ticketing <ticketing@orchestra.sg>"),
			TemplateID:    os.Getenv("MAILGUN_TEMPLATE_ID"),
			Tag:           getEnv("MAILGUN_TAG", "omm_pilot"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
