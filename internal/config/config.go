package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPPort    string
	DatabaseURL string
	Store       string

	RabbitMQUser string
	RabbitMQPass string
	RabbitMQHost string
	RabbitMQPort string

	RedisURL      string
	AdminCacheTTL time.Duration

	MailHost string
	MailPort int
	MailUser string
	MailPass string
	MailFrom string

	MonitorSchedule     string
	QueueAlertThreshold int
	UrgentWait          time.Duration

	DrainStopOnFirstFailure bool
	DispatchBuffer          int
	DispatchWorkers         int
}

// Load lê o .env (se existir) e depois as variáveis de ambiente.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	var errs []string
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Store:           strings.ToLower(getEnv("STORE", StorePostgres)),
		RabbitMQUser:    os.Getenv("RABBITMQ_USER"),
		RabbitMQPass:    os.Getenv("RABBITMQ_PASS"),
		RabbitMQHost:    os.Getenv("RABBITMQ_HOST"),
		RabbitMQPort:    getEnv("RABBITMQ_PORT", "5672"),
		RedisURL:        os.Getenv("REDIS_URL"),
		MailHost:        os.Getenv("MAIL_HOST"),
		MailUser:        os.Getenv("MAIL_USER"),
		MailPass:        os.Getenv("MAIL_PASS"),
		MailFrom:        os.Getenv("MAIL_FROM"),
		MonitorSchedule: getEnv("MONITOR_SCHEDULE", "@every 5m"),
	}

	cfg.AdminCacheTTL = getDuration("ADMIN_CACHE_TTL", time.Minute, &errs)
	cfg.MailPort = getInt("MAIL_PORT", 587, &errs)
	cfg.QueueAlertThreshold = getInt("QUEUE_ALERT_THRESHOLD", 3, &errs)
	cfg.UrgentWait = time.Duration(getInt("URGENT_WAIT_MINUTES", 10, &errs)) * time.Minute
	cfg.DrainStopOnFirstFailure = getBool("DRAIN_STOP_ON_FIRST_FAILURE", true, &errs)
	cfg.DispatchBuffer = getInt("DISPATCH_BUFFER", 256, &errs)
	cfg.DispatchWorkers = getInt("DISPATCH_WORKERS", 2, &errs)

	switch cfg.Store {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL é obrigatória com STORE=postgres")
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Sprintf("STORE inválido: %q (use postgres ou memory)", cfg.Store))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuração inválida: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// RabbitMQEnabled: sem host a entrega por e-mail fica desligada.
func (c *Config) RabbitMQEnabled() bool {
	return c.RabbitMQHost != ""
}

func (c *Config) MailEnabled() bool {
	return c.MailHost != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, errs *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		*errs = append(*errs, fmt.Sprintf("%s deve ser um inteiro não negativo", key))
		return fallback
	}
	return n
}

func getBool(key string, fallback bool, errs *[]string) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s deve ser true ou false", key))
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration, errs *[]string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s deve ser uma duração (ex: 1m)", key))
		return fallback
	}
	return d
}
