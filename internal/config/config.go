package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/ticket-automation/internal/domain"
)

// Config aggregates runtime configuration for the engine.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Sla        SlaConfig
	Automation AutomationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SlaRule defines deadline minutes for one ticket type. Zero minutes means
// no deadline is configured for that dimension.
type SlaRule struct {
	DefaultPriority      domain.TicketPriority `json:"default_priority"`
	FirstResponseMinutes int                   `json:"first_response_minutes"`
	ResolutionMinutes    int                   `json:"resolution_minutes"`
}

// SlaConfig maps ticket types to deadline rules with a global fallback.
type SlaConfig struct {
	Default SlaRule
	ByType  map[string]SlaRule
}

// RuleFor resolves the SLA rule for a ticket type, falling back to the
// global default when the type has no entry.
func (c SlaConfig) RuleFor(ticketType string) SlaRule {
	if rule, ok := c.ByType[ticketType]; ok {
		return rule
	}
	return c.Default
}

// AutomationConfig tunes the dispatcher, runner, queue, and scheduler.
type AutomationConfig struct {
	FollowUpAfterDays     int
	AutoCloseAfterDays    int
	MaxAttempts           int
	BackoffSeconds        []int
	AttemptTimeoutSeconds int
	WorkerCount           int
	QueueKey              string
	FollowUpCron          string
	EscalationCron        string
	AutoCloseCron         string
	EscalationWebhookURL  string
	NotifyEmailFrom       string
}

// AttemptTimeout returns the per-attempt execution ceiling.
func (a AutomationConfig) AttemptTimeout() time.Duration {
	return time.Duration(a.AttemptTimeoutSeconds) * time.Second
}

// BackoffSchedule returns the delays applied between retry attempts.
func (a AutomationConfig) BackoffSchedule() []time.Duration {
	schedule := make([]time.Duration, len(a.BackoffSeconds))
	for i, s := range a.BackoffSeconds {
		schedule[i] = time.Duration(s) * time.Second
	}
	return schedule
}

// Load reads configuration from environment variables, applying defaults
// where possible. Per-type SLA rules are loaded from the JSON file named by
// SLA_POLICY_FILE when set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	slaByType, err := loadSlaRules(os.Getenv("SLA_POLICY_FILE"))
	if err != nil {
		return nil, err
	}

	backoff, err := parseIntList(getEnv("AUTOMATION_BACKOFF_SECONDS", "60,180,600"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTOMATION_BACKOFF_SECONDS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-automation-engine"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Sla: SlaConfig{
			Default: SlaRule{
				DefaultPriority:      domain.TicketPriority(getEnv("SLA_DEFAULT_PRIORITY", string(domain.TicketPriorityMedium))),
				FirstResponseMinutes: getEnvAsInt("SLA_DEFAULT_FIRST_RESPONSE_MINUTES", 0),
				ResolutionMinutes:    getEnvAsInt("SLA_DEFAULT_RESOLUTION_MINUTES", 0),
			},
			ByType: slaByType,
		},
		Automation: AutomationConfig{
			FollowUpAfterDays:     getEnvAsInt("AUTOMATION_FOLLOW_UP_AFTER_DAYS", 3),
			AutoCloseAfterDays:    getEnvAsInt("AUTOMATION_AUTO_CLOSE_AFTER_DAYS", 7),
			MaxAttempts:           getEnvAsInt("AUTOMATION_MAX_ATTEMPTS", 3),
			BackoffSeconds:        backoff,
			AttemptTimeoutSeconds: getEnvAsInt("AUTOMATION_ATTEMPT_TIMEOUT_SECONDS", 300),
			WorkerCount:           getEnvAsInt("AUTOMATION_WORKER_COUNT", 4),
			QueueKey:              getEnv("AUTOMATION_QUEUE_KEY", "automation:tasks"),
			FollowUpCron:          getEnv("AUTOMATION_FOLLOW_UP_CRON", "0 * * * *"),
			EscalationCron:        getEnv("AUTOMATION_ESCALATION_CRON", "*/15 * * * *"),
			AutoCloseCron:         getEnv("AUTOMATION_AUTO_CLOSE_CRON", "30 * * * *"),
			EscalationWebhookURL:  getEnv("AUTOMATION_ESCALATION_WEBHOOK_URL", ""),
			NotifyEmailFrom:       getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func loadSlaRules(path string) (map[string]SlaRule, error) {
	if path == "" {
		return map[string]SlaRule{}, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read SLA policy file: %w", err)
	}
	rules := map[string]SlaRule{}
	if err := json.Unmarshal(content, &rules); err != nil {
		return nil, fmt.Errorf("parse SLA policy file: %w", err)
	}
	return rules, nil
}

func parseIntList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		values = append(values, parsed)
	}
	return values, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
