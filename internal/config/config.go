package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-skud/internal/shared/connection"
)

// Config is everything the binaries read from the environment. Call
// godotenv.Load before Load so a local .env file is honoured.
type Config struct {
	Env      string
	HTTPPort string
	Location *time.Location

	ISUPListenAddr  string
	ISUPIdleTimeout time.Duration
	ISUPForwardURL  string

	DB connection.MySQLConfig

	RedisAddr        string
	EmployeeCacheTTL time.Duration

	KafkaBroker            string
	NotificationTopic      string
	NotificationQueueSize  int
	NotificationTimeout    time.Duration
	TelegramToken          string
	TelegramAttendanceChat []int64
	TelegramOperatorChat   []int64

	DeviceTablePath string

	IngestWorkers       int
	IngestQueueSize     int
	IngestRatePerSecond int
	IngestRateBurst     int
}

func Load() (Config, error) {
	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "Asia/Dushanbe"))
	if err != nil {
		return Config{}, fmt.Errorf("APP_TIMEZONE: %w", err)
	}

	cfg := Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPPort: getEnv("HTTP_PORT", "3001"),
		Location: loc,

		ISUPListenAddr: getEnv("ISUP_LISTEN_ADDR", ":7001"),
		ISUPForwardURL: os.Getenv("ISUP_FORWARD_URL"),

		DB: connection.MySQLConfig{
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "skud"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "skud"),
			Location: loc,
		},

		RedisAddr:         os.Getenv("REDIS_ADDR"),
		KafkaBroker:       os.Getenv("KAFKA_BROKER"),
		NotificationTopic: getEnv("NOTIFICATION_TOPIC", "skud.notifications.v1"),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		DeviceTablePath:   os.Getenv("DEVICE_TABLE_PATH"),
	}

	if cfg.ISUPIdleTimeout, err = getDuration("ISUP_IDLE_TIMEOUT", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.EmployeeCacheTTL, err = getDuration("EMPLOYEE_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.NotificationTimeout, err = getDuration("NOTIFICATION_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.NotificationQueueSize, err = getInt("NOTIFICATION_QUEUE_SIZE", 256); err != nil {
		return Config{}, err
	}
	if cfg.IngestWorkers, err = getInt("INGEST_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.IngestQueueSize, err = getInt("INGEST_QUEUE_SIZE", 1024); err != nil {
		return Config{}, err
	}
	if cfg.IngestRatePerSecond, err = getInt("INGEST_RATE_PER_SECOND", 20); err != nil {
		return Config{}, err
	}
	if cfg.IngestRateBurst, err = getInt("INGEST_RATE_BURST", 40); err != nil {
		return Config{}, err
	}
	if cfg.TelegramAttendanceChat, err = getInt64List("TELEGRAM_CHAT_IDS"); err != nil {
		return Config{}, err
	}
	if cfg.TelegramOperatorChat, err = getInt64List("TELEGRAM_OPERATOR_CHAT_IDS"); err != nil {
		return Config{}, err
	}
	// operators default to the attendance chats
	if len(cfg.TelegramOperatorChat) == 0 {
		cfg.TelegramOperatorChat = cfg.TelegramAttendanceChat
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func getInt64List(key string) ([]int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil, nil
	}
	var out []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid chat id %q", key, part)
		}
		out = append(out, id)
	}
	return out, nil
}
