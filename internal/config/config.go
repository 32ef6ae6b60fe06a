package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	defaultNewsCount       = 10
	defaultSessionTTLHours = 14 * 24
	defaultKafkaTopic      = "newsnotes.events"
)

// Config хранит настройки одного сайта (новости или заметки).
type Config struct {
	Addr                string      `json:"addr"`
	Storage             string      `json:"storage"`
	DatabaseURL         string      `json:"database_url"`
	NewsCountOnHomePage int         `json:"news_count_on_home_page"`
	RSSFeeds            []string    `json:"rss_feeds"`
	PollInterval        int         `json:"poll_interval"`
	SessionTTLHours     int         `json:"session_ttl_hours"`
	Kafka               KafkaConfig `json:"kafka"`
}

type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	Topic   string   `json:"topic"`
}

// Default возвращает конфигурацию по умолчанию для адреса addr.
func Default(addr string) *Config {
	return &Config{
		Addr:                addr,
		Storage:             StorageMemory,
		NewsCountOnHomePage: defaultNewsCount,
		PollInterval:        15,
		SessionTTLHours:     defaultSessionTTLHours,
		Kafka:               KafkaConfig{Topic: defaultKafkaTopic},
	}
}

// SessionTTL возвращает время жизни сессии.
func (cfg *Config) SessionTTL() time.Duration {
	return time.Duration(cfg.SessionTTLHours) * time.Hour
}

// Validate проверяет режим хранилища, размер главной страницы,
// а при заданных RSSFeeds - что PollInterval не меньше 5 минут и все ленты - валидные URL.
func (cfg *Config) Validate() error {
	switch cfg.Storage {
	case StorageMemory:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("database_url is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage %q", cfg.Storage)
	}
	if cfg.NewsCountOnHomePage < 1 {
		return errors.New("news_count_on_home_page must be positive")
	}
	if cfg.SessionTTLHours < 1 {
		return errors.New("session_ttl_hours must be positive")
	}
	if len(cfg.RSSFeeds) > 0 && cfg.PollInterval < 5 {
		return errors.New("poll interval must be ≥ 5 minutes")
	}
	for _, u := range cfg.RSSFeeds {
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("invalid RSS URL: %s", u)
		}
	}
	return nil
}

// LoadConfig читает JSON-файл по пути path поверх base.
func LoadConfig(path string, base *Config) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := *base
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &cfg, nil
}

// Load собирает конфигурацию: значения по умолчанию, затем JSON-файл
// (если он существует), затем .env и переменные окружения.
func Load(path, defaultAddr string) (*Config, error) {
	cfg := Default(defaultAddr)
	if path != "" {
		fileCfg, err := LoadConfig(path, cfg)
		switch {
		case err == nil:
			cfg = fileCfg
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}

	// .env необязателен
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.Storage = getEnv("STORAGE", cfg.Storage)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if feeds := getEnv("RSS_FEEDS", ""); feeds != "" {
		cfg.RSSFeeds = strings.Split(feeds, ",")
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"NEWS_COUNT_ON_HOME_PAGE", &cfg.NewsCountOnHomePage},
		{"SESSION_TTL_HOURS", &cfg.SessionTTLHours},
		{"POLL_INTERVAL", &cfg.PollInterval},
	}
	for _, v := range ints {
		raw, ok := os.LookupEnv(v.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", v.key, err)
		}
		*v.dst = n
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
