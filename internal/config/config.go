package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Feed locates the published JSON feed.
type Feed struct {
	BaseURL      string
	Path         string
	FetchTimeout time.Duration
}

// Elasticsearch holds the archive connection shared by web, worker and retention.
type Elasticsearch struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Web configures the page server.
type Web struct {
	Feed
	Elasticsearch
	BindAddr    string
	DefaultPage int
	MaxPage     int
	PostItems   int
}

// Worker holds configuration for the feed_updates -> Elasticsearch worker.
type Worker struct {
	Feed
	Elasticsearch
	KafkaBrokers     []string
	KafkaTopic       string
	KafkaConsumer    string
	KeywordLimit     int
	KeywordMinLength int
	DedupeCapacity   int
	DedupeTTL        time.Duration
}

// Retention configures the archive cleanup loop.
type Retention struct {
	Elasticsearch
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

// Digest configures the one-shot Telegram digest.
type Digest struct {
	Feed
	TelegramToken  string
	TelegramChatID int64
	PerCategory    int
}

// LoadWeb builds a Web config from environment variables.
func LoadWeb() (*Web, error) {
	feed, err := loadFeed()
	if err != nil {
		return nil, err
	}

	c := &Web{
		Feed:          feed,
		Elasticsearch: loadElasticsearch(),
		BindAddr:      getEnv("WEB_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage:   getInt("WEB_ARCHIVE_PAGE_SIZE", 20),
		MaxPage:       getInt("WEB_ARCHIVE_MAX_PAGE_SIZE", 100),
		PostItems:     getInt("WEB_POST_PER_CATEGORY", 3),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("WEB_ARCHIVE_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("WEB_ARCHIVE_MAX_PAGE_SIZE must be positive")
	}
	if c.PostItems <= 0 {
		return nil, fmt.Errorf("WEB_POST_PER_CATEGORY must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("WEB_ARCHIVE_PAGE_SIZE cannot exceed WEB_ARCHIVE_MAX_PAGE_SIZE")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	feed, err := loadFeed()
	if err != nil {
		return nil, err
	}

	c := &Worker{
		Feed:             feed,
		Elasticsearch:    loadElasticsearch(),
		KafkaBrokers:     splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "feed_updates"),
		KafkaConsumer:    getEnv("KAFKA_CONSUMER_GROUP", "feed-archiver"),
		KeywordLimit:     getInt("WORKER_KEYWORD_LIMIT", 8),
		KeywordMinLength: getInt("WORKER_KEYWORD_MIN_LEN", 2),
		DedupeCapacity:   getInt("WORKER_DEDUPE_CAPACITY", 20000),
		DedupeTTL:        getDuration("WORKER_DEDUPE_TTL", 72*time.Hour),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	if c.KeywordLimit <= 0 {
		return nil, fmt.Errorf("WORKER_KEYWORD_LIMIT must be positive")
	}
	if c.KeywordMinLength < 0 {
		return nil, fmt.Errorf("WORKER_KEYWORD_MIN_LEN cannot be negative")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Elasticsearch: loadElasticsearch(),
		Interval:      getDuration("RETENTION_INTERVAL", 24*time.Hour),
		MaxAge:        getDuration("RETENTION_MAX_AGE", 30*24*time.Hour),
		BatchSize:     getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

// LoadDigest builds a Digest config from environment variables.
func LoadDigest() (*Digest, error) {
	feed, err := loadFeed()
	if err != nil {
		return nil, err
	}

	c := &Digest{
		Feed:          feed,
		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),
		PerCategory:   getInt("DIGEST_PER_CATEGORY", 3),
	}

	if c.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	chatID, err := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", ""), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be a numeric chat id")
	}
	c.TelegramChatID = chatID
	if c.PerCategory <= 0 {
		return nil, fmt.Errorf("DIGEST_PER_CATEGORY must be positive")
	}

	return c, nil
}

func loadFeed() (Feed, error) {
	f := Feed{
		BaseURL:      getEnv("FEED_BASE_URL", "http://localhost:8000/"),
		Path:         getEnv("FEED_PATH", "posts/latest.json"),
		FetchTimeout: getDuration("FEED_FETCH_TIMEOUT", 15*time.Second),
	}

	u, err := url.Parse(f.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Feed{}, fmt.Errorf("FEED_BASE_URL must be an absolute http(s) URL, got %q", f.BaseURL)
	}
	if f.FetchTimeout < 0 {
		return Feed{}, fmt.Errorf("FEED_FETCH_TIMEOUT cannot be negative")
	}
	return f, nil
}

func loadElasticsearch() Elasticsearch {
	return Elasticsearch{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "news-brief"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
