package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/news-brief/internal/config"
	"github.com/DeafMist/news-brief/internal/dedupe"
	"github.com/DeafMist/news-brief/internal/elasticsearch"
	"github.com/DeafMist/news-brief/internal/feed"
	"github.com/DeafMist/news-brief/internal/logger"
	"github.com/DeafMist/news-brief/internal/models"
	"github.com/DeafMist/news-brief/internal/processing"
	"github.com/DeafMist/news-brief/internal/render"
)

// feedUpdate is published by the feed pipeline after it writes a feed file.
type feedUpdate struct {
	GeneratedAt string `json:"generated_at"`
	Path        string `json:"path"`
}

type itemIndexer interface {
	IndexItem(ctx context.Context, doc models.ArchivedItem) error
}

type feedLoader interface {
	Load(ctx context.Context) (*models.Feed, error)
}

// openFeed returns a loader for a feed path relative to FEED_BASE_URL.
type openFeed func(path string) (feedLoader, error)

type archiver struct {
	log    *slog.Logger
	index  itemIndexer
	open   openFeed
	cache  *dedupe.Cache
	cfg    *config.Worker
	now    func() time.Time
	newUID func() string
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	loader, err := feed.NewLoader(cfg.BaseURL, cfg.Path, cfg.FetchTimeout, log)
	if err != nil {
		log.Error("init feed loader", slog.Any("err", err))
		os.Exit(1)
	}

	a := &archiver{
		log:   log,
		index: esClient,
		open: func(path string) (feedLoader, error) {
			return loader.WithPath(path)
		},
		cache:  dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL),
		cfg:    cfg,
		now:    time.Now,
		newUID: uuid.NewString,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		MinBytes:       1,
		MaxBytes:       1e6,
		CommitInterval: 0, // manual commit only
	})
	defer reader.Close()

	dlqTopic := cfg.KafkaTopic + "_dlq"
	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       dlqTopic,
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", dlqTopic),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := a.handle(ctx, msg.Value); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)
			if !deadLetter(ctx, log, dlqWriter, msg, err) {
				if ctx.Err() != nil {
					return
				}
				// leave uncommitted so the message is replayed after restart
				log.Error("DLQ write exhausted retries",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// deadLetter forwards msg with failure headers, backing off exponentially
// between attempts. It reports whether the write succeeded.
func deadLetter(ctx context.Context, log *slog.Logger, w messageWriter, msg kafka.Message, cause error) bool {
	dlqMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := range 5 {
		err := w.WriteMessages(ctx, dlqMsg)
		if err == nil {
			log.Info("message sent to DLQ", slog.Int64("offset", msg.Offset), slog.Int("attempt", attempt+1))
			return true
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", err),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false
		}
	}
	return false
}

// handle archives every new item of the feed named by one update message.
func (a *archiver) handle(ctx context.Context, payload []byte) error {
	var upd feedUpdate
	if len(strings.TrimSpace(string(payload))) > 0 {
		if err := json.Unmarshal(payload, &upd); err != nil {
			return fmt.Errorf("decode update: %w", err)
		}
	}

	loader, err := a.open(strings.TrimSpace(upd.Path))
	if err != nil {
		return err
	}
	f, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	indexed := 0
	for _, it := range f.Items {
		doc := a.toArchived(f, it)
		if a.cache.Contains(doc.ID) {
			continue
		}
		if err := a.index.IndexItem(ctx, doc); err != nil {
			return fmt.Errorf("archive %s: %w", doc.ID, err)
		}
		a.cache.Mark(doc.ID)
		indexed++
	}

	a.log.Info("feed archived",
		slog.String("generated_at", f.GeneratedAt),
		slog.Int("items", len(f.Items)),
		slog.Int("indexed", indexed),
	)
	return nil
}

func (a *archiver) toArchived(f *models.Feed, it models.Item) models.ArchivedItem {
	published := ""
	if it.PublishedAt != nil {
		published = *it.PublishedAt
	}

	ts := processing.ParseTimestamp(published, render.KST)
	if ts.IsZero() {
		ts = processing.ParseTimestamp(f.GeneratedAt, render.KST)
	}
	if ts.IsZero() {
		ts = a.now()
	}

	id := processing.ItemID(it.URL, it.Title)
	if id == "" {
		id = a.newUID()
	}

	return models.ArchivedItem{
		ID:          id,
		Category:    string(it.Category),
		Source:      it.Source,
		Title:       it.Title,
		Summary:     it.Summary,
		URL:         it.URL,
		Keywords:    processing.Keywords(it.Title+" "+it.Summary, a.cfg.KeywordLimit, a.cfg.KeywordMinLength),
		PublishedAt: published,
		GeneratedAt: f.GeneratedAt,
		Timestamp:   ts.UTC(),
	}
}
