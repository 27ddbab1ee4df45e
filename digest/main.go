package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeafMist/news-brief/internal/config"
	"github.com/DeafMist/news-brief/internal/digest"
	"github.com/DeafMist/news-brief/internal/feed"
	"github.com/DeafMist/news-brief/internal/logger"
	"github.com/DeafMist/news-brief/internal/models"
	"github.com/DeafMist/news-brief/internal/render"
	"github.com/DeafMist/news-brief/internal/telegram"
)

type feedLoader interface {
	Load(ctx context.Context) (*models.Feed, error)
}

type messageSender interface {
	Send(ctx context.Context, text string) error
}

func main() {
	log := logger.New("digest")
	cfg, err := config.LoadDigest()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	loader, err := feed.NewLoader(cfg.BaseURL, cfg.Path, cfg.FetchTimeout, log)
	if err != nil {
		log.Error("init feed loader", slog.Any("err", err))
		os.Exit(1)
	}

	sender, err := telegram.NewSender(cfg.TelegramToken, cfg.TelegramChatID, log)
	if err != nil {
		log.Error("init telegram", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, log, loader, sender, cfg.PerCategory, time.Now().In(render.KST)); err != nil {
		log.Error("digest failed", slog.Any("err", err))
		os.Exit(1)
	}
}

// run loads the feed once and sends the digest. An empty digest is not an error.
func run(ctx context.Context, log *slog.Logger, loader feedLoader, sender messageSender, perCategory int, day time.Time) error {
	f, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load feed: %w", err)
	}

	text, ok := digest.Build(f, perCategory, day)
	if !ok {
		log.Info("no items to send", slog.String("generated_at", f.GeneratedAt))
		return nil
	}

	return sender.Send(ctx, text)
}
