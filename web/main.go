package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeafMist/news-brief/internal/board"
	"github.com/DeafMist/news-brief/internal/config"
	"github.com/DeafMist/news-brief/internal/digest"
	"github.com/DeafMist/news-brief/internal/elasticsearch"
	"github.com/DeafMist/news-brief/internal/feed"
	"github.com/DeafMist/news-brief/internal/logger"
	"github.com/DeafMist/news-brief/internal/models"
	"github.com/DeafMist/news-brief/internal/render"
)

func main() {
	log := logger.New("web")
	cfg, err := config.LoadWeb()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	loader, err := feed.NewLoader(cfg.BaseURL, cfg.Path, cfg.FetchTimeout, log)
	if err != nil {
		log.Error("init feed loader", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	srv := &server{log: log, cfg: cfg, board: board.New(loader, log), archive: esClient, now: time.Now}

	// The page serves its pre-load state until the first load lands.
	go func() {
		if err := srv.board.Load(ctx); err != nil {
			log.Warn("initial feed load failed", slog.String("url", loader.URL()), slog.Any("err", err))
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		log.Info("web server starting", slog.String("addr", cfg.BindAddr), slog.String("feed", loader.URL()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type archiveSearcher interface {
	SearchItems(ctx context.Context, params elasticsearch.SearchParams) (*elasticsearch.SearchResult, error)
}

type server struct {
	log     *slog.Logger
	cfg     *config.Web
	board   *board.Controller
	archive archiveSearcher
	now     func() time.Time
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/", s.handlePage)
	r.Post("/reload", s.handleReload)
	r.Get("/api/view", s.handleView)
	r.Get("/post", s.handlePost)
	r.Get("/archive", s.handleArchive)
	r.Get("/health", s.handleHealth)
	return r
}

func (s *server) handlePage(w http.ResponseWriter, r *http.Request) {
	page := s.board.Page()

	if raw := r.URL.Query().Get("filter"); raw != "" {
		selected, err := s.board.Select(models.Filter(raw))
		if err != nil {
			// unknown triggers leave the current selection in place
			s.log.Debug("ignored filter", slog.String("filter", raw))
		} else {
			page = selected
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.WritePage(w, page); err != nil {
		s.log.Warn("write page", slog.Any("err", err))
	}
}

func (s *server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	// failures are recorded in the board state and surface as the retry form
	_ = s.board.Load(ctx)

	http.Redirect(w, r, "./", http.StatusSeeOther)
}

func (s *server) handleView(w http.ResponseWriter, r *http.Request) {
	st := s.board.Snapshot()

	if raw := r.URL.Query().Get("filter"); raw != "" {
		filter, ok := models.ParseFilter(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown filter " + strconv.Quote(raw)})
			return
		}
		st.Filter = filter
	}

	writeJSON(w, http.StatusOK, board.Build(st))
}

// handlePost serves the per-category blog edition of the current feed.
func (s *server) handlePost(w http.ResponseWriter, r *http.Request) {
	st := s.board.Snapshot()
	if st.Feed == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "feed not loaded"})
		return
	}

	post, ok := digest.BuildPost(st.Feed, s.cfg.PostItems, s.now().In(render.KST))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no items to post"})
		return
	}

	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, post)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	title := render.Escape(post.Title)
	_, _ = fmt.Fprintf(w, "<!doctype html>\n<html lang=\"ko\">\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n<h1>%s</h1>\n%s</body>\n</html>\n",
		title, title, post.HTML)
}

func (s *server) handleArchive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	params := elasticsearch.SearchParams{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: strings.TrimSpace(q.Get("category")),
		Source:   strings.TrimSpace(q.Get("source")),
		From:     clampInt(q.Get("from"), 0, 10_000),
		Size:     clampInt(q.Get("size"), s.cfg.DefaultPage, s.cfg.MaxPage),
		Start:    parseTime(q.Get("start")),
		End:      parseTime(q.Get("end")),
	}

	result, err := s.archive.SearchItems(ctx, params)
	if err != nil {
		s.log.Error("archive search", slog.Any("err", err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "archive unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.board.Snapshot()
	if st.Feed == nil {
		msg := "feed not loaded"
		if st.LoadErr != nil {
			msg = st.LoadErr.Error()
		}
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"generated_at": st.Feed.GeneratedAt,
		"items":        len(st.Feed.Items),
	})
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	return nil
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
