package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DeafMist/news-brief/internal/logger"
	"github.com/DeafMist/news-brief/internal/models"
	"github.com/DeafMist/news-brief/internal/render"
)

// ErrUnknownFilter is returned by Select for values outside the trigger set.
var ErrUnknownFilter = errors.New("unknown filter")

// FeedLoader is satisfied by *feed.Loader.
type FeedLoader interface {
	Load(ctx context.Context) (*models.Feed, error)
}

// State is everything the page is rendered from.
type State struct {
	Feed    *models.Feed
	Filter  models.Filter
	LoadErr error
}

// Controller owns the page state. Loads replace the feed wholesale and the
// last load to finish wins; a failed load keeps the previous feed.
type Controller struct {
	mu     sync.RWMutex
	state  State
	loader FeedLoader
	log    *slog.Logger
}

// New creates a controller with the filter set to all and no feed.
func New(loader FeedLoader, log *slog.Logger) *Controller {
	if log == nil {
		log = logger.Discard()
	}
	return &Controller{
		state:  State{Filter: models.FilterAll},
		loader: loader,
		log:    log,
	}
}

// Load fetches the feed once and swaps it into the state.
func (c *Controller) Load(ctx context.Context) error {
	feed, err := c.loader.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state.LoadErr = err
		c.log.Warn("feed load failed", slog.Any("err", err))
		return fmt.Errorf("load feed: %w", err)
	}

	c.state.Feed = feed
	c.state.LoadErr = nil
	c.log.Info("feed loaded",
		slog.String("generated_at", feed.GeneratedAt),
		slog.Int("items", len(feed.Items)),
	)
	return nil
}

// Select activates the trigger for filter and renders synchronously.
func (c *Controller) Select(filter models.Filter) (render.Page, error) {
	if _, ok := models.ParseFilter(string(filter)); !ok {
		return render.Page{}, fmt.Errorf("%w: %q", ErrUnknownFilter, filter)
	}

	c.mu.Lock()
	c.state.Filter = filter
	st := c.state
	c.mu.Unlock()

	return Build(st), nil
}

// Page renders the current state without changing it.
func (c *Controller) Page() render.Page {
	return Build(c.Snapshot())
}

// Snapshot returns a copy of the state. The feed itself is shared and must
// not be modified.
func (c *Controller) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Build projects st into a page.
func Build(st State) render.Page {
	p := render.Page{
		LoadFailed: st.LoadErr != nil,
		Triggers:   render.Triggers(st.Filter),
	}
	if v, ok := render.Render(st.Feed, st.Filter); ok {
		p.Loaded = true
		p.View = v
	}
	return p
}
