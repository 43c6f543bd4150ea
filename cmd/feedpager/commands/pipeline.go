package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/feedpager/pkg/cachestore"
	"github.com/marmos91/feedpager/pkg/config"
	"github.com/marmos91/feedpager/pkg/feed"
	"github.com/marmos91/feedpager/pkg/feedclient"
	"github.com/marmos91/feedpager/pkg/metrics"
	"github.com/marmos91/feedpager/pkg/pager"
)

// pipeline wires the cache store, feed client and loader for one process.
// Sessions opened on it share the loader's worker pool.
type pipeline struct {
	store   cachestore.Store
	loader  *pager.Loader[feed.Post]
	build   pager.QueryBuilder
	session pager.Config
	stop    time.Duration
}

func newPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	store, err := config.CreateCacheStore(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}

	cache := pager.NewCodecStore(store, pager.JSONCodec[feed.Post]{},
		pager.WithNamespace[feed.Post](cfg.Cache.Namespace),
		pager.WithMaxAge[feed.Post](cfg.Cache.MaxAge),
		pager.WithMaxEntrySize[feed.Post](int(cfg.Cache.MaxEntrySize)),
	)

	opts := []feedclient.Option{feedclient.WithBearerToken(cfg.Feed.Token)}
	if cfg.Feed.Timeout > 0 {
		opts = append(opts, feedclient.WithTimeout(cfg.Feed.Timeout))
	}
	client := feedclient.New[feed.Post](cfg.Feed.BaseURL, opts...)

	loader := pager.NewLoader[feed.Post](cache, client, cfg.Loader, metrics.NewPagerMetrics())
	loader.Start(ctx)

	return &pipeline{
		store:  store,
		loader: loader,
		build: feed.NewQueryBuilder(feed.QueryOptions{
			Path:     cfg.Feed.Path,
			FeedType: cfg.Feed.FeedType,
			UserID:   cfg.Feed.UserID,
		}),
		session: cfg.Session.PagerConfig("browse"),
		stop:    cfg.ShutdownTimeout,
	}, nil
}

// newSession opens a session reporting into list.
func (p *pipeline) newSession(list *pager.ListState[feed.Post]) (*pager.Session[feed.Post], error) {
	return pager.NewSession(p.loader, p.build, list, p.session)
}

// Close stops the loader, letting queued fetches drain, then closes the store.
func (p *pipeline) Close() error {
	p.loader.Stop(p.stop)
	if err := p.store.Close(); err != nil {
		return fmt.Errorf("failed to close cache store: %w", err)
	}
	return nil
}
