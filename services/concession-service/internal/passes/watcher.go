package passes

import (
	"context"
	"log/slog"
	"sync"

	"railway/services/concession-service/internal/changefeed"
	"railway/services/concession-service/internal/metrics"
)

// View is one delivery of the live pass list.
type View struct {
	Passes   []Pass `json:"passes"`
	Count    int    `json:"count"`
	Search   string `json:"search"`
	NotFound bool   `json:"notFound"`
}

type Watcher struct {
	service *Service
	feed    changefeed.Feed
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewWatcher(service *Service, feed changefeed.Feed, m *metrics.Metrics, logger *slog.Logger) *Watcher {
	return &Watcher{
		service: service,
		feed:    feed,
		metrics: m,
		logger:  logger,
	}
}

// Subscription is a running live view. It ends when Close is called or the
// context passed to Watch is done.
type Subscription struct {
	kick     chan struct{}
	search   chan string
	finished chan struct{}
	cancel   context.CancelFunc
	once     sync.Once
}

// Watch delivers the current view, then a fresh view after every change on
// the feed and every SetSearch. deliver runs on the subscription's goroutine
// and must not call Close.
func (w *Watcher) Watch(ctx context.Context, search string, deliver func(View)) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		kick:     make(chan struct{}, 1),
		search:   make(chan string),
		finished: make(chan struct{}),
		cancel:   cancel,
	}

	unsubscribe, err := w.feed.Subscribe(func(changefeed.Change) {
		select {
		case sub.kick <- struct{}{}:
		default:
		}
	})
	if err != nil {
		cancel()
		return nil, err
	}

	snapshot, err := w.service.Snapshot(ctx)
	if err != nil {
		unsubscribe()
		cancel()
		return nil, err
	}

	w.metrics.RecordWatcherChange(ctx, 1)
	go w.run(ctx, sub, unsubscribe, snapshot, search, deliver)
	return sub, nil
}

func (w *Watcher) run(ctx context.Context, sub *Subscription, unsubscribe func(), last []Pass, search string, deliver func(View)) {
	defer close(sub.finished)
	defer w.metrics.RecordWatcherChange(context.WithoutCancel(ctx), -1)
	defer unsubscribe()

	var trigger ZeroTrigger
	emit := func() {
		filtered := Filter(last, search)
		view := View{
			Passes:   filtered,
			Count:    len(filtered),
			Search:   search,
			NotFound: trigger.Observe(len(filtered)),
		}
		if ctx.Err() != nil {
			return
		}
		deliver(view)
		w.metrics.RecordSnapshot(ctx)
		if view.NotFound {
			w.metrics.RecordNotFound(ctx)
		}
	}

	emit()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.kick:
			snapshot, err := w.service.Snapshot(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.ErrorContext(ctx, "failed to refresh passes", "error", err)
				continue
			}
			last = snapshot
			emit()
		case search = <-sub.search:
			emit()
		}
	}
}

// SetSearch re-filters the last snapshot with a new certificate search.
func (s *Subscription) SetSearch(search string) {
	select {
	case s.search <- search:
	case <-s.finished:
	}
}

// Close stops the view. No delivery happens after Close returns.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
	<-s.finished
}

// Done is closed once the subscription has stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.finished
}
