package scope

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

// Fetcher reads the current server list.
type Fetcher interface {
	GetScope(ctx context.Context, ref Ref) ([]Item, error)
}

// Refresher polls the server list and feeds it to a session so edits made
// by other clients show up while the view is open.
type Refresher struct {
	fetcher  Fetcher
	session  *Session
	interval time.Duration
	onChange func([]Item)
}

type RefresherOption func(r *Refresher)

// WithOnChange is called with the merged items whenever a poll changed
// the visible list.
func WithOnChange(fn func([]Item)) RefresherOption {
	return func(r *Refresher) {
		r.onChange = fn
	}
}

func NewRefresher(fetcher Fetcher, session *Session, interval time.Duration, opts ...RefresherOption) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	r := &Refresher{
		fetcher:  fetcher,
		session:  session,
		interval: interval,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Refresh polls once.
func (r *Refresher) Refresh(ctx context.Context) (bool, error) {
	items, err := r.fetcher.GetScope(ctx, r.session.Ref())
	if err != nil {
		return false, err
	}
	changed := r.session.Observe(items)
	if changed && r.onChange != nil {
		r.onChange(r.session.Items())
	}
	return changed, nil
}

// Run polls until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	ticker := jitterbug.New(r.interval, &jitterbug.Norm{Stdev: r.interval / 10, Mean: 0})
	defer ticker.Stop()

	log := zap.S().Named("scope_refresher").With("ref", r.session.Ref().String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if _, err := r.Refresh(ctx); err != nil {
			log.Warnw("failed to refresh scope", "error", err)
		}
	}
}
