// Package autosave persists application snapshots on a debounced schedule
// and folds asynchronous external events into live state. Two channels feed
// one loop: local edits queue the newest snapshot for a delayed flush, and
// external events apply a narrow field-level merge immediately.
package autosave

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"intake/internal/intake/snapshot"
)

// DefaultQuietPeriod is how long edits must stay quiet before the pending
// snapshot flushes.
const DefaultQuietPeriod = 800 * time.Millisecond

// Applier folds an external event into live application state.
type Applier func(ctx context.Context, event ExternalEvent)

// Pipeline debounces snapshot persistence. Rapid successive edits coalesce:
// each new edit replaces the pending snapshot and resets the quiet timer,
// so exactly the latest snapshot is written after the quiet period
// (last-snapshot-wins). Save failures are logged and superseded by the next
// flush; cancellation drops any pending flush so nothing persists after the
// owning context is gone.
type Pipeline struct {
	store      snapshot.Store
	apply      Applier
	quiet      time.Duration
	logger     *slog.Logger
	saved      prometheus.Counter
	saveErrors prometheus.Counter
	edits      chan snapshot.Snapshot
	external   chan ExternalEvent
}

type Option func(*Pipeline)

func WithQuietPeriod(d time.Duration) Option {
	return func(p *Pipeline) {
		p.quiet = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithCounters(saved, saveErrors prometheus.Counter) Option {
	return func(p *Pipeline) {
		p.saved = saved
		p.saveErrors = saveErrors
	}
}

func New(store snapshot.Store, apply Applier, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		apply:    apply,
		quiet:    DefaultQuietPeriod,
		edits:    make(chan snapshot.Snapshot, 1),
		external: make(chan ExternalEvent, 16),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetApplier installs the external-event applier. Split from New because
// the applier and the pipeline reference each other at wiring time.
func (p *Pipeline) SetApplier(apply Applier) {
	p.apply = apply
}

// QueueEdit hands the pipeline the latest snapshot. A snapshot already
// queued but not yet flushed is replaced, never queued behind.
func (p *Pipeline) QueueEdit(snap snapshot.Snapshot) {
	for {
		select {
		case p.edits <- snap:
			return
		default:
			select {
			case <-p.edits:
			default:
			}
		}
	}
}

// QueueExternal hands the pipeline an inbound external event.
func (p *Pipeline) QueueExternal(event ExternalEvent) {
	p.external <- event
}

// Run processes edits and external events until the context is cancelled.
// Cancellation stops the quiet timer without flushing.
func (p *Pipeline) Run(ctx context.Context) error {
	timer := time.NewTimer(p.quiet)
	if !timer.Stop() {
		<-timer.C
	}
	var pending *snapshot.Snapshot

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case snap := <-p.edits:
			pending = &snap
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(p.quiet)

		case <-timer.C:
			if pending == nil {
				continue
			}
			if err := p.store.Put(ctx, *pending); err != nil {
				if p.saveErrors != nil {
					p.saveErrors.Inc()
				}
				if p.logger != nil {
					p.logger.WarnContext(ctx, "autosave failed, will retry on next edit",
						"application_id", pending.ApplicationID,
						"error", err,
					)
				}
				continue
			}
			if p.saved != nil {
				p.saved.Inc()
			}
			pending = nil

		case event := <-p.external:
			if p.apply != nil {
				p.apply(ctx, event)
			}
		}
	}
}
