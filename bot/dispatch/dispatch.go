// Package dispatch performs the terminal actions of a finished listing:
// persist it, post it to the public channel and notify every admin.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/m3rciful/carhub/bot/listing"
	"github.com/m3rciful/carhub/core/logger"
)

// Repository persists listings.
type Repository interface {
	Insert(ctx context.Context, l *listing.Listing) (int64, error)
	Count(ctx context.Context, f listing.Filter) (int, error)
}

// Broadcaster posts a public announcement with optional photos.
type Broadcaster interface {
	PostToChannel(ctx context.Context, text string, photos []string) error
}

// Notifier delivers a private message to one admin.
type Notifier interface {
	Notify(ctx context.Context, adminID int64, text string) error
}

// Action names a terminal side effect.
type Action string

const (
	ActionPersist   Action = "persist"
	ActionBroadcast Action = "broadcast"
	ActionNotify    Action = "notify"
)

// ActionResult is the outcome of one attempted side effect.
type ActionResult struct {
	Action   Action
	Target   string
	Err      error
	Duration time.Duration
}

// Report collects every action attempted for a listing.
type Report struct {
	ListingID int64
	Results   []ActionResult
}

// Succeeded reports whether every attempt of the given action succeeded.
// An action that was never attempted did not succeed.
func (r Report) Succeeded(action Action) bool {
	seen := false
	for _, res := range r.Results {
		if res.Action != action {
			continue
		}
		if res.Err != nil {
			return false
		}
		seen = true
	}
	return seen
}

// Failures returns the failed results in attempt order.
func (r Report) Failures() []ActionResult {
	var out []ActionResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Err joins every failure, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Failures() {
		errs = append(errs, fmt.Errorf("%s %s: %w", res.Action, res.Target, res.Err))
	}
	return errors.Join(errs...)
}

// Observer receives the outcome of every action, typically for metrics.
type Observer func(action Action, err error, took time.Duration)

// Options configures a Dispatcher.
type Options struct {
	Repository  Repository
	Broadcaster Broadcaster
	Notifier    Notifier
	AdminIDs    []int64
	Contact     Contact
	Observe     Observer
}

// Dispatcher runs the terminal actions in a fixed order. A failing action
// never prevents the later ones and nothing is rolled back.
type Dispatcher struct {
	repo     Repository
	channel  Broadcaster
	notifier Notifier
	admins   []int64
	contact  Contact
	observe  Observer
}

// New constructs a Dispatcher. Repository, Broadcaster and Notifier are required.
func New(opts Options) (*Dispatcher, error) {
	if opts.Repository == nil || opts.Broadcaster == nil || opts.Notifier == nil {
		return nil, errors.New("dispatch: repository, broadcaster and notifier are required")
	}
	admins := append([]int64(nil), opts.AdminIDs...)
	return &Dispatcher{
		repo:     opts.Repository,
		channel:  opts.Broadcaster,
		notifier: opts.Notifier,
		admins:   admins,
		contact:  opts.Contact,
		observe:  opts.Observe,
	}, nil
}

// Dispatch persists, broadcasts and notifies. The returned report holds
// one result per attempted action.
func (d *Dispatcher) Dispatch(ctx context.Context, l listing.Listing) Report {
	var report Report
	ctx = logger.WithListing(ctx, l.ShortRef(), string(l.Kind))

	id, res := d.run(ctx, ActionPersist, "listings", func() (int64, error) {
		return d.repo.Insert(ctx, &l)
	})
	report.Results = append(report.Results, res)
	if res.Err == nil {
		l.ID = id
		report.ListingID = id
	}

	_, res = d.run(ctx, ActionBroadcast, "channel", func() (int64, error) {
		return 0, d.channel.PostToChannel(ctx, PublicText(l, d.contact), l.Photos)
	})
	report.Results = append(report.Results, res)

	adminText := AdminText(l)
	for _, adminID := range d.admins {
		adminID := adminID
		_, res = d.run(ctx, ActionNotify, strconv.FormatInt(adminID, 10), func() (int64, error) {
			return 0, d.notifier.Notify(ctx, adminID, adminText)
		})
		report.Results = append(report.Results, res)
	}

	logger.Info(ctx, "dispatch", "listing.dispatched",
		slog.String("status", logger.Status(report.Err())),
		slog.Int64("listing_id", report.ListingID),
		slog.Int("count", len(report.Results)),
	)
	return report
}

func (d *Dispatcher) run(ctx context.Context, action Action, target string, fn func() (int64, error)) (int64, ActionResult) {
	start := time.Now()
	id, err := fn()
	took := logger.Took(start)
	res := ActionResult{Action: action, Target: target, Err: err, Duration: took}

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("action", string(action)),
		slog.String("target", target),
		slog.Duration("duration_ms", took),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Warn(ctx, "dispatch", "action.fail", attrs...)
	} else {
		logger.Debug(ctx, "dispatch", "action.ok", attrs...)
	}
	if d.observe != nil {
		d.observe(action, err, took)
	}
	return id, res
}
