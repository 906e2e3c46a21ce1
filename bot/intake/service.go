package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/m3rciful/carhub/bot/dispatch"
	"github.com/m3rciful/carhub/bot/listing"
	"github.com/m3rciful/carhub/core/logger"
	"github.com/m3rciful/carhub/core/telegram/state"
)

// Main menu entries.
const (
	MenuSale    = "🚗 Car for Sale"
	MenuRental  = "🏢 Car for Rental"
	MenuContact = "📞 Contact Brokers"
)

// MainMenu is the keyboard shown outside a questionnaire.
var MainMenu = [][]string{{MenuSale, MenuRental}, {MenuContact}}

// Commands understood by Handle.
const (
	CommandStart  = "start"
	CommandCancel = "cancel"
	CommandHelp   = "help"
	CommandStats  = "stats"
)

// User-facing texts that do not belong to a single question.
const (
	TextWelcome   = "🚗 *Welcome to Addis Car Hub*\n\nPost your car for Sale or Rental."
	TextCancelled = "❌ Cancelled."
	TextNoSession = "Please choose an option from the menu."
	TextPosted    = "✅ Your ad has been posted successfully!"
	TextPostFail  = "⚠️ Your ad was received but could not be fully posted. Our team has been notified."
	TextAdminOnly = "⛔ This command is for admins only."
	TextHelp      = "Use the menu to post a car for sale or rental.\n" +
		"/start shows the menu, /cancel drops the current ad."
)

// EventKind classifies inbound events.
type EventKind int

const (
	EventText EventKind = iota
	EventPhoto
	EventCommand
)

// Event is one inbound user message. For EventCommand, Text holds the
// command name without the slash.
type Event struct {
	SessionID int64
	Kind      EventKind
	Text      string
	PhotoID   string
	Username  string
}

// Reply is one outbound message. Options are reply keyboard rows.
// RemoveKeyboard hides the previous keyboard when Options is empty.
type Reply struct {
	Text           string
	Options        [][]string
	RemoveKeyboard bool
	Markdown       bool
}

// Dispatcher runs the terminal actions for a finished listing.
type Dispatcher interface {
	Dispatch(ctx context.Context, l listing.Listing) dispatch.Report
}

// Counter counts stored listings.
type Counter interface {
	Count(ctx context.Context, f listing.Filter) (int, error)
}

// Observer receives intake events ("start", "reject", "complete",
// "cancel") with a label such as the kind or the rejection code.
type Observer func(event, label string)

// ServiceOptions wires a Service.
type ServiceOptions struct {
	Store      state.Store[Session]
	Sequencer  *Sequencer
	Dispatcher Dispatcher
	Counter    Counter
	AdminIDs   []int64
	Contact    dispatch.Contact
	Observe    Observer
	Now        func() time.Time
}

// Service drives conversations: it loads the session, applies the input
// and stores or clears the result. Events of one session are handled one
// at a time.
type Service struct {
	store   state.Store[Session]
	seq     *Sequencer
	disp    Dispatcher
	counter Counter
	admins  []int64
	contact dispatch.Contact
	observe Observer
	now     func() time.Time
	locks   stripedLocks
}

// NewService validates opts and constructs a Service.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("intake: store is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("intake: dispatcher is required")
	}
	if opts.Sequencer == nil {
		opts.Sequencer = NewSequencer(Options{})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Observe == nil {
		opts.Observe = func(string, string) {}
	}
	return &Service{
		store:   opts.Store,
		seq:     opts.Sequencer,
		disp:    opts.Dispatcher,
		counter: opts.Counter,
		admins:  append([]int64(nil), opts.AdminIDs...),
		contact: opts.Contact,
		observe: opts.Observe,
		now:     opts.Now,
	}, nil
}

// IsAdmin reports whether id is a configured admin.
func (s *Service) IsAdmin(id int64) bool {
	return slices.Contains(s.admins, id)
}

// Handle processes one event and returns the replies to send, in order.
// A returned error means the event was not applied; the stored session
// is left as it was. The session lock covers only the state update; a
// finished listing is dispatched after it is released.
func (s *Service) Handle(ctx context.Context, ev Event) ([]Reply, error) {
	replies, done, err := s.apply(ctx, ev)
	if err != nil || done == nil {
		return replies, err
	}
	return s.complete(ctx, *done), nil
}

func (s *Service) apply(ctx context.Context, ev Event) ([]Reply, *listing.Listing, error) {
	unlock := s.locks.lock(ev.SessionID)
	defer unlock()

	if ev.Kind == EventCommand {
		replies, err := s.command(ctx, ev)
		return replies, nil, err
	}
	if replies, ok, err := s.menu(ctx, ev); ok {
		return replies, nil, err
	}
	return s.advance(ctx, ev)
}

// menu handles the main menu entries, which work with or without a session.
func (s *Service) menu(ctx context.Context, ev Event) ([]Reply, bool, error) {
	if ev.Kind == EventText {
		switch strings.TrimSpace(ev.Text) {
		case MenuSale:
			replies, err := s.start(ctx, ev.SessionID, listing.KindSale)
			return replies, true, err
		case MenuRental:
			replies, err := s.start(ctx, ev.SessionID, listing.KindRental)
			return replies, true, err
		case MenuContact:
			replies, err := s.contactReply(ctx, ev.SessionID)
			return replies, true, err
		}
	}
	return nil, false, nil
}

func (s *Service) advance(ctx context.Context, ev Event) ([]Reply, *listing.Listing, error) {
	sess, ok, err := s.store.Get(ctx, ev.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("intake: load session: %w", err)
	}
	if !ok {
		return []Reply{{Text: TextNoSession, Options: MainMenu}}, nil, nil
	}

	in := Input{Text: ev.Text}
	if ev.Kind == EventPhoto {
		in = Input{PhotoID: ev.PhotoID}
	}
	out, err := s.seq.Advance(sess, in)
	if err != nil {
		return nil, nil, err
	}

	switch out.Action {
	case ActionAsk:
		if err := s.store.Put(ctx, ev.SessionID, out.Session); err != nil {
			return nil, nil, fmt.Errorf("intake: save session: %w", err)
		}
		logger.Debug(ctx, "intake", "answer.accepted",
			slog.String("kind", string(out.Session.Draft.Kind)),
			slog.String("state", string(out.Session.State)),
		)
		return []Reply{promptReply(out.Prompt)}, nil, nil

	case ActionReject:
		logger.Info(ctx, "intake", "answer.rejected",
			slog.String("kind", string(sess.Draft.Kind)),
			slog.String("state", string(sess.State)),
			slog.String("err_code", string(out.Rejected.Code)),
		)
		s.observe("reject", string(out.Rejected.Code))
		r := promptReply(out.Prompt)
		r.Text = out.Rejected.Notice() + "\n\n" + r.Text
		return []Reply{r}, nil, nil

	case ActionCancel:
		if err := s.store.Clear(ctx, ev.SessionID); err != nil {
			return nil, nil, fmt.Errorf("intake: clear session: %w", err)
		}
		s.observe("cancel", string(sess.Draft.Kind))
		return []Reply{{Text: TextCancelled, Options: MainMenu}}, nil, nil

	case ActionFinalize:
		l, err := s.finalize(ctx, ev, out.Session)
		return nil, l, err
	}
	return nil, nil, fmt.Errorf("intake: unexpected action %s", out.Action)
}

func (s *Service) finalize(ctx context.Context, ev Event, sess Session) (*listing.Listing, error) {
	l, err := sess.Draft.Finalize(ev.SessionID, ev.Username, s.now())
	if err != nil {
		return nil, err
	}
	// Cleared before any side effect so a redelivered final message finds
	// no session and cannot create a second listing.
	if err := s.store.Clear(ctx, ev.SessionID); err != nil {
		return nil, fmt.Errorf("intake: clear session: %w", err)
	}
	return &l, nil
}

func (s *Service) complete(ctx context.Context, l listing.Listing) []Reply {
	report := s.disp.Dispatch(ctx, l)
	s.observe("complete", string(l.Kind))

	text := TextPosted
	if !report.Succeeded(dispatch.ActionPersist) || !report.Succeeded(dispatch.ActionBroadcast) {
		text = TextPostFail
	}
	logger.Info(ctx, "intake", "listing.completed",
		slog.String("status", logger.Status(report.Err())),
		slog.Int64("listing_id", report.ListingID),
		slog.String("ref", l.ShortRef()),
		slog.String("kind", string(l.Kind)),
		slog.Int("count", len(l.Photos)),
	)
	return []Reply{{Text: text, Options: MainMenu}}
}

func (s *Service) start(ctx context.Context, id int64, kind listing.Kind) ([]Reply, error) {
	sess, prompt := s.seq.Start(id, kind)
	if err := s.store.Put(ctx, id, sess); err != nil {
		return nil, fmt.Errorf("intake: save session: %w", err)
	}
	s.observe("start", string(kind))
	logger.Info(ctx, "intake", "session.start", slog.String("kind", string(kind)))
	return []Reply{promptReply(prompt)}, nil
}

func (s *Service) command(ctx context.Context, ev Event) ([]Reply, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ev.Text), "/")) {
	case CommandStart:
		if err := s.store.Clear(ctx, ev.SessionID); err != nil {
			return nil, fmt.Errorf("intake: clear session: %w", err)
		}
		return []Reply{{Text: TextWelcome, Options: MainMenu, Markdown: true}}, nil

	case CommandCancel:
		sess, ok, err := s.store.Get(ctx, ev.SessionID)
		if err != nil {
			return nil, fmt.Errorf("intake: load session: %w", err)
		}
		if err := s.store.Clear(ctx, ev.SessionID); err != nil {
			return nil, fmt.Errorf("intake: clear session: %w", err)
		}
		if ok {
			s.observe("cancel", string(sess.Draft.Kind))
		}
		return []Reply{{Text: TextCancelled, Options: MainMenu}}, nil

	case CommandHelp:
		sess, ok, err := s.store.Get(ctx, ev.SessionID)
		if err != nil {
			return nil, fmt.Errorf("intake: load session: %w", err)
		}
		if !ok {
			return []Reply{{Text: TextHelp, Options: MainMenu}}, nil
		}
		r := promptReply(s.seq.Prompt(sess))
		r.Text = TextHelp + "\n\n" + r.Text
		return []Reply{r}, nil

	case CommandStats:
		return s.stats(ctx, ev.SessionID)
	}
	return []Reply{{Text: TextNoSession, Options: MainMenu}}, nil
}

func (s *Service) stats(ctx context.Context, id int64) ([]Reply, error) {
	if !s.IsAdmin(id) {
		return []Reply{{Text: TextAdminOnly}}, nil
	}
	if s.counter == nil {
		return []Reply{{Text: "Stats are unavailable."}}, nil
	}
	text, err := StatsText(ctx, s.counter, s.now())
	if err != nil {
		return nil, err
	}
	return []Reply{{Text: text}}, nil
}

// StatsText renders listing counts: total, per kind and the last 24 hours.
func StatsText(ctx context.Context, counter Counter, now time.Time) (string, error) {
	filters := []struct {
		label string
		f     listing.Filter
	}{
		{"Total", listing.Filter{}},
		{"For sale", listing.Filter{Kind: listing.KindSale}},
		{"For rental", listing.Filter{Kind: listing.KindRental}},
		{"Last 24h", listing.Filter{Since: now.Add(-24 * time.Hour)}},
	}
	var b strings.Builder
	b.WriteString("📊 Listings\n")
	for _, item := range filters {
		n, err := counter.Count(ctx, item.f)
		if err != nil {
			return "", fmt.Errorf("intake: count listings: %w", err)
		}
		fmt.Fprintf(&b, "%s: %d\n", item.label, n)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (s *Service) contactReply(ctx context.Context, id int64) ([]Reply, error) {
	text := ContactText(s.contact)
	sess, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("intake: load session: %w", err)
	}
	if !ok {
		return []Reply{{Text: text, Options: MainMenu}}, nil
	}
	r := promptReply(s.seq.Prompt(sess))
	r.Text = text + "\n\n" + r.Text
	return []Reply{r}, nil
}

// ContactText renders the broker contact card.
func ContactText(c dispatch.Contact) string {
	var b strings.Builder
	b.WriteString("📞 ")
	if c.Name != "" {
		b.WriteString(c.Name)
	} else {
		b.WriteString("Brokers")
	}
	for _, p := range c.Phones {
		b.WriteString("\n")
		b.WriteString(p)
	}
	return b.String()
}

func promptReply(p Prompt) Reply {
	return Reply{Text: p.Text, Options: p.Options, RemoveKeyboard: len(p.Options) == 0}
}
