package logger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

type loggerKey struct{}

// meta is the correlation data carried through a request. It is copied on
// every change, so a stored value is never mutated.
type meta struct {
	rid      string
	updateID int
	userID   int64
	chatID   int64
	handler  string
	ref      string
	kind     string
}

func metaFrom(ctx context.Context) meta {
	if ctx == nil {
		return meta{}
	}
	m, _ := ctx.Value(ctxKey{}).(meta)
	return m
}

func withMeta(ctx context.Context, edit func(*meta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := metaFrom(ctx)
	edit(&m)
	return context.WithValue(ctx, ctxKey{}, m)
}

// WithLogger stores log in ctx; FromContext returns it.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, log)
}

// FromContext returns the logger stored in ctx, or the global one.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID attaches the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context {
	return withMeta(ctx, func(m *meta) { m.rid = rid })
}

// WithUpdateMeta attaches the identifiers of the Telegram update being handled.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return withMeta(ctx, func(m *meta) {
		m.updateID = updateID
		m.userID = userID
		m.chatID = chatID
	})
}

// WithHandler names the handler serving the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return withMeta(ctx, func(m *meta) { m.handler = handler })
}

// WithListing tags every log line of a dispatch with the listing it belongs to.
func WithListing(ctx context.Context, ref, kind string) context.Context {
	return withMeta(ctx, func(m *meta) {
		m.ref = ref
		m.kind = kind
	})
}

// RIDFrom returns the correlation id, if any.
func RIDFrom(ctx context.Context) string { return metaFrom(ctx).rid }

// HandlerFrom returns the handler name, if any.
func HandlerFrom(ctx context.Context) string { return metaFrom(ctx).handler }

// UserIDFrom returns the Telegram user id, or 0.
func UserIDFrom(ctx context.Context) int64 { return metaFrom(ctx).userID }

// ChatIDFrom returns the chat id, or 0.
func ChatIDFrom(ctx context.Context) int64 { return metaFrom(ctx).chatID }

// UpdateIDFrom returns the update id, or 0.
func UpdateIDFrom(ctx context.Context) int { return metaFrom(ctx).updateID }

// ListingFrom returns the listing ref and kind set by WithListing.
func ListingFrom(ctx context.Context) (ref, kind string) {
	m := metaFrom(ctx)
	return m.ref, m.kind
}

// fields copies the non-empty metadata into a log record without
// overriding keys the caller set explicitly.
func (m meta) fields(r record) {
	r.setDefault("rid", m.rid)
	r.setDefault("handler", m.handler)
	r.setDefault("ref", m.ref)
	r.setDefault("kind", m.kind)
	if m.updateID != 0 {
		r.setDefault("update_id", m.updateID)
	}
	if m.userID != 0 {
		r.setDefault("user_id", m.userID)
	}
	if m.chatID != 0 {
		r.setDefault("chat_id", m.chatID)
	}
}
