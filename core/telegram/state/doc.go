// Package state keeps per-user conversation sessions for Telegram bots.
// It is domain-agnostic: the session payload is a type parameter and the
// backend is chosen by the caller.
package state
