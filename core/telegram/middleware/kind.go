package middleware

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Update kinds used for rate limit exclusions and metrics labels.
const (
	KindMessage  = "message"
	KindPhoto    = "photo"
	KindCommand  = "command"
	KindDocument = "document"
	KindOther    = "other"
)

// UpdateKind classifies an update by its message payload.
func UpdateKind(upd tele.Update) string {
	msg := upd.Message
	if msg == nil {
		return KindOther
	}
	switch {
	case msg.Photo != nil:
		return KindPhoto
	case msg.Document != nil:
		return KindDocument
	case strings.HasPrefix(msg.Text, "/"):
		return KindCommand
	case msg.Text != "":
		return KindMessage
	}
	return KindOther
}
