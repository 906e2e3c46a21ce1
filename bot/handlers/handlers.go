// Package handlers adapts Telegram updates to intake events and sends the
// resulting replies back to the chat.
package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/carhub/bot/intake"
	"github.com/m3rciful/carhub/core/logger"
	tg "github.com/m3rciful/carhub/core/telegram"
	"github.com/m3rciful/carhub/core/telegram/commands"
	tghelpers "github.com/m3rciful/carhub/core/telegram/helpers"
	"github.com/m3rciful/carhub/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Generic texts sent by the transport layer.
const (
	TextError     = "⚠️ An error occurred. Please try again or send /start."
	TextSlowDown  = "⏳ You are sending messages too fast. Please wait a moment."
	TextDocument  = "📷 Please send the picture as a photo, not as a file."
	TextNoSender  = "This bot works in private chats only."
	commandPrefix = "/"
)

// Conversation is the intake service as seen by the transport.
type Conversation interface {
	Handle(ctx context.Context, ev intake.Event) ([]intake.Reply, error)
}

// Handlers converts telebot contexts into intake events.
type Handlers struct {
	conv Conversation
}

// New returns Handlers bound to conv.
func New(conv Conversation) (*Handlers, error) {
	if conv == nil {
		return nil, errors.New("handlers: conversation is required")
	}
	return &Handlers{conv: conv}, nil
}

// Register adds the bot commands to reg.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand(commandPrefix+intake.CommandStart, commands.Command{
		Handler:     h.Command(intake.CommandStart),
		Description: "Main menu",
		Aliases:     []string{"menu"},
	})
	reg.RegisterCommand(commandPrefix+intake.CommandCancel, commands.Command{
		Handler:     h.Command(intake.CommandCancel),
		Description: "Cancel the current ad",
	})
	reg.RegisterCommand(commandPrefix+intake.CommandHelp, commands.Command{
		Handler:     h.Command(intake.CommandHelp),
		Description: "How to post an ad",
	})
	reg.RegisterCommand(commandPrefix+intake.CommandStats, commands.Command{
		Handler:     h.Command(intake.CommandStats),
		Description: "Listing statistics",
		AdminOnly:   true,
	})
}

// Text handles plain text answers and menu buttons.
func (h *Handlers) Text(c tele.Context) error {
	return h.handle(c, intake.Event{Kind: intake.EventText, Text: c.Text()})
}

// Photo handles photo uploads. Telegram sends several sizes; the file id
// of the one attached to the message is used.
func (h *Handlers) Photo(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return nil
	}
	return h.handle(c, intake.Event{Kind: intake.EventPhoto, PhotoID: msg.Photo.FileID})
}

// Document answers files sent instead of photos.
func (h *Handlers) Document(c tele.Context) error {
	return tghelpers.SendText(c, TextDocument)
}

// Command returns the handler for a slash command.
func (h *Handlers) Command(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return h.handle(c, intake.Event{Kind: intake.EventCommand, Text: name})
	}
}

// AdminOnly answers non-admins who try an admin command.
func (h *Handlers) AdminOnly(c tele.Context) error {
	return tghelpers.SendText(c, intake.TextAdminOnly)
}

// Limited answers throttled users.
func (h *Handlers) Limited(c tele.Context) error {
	return tghelpers.SendText(c, TextSlowDown)
}

// Panic apologises after a recovered panic.
func (h *Handlers) Panic(c tele.Context, _ any) {
	_ = tghelpers.SendText(c, TextError)
}

func (h *Handlers) handle(c tele.Context, ev intake.Event) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	if user == nil {
		return nil
	}
	if chat := c.Chat(); chat != nil && chat.Type != tele.ChatPrivate {
		return tghelpers.SendText(c, TextNoSender)
	}
	ev.SessionID = user.ID
	ev.Username = user.Username

	replies, err := h.conv.Handle(ctx, ev)
	if err != nil {
		logger.Error(ctx, "intake", "handle.fail",
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		_ = tghelpers.SendText(c, TextError)
		return err
	}
	return Send(c, replies)
}

// Send delivers replies in order and stops at the first failure.
func Send(c tele.Context, replies []intake.Reply) error {
	for _, r := range replies {
		rm := keyboard.Markup(r.Options, r.RemoveKeyboard)
		if err := tghelpers.SendWithMarkup(c, r.Text, r.Markdown, rm); err != nil {
			return err
		}
	}
	return nil
}
