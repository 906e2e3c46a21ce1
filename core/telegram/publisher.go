package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgsender "github.com/m3rciful/carhub/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// CaptionLimit is the longest caption Telegram accepts on a photo.
const CaptionLimit = 1024

// AlbumLimit is the most items a media group may carry.
const AlbumLimit = 10

// botAPI is the subset of tele.Bot used by Publisher.
type botAPI interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error)
}

// ChatRef addresses a chat by @username or numeric id.
type ChatRef string

// Recipient implements tele.Recipient.
func (c ChatRef) Recipient() string { return string(c) }

// ParseChatRef accepts "@channel", "channel" or a numeric chat id.
func ParseChatRef(s string) (tele.Recipient, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("telegram: empty chat reference")
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return tele.ChatID(id), nil
	}
	if !strings.HasPrefix(s, "@") {
		s = "@" + s
	}
	return ChatRef(s), nil
}

// Publisher posts announcements to a channel and private notices to admins.
type Publisher struct {
	bot     botAPI
	channel tele.Recipient
	sender  *tgsender.Sender
	mode    tele.ParseMode
}

// PublisherOptions configures NewPublisher.
type PublisherOptions struct {
	Channel string
	Sender  *tgsender.Sender
	// ParseMode applies to captions and texts. Defaults to Markdown.
	ParseMode tele.ParseMode
}

// NewPublisher constructs a Publisher for the given channel.
func NewPublisher(bot botAPI, opts PublisherOptions) (*Publisher, error) {
	if bot == nil {
		return nil, errors.New("telegram: nil bot")
	}
	channel, err := ParseChatRef(opts.Channel)
	if err != nil {
		return nil, err
	}
	mode := opts.ParseMode
	if mode == "" {
		mode = tele.ModeMarkdown
	}
	return &Publisher{bot: bot, channel: channel, sender: opts.Sender, mode: mode}, nil
}

// PostToChannel publishes text with up to AlbumLimit photos. The text is
// the caption of the first photo when it fits, otherwise a separate
// message after the photos.
func (p *Publisher) PostToChannel(ctx context.Context, text string, photos []string) error {
	opts := &tele.SendOptions{ParseMode: p.mode}
	if len(photos) > AlbumLimit {
		photos = photos[:AlbumLimit]
	}
	captioned := len([]rune(text)) <= CaptionLimit
	caption := ""
	if captioned {
		caption = text
	}

	switch len(photos) {
	case 0:
		return p.send(ctx, "broadcast.text", "sendMessage", p.channel, text, opts)
	case 1:
		photo := &tele.Photo{File: tele.File{FileID: photos[0]}, Caption: caption}
		if err := p.send(ctx, "broadcast.photo", "sendPhoto", p.channel, photo, opts); err != nil {
			return err
		}
	default:
		album := make(tele.Album, 0, len(photos))
		for i, id := range photos {
			item := &tele.Photo{File: tele.File{FileID: id}}
			if i == 0 {
				item.Caption = caption
			}
			album = append(album, item)
		}
		err := p.sender.Do(ctx, "broadcast.album", "sendMediaGroup", func() error {
			_, err := p.bot.SendAlbum(p.channel, album, opts)
			return err
		})
		if err != nil {
			return err
		}
	}

	if captioned {
		return nil
	}
	return p.send(ctx, "broadcast.text", "sendMessage", p.channel, text, opts)
}

// Notify sends a private message to one admin.
func (p *Publisher) Notify(ctx context.Context, adminID int64, text string) error {
	if adminID == 0 {
		return errors.New("telegram: admin id is zero")
	}
	return p.send(ctx, "notify", "sendMessage", tele.ChatID(adminID), text, &tele.SendOptions{ParseMode: p.mode})
}

func (p *Publisher) send(ctx context.Context, action, endpoint string, to tele.Recipient, what interface{}, opts *tele.SendOptions) error {
	return p.sender.Do(ctx, action, endpoint, func() error {
		_, err := p.bot.Send(to, what, opts)
		return err
	})
}
