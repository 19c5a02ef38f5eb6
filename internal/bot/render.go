package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"unicode/utf8"

	"github.com/m3rciful/fishbot/core/logger"
	tghelpers "github.com/m3rciful/fishbot/core/telegram/helpers"
	"github.com/m3rciful/fishbot/core/telegram/keyboard"
	"github.com/m3rciful/fishbot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// Telegram caption limits.
const (
	captionLimit = 1024
	captionKeep  = 1000
)

type mediaOpener interface {
	OpenMedia(ctx context.Context, url string) (io.ReadCloser, error)
}

// render sends all replies of one event as a single dispatcher job so they stay in order.
func (a *App) render(ctx context.Context, c tele.Context, msgs []conversation.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return tghelpers.Enqueue(c, "reply", "sendMessage", func() error {
		for _, msg := range msgs {
			if err := a.send(ctx, c, msg); err != nil {
				return err
			}
		}
		return nil
	})
}

func (a *App) send(ctx context.Context, c tele.Context, msg conversation.Message) error {
	opts := tghelpers.MarkdownOptions(markup(msg.Buttons))
	if msg.ImageURL != "" && a.media != nil {
		err := a.sendPhoto(ctx, c, msg, opts)
		if err == nil {
			return nil
		}
		logger.Warn(ctx, "tg", "photo.fallback",
			slog.String("image", msg.ImageURL),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	if msg.Replace && c.Callback() != nil && c.Callback().Message != nil {
		return c.EditOrSend(msg.Text, opts)
	}
	return c.Send(msg.Text, opts)
}

func (a *App) sendPhoto(ctx context.Context, c tele.Context, msg conversation.Message, opts *tele.SendOptions) error {
	body, err := a.media.OpenMedia(ctx, msg.ImageURL)
	if err != nil {
		return fmt.Errorf("download image: %w", err)
	}
	defer body.Close()
	photo := &tele.Photo{File: tele.FromReader(body), Caption: photoCaption(msg.Text)}
	return c.Send(photo, opts)
}

// photoCaption keeps captions under the Telegram limit.
func photoCaption(text string) string {
	if utf8.RuneCountInString(text) <= captionLimit {
		return text
	}
	return string([]rune(text)[:captionKeep]) + "…"
}

// markup converts conversation buttons to an inline keyboard. Button kinds are callback keys.
func markup(rows [][]conversation.Button) *tele.ReplyMarkup {
	out := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			btn := keyboard.InlineBtn{Text: b.Text, Unique: string(b.Kind)}
			if b.ID != 0 {
				btn.Data = strconv.FormatInt(b.ID, 10)
			}
			btns = append(btns, btn)
		}
		out = append(out, btns)
	}
	return keyboard.InlineButtonsRows(out...)
}
