package helpers

import (
	"testing"

	"github.com/m3rciful/fishbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

func TestBuildContextCarriesUpdateMeta(t *testing.T) {
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	c := bot.NewContext(tele.Update{
		ID:      5,
		Message: &tele.Message{Sender: &tele.User{ID: 42}, Chat: &tele.Chat{ID: 99}},
	})

	m := Meta(c)
	if m.UpdateID != 5 || m.UserID != 42 || m.ChatID != 99 {
		t.Fatalf("meta = %+v", m)
	}

	ctx := BuildContext(c)
	if logger.UserIDFrom(ctx) != 42 || logger.RIDFrom(ctx) == "" {
		t.Fatalf("context lacks update metadata")
	}
	if again := BuildContext(c); again != ctx {
		t.Fatal("context must be cached on the update")
	}
	tagged := WithHandler(c, "cart")
	if logger.HandlerFrom(tagged) != "cart" {
		t.Fatalf("handler = %q", logger.HandlerFrom(tagged))
	}
}
