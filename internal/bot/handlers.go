package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/fishbot/core/logger"
	"github.com/m3rciful/fishbot/core/telegram/callbacks"
	"github.com/m3rciful/fishbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/fishbot/core/telegram/helpers"
	"github.com/m3rciful/fishbot/core/telegram/state"
	"github.com/m3rciful/fishbot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// callbackKinds are the conversation events reachable from inline buttons.
var callbackKinds = []conversation.EventKind{
	conversation.EventMenu,
	conversation.EventProduct,
	conversation.EventAdd,
	conversation.EventCart,
	conversation.EventRemove,
	conversation.EventPay,
}

func (a *App) register() error {
	for _, kind := range callbackKinds {
		kind := kind
		if err := a.registry.RegisterCallback(string(kind), func(c tele.Context) error {
			id, _ := callbacks.PayloadInt64(c)
			return a.dispatch(c, conversation.Event{Kind: kind, ID: id})
		}); err != nil {
			return err
		}
	}

	cmds := map[string]commands.Command{
		"/start": {
			Description: "Open the fish menu",
			Handler: func(c tele.Context) error {
				return a.dispatch(c, conversation.Event{Kind: conversation.EventStart})
			},
		},
		"/cart": {
			Description: "Show my cart",
			Handler: func(c tele.Context) error {
				return a.dispatch(c, conversation.Event{Kind: conversation.EventCart})
			},
		},
		"/sessions": {
			Description: "Session counts by state",
			AdminOnly:   true,
			Hidden:      true,
			Handler:     a.handleSessions,
		},
	}
	for name, cmd := range cmds {
		if err := a.registry.RegisterCommand(name, cmd); err != nil {
			return err
		}
	}

	a.registry.SetTextFallback(a.onText)
	a.registry.SetCallbackNotFound(func(c tele.Context) error {
		return a.dispatch(c, conversation.Event{Kind: conversation.EventText})
	})
	return nil
}

// dispatch feeds one event to the machine and renders the replies.
// Failures caused by user input are answered and not reported as handler errors.
func (a *App) dispatch(c tele.Context, ev conversation.Event) error {
	meta := tghelpers.Meta(c)
	if meta.UserID == 0 {
		return nil
	}
	ev.UserID = meta.UserID
	ctx := tghelpers.BuildContext(c)

	res, err := a.machine.Dispatch(ctx, ev)
	if rerr := a.render(ctx, c, res.Messages); rerr != nil {
		if err == nil {
			return rerr
		}
		logger.Warn(ctx, "tg", "reply.fail", slog.String("err", logger.SanitizeLimit(rerr.Error(), 256)))
	}
	if err != nil && conversation.UserError(err) {
		return nil
	}
	return err
}

func (a *App) onText(c tele.Context) error {
	return a.dispatch(c, conversation.Event{Kind: conversation.EventText, Text: c.Text()})
}

// onUnknownInput re-renders the current view for input the bot has no route for.
func (a *App) onUnknownInput(c tele.Context) error {
	return a.dispatch(c, conversation.Event{Kind: conversation.EventText})
}

func (a *App) handleSessions(c tele.Context) error {
	counts, err := a.machine.CountByState(tghelpers.BuildContext(c))
	if err != nil {
		return err
	}
	return tghelpers.SendText(c, formatSessionCounts(counts))
}

func formatSessionCounts(counts map[state.State]int) string {
	var b strings.Builder
	total := 0
	b.WriteString("Sessions by state:\n")
	for _, st := range conversation.States {
		fmt.Fprintf(&b, "%s: %d\n", st, counts[st])
		total += counts[st]
	}
	fmt.Fprintf(&b, "Total: %d", total)
	return b.String()
}

func onRateLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Too fast, please wait a moment"})
	}
	return nil
}

// machineFSM lets the text router send checkout input straight to the machine.
type machineFSM struct{ a *App }

func (f machineFSM) InProgress(userID int64) bool { return f.a.machine.InProgress(userID) }

func (f machineFSM) ManagerHandler(c tele.Context) error { return f.a.onText(c) }
