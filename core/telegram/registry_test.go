package telegram

import (
	"testing"

	"github.com/m3rciful/fishbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Show the catalog"}); err != nil {
		t.Fatalf("register start: %v", err)
	}
	if err := reg.RegisterCommand("/cart", commands.Command{Handler: noop, Description: "Show cart", Aliases: []string{"basket"}}); err != nil {
		t.Fatalf("register cart: %v", err)
	}
	if err := reg.RegisterCommand("/sessions", commands.Command{Handler: noop, Description: "Session stats", AdminOnly: true, Hidden: true}); err != nil {
		t.Fatalf("register sessions: %v", err)
	}
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "dup"}); err == nil {
		t.Fatal("duplicate command must be rejected")
	}
	if err := reg.RegisterCommand("start", commands.Command{Handler: noop, Description: "x"}); err == nil {
		t.Fatal("command without slash must be rejected")
	}

	visible := reg.ListCommands(true)
	if len(visible) != 2 || visible[0].Text != "cart" || visible[1].Text != "start" {
		t.Fatalf("visible commands = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 3 {
		t.Fatalf("all commands = %d, want 3", len(all))
	}

	key, _, ok := reg.LookupCommand("basket")
	if !ok || key != "/cart" {
		t.Fatalf("alias lookup = %q %v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("salmon"); ok {
		t.Fatal("plain text must not resolve to a command")
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	for _, key := range []string{"product", "add", "menu"} {
		if err := reg.RegisterCallback(key, noop); err != nil {
			t.Fatalf("register %s: %v", key, err)
		}
	}
	if err := reg.RegisterCallback("add", noop); err == nil {
		t.Fatal("duplicate callback must be rejected")
	}
	if err := reg.RegisterCallback("pay", nil); err == nil {
		t.Fatal("nil handler must be rejected")
	}
	if _, ok := reg.GetCallback("product"); !ok {
		t.Fatal("product callback missing")
	}
	got := reg.ListCallbacks()
	if len(got) != 3 || got[0] != "add" || got[2] != "product" {
		t.Fatalf("callbacks = %v", got)
	}
	if reg.CallbackNotFound() == nil {
		t.Fatal("default not-found handler expected")
	}
}
