// Package commands describes slash commands exposed by the bot.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command handler with its menu metadata.
// AdminOnly commands are routed through the admin check; Hidden ones stay out
// of the public command menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Public reports whether the command belongs in the command menu.
func (c Command) Public() bool {
	return !c.Hidden && !c.AdminOnly
}

// Matches reports whether name (with or without the leading slash) is one of the aliases.
func (c Command) Matches(name string) bool {
	bare := strings.TrimPrefix(name, "/")
	for _, alias := range c.Aliases {
		if strings.TrimPrefix(alias, "/") == bare {
			return true
		}
	}
	return false
}
