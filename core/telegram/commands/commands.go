// Package commands describes slash commands registered with the bot.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a registered slash command.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands run for the configured admin and are left out of the command menu.
	AdminOnly bool
	Hidden    bool
	// Aliases are extra names, with or without the leading slash.
	Aliases []string
}

// HasAlias reports whether name, written as "/name", is one of the aliases.
func (c Command) HasAlias(name string) bool {
	for _, alias := range c.Aliases {
		if "/"+strings.TrimPrefix(alias, "/") == name {
			return true
		}
	}
	return false
}
