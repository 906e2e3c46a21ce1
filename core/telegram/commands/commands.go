// Package commands describes slash commands independently of routing.
package commands

import tele "gopkg.in/telebot.v4"

// Command is one slash command. AdminOnly commands are routed through the
// admin check and never advertised in the Telegram command menu.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases are extra names, with or without the leading slash.
	Aliases []string
}

// Public reports whether the command belongs in the command menu.
func (c Command) Public() bool {
	return !c.Hidden && !c.AdminOnly
}
