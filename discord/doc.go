// Package discord connects a roleverify Engine to Discord through discordgo.
//
// It posts verification panels with the /sendverify slash command, turns
// panel button presses into Engine operations, and feeds direct messages to a
// reply.Mailbox so challenge waits can complete.
//
// Panels carry their method and role in each button's custom ID, so buttons
// keep working across restarts without any stored panel registry. The adapter
// keeps no challenge state of its own.
//
// # What this package must NOT do
//
//   - Decide verification outcomes. Every decision comes from the Engine.
//   - Echo a member's typed reply back into logs.
package discord
